package evaluator_test

import "testing"

func TestScenarios(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"three level closures", `
			def foo():
			    x = "x"
			    def bar():
			        y = "y"
			        def baz():
			            z = "z"
			            return "baz(" + x + y + z + ")"
			        return baz() + ", bar(" + x + y + ")"
			    return bar() + ", foo(" + x + ")"
			print(foo())
		`, "baz(xyz), bar(xy), foo(x)\n"},
		{"global accumulates across calls", `
			x = 0
			def inc():
			    global x
			    x += 1
			inc()
			inc()
			print(x == 2)
		`, "True\n"},
		{"user __add__ result is used verbatim", `
			class A:
			    def __add__(self, rhs):
			        return "added"
			print(A() + A())
		`, "added\n"},
		{"later specific handler wins and finally runs", `
			log = []
			try:
			    raise KeyError("k")
			except IndexError:
			    log.append("index")
			except KeyError:
			    log.append("key")
			finally:
			    log.append("finally")
			print(log)
		`, "['key', 'finally']\n"},
		{"integer division family", `
			print(isinstance(6 / 3, float), 7 // 2, -7 % 3, 7 % -3, 7.0 // 2)
		`, "True 3 2 -2 3.0\n"},
		{"powers", `
			print(2 ** 8 == 256, 2 ** 64 == 18446744073709551616.0)
		`, "True True\n"},
		{"dict order and deletion", `
			d = {"b": 1, "a": 2, "c": 3}
			del d["a"]
			print(list(d.items()), len(d))
		`, "[('b', 1), ('c', 3)] 2\n"},
		{"set algebra", `
			a = {1, 2, 3}
			b = {2, 3, 4}
			print((a | b) == {1, 2, 3, 4}, (a & b) == {2, 3}, (a - b) == {1}, (a ^ b) == {1, 4})
		`, "True True True True\n"},
		{"recursive factorial", `
			def factorial(n): return n*factorial(n-1) if n else 1
			print(factorial(5) == 120)
		`, "True\n"},
		{"tuple return", `
			def pair():
			    x, y = 1, 2
			    return x, y
			print(pair())
		`, "(1, 2)\n"},
		{"formatted template", `
			x = 99
			print(f"start{x+1}end")
		`, "start100end\n"},
	})
}

func TestAtExitScenario(t *testing.T) {
	const registered = "import atexit\ndef cb(msg):\n    print(msg)\natexit.register(cb, \"finished\")\n"
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"fires once", registered, "finished\n"},
		{"unregistered never fires", registered + "atexit.unregister(cb)\n", ""},
	}
	for _, tt := range cases {
		for _, backend := range backends {
			r := runWith(t, backend, tt.src, nil)
			if r.err != nil {
				t.Fatalf("%s/%s: %v", tt.name, backend, r.err)
			}
			for i := 0; i < 2; i++ {
				if err := r.eval.RunAtExit(); err != nil {
					t.Fatalf("%s/%s: RunAtExit: %v", tt.name, backend, err)
				}
			}
			if r.out != "" {
				t.Fatalf("%s/%s: output before exit: %q", tt.name, backend, r.out)
			}
			if got := r.buf.String(); got != tt.want {
				t.Errorf("%s/%s: at-exit output = %q, want %q", tt.name, backend, got, tt.want)
			}
		}
	}
}
