package evaluator_test

import "testing"

func TestScoping(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"closure counter with nonlocal", `
			def make():
			    count = 0
			    def inc():
			        nonlocal count
			        count += 1
			        return count
			    return inc
			c = make()
			c()
			c()
			print(c())
		`, "3\n"},
		{"independent closures", `
			def adder(n):
			    return lambda x: x + n
			add2 = adder(2)
			add5 = adder(5)
			print(add2(1), add5(1))
		`, "3 6\n"},
		{"global declaration", `
			x = 1
			def f():
			    global x
			    x = 5
			f()
			print(x)
		`, "5\n"},
		{"global declaration creates binding", `
			def f():
			    global fresh
			    fresh = "made"
			f()
			print(fresh)
		`, "made\n"},
		{"local shadows global", `
			x = "outer"
			def f():
			    x = "inner"
			    return x
			print(f(), x)
		`, "inner outer\n"},
		{"class scope skipped by methods", `
			x = "module"
			class A:
			    x = "class"
			    def get(self):
			        return x
			print(A().get(), A.x)
		`, "module class\n"},
		{"nested function reads enclosing", `
			def outer():
			    a = 1
			    def mid():
			        def inner():
			            return a + 1
			        return inner()
			    return mid()
			print(outer())
		`, "2\n"},
		{"nonlocal through two levels", `
			def outer():
			    v = 0
			    def mid():
			        def inner():
			            nonlocal v
			            v = 10
			        inner()
			    mid()
			    return v
			print(outer())
		`, "10\n"},
		{"conditionally bound local", `
			def outer():
			    y = "enclosing"
			    def inner(flag):
			        if flag:
			            y = "local"
			        return y
			    return inner(True)
			print(outer())
		`, "local\n"},
		{"handler name stays in handler", `
			def f():
			    e = "before"
			    try:
			        raise ValueError("x")
			    except ValueError as e:
			        pass
			    return e
			print(f())
		`, "before\n"},
		{"handler writes pass through", `
			def f():
			    try:
			        raise KeyError("k")
			    except KeyError as err:
			        seen = str(err)
			    return seen
			print(f())
		`, "'k'\n"},
		{"comprehension variable does not leak", `
			i = "kept"
			squares = [i * i for i in range(4)]
			print(squares, i)
		`, "[0, 1, 4, 9] kept\n"},
		{"comprehension sees class-free enclosing", `
			def f(k):
			    return [x * k for x in range(3)]
			print(f(10))
		`, "[0, 10, 20]\n"},
		{"delete local", `
			def f():
			    a = 1
			    del a
			    try:
			        return a
			    except NameError:
			        return "gone"
			print(f())
		`, "gone\n"},
	})
}

func TestScopingErrors(t *testing.T) {
	runErrorCases(t, []errorCase{
		{"undefined name", "print(missing)", "NameError: name 'missing' is not defined"},
		{"name hint", "prnt(1)", "Did you mean: 'print'?"},
		{"nonlocal without binding", `
			def f():
			    def g():
			        nonlocal nothere
			        nothere = 1
			    g()
			f()
		`, "SyntaxError: no binding for nonlocal 'nothere' found"},
		{"return outside function", "return 1", "SyntaxError: 'return' outside function"},
		{"local read before assignment", `
			x = 1
			def f():
			    print(x)
			    x = 2
			f()
		`, "UnboundLocalError: cannot access local variable 'x' where it is not associated with a value"},
		{"augmented assignment needs a binding", `
			total = 0
			def add(n):
			    total += n
			add(1)
		`, "UnboundLocalError: cannot access local variable 'total'"},
		{"unbound branch local", `
			y = "module"
			def f(flag):
			    if flag:
			        y = "local"
			    return y
			f(False)
		`, "UnboundLocalError: cannot access local variable 'y'"},
		{"free variable read before assignment", `
			def outer():
			    def inner():
			        return v
			    r = inner()
			    v = 1
			    return r
			v = "module"
			outer()
		`, "NameError: cannot access free variable 'v' where it is not associated with a value in enclosing scope"},
	})
}

func TestUnboundLocalIsNameError(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"caught as NameError", `
			x = 1
			def f():
			    try:
			        return x
			    except NameError as e:
			        return type(e).__name__
			    x = 2
			print(f())
		`, "UnboundLocalError\n"},
		{"class body still sees globals", `
			x = "global"
			def f():
			    class C:
			        y = x
			    return C.y
			print(f())
		`, "global\n"},
	})
}

func TestNameHints(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"misspelled builtin", "prnt(1)", "NameError: name 'prnt' is not defined. Did you mean: 'print'?"},
		{"short names get no hint", "def f():\n    pass\nx", "NameError: name 'x' is not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runBoth(t, dedent(tt.src))
			if r.err == nil || r.err.Error() != tt.want {
				t.Errorf("error = %v, want %q", r.err, tt.want)
			}
		})
	}

	runOutputCases(t, []outputCase{
		{"hint stays out of args", `
			value = 1
			try:
			    print(valeu)
			except NameError as e:
			    print(str(e), e.args[0] == str(e))
		`, "name 'valeu' is not defined True\n"},
	})
}

func TestArgumentBinding(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"defaults varargs kwonly kwargs", `
			def f(a, b=2, *args, c, d=4, **kw):
			    return (a, b, args, c, d, kw)
			print(f(1, c=3))
			print(f(1, 5, 6, 7, c=3, e=9))
		`, "(1, 2, (), 3, 4, {})\n(1, 5, (6, 7), 3, 4, {'e': 9})\n"},
		{"defaults evaluated once", `
			def f(a, items=[]):
			    items.append(a)
			    return items
			f(1)
			print(f(2))
		`, "[1, 2]\n"},
		{"default captured at definition", `
			n = 1
			def f(x=n):
			    return x
			n = 2
			print(f())
		`, "1\n"},
		{"star and double star at call site", `
			def f(a, b, c=0, **rest):
			    return a + b + c + len(rest)
			args = [1, 2]
			opts = {"c": 3, "z": 0}
			print(f(*args, **opts))
		`, "7\n"},
		{"keyword binding by name", `
			def f(a, b):
			    return a - b
			print(f(b=1, a=10))
		`, "9\n"},
		{"multiple return values", `
			def f():
			    return 1, 2
			a, b = f()
			print(a, b, f())
		`, "1 2 (1, 2)\n"},
		{"lambda defaults", `
			g = lambda x, y=3: x * y
			print(g(2), g(2, 5))
		`, "6 10\n"},
		{"decorators apply bottom up", `
			def tag(name):
			    def wrap(fn):
			        def inner():
			            return name + "(" + fn() + ")"
			        return inner
			    return wrap
			@tag("a")
			@tag("b")
			def base():
			    return "x"
			print(base())
		`, "a(b(x))\n"},
		{"recursion", `
			def fib(n):
			    return n if n < 2 else fib(n - 1) + fib(n - 2)
			print(fib(15))
		`, "610\n"},
	})
}

func TestArgumentBindingErrors(t *testing.T) {
	runErrorCases(t, []errorCase{
		{"missing", "def f(a, b):\n    pass\nf()", "ArgumentBindingError: f() missing 2 required positional arguments: 'a' and 'b'"},
		{"too many", "def g(a):\n    pass\ng(1, 2)", "g() takes 1 positional argument but 2 were given"},
		{"twice", "def g(a):\n    pass\ng(1, a=2)", "g() got multiple values for argument 'a'"},
		{"unexpected keyword", "def g(a):\n    pass\ng(a=1, b=2)", "g() got an unexpected keyword argument 'b'"},
		{"missing keyword-only", "def h(*, k):\n    pass\nh()", "h() missing 1 required keyword-only argument: 'k'"},
		{"binding error is a TypeError", `
			def g():
			    pass
			try:
			    g(1)
			except TypeError as e:
			    raise ValueError("caught " + type(e).__name__)
		`, "ValueError: caught ArgumentBindingError"},
	})
}
