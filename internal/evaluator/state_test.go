package evaluator_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/parser"
)

func TestAtExit(t *testing.T) {
	src := dedent(`
		import atexit
		def bye(who, punct="!"):
		    print("bye", who + punct)
		def never():
		    print("never")
		atexit.register(bye, "a")
		atexit.register(never)
		atexit.register(bye, "b", punct="?")
		atexit.unregister(never)
		print("pending", atexit._ncallbacks())
	`)
	for _, backend := range backends {
		r := runWith(t, backend, src, nil)
		if r.err != nil {
			t.Fatalf("%s: %v", backend, r.err)
		}
		if err := r.eval.RunAtExit(); err != nil {
			t.Fatalf("%s: RunAtExit: %v", backend, err)
		}
		if err := r.eval.RunAtExit(); err != nil {
			t.Fatalf("%s: second RunAtExit: %v", backend, err)
		}
		want := "pending 2\nbye a!\nbye b?\n"
		if got := r.buf.String(); got != want {
			t.Errorf("%s: output %q, want %q", backend, got, want)
		}
		if !r.state.Exited() {
			t.Errorf("%s: state not marked exited", backend)
		}

		m, diags := parser.Parse("import atexit\natexit.register(print)\n", "late.py")
		if len(diags) > 0 {
			t.Fatalf("parse: %v", diags[0])
		}
		_, err := r.eval.ExecModule(m)
		if err == nil || err.Error() != "RuntimeError: cannot register at-exit callbacks after exit" {
			t.Errorf("%s: late register error = %v", backend, err)
		}
	}
}

func TestAtExitFailuresDoNotStopLaterCallbacks(t *testing.T) {
	src := dedent(`
		import atexit
		def bad():
		    raise ValueError("first")
		def good():
		    print("good ran")
		atexit.register(bad)
		atexit.register(good)
	`)
	for _, backend := range backends {
		r := runWith(t, backend, src, nil)
		if r.err != nil {
			t.Fatalf("%s: %v", backend, r.err)
		}
		err := r.eval.RunAtExit()
		if err == nil || err.Error() != "ValueError: first" {
			t.Errorf("%s: RunAtExit error = %v", backend, err)
		}
		if got := r.buf.String(); got != "good ran\n" {
			t.Errorf("%s: output %q", backend, got)
		}
	}
}

// counter is a host value exposed through fakeBridge.
type counter struct {
	n      int64
	closed bool
}

func (c *counter) TypeName() string { return "Counter" }

func (c *counter) GetField(name string) (evaluator.Object, error) {
	switch name {
	case "n":
		return evaluator.NewInt(c.n), nil
	case "closed":
		if c.closed {
			return evaluator.True, nil
		}
		return evaluator.False, nil
	}
	return nil, fmt.Errorf("%w: %s", evaluator.ErrNoSuchMember, name)
}

func (c *counter) SetField(name string, v evaluator.Object) error {
	if name != "n" {
		return fmt.Errorf("%w: %s", evaluator.ErrNoSuchMember, name)
	}
	i, ok := v.(*evaluator.Int)
	if !ok {
		return fmt.Errorf("%w: n expects int", evaluator.ErrNoMatchingOverload)
	}
	c.n = int64(i.Value)
	return nil
}

func (c *counter) HasMethod(name string) bool {
	return name == "incr" || name == "fail" || name == "close"
}

func (c *counter) InvokeMethod(name string, args []evaluator.Object) (evaluator.Object, error) {
	switch name {
	case "incr":
		c.n++
		return evaluator.None, nil
	case "fail":
		return nil, &evaluator.HostError{Err: errors.New("boom"), Cause: c}
	case "close":
		c.closed = true
		return evaluator.None, nil
	}
	return nil, evaluator.ErrNoSuchMember
}

func (c *counter) Elements() ([]evaluator.Object, error) {
	out := make([]evaluator.Object, c.n)
	for i := range out {
		out[i] = evaluator.NewInt(int64(i))
	}
	return out, nil
}

type counterClass struct{}

func (counterClass) Name() string { return "counter.Counter" }

func (counterClass) Construct(args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: Counter takes 1 argument", evaluator.ErrNoMatchingOverload)
	}
	i, ok := args[0].(*evaluator.Int)
	if !ok {
		return nil, fmt.Errorf("%w: Counter expects int", evaluator.ErrNoMatchingOverload)
	}
	return &evaluator.HostObject{Value: &counter{n: int64(i.Value)}}, nil
}

func (counterClass) GetStaticField(name string) (evaluator.Object, error) {
	if name == "LIMIT" {
		return evaluator.NewInt(10), nil
	}
	return nil, evaluator.ErrNoSuchMember
}

func (counterClass) HasStaticMethod(name string) bool { return name == "zero" }

func (counterClass) InvokeStatic(name string, args []evaluator.Object) (evaluator.Object, error) {
	return &evaluator.HostObject{Value: &counter{}}, nil
}

func (counterClass) IsInstance(v evaluator.ForeignValue) bool {
	_, ok := v.(*counter)
	return ok
}

type fakeBridge struct{}

func (fakeBridge) Resolve(name string) (evaluator.ClassHandle, error) {
	if name == "counter.Counter" {
		return counterClass{}, nil
	}
	return nil, fmt.Errorf("%w: %s", evaluator.ErrNoSuchClass, name)
}

func TestHostValues(t *testing.T) {
	src := dedent(`
		Counter = hostclass("counter.Counter")
		c = Counter(2)
		c.incr()
		c.n = c.n + 10
		print(c.n, Counter.LIMIT, isinstance(c, Counter), list(c)[:3], len(list(c)))
		print(Counter.zero().n)
		with Counter(1) as h:
		    print("inside", h.closed)
		print("after", h.closed)
		try:
		    c.fail()
		except HostError as err:
		    print("host", err, err.cause.n)
		try:
		    c.missing
		except AttributeError:
		    print("no member")
		try:
		    Counter("x")
		except TypeError:
		    print("no overload")
		import counter
		from counter import Counter as C2
		print(counter.Counter.LIMIT, C2(5).n)
	`)
	want := "13 10 True [0, 1, 2] 13\n0\ninside False\nafter True\nhost boom 13\nno member\nno overload\n10 5\n"
	for _, backend := range backends {
		r := runWith(t, backend, src, func(e *evaluator.Evaluator) { e.Bridge = fakeBridge{} })
		if r.err != nil {
			t.Fatalf("%s: %v", backend, r.err)
		}
		if r.out != want {
			t.Errorf("%s: output:\n%s\nwant:\n%s", backend, r.out, want)
		}
	}
}

func TestHostErrors(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		bridge  evaluator.ForeignBridge
		wantErr string
	}{
		{"no bridge import", "import nothing", nil, "ImportError: No module named 'nothing'"},
		{"no bridge hostclass", "hostclass('a.B')", nil, "ImportError: no host bridge configured: cannot resolve 'a.B'"},
		{"unknown class", "hostclass('a.B')", fakeBridge{}, "ImportError"},
		{"unknown import", "from counter import Nope", fakeBridge{}, "ImportError: cannot import name 'Nope' from 'counter'"},
		{"host error uncaught", "hostclass('counter.Counter')(1).fail()", fakeBridge{}, "HostError: boom"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			for _, backend := range backends {
				r := runWith(t, backend, tt.src, func(e *evaluator.Evaluator) {
					if tt.bridge != nil {
						e.Bridge = tt.bridge
					}
				})
				if r.err == nil || !strings.HasPrefix(r.err.Error(), tt.wantErr) {
					t.Errorf("%s: error = %v, want %q", backend, r.err, tt.wantErr)
				}
			}
		})
	}
}
