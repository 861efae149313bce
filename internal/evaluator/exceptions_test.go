package evaluator_test

import (
	"errors"
	"testing"

	"github.com/funvibe/pyhost/internal/evaluator"
)

func TestExceptionHandling(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"except binds and matches base classes", `
			try:
			    {}["k"]
			except LookupError as err:
			    print(type(err).__name__, err, err.args)
		`, "KeyError 'k' ('k',)\n"},
		{"tuple of classes", `
			for bad in [lambda: 1 / 0, lambda: [][1], lambda: int("x")]:
			    try:
			        bad()
			    except (ZeroDivisionError, IndexError) as err:
			        print("caught", type(err).__name__)
			    except Exception as err:
			        print("other", type(err).__name__)
		`, "caught ZeroDivisionError\ncaught IndexError\nother ValueError\n"},
		{"else and finally order", `
			def f(fail):
			    log = []
			    try:
			        if fail:
			            raise ValueError("no")
			        log.append("body")
			    except ValueError:
			        log.append("except")
			    else:
			        log.append("else")
			    finally:
			        log.append("finally")
			    return log
			print(f(False), f(True))
		`, "['body', 'else', 'finally'] ['except', 'finally']\n"},
		{"finally runs on return and may override it", `
			def f():
			    try:
			        return "try"
			    finally:
			        print("cleanup")
			def g():
			    try:
			        return "try"
			    finally:
			        return "finally"
			print(f(), g())
		`, "cleanup\ntry finally\n"},
		{"finally runs on break and continue", `
			out = []
			for i in range(4):
			    try:
			        if i == 1:
			            continue
			        if i == 3:
			            break
			        out.append(i)
			    finally:
			        out.append("f")
			print(out)
		`, "[0, 'f', 'f', 2, 'f', 'f']\n"},
		{"bare raise rethrows the handled exception", `
			def inner():
			    try:
			        raise KeyError("x")
			    except KeyError:
			        raise
			try:
			    inner()
			except KeyError as err:
			    print("outer", repr(err))
		`, "outer KeyError('x')\n"},
		{"raise from records the cause", `
			try:
			    try:
			        1 / 0
			    except ZeroDivisionError as z:
			        raise ValueError("bad") from z
			except ValueError as v:
			    print(v, type(v.__cause__).__name__)
		`, "bad ZeroDivisionError\n"},
		{"user exception classes", `
			class AppError(Exception):
			    def __init__(self, code, msg):
			        super().__init__(msg)
			        self.code = code
			class NotFound(AppError):
			    pass
			try:
			    raise NotFound(404, "missing")
			except AppError as err:
			    print(err.code, err, isinstance(err, Exception))
		`, "404 missing True\n"},
		{"raising a class instantiates it", `
			try:
			    raise RuntimeError
			except RuntimeError as err:
			    print(repr(err), err.args)
		`, "RuntimeError() ()\n"},
		{"nested handlers", `
			try:
			    try:
			        raise TypeError("inner")
			    except ValueError:
			        print("wrong")
			    finally:
			        print("inner finally")
			except TypeError as err:
			    print("outer", err)
		`, "inner finally\nouter inner\n"},
		{"assert passes", "assert 1 + 1 == 2, 'math'\nprint('ok')", "ok\n"},
		{"assert message", `
			try:
			    assert False, "boom"
			except AssertionError as err:
			    print("assert:", err)
		`, "assert: boom\n"},
		{"with calls enter and exit", `
			class Ctx:
			    def __init__(self, name):
			        self.name = name
			    def __enter__(self):
			        print("enter", self.name)
			        return self.name.upper()
			    def __exit__(self, typ, val, tb):
			        print("exit", self.name, typ is None)
			        return False
			with Ctx("a") as a, Ctx("b") as b:
			    print("body", a, b)
		`, "enter a\nenter b\nbody A B\nexit b True\nexit a True\n"},
		{"with exit can suppress", `
			class Suppress:
			    def __enter__(self):
			        return self
			    def __exit__(self, typ, val, tb):
			        print("exit saw", typ.__name__, val)
			        return True
			with Suppress():
			    raise ValueError("hidden")
			print("after")
		`, "exit saw ValueError hidden\nafter\n"},
		{"handler name keeps the outer binding", `
			err = "before"
			try:
			    raise ValueError("x")
			except ValueError as err:
			    pass
			print(err)
		`, "before\n"},
	})
}

func TestExceptionErrors(t *testing.T) {
	runErrorCases(t, []errorCase{
		{"uncaught", "raise ValueError('bad value')", "ValueError: bad value"},
		{"bare raise outside handler", "raise", "RuntimeError: No active exception to reraise"},
		{"raise non exception", "raise 5", "TypeError: exceptions must derive from BaseException"},
		{"catch non exception class", `
			try:
			    raise ValueError()
			except 5:
			    pass
		`, "TypeError: catching classes that do not inherit from BaseException is not allowed"},
		{"assert without message", "assert 1 == 2", "AssertionError"},
		{"not a context manager", "with 5:\n    pass", "TypeError: 'int' object does not support the context manager protocol"},
		{"exception in finally replaces", `
			try:
			    raise ValueError("first")
			finally:
			    raise KeyError("second")
		`, "KeyError: 'second'"},
		{"break outside loop", "break", "SyntaxError: 'break' outside loop"},
	})
}

func TestUncaughtExceptionLocation(t *testing.T) {
	src := dedent(`
		def fail():
		    x = 1
		    raise ValueError("deep")
		def outer():
		    fail()
		outer()
	`)
	for _, backend := range backends {
		r := runWith(t, backend, src, nil)
		var exc *evaluator.Exception
		if !errors.As(r.err, &exc) {
			t.Fatalf("%s: expected *Exception, got %v", backend, r.err)
		}
		if exc.Line != 3 {
			t.Errorf("%s: line = %d, want 3", backend, exc.Line)
		}
		if len(exc.Traceback) != 3 {
			t.Fatalf("%s: traceback has %d frames, want 3: %+v", backend, len(exc.Traceback), exc.Traceback)
		}
		names := []string{exc.Traceback[0].Name, exc.Traceback[1].Name, exc.Traceback[2].Name}
		if names[0] != "<module>" || names[1] != "outer" || names[2] != "fail" {
			t.Errorf("%s: frames = %v", backend, names)
		}
		if exc.Traceback[0].Line != 6 || exc.Traceback[1].Line != 5 {
			t.Errorf("%s: frame lines = %d, %d", backend, exc.Traceback[0].Line, exc.Traceback[1].Line)
		}
	}
}

func TestRecursionLimitIsFatal(t *testing.T) {
	src := dedent(`
		def down(n):
		    try:
		        return down(n + 1)
		    except Exception:
		        return "caught"
		    finally:
		        print("finally")
		down(0)
	`)
	for _, backend := range backends {
		r := runWith(t, backend, src, func(e *evaluator.Evaluator) { e.MaxDepth = 50 })
		var fatal *evaluator.FatalError
		if !errors.As(r.err, &fatal) {
			t.Fatalf("%s: expected *FatalError, got %v", backend, r.err)
		}
		if fatal.Message != "maximum recursion depth exceeded" {
			t.Errorf("%s: message = %q", backend, fatal.Message)
		}
		if r.out != "" {
			t.Errorf("%s: finally blocks ran during fatal unwind: %q", backend, r.out)
		}
	}
}
