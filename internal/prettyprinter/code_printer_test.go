package prettyprinter_test

import (
	"strings"
	"testing"

	"github.com/funvibe/pyhost/internal/parser"
	"github.com/funvibe/pyhost/internal/prettyprinter"
)

func format(t *testing.T, src string) string {
	t.Helper()
	mod, errs := parser.Parse(src, "test.py")
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", src, errs[0])
	}
	return prettyprinter.Print(mod)
}

func TestPrintCanonicalForm(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x=1+2*3", "x = 1 + 2 * 3\n"},
		{"x=(1+2)*3", "x = (1 + 2) * 3\n"},
		{"x = a - (b - c)", "x = a - (b - c)\n"},
		{"x = (a ** b) ** c", "x = (a ** b) ** c\n"},
		{"x = a ** b ** c", "x = a ** b ** c\n"},
		{"x, y = 1, 2", "x, y = 1, 2\n"},
		{"t = (1,)", "t = (1,)\n"},
		{"t = 1,", "t = (1,)\n"},
		{"x, = t", "(x,) = t\n"},
		{"f(a, *b, k=1, **kw)", "f(a, *b, k=1, **kw)\n"},
		{"y = not a and (b or c)", "y = not a and (b or c)\n"},
		{"r = a if b else c", "r = a if b else c\n"},
		{"s = 'it\\'s'", "s = \"it's\"\n"},
		{"v = [x*2 for x in xs if x]", "v = [x * 2 for x in xs if x]\n"},
		{"d = {'a': 1, **rest}", "d = {'a': 1, **rest}\n"},
		{"z = a[1:2, ::3]", "z = a[1:2, ::3]\n"},
		{"f = lambda x, *a, k=2: x", "f = lambda x, *a, k=2: x\n"},
		{"q = f'start{x+1}end'", "q = f'start{x + 1}end'\n"},
		{"q = f'{v!r:>{w}}'", "q = f'{v!r:>{w}}'\n"},
		{"n = 1.5e20", "n = 1.5e+20\n"},
		{"del a[0], b", "del a[0], b\n"},
		{"from m import a as b, c", "from m import a as b, c\n"},
	}
	for _, tt := range tests {
		if got := format(t, tt.input); got != tt.expected {
			t.Errorf("Print(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPrintCompoundStatements(t *testing.T) {
	src := `@decorate
def f(a, b=2, *args, c, **kw):
    global g
    if a:
        return a, b
    elif b:
        pass
    else:
        raise ValueError("x") from None
    for i, j in pairs:
        continue
    else:
        break
class C(Base):
    def m(self):
        try:
            x = 1
        except (KeyError, IndexError) as e:
            x += 2
        except:
            pass
        else:
            y = 3
        finally:
            z = 4
        with open(p) as fh, lock:
            assert fh, "msg"
`
	want := `@decorate
def f(a, b=2, *args, c, **kw):
    global g
    if a:
        return a, b
    elif b:
        pass
    else:
        raise ValueError('x') from None
    for i, j in pairs:
        continue
    else:
        break

class C(Base):
    def m(self):
        try:
            x = 1
        except (KeyError, IndexError) as e:
            x += 2
        except:
            pass
        else:
            y = 3
        finally:
            z = 4
        with open(p) as fh, lock:
            assert fh, 'msg'
`
	got := format(t, src)
	if got != want {
		t.Fatalf("Print mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestPrintRoundTrip(t *testing.T) {
	sources := []string{
		"def factorial(n): return n*factorial(n-1) if n else 1\nprint(factorial(5))\n",
		"x = {1, 2} | {3} & {4} ^ {5}\ny = a < b <= c not in d is not e\n",
		"r = -x ** 2 + ~y - (-z)\nm = {k: v for k, v in d.items()}\n",
		"s = f\"{'a' if x else 'b'} and {{braces}} {y:.2f}\"\n",
	}
	for _, src := range sources {
		first := format(t, src)
		second := format(t, first)
		if first != second {
			t.Errorf("round trip not stable for %q:\n%s\n---\n%s", src, first, second)
		}
		if strings.Contains(first, "<???>") {
			t.Errorf("unprintable node in %q: %s", src, first)
		}
	}
}
