package evaluator_test

import (
	"io"
	"testing"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/compiler"
	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/parser"
)

func TestClasses(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"init and methods", `
			class Point:
			    def __init__(self, x, y):
			        self.x = x
			        self.y = y
			    def norm2(self):
			        return self.x * self.x + self.y * self.y
			p = Point(3, 4)
			print(p.norm2(), p.x)
		`, "25 3\n"},
		{"inheritance and super", `
			class Base:
			    def __init__(self, name):
			        self.name = name
			    def describe(self):
			        return "base " + self.name
			class Child(Base):
			    def __init__(self, name, extra):
			        super().__init__(name)
			        self.extra = extra
			    def describe(self):
			        return super().describe() + " + " + self.extra
			c = Child("a", "b")
			print(c.describe(), isinstance(c, Base), issubclass(Child, Base))
		`, "base a + b True True\n"},
		{"super in grandchild resolves per defining class", `
			class A:
			    def who(self):
			        return ["A"]
			class B(A):
			    def who(self):
			        return ["B"] + super().who()
			class C(B):
			    def who(self):
			        return ["C"] + super().who()
			print(C().who())
		`, "['C', 'B', 'A']\n"},
		{"operator overloads", `
			class V:
			    def __init__(self, x):
			        self.x = x
			    def __add__(self, other):
			        return V(self.x + other.x)
			    def __eq__(self, other):
			        return self.x == other.x
			    def __lt__(self, other):
			        return self.x < other.x
			    def __neg__(self):
			        return V(-self.x)
			    def __repr__(self):
			        return "V(" + repr(self.x) + ")"
			a = V(1) + V(2)
			print(a, a == V(3), a != V(3), V(1) < V(2), -a)
			print(sorted([V(3), V(1), V(2)]))
		`, "V(3) True False True V(-3)\n[V(1), V(2), V(3)]\n"},
		{"container protocol", `
			class Bag:
			    def __init__(self):
			        self.items = {}
			    def __setitem__(self, k, v):
			        self.items[k] = v
			    def __getitem__(self, k):
			        return self.items[k]
			    def __delitem__(self, k):
			        del self.items[k]
			    def __len__(self):
			        return len(self.items)
			    def __contains__(self, k):
			        return k in self.items
			b = Bag()
			b["a"] = 1
			b["b"] = 2
			del b["a"]
			print(len(b), "a" in b, "b" in b, b["b"])
		`, "1 False True 2\n"},
		{"augmented assignment dunder", `
			class Acc:
			    def __init__(self):
			        self.total = 0
			    def __iadd__(self, n):
			        self.total += n
			        return self
			a = Acc()
			a += 5
			a += 6
			print(a.total)
		`, "11\n"},
		{"call and str", `
			class Greeter:
			    def __call__(self, name):
			        return "hi " + name
			    def __str__(self):
			        return "Greeter!"
			g = Greeter()
			print(g("bob"), g, str(g), f"{g}")
		`, "hi bob Greeter! Greeter! Greeter!\n"},
		{"static class methods and properties", `
			class Temp:
			    unit = "C"
			    def __init__(self, c):
			        self._c = c
			    @staticmethod
			    def zero():
			        return Temp(0)
			    @classmethod
			    def label(cls):
			        return cls.unit
			    @property
			    def celsius(self):
			        return self._c
			    @celsius.setter
			    def celsius(self, v):
			        self._c = v
			t = Temp.zero()
			t.celsius = 21
			print(t.celsius, Temp.label(), t.label())
		`, "21 C C\n"},
		{"iteration protocol", `
			class Countdown:
			    def __init__(self, n):
			        self.n = n
			    def __iter__(self):
			        return self
			    def __next__(self):
			        if self.n == 0:
			            raise StopIteration
			        self.n -= 1
			        return self.n + 1
			print(list(Countdown(3)), [x * 2 for x in Countdown(2)])
		`, "[3, 2, 1] [4, 2]\n"},
		{"class attributes shared", `
			class Counter:
			    created = 0
			    def __init__(self):
			        Counter.created += 1
			Counter()
			Counter()
			print(Counter.created, type(Counter()).__name__, Counter.created)
		`, "2 Counter 3\n"},
		{"instances are always truthy", `
			class Empty:
			    def __len__(self):
			        return 0
			print(bool(Empty()), "yes" if Empty() else "no", len(Empty()))
		`, "True yes 0\n"},
		{"default repr", `
			class Plain:
			    pass
			print(repr(Plain()).startswith("<Plain object"))
		`, "True\n"},
		{"getattr family", `
			class O:
			    pass
			o = O()
			setattr(o, "v", 3)
			print(getattr(o, "v"), getattr(o, "w", "dflt"), hasattr(o, "v"), hasattr(o, "w"))
			delattr(o, "v")
			print(hasattr(o, "v"), vars(o))
		`, "3 dflt True False\nFalse {}\n"},
	})
}

func TestClassErrors(t *testing.T) {
	runErrorCases(t, []errorCase{
		{"missing attribute hint", `
			class P:
			    def __init__(self):
			        self.value = 1
			print(P().valeu)
		`, "AttributeError: 'P' object has no attribute 'valeu'. Did you mean: 'value'?"},
		{"no reflected dispatch", `
			class V:
			    def __add__(self, other):
			        return 1
			print(1 + V())
		`, "TypeError: unsupported operand type(s) for +: 'int' and 'V'"},
		{"init must return None", `
			class Bad:
			    def __init__(self):
			        return 1
			Bad()
		`, "TypeError: __init__() should return None, not 'int'"},
		{"read-only property", `
			class R:
			    @property
			    def v(self):
			        return 1
			R().v = 2
		`, "AttributeError: can't set attribute 'v'"},
		{"not callable", "x = 1\nx()", "TypeError: 'int' object is not callable"},
	})
}

// Both front ends reject multiple bases, so the evaluator check is reached
// only through a hand-built AST.
func TestMultipleBasesRejected(t *testing.T) {
	for _, backend := range backends {
		m, diags := parser.Parse("class A:\n    pass\nclass B:\n    pass\nclass C(A):\n    pass\n", "test.py")
		if len(diags) > 0 {
			t.Fatalf("parse error: %v", diags[0])
		}
		cls := m.Body[2].(*ast.ClassDef)
		cls.Bases = append(cls.Bases, &ast.Name{Token: cls.Token, Id: "B"})

		e := evaluator.New(evaluator.NewScriptState("test.py"))
		e.Out = io.Discard
		if backend == config.BackendCompiled {
			prog := compiler.CompileModule(m, e.Logger)
			e.Plans = prog.Plans
			m = prog.Module
		}
		_, err := e.ExecModule(m)
		want := "TypeError: class C: multiple inheritance is not supported"
		if err == nil || err.Error() != want {
			t.Errorf("%s: error = %v, want %q", backend, err, want)
		}
	}
}
