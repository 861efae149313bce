package compiler_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/compiler"
	"github.com/funvibe/pyhost/internal/parser"
)

func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()
	m, errs := parser.Parse(src, "test.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return compiler.CompileModule(m, zerolog.Nop())
}

func planFor(t *testing.T, prog *compiler.Program, name string) *compiler.Plan {
	t.Helper()
	for _, p := range prog.Plans {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no plan for %s", name)
	return nil
}

func TestSlotOrder(t *testing.T) {
	prog := compile(t, `
def f(a, b=1, *rest, k, **kw):
    x = a
    for i in rest:
        y, z = i, i
    return x
`)
	plan := planFor(t, prog, "f")
	want := []string{"a", "b", "rest", "k", "kw", "x", "i", "y", "z"}
	if len(plan.Slots) != len(want) {
		t.Fatalf("slots = %v, want %v", plan.Slots, want)
	}
	for i, n := range want {
		if plan.Slots[i] != n || plan.Index[n] != i {
			t.Errorf("slot %d = %s, want %s", i, plan.Slots[i], n)
		}
	}
}

func TestDeclarationsAreNotSlotted(t *testing.T) {
	prog := compile(t, `
def f():
    global g
    g = 1
    try:
        pass
    except ValueError as err:
        pass
    def inner():
        nonlocal v
        v = 2
    v = 0
`)
	f := planFor(t, prog, "f")
	if _, ok := f.Index["g"]; ok {
		t.Errorf("global g was slotted")
	}
	if _, ok := f.Index["err"]; ok {
		t.Errorf("handler name err was slotted")
	}
	if _, ok := f.Index["inner"]; !ok {
		t.Errorf("nested def name inner not slotted")
	}
	if !f.Globals["g"] {
		t.Errorf("Globals = %v", f.Globals)
	}
	inner := planFor(t, prog, "inner")
	if len(inner.Slots) != 0 {
		t.Errorf("inner slots = %v, want none", inner.Slots)
	}
	if !inner.Nonlocals["v"] {
		t.Errorf("Nonlocals = %v", inner.Nonlocals)
	}
}

func TestNamesRewrittenToSlots(t *testing.T) {
	prog := compile(t, `
def f(a):
    b = a + c
    return b
`)
	plan := planFor(t, prog, "f")
	assign := plan.Body[0].(*ast.Assign)
	if slot, ok := assign.Targets[0].(*ast.LocalSlot); !ok || slot.Index != 1 {
		t.Fatalf("target = %#v, want slot 1", assign.Targets[0])
	}
	bin := assign.Value.(*ast.BinOp)
	if slot, ok := bin.Left.(*ast.LocalSlot); !ok || slot.Id != "a" || slot.Index != 0 {
		t.Errorf("left = %#v, want slot a", bin.Left)
	}
	if name, ok := bin.Right.(*ast.Name); !ok || name.Id != "c" {
		t.Errorf("free name c should stay a Name, got %#v", bin.Right)
	}

	// the source tree is left untouched
	src := prog.Module.Body[0].(*ast.FunctionDef).Body[0].(*ast.Assign)
	if _, ok := src.Targets[0].(*ast.Name); !ok {
		t.Errorf("original tree was rewritten")
	}
}

func TestNestedPlansKeyedByRewrittenNodes(t *testing.T) {
	prog := compile(t, `
def outer(n):
    def inner(m=n):
        return m
    g = lambda x: x + n
    return inner, g
`)
	outer := planFor(t, prog, "outer")
	def := outer.Body[0].(*ast.FunctionDef)
	innerPlan, ok := prog.Plans[def]
	if !ok {
		t.Fatalf("no plan keyed by the rewritten def")
	}
	if _, ok := def.Args.Defaults[0].(*ast.LocalSlot); !ok {
		t.Errorf("default should read the outer slot, got %#v", def.Args.Defaults[0])
	}
	ret := innerPlan.Body[0].(*ast.Return)
	if _, ok := ret.Value.(*ast.LocalSlot); !ok {
		t.Errorf("inner body should use its own slots")
	}

	assign := outer.Body[1].(*ast.Assign)
	lam := assign.Value.(*ast.Lambda)
	lamPlan, ok := prog.Plans[lam]
	if !ok {
		t.Fatalf("no plan keyed by the rewritten lambda")
	}
	body := lamPlan.Expr.(*ast.BinOp)
	if _, ok := body.Left.(*ast.LocalSlot); !ok {
		t.Errorf("lambda parameter should be slotted")
	}
	if _, ok := body.Right.(*ast.Name); !ok {
		t.Errorf("closure variable n should stay a Name in the lambda")
	}
}

func TestMethodsAndComprehensions(t *testing.T) {
	prog := compile(t, `
class A:
    def m(self, v):
        return [w * v for w in range(3) if (lambda q: q)(w)]
`)
	m := planFor(t, prog, "m")
	if len(m.Slots) != 2 {
		t.Errorf("method slots = %v", m.Slots)
	}
	ret := m.Body[0].(*ast.Return)
	comp, ok := ret.Value.(*ast.ListComp)
	if !ok {
		t.Fatalf("return value = %T", ret.Value)
	}
	if _, ok := comp.Elt.(*ast.BinOp).Right.(*ast.Name); !ok {
		t.Errorf("comprehension bodies are not slotted")
	}
	planFor(t, prog, "<lambda>")
}

func TestCompileLogsToGivenLogger(t *testing.T) {
	m, errs := parser.Parse("def f(a):\n    return a\n", "log.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	var buf bytes.Buffer
	compiler.CompileModule(m, zerolog.New(&buf).Level(zerolog.DebugLevel))
	out := buf.String()
	if !strings.Contains(out, `"function":"f"`) || !strings.Contains(out, `"file":"log.py"`) {
		t.Errorf("log output = %q", out)
	}

	c := compiler.New()
	c.CompileModule(m)
	if c.Logger.GetLevel() != zerolog.Disabled {
		t.Errorf("default compiler logger level = %v, want disabled", c.Logger.GetLevel())
	}
}

func TestLocalNamesMatchSlots(t *testing.T) {
	src := `
def f(a, *rest):
    global g
    x = a
    try:
        pass
    except ValueError as err:
        y = err
    import os.path
    def h():
        pass
`
	m, errs := parser.Parse(src, "test.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	fn := m.Body[0].(*ast.FunctionDef)
	locals := compiler.LocalNames(fn.Args, fn.Body)
	plan := planFor(t, compiler.CompileModule(m, zerolog.Nop()), "f")
	if len(locals) != len(plan.Slots) {
		t.Fatalf("locals = %v, slots = %v", locals, plan.Slots)
	}
	for _, n := range plan.Slots {
		if !locals[n] {
			t.Errorf("slot %s missing from local names", n)
		}
	}
	for _, n := range []string{"g", "err"} {
		if locals[n] {
			t.Errorf("%s should not be local", n)
		}
	}
	for _, n := range []string{"a", "rest", "x", "y", "os", "h"} {
		if !locals[n] {
			t.Errorf("%s should be local", n)
		}
	}
}
