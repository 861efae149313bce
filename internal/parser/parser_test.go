package parser_test

import (
	"fmt"
	"testing"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/parser"
)

func parseOK(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, errs := parser.Parse(src, "test.py")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors for %q: %v", src, errs)
	}
	return mod
}

func exprOf(t *testing.T, src string) ast.Expr {
	t.Helper()
	mod := parseOK(t, src)
	if len(mod.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(mod.Body))
	}
	stmt, ok := mod.Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", mod.Body[0])
	}
	return stmt.Value
}

func TestParser_Precedence(t *testing.T) {
	e := exprOf(t, "1 + 2 * 3")
	bin, ok := e.(*ast.BinOp)
	if !ok || bin.Op != ast.Add {
		t.Fatalf("got %#v", e)
	}
	if r, ok := bin.Right.(*ast.BinOp); !ok || r.Op != ast.Mult {
		t.Fatalf("right = %#v", bin.Right)
	}

	// -2 ** 2 is -(2 ** 2)
	e = exprOf(t, "-2 ** 2")
	un, ok := e.(*ast.UnaryOp)
	if !ok || un.Op != ast.USub {
		t.Fatalf("got %#v", e)
	}
	if p, ok := un.Operand.(*ast.BinOp); !ok || p.Op != ast.Pow {
		t.Fatalf("operand = %#v", un.Operand)
	}

	// 2 ** 3 ** 2 is right associative
	e = exprOf(t, "2 ** 3 ** 2")
	pow := e.(*ast.BinOp)
	if _, ok := pow.Right.(*ast.BinOp); !ok {
		t.Fatalf("expected right-nested power, got %#v", pow)
	}

	// not a == b is not (a == b)
	e = exprOf(t, "not a == b")
	if n, ok := e.(*ast.UnaryOp); !ok || n.Op != ast.Not {
		t.Fatalf("got %#v", e)
	} else if _, ok := n.Operand.(*ast.Compare); !ok {
		t.Fatalf("operand = %#v", n.Operand)
	}
}

func TestParser_ComparisonChain(t *testing.T) {
	e := exprOf(t, "a < b <= c not in d is not e")
	cmp, ok := e.(*ast.Compare)
	if !ok {
		t.Fatalf("got %T", e)
	}
	want := []ast.Operator{ast.Lt, ast.LtE, ast.NotIn, ast.IsNot}
	if len(cmp.Ops) != len(want) {
		t.Fatalf("ops = %v", cmp.Ops)
	}
	for i := range want {
		if cmp.Ops[i] != want[i] {
			t.Errorf("op %d = %s, want %s", i, cmp.Ops[i], want[i])
		}
	}
}

func TestParser_BoolOpFlattening(t *testing.T) {
	e := exprOf(t, "a or b or c and d")
	b, ok := e.(*ast.BoolOp)
	if !ok || b.Op != ast.Or || len(b.Values) != 3 {
		t.Fatalf("got %#v", e)
	}
	if inner, ok := b.Values[2].(*ast.BoolOp); !ok || inner.Op != ast.And {
		t.Fatalf("last value = %#v", b.Values[2])
	}
}

func TestParser_Ternary(t *testing.T) {
	mod := parseOK(t, "def factorial(n): return n*factorial(n-1) if n else 1")
	fn := mod.Body[0].(*ast.FunctionDef)
	ret := fn.Body[0].(*ast.Return)
	if _, ok := ret.Value.(*ast.IfExp); !ok {
		t.Fatalf("return value = %T", ret.Value)
	}
}

func TestParser_Assignments(t *testing.T) {
	mod := parseOK(t, "x, y = 1, 2\na = b = 3\nc += 1\nd: int = 4\ne[1:2] = []\n*f, g = h")
	if len(mod.Body) != 6 {
		t.Fatalf("statements = %d", len(mod.Body))
	}
	as := mod.Body[0].(*ast.Assign)
	if tup, ok := as.Targets[0].(*ast.Tuple); !ok || len(tup.Elts) != 2 {
		t.Fatalf("target = %#v", as.Targets[0])
	}
	if chain := mod.Body[1].(*ast.Assign); len(chain.Targets) != 2 {
		t.Fatalf("chained targets = %d", len(chain.Targets))
	}
	if aug := mod.Body[2].(*ast.AugAssign); aug.Op != ast.Add {
		t.Fatalf("aug op = %s", aug.Op)
	}
	if ann := mod.Body[3].(*ast.AnnAssign); ann.Value == nil {
		t.Fatal("annotated assignment lost its value")
	}
	sub := mod.Body[4].(*ast.Assign).Targets[0].(*ast.Subscript)
	if _, ok := sub.Slice.(*ast.Slice); !ok {
		t.Fatalf("slice = %T", sub.Slice)
	}
	star := mod.Body[5].(*ast.Assign).Targets[0].(*ast.Tuple)
	if _, ok := star.Elts[0].(*ast.Starred); !ok {
		t.Fatalf("first target = %T", star.Elts[0])
	}
}

func TestParser_FunctionParameters(t *testing.T) {
	mod := parseOK(t, "def f(a, b: int = 1, *args, c, d=2, **kw) -> int:\n    pass\n")
	fn := mod.Body[0].(*ast.FunctionDef)
	args := fn.Args
	if len(args.Args) != 2 || len(args.Defaults) != 1 {
		t.Fatalf("args = %d defaults = %d", len(args.Args), len(args.Defaults))
	}
	if args.Vararg == nil || args.Vararg.Name != "args" {
		t.Fatalf("vararg = %#v", args.Vararg)
	}
	if len(args.KwOnlyArgs) != 2 || args.KwDefaults[0] != nil || args.KwDefaults[1] == nil {
		t.Fatalf("kwonly = %#v defaults = %#v", args.KwOnlyArgs, args.KwDefaults)
	}
	if args.Kwarg == nil || args.Kwarg.Name != "kw" {
		t.Fatalf("kwarg = %#v", args.Kwarg)
	}
}

func TestParser_CompoundStatements(t *testing.T) {
	src := `
@decorator
class A(Base):
    x = 1
    def m(self):
        for i, j in pairs:
            if i:
                continue
            elif j:
                break
            else:
                pass
        else:
            return
        while True:
            break
try:
    f()
except (KeyError, IndexError) as e:
    raise ValueError("bad") from e
except Exception:
    pass
else:
    ok = 1
finally:
    done()
with open_it() as h, other():
    h.use()
`
	mod := parseOK(t, src)
	if len(mod.Body) != 3 {
		t.Fatalf("statements = %d", len(mod.Body))
	}
	cls := mod.Body[0].(*ast.ClassDef)
	if len(cls.DecoratorList) != 1 || len(cls.Bases) != 1 || len(cls.Body) != 2 {
		t.Fatalf("class = %#v", cls)
	}
	method := cls.Body[1].(*ast.FunctionDef)
	loop := method.Body[0].(*ast.For)
	if len(loop.Orelse) != 1 {
		t.Fatalf("for-else lost")
	}
	ifs := loop.Body[0].(*ast.If)
	if elif, ok := ifs.Orelse[0].(*ast.If); !ok || len(elif.Orelse) != 1 {
		t.Fatalf("elif chain = %#v", ifs.Orelse)
	}
	try := mod.Body[1].(*ast.Try)
	if len(try.Handlers) != 2 || try.Handlers[0].Name != "e" || len(try.Orelse) != 1 || len(try.Finalbody) != 1 {
		t.Fatalf("try = %#v", try)
	}
	raise := try.Handlers[0].Body[0].(*ast.Raise)
	if raise.Cause == nil {
		t.Fatal("raise cause lost")
	}
	with := mod.Body[2].(*ast.With)
	if len(with.Items) != 2 || with.Items[0].OptionalVars == nil {
		t.Fatalf("with = %#v", with)
	}
}

func TestParser_Displays(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"()", "*ast.Tuple"},
		{"(1,)", "*ast.Tuple"},
		{"(1)", "*ast.Constant"},
		{"[1, *a]", "*ast.List"},
		{"{}", "*ast.Dict"},
		{"{1: 2, **d}", "*ast.Dict"},
		{"{1, 2}", "*ast.Set"},
		{"[x for x in y if x]", "*ast.ListComp"},
		{"{x for x in y}", "*ast.SetComp"},
		{"{k: v for k, v in d.items()}", "*ast.DictComp"},
		{"(x for x in y)", "*ast.GeneratorExp"},
		{"lambda x, *r, **k: x", "*ast.Lambda"},
		{"f(x for x in y)", "*ast.Call"},
		{"a[1:2, ::3]", "*ast.Subscript"},
		{"'a' 'b'", "*ast.Constant"},
		{"...", "*ast.Constant"},
	}
	for _, tt := range tests {
		e := exprOf(t, tt.src)
		if got := typeName(e); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestParser_FString(t *testing.T) {
	e := exprOf(t, `f"start{x+1}end"`)
	js, ok := e.(*ast.JoinedStr)
	if !ok || len(js.Values) != 3 {
		t.Fatalf("got %#v", e)
	}
	fv := js.Values[1].(*ast.FormattedValue)
	if _, ok := fv.Value.(*ast.BinOp); !ok {
		t.Fatalf("field = %#v", fv.Value)
	}

	e = exprOf(t, `f"{name!r:>{width}} {{literal}}"`)
	js = e.(*ast.JoinedStr)
	fv = js.Values[0].(*ast.FormattedValue)
	if fv.Conversion != 'r' || fv.FormatSpec == nil {
		t.Fatalf("conversion/spec = %d %#v", fv.Conversion, fv.FormatSpec)
	}
	if lit := js.Values[1].(*ast.Constant); lit.Value != " {literal}" {
		t.Fatalf("literal = %q", lit.Value)
	}

	e = exprOf(t, `f"{x=}"`)
	js = e.(*ast.JoinedStr)
	if js.Values[0].(*ast.Constant).Value != "x=" {
		t.Fatalf("self-documenting prefix = %#v", js.Values[0])
	}
}

func TestParser_Imports(t *testing.T) {
	mod := parseOK(t, "import a.b as c, d\nfrom uuid import UUID as U, new\nfrom math import (pi,\n  sqrt,)\n")
	imp := mod.Body[0].(*ast.Import)
	if imp.Names[0].Name != "a.b" || imp.Names[0].AsName != "c" || imp.Names[1].Name != "d" {
		t.Fatalf("import = %#v", imp.Names)
	}
	from := mod.Body[1].(*ast.ImportFrom)
	if from.Module != "uuid" || len(from.Names) != 2 || from.Names[0].AsName != "U" {
		t.Fatalf("from = %#v", from)
	}
	if len(mod.Body[2].(*ast.ImportFrom).Names) != 2 {
		t.Fatal("parenthesized import names lost")
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diagnostics.ErrorCode
	}{
		{"missing_colon", "if x\n    pass\n", diagnostics.ErrP001},
		{"assign_to_literal", "1 = x\n", diagnostics.ErrP002},
		{"assign_to_call", "f() = 1\n", diagnostics.ErrP002},
		{"default_order", "def f(a=1, b): pass\n", diagnostics.ErrP001},
		{"duplicate_param", "def f(a, a): pass\n", diagnostics.ErrP001},
		{"yield", "def g():\n    yield 1\n", diagnostics.ErrP003},
		{"multiple_bases", "class A(B, C): pass\n", diagnostics.ErrP003},
		{"bad_fstring", "f'{'\n", diagnostics.ErrP004},
		{"unterminated", "x = 'abc\n", diagnostics.ErrL002},
		{"no_block", "while x:\npass\n", diagnostics.ErrP001},
		{"bare_except_not_last", "try:\n    a\nexcept:\n    b\nexcept E:\n    c\n", diagnostics.ErrP001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := parser.Parse(tt.src, "bad.py")
			if len(errs) == 0 {
				t.Fatalf("expected errors for %q", tt.src)
			}
			if errs[0].Code != tt.code {
				t.Fatalf("code = %s (%v), want %s", errs[0].Code, errs[0], tt.code)
			}
			if errs[0].File != "bad.py" {
				t.Errorf("file = %q", errs[0].File)
			}
		})
	}
}

func TestParser_LineNumbers(t *testing.T) {
	mod := parseOK(t, "x = 1\n\n\ny = (\n  2 +\n  3)\n")
	if got := ast.Line(mod.Body[1]); got != 4 {
		t.Fatalf("line = %d, want 4", got)
	}
	bin := mod.Body[1].(*ast.Assign).Value.(*ast.BinOp)
	if got := ast.Line(bin.Right); got != 6 {
		t.Fatalf("operand line = %d, want 6", got)
	}
}

func typeName(e ast.Expr) string {
	return fmt.Sprintf("%T", e)
}
