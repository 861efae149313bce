package astload_test

import (
	"strings"
	"testing"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/astload"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/parser"
	"github.com/funvibe/pyhost/internal/prettyprinter"
)

// factorialJSON is `ast.dump`-style output for:
//
//	def factorial(n):
//	    return n * factorial(n - 1) if n else 1
//	x, y = 1, 2
const factorialJSON = `{
  "_type": "Module",
  "body": [
    {
      "_type": "FunctionDef", "name": "factorial", "lineno": 1, "col_offset": 0,
      "args": {"_type": "arguments", "posonlyargs": [], "args": [{"_type": "arg", "arg": "n", "annotation": null}],
               "vararg": null, "kwonlyargs": [], "kw_defaults": [], "kwarg": null, "defaults": []},
      "body": [
        {"_type": "Return", "lineno": 2, "col_offset": 4,
         "value": {"_type": "IfExp", "lineno": 2,
           "test": {"_type": "Name", "id": "n", "ctx": {"_type": "Load"}},
           "body": {"_type": "BinOp", "op": {"_type": "Mult"},
             "left": {"_type": "Name", "id": "n", "ctx": {"_type": "Load"}},
             "right": {"_type": "Call", "func": {"_type": "Name", "id": "factorial"}, "keywords": [],
               "args": [{"_type": "BinOp", "op": {"_type": "Sub"},
                         "left": {"_type": "Name", "id": "n"}, "right": {"_type": "Constant", "value": 1, "kind": null}}]}},
           "orelse": {"_type": "Constant", "value": 1}}}
      ],
      "decorator_list": [], "returns": null
    },
    {
      "_type": "Assign", "lineno": 3,
      "targets": [{"_type": "Tuple", "elts": [{"_type": "Name", "id": "x"}, {"_type": "Name", "id": "y"}]}],
      "value": {"_type": "Tuple", "elts": [{"_type": "Constant", "value": 1}, {"_type": "Constant", "value": 2}]}
    }
  ]
}`

func TestDecodeMatchesParser(t *testing.T) {
	decoded, err := astload.Decode([]byte(factorialJSON), "prog.json")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	parsed, errs := parser.Parse("def factorial(n):\n    return n * factorial(n - 1) if n else 1\nx, y = 1, 2\n", "prog.py")
	if len(errs) > 0 {
		t.Fatalf("Parse: %v", errs[0])
	}
	if got, want := prettyprinter.Print(decoded), prettyprinter.Print(parsed); got != want {
		t.Fatalf("decoded program differs\n--- decoded ---\n%s--- parsed ---\n%s", got, want)
	}
	ret := decoded.Body[0].(*ast.FunctionDef).Body[0]
	if ast.Line(ret) != 2 {
		t.Fatalf("Return line = %d, want 2", ast.Line(ret))
	}
	if ast.Line(decoded.Body[1]) != 3 {
		t.Fatalf("Assign line = %d, want 3", ast.Line(decoded.Body[1]))
	}
}

func TestDecodeYAMLConstants(t *testing.T) {
	doc := `
_type: Module
body:
  - _type: Expr
    lineno: 1
    value:
      _type: Call
      func: {_type: Name, id: print}
      args:
        - {_type: Constant, value: 12, typename: float}
        - {_type: Constant, value: "12"}
        - {_type: Constant, value: 18446744073709551616}
        - {_type: Constant, value: true}
        - {_type: Constant, value: null}
        - {_type: Constant, value: null, typename: ellipsis}
      keywords:
        - {_type: keyword, arg: sep, value: {_type: Constant, value: "-"}}
        - {_type: keyword, arg: null, value: {_type: Name, id: opts}}
`
	mod, err := astload.Decode([]byte(doc), "prog.yaml")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	call := mod.Body[0].(*ast.ExprStmt).Value.(*ast.Call)
	want := []struct {
		value    interface{}
		typeName string
	}{
		{float64(12), "float"},
		{"12", "str"},
		{float64(18446744073709551616), "float"},
		{true, "bool"},
		{nil, "NoneType"},
		{nil, "ellipsis"},
	}
	for i, w := range want {
		c := call.Args[i].(*ast.Constant)
		if c.Value != w.value || c.TypeName != w.typeName {
			t.Errorf("arg %d = %#v (%s), want %#v (%s)", i, c.Value, c.TypeName, w.value, w.typeName)
		}
	}
	if call.Keywords[0].Arg != "sep" || call.Keywords[1].Arg != "" {
		t.Fatalf("keywords = %+v", call.Keywords)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		doc      string
		contains string
	}{
		{`{"_type": "Expression", "body": []}`, "expected Module"},
		{`{"_type": "Module", "body": [{"lineno": 4}]}`, "without _type"},
		{`{"_type": "Module", "body": [{"_type": "Yield", "lineno": 7}]}`, "not supported"},
		{`{"_type": "Module", "body": [{"_type": "Expr", "lineno": 2, "value": {"_type": "Frobnicate"}}]}`, "unknown node type"},
		{`{"_type": "Module", "body": [{"_type": "AugAssign", "lineno": 1, "target": {"_type": "Name", "id": "x"}, "op": {"_type": "Spaceship"}, "value": {"_type": "Constant", "value": 1}}]}`, "unknown operator"},
		{`{"_type": "Module", "body": [{"_type": "ImportFrom", "module": "m", "level": 1, "names": []}]}`, "relative imports"},
		{`[1, 2`, ""},
	}
	for _, tt := range tests {
		_, err := astload.Decode([]byte(tt.doc), "bad.json")
		if err == nil {
			t.Errorf("Decode(%s) succeeded, want error", tt.doc)
			continue
		}
		diag, ok := err.(*diagnostics.DiagnosticError)
		if !ok || diag.Code != diagnostics.ErrA001 || diag.File != "bad.json" {
			t.Errorf("Decode(%s) error = %#v, want A001 diagnostic", tt.doc, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.contains) {
			t.Errorf("Decode(%s) error %q does not mention %q", tt.doc, err, tt.contains)
		}
	}
}

func TestDecodeErrorLine(t *testing.T) {
	doc := `{"_type": "Module", "body": [{"_type": "Pass", "lineno": 1}, {"_type": "Expr", "lineno": 9, "value": {"_type": "Await", "value": null}}]}`
	_, err := astload.Decode([]byte(doc), "bad.json")
	diag, ok := err.(*diagnostics.DiagnosticError)
	if !ok || diag.Token.Line != 9 {
		t.Fatalf("error = %v, want line 9", err)
	}
}
