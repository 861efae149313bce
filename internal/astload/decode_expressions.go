package astload

import (
	"github.com/funvibe/pyhost/internal/ast"
)

func decodeExpressionNodes(n *node) (ast.Node, bool, error) {
	var err error
	switch n.typ {
	case "Name":
		return &ast.Name{Token: n.tok, Id: n.str("id")}, true, nil
	case "BinOp":
		e := &ast.BinOp{Token: n.tok}
		if e.Left, err = requiredExpr(n, "left"); err != nil {
			return nil, true, err
		}
		if e.Op, err = operator(n, "op"); err != nil {
			return nil, true, err
		}
		e.Right, err = requiredExpr(n, "right")
		return e, true, err
	case "BoolOp":
		e := &ast.BoolOp{Token: n.tok}
		if e.Op, err = operator(n, "op"); err != nil {
			return nil, true, err
		}
		e.Values, err = exprList(n, "values")
		return e, true, err
	case "UnaryOp":
		e := &ast.UnaryOp{Token: n.tok}
		if e.Op, err = operator(n, "op"); err != nil {
			return nil, true, err
		}
		e.Operand, err = requiredExpr(n, "operand")
		return e, true, err
	case "Compare":
		e := &ast.Compare{Token: n.tok}
		if e.Left, err = requiredExpr(n, "left"); err != nil {
			return nil, true, err
		}
		ops, err := n.children("ops")
		if err != nil {
			return nil, true, err
		}
		for _, op := range ops {
			if op == nil || ast.Operator(op.typ).Symbol() == op.typ {
				return nil, true, n.fail("bad comparison operator")
			}
			e.Ops = append(e.Ops, ast.Operator(op.typ))
		}
		if e.Comparators, err = exprList(n, "comparators"); err != nil {
			return nil, true, err
		}
		if len(e.Comparators) != len(e.Ops) {
			return nil, true, n.fail("ops and comparators differ in length")
		}
		return e, true, nil
	case "IfExp":
		e := &ast.IfExp{Token: n.tok}
		if e.Test, err = requiredExpr(n, "test"); err != nil {
			return nil, true, err
		}
		if e.Body, err = requiredExpr(n, "body"); err != nil {
			return nil, true, err
		}
		e.Orelse, err = requiredExpr(n, "orelse")
		return e, true, err
	case "Call":
		e := &ast.Call{Token: n.tok}
		if e.Func, err = requiredExpr(n, "func"); err != nil {
			return nil, true, err
		}
		if e.Args, err = exprList(n, "args"); err != nil {
			return nil, true, err
		}
		keywords, err := n.children("keywords")
		if err != nil {
			return nil, true, err
		}
		for _, k := range keywords {
			if k == nil {
				continue
			}
			kw := &ast.Keyword{Token: k.tok, Arg: k.str("arg")}
			if kw.Value, err = requiredExpr(k, "value"); err != nil {
				return nil, true, err
			}
			e.Keywords = append(e.Keywords, kw)
		}
		return e, true, nil
	case "Attribute":
		e := &ast.Attribute{Token: n.tok, Attr: n.str("attr")}
		e.Value, err = requiredExpr(n, "value")
		return e, true, err
	case "Subscript":
		e := &ast.Subscript{Token: n.tok}
		if e.Value, err = requiredExpr(n, "value"); err != nil {
			return nil, true, err
		}
		e.Slice, err = requiredExpr(n, "slice")
		return e, true, err
	case "Index":
		// Python 3.8 wraps subscripts in Index.
		e, err := requiredExpr(n, "value")
		return e, true, err
	case "ExtSlice":
		t := &ast.Tuple{Token: n.tok}
		t.Elts, err = exprList(n, "dims")
		return t, true, err
	case "Slice":
		e := &ast.Slice{Token: n.tok}
		if e.Lower, err = expr(n, "lower"); err != nil {
			return nil, true, err
		}
		if e.Upper, err = expr(n, "upper"); err != nil {
			return nil, true, err
		}
		e.Step, err = expr(n, "step")
		return e, true, err
	case "Lambda":
		e := &ast.Lambda{Token: n.tok}
		if e.Args, err = arguments(n, "args"); err != nil {
			return nil, true, err
		}
		e.Body, err = requiredExpr(n, "body")
		return e, true, err
	case "Starred":
		e := &ast.Starred{Token: n.tok}
		e.Value, err = requiredExpr(n, "value")
		return e, true, err
	case "ListComp", "SetComp", "GeneratorExp", "DictComp":
		return decodeComprehension(n)
	case "NamedExpr", "Await", "Yield", "YieldFrom":
		return nil, true, n.fail("not supported")
	}
	return nil, false, nil
}

func decodeLiteralNodes(n *node) (ast.Node, bool, error) {
	var err error
	switch n.typ {
	case "Constant", "Num", "Str", "NameConstant", "Bytes", "Ellipsis":
		c := &ast.Constant{Token: n.tok}
		switch n.typ {
		case "Num":
			n.fields["value"] = n.fields["n"]
		case "Str", "Bytes":
			n.fields["value"] = n.fields["s"]
			c.Value, c.TypeName = "", "str"
		case "Ellipsis":
			c.TypeName = "ellipsis"
			return c, true, nil
		}
		v, typeName, err := constantValue(n)
		if err != nil {
			return nil, true, err
		}
		if v != nil || c.TypeName == "" {
			c.Value, c.TypeName = v, typeName
		}
		return c, true, nil
	case "List":
		e := &ast.List{Token: n.tok}
		e.Elts, err = exprList(n, "elts")
		return e, true, err
	case "Tuple":
		e := &ast.Tuple{Token: n.tok}
		e.Elts, err = exprList(n, "elts")
		return e, true, err
	case "Set":
		e := &ast.Set{Token: n.tok}
		e.Elts, err = exprList(n, "elts")
		return e, true, err
	case "Dict":
		e := &ast.Dict{Token: n.tok}
		if e.Keys, err = exprList(n, "keys"); err != nil {
			return nil, true, err
		}
		if e.Values, err = exprList(n, "values"); err != nil {
			return nil, true, err
		}
		if len(e.Keys) != len(e.Values) {
			return nil, true, n.fail("keys and values differ in length")
		}
		return e, true, nil
	case "JoinedStr":
		e := &ast.JoinedStr{Token: n.tok}
		e.Values, err = exprList(n, "values")
		return e, true, err
	case "FormattedValue":
		e := &ast.FormattedValue{Token: n.tok, Conversion: -1}
		if e.Value, err = requiredExpr(n, "value"); err != nil {
			return nil, true, err
		}
		if _, ok := n.fields["conversion"]; ok {
			e.Conversion = n.intField("conversion")
		}
		e.FormatSpec, err = expr(n, "format_spec")
		return e, true, err
	}
	return nil, false, nil
}

func decodeComprehension(n *node) (ast.Node, bool, error) {
	gens, err := n.children("generators")
	if err != nil {
		return nil, true, err
	}
	var clauses []*ast.Comprehension
	for _, g := range gens {
		if g == nil {
			continue
		}
		if g.intField("is_async") != 0 {
			return nil, true, g.fail("async comprehensions are not supported")
		}
		c := &ast.Comprehension{}
		if c.Target, err = requiredExpr(g, "target"); err != nil {
			return nil, true, err
		}
		if c.Iter, err = requiredExpr(g, "iter"); err != nil {
			return nil, true, err
		}
		if c.Ifs, err = exprList(g, "ifs"); err != nil {
			return nil, true, err
		}
		clauses = append(clauses, c)
	}
	if len(clauses) == 0 {
		return nil, true, n.fail("comprehension without generators")
	}

	if n.typ == "DictComp" {
		e := &ast.DictComp{Token: n.tok, Generators: clauses}
		if e.Key, err = requiredExpr(n, "key"); err != nil {
			return nil, true, err
		}
		e.Value, err = requiredExpr(n, "value")
		return e, true, err
	}
	elt, err := requiredExpr(n, "elt")
	if err != nil {
		return nil, true, err
	}
	switch n.typ {
	case "SetComp":
		return &ast.SetComp{Token: n.tok, Elt: elt, Generators: clauses}, true, nil
	case "GeneratorExp":
		return &ast.GeneratorExp{Token: n.tok, Elt: elt, Generators: clauses}, true, nil
	}
	return &ast.ListComp{Token: n.tok, Elt: elt, Generators: clauses}, true, nil
}
