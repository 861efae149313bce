package astload

import (
	"github.com/funvibe/pyhost/internal/ast"
)

func decodeStatementNodes(n *node) (ast.Node, bool, error) {
	var err error
	switch n.typ {
	case "FunctionDef", "AsyncFunctionDef":
		if n.typ == "AsyncFunctionDef" {
			return nil, true, n.fail("async functions are not supported")
		}
		fn := &ast.FunctionDef{Token: n.tok, Name: n.str("name")}
		if fn.Args, err = arguments(n, "args"); err != nil {
			return nil, true, err
		}
		if fn.Body, err = stmtList(n, "body"); err != nil {
			return nil, true, err
		}
		fn.DecoratorList, err = exprList(n, "decorator_list")
		return fn, true, err
	case "ClassDef":
		cls := &ast.ClassDef{Token: n.tok, Name: n.str("name")}
		if cls.Bases, err = exprList(n, "bases"); err != nil {
			return nil, true, err
		}
		if len(cls.Bases) > 1 {
			return nil, true, n.fail("multiple inheritance is not supported")
		}
		if cls.Body, err = stmtList(n, "body"); err != nil {
			return nil, true, err
		}
		cls.DecoratorList, err = exprList(n, "decorator_list")
		return cls, true, err
	case "Return":
		ret := &ast.Return{Token: n.tok}
		ret.Value, err = expr(n, "value")
		return ret, true, err
	case "Delete":
		del := &ast.Delete{Token: n.tok}
		del.Targets, err = exprList(n, "targets")
		return del, true, err
	case "Assign":
		as := &ast.Assign{Token: n.tok}
		if as.Targets, err = exprList(n, "targets"); err != nil {
			return nil, true, err
		}
		as.Value, err = requiredExpr(n, "value")
		return as, true, err
	case "AugAssign":
		aug := &ast.AugAssign{Token: n.tok}
		if aug.Target, err = requiredExpr(n, "target"); err != nil {
			return nil, true, err
		}
		if aug.Op, err = operator(n, "op"); err != nil {
			return nil, true, err
		}
		aug.Value, err = requiredExpr(n, "value")
		return aug, true, err
	case "AnnAssign":
		ann := &ast.AnnAssign{Token: n.tok}
		if ann.Target, err = requiredExpr(n, "target"); err != nil {
			return nil, true, err
		}
		if ann.Annotation, err = expr(n, "annotation"); err != nil {
			return nil, true, err
		}
		ann.Value, err = expr(n, "value")
		return ann, true, err
	case "Raise":
		r := &ast.Raise{Token: n.tok}
		if r.Exc, err = expr(n, "exc"); err != nil {
			return nil, true, err
		}
		r.Cause, err = expr(n, "cause")
		return r, true, err
	case "Assert":
		a := &ast.Assert{Token: n.tok}
		if a.Test, err = requiredExpr(n, "test"); err != nil {
			return nil, true, err
		}
		a.Msg, err = expr(n, "msg")
		return a, true, err
	case "Import":
		imp := &ast.Import{Token: n.tok}
		imp.Names, err = aliases(n)
		return imp, true, err
	case "ImportFrom":
		if n.intField("level") > 0 {
			return nil, true, n.fail("relative imports are not supported")
		}
		imp := &ast.ImportFrom{Token: n.tok, Module: n.str("module")}
		imp.Names, err = aliases(n)
		return imp, true, err
	case "Global":
		g := &ast.Global{Token: n.tok}
		g.Names, err = n.strList("names")
		return g, true, err
	case "Nonlocal":
		nl := &ast.Nonlocal{Token: n.tok}
		nl.Names, err = n.strList("names")
		return nl, true, err
	case "Expr":
		e := &ast.ExprStmt{Token: n.tok}
		e.Value, err = requiredExpr(n, "value")
		return e, true, err
	case "Pass":
		return &ast.Pass{Token: n.tok}, true, nil
	case "Break":
		return &ast.Break{Token: n.tok}, true, nil
	case "Continue":
		return &ast.Continue{Token: n.tok}, true, nil
	}
	return nil, false, nil
}

func decodeControlFlowNodes(n *node) (ast.Node, bool, error) {
	var err error
	switch n.typ {
	case "If":
		s := &ast.If{Token: n.tok}
		if s.Test, err = requiredExpr(n, "test"); err != nil {
			return nil, true, err
		}
		if s.Body, err = stmtList(n, "body"); err != nil {
			return nil, true, err
		}
		s.Orelse, err = stmtList(n, "orelse")
		return s, true, err
	case "While":
		s := &ast.While{Token: n.tok}
		if s.Test, err = requiredExpr(n, "test"); err != nil {
			return nil, true, err
		}
		if s.Body, err = stmtList(n, "body"); err != nil {
			return nil, true, err
		}
		s.Orelse, err = stmtList(n, "orelse")
		return s, true, err
	case "For":
		s := &ast.For{Token: n.tok}
		if s.Target, err = requiredExpr(n, "target"); err != nil {
			return nil, true, err
		}
		if s.Iter, err = requiredExpr(n, "iter"); err != nil {
			return nil, true, err
		}
		if s.Body, err = stmtList(n, "body"); err != nil {
			return nil, true, err
		}
		s.Orelse, err = stmtList(n, "orelse")
		return s, true, err
	case "Try", "TryStar":
		if n.typ == "TryStar" {
			return nil, true, n.fail("except* is not supported")
		}
		s := &ast.Try{Token: n.tok}
		if s.Body, err = stmtList(n, "body"); err != nil {
			return nil, true, err
		}
		handlers, err := n.children("handlers")
		if err != nil {
			return nil, true, err
		}
		for _, h := range handlers {
			if h == nil {
				continue
			}
			handler := &ast.ExceptHandler{Token: h.tok, Name: h.str("name")}
			if handler.Type, err = expr(h, "type"); err != nil {
				return nil, true, err
			}
			if handler.Body, err = stmtList(h, "body"); err != nil {
				return nil, true, err
			}
			s.Handlers = append(s.Handlers, handler)
		}
		if s.Orelse, err = stmtList(n, "orelse"); err != nil {
			return nil, true, err
		}
		s.Finalbody, err = stmtList(n, "finalbody")
		return s, true, err
	case "With":
		s := &ast.With{Token: n.tok}
		items, err := n.children("items")
		if err != nil {
			return nil, true, err
		}
		for _, it := range items {
			if it == nil {
				continue
			}
			item := &ast.WithItem{}
			if item.ContextExpr, err = requiredExpr(it, "context_expr"); err != nil {
				return nil, true, err
			}
			if item.OptionalVars, err = expr(it, "optional_vars"); err != nil {
				return nil, true, err
			}
			s.Items = append(s.Items, item)
		}
		s.Body, err = stmtList(n, "body")
		return s, true, err
	}
	return nil, false, nil
}

func aliases(n *node) ([]*ast.Alias, error) {
	items, err := n.children("names")
	if err != nil {
		return nil, err
	}
	out := make([]*ast.Alias, 0, len(items))
	for _, a := range items {
		if a == nil {
			continue
		}
		out = append(out, &ast.Alias{Token: a.tok, Name: a.str("name"), AsName: a.str("asname")})
	}
	return out, nil
}

// arguments decodes an `arguments` node. Positional-only parameters are
// folded into Args.
func arguments(n *node, name string) (*ast.Arguments, error) {
	an, err := n.child(name)
	if err != nil || an == nil {
		return &ast.Arguments{}, err
	}
	args := &ast.Arguments{}
	for _, field := range []string{"posonlyargs", "args"} {
		list, err := argList(an, field)
		if err != nil {
			return nil, err
		}
		args.Args = append(args.Args, list...)
	}
	if args.Vararg, err = singleArg(an, "vararg"); err != nil {
		return nil, err
	}
	if args.KwOnlyArgs, err = argList(an, "kwonlyargs"); err != nil {
		return nil, err
	}
	if args.KwDefaults, err = exprList(an, "kw_defaults"); err != nil {
		return nil, err
	}
	for len(args.KwDefaults) < len(args.KwOnlyArgs) {
		args.KwDefaults = append(args.KwDefaults, nil)
	}
	if args.Kwarg, err = singleArg(an, "kwarg"); err != nil {
		return nil, err
	}
	if args.Defaults, err = exprList(an, "defaults"); err != nil {
		return nil, err
	}
	if len(args.Defaults) > len(args.Args) {
		return nil, an.fail("more defaults than parameters")
	}
	return args, nil
}

func argList(n *node, name string) ([]*ast.Arg, error) {
	items, err := n.children(name)
	if err != nil {
		return nil, err
	}
	out := make([]*ast.Arg, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		a, err := toArg(item)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func singleArg(n *node, name string) (*ast.Arg, error) {
	c, err := n.child(name)
	if err != nil || c == nil {
		return nil, err
	}
	return toArg(c)
}

func toArg(n *node) (*ast.Arg, error) {
	a := &ast.Arg{Token: n.tok, Name: n.str("arg")}
	if a.Name == "" {
		return nil, n.fail("parameter without a name")
	}
	var err error
	a.Annotation, err = expr(n, "annotation")
	return a, err
}
