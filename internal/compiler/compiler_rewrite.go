package compiler

import (
	"github.com/funvibe/pyhost/internal/ast"
)

// rewriter copies a function body, replacing names bound to the function's
// slots with LocalSlot nodes. The input tree is never modified.
type rewriter struct {
	c *Compiler
}

func (r *rewriter) stmts(body []ast.Stmt) []ast.Stmt {
	if body == nil {
		return nil
	}
	out := make([]ast.Stmt, len(body))
	for i, s := range body {
		out[i] = r.stmt(s)
	}
	return out
}

func (r *rewriter) exprs(exprs []ast.Expr) []ast.Expr {
	if exprs == nil {
		return nil
	}
	out := make([]ast.Expr, len(exprs))
	for i, e := range exprs {
		out[i] = r.expr(e)
	}
	return out
}

func (r *rewriter) stmt(s ast.Stmt) ast.Stmt {
	switch s := s.(type) {
	case *ast.FunctionDef:
		cp := *s
		cp.DecoratorList = r.exprs(s.DecoratorList)
		cp.Args = r.arguments(s.Args)
		r.c.CompileFunction(&cp)
		return &cp
	case *ast.ClassDef:
		cp := *s
		cp.DecoratorList = r.exprs(s.DecoratorList)
		cp.Bases = r.exprs(s.Bases)
		r.c.scanStmts(s.Body)
		return &cp
	case *ast.ExprStmt:
		return &ast.ExprStmt{Token: s.Token, Value: r.expr(s.Value)}
	case *ast.Assign:
		return &ast.Assign{Token: s.Token, Targets: r.exprs(s.Targets), Value: r.expr(s.Value)}
	case *ast.AugAssign:
		return &ast.AugAssign{Token: s.Token, Target: r.expr(s.Target), Op: s.Op, Value: r.expr(s.Value)}
	case *ast.AnnAssign:
		return &ast.AnnAssign{Token: s.Token, Target: r.expr(s.Target), Annotation: s.Annotation, Value: r.expr(s.Value)}
	case *ast.Return:
		return &ast.Return{Token: s.Token, Value: r.expr(s.Value)}
	case *ast.Delete:
		return &ast.Delete{Token: s.Token, Targets: r.exprs(s.Targets)}
	case *ast.Raise:
		return &ast.Raise{Token: s.Token, Exc: r.expr(s.Exc), Cause: r.expr(s.Cause)}
	case *ast.Assert:
		return &ast.Assert{Token: s.Token, Test: r.expr(s.Test), Msg: r.expr(s.Msg)}
	case *ast.If:
		return &ast.If{Token: s.Token, Test: r.expr(s.Test), Body: r.stmts(s.Body), Orelse: r.stmts(s.Orelse)}
	case *ast.While:
		return &ast.While{Token: s.Token, Test: r.expr(s.Test), Body: r.stmts(s.Body), Orelse: r.stmts(s.Orelse)}
	case *ast.For:
		return &ast.For{Token: s.Token, Target: r.expr(s.Target), Iter: r.expr(s.Iter), Body: r.stmts(s.Body), Orelse: r.stmts(s.Orelse)}
	case *ast.With:
		items := make([]*ast.WithItem, len(s.Items))
		for i, item := range s.Items {
			items[i] = &ast.WithItem{ContextExpr: r.expr(item.ContextExpr), OptionalVars: r.expr(item.OptionalVars)}
		}
		return &ast.With{Token: s.Token, Items: items, Body: r.stmts(s.Body)}
	case *ast.Try:
		handlers := make([]*ast.ExceptHandler, len(s.Handlers))
		for i, h := range s.Handlers {
			handlers[i] = &ast.ExceptHandler{Token: h.Token, Type: r.expr(h.Type), Name: h.Name, Body: r.stmts(h.Body)}
		}
		return &ast.Try{Token: s.Token, Body: r.stmts(s.Body), Handlers: handlers, Orelse: r.stmts(s.Orelse), Finalbody: r.stmts(s.Finalbody)}
	}
	// Import, ImportFrom, Global, Nonlocal, Pass, Break and Continue carry
	// no expressions. Imports bind through the name-keyed path, which the
	// environment routes to the slot.
	return s
}

func (r *rewriter) arguments(args *ast.Arguments) *ast.Arguments {
	if args == nil {
		return nil
	}
	cp := *args
	cp.Defaults = r.exprs(args.Defaults)
	cp.KwDefaults = r.exprs(args.KwDefaults)
	return &cp
}

func (r *rewriter) keywords(kws []*ast.Keyword) []*ast.Keyword {
	if kws == nil {
		return nil
	}
	out := make([]*ast.Keyword, len(kws))
	for i, k := range kws {
		out[i] = &ast.Keyword{Token: k.Token, Arg: k.Arg, Value: r.expr(k.Value)}
	}
	return out
}

func (r *rewriter) expr(e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *ast.Name:
		if slot := r.c.resolveLocal(e.Id); slot >= 0 {
			return &ast.LocalSlot{Token: e.Token, Id: e.Id, Index: slot}
		}
		return e
	case *ast.BinOp:
		return &ast.BinOp{Token: e.Token, Left: r.expr(e.Left), Op: e.Op, Right: r.expr(e.Right)}
	case *ast.BoolOp:
		return &ast.BoolOp{Token: e.Token, Op: e.Op, Values: r.exprs(e.Values)}
	case *ast.UnaryOp:
		return &ast.UnaryOp{Token: e.Token, Op: e.Op, Operand: r.expr(e.Operand)}
	case *ast.Compare:
		return &ast.Compare{Token: e.Token, Left: r.expr(e.Left), Ops: e.Ops, Comparators: r.exprs(e.Comparators)}
	case *ast.IfExp:
		return &ast.IfExp{Token: e.Token, Test: r.expr(e.Test), Body: r.expr(e.Body), Orelse: r.expr(e.Orelse)}
	case *ast.Call:
		return &ast.Call{Token: e.Token, Func: r.expr(e.Func), Args: r.exprs(e.Args), Keywords: r.keywords(e.Keywords)}
	case *ast.Attribute:
		return &ast.Attribute{Token: e.Token, Value: r.expr(e.Value), Attr: e.Attr}
	case *ast.Subscript:
		return &ast.Subscript{Token: e.Token, Value: r.expr(e.Value), Slice: r.expr(e.Slice)}
	case *ast.Slice:
		return &ast.Slice{Token: e.Token, Lower: r.expr(e.Lower), Upper: r.expr(e.Upper), Step: r.expr(e.Step)}
	case *ast.List:
		return &ast.List{Token: e.Token, Elts: r.exprs(e.Elts)}
	case *ast.Tuple:
		return &ast.Tuple{Token: e.Token, Elts: r.exprs(e.Elts)}
	case *ast.Set:
		return &ast.Set{Token: e.Token, Elts: r.exprs(e.Elts)}
	case *ast.Dict:
		return &ast.Dict{Token: e.Token, Keys: r.exprs(e.Keys), Values: r.exprs(e.Values)}
	case *ast.Starred:
		return &ast.Starred{Token: e.Token, Value: r.expr(e.Value)}
	case *ast.JoinedStr:
		return &ast.JoinedStr{Token: e.Token, Values: r.exprs(e.Values)}
	case *ast.FormattedValue:
		return &ast.FormattedValue{Token: e.Token, Value: r.expr(e.Value), Conversion: e.Conversion, FormatSpec: r.expr(e.FormatSpec)}
	case *ast.Lambda:
		cp := *e
		cp.Args = r.arguments(e.Args)
		r.c.CompileLambda(&cp)
		return &cp
	case *ast.ListComp, *ast.SetComp, *ast.DictComp, *ast.GeneratorExp:
		// Comprehensions run in their own name-keyed scope and reach the
		// function's slots through name lookup.
		r.c.scanExpr(e)
		return e
	}
	return e
}
