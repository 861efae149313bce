package compiler

import (
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
)

// blocks returns the nested statement lists of a compound statement that
// belong to the same scope.
func blocks(s ast.Stmt) [][]ast.Stmt {
	switch s := s.(type) {
	case *ast.If:
		return [][]ast.Stmt{s.Body, s.Orelse}
	case *ast.While:
		return [][]ast.Stmt{s.Body, s.Orelse}
	case *ast.For:
		return [][]ast.Stmt{s.Body, s.Orelse}
	case *ast.With:
		return [][]ast.Stmt{s.Body}
	case *ast.Try:
		out := [][]ast.Stmt{s.Body, s.Orelse, s.Finalbody}
		for _, h := range s.Handlers {
			out = append(out, h.Body)
		}
		return out
	}
	return nil
}

func walkScope(body []ast.Stmt, visit func(ast.Stmt)) {
	for _, s := range body {
		visit(s)
		for _, b := range blocks(s) {
			walkScope(b, visit)
		}
	}
}

// Declarations returns the names a def body declares global and nonlocal.
func Declarations(body []ast.Stmt) (globals, nonlocals map[string]bool) {
	return collectDeclarations(body)
}

// collectDeclarations gathers the global and nonlocal names of a body.
func collectDeclarations(body []ast.Stmt) (map[string]bool, map[string]bool) {
	globals, nonlocals := map[string]bool{}, map[string]bool{}
	walkScope(body, func(s ast.Stmt) {
		switch s := s.(type) {
		case *ast.Global:
			for _, n := range s.Names {
				globals[n] = true
			}
		case *ast.Nonlocal:
			for _, n := range s.Names {
				nonlocals[n] = true
			}
		}
	})
	return globals, nonlocals
}

// LocalNames returns the names local to a def: its parameters and every name
// the body binds, minus global, nonlocal and handler names. Reading one of
// them before it is bound is an error rather than a lookup in outer scopes.
func LocalNames(args *ast.Arguments, body []ast.Stmt) map[string]bool {
	globals, nonlocals := collectDeclarations(body)
	names := localNames(args, body, globals, nonlocals)
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// localNames lists the locals of a def in slot order: parameters first.
func localNames(args *ast.Arguments, body []ast.Stmt, globals, nonlocals map[string]bool) []string {
	excluded := collectHandlerNames(body)
	for n := range globals {
		excluded[n] = true
	}
	for n := range nonlocals {
		excluded[n] = true
	}
	var names []string
	seen := map[string]bool{}
	for _, n := range args.Names() {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range collectAssigned(body) {
		if !excluded[n] && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// collectHandlerNames gathers `except ... as name` names, which live in the
// handler's own scope.
func collectHandlerNames(body []ast.Stmt) map[string]bool {
	names := map[string]bool{}
	walkScope(body, func(s ast.Stmt) {
		if t, ok := s.(*ast.Try); ok {
			for _, h := range t.Handlers {
				if h.Name != "" {
					names[h.Name] = true
				}
			}
		}
	})
	return names
}

// collectAssigned lists the names a body binds, in order of first binding.
func collectAssigned(body []ast.Stmt) []string {
	var names []string
	seen := map[string]bool{}
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	var target func(ast.Expr)
	target = func(e ast.Expr) {
		switch e := e.(type) {
		case *ast.Name:
			add(e.Id)
		case *ast.Tuple:
			for _, el := range e.Elts {
				target(el)
			}
		case *ast.List:
			for _, el := range e.Elts {
				target(el)
			}
		case *ast.Starred:
			target(e.Value)
		}
	}
	walkScope(body, func(s ast.Stmt) {
		switch s := s.(type) {
		case *ast.Assign:
			for _, t := range s.Targets {
				target(t)
			}
		case *ast.AugAssign:
			target(s.Target)
		case *ast.AnnAssign:
			target(s.Target)
		case *ast.For:
			target(s.Target)
		case *ast.With:
			for _, item := range s.Items {
				if item.OptionalVars != nil {
					target(item.OptionalVars)
				}
			}
		case *ast.Delete:
			for _, t := range s.Targets {
				target(t)
			}
		case *ast.FunctionDef:
			add(s.Name)
		case *ast.ClassDef:
			add(s.Name)
		case *ast.Import:
			for _, a := range s.Names {
				if a.AsName != "" {
					add(a.AsName)
				} else {
					add(strings.SplitN(a.Name, ".", 2)[0])
				}
			}
		case *ast.ImportFrom:
			for _, a := range s.Names {
				switch {
				case a.Name == "*":
				case a.AsName != "":
					add(a.AsName)
				default:
					add(a.Name)
				}
			}
		}
	})
	return names
}

// --- Unslotted scopes ---
//
// Module bodies, class bodies and comprehensions keep name-keyed access. They
// are scanned only to find the functions and lambdas inside them.

func (c *Compiler) scanStmts(body []ast.Stmt) {
	for _, s := range body {
		c.scanStmt(s)
	}
}

func (c *Compiler) scanStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.FunctionDef:
		c.scanExprs(s.DecoratorList)
		c.scanArguments(s.Args)
		c.CompileFunction(s)
		return
	case *ast.ClassDef:
		c.scanExprs(s.DecoratorList)
		c.scanExprs(s.Bases)
		c.scanStmts(s.Body)
		return
	}
	for _, e := range stmtExprs(s) {
		c.scanExpr(e)
	}
	for _, b := range blocks(s) {
		c.scanStmts(b)
	}
}

func (c *Compiler) scanArguments(args *ast.Arguments) {
	if args == nil {
		return
	}
	c.scanExprs(args.Defaults)
	c.scanExprs(args.KwDefaults)
}

func (c *Compiler) scanExprs(exprs []ast.Expr) {
	for _, e := range exprs {
		c.scanExpr(e)
	}
}

func (c *Compiler) scanExpr(e ast.Expr) {
	if e == nil {
		return
	}
	if l, ok := e.(*ast.Lambda); ok {
		c.scanArguments(l.Args)
		c.CompileLambda(l)
		return
	}
	for _, child := range exprChildren(e) {
		c.scanExpr(child)
	}
}

// stmtExprs lists the expressions a simple or compound statement evaluates
// directly (not those of nested blocks).
func stmtExprs(s ast.Stmt) []ast.Expr {
	switch s := s.(type) {
	case *ast.ExprStmt:
		return []ast.Expr{s.Value}
	case *ast.Assign:
		return append(append([]ast.Expr{}, s.Targets...), s.Value)
	case *ast.AugAssign:
		return []ast.Expr{s.Target, s.Value}
	case *ast.AnnAssign:
		return []ast.Expr{s.Target, s.Annotation, s.Value}
	case *ast.Return:
		return []ast.Expr{s.Value}
	case *ast.Delete:
		return s.Targets
	case *ast.Raise:
		return []ast.Expr{s.Exc, s.Cause}
	case *ast.Assert:
		return []ast.Expr{s.Test, s.Msg}
	case *ast.If:
		return []ast.Expr{s.Test}
	case *ast.While:
		return []ast.Expr{s.Test}
	case *ast.For:
		return []ast.Expr{s.Target, s.Iter}
	case *ast.With:
		var out []ast.Expr
		for _, item := range s.Items {
			out = append(out, item.ContextExpr, item.OptionalVars)
		}
		return out
	case *ast.Try:
		var out []ast.Expr
		for _, h := range s.Handlers {
			out = append(out, h.Type)
		}
		return out
	}
	return nil
}

// exprChildren lists the direct subexpressions of e.
func exprChildren(e ast.Expr) []ast.Expr {
	switch e := e.(type) {
	case *ast.BinOp:
		return []ast.Expr{e.Left, e.Right}
	case *ast.BoolOp:
		return e.Values
	case *ast.UnaryOp:
		return []ast.Expr{e.Operand}
	case *ast.Compare:
		return append([]ast.Expr{e.Left}, e.Comparators...)
	case *ast.IfExp:
		return []ast.Expr{e.Test, e.Body, e.Orelse}
	case *ast.Call:
		out := append([]ast.Expr{e.Func}, e.Args...)
		for _, k := range e.Keywords {
			out = append(out, k.Value)
		}
		return out
	case *ast.Attribute:
		return []ast.Expr{e.Value}
	case *ast.Subscript:
		return []ast.Expr{e.Value, e.Slice}
	case *ast.Slice:
		return []ast.Expr{e.Lower, e.Upper, e.Step}
	case *ast.List:
		return e.Elts
	case *ast.Tuple:
		return e.Elts
	case *ast.Set:
		return e.Elts
	case *ast.Dict:
		return append(append([]ast.Expr{}, e.Keys...), e.Values...)
	case *ast.ListComp:
		return comprehensionChildren(e.Generators, e.Elt)
	case *ast.SetComp:
		return comprehensionChildren(e.Generators, e.Elt)
	case *ast.GeneratorExp:
		return comprehensionChildren(e.Generators, e.Elt)
	case *ast.DictComp:
		return comprehensionChildren(e.Generators, e.Key, e.Value)
	case *ast.JoinedStr:
		return e.Values
	case *ast.FormattedValue:
		return []ast.Expr{e.Value, e.FormatSpec}
	case *ast.Starred:
		return []ast.Expr{e.Value}
	case *ast.Lambda:
		return []ast.Expr{e.Body}
	}
	return nil
}

func comprehensionChildren(gens []*ast.Comprehension, elts ...ast.Expr) []ast.Expr {
	out := append([]ast.Expr{}, elts...)
	for _, g := range gens {
		out = append(out, g.Target, g.Iter)
		out = append(out, g.Ifs...)
	}
	return out
}
