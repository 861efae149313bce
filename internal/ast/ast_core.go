// Package ast is the node model consumed by the evaluator. Node kinds and
// field names follow CPython's ast module so that trees produced by an
// external parser can be loaded without translation.
package ast

import "github.com/funvibe/pyhost/internal/token"

// Node is the base interface for all AST nodes.
type Node interface {
	GetToken() token.Token
}

// Stmt is a Node that represents a statement.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a Node that represents an expression.
type Expr interface {
	Node
	exprNode()
}

// Module is the root of every parsed program.
type Module struct {
	Token token.Token
	File  string
	Body  []Stmt
}

func (m *Module) GetToken() token.Token { return m.Token }

// Arg is a single declared parameter.
type Arg struct {
	Token      token.Token
	Name       string
	Annotation Expr
}

func (a *Arg) GetToken() token.Token { return a.Token }

// Arguments is the parameter list of a def or lambda.
// Defaults align with the tail of Args; KwDefaults align with KwOnlyArgs
// and hold nil for keyword-only parameters without a default.
type Arguments struct {
	Args       []*Arg
	Vararg     *Arg
	KwOnlyArgs []*Arg
	KwDefaults []Expr
	Kwarg      *Arg
	Defaults   []Expr
}

// Names returns every parameter name in binding order.
func (a *Arguments) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Args)+len(a.KwOnlyArgs)+2)
	for _, arg := range a.Args {
		names = append(names, arg.Name)
	}
	if a.Vararg != nil {
		names = append(names, a.Vararg.Name)
	}
	for _, arg := range a.KwOnlyArgs {
		names = append(names, arg.Name)
	}
	if a.Kwarg != nil {
		names = append(names, a.Kwarg.Name)
	}
	return names
}

// Keyword is a keyword argument at a call site. Arg is empty for **mapping.
type Keyword struct {
	Token token.Token
	Arg   string
	Value Expr
}

func (k *Keyword) GetToken() token.Token { return k.Token }

// Alias is one imported name.
type Alias struct {
	Token  token.Token
	Name   string
	AsName string
}

func (a *Alias) GetToken() token.Token { return a.Token }

// ExceptHandler is one except clause of a Try. Type is nil for a bare except.
type ExceptHandler struct {
	Token token.Token
	Type  Expr
	Name  string
	Body  []Stmt
}

func (h *ExceptHandler) GetToken() token.Token { return h.Token }

// WithItem is one context manager of a With statement.
type WithItem struct {
	ContextExpr  Expr
	OptionalVars Expr
}

// Comprehension is one `for target in iter if cond...` clause.
type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

// Line returns the source line of n, or 0 when n is nil.
func Line(n Node) int {
	if n == nil {
		return 0
	}
	return n.GetToken().Line
}
