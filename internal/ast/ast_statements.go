package ast

import "github.com/funvibe/pyhost/internal/token"

type FunctionDef struct {
	Token         token.Token
	Name          string
	Args          *Arguments
	Body          []Stmt
	DecoratorList []Expr
}

func (s *FunctionDef) GetToken() token.Token { return s.Token }
func (s *FunctionDef) stmtNode()             {}

// ClassDef supports at most one base class.
type ClassDef struct {
	Token         token.Token
	Name          string
	Bases         []Expr
	Body          []Stmt
	DecoratorList []Expr
}

func (s *ClassDef) GetToken() token.Token { return s.Token }
func (s *ClassDef) stmtNode()             {}

type Return struct {
	Token token.Token
	Value Expr // nil for a bare return
}

func (s *Return) GetToken() token.Token { return s.Token }
func (s *Return) stmtNode()             {}

type Delete struct {
	Token   token.Token
	Targets []Expr
}

func (s *Delete) GetToken() token.Token { return s.Token }
func (s *Delete) stmtNode()             {}

// Assign binds Value to every target: a = b = value.
type Assign struct {
	Token   token.Token
	Targets []Expr
	Value   Expr
}

func (s *Assign) GetToken() token.Token { return s.Token }
func (s *Assign) stmtNode()             {}

type AugAssign struct {
	Token  token.Token
	Target Expr
	Op     Operator
	Value  Expr
}

func (s *AugAssign) GetToken() token.Token { return s.Token }
func (s *AugAssign) stmtNode()             {}

// AnnAssign is `target: annotation [= value]`. The annotation is never evaluated.
type AnnAssign struct {
	Token      token.Token
	Target     Expr
	Annotation Expr
	Value      Expr
}

func (s *AnnAssign) GetToken() token.Token { return s.Token }
func (s *AnnAssign) stmtNode()             {}

type For struct {
	Token  token.Token
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (s *For) GetToken() token.Token { return s.Token }
func (s *For) stmtNode()             {}

type While struct {
	Token  token.Token
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (s *While) GetToken() token.Token { return s.Token }
func (s *While) stmtNode()             {}

type If struct {
	Token  token.Token
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (s *If) GetToken() token.Token { return s.Token }
func (s *If) stmtNode()             {}

type With struct {
	Token token.Token
	Items []*WithItem
	Body  []Stmt
}

func (s *With) GetToken() token.Token { return s.Token }
func (s *With) stmtNode()             {}

type Raise struct {
	Token token.Token
	Exc   Expr // nil re-raises the active exception
	Cause Expr
}

func (s *Raise) GetToken() token.Token { return s.Token }
func (s *Raise) stmtNode()             {}

type Try struct {
	Token     token.Token
	Body      []Stmt
	Handlers  []*ExceptHandler
	Orelse    []Stmt
	Finalbody []Stmt
}

func (s *Try) GetToken() token.Token { return s.Token }
func (s *Try) stmtNode()             {}

type Assert struct {
	Token token.Token
	Test  Expr
	Msg   Expr
}

func (s *Assert) GetToken() token.Token { return s.Token }
func (s *Assert) stmtNode()             {}

type Import struct {
	Token token.Token
	Names []*Alias
}

func (s *Import) GetToken() token.Token { return s.Token }
func (s *Import) stmtNode()             {}

type ImportFrom struct {
	Token  token.Token
	Module string
	Names  []*Alias
}

func (s *ImportFrom) GetToken() token.Token { return s.Token }
func (s *ImportFrom) stmtNode()             {}

type Global struct {
	Token token.Token
	Names []string
}

func (s *Global) GetToken() token.Token { return s.Token }
func (s *Global) stmtNode()             {}

type Nonlocal struct {
	Token token.Token
	Names []string
}

func (s *Nonlocal) GetToken() token.Token { return s.Token }
func (s *Nonlocal) stmtNode()             {}

// ExprStmt is an expression evaluated for its side effects (ast.Expr in CPython).
type ExprStmt struct {
	Token token.Token
	Value Expr
}

func (s *ExprStmt) GetToken() token.Token { return s.Token }
func (s *ExprStmt) stmtNode()             {}

type Pass struct{ Token token.Token }

func (s *Pass) GetToken() token.Token { return s.Token }
func (s *Pass) stmtNode()             {}

type Break struct{ Token token.Token }

func (s *Break) GetToken() token.Token { return s.Token }
func (s *Break) stmtNode()             {}

type Continue struct{ Token token.Token }

func (s *Continue) GetToken() token.Token { return s.Token }
func (s *Continue) stmtNode()             {}
