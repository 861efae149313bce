package ast

import "github.com/funvibe/pyhost/internal/token"

// Operator names follow the CPython ast operator classes.
type Operator string

const (
	Add      Operator = "Add"
	Sub      Operator = "Sub"
	Mult     Operator = "Mult"
	MatMult  Operator = "MatMult"
	Div      Operator = "Div"
	FloorDiv Operator = "FloorDiv"
	Mod      Operator = "Mod"
	Pow      Operator = "Pow"
	LShift   Operator = "LShift"
	RShift   Operator = "RShift"
	BitOr    Operator = "BitOr"
	BitXor   Operator = "BitXor"
	BitAnd   Operator = "BitAnd"

	// Unary
	UAdd   Operator = "UAdd"
	USub   Operator = "USub"
	Not    Operator = "Not"
	Invert Operator = "Invert"

	// Boolean
	And Operator = "And"
	Or  Operator = "Or"

	// Comparison
	Eq    Operator = "Eq"
	NotEq Operator = "NotEq"
	Lt    Operator = "Lt"
	LtE   Operator = "LtE"
	Gt    Operator = "Gt"
	GtE   Operator = "GtE"
	Is    Operator = "Is"
	IsNot Operator = "IsNot"
	In    Operator = "In"
	NotIn Operator = "NotIn"
)

var operatorSymbols = map[Operator]string{
	Add: "+", Sub: "-", Mult: "*", MatMult: "@", Div: "/", FloorDiv: "//", Mod: "%",
	Pow: "**", LShift: "<<", RShift: ">>", BitOr: "|", BitXor: "^", BitAnd: "&",
	UAdd: "+", USub: "-", Not: "not", Invert: "~", And: "and", Or: "or",
	Eq: "==", NotEq: "!=", Lt: "<", LtE: "<=", Gt: ">", GtE: ">=",
	Is: "is", IsNot: "is not", In: "in", NotIn: "not in",
}

// Symbol returns the source spelling of the operator.
func (o Operator) Symbol() string {
	if s, ok := operatorSymbols[o]; ok {
		return s
	}
	return string(o)
}

type Name struct {
	Token token.Token
	Id    string
}

func (e *Name) GetToken() token.Token { return e.Token }
func (e *Name) exprNode()             {}

// LocalSlot is produced only by the compiler: a Name resolved to a
// frame-relative slot of the enclosing function.
type LocalSlot struct {
	Token token.Token
	Id    string
	Index int
}

func (e *LocalSlot) GetToken() token.Token { return e.Token }
func (e *LocalSlot) exprNode()             {}

// Constant holds int64, float64, string, bool or nil. TypeName is the
// source-level type name ("int", "float", "str", "bool", "NoneType").
type Constant struct {
	Token    token.Token
	Value    interface{}
	TypeName string
}

func (e *Constant) GetToken() token.Token { return e.Token }
func (e *Constant) exprNode()             {}

type BinOp struct {
	Token token.Token
	Left  Expr
	Op    Operator
	Right Expr
}

func (e *BinOp) GetToken() token.Token { return e.Token }
func (e *BinOp) exprNode()             {}

type BoolOp struct {
	Token  token.Token
	Op     Operator
	Values []Expr
}

func (e *BoolOp) GetToken() token.Token { return e.Token }
func (e *BoolOp) exprNode()             {}

type UnaryOp struct {
	Token   token.Token
	Op      Operator
	Operand Expr
}

func (e *UnaryOp) GetToken() token.Token { return e.Token }
func (e *UnaryOp) exprNode()             {}

// Compare is a comparison chain: Left Ops[0] Comparators[0] Ops[1] ...
type Compare struct {
	Token       token.Token
	Left        Expr
	Ops         []Operator
	Comparators []Expr
}

func (e *Compare) GetToken() token.Token { return e.Token }
func (e *Compare) exprNode()             {}

type IfExp struct {
	Token  token.Token
	Test   Expr
	Body   Expr
	Orelse Expr
}

func (e *IfExp) GetToken() token.Token { return e.Token }
func (e *IfExp) exprNode()             {}

type Call struct {
	Token    token.Token
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

func (e *Call) GetToken() token.Token { return e.Token }
func (e *Call) exprNode()             {}

type Attribute struct {
	Token token.Token
	Value Expr
	Attr  string
}

func (e *Attribute) GetToken() token.Token { return e.Token }
func (e *Attribute) exprNode()             {}

type Subscript struct {
	Token token.Token
	Value Expr
	Slice Expr
}

func (e *Subscript) GetToken() token.Token { return e.Token }
func (e *Subscript) exprNode()             {}

// Slice appears only as Subscript.Slice (or inside a Tuple there).
type Slice struct {
	Token token.Token
	Lower Expr
	Upper Expr
	Step  Expr
}

func (e *Slice) GetToken() token.Token { return e.Token }
func (e *Slice) exprNode()             {}

type Lambda struct {
	Token token.Token
	Args  *Arguments
	Body  Expr
}

func (e *Lambda) GetToken() token.Token { return e.Token }
func (e *Lambda) exprNode()             {}

type List struct {
	Token token.Token
	Elts  []Expr
}

func (e *List) GetToken() token.Token { return e.Token }
func (e *List) exprNode()             {}

type Tuple struct {
	Token token.Token
	Elts  []Expr
}

func (e *Tuple) GetToken() token.Token { return e.Token }
func (e *Tuple) exprNode()             {}

// Dict literal; a nil key marks a **mapping entry.
type Dict struct {
	Token  token.Token
	Keys   []Expr
	Values []Expr
}

func (e *Dict) GetToken() token.Token { return e.Token }
func (e *Dict) exprNode()             {}

type Set struct {
	Token token.Token
	Elts  []Expr
}

func (e *Set) GetToken() token.Token { return e.Token }
func (e *Set) exprNode()             {}

type ListComp struct {
	Token      token.Token
	Elt        Expr
	Generators []*Comprehension
}

func (e *ListComp) GetToken() token.Token { return e.Token }
func (e *ListComp) exprNode()             {}

type SetComp struct {
	Token      token.Token
	Elt        Expr
	Generators []*Comprehension
}

func (e *SetComp) GetToken() token.Token { return e.Token }
func (e *SetComp) exprNode()             {}

type DictComp struct {
	Token      token.Token
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

func (e *DictComp) GetToken() token.Token { return e.Token }
func (e *DictComp) exprNode()             {}

// GeneratorExp is evaluated eagerly into a list.
type GeneratorExp struct {
	Token      token.Token
	Elt        Expr
	Generators []*Comprehension
}

func (e *GeneratorExp) GetToken() token.Token { return e.Token }
func (e *GeneratorExp) exprNode()             {}

// JoinedStr is an f-string; Values are Constant strings and FormattedValues.
type JoinedStr struct {
	Token  token.Token
	Values []Expr
}

func (e *JoinedStr) GetToken() token.Token { return e.Token }
func (e *JoinedStr) exprNode()             {}

// FormattedValue is one {expr!conv:spec} field. Conversion is -1, 's', 'r' or 'a'.
type FormattedValue struct {
	Token      token.Token
	Value      Expr
	Conversion int
	FormatSpec Expr
}

func (e *FormattedValue) GetToken() token.Token { return e.Token }
func (e *FormattedValue) exprNode()             {}

type Starred struct {
	Token token.Token
	Value Expr
}

func (e *Starred) GetToken() token.Token { return e.Token }
func (e *Starred) exprNode()             {}
