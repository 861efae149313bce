package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/utils"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[ast.Operator]int{
	ast.Or:       3,
	ast.And:      4,
	ast.Not:      5,
	ast.Eq:       6,
	ast.NotEq:    6,
	ast.Lt:       6,
	ast.LtE:      6,
	ast.Gt:       6,
	ast.GtE:      6,
	ast.Is:       6,
	ast.IsNot:    6,
	ast.In:       6,
	ast.NotIn:    6,
	ast.BitOr:    7,
	ast.BitXor:   8,
	ast.BitAnd:   9,
	ast.LShift:   10,
	ast.RShift:   10,
	ast.Add:      11,
	ast.Sub:      11,
	ast.Mult:     12,
	ast.MatMult:  12,
	ast.Div:      12,
	ast.FloorDiv: 12,
	ast.Mod:      12,
	ast.UAdd:     13,
	ast.USub:     13,
	ast.Invert:   13,
	ast.Pow:      14,
}

const (
	precLambda  = 1
	precTernary = 2
	precCompare = 6
	precUnary   = 13
	precAtom    = 16
)

func getPrecedence(op ast.Operator) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return precAtom
}

// Right-associative operators
var rightAssoc = map[ast.Operator]bool{
	ast.Pow: true,
}

type CodePrinter struct {
	buf    bytes.Buffer
	indent int
	column int // current column position
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Print renders a module back to source text.
func Print(m *ast.Module) string {
	p := NewCodePrinter()
	p.PrintModule(m)
	return p.String()
}

// PrintExpr renders a single expression.
func PrintExpr(e ast.Expr) string {
	p := NewCodePrinter()
	p.printExpr(e, 0, false)
	return p.String()
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
	p.column = p.indent * 4
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	// Track column position
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}

func (p *CodePrinter) PrintModule(m *ast.Module) {
	if m == nil {
		return
	}
	for i, stmt := range m.Body {
		if i > 0 && isDefinition(stmt) {
			p.writeln()
		}
		p.printStmt(stmt)
	}
}

func isDefinition(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.FunctionDef, *ast.ClassDef:
		return true
	}
	return false
}

func (p *CodePrinter) printBlock(body []ast.Stmt) {
	p.write(":")
	p.writeln()
	p.indent++
	if len(body) == 0 {
		p.writeIndent()
		p.write("pass")
		p.writeln()
	}
	for _, stmt := range body {
		p.printStmt(stmt)
	}
	p.indent--
}

func (p *CodePrinter) printStmt(stmt ast.Stmt) {
	p.writeIndent()
	switch s := stmt.(type) {
	case *ast.FunctionDef:
		p.printDecorators(s.DecoratorList)
		p.write("def " + s.Name + "(")
		p.printArguments(s.Args)
		p.write(")")
		p.printBlock(s.Body)
		return
	case *ast.ClassDef:
		p.printDecorators(s.DecoratorList)
		p.write("class " + s.Name)
		if len(s.Bases) > 0 {
			p.write("(")
			p.printExprList(s.Bases)
			p.write(")")
		}
		p.printBlock(s.Body)
		return
	case *ast.If:
		p.printIf(s, "if ")
		return
	case *ast.While:
		p.write("while ")
		p.printExpr(s.Test, 0, false)
		p.printBlock(s.Body)
		p.printElse(s.Orelse)
		return
	case *ast.For:
		p.write("for ")
		p.printTarget(s.Target)
		p.write(" in ")
		p.printTarget(s.Iter)
		p.printBlock(s.Body)
		p.printElse(s.Orelse)
		return
	case *ast.Try:
		p.write("try")
		p.printBlock(s.Body)
		for _, h := range s.Handlers {
			p.writeIndent()
			p.write("except")
			if h.Type != nil {
				p.write(" ")
				p.printExpr(h.Type, 0, false)
				if h.Name != "" {
					p.write(" as " + h.Name)
				}
			}
			p.printBlock(h.Body)
		}
		p.printElse(s.Orelse)
		if len(s.Finalbody) > 0 {
			p.writeIndent()
			p.write("finally")
			p.printBlock(s.Finalbody)
		}
		return
	case *ast.With:
		p.write("with ")
		for i, item := range s.Items {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(item.ContextExpr, 0, false)
			if item.OptionalVars != nil {
				p.write(" as ")
				p.printTarget(item.OptionalVars)
			}
		}
		p.printBlock(s.Body)
		return
	default:
		p.printSimpleStmt(stmt)
	}
	p.writeln()
}

func (p *CodePrinter) printDecorators(decorators []ast.Expr) {
	for _, d := range decorators {
		p.write("@")
		p.printExpr(d, 0, false)
		p.writeln()
		p.writeIndent()
	}
}

func (p *CodePrinter) printIf(s *ast.If, keyword string) {
	p.write(keyword)
	p.printExpr(s.Test, 0, false)
	p.printBlock(s.Body)
	if len(s.Orelse) == 1 {
		if elif, ok := s.Orelse[0].(*ast.If); ok {
			p.writeIndent()
			p.printIf(elif, "elif ")
			return
		}
	}
	p.printElse(s.Orelse)
}

func (p *CodePrinter) printElse(body []ast.Stmt) {
	if len(body) == 0 {
		return
	}
	p.writeIndent()
	p.write("else")
	p.printBlock(body)
}

func (p *CodePrinter) printSimpleStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		p.printTarget(s.Value)
	case *ast.Assign:
		for _, t := range s.Targets {
			p.printTarget(t)
			p.write(" = ")
		}
		p.printTarget(s.Value)
	case *ast.AugAssign:
		p.printTarget(s.Target)
		p.write(" " + s.Op.Symbol() + "= ")
		p.printTarget(s.Value)
	case *ast.AnnAssign:
		p.printTarget(s.Target)
		p.write(": ")
		p.printExpr(s.Annotation, 0, false)
		if s.Value != nil {
			p.write(" = ")
			p.printTarget(s.Value)
		}
	case *ast.Return:
		p.write("return")
		if s.Value != nil {
			p.write(" ")
			p.printTarget(s.Value)
		}
	case *ast.Delete:
		p.write("del ")
		p.printExprList(s.Targets)
	case *ast.Raise:
		p.write("raise")
		if s.Exc != nil {
			p.write(" ")
			p.printExpr(s.Exc, 0, false)
		}
		if s.Cause != nil {
			p.write(" from ")
			p.printExpr(s.Cause, 0, false)
		}
	case *ast.Assert:
		p.write("assert ")
		p.printExpr(s.Test, 0, false)
		if s.Msg != nil {
			p.write(", ")
			p.printExpr(s.Msg, 0, false)
		}
	case *ast.Import:
		p.write("import ")
		p.printAliases(s.Names)
	case *ast.ImportFrom:
		p.write("from " + s.Module + " import ")
		p.printAliases(s.Names)
	case *ast.Global:
		p.write("global " + strings.Join(s.Names, ", "))
	case *ast.Nonlocal:
		p.write("nonlocal " + strings.Join(s.Names, ", "))
	case *ast.Pass:
		p.write("pass")
	case *ast.Break:
		p.write("break")
	case *ast.Continue:
		p.write("continue")
	default:
		p.write("<???>")
	}
}

func (p *CodePrinter) printAliases(names []*ast.Alias) {
	for i, a := range names {
		if i > 0 {
			p.write(", ")
		}
		p.write(a.Name)
		if a.AsName != "" {
			p.write(" as " + a.AsName)
		}
	}
}

func (p *CodePrinter) printArguments(args *ast.Arguments) {
	if args == nil {
		return
	}
	first := true
	sep := func() {
		if !first {
			p.write(", ")
		}
		first = false
	}
	offset := len(args.Args) - len(args.Defaults)
	for i, a := range args.Args {
		sep()
		p.printArg(a)
		if i >= offset {
			p.write("=")
			p.printExpr(args.Defaults[i-offset], 0, false)
		}
	}
	if args.Vararg != nil {
		sep()
		p.write("*")
		p.printArg(args.Vararg)
	} else if len(args.KwOnlyArgs) > 0 {
		sep()
		p.write("*")
	}
	for i, a := range args.KwOnlyArgs {
		sep()
		p.printArg(a)
		if i < len(args.KwDefaults) && args.KwDefaults[i] != nil {
			p.write("=")
			p.printExpr(args.KwDefaults[i], 0, false)
		}
	}
	if args.Kwarg != nil {
		sep()
		p.write("**")
		p.printArg(args.Kwarg)
	}
}

func (p *CodePrinter) printArg(a *ast.Arg) {
	p.write(a.Name)
	if a.Annotation != nil {
		p.write(": ")
		p.printExpr(a.Annotation, 0, false)
	}
}

func (p *CodePrinter) printExprList(exprs []ast.Expr) {
	for i, e := range exprs {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(e, 0, false)
	}
}

// printTarget prints an expression in a position where a bare tuple is
// allowed (assignment sides, return values, for targets). One-element
// tuples keep their parentheses.
func (p *CodePrinter) printTarget(e ast.Expr) {
	if t, ok := e.(*ast.Tuple); ok && len(t.Elts) > 1 {
		p.printExprList(t.Elts)
		return
	}
	p.printExpr(e, 0, false)
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expr, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	prec := exprPrecedence(expr)
	needParens := prec < parentPrec
	// For same precedence, check associativity
	if prec == parentPrec && prec != precAtom {
		if op, ok := binaryOp(expr); ok {
			if isRight != rightAssoc[op] {
				needParens = true
			}
		}
		if prec == precCompare {
			needParens = true
		}
	}
	if needParens {
		p.write("(")
	}
	p.printBare(expr, prec)
	if needParens {
		p.write(")")
	}
}

func binaryOp(e ast.Expr) (ast.Operator, bool) {
	if b, ok := e.(*ast.BinOp); ok {
		return b.Op, true
	}
	return "", false
}

func exprPrecedence(expr ast.Expr) int {
	switch e := expr.(type) {
	case *ast.Lambda:
		return precLambda
	case *ast.IfExp:
		return precTernary
	case *ast.BoolOp:
		return getPrecedence(e.Op)
	case *ast.BinOp:
		return getPrecedence(e.Op)
	case *ast.UnaryOp:
		return getPrecedence(e.Op)
	case *ast.Compare:
		return precCompare
	case *ast.Tuple:
		if len(e.Elts) > 0 {
			// Bare tuples only appear parenthesized inside expressions.
			return precAtom
		}
	case *ast.Constant:
		if n, ok := e.Value.(int64); ok && n < 0 {
			return precUnary
		}
		if f, ok := e.Value.(float64); ok && f < 0 {
			return precUnary
		}
	}
	return precAtom
}

func (p *CodePrinter) printBare(expr ast.Expr, prec int) {
	switch e := expr.(type) {
	case *ast.Name:
		p.write(e.Id)
	case *ast.LocalSlot:
		p.write(e.Id)
	case *ast.Constant:
		p.write(FormatConstant(e))
	case *ast.BinOp:
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Op.Symbol() + " ")
		p.printExpr(e.Right, prec, true)
	case *ast.BoolOp:
		for i, v := range e.Values {
			if i > 0 {
				p.write(" " + e.Op.Symbol() + " ")
			}
			p.printExpr(v, prec+1, false)
		}
	case *ast.UnaryOp:
		p.write(e.Op.Symbol())
		if e.Op == ast.Not {
			p.write(" ")
		}
		p.printExpr(e.Operand, prec, false)
	case *ast.Compare:
		p.printExpr(e.Left, prec+1, false)
		for i, op := range e.Ops {
			p.write(" " + op.Symbol() + " ")
			p.printExpr(e.Comparators[i], prec+1, true)
		}
	case *ast.IfExp:
		p.printExpr(e.Body, prec+1, false)
		p.write(" if ")
		p.printExpr(e.Test, prec+1, false)
		p.write(" else ")
		p.printExpr(e.Orelse, prec, false)
	case *ast.Lambda:
		p.write("lambda")
		if len(e.Args.Names()) > 0 {
			p.write(" ")
			p.printArguments(e.Args)
		}
		p.write(": ")
		p.printExpr(e.Body, prec, false)
	case *ast.Call:
		p.printExpr(e.Func, precAtom, false)
		p.write("(")
		first := true
		for _, a := range e.Args {
			if !first {
				p.write(", ")
			}
			first = false
			p.printExpr(a, 0, false)
		}
		for _, k := range e.Keywords {
			if !first {
				p.write(", ")
			}
			first = false
			if k.Arg == "" {
				p.write("**")
				p.printExpr(k.Value, precUnary, false)
				continue
			}
			p.write(k.Arg + "=")
			p.printExpr(k.Value, 0, false)
		}
		p.write(")")
	case *ast.Attribute:
		if c, ok := e.Value.(*ast.Constant); ok && c.TypeName == "int" {
			p.write("(")
			p.printExpr(e.Value, 0, false)
			p.write(")")
		} else {
			p.printExpr(e.Value, precAtom, false)
		}
		p.write("." + e.Attr)
	case *ast.Subscript:
		p.printExpr(e.Value, precAtom, false)
		p.write("[")
		p.printTarget(e.Slice)
		p.write("]")
	case *ast.Slice:
		if e.Lower != nil {
			p.printExpr(e.Lower, 0, false)
		}
		p.write(":")
		if e.Upper != nil {
			p.printExpr(e.Upper, 0, false)
		}
		if e.Step != nil {
			p.write(":")
			p.printExpr(e.Step, 0, false)
		}
	case *ast.Starred:
		p.write("*")
		p.printExpr(e.Value, precUnary, false)
	case *ast.List:
		p.write("[")
		p.printExprList(e.Elts)
		p.write("]")
	case *ast.Tuple:
		p.write("(")
		p.printExprList(e.Elts)
		if len(e.Elts) == 1 {
			p.write(",")
		}
		p.write(")")
	case *ast.Set:
		p.write("{")
		p.printExprList(e.Elts)
		p.write("}")
	case *ast.Dict:
		p.write("{")
		for i := range e.Values {
			if i > 0 {
				p.write(", ")
			}
			if e.Keys[i] == nil {
				p.write("**")
				p.printExpr(e.Values[i], precUnary, false)
				continue
			}
			p.printExpr(e.Keys[i], 0, false)
			p.write(": ")
			p.printExpr(e.Values[i], 0, false)
		}
		p.write("}")
	case *ast.ListComp:
		p.write("[")
		p.printExpr(e.Elt, 0, false)
		p.printGenerators(e.Generators)
		p.write("]")
	case *ast.SetComp:
		p.write("{")
		p.printExpr(e.Elt, 0, false)
		p.printGenerators(e.Generators)
		p.write("}")
	case *ast.GeneratorExp:
		p.write("(")
		p.printExpr(e.Elt, 0, false)
		p.printGenerators(e.Generators)
		p.write(")")
	case *ast.DictComp:
		p.write("{")
		p.printExpr(e.Key, 0, false)
		p.write(": ")
		p.printExpr(e.Value, 0, false)
		p.printGenerators(e.Generators)
		p.write("}")
	case *ast.JoinedStr:
		p.write("f" + utils.QuoteString(fstringBody(e.Values)))
	case *ast.FormattedValue:
		p.write("f" + utils.QuoteString(fstringBody([]ast.Expr{e})))
	default:
		p.write("<???>")
	}
}

func (p *CodePrinter) printGenerators(gens []*ast.Comprehension) {
	for _, g := range gens {
		p.write(" for ")
		p.printTarget(g.Target)
		p.write(" in ")
		p.printExpr(g.Iter, precTernary+1, false)
		for _, cond := range g.Ifs {
			p.write(" if ")
			p.printExpr(cond, precTernary+1, false)
		}
	}
}

// fstringBody renders the inside of an f-string. Literal braces are doubled;
// quoting is applied by the caller.
func fstringBody(values []ast.Expr) string {
	var b strings.Builder
	for _, v := range values {
		switch v := v.(type) {
		case *ast.Constant:
			s, _ := v.Value.(string)
			s = strings.ReplaceAll(s, "{", "{{")
			b.WriteString(strings.ReplaceAll(s, "}", "}}"))
		case *ast.FormattedValue:
			b.WriteString("{")
			inner := PrintExpr(v.Value)
			if strings.HasPrefix(inner, "{") {
				b.WriteString(" ")
			}
			b.WriteString(inner)
			if v.Conversion > 0 {
				b.WriteString("!" + string(rune(v.Conversion)))
			}
			if v.FormatSpec != nil {
				b.WriteString(":")
				if spec, ok := v.FormatSpec.(*ast.JoinedStr); ok {
					b.WriteString(fstringBody(spec.Values))
				}
			}
			b.WriteString("}")
		}
	}
	return b.String()
}

// FormatConstant renders a literal the way it would be written in source.
func FormatConstant(c *ast.Constant) string {
	switch v := c.Value.(type) {
	case nil:
		if c.TypeName == "ellipsis" {
			return "..."
		}
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return utils.FormatFloat(v, 64)
	case string:
		return utils.QuoteString(v)
	}
	return "<???>"
}
