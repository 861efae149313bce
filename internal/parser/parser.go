package parser

import (
	"fmt"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/pipeline"
	"github.com/funvibe/pyhost/internal/token"
)

// MaxRecursionDepth bounds expression nesting so malformed input cannot
// overflow the Go stack.
const MaxRecursionDepth = 500

const (
	_ int = iota
	LOWEST
	TERNARY // x if c else y
	OR      // or
	AND     // and
	NOT     // not x
	COMPARE // == != < > <= >= in not in is is not
	BITOR   // |
	BITXOR  // ^
	BITAND  // &
	SHIFT   // << >>
	SUM     // + -
	PRODUCT // * / // % @
	UNARY   // -x +x ~x
	POWER   // **
	CALL    // f(x) a[i] a.b
)

var precedences = map[token.TokenType]int{
	token.IF:          TERNARY,
	token.OR:          OR,
	token.AND:         AND,
	token.EQ:          COMPARE,
	token.NOT_EQ:      COMPARE,
	token.LT:          COMPARE,
	token.GT:          COMPARE,
	token.LTE:         COMPARE,
	token.GTE:         COMPARE,
	token.IN:          COMPARE,
	token.IS:          COMPARE,
	token.PIPE:        BITOR,
	token.CARET:       BITXOR,
	token.AMPERSAND:   BITAND,
	token.LSHIFT:      SHIFT,
	token.RSHIFT:      SHIFT,
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.ASTERISK:    PRODUCT,
	token.SLASH:       PRODUCT,
	token.DOUBLESLASH: PRODUCT,
	token.PERCENT:     PRODUCT,
	token.AT:          PRODUCT,
	token.POWER:       POWER,
	token.LPAREN:      CALL,
	token.LBRACKET:    CALL,
	token.DOT:         CALL,
}

var binaryOperators = map[token.TokenType]ast.Operator{
	token.PLUS:        ast.Add,
	token.MINUS:       ast.Sub,
	token.ASTERISK:    ast.Mult,
	token.AT:          ast.MatMult,
	token.SLASH:       ast.Div,
	token.DOUBLESLASH: ast.FloorDiv,
	token.PERCENT:     ast.Mod,
	token.POWER:       ast.Pow,
	token.LSHIFT:      ast.LShift,
	token.RSHIFT:      ast.RShift,
	token.PIPE:        ast.BitOr,
	token.CARET:       ast.BitXor,
	token.AMPERSAND:   ast.BitAnd,
}

var augOperators = map[token.TokenType]ast.Operator{
	token.PLUS_ASSIGN:        ast.Add,
	token.MINUS_ASSIGN:       ast.Sub,
	token.ASTERISK_ASSIGN:    ast.Mult,
	token.AT_ASSIGN:          ast.MatMult,
	token.SLASH_ASSIGN:       ast.Div,
	token.DOUBLESLASH_ASSIGN: ast.FloorDiv,
	token.PERCENT_ASSIGN:     ast.Mod,
	token.POWER_ASSIGN:       ast.Pow,
	token.LSHIFT_ASSIGN:      ast.LShift,
	token.RSHIFT_ASSIGN:      ast.RShift,
	token.PIPE_ASSIGN:        ast.BitOr,
	token.CARET_ASSIGN:       ast.BitXor,
	token.AMPERSAND_ASSIGN:   ast.BitAnd,
}

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

type Parser struct {
	stream pipeline.TokenStream
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	depth               int
	inRecursionRecovery bool

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(stream pipeline.TokenStream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{stream: stream, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.NAME:     p.parseName,
		token.INT:      p.parseNumber,
		token.FLOAT:    p.parseNumber,
		token.STRING:   p.parseStrings,
		token.FSTRING:  p.parseStrings,
		token.TRUE:     p.parseKeywordConstant,
		token.FALSE:    p.parseKeywordConstant,
		token.NONE:     p.parseKeywordConstant,
		token.ELLIPSIS: p.parseKeywordConstant,
		token.MINUS:    p.parseUnaryExpression,
		token.PLUS:     p.parseUnaryExpression,
		token.TILDE:    p.parseUnaryExpression,
		token.NOT:      p.parseNotExpression,
		token.LPAREN:   p.parseParenExpression,
		token.LBRACKET: p.parseListExpression,
		token.LBRACE:   p.parseBraceExpression,
		token.LAMBDA:   p.parseLambda,
		token.YIELD:    p.parseUnsupportedExpression,
		token.AWAIT:    p.parseUnsupportedExpression,
	}

	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.IF:       p.parseTernary,
		token.OR:       p.parseBoolOp,
		token.AND:      p.parseBoolOp,
		token.NOT:      p.parseComparison,
		token.EQ:       p.parseComparison,
		token.NOT_EQ:   p.parseComparison,
		token.LT:       p.parseComparison,
		token.GT:       p.parseComparison,
		token.LTE:      p.parseComparison,
		token.GTE:      p.parseComparison,
		token.IN:       p.parseComparison,
		token.IS:       p.parseComparison,
		token.POWER:    p.parsePowerExpression,
		token.LPAREN:   p.parseCallExpression,
		token.LBRACKET: p.parseSubscript,
		token.DOT:      p.parseAttribute,
	}
	for tt := range binaryOperators {
		if tt != token.POWER {
			p.infixParseFns[tt] = p.parseBinaryExpression
		}
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

// ParseProgram parses a whole module.
func (p *Parser) ParseProgram() *ast.Module {
	mod := &ast.Module{Token: p.curToken, File: p.ctx.FilePath}
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		mod.Body = append(mod.Body, p.parseStatement()...)
		p.nextToken()
	}
	return mod
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.stream.Next()
	if p.peekToken.Type == token.ILLEGAL {
		if err, ok := p.peekToken.Literal.(*diagnostics.DiagnosticError); ok {
			p.ctx.AddError(err)
		}
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(types ...token.TokenType) bool {
	for _, t := range types {
		if p.peekToken.Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if p.peekToken.Type == token.NOT {
		// Only `not in` continues an expression.
		if next := p.stream.Peek(1); len(next) > 0 && next[0].Type == token.IN {
			return COMPARE
		}
		return LOWEST
	}
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) errorAt(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	if tok.Type == token.ILLEGAL {
		// Already reported by the lexer.
		return
	}
	p.ctx.AddError(diagnostics.NewError(code, tok, fmt.Sprintf(format, args...)))
}

func (p *Parser) peekError(t token.TokenType) {
	p.errorAt(diagnostics.ErrP001, p.peekToken, "expected %s, got %s", describe(t), describeToken(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.errorAt(diagnostics.ErrP001, tok, "invalid syntax: unexpected %s", describeToken(tok))
}

// skipToStatementBoundary discards tokens up to the end of the current line.
func (p *Parser) skipToStatementBoundary() {
	for !p.curTokenIs(token.NEWLINE) && !p.curTokenIs(token.EOF) {
		p.nextToken()
	}
}

func describe(t token.TokenType) string {
	switch t {
	case token.NEWLINE:
		return "end of line"
	case token.INDENT:
		return "an indented block"
	case token.EOF:
		return "end of input"
	case token.NAME:
		return "a name"
	}
	return fmt.Sprintf("'%s'", t)
}

func describeToken(tok token.Token) string {
	switch tok.Type {
	case token.NAME, token.INT, token.FLOAT, token.STRING, token.FSTRING:
		return fmt.Sprintf("%s %s", tok.Type, tok.Lexeme)
	case token.DEDENT:
		return "unindent"
	case token.INDENT:
		return "indent"
	}
	return describe(tok.Type)
}

// canStartExpression reports whether t can begin an expression.
func (p *Parser) canStartExpression(t token.TokenType) bool {
	if t == token.ASTERISK {
		return true
	}
	_, ok := p.prefixParseFns[t]
	return ok
}
