package parser

import (
	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expr {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		if !p.inRecursionRecovery {
			p.errorAt(diagnostics.ErrP006, p.curToken, "expression too complex: recursion depth limit exceeded")
			p.inRecursionRecovery = true
		}
		// Skip the rest of the statement to avoid a cascade of errors.
		p.skipToStatementBoundary()
		p.inRecursionRecovery = false
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

// parseStarOrExpression parses an expression that may be a *starred item,
// as allowed in displays, call arguments and assignment targets.
func (p *Parser) parseStarOrExpression(precedence int) ast.Expr {
	if p.curTokenIs(token.ASTERISK) {
		tok := p.curToken
		p.nextToken()
		value := p.parseExpression(BITOR - 1)
		if value == nil {
			return nil
		}
		return &ast.Starred{Token: tok, Value: value}
	}
	return p.parseExpression(precedence)
}

// parseExpressionList parses `a, b, *c` and packs more than one element
// (or a trailing comma) into a Tuple. precedence bounds each element.
func (p *Parser) parseExpressionList(precedence int) ast.Expr {
	tok := p.curToken
	first := p.parseStarOrExpression(precedence)
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(token.COMMA) {
		return first
	}
	tuple := &ast.Tuple{Token: tok, Elts: []ast.Expr{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.canStartExpression(p.peekToken.Type) {
			break
		}
		p.nextToken()
		elt := p.parseStarOrExpression(precedence)
		if elt == nil {
			return nil
		}
		tuple.Elts = append(tuple.Elts, elt)
	}
	return tuple
}

// parseTargetList parses the target of a for loop or comprehension, which
// stops before the `in` keyword.
func (p *Parser) parseTargetList() ast.Expr {
	target := p.parseExpressionList(COMPARE)
	if target != nil && !p.checkTarget(target) {
		return nil
	}
	return target
}

func (p *Parser) parseUnaryExpression() ast.Expr {
	expr := &ast.UnaryOp{Token: p.curToken}
	switch p.curToken.Type {
	case token.MINUS:
		expr.Op = ast.USub
	case token.PLUS:
		expr.Op = ast.UAdd
	case token.TILDE:
		expr.Op = ast.Invert
	}
	p.nextToken()
	expr.Operand = p.parseExpression(UNARY)
	if expr.Operand == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseNotExpression() ast.Expr {
	expr := &ast.UnaryOp{Token: p.curToken, Op: ast.Not}
	p.nextToken()
	expr.Operand = p.parseExpression(NOT)
	if expr.Operand == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseBinaryExpression(left ast.Expr) ast.Expr {
	expr := &ast.BinOp{
		Token: p.curToken,
		Op:    binaryOperators[p.curToken.Type],
		Left:  left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

// parsePowerExpression is right-associative and binds tighter than a unary
// operator on its left but admits one on its right: -2**-1 == -(2**(-1)).
func (p *Parser) parsePowerExpression(left ast.Expr) ast.Expr {
	expr := &ast.BinOp{Token: p.curToken, Op: ast.Pow, Left: left}
	p.nextToken()
	expr.Right = p.parseExpression(UNARY)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseBoolOp(left ast.Expr) ast.Expr {
	expr := &ast.BoolOp{Token: p.curToken, Op: ast.And, Values: []ast.Expr{left}}
	opType := p.curToken.Type
	if opType == token.OR {
		expr.Op = ast.Or
	}
	precedence := p.curPrecedence()
	for {
		p.nextToken()
		right := p.parseExpression(precedence)
		if right == nil {
			return nil
		}
		expr.Values = append(expr.Values, right)
		if !p.peekTokenIs(opType) {
			break
		}
		p.nextToken()
	}
	return expr
}

// parseComparison builds one Compare node for a whole chain a < b <= c.
func (p *Parser) parseComparison(left ast.Expr) ast.Expr {
	expr := &ast.Compare{Token: p.curToken, Left: left}
	for {
		op, ok := p.comparisonOperator()
		if !ok {
			return nil
		}
		p.nextToken()
		right := p.parseExpression(COMPARE)
		if right == nil {
			return nil
		}
		expr.Ops = append(expr.Ops, op)
		expr.Comparators = append(expr.Comparators, right)
		if p.peekPrecedence() != COMPARE {
			return expr
		}
		p.nextToken()
	}
}

// comparisonOperator reads the operator at curToken, consuming the second
// word of `not in` and `is not`.
func (p *Parser) comparisonOperator() (ast.Operator, bool) {
	switch p.curToken.Type {
	case token.EQ:
		return ast.Eq, true
	case token.NOT_EQ:
		return ast.NotEq, true
	case token.LT:
		return ast.Lt, true
	case token.LTE:
		return ast.LtE, true
	case token.GT:
		return ast.Gt, true
	case token.GTE:
		return ast.GtE, true
	case token.IN:
		return ast.In, true
	case token.IS:
		if p.peekTokenIs(token.NOT) {
			p.nextToken()
			return ast.IsNot, true
		}
		return ast.Is, true
	case token.NOT:
		if p.expectPeek(token.IN) {
			return ast.NotIn, true
		}
	}
	return "", false
}

func (p *Parser) parseTernary(body ast.Expr) ast.Expr {
	expr := &ast.IfExp{Token: p.curToken, Body: body}
	p.nextToken()
	expr.Test = p.parseExpression(TERNARY)
	if expr.Test == nil || !p.expectPeek(token.ELSE) {
		return nil
	}
	p.nextToken()
	expr.Orelse = p.parseExpression(LOWEST)
	if expr.Orelse == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseUnsupportedExpression() ast.Expr {
	switch p.curToken.Type {
	case token.YIELD:
		p.errorAt(diagnostics.ErrP003, p.curToken, "generators are not supported")
	default:
		p.errorAt(diagnostics.ErrP003, p.curToken, "'%s' is not supported", p.curToken.Lexeme)
	}
	p.skipToStatementBoundary()
	return nil
}

// checkTarget reports an error unless e can be assigned to.
func (p *Parser) checkTarget(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
		return true
	case *ast.Starred:
		return p.checkTarget(t.Value)
	case *ast.Tuple:
		return p.checkTargets(t.Elts)
	case *ast.List:
		return p.checkTargets(t.Elts)
	case nil:
		return false
	}
	p.errorAt(diagnostics.ErrP002, e.GetToken(), "cannot assign to %s", describeExpr(e))
	return false
}

func (p *Parser) checkTargets(elts []ast.Expr) bool {
	starred := 0
	for _, elt := range elts {
		if _, ok := elt.(*ast.Starred); ok {
			starred++
		}
		if !p.checkTarget(elt) {
			return false
		}
	}
	if starred > 1 {
		p.errorAt(diagnostics.ErrP002, elts[0].GetToken(), "multiple starred expressions in assignment")
		return false
	}
	return true
}

func describeExpr(e ast.Expr) string {
	switch e.(type) {
	case *ast.Constant:
		return "literal"
	case *ast.Call:
		return "function call"
	case *ast.BinOp, *ast.UnaryOp:
		return "expression"
	case *ast.Compare:
		return "comparison"
	case *ast.Lambda:
		return "lambda"
	case *ast.JoinedStr:
		return "f-string expression"
	case *ast.Dict, *ast.Set:
		return "literal"
	case *ast.ListComp, *ast.SetComp, *ast.DictComp, *ast.GeneratorExp:
		return "comprehension"
	}
	return "expression"
}
