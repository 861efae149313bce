package parser

import (
	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

// parseBlock parses the suite after a colon. curToken is the colon; on
// return it is the DEDENT closing an indented suite or the NEWLINE ending an
// inline one.
func (p *Parser) parseBlock() []ast.Stmt {
	if !p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
		return p.parseSimpleStatements()
	}
	p.nextToken()
	if !p.peekTokenIs(token.INDENT) {
		p.errorAt(diagnostics.ErrP001, p.peekToken, "expected an indented block")
		return nil
	}
	p.nextToken()
	p.nextToken()

	var body []ast.Stmt
	for !p.curTokenIs(token.DEDENT) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		body = append(body, p.parseStatement()...)
		p.nextToken()
	}
	return body
}

// parseSuite expects a colon after the current token and parses the block.
func (p *Parser) parseSuite() ([]ast.Stmt, bool) {
	if !p.expectPeek(token.COLON) {
		p.skipToStatementBoundary()
		return nil, false
	}
	return p.parseBlock(), true
}

func (p *Parser) parseIfStatement() ast.Stmt {
	stmt := &ast.If{Token: p.curToken}
	p.nextToken()
	if stmt.Test = p.parseExpression(LOWEST); stmt.Test == nil {
		p.skipToStatementBoundary()
		return nil
	}
	var ok bool
	if stmt.Body, ok = p.parseSuite(); !ok {
		return nil
	}
	switch {
	case p.peekTokenIs(token.ELIF):
		p.nextToken()
		elif := p.parseIfStatement()
		if elif == nil {
			return nil
		}
		stmt.Orelse = []ast.Stmt{elif}
	case p.peekTokenIs(token.ELSE):
		p.nextToken()
		if stmt.Orelse, ok = p.parseSuite(); !ok {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Stmt {
	stmt := &ast.While{Token: p.curToken}
	p.nextToken()
	if stmt.Test = p.parseExpression(LOWEST); stmt.Test == nil {
		p.skipToStatementBoundary()
		return nil
	}
	var ok bool
	if stmt.Body, ok = p.parseSuite(); !ok {
		return nil
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if stmt.Orelse, ok = p.parseSuite(); !ok {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseForStatement() ast.Stmt {
	stmt := &ast.For{Token: p.curToken}
	p.nextToken()
	if stmt.Target = p.parseTargetList(); stmt.Target == nil || !p.expectPeek(token.IN) {
		p.skipToStatementBoundary()
		return nil
	}
	p.nextToken()
	if stmt.Iter = p.parseExpressionList(LOWEST); stmt.Iter == nil {
		p.skipToStatementBoundary()
		return nil
	}
	var ok bool
	if stmt.Body, ok = p.parseSuite(); !ok {
		return nil
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if stmt.Orelse, ok = p.parseSuite(); !ok {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseTryStatement() ast.Stmt {
	stmt := &ast.Try{Token: p.curToken}
	var ok bool
	if stmt.Body, ok = p.parseSuite(); !ok {
		return nil
	}

	for p.peekTokenIs(token.EXCEPT) {
		p.nextToken()
		handler := &ast.ExceptHandler{Token: p.curToken}
		if !p.peekTokenIs(token.COLON) {
			p.nextToken()
			if handler.Type = p.parseExpression(LOWEST); handler.Type == nil {
				p.skipToStatementBoundary()
				return nil
			}
			if p.peekTokenIs(token.AS) {
				p.nextToken()
				if !p.expectPeek(token.NAME) {
					p.skipToStatementBoundary()
					return nil
				}
				handler.Name = p.curToken.Lexeme
			}
		}
		if handler.Body, ok = p.parseSuite(); !ok {
			return nil
		}
		stmt.Handlers = append(stmt.Handlers, handler)
	}
	for i, h := range stmt.Handlers {
		if h.Type == nil && i != len(stmt.Handlers)-1 {
			p.errorAt(diagnostics.ErrP001, h.Token, "default 'except:' must be last")
			return nil
		}
	}

	if p.peekTokenIs(token.ELSE) {
		if len(stmt.Handlers) == 0 {
			p.errorAt(diagnostics.ErrP001, p.peekToken, "'else' requires at least one 'except' clause")
			return nil
		}
		p.nextToken()
		if stmt.Orelse, ok = p.parseSuite(); !ok {
			return nil
		}
	}
	if p.peekTokenIs(token.FINALLY) {
		p.nextToken()
		if stmt.Finalbody, ok = p.parseSuite(); !ok {
			return nil
		}
	}
	if len(stmt.Handlers) == 0 && stmt.Finalbody == nil {
		p.errorAt(diagnostics.ErrP001, stmt.Token, "expected 'except' or 'finally' block")
		return nil
	}
	return stmt
}

func (p *Parser) parseWithStatement() ast.Stmt {
	stmt := &ast.With{Token: p.curToken}
	for {
		p.nextToken()
		item := &ast.WithItem{}
		if item.ContextExpr = p.parseExpression(LOWEST); item.ContextExpr == nil {
			p.skipToStatementBoundary()
			return nil
		}
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			p.nextToken()
			item.OptionalVars = p.parseExpression(COMPARE)
			if item.OptionalVars == nil || !p.checkTarget(item.OptionalVars) {
				p.skipToStatementBoundary()
				return nil
			}
		}
		stmt.Items = append(stmt.Items, item)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	var ok bool
	if stmt.Body, ok = p.parseSuite(); !ok {
		return nil
	}
	return stmt
}
