package parser

import (
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

// parseStatement parses one statement line or compound statement. On return
// curToken is the NEWLINE ending a simple statement line, or the last token
// (DEDENT or NEWLINE) of a compound statement's final block.
func (p *Parser) parseStatement() []ast.Stmt {
	switch p.curToken.Type {
	case token.DEF:
		return single(p.parseFunctionDef(nil))
	case token.CLASS:
		return single(p.parseClassDef(nil))
	case token.AT:
		return single(p.parseDecorated())
	case token.IF:
		return single(p.parseIfStatement())
	case token.WHILE:
		return single(p.parseWhileStatement())
	case token.FOR:
		return single(p.parseForStatement())
	case token.TRY:
		return single(p.parseTryStatement())
	case token.WITH:
		return single(p.parseWithStatement())
	case token.ASYNC:
		p.errorAt(diagnostics.ErrP003, p.curToken, "async is not supported")
		p.skipToStatementBoundary()
		return nil
	case token.INDENT:
		p.errorAt(diagnostics.ErrP001, p.curToken, "unexpected indent")
		p.skipToStatementBoundary()
		return nil
	}
	return p.parseSimpleStatements()
}

func single(s ast.Stmt) []ast.Stmt {
	if s == nil {
		return nil
	}
	return []ast.Stmt{s}
}

// parseSimpleStatements parses `stmt; stmt; ...` up to and including NEWLINE.
func (p *Parser) parseSimpleStatements() []ast.Stmt {
	var stmts []ast.Stmt
	for {
		s := p.parseSmallStatement()
		if s == nil {
			p.skipToStatementBoundary()
			return stmts
		}
		stmts = append(stmts, s)
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
			if p.peekTokenIs(token.NEWLINE, token.EOF) {
				p.nextToken()
				return stmts
			}
			p.nextToken()
			continue
		}
		if !p.expectPeek(token.NEWLINE) {
			p.skipToStatementBoundary()
		}
		return stmts
	}
}

func (p *Parser) parseSmallStatement() ast.Stmt {
	tok := p.curToken
	switch tok.Type {
	case token.PASS:
		return &ast.Pass{Token: tok}
	case token.BREAK:
		return &ast.Break{Token: tok}
	case token.CONTINUE:
		return &ast.Continue{Token: tok}
	case token.RETURN:
		return p.parseReturnStatement()
	case token.RAISE:
		return p.parseRaiseStatement()
	case token.DEL:
		return p.parseDeleteStatement()
	case token.GLOBAL, token.NONLOCAL:
		return p.parseScopeDeclaration()
	case token.ASSERT:
		return p.parseAssertStatement()
	case token.IMPORT:
		return p.parseImportStatement()
	case token.FROM:
		return p.parseImportFromStatement()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) atStatementEnd() bool {
	return p.peekTokenIs(token.NEWLINE, token.SEMICOLON, token.EOF)
}

func (p *Parser) parseReturnStatement() ast.Stmt {
	stmt := &ast.Return{Token: p.curToken}
	if p.atStatementEnd() {
		return stmt
	}
	p.nextToken()
	if stmt.Value = p.parseExpressionList(LOWEST); stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseRaiseStatement() ast.Stmt {
	stmt := &ast.Raise{Token: p.curToken}
	if p.atStatementEnd() {
		return stmt
	}
	p.nextToken()
	if stmt.Exc = p.parseExpression(LOWEST); stmt.Exc == nil {
		return nil
	}
	if p.peekTokenIs(token.FROM) {
		p.nextToken()
		p.nextToken()
		if stmt.Cause = p.parseExpression(LOWEST); stmt.Cause == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseDeleteStatement() ast.Stmt {
	stmt := &ast.Delete{Token: p.curToken}
	p.nextToken()
	targets := p.parseExpressionList(LOWEST)
	if targets == nil {
		return nil
	}
	if tuple, ok := targets.(*ast.Tuple); ok {
		stmt.Targets = tuple.Elts
	} else {
		stmt.Targets = []ast.Expr{targets}
	}
	for _, t := range stmt.Targets {
		switch t.(type) {
		case *ast.Name, *ast.Attribute, *ast.Subscript, *ast.Tuple, *ast.List:
		default:
			p.errorAt(diagnostics.ErrP002, t.GetToken(), "cannot delete %s", describeExpr(t))
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseScopeDeclaration() ast.Stmt {
	tok := p.curToken
	var names []string
	for {
		if !p.expectPeek(token.NAME) {
			return nil
		}
		names = append(names, p.curToken.Lexeme)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if tok.Type == token.GLOBAL {
		return &ast.Global{Token: tok, Names: names}
	}
	return &ast.Nonlocal{Token: tok, Names: names}
}

func (p *Parser) parseAssertStatement() ast.Stmt {
	stmt := &ast.Assert{Token: p.curToken}
	p.nextToken()
	if stmt.Test = p.parseExpression(LOWEST); stmt.Test == nil {
		return nil
	}
	if p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		if stmt.Msg = p.parseExpression(LOWEST); stmt.Msg == nil {
			return nil
		}
	}
	return stmt
}

// parseDottedName reads a.b.c starting at the token after curToken.
func (p *Parser) parseDottedName() (string, bool) {
	if !p.expectPeek(token.NAME) {
		return "", false
	}
	parts := []string{p.curToken.Lexeme}
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		if !p.expectPeek(token.NAME) {
			return "", false
		}
		parts = append(parts, p.curToken.Lexeme)
	}
	return strings.Join(parts, "."), true
}

func (p *Parser) parseImportStatement() ast.Stmt {
	stmt := &ast.Import{Token: p.curToken}
	for {
		tok := p.peekToken
		name, ok := p.parseDottedName()
		if !ok {
			return nil
		}
		alias := &ast.Alias{Token: tok, Name: name}
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek(token.NAME) {
				return nil
			}
			alias.AsName = p.curToken.Lexeme
		}
		stmt.Names = append(stmt.Names, alias)
		if !p.peekTokenIs(token.COMMA) {
			return stmt
		}
		p.nextToken()
	}
}

func (p *Parser) parseImportFromStatement() ast.Stmt {
	stmt := &ast.ImportFrom{Token: p.curToken}
	if p.peekTokenIs(token.DOT, token.ELLIPSIS) {
		p.errorAt(diagnostics.ErrP003, p.peekToken, "relative imports are not supported")
		return nil
	}
	module, ok := p.parseDottedName()
	if !ok || !p.expectPeek(token.IMPORT) {
		return nil
	}
	stmt.Module = module

	if p.peekTokenIs(token.ASTERISK) {
		p.nextToken()
		stmt.Names = []*ast.Alias{{Token: p.curToken, Name: "*"}}
		return stmt
	}
	parens := p.peekTokenIs(token.LPAREN)
	if parens {
		p.nextToken()
	}
	for {
		if !p.expectPeek(token.NAME) {
			return nil
		}
		alias := &ast.Alias{Token: p.curToken, Name: p.curToken.Lexeme}
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek(token.NAME) {
				return nil
			}
			alias.AsName = p.curToken.Lexeme
		}
		stmt.Names = append(stmt.Names, alias)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if parens && p.peekTokenIs(token.RPAREN) {
			break
		}
	}
	if parens && !p.expectPeek(token.RPAREN) {
		return nil
	}
	return stmt
}

// parseExpressionStatement covers expression statements and every form of
// assignment.
func (p *Parser) parseExpressionStatement() ast.Stmt {
	tok := p.curToken
	first := p.parseExpressionList(LOWEST)
	if first == nil {
		return nil
	}

	switch {
	case p.peekTokenIs(token.ASSIGN):
		stmt := &ast.Assign{Token: tok, Targets: []ast.Expr{first}}
		for p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			next := p.parseExpressionList(LOWEST)
			if next == nil {
				return nil
			}
			if p.peekTokenIs(token.ASSIGN) {
				stmt.Targets = append(stmt.Targets, next)
			} else {
				stmt.Value = next
			}
		}
		for _, target := range stmt.Targets {
			if !p.checkTarget(target) {
				return nil
			}
		}
		return stmt

	case token.IsAugAssign(p.peekToken.Type):
		switch first.(type) {
		case *ast.Name, *ast.Attribute, *ast.Subscript:
		default:
			p.errorAt(diagnostics.ErrP002, tok, "'%s' is an illegal expression for augmented assignment", describeExpr(first))
			return nil
		}
		p.nextToken()
		stmt := &ast.AugAssign{Token: p.curToken, Target: first, Op: augOperators[p.curToken.Type]}
		p.nextToken()
		if stmt.Value = p.parseExpressionList(LOWEST); stmt.Value == nil {
			return nil
		}
		return stmt

	case p.peekTokenIs(token.COLON):
		switch first.(type) {
		case *ast.Name, *ast.Attribute, *ast.Subscript:
		default:
			p.errorAt(diagnostics.ErrP002, tok, "only single target can be annotated")
			return nil
		}
		p.nextToken()
		p.nextToken()
		stmt := &ast.AnnAssign{Token: tok, Target: first}
		if stmt.Annotation = p.parseExpression(LOWEST); stmt.Annotation == nil {
			return nil
		}
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			if stmt.Value = p.parseExpressionList(LOWEST); stmt.Value == nil {
				return nil
			}
		}
		return stmt

	case p.peekTokenIs(token.WALRUS):
		p.errorAt(diagnostics.ErrP003, p.peekToken, "assignment expressions are not supported")
		return nil
	}

	if starred, ok := first.(*ast.Starred); ok {
		p.errorAt(diagnostics.ErrP003, starred.Token, "cannot use starred expression here")
		return nil
	}
	return &ast.ExprStmt{Token: tok, Value: first}
}
