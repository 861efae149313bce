package parser

import (
	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

// parseDecorated parses one or more `@expr` lines followed by a def or class.
func (p *Parser) parseDecorated() ast.Stmt {
	var decorators []ast.Expr
	for p.curTokenIs(token.AT) {
		p.nextToken()
		dec := p.parseExpression(LOWEST)
		if dec == nil || !p.expectPeek(token.NEWLINE) {
			p.skipToStatementBoundary()
			return nil
		}
		decorators = append(decorators, dec)
		p.nextToken()
	}
	switch p.curToken.Type {
	case token.DEF:
		return p.parseFunctionDef(decorators)
	case token.CLASS:
		return p.parseClassDef(decorators)
	}
	p.errorAt(diagnostics.ErrP001, p.curToken, "expected def or class after decorator, got %s", describeToken(p.curToken))
	p.skipToStatementBoundary()
	return nil
}

func (p *Parser) parseFunctionDef(decorators []ast.Expr) ast.Stmt {
	fn := &ast.FunctionDef{Token: p.curToken, DecoratorList: decorators}
	if !p.expectPeek(token.NAME) {
		p.skipToStatementBoundary()
		return nil
	}
	fn.Name = p.curToken.Lexeme
	if !p.expectPeek(token.LPAREN) {
		p.skipToStatementBoundary()
		return nil
	}
	if fn.Args = p.parseParameters(token.RPAREN, true); fn.Args == nil {
		p.skipToStatementBoundary()
		return nil
	}
	if p.peekTokenIs(token.ARROW) {
		// Return annotations are parsed and dropped.
		p.nextToken()
		p.nextToken()
		if p.parseExpression(LOWEST) == nil {
			p.skipToStatementBoundary()
			return nil
		}
	}
	var ok bool
	if fn.Body, ok = p.parseSuite(); !ok {
		return nil
	}
	return fn
}

func (p *Parser) parseClassDef(decorators []ast.Expr) ast.Stmt {
	cls := &ast.ClassDef{Token: p.curToken, DecoratorList: decorators}
	if !p.expectPeek(token.NAME) {
		p.skipToStatementBoundary()
		return nil
	}
	cls.Name = p.curToken.Lexeme
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		bases, keywords, ok := p.parseCallArguments()
		if !ok {
			p.skipToStatementBoundary()
			return nil
		}
		if len(keywords) > 0 {
			p.errorAt(diagnostics.ErrP003, keywords[0].Token, "class keywords are not supported")
			p.skipToStatementBoundary()
			return nil
		}
		if len(bases) > 1 {
			p.errorAt(diagnostics.ErrP003, bases[1].GetToken(), "multiple inheritance is not supported")
			p.skipToStatementBoundary()
			return nil
		}
		cls.Bases = bases
	}
	var ok bool
	if cls.Body, ok = p.parseSuite(); !ok {
		return nil
	}
	return cls
}

// parseParameters parses a parameter list up to closing, which is consumed.
// curToken is the token before the first parameter.
func (p *Parser) parseParameters(closing token.TokenType, annotations bool) *ast.Arguments {
	args := &ast.Arguments{}
	seenStar, seenDefault := false, false
	for !p.peekTokenIs(closing) {
		p.nextToken()
		switch p.curToken.Type {
		case token.SLASH:
			// Positional-only marker; every parameter binds by position anyway.
		case token.POWER:
			if !p.expectPeek(token.NAME) {
				return nil
			}
			args.Kwarg = p.parseArg(annotations)
		case token.ASTERISK:
			if seenStar {
				p.errorAt(diagnostics.ErrP001, p.curToken, "* argument may appear only once")
				return nil
			}
			seenStar = true
			if p.peekTokenIs(token.NAME) {
				p.nextToken()
				args.Vararg = p.parseArg(annotations)
			}
		case token.NAME:
			if args.Kwarg != nil {
				p.errorAt(diagnostics.ErrP001, p.curToken, "parameter after **kwargs")
				return nil
			}
			arg := p.parseArg(annotations)
			var def ast.Expr
			if p.peekTokenIs(token.ASSIGN) {
				p.nextToken()
				p.nextToken()
				if def = p.parseExpression(LOWEST); def == nil {
					return nil
				}
			}
			if seenStar {
				args.KwOnlyArgs = append(args.KwOnlyArgs, arg)
				args.KwDefaults = append(args.KwDefaults, def)
				break
			}
			args.Args = append(args.Args, arg)
			if def != nil {
				args.Defaults = append(args.Defaults, def)
				seenDefault = true
			} else if seenDefault {
				p.errorAt(diagnostics.ErrP001, arg.Token, "non-default argument follows default argument")
				return nil
			}
		default:
			p.errorAt(diagnostics.ErrP001, p.curToken, "invalid syntax in parameter list: unexpected %s", describeToken(p.curToken))
			return nil
		}
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(closing) {
		return nil
	}
	if err := duplicateParameter(args); err != "" {
		p.errorAt(diagnostics.ErrP001, p.curToken, "duplicate argument '%s' in function definition", err)
		return nil
	}
	return args
}

func (p *Parser) parseArg(annotations bool) *ast.Arg {
	arg := &ast.Arg{Token: p.curToken, Name: p.curToken.Lexeme}
	if annotations && p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		arg.Annotation = p.parseExpression(LOWEST)
	}
	return arg
}

func duplicateParameter(args *ast.Arguments) string {
	seen := map[string]bool{}
	for _, name := range args.Names() {
		if seen[name] {
			return name
		}
		seen[name] = true
	}
	return ""
}
