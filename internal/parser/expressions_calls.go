package parser

import (
	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

func (p *Parser) parseCallExpression(function ast.Expr) ast.Expr {
	call := &ast.Call{Token: p.curToken, Func: function}
	args, keywords, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	call.Args, call.Keywords = args, keywords
	return call
}

// parseCallArguments parses an argument list; curToken is the opening
// parenthesis and the closing one is consumed.
func (p *Parser) parseCallArguments() ([]ast.Expr, []*ast.Keyword, bool) {
	var args []ast.Expr
	var keywords []*ast.Keyword
	for !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		switch {
		case p.curTokenIs(token.POWER):
			tok := p.curToken
			p.nextToken()
			value := p.parseExpression(LOWEST)
			if value == nil {
				return nil, nil, false
			}
			keywords = append(keywords, &ast.Keyword{Token: tok, Value: value})
		case p.curTokenIs(token.NAME) && p.peekTokenIs(token.ASSIGN):
			tok := p.curToken
			p.nextToken()
			p.nextToken()
			value := p.parseExpression(LOWEST)
			if value == nil {
				return nil, nil, false
			}
			keywords = append(keywords, &ast.Keyword{Token: tok, Arg: tok.Lexeme, Value: value})
		default:
			tok := p.curToken
			arg := p.parseStarOrExpression(LOWEST)
			if arg == nil {
				return nil, nil, false
			}
			if p.peekTokenIs(token.FOR) {
				// f(x for x in xs)
				p.nextToken()
				gens := p.parseComprehensionClauses()
				if gens == nil {
					return nil, nil, false
				}
				arg = &ast.GeneratorExp{Token: tok, Elt: arg, Generators: gens}
			}
			if len(keywords) > 0 {
				if _, starred := arg.(*ast.Starred); !starred {
					p.errorAt(diagnostics.ErrP001, tok, "positional argument follows keyword argument")
					return nil, nil, false
				}
			}
			args = append(args, arg)
		}
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil, nil, false
	}
	return args, keywords, true
}

func (p *Parser) parseAttribute(value ast.Expr) ast.Expr {
	tok := p.curToken
	if !p.expectPeek(token.NAME) {
		return nil
	}
	return &ast.Attribute{Token: tok, Value: value, Attr: p.curToken.Lexeme}
}

// parseSubscript parses a[i], a[i:j:k] and a[i, j:k].
func (p *Parser) parseSubscript(value ast.Expr) ast.Expr {
	sub := &ast.Subscript{Token: p.curToken, Value: value}
	tok := p.curToken
	p.nextToken()
	first := p.parseSliceItem()
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(token.COMMA) {
		sub.Slice = first
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return sub
	}
	tuple := &ast.Tuple{Token: tok, Elts: []ast.Expr{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACKET) {
			break
		}
		p.nextToken()
		item := p.parseSliceItem()
		if item == nil {
			return nil
		}
		tuple.Elts = append(tuple.Elts, item)
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	sub.Slice = tuple
	return sub
}

func (p *Parser) parseSliceItem() ast.Expr {
	tok := p.curToken
	var lower ast.Expr
	if !p.curTokenIs(token.COLON) {
		lower = p.parseExpression(LOWEST)
		if lower == nil {
			return nil
		}
		if !p.peekTokenIs(token.COLON) {
			return lower
		}
		p.nextToken()
	}
	slice := &ast.Slice{Token: tok, Lower: lower}
	if !p.peekTokenIs(token.COLON, token.RBRACKET, token.COMMA) {
		p.nextToken()
		if slice.Upper = p.parseExpression(LOWEST); slice.Upper == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.peekTokenIs(token.RBRACKET, token.COMMA) {
			p.nextToken()
			if slice.Step = p.parseExpression(LOWEST); slice.Step == nil {
				return nil
			}
		}
	}
	return slice
}

func (p *Parser) parseLambda() ast.Expr {
	lambda := &ast.Lambda{Token: p.curToken}
	lambda.Args = p.parseParameters(token.COLON, false)
	if lambda.Args == nil {
		return nil
	}
	p.nextToken()
	lambda.Body = p.parseExpression(LOWEST)
	if lambda.Body == nil {
		return nil
	}
	return lambda
}
