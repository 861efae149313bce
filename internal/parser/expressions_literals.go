package parser

import (
	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

func (p *Parser) parseName() ast.Expr {
	return &ast.Name{Token: p.curToken, Id: p.curToken.Lexeme}
}

func (p *Parser) parseNumber() ast.Expr {
	switch v := p.curToken.Literal.(type) {
	case int64:
		return &ast.Constant{Token: p.curToken, Value: v, TypeName: "int"}
	case float64:
		return &ast.Constant{Token: p.curToken, Value: v, TypeName: "float"}
	}
	p.errorAt(diagnostics.ErrP005, p.curToken, "malformed number %s", p.curToken.Lexeme)
	return nil
}

func (p *Parser) parseKeywordConstant() ast.Expr {
	c := &ast.Constant{Token: p.curToken}
	switch p.curToken.Type {
	case token.TRUE:
		c.Value, c.TypeName = true, "bool"
	case token.FALSE:
		c.Value, c.TypeName = false, "bool"
	case token.NONE:
		c.TypeName = "NoneType"
	case token.ELLIPSIS:
		c.TypeName = "ellipsis"
	}
	return c
}

// parseStrings joins adjacent string literals. Any f-string in the run turns
// the whole run into a JoinedStr.
func (p *Parser) parseStrings() ast.Expr {
	tok := p.curToken
	var parts []ast.Expr
	isF := false
	for {
		switch p.curToken.Type {
		case token.STRING:
			s, _ := p.curToken.Literal.(string)
			parts = appendLiteral(parts, p.curToken, s)
		case token.FSTRING:
			isF = true
			fs, _ := p.curToken.Literal.(token.FString)
			values := p.parseFString(fs, p.curToken)
			if values == nil && fs.Body != "" {
				return nil
			}
			for _, v := range values {
				if c, ok := v.(*ast.Constant); ok {
					parts = appendLiteral(parts, c.Token, c.Value.(string))
				} else {
					parts = append(parts, v)
				}
			}
		}
		if !p.peekTokenIs(token.STRING, token.FSTRING) {
			break
		}
		p.nextToken()
	}

	if !isF {
		s := ""
		if len(parts) > 0 {
			s = parts[0].(*ast.Constant).Value.(string)
		}
		return &ast.Constant{Token: tok, Value: s, TypeName: "str"}
	}
	return &ast.JoinedStr{Token: tok, Values: parts}
}

// appendLiteral appends s, merging it into a preceding string constant.
func appendLiteral(parts []ast.Expr, tok token.Token, s string) []ast.Expr {
	if n := len(parts); n > 0 {
		if c, ok := parts[n-1].(*ast.Constant); ok {
			c.Value = c.Value.(string) + s
			return parts
		}
	}
	if s == "" && len(parts) > 0 {
		return parts
	}
	return append(parts, &ast.Constant{Token: tok, Value: s, TypeName: "str"})
}

// parseParenExpression handles (), (x), (x,), (x, y) and (x for x in y).
func (p *Parser) parseParenExpression() ast.Expr {
	tok := p.curToken
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.Tuple{Token: tok}
	}
	p.nextToken()
	first := p.parseStarOrExpression(LOWEST)
	if first == nil {
		return nil
	}

	if p.peekTokenIs(token.FOR) {
		p.nextToken()
		gens := p.parseComprehensionClauses()
		if gens == nil || !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.GeneratorExp{Token: tok, Elt: first, Generators: gens}
	}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		if _, ok := first.(*ast.Starred); ok {
			p.errorAt(diagnostics.ErrP003, tok, "cannot use starred expression here")
			return nil
		}
		return first
	}

	elts := []ast.Expr{first}
	if !p.parseMoreElements(&elts, token.RPAREN) {
		return nil
	}
	return &ast.Tuple{Token: tok, Elts: elts}
}

// parseMoreElements continues a comma separated display after its first
// element, consuming the closing delimiter.
func (p *Parser) parseMoreElements(elts *[]ast.Expr, closing token.TokenType) bool {
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(closing) {
			break
		}
		p.nextToken()
		elt := p.parseStarOrExpression(LOWEST)
		if elt == nil {
			return false
		}
		*elts = append(*elts, elt)
	}
	return p.expectPeek(closing)
}

func (p *Parser) parseListExpression() ast.Expr {
	tok := p.curToken
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return &ast.List{Token: tok}
	}
	p.nextToken()
	first := p.parseStarOrExpression(LOWEST)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.FOR) {
		p.nextToken()
		gens := p.parseComprehensionClauses()
		if gens == nil || !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return &ast.ListComp{Token: tok, Elt: first, Generators: gens}
	}
	elts := []ast.Expr{first}
	if !p.parseMoreElements(&elts, token.RBRACKET) {
		return nil
	}
	return &ast.List{Token: tok, Elts: elts}
}

// parseBraceExpression handles dict and set displays and their comprehensions.
func (p *Parser) parseBraceExpression() ast.Expr {
	tok := p.curToken
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.Dict{Token: tok}
	}
	p.nextToken()

	if p.curTokenIs(token.POWER) {
		return p.parseDictDisplay(tok, nil, nil)
	}

	first := p.parseStarOrExpression(LOWEST)
	if first == nil {
		return nil
	}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		if p.peekTokenIs(token.FOR) {
			p.nextToken()
			gens := p.parseComprehensionClauses()
			if gens == nil || !p.expectPeek(token.RBRACE) {
				return nil
			}
			return &ast.DictComp{Token: tok, Key: first, Value: value, Generators: gens}
		}
		return p.parseDictDisplay(tok, first, value)
	}

	if p.peekTokenIs(token.FOR) {
		p.nextToken()
		gens := p.parseComprehensionClauses()
		if gens == nil || !p.expectPeek(token.RBRACE) {
			return nil
		}
		return &ast.SetComp{Token: tok, Elt: first, Generators: gens}
	}

	elts := []ast.Expr{first}
	if !p.parseMoreElements(&elts, token.RBRACE) {
		return nil
	}
	return &ast.Set{Token: tok, Elts: elts}
}

// parseDictDisplay parses the remaining entries of a dict display. When key
// is nil the current token is the ** of the first entry.
func (p *Parser) parseDictDisplay(tok token.Token, key, value ast.Expr) ast.Expr {
	dict := &ast.Dict{Token: tok}
	if key != nil {
		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, value)
	} else if !p.parseDictEntry(dict) {
		return nil
	}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACE) {
			break
		}
		p.nextToken()
		if !p.parseDictEntry(dict) {
			return nil
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return dict
}

func (p *Parser) parseDictEntry(dict *ast.Dict) bool {
	if p.curTokenIs(token.POWER) {
		p.nextToken()
		v := p.parseExpression(BITOR - 1)
		if v == nil {
			return false
		}
		dict.Keys = append(dict.Keys, nil)
		dict.Values = append(dict.Values, v)
		return true
	}
	k := p.parseExpression(LOWEST)
	if k == nil || !p.expectPeek(token.COLON) {
		return false
	}
	p.nextToken()
	v := p.parseExpression(LOWEST)
	if v == nil {
		return false
	}
	dict.Keys = append(dict.Keys, k)
	dict.Values = append(dict.Values, v)
	return true
}

// parseComprehensionClauses parses `for t in it [if c]...` clauses; curToken is FOR.
func (p *Parser) parseComprehensionClauses() []*ast.Comprehension {
	var gens []*ast.Comprehension
	for {
		p.nextToken()
		target := p.parseTargetList()
		if target == nil || !p.expectPeek(token.IN) {
			return nil
		}
		p.nextToken()
		iter := p.parseExpression(TERNARY)
		if iter == nil {
			return nil
		}
		gen := &ast.Comprehension{Target: target, Iter: iter}
		for p.peekTokenIs(token.IF) {
			p.nextToken()
			p.nextToken()
			cond := p.parseExpression(TERNARY)
			if cond == nil {
				return nil
			}
			gen.Ifs = append(gen.Ifs, cond)
		}
		gens = append(gens, gen)
		if !p.peekTokenIs(token.FOR) {
			return gens
		}
		p.nextToken()
	}
}
