package parser

import (
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/lexer"
	"github.com/funvibe/pyhost/internal/pipeline"
	"github.com/funvibe/pyhost/internal/token"
)

// parseFString splits an f-string body into literal Constants and
// FormattedValues. It returns nil after reporting an error.
func (p *Parser) parseFString(fs token.FString, tok token.Token) []ast.Expr {
	body := fs.Body
	values := []ast.Expr{}
	var lit strings.Builder

	flush := func() bool {
		if lit.Len() == 0 {
			return true
		}
		s := lit.String()
		lit.Reset()
		if !fs.Raw {
			var err error
			if s, err = lexer.Unescape(s); err != nil {
				p.errorAt(diagnostics.ErrP004, tok, "%s", err.Error())
				return false
			}
		}
		values = append(values, &ast.Constant{Token: tok, Value: s, TypeName: "str"})
		return true
	}

	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '{' && i+1 < len(body) && body[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(body) && body[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '}':
			p.errorAt(diagnostics.ErrP004, tok, "f-string: single '}' is not allowed")
			return nil
		case c == '{':
			if !flush() {
				return nil
			}
			end, field := p.parseReplacementField(body, i+1, fs.Raw, tok)
			if field == nil {
				return nil
			}
			values = append(values, field...)
			i = end
		case c == '\\' && !fs.Raw && i+1 < len(body):
			lit.WriteByte(c)
			lit.WriteByte(body[i+1])
			i += 2
		default:
			lit.WriteByte(c)
			i++
		}
	}
	if !flush() {
		return nil
	}
	return values
}

// parseReplacementField parses `expr[=][!conv][:spec]}` starting at body[start].
// It returns the index after the closing brace and the produced nodes: the
// FormattedValue, preceded by a literal for the `expr=` form.
func (p *Parser) parseReplacementField(body string, start int, raw bool, tok token.Token) (int, []ast.Expr) {
	depth := 0
	var quote byte
	exprEnd, convAt, specAt := -1, -1, -1
	i := start
scan:
	for ; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				exprEnd = i
				break scan
			}
			depth--
		case '!':
			if depth == 0 && i+1 < len(body) && body[i+1] != '=' {
				exprEnd, convAt = i, i+1
				break scan
			}
		case ':':
			if depth == 0 {
				exprEnd, specAt = i, i+1
				break scan
			}
		}
	}
	if exprEnd < 0 {
		p.errorAt(diagnostics.ErrP004, tok, "f-string: expecting '}'")
		return 0, nil
	}

	exprText := body[start:exprEnd]
	var out []ast.Expr
	conversion := -1
	trimmed := strings.TrimRight(exprText, " ")
	if strings.HasSuffix(trimmed, "=") && !strings.HasSuffix(trimmed, "==") &&
		!strings.HasSuffix(trimmed, "!=") && !strings.HasSuffix(trimmed, "<=") && !strings.HasSuffix(trimmed, ">=") {
		// Self-documenting form f"{x=}".
		out = append(out, &ast.Constant{Token: tok, Value: exprText, TypeName: "str"})
		exprText = strings.TrimSuffix(trimmed, "=")
		conversion = 'r'
	}
	if strings.TrimSpace(exprText) == "" {
		p.errorAt(diagnostics.ErrP004, tok, "f-string: empty expression not allowed")
		return 0, nil
	}
	value := p.parseFragment(exprText, tok)
	if value == nil {
		return 0, nil
	}

	i = exprEnd
	if convAt >= 0 {
		if convAt+1 >= len(body) || !strings.ContainsRune("sra", rune(body[convAt])) ||
			(body[convAt+1] != '}' && body[convAt+1] != ':') {
			p.errorAt(diagnostics.ErrP004, tok, "f-string: invalid conversion character")
			return 0, nil
		}
		conversion = int(body[convAt])
		i = convAt + 1
		if body[i] == ':' {
			specAt = i + 1
		}
	}

	field := &ast.FormattedValue{Token: tok, Value: value, Conversion: conversion}
	if specAt >= 0 {
		// The format spec runs to the matching brace and may hold nested fields.
		depth = 0
		j := specAt
		for ; j < len(body); j++ {
			if body[j] == '{' {
				depth++
			} else if body[j] == '}' {
				if depth == 0 {
					break
				}
				depth--
			}
		}
		if j >= len(body) {
			p.errorAt(diagnostics.ErrP004, tok, "f-string: expecting '}'")
			return 0, nil
		}
		specValues := p.parseFString(token.FString{Body: body[specAt:j], Raw: raw}, tok)
		if specValues == nil && j > specAt {
			return 0, nil
		}
		field.FormatSpec = &ast.JoinedStr{Token: tok, Values: specValues}
		if conversion == 'r' && len(out) > 0 && convAt < 0 {
			// f"{x=:spec}" formats the value, not its repr.
			field.Conversion = -1
		}
		i = j
	}
	if i >= len(body) || body[i] != '}' {
		p.errorAt(diagnostics.ErrP004, tok, "f-string: expecting '}'")
		return 0, nil
	}
	return i + 1, append(out, field)
}

// parseFragment parses a replacement field expression with a fresh parser.
// The text is parenthesized so it may span lines and form a bare tuple.
func (p *Parser) parseFragment(text string, tok token.Token) ast.Expr {
	sub := &pipeline.PipelineContext{SourceCode: text, FilePath: p.ctx.FilePath}
	sp := New(lexer.NewTokenStream(lexer.NewAt("("+text+")", tok.Line)), sub)
	expr := sp.parseExpression(LOWEST)
	if expr != nil && !sp.peekTokenIs(token.NEWLINE, token.EOF) {
		sp.errorAt(diagnostics.ErrP004, sp.peekToken, "f-string: invalid expression")
	}
	for _, err := range sub.Errors {
		if err.Code == diagnostics.ErrP001 {
			err.Code = diagnostics.ErrP004
		}
		p.ctx.AddError(err)
	}
	if len(sub.Errors) > 0 {
		return nil
	}
	return expr
}
