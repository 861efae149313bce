package lexer

import (
	"github.com/funvibe/pyhost/internal/pipeline"
	"github.com/funvibe/pyhost/internal/token"
)

// TokenStream buffers lexer output so the parser can look ahead.
type TokenStream struct {
	lexer  *Lexer
	buffer []token.Token
}

func NewTokenStream(l *Lexer) *TokenStream {
	return &TokenStream{lexer: l}
}

func (s *TokenStream) Next() token.Token {
	if len(s.buffer) > 0 {
		tok := s.buffer[0]
		s.buffer = s.buffer[1:]
		return tok
	}
	return s.lexer.NextToken()
}

// Peek returns up to n upcoming tokens without consuming them. The result is
// shorter than n only when EOF is reached.
func (s *TokenStream) Peek(n int) []token.Token {
	for len(s.buffer) < n {
		if len(s.buffer) > 0 && s.buffer[len(s.buffer)-1].Type == token.EOF {
			break
		}
		s.buffer = append(s.buffer, s.lexer.NextToken())
	}
	if n > len(s.buffer) {
		n = len(s.buffer)
	}
	return s.buffer[:n]
}

// Tokenize lexes the whole input, including the final EOF token.
func Tokenize(input string) []token.Token {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

// LexerProcessor is the first pipeline stage: it attaches a token stream
// over the source code.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.TokenStream = NewTokenStream(New(ctx.SourceCode))
	return ctx
}
