package lexer

import (
	"testing"

	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

func types(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestNextToken_Indentation(t *testing.T) {
	input := "def f(x):\n    if x:\n        return 1\n\n    # comment\n    return 2\nf(3)\n"
	want := []token.TokenType{
		token.DEF, token.NAME, token.LPAREN, token.NAME, token.RPAREN, token.COLON, token.NEWLINE,
		token.INDENT, token.IF, token.NAME, token.COLON, token.NEWLINE,
		token.INDENT, token.RETURN, token.INT, token.NEWLINE,
		token.DEDENT, token.RETURN, token.INT, token.NEWLINE,
		token.DEDENT, token.NAME, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.EOF,
	}
	got := types(Tokenize(input))
	if len(got) != len(want) {
		t.Fatalf("token count: got %d %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestNextToken_ImplicitJoiningAndEOF(t *testing.T) {
	input := "x = [1,\n     2]\ny = 1 + \\\n    2"
	want := []token.TokenType{
		token.NAME, token.ASSIGN, token.LBRACKET, token.INT, token.COMMA, token.INT, token.RBRACKET, token.NEWLINE,
		token.NAME, token.ASSIGN, token.INT, token.PLUS, token.INT, token.NEWLINE,
		token.EOF,
	}
	got := types(Tokenize(input))
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNextToken_Operators(t *testing.T) {
	tests := []struct {
		input string
		want  token.TokenType
	}{
		{"**=", token.POWER_ASSIGN},
		{"//=", token.DOUBLESLASH_ASSIGN},
		{"//", token.DOUBLESLASH},
		{"**", token.POWER},
		{"<<=", token.LSHIFT_ASSIGN},
		{"!=", token.NOT_EQ},
		{"->", token.ARROW},
		{"...", token.ELLIPSIS},
		{"@", token.AT},
		{"~", token.TILDE},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != tt.want || tok.Lexeme != tt.input {
			t.Errorf("%q: got %s %q", tt.input, tok.Type, tok.Lexeme)
		}
	}
}

func TestNextToken_Numbers(t *testing.T) {
	tests := []struct {
		input   string
		typ     token.TokenType
		literal interface{}
	}{
		{"42", token.INT, int64(42)},
		{"1_000", token.INT, int64(1000)},
		{"0x_ff", token.INT, int64(255)},
		{"0o17", token.INT, int64(15)},
		{"0b101", token.INT, int64(5)},
		{"3.5", token.FLOAT, 3.5},
		{".5", token.FLOAT, 0.5},
		{"1.", token.FLOAT, 1.0},
		{"1e3", token.FLOAT, 1000.0},
		{"2.5E-1", token.FLOAT, 0.25},
		{"18446744073709551616", token.FLOAT, 18446744073709551616.0},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != tt.typ {
			t.Errorf("%q: type %s, want %s", tt.input, tok.Type, tt.typ)
			continue
		}
		if tok.Literal != tt.literal {
			t.Errorf("%q: literal %v (%T), want %v", tt.input, tok.Literal, tok.Literal, tt.literal)
		}
	}
}

func TestNextToken_Strings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"abc"`, "abc"},
		{`'it''s'`, "it"},
		{`"a\tb\n"`, "a\tb\n"},
		{`'\x41\u00e9'`, "Aé"},
		{`r"a\nb"`, `a\nb`},
		{`"""line1
line2"""`, "line1\nline2"},
		{`'say "hi"'`, `say "hi"`},
		{`"\q"`, `\q`},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != token.STRING {
			t.Errorf("%s: type %s", tt.input, tok.Type)
			continue
		}
		if tok.Literal != tt.want {
			t.Errorf("%s: got %q, want %q", tt.input, tok.Literal, tt.want)
		}
	}
}

func TestNextToken_FString(t *testing.T) {
	tok := New(`f"start{x+1}end"`).NextToken()
	if tok.Type != token.FSTRING {
		t.Fatalf("type = %s", tok.Type)
	}
	fs, ok := tok.Literal.(token.FString)
	if !ok || fs.Body != "start{x+1}end" || fs.Raw {
		t.Fatalf("literal = %#v", tok.Literal)
	}
	tok = New(`rf'{a}\n'`).NextToken()
	if fs := tok.Literal.(token.FString); !fs.Raw || fs.Body != `{a}\n` {
		t.Fatalf("raw f-string literal = %#v", tok.Literal)
	}
}

func TestNextToken_Errors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
	}{
		{"'abc", diagnostics.ErrL002},
		{"$", diagnostics.ErrL001},
		{"12abc", diagnostics.ErrL004},
		{"3j", diagnostics.ErrL004},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("%q: type %s, want ILLEGAL", tt.input, tok.Type)
			continue
		}
		err, ok := tok.Literal.(*diagnostics.DiagnosticError)
		if !ok || err.Code != tt.code {
			t.Errorf("%q: literal %#v, want code %s", tt.input, tok.Literal, tt.code)
		}
	}
}

func TestNextToken_BadDedent(t *testing.T) {
	toks := Tokenize("if x:\n        a\n    b\n")
	found := false
	for _, tok := range toks {
		if err, ok := tok.Literal.(*diagnostics.DiagnosticError); ok && err.Code == diagnostics.ErrL003 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected inconsistent indentation error, got %v", types(toks))
	}
}

func TestTokenStream_Peek(t *testing.T) {
	s := NewTokenStream(New("a b"))
	peeked := s.Peek(2)
	if len(peeked) != 2 || peeked[0].Lexeme != "a" || peeked[1].Lexeme != "b" {
		t.Fatalf("peek = %v", peeked)
	}
	if tok := s.Next(); tok.Lexeme != "a" {
		t.Fatalf("next = %v", tok)
	}
	all := s.Peek(10)
	if all[len(all)-1].Type != token.EOF {
		t.Fatalf("peek past end should stop at EOF: %v", all)
	}
}
