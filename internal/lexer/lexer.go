package lexer

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number

	indents     []int // indentation stack, always starts with 0
	parenDepth  int   // newlines inside brackets are not significant
	atLineStart bool
	pending     []token.Token
	lastType    token.TokenType
}

func New(input string) *Lexer {
	return NewAt(input, 1)
}

// NewAt creates a lexer whose first line is numbered line. It is used for
// source fragments such as f-string replacement fields.
func NewAt(input string, line int) *Lexer {
	l := &Lexer{input: input, line: line, column: 0, indents: []int{0}, atLineStart: true}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// NextToken returns the next token. After the input is exhausted it keeps
// returning EOF.
func (l *Lexer) NextToken() token.Token {
	tok := l.nextToken()
	l.lastType = tok.Type
	return tok
}

func (l *Lexer) nextToken() token.Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	if l.atLineStart && l.parenDepth == 0 {
		if tok, ok := l.readIndentation(); ok {
			return tok
		}
	}

	l.skipWhitespace()
	line, col := l.line, l.column

	switch {
	case l.ch == 0:
		return l.endOfInput()
	case l.ch == '\n':
		l.readChar()
		if l.parenDepth > 0 {
			return l.nextToken()
		}
		l.atLineStart = true
		return token.Token{Type: token.NEWLINE, Lexeme: "\n", Literal: "\n", Line: line, Column: col}
	case l.ch == '"' || l.ch == '\'':
		return l.readString("", l.position, line, col)
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.readNumber()
	case isLetter(l.ch):
		start := l.position
		ident := l.readIdentifier()
		if (l.ch == '"' || l.ch == '\'') && isStringPrefix(ident) {
			return l.readString(ident, start, line, col)
		}
		return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Literal: ident, Line: line, Column: col}
	}

	if tok, ok := l.readOperator(line, col); ok {
		return tok
	}

	ch := l.ch
	l.readChar()
	return l.illegal(diagnostics.ErrL001, string(ch), line, col, fmt.Sprintf("invalid character %q", ch))
}

// readIndentation measures the leading whitespace of a logical line and
// produces INDENT/DEDENT tokens. Blank and comment-only lines are skipped.
func (l *Lexer) readIndentation() (token.Token, bool) {
	for {
		width := 0
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			switch l.ch {
			case '\t':
				width = (width/8 + 1) * 8
			case ' ':
				width++
			}
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		}
		if l.ch == '\r' && l.peekChar() == '\n' {
			l.readChar()
		}
		if l.ch == '\n' {
			l.readChar()
			continue
		}
		l.atLineStart = false
		if l.ch == 0 {
			return token.Token{}, false
		}

		line, col := l.line, l.column
		top := l.indents[len(l.indents)-1]
		if width > top {
			l.indents = append(l.indents, width)
			return token.Token{Type: token.INDENT, Line: line, Column: col}, true
		}
		if width == top {
			return token.Token{}, false
		}

		var dedents []token.Token
		for len(l.indents) > 1 && width < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			dedents = append(dedents, token.Token{Type: token.DEDENT, Line: line, Column: col})
		}
		if width != l.indents[len(l.indents)-1] {
			dedents = append(dedents, l.illegal(diagnostics.ErrL003, "", line, col,
				"unindent does not match any outer indentation level"))
		}
		l.pending = append(l.pending, dedents[1:]...)
		return dedents[0], true
	}
}

// endOfInput closes the last logical line and every open block before EOF.
func (l *Lexer) endOfInput() token.Token {
	var toks []token.Token
	switch l.lastType {
	case "", token.NEWLINE, token.INDENT, token.DEDENT, token.EOF:
	default:
		toks = append(toks, token.Token{Type: token.NEWLINE, Lexeme: "", Line: l.line, Column: l.column})
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		toks = append(toks, token.Token{Type: token.DEDENT, Line: l.line, Column: l.column})
	}
	toks = append(toks, token.Token{Type: token.EOF, Line: l.line, Column: l.column})
	l.pending = append(l.pending, toks[1:]...)
	return toks[0]
}

var operators = map[string]token.TokenType{
	"+": token.PLUS, "-": token.MINUS, "*": token.ASTERISK, "**": token.POWER,
	"/": token.SLASH, "//": token.DOUBLESLASH, "%": token.PERCENT, "@": token.AT,
	"<<": token.LSHIFT, ">>": token.RSHIFT, "&": token.AMPERSAND, "|": token.PIPE,
	"^": token.CARET, "~": token.TILDE, "<": token.LT, ">": token.GT,
	"<=": token.LTE, ">=": token.GTE, "==": token.EQ, "!=": token.NOT_EQ,
	"=": token.ASSIGN, "->": token.ARROW, ":=": token.WALRUS,

	"+=": token.PLUS_ASSIGN, "-=": token.MINUS_ASSIGN, "*=": token.ASTERISK_ASSIGN,
	"**=": token.POWER_ASSIGN, "/=": token.SLASH_ASSIGN, "//=": token.DOUBLESLASH_ASSIGN,
	"%=": token.PERCENT_ASSIGN, "@=": token.AT_ASSIGN, "<<=": token.LSHIFT_ASSIGN,
	">>=": token.RSHIFT_ASSIGN, "&=": token.AMPERSAND_ASSIGN, "|=": token.PIPE_ASSIGN,
	"^=": token.CARET_ASSIGN,

	"(": token.LPAREN, ")": token.RPAREN, "[": token.LBRACKET, "]": token.RBRACKET,
	"{": token.LBRACE, "}": token.RBRACE, ",": token.COMMA, ":": token.COLON,
	";": token.SEMICOLON, ".": token.DOT, "...": token.ELLIPSIS,
}

// readOperator matches the longest operator or delimiter at the current position.
func (l *Lexer) readOperator(line, col int) (token.Token, bool) {
	for n := 3; n >= 1; n-- {
		if l.position+n > len(l.input) {
			continue
		}
		lexeme := l.input[l.position : l.position+n]
		tt, ok := operators[lexeme]
		if !ok {
			continue
		}
		for i := 0; i < n; i++ {
			l.readChar()
		}
		switch tt {
		case token.LPAREN, token.LBRACKET, token.LBRACE:
			l.parenDepth++
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			if l.parenDepth > 0 {
				l.parenDepth--
			}
		}
		return token.Token{Type: tt, Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}, true
	}
	return token.Token{}, false
}

func isStringPrefix(ident string) bool {
	switch strings.ToLower(ident) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

// readString reads a quoted literal whose opening quote is the current char.
// start is the byte offset of the token (including any prefix).
func (l *Lexer) readString(prefix string, start, line, col int) token.Token {
	raw := strings.ContainsAny(prefix, "rR")
	isF := strings.ContainsAny(prefix, "fF")
	quote := l.ch
	triple := l.peekChar() == quote && l.peekChar2() == quote
	if triple {
		l.readChar()
		l.readChar()
	}
	l.readChar()

	bodyStart := l.position
	for {
		if l.ch == 0 || (!triple && l.ch == '\n') {
			return l.illegal(diagnostics.ErrL002, l.input[start:l.position], line, col, "unterminated string literal")
		}
		if l.ch == '\\' {
			l.readChar()
			if l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == quote && (!triple || (l.peekChar() == quote && l.peekChar2() == quote)) {
			break
		}
		l.readChar()
	}
	body := l.input[bodyStart:l.position]
	l.readChar()
	if triple {
		l.readChar()
		l.readChar()
	}
	lexeme := l.input[start:l.position]

	if isF {
		return token.Token{Type: token.FSTRING, Lexeme: lexeme, Literal: token.FString{Body: body, Raw: raw}, Line: line, Column: col}
	}
	value := body
	if !raw {
		var err error
		if value, err = Unescape(body); err != nil {
			return l.illegal(diagnostics.ErrL002, lexeme, line, col, err.Error())
		}
	}
	return token.Token{Type: token.STRING, Lexeme: lexeme, Literal: value, Line: line, Column: col}
}

// Unescape resolves backslash escapes in the body of a non-raw string literal.
// Unknown escapes are kept verbatim.
func Unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(n))
			i = j - 1
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+width >= len(s) {
				return "", fmt.Errorf("truncated \\%c escape", e)
			}
			n, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\%c escape", e)
			}
			if n > unicode.MaxRune {
				return "", fmt.Errorf("escape \\%c%s out of range", e, s[i+1:i+1+width])
			}
			b.WriteRune(rune(n))
			i += width
		case 'N':
			return "", errors.New("\\N{...} escapes are not supported")
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || (l.ch >= 0x80 && unicode.IsDigit(l.ch)) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readDigits(isValid func(rune) bool) {
	for isValid(l.ch) || (l.ch == '_' && isValid(l.peekChar())) {
		l.readChar()
	}
}

// readNumber reads an integer or float literal. Integers that do not fit in
// 64 bits become FLOAT tokens, mirroring the runtime's promotion rule.
func (l *Lexer) readNumber() token.Token {
	startLine, startCol := l.line, l.column
	position := l.position
	base := 10
	isFloat := false

	// Check for base prefixes: 0x, 0b, 0o
	if l.ch == '0' {
		switch l.peekChar() {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 10 {
			l.readChar()
			l.readChar()
			if l.ch == '_' {
				l.readChar()
			}
		}
	}

	switch base {
	case 16:
		l.readDigits(isHexDigit)
	case 8:
		l.readDigits(func(r rune) bool { return r >= '0' && r <= '7' })
	case 2:
		l.readDigits(func(r rune) bool { return r == '0' || r == '1' })
	default:
		l.readDigits(isDigit)
		if l.ch == '.' {
			isFloat = true
			l.readChar()
			l.readDigits(isDigit)
		}
		if l.ch == 'e' || l.ch == 'E' {
			next := l.peekChar()
			if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekChar2())) {
				isFloat = true
				l.readChar()
				if l.ch == '+' || l.ch == '-' {
					l.readChar()
				}
				l.readDigits(isDigit)
			}
		}
	}

	if l.ch == 'j' || l.ch == 'J' {
		l.readChar()
		return l.illegal(diagnostics.ErrL004, l.input[position:l.position], startLine, startCol, "complex literals are not supported")
	}
	if isLetter(l.ch) || isDigit(l.ch) {
		for isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		lexeme := l.input[position:l.position]
		return l.illegal(diagnostics.ErrL004, lexeme, startLine, startCol, fmt.Sprintf("invalid number literal %q", lexeme))
	}

	lexeme := l.input[position:l.position]
	clean := strings.ReplaceAll(lexeme, "_", "")

	if isFloat {
		val, err := strconv.ParseFloat(clean, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return l.illegal(diagnostics.ErrL004, lexeme, startLine, startCol, err.Error())
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
	}

	digits := clean
	if base != 10 {
		digits = clean[2:]
	}
	val := new(big.Int)
	if _, ok := val.SetString(digits, base); !ok {
		return l.illegal(diagnostics.ErrL004, lexeme, startLine, startCol, fmt.Sprintf("invalid number literal %q", lexeme))
	}
	if val.IsInt64() {
		return token.Token{Type: token.INT, Lexeme: lexeme, Literal: val.Int64(), Line: startLine, Column: startCol}
	}
	f, _ := new(big.Float).SetInt(val).Float64()
	return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: f, Line: startLine, Column: startCol}
}

// illegal builds an ILLEGAL token whose Literal is the diagnostic to report.
func (l *Lexer) illegal(code diagnostics.ErrorCode, lexeme string, line, col int, msg string) token.Token {
	tok := token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Line: line, Column: col}
	tok.Literal = diagnostics.NewError(code, tok, msg)
	return tok
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	pos2 := l.readPosition + w
	if pos2 >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos2:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}
		// Comments run to the end of the line; the newline itself is a token.
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		// Explicit line joining.
		if l.ch == '\\' {
			next := l.peekChar()
			if next == '\n' {
				l.readChar()
				l.readChar()
				continue
			}
			if next == '\r' && l.peekChar2() == '\n' {
				l.readChar()
				l.readChar()
				l.readChar()
				continue
			}
		}
		break
	}
}
