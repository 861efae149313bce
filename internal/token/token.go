package token

import "fmt"

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	NEWLINE TokenType = "NEWLINE"
	INDENT  TokenType = "INDENT"
	DEDENT  TokenType = "DEDENT"

	NAME    TokenType = "NAME"
	INT     TokenType = "INT"
	FLOAT   TokenType = "FLOAT"
	STRING  TokenType = "STRING"
	FSTRING TokenType = "FSTRING"

	// Operators
	PLUS        TokenType = "+"
	MINUS       TokenType = "-"
	ASTERISK    TokenType = "*"
	POWER       TokenType = "**"
	SLASH       TokenType = "/"
	DOUBLESLASH TokenType = "//"
	PERCENT     TokenType = "%"
	AT          TokenType = "@"
	LSHIFT      TokenType = "<<"
	RSHIFT      TokenType = ">>"
	AMPERSAND   TokenType = "&"
	PIPE        TokenType = "|"
	CARET       TokenType = "^"
	TILDE       TokenType = "~"
	LT          TokenType = "<"
	GT          TokenType = ">"
	LTE         TokenType = "<="
	GTE         TokenType = ">="
	EQ          TokenType = "=="
	NOT_EQ      TokenType = "!="
	ASSIGN      TokenType = "="
	ARROW       TokenType = "->"
	WALRUS      TokenType = ":="

	// Augmented assignment
	PLUS_ASSIGN        TokenType = "+="
	MINUS_ASSIGN       TokenType = "-="
	ASTERISK_ASSIGN    TokenType = "*="
	POWER_ASSIGN       TokenType = "**="
	SLASH_ASSIGN       TokenType = "/="
	DOUBLESLASH_ASSIGN TokenType = "//="
	PERCENT_ASSIGN     TokenType = "%="
	AT_ASSIGN          TokenType = "@="
	LSHIFT_ASSIGN      TokenType = "<<="
	RSHIFT_ASSIGN      TokenType = ">>="
	AMPERSAND_ASSIGN   TokenType = "&="
	PIPE_ASSIGN        TokenType = "|="
	CARET_ASSIGN       TokenType = "^="

	// Delimiters
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"
	COMMA     TokenType = ","
	COLON     TokenType = ":"
	SEMICOLON TokenType = ";"
	DOT       TokenType = "."
	ELLIPSIS  TokenType = "..."

	// Keywords
	FALSE    TokenType = "False"
	NONE     TokenType = "None"
	TRUE     TokenType = "True"
	AND      TokenType = "and"
	AS       TokenType = "as"
	ASSERT   TokenType = "assert"
	ASYNC    TokenType = "async"
	AWAIT    TokenType = "await"
	BREAK    TokenType = "break"
	CLASS    TokenType = "class"
	CONTINUE TokenType = "continue"
	DEF      TokenType = "def"
	DEL      TokenType = "del"
	ELIF     TokenType = "elif"
	ELSE     TokenType = "else"
	EXCEPT   TokenType = "except"
	FINALLY  TokenType = "finally"
	FOR      TokenType = "for"
	FROM     TokenType = "from"
	GLOBAL   TokenType = "global"
	IF       TokenType = "if"
	IMPORT   TokenType = "import"
	IN       TokenType = "in"
	IS       TokenType = "is"
	LAMBDA   TokenType = "lambda"
	NONLOCAL TokenType = "nonlocal"
	NOT      TokenType = "not"
	OR       TokenType = "or"
	PASS     TokenType = "pass"
	RAISE    TokenType = "raise"
	RETURN   TokenType = "return"
	TRY      TokenType = "try"
	WHILE    TokenType = "while"
	WITH     TokenType = "with"
	YIELD    TokenType = "yield"
)

var keywords = map[string]TokenType{
	"False":    FALSE,
	"None":     NONE,
	"True":     TRUE,
	"and":      AND,
	"as":       AS,
	"assert":   ASSERT,
	"async":    ASYNC,
	"await":    AWAIT,
	"break":    BREAK,
	"class":    CLASS,
	"continue": CONTINUE,
	"def":      DEF,
	"del":      DEL,
	"elif":     ELIF,
	"else":     ELSE,
	"except":   EXCEPT,
	"finally":  FINALLY,
	"for":      FOR,
	"from":     FROM,
	"global":   GLOBAL,
	"if":       IF,
	"import":   IMPORT,
	"in":       IN,
	"is":       IS,
	"lambda":   LAMBDA,
	"nonlocal": NONLOCAL,
	"not":      NOT,
	"or":       OR,
	"pass":     PASS,
	"raise":    RAISE,
	"return":   RETURN,
	"try":      TRY,
	"while":    WHILE,
	"with":     WITH,
	"yield":    YIELD,
}

// LookupIdent returns the keyword token type for ident, or NAME.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}

// IsAugAssign reports whether t is one of the augmented assignment operators.
func IsAugAssign(t TokenType) bool {
	switch t {
	case PLUS_ASSIGN, MINUS_ASSIGN, ASTERISK_ASSIGN, POWER_ASSIGN, SLASH_ASSIGN,
		DOUBLESLASH_ASSIGN, PERCENT_ASSIGN, AT_ASSIGN, LSHIFT_ASSIGN, RSHIFT_ASSIGN,
		AMPERSAND_ASSIGN, PIPE_ASSIGN, CARET_ASSIGN:
		return true
	}
	return false
}

// FString is the Literal of an FSTRING token: the undecoded body between the
// quotes. Escapes are resolved by the parser, per literal segment.
type FString struct {
	Body string
	Raw  bool
}
