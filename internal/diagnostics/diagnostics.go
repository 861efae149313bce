package diagnostics

import (
	"fmt"

	"github.com/funvibe/pyhost/internal/token"
)

type ErrorCode string

const (
	// Lexer
	ErrL001 ErrorCode = "L001" // illegal character
	ErrL002 ErrorCode = "L002" // unterminated string
	ErrL003 ErrorCode = "L003" // inconsistent indentation
	ErrL004 ErrorCode = "L004" // malformed number

	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // invalid assignment target
	ErrP003 ErrorCode = "P003" // unsupported syntax
	ErrP004 ErrorCode = "P004" // malformed f-string
	ErrP005 ErrorCode = "P005" // malformed literal
	ErrP006 ErrorCode = "P006" // nesting too deep

	// Loader
	ErrA001 ErrorCode = "A001" // malformed AST document

	// Runtime
	ErrR001 ErrorCode = "R001" // uncaught exception
	ErrR002 ErrorCode = "R002" // fatal resource exhaustion
)

// DiagnosticError is a positioned error produced by a front-end or runtime stage.
type DiagnosticError struct {
	Code    ErrorCode
	Token   token.Token
	Message string
	File    string
}

func NewError(code ErrorCode, tok token.Token, message string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: message}
}

func (e *DiagnosticError) Error() string {
	loc := ""
	if e.Token.Line > 0 {
		loc = fmt.Sprintf("%d:%d: ", e.Token.Line, e.Token.Column)
	}
	if e.File != "" {
		return fmt.Sprintf("%s:%s[%s] error: %s", e.File, loc, e.Code, e.Message)
	}
	return fmt.Sprintf("%s[%s] error: %s", loc, e.Code, e.Message)
}
