package pipeline

import (
	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

// TokenStream is the view of the lexer the parser consumes.
type TokenStream interface {
	Next() token.Token
	Peek(n int) []token.Token
}

// PipelineContext carries state between processing stages.
type PipelineContext struct {
	SourceCode string
	FilePath   string

	// TokenStream is set by the lexer stage and consumed by the parser.
	TokenStream TokenStream

	AstRoot *ast.Module
	Errors  []*diagnostics.DiagnosticError

	Settings *config.Settings

	// Result holds the value produced by the execution stage, if any.
	Result interface{}
}

// Processor is one stage of a pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// HasErrors reports whether any stage recorded a diagnostic.
func (c *PipelineContext) HasErrors() bool {
	return len(c.Errors) > 0
}

// AddError records a diagnostic, stamping it with the context's file path.
func (c *PipelineContext) AddError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = c.FilePath
	}
	c.Errors = append(c.Errors, err)
}
