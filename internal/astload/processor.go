package astload

import (
	"errors"

	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/pipeline"
)

// LoaderProcessor replaces the lexer and parser stages when the input is a
// serialized AST.
type LoaderProcessor struct{}

func (lp *LoaderProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	mod, err := Decode([]byte(ctx.SourceCode), ctx.FilePath)
	if err != nil {
		var diag *diagnostics.DiagnosticError
		if errors.As(err, &diag) {
			ctx.AddError(diag)
		} else {
			ctx.AddError(&diagnostics.DiagnosticError{Code: diagnostics.ErrA001, Message: err.Error()})
		}
		return ctx
	}
	ctx.AstRoot = mod
	return ctx
}
