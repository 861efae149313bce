package backend

import (
	"errors"

	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/pipeline"
	"github.com/funvibe/pyhost/internal/token"
)

// ExecutionProcessor is the pipeline stage that runs a Backend.
type ExecutionProcessor struct {
	Backend   Backend
	Evaluator *evaluator.Evaluator

	// Err is the uncaught exception or fatal error of the last run.
	Err error
}

func NewExecutionProcessor(b Backend, e *evaluator.Evaluator) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b, Evaluator: e}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.AstRoot == nil || ctx.HasErrors() {
		return ctx
	}
	if p.Evaluator.CurrentFile == "" || p.Evaluator.CurrentFile == "<string>" {
		p.Evaluator.CurrentFile = ctx.FilePath
	}
	result, err := p.Backend.Run(ctx, p.Evaluator)
	p.Err = err
	if err != nil {
		ctx.AddError(runtimeDiagnostic(err))
		return ctx
	}
	ctx.Result = result
	return ctx
}

// runtimeDiagnostic converts an uncaught exception or fatal error into a
// diagnostic positioned at the raising line.
func runtimeDiagnostic(err error) *diagnostics.DiagnosticError {
	var exc *evaluator.Exception
	if errors.As(err, &exc) {
		d := diagnostics.NewError(diagnostics.ErrR001, token.Token{Line: exc.Line}, exc.Error())
		d.File = exc.File
		return d
	}
	var fatal *evaluator.FatalError
	if errors.As(err, &fatal) {
		return diagnostics.NewError(diagnostics.ErrR002, token.Token{Line: fatal.Line}, fatal.Message)
	}
	return diagnostics.NewError(diagnostics.ErrR001, token.Token{}, err.Error())
}
