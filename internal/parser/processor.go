package parser

import (
	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/lexer"
	"github.com/funvibe/pyhost/internal/pipeline"
	"github.com/funvibe/pyhost/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		// The lexer stage did not run; AST input skips both stages.
		if ctx.AstRoot == nil {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrP001, token.Token{}, "parser: token stream is nil"))
		}
		return ctx
	}

	parser := New(ctx.TokenStream, ctx)
	ctx.AstRoot = parser.ParseProgram()
	ctx.AstRoot.File = ctx.FilePath

	// Errors are already added to the context by the parser instance.
	return ctx
}

// Parse runs the lexer and parser stages over source.
func Parse(source, filePath string) (*ast.Module, []*diagnostics.DiagnosticError) {
	ctx := &pipeline.PipelineContext{SourceCode: source, FilePath: filePath}
	ctx = pipeline.New(&lexer.LexerProcessor{}, &ParserProcessor{}).Run(ctx)
	return ctx.AstRoot, ctx.Errors
}
