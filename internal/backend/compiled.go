package backend

import (
	"github.com/funvibe/pyhost/internal/compiler"
	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/pipeline"
)

// CompiledBackend runs functions through slot-resolved plans.
type CompiledBackend struct{}

func NewCompiled() *CompiledBackend {
	return &CompiledBackend{}
}

func (b *CompiledBackend) Run(ctx *pipeline.PipelineContext, e *evaluator.Evaluator) (evaluator.Object, error) {
	if ctx.AstRoot == nil {
		return nil, errNoAST
	}
	prog := compiler.CompileModule(ctx.AstRoot, e.Logger)
	Install(e, prog)
	return e.ExecModule(prog.Module)
}

// Install makes e run functions of prog through their plans. Plans from
// earlier programs stay valid, so a REPL can compile line by line.
func Install(e *evaluator.Evaluator, prog *compiler.Program) {
	if e.Plans == nil {
		e.Plans = prog.Plans
		return
	}
	for node, plan := range prog.Plans {
		e.Plans[node] = plan
	}
}

func (b *CompiledBackend) Name() string {
	return config.BackendCompiled
}
