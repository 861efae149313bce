package backend

import (
	"errors"

	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/pipeline"
)

var errNoAST = errors.New("no AST to execute")

// TreeWalkBackend evaluates the AST directly.
type TreeWalkBackend struct{}

func NewTreeWalk() *TreeWalkBackend {
	return &TreeWalkBackend{}
}

func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext, e *evaluator.Evaluator) (evaluator.Object, error) {
	if ctx.AstRoot == nil {
		return nil, errNoAST
	}
	e.Plans = nil
	return e.ExecModule(ctx.AstRoot)
}

func (b *TreeWalkBackend) Name() string {
	return config.BackendTree
}
