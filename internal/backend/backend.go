// Package backend provides the execution strategies for a parsed module.
// Both strategies drive the same evaluator; the compiled one installs
// slot-resolved function plans first.
package backend

import (
	"fmt"

	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes ctx.AstRoot on e and returns the value of a trailing
	// expression statement, or None.
	Run(ctx *pipeline.PipelineContext, e *evaluator.Evaluator) (evaluator.Object, error)

	// Name returns the backend name for display
	Name() string
}

// New returns the backend registered under name.
func New(name string) (Backend, error) {
	switch name {
	case config.BackendTree, "":
		return NewTreeWalk(), nil
	case config.BackendCompiled:
		return NewCompiled(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}
