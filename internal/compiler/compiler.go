// Package compiler lowers function bodies into slot-resolved execution plans.
// A plan replaces name-keyed access to a function's own locals with indexed
// access; every other behavior stays with the evaluator.
package compiler

import (
	"github.com/rs/zerolog"

	"github.com/funvibe/pyhost/internal/ast"
)

// Plan is the compiled form of one def or lambda.
type Plan struct {
	Name      string
	Slots     []string       // slot index -> name; parameters first
	Index     map[string]int // name -> slot index
	Body      []ast.Stmt     // rewritten def body
	Expr      ast.Expr       // rewritten lambda body
	Globals   map[string]bool
	Nonlocals map[string]bool
}

// Program is a compiled module. Plans is keyed by the FunctionDef and Lambda
// nodes as they appear in Module and in the plans' rewritten bodies.
type Program struct {
	Module *ast.Module
	Plans  map[ast.Node]*Plan
}

// Local is a slot-resolved name of the function being compiled.
type Local struct {
	Name string
	Slot int
}

type Compiler struct {
	Logger zerolog.Logger

	plans map[ast.Node]*Plan

	// per function being compiled
	locals []Local
}

func New() *Compiler {
	return &Compiler{Logger: zerolog.Nop(), plans: make(map[ast.Node]*Plan)}
}

// CompileModule compiles every function and lambda in m, logging to logger.
// The module itself keeps name-keyed globals.
func CompileModule(m *ast.Module, logger zerolog.Logger) *Program {
	c := New()
	c.Logger = logger
	return c.CompileModule(m)
}

// CompileModule compiles m into the plans collected by c.
func (c *Compiler) CompileModule(m *ast.Module) *Program {
	c.scanStmts(m.Body)
	c.Logger.Debug().Str("file", m.File).Int("functions", len(c.plans)).Msg("compiled module")
	return &Program{Module: m, Plans: c.plans}
}

// Plans returns the plans compiled so far.
func (c *Compiler) Plans() map[ast.Node]*Plan {
	return c.plans
}

// CompileFunction compiles a single def.
func (c *Compiler) CompileFunction(fn *ast.FunctionDef) *Plan {
	plan := c.compileScope(fn.Name, fn.Args, fn.Body, nil)
	c.plans[fn] = plan
	return plan
}

// CompileLambda compiles a single lambda.
func (c *Compiler) CompileLambda(fn *ast.Lambda) *Plan {
	plan := c.compileScope("<lambda>", fn.Args, nil, fn.Body)
	c.plans[fn] = plan
	return plan
}

func (c *Compiler) compileScope(name string, args *ast.Arguments, body []ast.Stmt, expr ast.Expr) *Plan {
	saved := c.locals
	c.locals = nil
	defer func() { c.locals = saved }()

	globals, nonlocals := collectDeclarations(body)
	plan := &Plan{Name: name, Index: make(map[string]int), Globals: globals, Nonlocals: nonlocals}
	for _, n := range localNames(args, body, globals, nonlocals) {
		c.addLocal(plan, n)
	}

	r := &rewriter{c: c}
	if expr != nil {
		plan.Expr = r.expr(expr)
	} else {
		plan.Body = r.stmts(body)
	}
	c.Logger.Debug().Str("function", name).Int("slots", len(plan.Slots)).Msg("compiled function")
	return plan
}

// addLocal adds a local variable to the current scope
func (c *Compiler) addLocal(plan *Plan, name string) {
	if c.resolveLocal(name) >= 0 {
		return
	}
	slot := len(c.locals)
	c.locals = append(c.locals, Local{Name: name, Slot: slot})
	plan.Slots = append(plan.Slots, name)
	plan.Index[name] = slot
}

// resolveLocal looks up a local variable by name
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot
		}
	}
	return -1
}
