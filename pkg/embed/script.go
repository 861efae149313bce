package pyhost

import (
	"fmt"
	"sync"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/backend"
	"github.com/funvibe/pyhost/internal/compiler"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/hostbridge"
)

// Script is one loaded module and its runtime state. Exec, Get, Set and
// Compile must not run concurrently with each other; Callables may be
// called from any goroutine once Exec has returned.
type Script struct {
	module     *ast.Module
	eval       *evaluator.Evaluator
	marshaller *hostbridge.Marshaller
	compiled   bool
	err        error

	mu    sync.Mutex
	funcs map[uintptr]evaluator.Object // Go at-exit callbacks by code pointer
}

// callback runs script callables that Go code received as funcs.
func (s *Script) callback(fn evaluator.Object, args []evaluator.Object) (evaluator.Object, error) {
	return s.eval.Fork().Call(fn, args, nil)
}

// Compile switches the script's functions to slot-resolved plans. Functions
// defined by an earlier Exec keep running through the tree walker.
func (s *Script) Compile() {
	if s.compiled || s.err != nil {
		return
	}
	prog := compiler.CompileModule(s.module, s.eval.Logger)
	s.module = prog.Module
	backend.Install(s.eval, prog)
	s.compiled = true
}

// Exec runs the module body. The result is the value of a trailing
// expression statement, or nil.
func (s *Script) Exec() (interface{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	result, err := s.eval.ExecModule(s.module)
	if err != nil {
		return nil, err
	}
	return s.fromObject(result)
}

func (s *Script) lookup(name string) (evaluator.Object, error) {
	v, ok, err := s.eval.State.Globals.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("name '%s' is not defined", name)
	}
	return v, nil
}

// Get returns a global converted to its natural Go value.
func (s *Script) Get(name string) (interface{}, error) {
	v, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return s.fromObject(v)
}

// Set binds a global. Go funcs become script callables and registered host
// types become host objects.
func (s *Script) Set(name string, value interface{}) error {
	if s.err != nil {
		return s.err
	}
	obj, err := s.toObject(value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	s.eval.State.Globals.Define(name, obj)
	return nil
}

// Function returns the named global as a Callable.
func (s *Script) Function(name string) (*Callable, error) {
	v, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if !evaluator.IsCallable(v) {
		return nil, fmt.Errorf("'%s' is not callable", name)
	}
	return &Callable{script: s, name: name, fn: v}, nil
}

// RegisterAtExit queues cb, a Callable or a Go func, to run on Exit after the
// callbacks registered so far.
func (s *Script) RegisterAtExit(cb interface{}, args ...interface{}) error {
	if s.err != nil {
		return s.err
	}
	if s.eval.State.Exited() {
		return fmt.Errorf("cannot register at-exit callbacks after exit")
	}
	fn, err := s.callbackObject(cb, true)
	if err != nil {
		return err
	}
	if !evaluator.IsCallable(fn) {
		return fmt.Errorf("at-exit callback of type %T is not callable", cb)
	}
	objs := make([]evaluator.Object, len(args))
	for i, a := range args {
		if objs[i], err = s.toObject(a); err != nil {
			return fmt.Errorf("at-exit argument %d: %w", i, err)
		}
	}
	s.eval.State.RegisterAtExit(fn, objs, nil)
	return nil
}

// UnregisterAtExit removes every pending registration of cb and reports
// whether there was one.
func (s *Script) UnregisterAtExit(cb interface{}) bool {
	if s.err != nil {
		return false
	}
	fn, err := s.callbackObject(cb, false)
	if err != nil || fn == nil {
		return false
	}
	return s.eval.State.UnregisterAtExit(fn)
}

// Exit runs the at-exit callbacks once. Later calls do nothing.
func (s *Script) Exit() error {
	if s.err != nil {
		return s.err
	}
	return s.eval.RunAtExit()
}

// Callable is a script function that Go code can invoke.
type Callable struct {
	script *Script
	name   string
	fn     evaluator.Object
}

func (c *Callable) Name() string { return c.name }

// Call converts args, runs the function on a fresh call stack and converts
// the result back. It is safe for concurrent use; the functions themselves
// share module globals without locking.
func (c *Callable) Call(args ...interface{}) (interface{}, error) {
	objs := make([]evaluator.Object, len(args))
	for i, a := range args {
		obj, err := c.script.toObject(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", c.name, i, err)
		}
		objs[i] = obj
	}
	result, err := c.script.eval.Fork().Call(c.fn, objs, nil)
	if err != nil {
		return nil, err
	}
	return c.script.fromObject(result)
}
