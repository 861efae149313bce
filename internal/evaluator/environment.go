package evaluator

import (
	"sort"
	"sync"
)

// ScopeKind tells name resolution how a frame participates in lookup.
type ScopeKind int

const (
	ModuleScope ScopeKind = iota
	FunctionScope
	ClassScope
	ComprehensionScope
	HandlerScope
	BuiltinsScope
)

type Environment struct {
	mu    sync.RWMutex
	store map[string]Object
	outer *Environment
	kind  ScopeKind

	globals   map[string]bool
	nonlocals map[string]bool
	locals    map[string]bool // names the frame's def binds; read-only

	// compiled frames only
	slots     []Object
	slotIndex map[string]int
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object), kind: ModuleScope}
}

// NewModuleEnvironment creates module globals whose reads fall back to builtins.
func NewModuleEnvironment(builtins *Environment) *Environment {
	env := NewEnvironment()
	env.outer = builtins
	return env
}

func NewEnclosedEnvironment(outer *Environment, kind ScopeKind) *Environment {
	env := NewEnvironment()
	env.outer = outer
	env.kind = kind
	return env
}

// NewSlotEnvironment creates a function frame whose locals live in slots.
func NewSlotEnvironment(outer *Environment, names []string, index map[string]int) *Environment {
	env := NewEnclosedEnvironment(outer, FunctionScope)
	env.slots = make([]Object, len(names))
	env.slotIndex = index
	return env
}

func (e *Environment) Kind() ScopeKind { return e.kind }

// Declare records global and nonlocal names for the frame.
func (e *Environment) Declare(globals, nonlocals map[string]bool) {
	f := e.frame()
	f.mu.Lock()
	defer f.mu.Unlock()
	for n := range globals {
		if f.globals == nil {
			f.globals = make(map[string]bool)
		}
		f.globals[n] = true
	}
	for n := range nonlocals {
		if f.nonlocals == nil {
			f.nonlocals = make(map[string]bool)
		}
		f.nonlocals[n] = true
	}
}

// frame skips handler scopes to the frame that owns declarations.
func (e *Environment) frame() *Environment {
	env := e
	for env.kind == HandlerScope && env.outer != nil {
		env = env.outer
	}
	return env
}

// module returns the module frame enclosing e.
func (e *Environment) module() *Environment {
	env := e
	for env.kind != ModuleScope && env.outer != nil {
		env = env.outer
	}
	return env
}

func (e *Environment) getLocal(name string) (Object, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if i, ok := e.slotIndex[name]; ok {
		v := e.slots[i]
		return v, v != nil
	}
	v, ok := e.store[name]
	return v, ok
}

func (e *Environment) setLocal(name string, v Object) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.slotIndex[name]; ok {
		e.slots[i] = v
		return
	}
	e.store[name] = v
}

func (e *Environment) deleteLocal(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.slotIndex[name]; ok {
		had := e.slots[i] != nil
		e.slots[i] = nil
		return had
	}
	_, ok := e.store[name]
	delete(e.store, name)
	return ok
}

// isLocal reports whether name belongs to this function frame even while
// unbound.
func (e *Environment) isLocal(name string) bool {
	if _, ok := e.slotIndex[name]; ok {
		return true
	}
	return e.locals[name]
}

func (e *Environment) declared(name string) (global, nonlocal bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.globals[name], e.nonlocals[name]
}

// GetSlot reads a compiled local. The nearest slot frame is found past
// handler scopes.
func (e *Environment) GetSlot(index int) (Object, bool) {
	f := e.frame()
	f.mu.RLock()
	defer f.mu.RUnlock()
	if index >= len(f.slots) {
		return nil, false
	}
	v := f.slots[index]
	return v, v != nil
}

// SetSlot writes a compiled local.
func (e *Environment) SetSlot(index int, v Object) bool {
	f := e.frame()
	f.mu.Lock()
	defer f.mu.Unlock()
	if index >= len(f.slots) {
		return false
	}
	f.slots[index] = v
	return true
}

// nonlocalFrame finds the nearest enclosing function frame binding name.
func (e *Environment) nonlocalFrame(name string) *Environment {
	for o := e.outer; o != nil; o = o.outer {
		if o.kind == ModuleScope || o.kind == BuiltinsScope {
			return nil
		}
		if o.kind != FunctionScope {
			continue
		}
		if g, nl := o.declared(name); nl {
			if f := o.nonlocalFrame(name); f != nil {
				return f
			}
			return nil
		} else if g {
			return nil
		}
		if _, ok := o.getLocal(name); ok {
			return o
		}
	}
	return nil
}

func nonlocalError(name string) *Exception {
	return newException(SyntaxErrorClass, "no binding for nonlocal '%s' found", name)
}

// Get resolves name: the frame, enclosing frames (class frames only until a
// function boundary is crossed), module globals, then builtins.
func (e *Environment) Get(name string) (Object, bool, error) {
	env := e
	for env.kind == HandlerScope {
		if v, ok := env.getLocal(name); ok {
			return v, true, nil
		}
		env = env.outer
	}
	global, nonlocal := env.declared(name)
	switch {
	case global && env.kind != ModuleScope:
		v, ok := env.module().lookupGlobal(name)
		return v, ok, nil
	case nonlocal:
		f := env.nonlocalFrame(name)
		if f == nil {
			return nil, false, nonlocalError(name)
		}
		v, ok := f.getLocal(name)
		return v, ok, nil
	}
	if v, ok := env.getLocal(name); ok {
		return v, true, nil
	}
	if env.isLocal(name) {
		return nil, false, newException(UnboundLocalErrorClass, "cannot access local variable '%s' where it is not associated with a value", name)
	}
	crossed := env.kind == FunctionScope || env.kind == ComprehensionScope
	for o := env.outer; o != nil; o = o.outer {
		if o.kind == ClassScope && crossed {
			continue
		}
		if v, ok := o.getLocal(name); ok {
			return v, true, nil
		}
		if o.isLocal(name) {
			return nil, false, newException(NameErrorClass, "cannot access free variable '%s' where it is not associated with a value in enclosing scope", name)
		}
		if o.kind == FunctionScope || o.kind == ComprehensionScope {
			crossed = true
		}
	}
	return nil, false, nil
}

func (e *Environment) lookupGlobal(name string) (Object, bool) {
	if v, ok := e.getLocal(name); ok {
		return v, true
	}
	if e.outer != nil {
		return e.outer.getLocal(name)
	}
	return nil, false
}

// Set binds name in the scope it resolves to for writing.
func (e *Environment) Set(name string, v Object) error {
	env := e
	for env.kind == HandlerScope {
		if _, ok := env.getLocal(name); ok {
			env.setLocal(name, v)
			return nil
		}
		env = env.outer
	}
	global, nonlocal := env.declared(name)
	switch {
	case global && env.kind != ModuleScope:
		env.module().setLocal(name, v)
		return nil
	case nonlocal:
		f := env.nonlocalFrame(name)
		if f == nil {
			return nonlocalError(name)
		}
		f.setLocal(name, v)
		return nil
	}
	env.setLocal(name, v)
	return nil
}

// Define binds name in this exact scope, ignoring declarations.
func (e *Environment) Define(name string, v Object) {
	e.setLocal(name, v)
}

// Delete unbinds name, reporting whether it was bound.
func (e *Environment) Delete(name string) (bool, error) {
	env := e
	for env.kind == HandlerScope {
		if env.deleteLocal(name) {
			return true, nil
		}
		env = env.outer
	}
	global, nonlocal := env.declared(name)
	switch {
	case global && env.kind != ModuleScope:
		return env.module().deleteLocal(name), nil
	case nonlocal:
		f := env.nonlocalFrame(name)
		if f == nil {
			return false, nonlocalError(name)
		}
		return f.deleteLocal(name), nil
	}
	return env.deleteLocal(name), nil
}

// Names lists every name visible from e, sorted.
func (e *Environment) Names() []string {
	seen := make(map[string]bool)
	for env := e; env != nil; env = env.outer {
		env.mu.RLock()
		for n := range env.store {
			seen[n] = true
		}
		for n, i := range env.slotIndex {
			if env.slots[i] != nil {
				seen[n] = true
			}
		}
		env.mu.RUnlock()
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetStore returns a copy of the frame's name-keyed bindings.
func (e *Environment) GetStore() map[string]Object {
	e.mu.RLock()
	defer e.mu.RUnlock()
	copy := make(map[string]Object, len(e.store))
	for k, v := range e.store {
		copy[k] = v
	}
	return copy
}
