package evaluator

import (
	"sync"
)

// ScriptState is the per-script runtime: module globals, imported modules and
// the at-exit registry. Evaluators forked for host calls share it.
type ScriptState struct {
	Globals *Environment
	File    string

	mu      sync.Mutex
	modules map[string]Object
	atExit  []*atExitEntry
	exited  bool
}

type atExitEntry struct {
	fn      Object
	args    []Object
	kwargs  Kwargs
	removed bool
}

func NewScriptState(file string) *ScriptState {
	globals := NewModuleEnvironment(newBuiltinsEnvironment())
	globals.Define("__name__", NewStr("__main__"))
	return &ScriptState{
		Globals: globals,
		File:    file,
		modules: make(map[string]Object),
	}
}

// RegisterAtExit queues fn to run when the script exits.
func (s *ScriptState) RegisterAtExit(fn Object, args []Object, kwargs Kwargs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atExit = append(s.atExit, &atExitEntry{fn: fn, args: args, kwargs: kwargs})
}

// UnregisterAtExit removes every pending registration of fn.
func (s *ScriptState) UnregisterAtExit(fn Object) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, entry := range s.atExit {
		if !entry.removed && sameCallable(entry.fn, fn) {
			entry.removed = true
			found = true
		}
	}
	return found
}

// Exited reports whether at-exit callbacks already ran.
func (s *ScriptState) Exited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

// takeAtExit marks the state exited and returns the callbacks to run.
func (s *ScriptState) takeAtExit() []*atExitEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return nil
	}
	s.exited = true
	return append([]*atExitEntry(nil), s.atExit...)
}

// pendingAtExit counts registrations that have not been removed or run.
func (s *ScriptState) pendingAtExit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return 0
	}
	n := 0
	for _, entry := range s.atExit {
		if !entry.removed {
			n++
		}
	}
	return n
}

func (s *ScriptState) isRemoved(entry *atExitEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entry.removed
}

func (s *ScriptState) module(name string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[name]
	return m, ok
}

func (s *ScriptState) setModule(name string, m Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[name] = m
}

// sameCallable compares callables the way atexit.unregister does.
func sameCallable(a, b Object) bool {
	if ma, ok := a.(*BoundMethod); ok {
		mb, ok := b.(*BoundMethod)
		return ok && ma.Self == mb.Self && sameCallable(ma.Fn, mb.Fn)
	}
	if ha, ok := a.(*HostMethod); ok {
		hb, ok := b.(*HostMethod)
		return ok && ha.Receiver == hb.Receiver && ha.Class == hb.Class && ha.Name == hb.Name
	}
	return a == b
}

// RunAtExit runs the registered callbacks once each, in registration order,
// skipping unregistered ones. Every callback runs even if an earlier one
// fails; the first failure is returned.
func (e *Evaluator) RunAtExit() error {
	var first error
	for _, entry := range e.State.takeAtExit() {
		if e.State.isRemoved(entry) {
			continue
		}
		if _, err := e.Call(entry.fn, entry.args, entry.kwargs); err != nil {
			e.Logger.Debug().Err(err).Msg("at-exit callback failed")
			if _, fatal := err.(*FatalError); fatal {
				return err
			}
			if first == nil {
				first = err
			}
		}
	}
	return first
}
