package evaluator

import (
	"fmt"
	"strings"
)

// CallFrame represents a single frame in the call stack
type CallFrame struct {
	Name string // Function name
	File string // Source file
	Line int    // Line currently executing
}

// Control flow leaves statements as error values. returnSignal, breakSignal
// and continueSignal are consumed by the nearest call or loop; *Exception is
// consumed by try; *FatalError is never consumed.

type returnSignal struct {
	value Object
}

func (r *returnSignal) Error() string { return "'return' outside function" }

type breakSignal struct{}

func (b *breakSignal) Error() string { return "'break' outside loop" }

type continueSignal struct{}

func (c *continueSignal) Error() string { return "'continue' not properly in loop" }

var (
	errBreak    = &breakSignal{}
	errContinue = &continueSignal{}
)

// Exception is a raised script exception. Value is an Instance of a
// BaseException subclass or a HostObject.
type Exception struct {
	Value     Object
	Line      int
	File      string
	Traceback []CallFrame
	Hint      string // suggested name, reported but not part of the value
}

func (e *Exception) Error() string {
	name, msg := e.TypeName(), e.Message()
	if msg != "" {
		name += ": " + msg
	}
	if e.Hint != "" {
		name += ". Did you mean: '" + e.Hint + "'?"
	}
	return name
}

// TypeName is the exception's class name.
func (e *Exception) TypeName() string {
	switch v := e.Value.(type) {
	case *Instance:
		return v.Class.Name
	case *HostObject:
		return v.Value.TypeName()
	}
	return string(e.Value.Type())
}

// Message is str() of the exception value, without evaluating user code.
func (e *Exception) Message() string {
	switch v := e.Value.(type) {
	case *Instance:
		return exceptionMessage(v)
	case *HostObject:
		if s, ok := v.Value.(fmt.Stringer); ok {
			return s.String()
		}
		if err, ok := v.Value.(error); ok {
			return err.Error()
		}
	}
	return ""
}

// Is reports whether the exception is an instance of cls.
func (e *Exception) Is(cls *Class) bool {
	inst, ok := e.Value.(*Instance)
	return ok && inst.Class.IsSubclass(cls)
}

// FormatTraceback renders the exception the way an uncaught one is reported.
func (e *Exception) FormatTraceback() string {
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for _, f := range e.Traceback {
		fmt.Fprintf(&b, "  File \"%s\", line %d, in %s\n", f.File, f.Line, f.Name)
	}
	b.WriteString(e.Error())
	return b.String()
}

// FatalError aborts execution. try/except and finally never intercept it.
type FatalError struct {
	Message   string
	Line      int
	Traceback []CallFrame
}

func (f *FatalError) Error() string {
	return "fatal: " + f.Message
}

// isSignal reports whether err is loop or function control flow rather than
// an exception.
func isSignal(err error) bool {
	switch err.(type) {
	case *returnSignal, *breakSignal, *continueSignal:
		return true
	}
	return false
}
