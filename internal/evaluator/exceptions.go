package evaluator

import (
	"fmt"

	"github.com/funvibe/pyhost/internal/config"
)

var objectClass = NewClass("object", nil)

// Built-in exception hierarchy.
var (
	BaseExceptionClass        = newExceptionClass("BaseException", nil)
	ExceptionClass            = newExceptionClass("Exception", BaseExceptionClass)
	ArithmeticErrorClass      = newExceptionClass("ArithmeticError", ExceptionClass)
	ZeroDivisionErrorClass    = newExceptionClass("ZeroDivisionError", ArithmeticErrorClass)
	OverflowErrorClass        = newExceptionClass("OverflowError", ArithmeticErrorClass)
	LookupErrorClass          = newExceptionClass("LookupError", ExceptionClass)
	KeyErrorClass             = newExceptionClass("KeyError", LookupErrorClass)
	IndexErrorClass           = newExceptionClass("IndexError", LookupErrorClass)
	NameErrorClass            = newExceptionClass("NameError", ExceptionClass)
	UnboundLocalErrorClass    = newExceptionClass("UnboundLocalError", NameErrorClass)
	AttributeErrorClass       = newExceptionClass("AttributeError", ExceptionClass)
	TypeErrorClass            = newExceptionClass("TypeError", ExceptionClass)
	ArgumentBindingErrorClass = newExceptionClass("ArgumentBindingError", TypeErrorClass)
	ValueErrorClass           = newExceptionClass("ValueError", ExceptionClass)
	AssertionErrorClass       = newExceptionClass("AssertionError", ExceptionClass)
	RuntimeErrorClass         = newExceptionClass("RuntimeError", ExceptionClass)
	NotImplementedErrorClass  = newExceptionClass("NotImplementedError", RuntimeErrorClass)
	SyntaxErrorClass          = newExceptionClass("SyntaxError", ExceptionClass)
	ImportErrorClass          = newExceptionClass("ImportError", ExceptionClass)
	StopIterationClass        = newExceptionClass("StopIteration", ExceptionClass)
	HostErrorClass            = newExceptionClass("HostError", ExceptionClass)
)

var exceptionClasses = []*Class{
	BaseExceptionClass, ExceptionClass, ArithmeticErrorClass, ZeroDivisionErrorClass,
	OverflowErrorClass, LookupErrorClass, KeyErrorClass, IndexErrorClass, NameErrorClass,
	UnboundLocalErrorClass, AttributeErrorClass, TypeErrorClass, ArgumentBindingErrorClass,
	ValueErrorClass, AssertionErrorClass, RuntimeErrorClass, NotImplementedErrorClass,
	SyntaxErrorClass, ImportErrorClass, StopIterationClass, HostErrorClass,
}

func newExceptionClass(name string, base *Class) *Class {
	return NewClass(name, base)
}

func init() {
	BaseExceptionClass.SetAttr(config.InitMethod, &Builtin{Name: "__init__", Fn: exceptionInit})
	BaseExceptionClass.SetAttr(config.StrMethod, &Builtin{Name: "__str__", Fn: func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return NewStr(exceptionMessage(args[0].(*Instance))), nil
	}})
	BaseExceptionClass.SetAttr(config.ReprMethod, &Builtin{Name: "__repr__", Fn: func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return NewStr(args[0].Inspect()), nil
	}})
}

func exceptionInit(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	inst, ok := args[0].(*Instance)
	if !ok {
		return nil, newException(TypeErrorClass, "descriptor '__init__' requires an exception instance")
	}
	if len(kwargs) > 0 {
		return nil, newException(TypeErrorClass, "%s() takes no keyword arguments", inst.Class.Name)
	}
	inst.SetField("args", NewTuple(args[1:]...))
	return None, nil
}

// exceptionArgs returns the args tuple of an exception instance.
func exceptionArgs(inst *Instance) *Tuple {
	if t, ok := inst.Fields["args"].(*Tuple); ok {
		return t
	}
	return NewTuple()
}

// exceptionMessage is str(exc) for instances that do not override __str__.
func exceptionMessage(inst *Instance) string {
	args := exceptionArgs(inst)
	switch len(args.Elements) {
	case 0:
		return ""
	case 1:
		if inst.Class.IsSubclass(KeyErrorClass) {
			return args.Elements[0].Inspect()
		}
		return plainStr(args.Elements[0])
	}
	return args.Inspect()
}

// plainStr is str() for values that need no evaluator.
func plainStr(o Object) string {
	if s, ok := o.(*Str); ok {
		return s.Value
	}
	return o.Inspect()
}

// newException builds an uncaught exception of class cls with a message.
// Line and traceback are filled in as it propagates through statements.
func newException(cls *Class, format string, args ...interface{}) *Exception {
	inst := NewInstance(cls)
	inst.SetField("args", NewTuple(NewStr(fmt.Sprintf(format, args...))))
	return &Exception{Value: inst}
}

// NewInstanceWithArgs creates an exception instance without running __init__.
func NewInstanceWithArgs(cls *Class, args ...Object) *Instance {
	inst := NewInstance(cls)
	inst.SetField("args", NewTuple(args...))
	return inst
}

func newExceptionValue(cls *Class, value Object) *Exception {
	inst := NewInstance(cls)
	inst.SetField("args", NewTuple(value))
	return &Exception{Value: inst}
}

func unhashableError(o Object) *Exception {
	return newException(TypeErrorClass, "unhashable type: '%s'", typeName(o))
}

func zeroDivision(msg string) *Exception {
	return newException(ZeroDivisionErrorClass, "%s", msg)
}

func unsupportedOperands(op string, a, b Object) *Exception {
	return newException(TypeErrorClass, "unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(a), typeName(b))
}

func bindingError(format string, args ...interface{}) *Exception {
	return newException(ArgumentBindingErrorClass, format, args...)
}

// typeName is the name used in error messages.
func typeName(o Object) string {
	switch v := o.(type) {
	case *Instance:
		return v.Class.Name
	case *HostObject:
		return v.Value.TypeName()
	case *HostClass:
		return "host class"
	}
	return string(o.Type())
}
