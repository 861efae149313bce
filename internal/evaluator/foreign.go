package evaluator

import (
	"errors"
	"fmt"
)

// ForeignBridge resolves host class names. The evaluator never touches host
// values except through these interfaces.
type ForeignBridge interface {
	Resolve(name string) (ClassHandle, error)
}

// ClassHandle is a resolved host class.
type ClassHandle interface {
	Name() string
	Construct(args []Object) (Object, error)
	GetStaticField(name string) (Object, error)
	HasStaticMethod(name string) bool
	InvokeStatic(name string, args []Object) (Object, error)
	IsInstance(v ForeignValue) bool
}

// ForeignValue is an opaque host value.
type ForeignValue interface {
	TypeName() string
	GetField(name string) (Object, error)
	SetField(name string, v Object) error
	HasMethod(name string) bool
	InvokeMethod(name string, args []Object) (Object, error)
}

// ForeignIterable is implemented by host values that scripts can iterate.
type ForeignIterable interface {
	Elements() ([]Object, error)
}

var (
	// ErrNoSuchMember reports a host field or method that does not exist.
	ErrNoSuchMember = errors.New("no such member")
	// ErrNoSuchClass reports a class name the bridge cannot resolve.
	ErrNoSuchClass = errors.New("no such host class")
	// ErrNoMatchingOverload reports arguments no host overload accepts.
	ErrNoMatchingOverload = errors.New("no matching overload")
)

// HostError is returned by a bridge when a host call itself failed. Cause is
// the bridge's wrapper of Err, exposed to scripts as `e.cause`.
type HostError struct {
	Err   error
	Cause ForeignValue
}

func (h *HostError) Error() string { return h.Err.Error() }
func (h *HostError) Unwrap() error { return h.Err }

// HostObject is the ForeignHandle value: an opaque host value owned by the bridge.
type HostObject struct {
	Value ForeignValue
}

func (h *HostObject) Type() ObjectType { return HOST_OBJ }
func (h *HostObject) Inspect() string {
	if s, ok := h.Value.(fmt.Stringer); ok {
		return fmt.Sprintf("<%s %s>", h.Value.TypeName(), s.String())
	}
	return fmt.Sprintf("<%s object>", h.Value.TypeName())
}

// HostClass exposes a ClassHandle to scripts.
type HostClass struct {
	Handle ClassHandle
}

func (h *HostClass) Type() ObjectType { return HOST_CLASS_OBJ }
func (h *HostClass) Inspect() string  { return fmt.Sprintf("<host class '%s'>", h.Handle.Name()) }

// HostMethod is a host method or static method bound for a later call.
type HostMethod struct {
	Receiver ForeignValue // nil for static methods
	Class    ClassHandle
	Name     string
}

func (m *HostMethod) Type() ObjectType { return BUILTIN_OBJ }
func (m *HostMethod) Inspect() string {
	if m.Receiver != nil {
		return fmt.Sprintf("<host method %s.%s>", m.Receiver.TypeName(), m.Name)
	}
	return fmt.Sprintf("<host method %s.%s>", m.Class.Name(), m.Name)
}

// HostPackage is the result of importing a host package: attribute access
// resolves "<package>.<name>" through the bridge.
type HostPackage struct {
	Path string
}

func (p *HostPackage) Type() ObjectType { return MODULE_OBJ }
func (p *HostPackage) Inspect() string  { return fmt.Sprintf("<host package '%s'>", p.Path) }

// hostCallError converts a bridge failure into a script exception.
func hostCallError(err error, what string) error {
	var exc *Exception
	if errors.As(err, &exc) {
		return exc
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return fatal
	}
	switch {
	case errors.Is(err, ErrNoSuchMember):
		return newException(AttributeErrorClass, "%s: %v", what, err)
	case errors.Is(err, ErrNoSuchClass):
		return newException(ImportErrorClass, "%v", err)
	case errors.Is(err, ErrNoMatchingOverload):
		return newException(TypeErrorClass, "%s: %v", what, err)
	}
	inst := NewInstance(HostErrorClass)
	inst.SetField("args", NewTuple(NewStr(err.Error())))
	inst.SetField("cause", None)
	var hostErr *HostError
	if errors.As(err, &hostErr) && hostErr.Cause != nil {
		inst.SetField("cause", &HostObject{Value: hostErr.Cause})
	}
	return &Exception{Value: inst}
}
