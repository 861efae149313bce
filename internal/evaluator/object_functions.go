package evaluator

import (
	"fmt"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/compiler"
)

// Function is a def or lambda closed over its defining environment.
type Function struct {
	Name       string
	Args       *ast.Arguments
	Defaults   []Object // evaluated once, aligned with the tail of Args.Args
	KwDefaults []Object // aligned with Args.KwOnlyArgs; nil when absent
	Body       []ast.Stmt
	Expr       ast.Expr // lambda body
	Env        *Environment
	Globals    map[string]bool
	Nonlocals  map[string]bool
	Locals     map[string]bool // unslotted defs only; plans carry their own
	Plan       *compiler.Plan
	Owner      *Class // class whose body defined the function, for super()
	Line       int
	File       string
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.Owner != nil {
		return fmt.Sprintf("<function %s.%s>", f.Owner.Name, f.Name)
	}
	return fmt.Sprintf("<function %s>", f.Name)
}

// KeywordArg is one keyword argument at a call site.
type KeywordArg struct {
	Name  string
	Value Object
}

// Kwargs is the ordered keyword argument list passed to builtins.
type Kwargs []KeywordArg

// Get returns the value of keyword name.
func (k Kwargs) Get(name string) (Object, bool) {
	for _, kw := range k {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

type BuiltinFunction func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error)

type Builtin struct {
	Fn   BuiltinFunction
	Name string
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return fmt.Sprintf("<built-in function %s>", b.Name) }

// BoundMethod pairs a callable with the receiver passed as its first argument.
type BoundMethod struct {
	Self Object
	Fn   Object
}

func (m *BoundMethod) Type() ObjectType { return BOUND_METHOD_OBJ }
func (m *BoundMethod) Inspect() string {
	name := "?"
	switch fn := m.Fn.(type) {
	case *Function:
		name = fn.Name
		if fn.Owner != nil {
			name = fn.Owner.Name + "." + name
		}
	case *Builtin:
		name = fn.Name
	}
	return fmt.Sprintf("<bound method %s of %s>", name, m.Self.Inspect())
}

// Class is the descriptor shared by every instance of a class statement.
type Class struct {
	Name  string
	Base  *Class
	Dict  map[string]Object
	Order []string
}

func NewClass(name string, base *Class) *Class {
	return &Class{Name: name, Base: base, Dict: make(map[string]Object)}
}

func (c *Class) Type() ObjectType { return TYPE_OBJ }
func (c *Class) Inspect() string  { return fmt.Sprintf("<class '%s'>", c.Name) }

// Lookup finds name in the class or its base chain.
func (c *Class) Lookup(name string) (Object, *Class, bool) {
	for k := c; k != nil; k = k.Base {
		if v, ok := k.Dict[name]; ok {
			return v, k, true
		}
	}
	return nil, nil, false
}

// SetAttr binds name in the class dictionary, preserving definition order.
func (c *Class) SetAttr(name string, v Object) {
	if _, ok := c.Dict[name]; !ok {
		c.Order = append(c.Order, name)
	}
	c.Dict[name] = v
}

// IsSubclass reports whether c is other or derives from it.
func (c *Class) IsSubclass(other *Class) bool {
	if other == objectClass {
		return true
	}
	for k := c; k != nil; k = k.Base {
		if k == other {
			return true
		}
	}
	return false
}

// Instance owns its fields and shares its class descriptor.
type Instance struct {
	Class  *Class
	Fields map[string]Object
	order  []string
}

func NewInstance(c *Class) *Instance {
	return &Instance{Class: c, Fields: make(map[string]Object)}
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string {
	if i.Class.IsSubclass(BaseExceptionClass) {
		return i.Class.Name + "(" + inspectAll(exceptionArgs(i).Elements) + ")"
	}
	return fmt.Sprintf("<%s object>", i.Class.Name)
}

func (i *Instance) SetField(name string, v Object) {
	if _, ok := i.Fields[name]; !ok {
		i.order = append(i.order, name)
	}
	i.Fields[name] = v
}

func (i *Instance) DeleteField(name string) bool {
	if _, ok := i.Fields[name]; !ok {
		return false
	}
	delete(i.Fields, name)
	for j, n := range i.order {
		if n == name {
			i.order = append(i.order[:j], i.order[j+1:]...)
			break
		}
	}
	return true
}

// FieldNames returns field names in assignment order.
func (i *Instance) FieldNames() []string {
	return append([]string(nil), i.order...)
}

// Module is a builtin module or an imported host package.
type Module struct {
	Name    string
	Members map[string]Object
}

func (m *Module) Type() ObjectType { return MODULE_OBJ }
func (m *Module) Inspect() string  { return fmt.Sprintf("<module '%s'>", m.Name) }

// BuiltinType is a native type such as int or list. Calling it constructs a
// value; isinstance matches values whose Type() equals Name.
type BuiltinType struct {
	Name    ObjectType
	New     BuiltinFunction
	Methods map[string]*Builtin
}

func (t *BuiltinType) Type() ObjectType { return TYPE_OBJ }
func (t *BuiltinType) Inspect() string  { return fmt.Sprintf("<class '%s'>", t.Name) }

// SuperProxy resolves attributes starting above Class, bound to Self.
type SuperProxy struct {
	Class *Class
	Self  Object
}

func (s *SuperProxy) Type() ObjectType { return SUPER_OBJ }
func (s *SuperProxy) Inspect() string {
	return fmt.Sprintf("<super: <class '%s'>, %s>", s.Class.Name, s.Self.Inspect())
}

// WrapperKind distinguishes staticmethod, classmethod and property.
type WrapperKind int

const (
	StaticMethodWrapper WrapperKind = iota
	ClassMethodWrapper
	PropertyWrapper
)

// MethodWrapper is the value produced by staticmethod/classmethod/property.
type MethodWrapper struct {
	Kind   WrapperKind
	Fn     Object // wrapped callable, or the property getter
	Setter Object
}

func (w *MethodWrapper) Type() ObjectType { return WRAPPER_OBJ }
func (w *MethodWrapper) Inspect() string {
	switch w.Kind {
	case StaticMethodWrapper:
		return "<staticmethod object>"
	case ClassMethodWrapper:
		return "<classmethod object>"
	}
	return "<property object>"
}
