// Package hostbridge exposes Go types to scripts. A Registry maps dotted
// class names such as "uuid.UUID" to Go types with their constructors and
// static members, and implements evaluator.ForeignBridge.
package hostbridge

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/utils"
)

// ClassSpec describes a host class.
type ClassSpec struct {
	// Name is the dotted name scripts import, e.g. "strings.Builder".
	Name string
	// Type is the Go type of instances. Pointers to it count as instances.
	Type reflect.Type
	// Constructors are Go funcs returning Type (or *Type), optionally
	// followed by an error. Overloads are resolved per call.
	Constructors []interface{}
	// Statics maps script names to Go funcs (static methods) or values
	// (static fields).
	Statics map[string]interface{}
}

// Registry implements evaluator.ForeignBridge over registered Go types.
type Registry struct {
	mu         sync.RWMutex
	classes    map[string]*Class
	byType     map[reflect.Type]*Class
	marshaller *Marshaller
}

func NewRegistry() *Registry {
	r := &Registry{
		classes: make(map[string]*Class),
		byType:  make(map[reflect.Type]*Class),
	}
	r.marshaller = NewMarshaller(r)
	return r
}

// Marshaller returns the converter shared by every class of r.
func (r *Registry) Marshaller() *Marshaller {
	return r.marshaller
}

// Register adds a class. Names must be dotted and unique.
func (r *Registry) Register(spec ClassSpec) error {
	if !strings.Contains(spec.Name, ".") {
		return fmt.Errorf("host class name %q must be qualified by a package", spec.Name)
	}
	if spec.Type == nil {
		return fmt.Errorf("host class %s: missing type", spec.Name)
	}
	c := &Class{
		name:    spec.Name,
		typ:     spec.Type,
		reg:     r,
		statics: make(map[string]reflect.Value),
		fields:  make(map[string]reflect.Value),
	}
	for i, ctor := range spec.Constructors {
		fn := reflect.ValueOf(ctor)
		if err := checkConstructor(fn, spec.Type); err != nil {
			return fmt.Errorf("host class %s: constructor %d: %w", spec.Name, i, err)
		}
		c.ctors = append(c.ctors, fn)
	}
	for name, v := range spec.Statics {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Func {
			c.statics[name] = rv
		} else {
			c.fields[name] = rv
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.classes[spec.Name]; dup {
		return fmt.Errorf("host class %s already registered", spec.Name)
	}
	r.classes[spec.Name] = c
	r.byType[spec.Type] = c
	return nil
}

// MustRegister is Register for static setup code.
func (r *Registry) MustRegister(spec ClassSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

func checkConstructor(fn reflect.Value, typ reflect.Type) error {
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("not a function: %s", fn.Type())
	}
	t := fn.Type()
	outs := t.NumOut()
	if outs == 2 && t.Out(1) == errorType {
		outs = 1
	}
	if outs != 1 || t.NumOut() > 2 {
		return fmt.Errorf("must return one value and an optional error, got %s", t)
	}
	out := t.Out(0)
	if out != typ && !(out.Kind() == reflect.Ptr && out.Elem() == typ) {
		return fmt.Errorf("returns %s, want %s", out, typ)
	}
	return nil
}

// Resolve implements evaluator.ForeignBridge.
func (r *Registry) Resolve(name string) (evaluator.ClassHandle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.classes[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", evaluator.ErrNoSuchClass, name)
}

// Names lists registered class names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// classOf finds the class registered for t or for the type t points to.
func (r *Registry) classOf(t reflect.Type) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byType[t]; ok {
		return c
	}
	if t.Kind() == reflect.Ptr {
		return r.byType[t.Elem()]
	}
	return nil
}

// Class is a registered host class.
type Class struct {
	name    string
	typ     reflect.Type
	reg     *Registry
	ctors   []reflect.Value
	statics map[string]reflect.Value
	fields  map[string]reflect.Value
}

func (c *Class) Name() string { return c.name }

// Type is the Go type of the class's instances.
func (c *Class) Type() reflect.Type { return c.typ }

func (c *Class) Construct(args []evaluator.Object) (evaluator.Object, error) {
	if len(c.ctors) == 0 {
		return nil, fmt.Errorf("%w: %s has no constructor", evaluator.ErrNoMatchingOverload, c.name)
	}
	return c.reg.invoke(c.ctors, args)
}

func lookupMember(members map[string]reflect.Value, name string) (reflect.Value, bool) {
	for _, candidate := range utils.MemberCandidates(name) {
		if v, ok := members[candidate]; ok {
			return v, true
		}
	}
	return reflect.Value{}, false
}

func (c *Class) GetStaticField(name string) (evaluator.Object, error) {
	v, ok := lookupMember(c.fields, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no static field %s", evaluator.ErrNoSuchMember, c.name, name)
	}
	return c.reg.marshaller.toValue(v)
}

func (c *Class) HasStaticMethod(name string) bool {
	_, ok := lookupMember(c.statics, name)
	return ok
}

func (c *Class) InvokeStatic(name string, args []evaluator.Object) (evaluator.Object, error) {
	fn, ok := lookupMember(c.statics, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no static method %s", evaluator.ErrNoSuchMember, c.name, name)
	}
	return c.reg.invoke([]reflect.Value{fn}, args)
}

func (c *Class) IsInstance(v evaluator.ForeignValue) bool {
	hv, ok := v.(interface{ reflectValue() reflect.Value })
	if !ok {
		return false
	}
	t := hv.reflectValue().Type()
	return t == c.typ || (t.Kind() == reflect.Ptr && t.Elem() == c.typ)
}
