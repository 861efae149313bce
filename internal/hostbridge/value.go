package hostbridge

import (
	"fmt"
	"reflect"

	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/utils"
)

// Value is a Go value seen by scripts as a host object. Fields and methods
// are reached by reflection; a script name matches a Go member exactly or
// with its first letter upper-cased.
type Value struct {
	v   reflect.Value
	reg *Registry
}

// stringerValue is a Value whose Go value renders itself.
type stringerValue struct {
	*Value
}

func (s stringerValue) String() string {
	switch x := s.v.Interface().(type) {
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	return ""
}

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// sequenceValue is a Go slice or array kept as a host object, such as a
// byte slice. Scripts can iterate it and take its len.
type sequenceValue struct {
	*Value
}

func newValue(v reflect.Value, reg *Registry) evaluator.ForeignValue {
	val := &Value{v: v, reg: reg}
	switch {
	case v.Type().Implements(stringerType) || v.Type().Implements(errorType):
		return stringerValue{val}
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
		return sequenceValue{val}
	}
	return val
}

// Unwrap returns the Go value behind a host object created by this package.
func Unwrap(obj evaluator.Object) (interface{}, bool) {
	h, ok := obj.(*evaluator.HostObject)
	if !ok {
		return nil, false
	}
	hv, ok := h.Value.(interface{ reflectValue() reflect.Value })
	if !ok {
		return nil, false
	}
	v := hv.reflectValue()
	if !v.CanInterface() {
		return nil, false
	}
	return v.Interface(), true
}

func (x *Value) reflectValue() reflect.Value { return x.v }

// Interface returns the wrapped Go value.
func (x *Value) Interface() interface{} { return x.v.Interface() }

func (x *Value) TypeName() string {
	if x.reg != nil {
		if c := x.reg.classOf(x.v.Type()); c != nil {
			return c.name
		}
	}
	return x.v.Type().String()
}

// structValue is the struct behind x, if any.
func (x *Value) structValue() (reflect.Value, bool) {
	v := x.v
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.Kind() == reflect.Struct
}

func (x *Value) field(name string) (reflect.Value, bool) {
	s, ok := x.structValue()
	if !ok {
		return reflect.Value{}, false
	}
	for _, candidate := range utils.MemberCandidates(name) {
		sf, ok := s.Type().FieldByName(candidate)
		if !ok || sf.PkgPath != "" {
			continue
		}
		return s.FieldByIndex(sf.Index), true
	}
	return reflect.Value{}, false
}

func (x *Value) method(name string) (reflect.Value, bool) {
	for _, candidate := range utils.MemberCandidates(name) {
		if m := x.v.MethodByName(candidate); m.IsValid() {
			return m, true
		}
		if x.v.Kind() != reflect.Ptr && x.v.CanAddr() {
			if m := x.v.Addr().MethodByName(candidate); m.IsValid() {
				return m, true
			}
		}
	}
	return reflect.Value{}, false
}

func (x *Value) GetField(name string) (evaluator.Object, error) {
	f, ok := x.field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %s", evaluator.ErrNoSuchMember, x.TypeName(), name)
	}
	return x.reg.marshaller.toValue(f)
}

func (x *Value) SetField(name string, v evaluator.Object) error {
	f, ok := x.field(name)
	if !ok {
		return fmt.Errorf("%w: %s has no field %s", evaluator.ErrNoSuchMember, x.TypeName(), name)
	}
	if !f.CanSet() {
		return fmt.Errorf("field %s of %s is not settable", name, x.TypeName())
	}
	gv, _, err := x.reg.marshaller.convert(v, f.Type())
	if err != nil {
		return fmt.Errorf("%w: field %s: %v", evaluator.ErrNoMatchingOverload, name, err)
	}
	f.Set(gv)
	return nil
}

func (x *Value) HasMethod(name string) bool {
	_, ok := x.method(name)
	return ok
}

func (x *Value) InvokeMethod(name string, args []evaluator.Object) (evaluator.Object, error) {
	m, ok := x.method(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no method %s", evaluator.ErrNoSuchMember, x.TypeName(), name)
	}
	return x.reg.invoke([]reflect.Value{m}, args)
}

func (s sequenceValue) Elements() ([]evaluator.Object, error) {
	out := make([]evaluator.Object, s.v.Len())
	for i := range out {
		v, err := s.reg.marshaller.toValue(s.v.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
