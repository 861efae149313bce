package hostbridge

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/funvibe/pyhost/internal/evaluator"
)

var (
	objectType = reflect.TypeOf((*evaluator.Object)(nil)).Elem()
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// Conversion costs used to rank overloads. An exact match costs nothing.
const (
	costExact    = 0
	costWiden    = 1
	costConvert  = 2
	costFallback = 4
)

// CallFunc invokes a script callable on behalf of Go code.
type CallFunc func(fn evaluator.Object, args []evaluator.Object) (evaluator.Object, error)

// Marshaller handles conversion between Go and script values.
type Marshaller struct {
	reg *Registry

	// Call runs script callables passed to Go function parameters. Without
	// it callables cannot be converted to Go funcs.
	Call CallFunc
}

func NewMarshaller(reg *Registry) *Marshaller {
	return &Marshaller{reg: reg}
}

// ToValue converts a Go value to a script Object.
func (m *Marshaller) ToValue(val interface{}) (evaluator.Object, error) {
	if obj, ok := val.(evaluator.Object); ok {
		return obj, nil
	}
	return m.toValue(reflect.ValueOf(val))
}

func (m *Marshaller) toValue(v reflect.Value) (evaluator.Object, error) {
	if !v.IsValid() {
		return evaluator.None, nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return evaluator.None, nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return evaluator.None, nil
	}
	if v.CanInterface() {
		if obj, ok := v.Interface().(evaluator.Object); ok {
			return obj, nil
		}
	}
	if m.reg != nil && m.reg.classOf(v.Type()) != nil {
		return m.wrap(v), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return evaluator.True, nil
		}
		return evaluator.False, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return evaluator.NewInt(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := v.Uint(); u <= math.MaxInt64 {
			return evaluator.NewInt(int64(u)), nil
		}
		return &evaluator.Float{Value: float64(v.Uint())}, nil
	case reflect.Float32:
		return &evaluator.Float32{Value: float32(v.Float())}, nil
	case reflect.Float64:
		return &evaluator.Float{Value: v.Float()}, nil
	case reflect.String:
		return evaluator.NewStr(v.String()), nil
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return m.wrap(v), nil
		}
		return m.sliceToList(v)
	case reflect.Map:
		return m.mapToDict(v)
	case reflect.Ptr:
		return m.wrap(v), nil
	case reflect.Func:
		if v.IsNil() {
			return evaluator.None, nil
		}
		return m.funcToBuiltin(v), nil
	}
	return m.wrap(v), nil
}

func (m *Marshaller) wrap(v reflect.Value) *evaluator.HostObject {
	return &evaluator.HostObject{Value: newValue(v, m.reg)}
}

func (m *Marshaller) sliceToList(v reflect.Value) (*evaluator.List, error) {
	elements := make([]evaluator.Object, v.Len())
	for i := 0; i < v.Len(); i++ {
		val, err := m.toValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		elements[i] = val
	}
	return &evaluator.List{Elements: elements}, nil
}

// mapToDict converts a Go map. Keys are inserted in sorted order so the
// resulting dict is deterministic.
func (m *Marshaller) mapToDict(v reflect.Value) (*evaluator.Dict, error) {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	result := evaluator.NewDict()
	for _, k := range keys {
		key, err := m.toValue(k)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		val, err := m.toValue(v.MapIndex(k))
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		if err := result.Set(key, val); err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
	}
	return result, nil
}

func (m *Marshaller) funcToBuiltin(fn reflect.Value) *evaluator.Builtin {
	name := fn.Type().String()
	return &evaluator.Builtin{Name: name, Fn: func(_ *evaluator.Evaluator, args []evaluator.Object, kwargs evaluator.Kwargs) (evaluator.Object, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%w: host functions take no keyword arguments", evaluator.ErrNoMatchingOverload)
		}
		return m.reg.invoke([]reflect.Value{fn}, args)
	}}
}

// FromValue converts a script Object to a Go value. A nil targetType picks
// the natural Go representation.
func (m *Marshaller) FromValue(obj evaluator.Object, targetType reflect.Type) (interface{}, error) {
	if targetType == nil {
		return m.natural(obj)
	}
	v, _, err := m.convert(obj, targetType)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// natural is the Go value a script value becomes when nothing constrains it.
func (m *Marshaller) natural(obj evaluator.Object) (interface{}, error) {
	switch o := obj.(type) {
	case nil, *evaluator.NoneType:
		return nil, nil
	case *evaluator.Bool:
		return o.Value, nil
	case *evaluator.Int:
		return int64(o.Value), nil
	case *evaluator.Long:
		return o.Value, nil
	case *evaluator.Float32:
		return o.Value, nil
	case *evaluator.Float:
		return o.Value, nil
	case *evaluator.Str:
		return o.Value, nil
	case *evaluator.List:
		return m.naturalSlice(o.Elements)
	case *evaluator.Tuple:
		return m.naturalSlice(o.Elements)
	case *evaluator.Dict:
		return m.naturalMap(o)
	case *evaluator.HostObject:
		if v, ok := Unwrap(o); ok {
			return v, nil
		}
	}
	return obj, nil
}

func (m *Marshaller) naturalSlice(elems []evaluator.Object) ([]interface{}, error) {
	out := make([]interface{}, len(elems))
	for i, el := range elems {
		v, err := m.natural(el)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// naturalMap produces map[string]interface{} when every key is a string,
// otherwise map[interface{}]interface{}.
func (m *Marshaller) naturalMap(d *evaluator.Dict) (interface{}, error) {
	items := d.Items()
	allStr := true
	for _, item := range items {
		if _, ok := item.(*evaluator.Tuple).Elements[0].(*evaluator.Str); !ok {
			allStr = false
			break
		}
	}
	if allStr {
		out := make(map[string]interface{}, len(items))
		for _, item := range items {
			kv := item.(*evaluator.Tuple).Elements
			v, err := m.natural(kv[1])
			if err != nil {
				return nil, err
			}
			out[kv[0].(*evaluator.Str).Value] = v
		}
		return out, nil
	}
	out := make(map[interface{}]interface{}, len(items))
	for _, item := range items {
		kv := item.(*evaluator.Tuple).Elements
		k, err := m.natural(kv[0])
		if err != nil {
			return nil, err
		}
		if k != nil && !reflect.TypeOf(k).Comparable() {
			return nil, fmt.Errorf("unhashable map key of type %T", k)
		}
		v, err := m.natural(kv[1])
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

var errIncompatible = errors.New("incompatible value")

func incompatible(obj evaluator.Object, target reflect.Type) error {
	return fmt.Errorf("%w: cannot use %s as %s", errIncompatible, typeName(obj), target)
}

func typeName(obj evaluator.Object) string {
	if h, ok := obj.(*evaluator.HostObject); ok {
		return h.Value.TypeName()
	}
	if inst, ok := obj.(*evaluator.Instance); ok {
		return inst.Class.Name
	}
	return string(obj.Type())
}

// convert produces a value assignable to target and the cost of the
// conversion, for overload ranking.
func (m *Marshaller) convert(obj evaluator.Object, target reflect.Type) (reflect.Value, int, error) {
	if target == objectType {
		return reflect.ValueOf(&obj).Elem(), costFallback, nil
	}
	if obj == evaluator.None {
		switch target.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
			return reflect.Zero(target), costExact, nil
		}
		return reflect.Value{}, 0, incompatible(obj, target)
	}
	if h, ok := obj.(*evaluator.HostObject); ok {
		return m.convertHost(h, target)
	}

	switch target.Kind() {
	case reflect.Interface:
		if target.NumMethod() == 0 {
			v, err := m.natural(obj)
			if err != nil {
				return reflect.Value{}, 0, err
			}
			if v == nil {
				return reflect.Zero(target), costExact, nil
			}
			return reflect.ValueOf(v), costConvert, nil
		}
	case reflect.Bool:
		if b, ok := obj.(*evaluator.Bool); ok {
			return reflect.ValueOf(b.Value).Convert(target), costExact, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, cost, ok := integer(obj)
		if !ok {
			break
		}
		if target.Kind() == reflect.Int64 && cost == costExact {
			if _, narrow := obj.(*evaluator.Int); narrow {
				cost = costWiden
			}
		}
		v := reflect.New(target).Elem()
		if v.OverflowInt(n) {
			return reflect.Value{}, 0, fmt.Errorf("%w: %d overflows %s", errIncompatible, n, target)
		}
		v.SetInt(n)
		return v, cost, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, cost, ok := integer(obj)
		if !ok {
			break
		}
		v := reflect.New(target).Elem()
		if n < 0 || v.OverflowUint(uint64(n)) {
			return reflect.Value{}, 0, fmt.Errorf("%w: %d overflows %s", errIncompatible, n, target)
		}
		v.SetUint(uint64(n))
		return v, cost + costWiden, nil
	case reflect.Float32, reflect.Float64:
		f, cost, ok := float(obj, target.Kind())
		if !ok {
			break
		}
		v := reflect.New(target).Elem()
		v.SetFloat(f)
		return v, cost, nil
	case reflect.String:
		if s, ok := obj.(*evaluator.Str); ok {
			return reflect.ValueOf(s.Value).Convert(target), costExact, nil
		}
	case reflect.Slice:
		if s, ok := obj.(*evaluator.Str); ok && target.Elem().Kind() == reflect.Uint8 {
			return reflect.ValueOf([]byte(s.Value)).Convert(target), costConvert, nil
		}
		switch o := obj.(type) {
		case *evaluator.List:
			return m.convertSlice(o.Elements, target)
		case *evaluator.Tuple:
			return m.convertSlice(o.Elements, target)
		}
	case reflect.Map:
		if d, ok := obj.(*evaluator.Dict); ok {
			return m.convertMap(d, target)
		}
	case reflect.Func:
		if evaluator.IsCallable(obj) {
			return m.callableToFunc(obj, target)
		}
	}
	return reflect.Value{}, 0, incompatible(obj, target)
}

// integer extracts an integer, reporting Bool as a widening.
func integer(obj evaluator.Object) (int64, int, bool) {
	switch o := obj.(type) {
	case *evaluator.Int:
		return int64(o.Value), costExact, true
	case *evaluator.Long:
		return o.Value, costExact, true
	case *evaluator.Bool:
		if o.Value {
			return 1, costConvert, true
		}
		return 0, costConvert, true
	}
	return 0, 0, false
}

// float extracts a float; integers and width changes cost more than a
// same-width match.
func float(obj evaluator.Object, kind reflect.Kind) (float64, int, bool) {
	switch o := obj.(type) {
	case *evaluator.Float:
		if kind == reflect.Float64 {
			return o.Value, costExact, true
		}
		return o.Value, costConvert, true
	case *evaluator.Float32:
		if kind == reflect.Float32 {
			return float64(o.Value), costExact, true
		}
		return float64(o.Value), costWiden, true
	case *evaluator.Int:
		return float64(o.Value), costConvert, true
	case *evaluator.Long:
		return float64(o.Value), costConvert, true
	}
	return 0, 0, false
}

func (m *Marshaller) convertHost(h *evaluator.HostObject, target reflect.Type) (reflect.Value, int, error) {
	hv, ok := h.Value.(interface{ reflectValue() reflect.Value })
	if !ok {
		if reflect.TypeOf(h.Value).AssignableTo(target) {
			return reflect.ValueOf(h.Value), costExact, nil
		}
		return reflect.Value{}, 0, incompatible(h, target)
	}
	v := hv.reflectValue()
	switch {
	case v.Type() == target:
		return v, costExact, nil
	case v.Type().AssignableTo(target):
		return v, costWiden, nil
	case v.Kind() == reflect.Ptr && v.Elem().Type().AssignableTo(target):
		return v.Elem(), costConvert, nil
	}
	return reflect.Value{}, 0, incompatible(h, target)
}

func (m *Marshaller) convertSlice(elems []evaluator.Object, target reflect.Type) (reflect.Value, int, error) {
	out := reflect.MakeSlice(target, len(elems), len(elems))
	worst := costExact
	for i, el := range elems {
		v, cost, err := m.convert(el, target.Elem())
		if err != nil {
			return reflect.Value{}, 0, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(v)
		if cost > worst {
			worst = cost
		}
	}
	return out, worst, nil
}

func (m *Marshaller) convertMap(d *evaluator.Dict, target reflect.Type) (reflect.Value, int, error) {
	out := reflect.MakeMapWithSize(target, d.Len())
	worst := costExact
	for _, item := range d.Items() {
		kv := item.(*evaluator.Tuple).Elements
		k, kc, err := m.convert(kv[0], target.Key())
		if err != nil {
			return reflect.Value{}, 0, fmt.Errorf("map key: %w", err)
		}
		v, vc, err := m.convert(kv[1], target.Elem())
		if err != nil {
			return reflect.Value{}, 0, fmt.Errorf("map value: %w", err)
		}
		out.SetMapIndex(k, v)
		if kc > worst {
			worst = kc
		}
		if vc > worst {
			worst = vc
		}
	}
	return out, worst, nil
}

// callbackFailure carries a script error out of a Go func that has no
// error result. The registry's call recovers it.
type callbackFailure struct {
	err error
}

// callableToFunc builds a Go func of type target that calls fn.
func (m *Marshaller) callableToFunc(fn evaluator.Object, target reflect.Type) (reflect.Value, int, error) {
	if m.Call == nil {
		return reflect.Value{}, 0, fmt.Errorf("%w: no script caller configured for %s", errIncompatible, target)
	}
	returnsErr := target.NumOut() > 0 && target.Out(target.NumOut()-1) == errorType
	f := reflect.MakeFunc(target, func(in []reflect.Value) []reflect.Value {
		out := make([]reflect.Value, target.NumOut())
		for i := range out {
			out[i] = reflect.Zero(target.Out(i))
		}
		fail := func(err error) []reflect.Value {
			if !returnsErr {
				panic(callbackFailure{err: err})
			}
			out[len(out)-1] = reflect.ValueOf(&err).Elem()
			return out
		}
		args := make([]evaluator.Object, len(in))
		for i, a := range in {
			v, err := m.toValue(a)
			if err != nil {
				return fail(err)
			}
			args[i] = v
		}
		result, err := m.Call(fn, args)
		if err != nil {
			return fail(err)
		}
		values := target.NumOut()
		if returnsErr {
			values--
		}
		switch {
		case values == 1:
			v, _, err := m.convert(result, target.Out(0))
			if err != nil {
				return fail(err)
			}
			out[0] = v
		case values > 1:
			t, ok := result.(*evaluator.Tuple)
			if !ok || len(t.Elements) != values {
				return fail(fmt.Errorf("%w: callback must return %d values", errIncompatible, values))
			}
			for i := 0; i < values; i++ {
				v, _, err := m.convert(t.Elements[i], target.Out(i))
				if err != nil {
					return fail(err)
				}
				out[i] = v
			}
		}
		return out
	})
	return f, costConvert, nil
}
