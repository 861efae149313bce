package hostbridge

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/funvibe/pyhost/internal/evaluator"
)

// invoke calls the overload of fns that accepts args most cheaply. Ties go
// to the overload registered first.
func (r *Registry) invoke(fns []reflect.Value, args []evaluator.Object) (evaluator.Object, error) {
	best, bestCost := -1, 0
	var bestIn []reflect.Value
	var firstErr error
	for i, fn := range fns {
		in, cost, err := r.bind(fn, args)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if best < 0 || cost < bestCost {
			best, bestCost, bestIn = i, cost, in
		}
	}
	if best < 0 {
		if len(fns) == 1 {
			return nil, firstErr
		}
		return nil, fmt.Errorf("%w: no overload accepts (%s)", evaluator.ErrNoMatchingOverload, describe(args))
	}
	return r.call(fns[best], bestIn)
}

func describe(args []evaluator.Object) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = typeName(a)
	}
	return strings.Join(names, ", ")
}

// bind converts args to the parameters of fn and totals the conversion cost.
func (r *Registry) bind(fn reflect.Value, args []evaluator.Object) ([]reflect.Value, int, error) {
	t := fn.Type()
	n := t.NumIn()
	if t.IsVariadic() {
		if len(args) < n-1 {
			return nil, 0, fmt.Errorf("%w: expected at least %d arguments, got %d", evaluator.ErrNoMatchingOverload, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, 0, fmt.Errorf("%w: expected %d arguments, got %d", evaluator.ErrNoMatchingOverload, n, len(args))
	}
	in := make([]reflect.Value, len(args))
	total := 0
	for i, arg := range args {
		var target reflect.Type
		if t.IsVariadic() && i >= n-1 {
			target = t.In(n - 1).Elem()
		} else {
			target = t.In(i)
		}
		v, cost, err := r.marshaller.convert(arg, target)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: argument %d: %v", evaluator.ErrNoMatchingOverload, i+1, err)
		}
		in[i] = v
		total += cost
	}
	return in, total, nil
}

// call runs fn. A trailing non-nil error result becomes a HostError whose
// cause is the error value; a panic in host code becomes a HostError too.
func (r *Registry) call(fn reflect.Value, in []reflect.Value) (result evaluator.Object, err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if cf, ok := p.(callbackFailure); ok {
			result, err = nil, cf.err
			return
		}
		result, err = nil, &evaluator.HostError{Err: fmt.Errorf("host panic: %v", p)}
	}()

	out := fn.Call(in)
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			cause := out[n-1].Interface().(error)
			return nil, r.hostError(cause)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return evaluator.None, nil
	case 1:
		return r.marshaller.toValue(out[0])
	}
	elems := make([]evaluator.Object, len(out))
	for i, o := range out {
		v, err := r.marshaller.toValue(o)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return evaluator.NewTuple(elems...), nil
}

func (r *Registry) hostError(cause error) error {
	// script exceptions raised by callbacks pass through unchanged
	var exc *evaluator.Exception
	if errors.As(cause, &exc) {
		return exc
	}
	return &evaluator.HostError{Err: cause, Cause: newValue(reflect.ValueOf(cause), r)}
}
