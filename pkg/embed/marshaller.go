package pyhost

import (
	"reflect"

	"github.com/funvibe/pyhost/internal/evaluator"
)

// toObject converts a Go value for the script. Callables keep their identity
// so scripts see the same function they handed out.
func (s *Script) toObject(v interface{}) (evaluator.Object, error) {
	if c, ok := v.(*Callable); ok {
		return c.fn, nil
	}
	return s.marshaller.ToValue(v)
}

// fromObject converts a script value to Go. Script callables come back as
// *Callable; everything else takes its natural Go form.
func (s *Script) fromObject(obj evaluator.Object) (interface{}, error) {
	switch obj.(type) {
	case *evaluator.Function, *evaluator.BoundMethod, *evaluator.Class:
		return &Callable{script: s, name: obj.Inspect(), fn: obj}, nil
	}
	return s.marshaller.FromValue(obj, nil)
}

// callbackObject resolves an at-exit callback. Go funcs are remembered by
// code pointer so the same func can be unregistered later; closures sharing
// code are indistinguishable and the most recent registration wins.
func (s *Script) callbackObject(cb interface{}, register bool) (evaluator.Object, error) {
	rv := reflect.ValueOf(cb)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return s.toObject(cb)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rv.Pointer()
	if !register {
		return s.funcs[key], nil
	}
	obj, err := s.marshaller.ToValue(cb)
	if err != nil {
		return nil, err
	}
	s.funcs[key] = obj
	return obj, nil
}
