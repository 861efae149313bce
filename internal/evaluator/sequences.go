package evaluator

import (
	"strings"
	"unicode/utf8"

	"github.com/funvibe/pyhost/internal/config"
)

// iterator yields the elements of an iterable one at a time.
type iterator interface {
	Next() (Object, bool, error)
}

type sliceIterator struct {
	elems []Object
	i     int
}

func (it *sliceIterator) Next() (Object, bool, error) {
	if it.i >= len(it.elems) {
		return nil, false, nil
	}
	it.i++
	return it.elems[it.i-1], true, nil
}

// listIterator reads the live list, so appends during iteration are seen.
type listIterator struct {
	list *List
	i    int
}

func (it *listIterator) Next() (Object, bool, error) {
	if it.i >= len(it.list.Elements) {
		return nil, false, nil
	}
	it.i++
	return it.list.Elements[it.i-1], true, nil
}

type rangeIterator struct {
	r *Range
	i int64
	n int64
}

func (it *rangeIterator) Next() (Object, bool, error) {
	if it.i >= it.n {
		return nil, false, nil
	}
	it.i++
	return NewInt(it.r.At(it.i - 1)), true, nil
}

type strIterator struct {
	s string
	i int
}

func (it *strIterator) Next() (Object, bool, error) {
	if it.i >= len(it.s) {
		return nil, false, nil
	}
	r, size := utf8.DecodeRuneInString(it.s[it.i:])
	it.i += size
	return NewStr(string(r)), true, nil
}

// nextIterator drives an instance implementing __next__ until StopIteration.
type nextIterator struct {
	e    *Evaluator
	next Object
}

func (it *nextIterator) Next() (Object, bool, error) {
	v, err := it.e.Call(it.next, nil, nil)
	if exc, ok := err.(*Exception); ok && exc.Is(StopIterationClass) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// indexIterator drives the __getitem__ protocol until IndexError.
type indexIterator struct {
	e    *Evaluator
	obj  Object
	i    int64
	done bool
}

func (it *indexIterator) Next() (Object, bool, error) {
	if it.done {
		return nil, false, nil
	}
	v, err := it.e.getItem(it.obj, NewInt(it.i))
	if exc, ok := err.(*Exception); ok && (exc.Is(IndexErrorClass) || exc.Is(StopIterationClass)) {
		it.done = true
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	it.i++
	return v, true, nil
}

func (e *Evaluator) iterator(obj Object) (iterator, error) {
	switch o := obj.(type) {
	case *List:
		return &listIterator{list: o}, nil
	case *Tuple:
		return &sliceIterator{elems: o.Elements}, nil
	case *Str:
		return &strIterator{s: o.Value}, nil
	case *Dict:
		return &sliceIterator{elems: o.Keys()}, nil
	case *Set:
		return &sliceIterator{elems: o.Members()}, nil
	case *Range:
		return &rangeIterator{r: o, n: o.Len()}, nil
	case *Instance:
		if _, _, ok := o.Class.Lookup("__iter__"); ok {
			m, err := e.lookupMethod(o, "__iter__")
			if err != nil {
				return nil, err
			}
			it, err := e.Call(m, nil, nil)
			if err != nil {
				return nil, err
			}
			if inst, ok := it.(*Instance); ok {
				if _, _, ok := inst.Class.Lookup("__next__"); ok {
					next, err := e.lookupMethod(inst, "__next__")
					if err != nil {
						return nil, err
					}
					return &nextIterator{e: e, next: next}, nil
				}
				if inst == o {
					break
				}
			}
			return e.iterator(it)
		}
		if _, _, ok := o.Class.Lookup(config.GetItemMethod); ok {
			return &indexIterator{e: e, obj: o}, nil
		}
	case *HostObject:
		if it, ok := o.Value.(ForeignIterable); ok {
			elems, err := it.Elements()
			if err != nil {
				return nil, hostCallError(err, o.Value.TypeName())
			}
			return &sliceIterator{elems: elems}, nil
		}
	}
	return nil, newException(TypeErrorClass, "'%s' object is not iterable", typeName(obj))
}

// collect materializes an iterable.
func (e *Evaluator) collect(obj Object) ([]Object, error) {
	switch o := obj.(type) {
	case *List:
		return append([]Object(nil), o.Elements...), nil
	case *Tuple:
		return o.Elements, nil
	}
	it, err := e.iterator(obj)
	if err != nil {
		return nil, err
	}
	var out []Object
	for {
		v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// length implements len().
func (e *Evaluator) length(obj Object) (int64, error) {
	switch o := obj.(type) {
	case *Str:
		return int64(utf8.RuneCountInString(o.Value)), nil
	case *List:
		return int64(len(o.Elements)), nil
	case *Tuple:
		return int64(len(o.Elements)), nil
	case *Dict:
		return int64(o.Len()), nil
	case *Set:
		return int64(o.Len()), nil
	case *Range:
		return o.Len(), nil
	case *Instance:
		v, ok, err := e.dunder(o, config.LenMethod)
		if !ok {
			break
		}
		if err != nil {
			return 0, err
		}
		n, isInt := toInt(v)
		if !isInt {
			return 0, newException(TypeErrorClass, "'%s' object cannot be interpreted as an integer", typeName(v))
		}
		if n < 0 {
			return 0, newException(ValueErrorClass, "__len__() should return >= 0")
		}
		return n, nil
	case *HostObject:
		if it, ok := o.Value.(ForeignIterable); ok {
			elems, err := it.Elements()
			if err != nil {
				return 0, hostCallError(err, o.Value.TypeName())
			}
			return int64(len(elems)), nil
		}
	}
	return 0, newException(TypeErrorClass, "object of type '%s' has no len()", typeName(obj))
}

// contains implements `item in container`.
func (e *Evaluator) contains(container, item Object) (bool, error) {
	switch c := container.(type) {
	case *Instance:
		if v, ok, err := e.dunder(c, config.ContainsMethod, item); ok {
			if err != nil {
				return false, err
			}
			return isTruthy(v), nil
		}
	case *Str:
		s, ok := item.(*Str)
		if !ok {
			return false, newException(TypeErrorClass, "'in <string>' requires string as left operand, not %s", typeName(item))
		}
		return strings.Contains(c.Value, s.Value), nil
	case *Dict:
		_, ok, err := c.Get(item)
		return ok, err
	case *Set:
		return c.Contains(item)
	case *Range:
		if n, ok := toNumber(item); ok {
			if n.isInt() {
				return c.Contains(n.i), nil
			}
			if n.f == float64(int64(n.f)) {
				return c.Contains(int64(n.f)), nil
			}
			return false, nil
		}
		return false, nil
	}
	it, err := e.iterator(container)
	if err != nil {
		if exc, ok := err.(*Exception); ok && exc.Is(TypeErrorClass) {
			return false, newException(TypeErrorClass, "argument of type '%s' is not iterable", typeName(container))
		}
		return false, err
	}
	for {
		v, ok, err := it.Next()
		if err != nil || !ok {
			return false, err
		}
		if eq, err := e.valuesEqual(v, item); err != nil || eq {
			return eq, err
		}
	}
}

// --- Indexing ---

// normalizeIndex resolves a possibly negative index against length n.
func normalizeIndex(key Object, n int, what string) (int, error) {
	i, ok := toInt(key)
	if !ok {
		return 0, newException(TypeErrorClass, "%s indices must be integers or slices, not %s", what, typeName(key))
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, newException(IndexErrorClass, "%s index out of range", what)
	}
	return int(i), nil
}

// sliceIndices computes start, stop, step and the element count of s
// applied to a sequence of length n.
func sliceIndices(s *SliceValue, n int) (start, stop, step, count int, err error) {
	step = 1
	if s.Step != None {
		st, ok := toInt(s.Step)
		if !ok {
			return 0, 0, 0, 0, newException(TypeErrorClass, "slice indices must be integers or None")
		}
		if st == 0 {
			return 0, 0, 0, 0, newException(ValueErrorClass, "slice step cannot be zero")
		}
		step = int(st)
	}
	bound := func(v Object, def int) (int, error) {
		if v == None {
			return def, nil
		}
		x, ok := toInt(v)
		if !ok {
			return 0, newException(TypeErrorClass, "slice indices must be integers or None")
		}
		i := int(x)
		if i < 0 {
			i += n
			if i < 0 {
				if step < 0 {
					return -1, nil
				}
				return 0, nil
			}
		}
		if i >= n {
			if step < 0 {
				return n - 1, nil
			}
			return n, nil
		}
		return i, nil
	}
	if step > 0 {
		if start, err = bound(s.Start, 0); err != nil {
			return
		}
		if stop, err = bound(s.Stop, n); err != nil {
			return
		}
		if stop > start {
			count = (stop - start + step - 1) / step
		}
	} else {
		if start, err = bound(s.Start, n-1); err != nil {
			return
		}
		if stop, err = bound(s.Stop, -1); err != nil {
			return
		}
		if start > stop {
			count = (start - stop - step - 1) / -step
		}
	}
	return
}

func sliceElements(elems []Object, s *SliceValue) ([]Object, error) {
	start, _, step, count, err := sliceIndices(s, len(elems))
	if err != nil {
		return nil, err
	}
	out := make([]Object, count)
	for i := 0; i < count; i++ {
		out[i] = elems[start+i*step]
	}
	return out, nil
}

func (e *Evaluator) getItem(obj, key Object) (Object, error) {
	switch o := obj.(type) {
	case *Instance:
		if v, ok, err := e.dunder(o, config.GetItemMethod, key); ok {
			return v, err
		}
	case *List:
		if s, ok := key.(*SliceValue); ok {
			elems, err := sliceElements(o.Elements, s)
			if err != nil {
				return nil, err
			}
			return &List{Elements: elems}, nil
		}
		i, err := normalizeIndex(key, len(o.Elements), "list")
		if err != nil {
			return nil, err
		}
		return o.Elements[i], nil
	case *Tuple:
		if s, ok := key.(*SliceValue); ok {
			elems, err := sliceElements(o.Elements, s)
			if err != nil {
				return nil, err
			}
			return NewTuple(elems...), nil
		}
		i, err := normalizeIndex(key, len(o.Elements), "tuple")
		if err != nil {
			return nil, err
		}
		return o.Elements[i], nil
	case *Str:
		runes := []rune(o.Value)
		if s, ok := key.(*SliceValue); ok {
			start, _, step, count, err := sliceIndices(s, len(runes))
			if err != nil {
				return nil, err
			}
			out := make([]rune, count)
			for i := 0; i < count; i++ {
				out[i] = runes[start+i*step]
			}
			return NewStr(string(out)), nil
		}
		i, err := normalizeIndex(key, len(runes), "string")
		if err != nil {
			return nil, err
		}
		return NewStr(string(runes[i])), nil
	case *Range:
		n := o.Len()
		if s, ok := key.(*SliceValue); ok {
			start, _, step, count, err := sliceIndices(s, int(n))
			if err != nil {
				return nil, err
			}
			first := o.At(int64(start))
			return &Range{Start: first, Stop: first + int64(count)*o.Step*int64(step), Step: o.Step * int64(step)}, nil
		}
		i, err := normalizeIndex(key, int(n), "range object")
		if err != nil {
			return nil, err
		}
		return NewInt(o.At(int64(i))), nil
	case *Dict:
		v, ok, err := o.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newExceptionValue(KeyErrorClass, key)
		}
		return v, nil
	case *Class:
		// generic aliases such as list[int] in annotations
		return o, nil
	case *BuiltinType:
		return o, nil
	}
	return nil, newException(TypeErrorClass, "'%s' object is not subscriptable", typeName(obj))
}

func (e *Evaluator) setItem(obj, key, v Object) error {
	switch o := obj.(type) {
	case *Instance:
		if _, ok, err := e.dunder(o, config.SetItemMethod, key, v); ok {
			return err
		}
	case *List:
		if s, ok := key.(*SliceValue); ok {
			return e.setListSlice(o, s, v)
		}
		i, err := normalizeIndex(key, len(o.Elements), "list assignment")
		if err != nil {
			return err
		}
		o.Elements[i] = v
		return nil
	case *Dict:
		return o.Set(key, v)
	}
	return newException(TypeErrorClass, "'%s' object does not support item assignment", typeName(obj))
}

func (e *Evaluator) setListSlice(l *List, s *SliceValue, v Object) error {
	items, err := e.collect(v)
	if err != nil {
		return newException(TypeErrorClass, "can only assign an iterable")
	}
	start, stop, step, count, err := sliceIndices(s, len(l.Elements))
	if err != nil {
		return err
	}
	if step == 1 {
		if stop < start {
			stop = start
		}
		out := make([]Object, 0, len(l.Elements)-(stop-start)+len(items))
		out = append(out, l.Elements[:start]...)
		out = append(out, items...)
		out = append(out, l.Elements[stop:]...)
		l.Elements = out
		return nil
	}
	if len(items) != count {
		return newException(ValueErrorClass, "attempt to assign sequence of size %d to extended slice of size %d", len(items), count)
	}
	for i := 0; i < count; i++ {
		l.Elements[start+i*step] = items[i]
	}
	return nil
}

func (e *Evaluator) delItem(obj, key Object) error {
	switch o := obj.(type) {
	case *Instance:
		if _, ok, err := e.dunder(o, config.DelItemMethod, key); ok {
			return err
		}
	case *List:
		if s, ok := key.(*SliceValue); ok {
			start, _, step, count, err := sliceIndices(s, len(o.Elements))
			if err != nil {
				return err
			}
			drop := make(map[int]bool, count)
			for i := 0; i < count; i++ {
				drop[start+i*step] = true
			}
			out := make([]Object, 0, len(o.Elements)-count)
			for i, el := range o.Elements {
				if !drop[i] {
					out = append(out, el)
				}
			}
			o.Elements = out
			return nil
		}
		i, err := normalizeIndex(key, len(o.Elements), "list assignment")
		if err != nil {
			return err
		}
		o.Elements = append(o.Elements[:i], o.Elements[i+1:]...)
		return nil
	case *Dict:
		_, ok, err := o.Delete(key)
		if err != nil {
			return err
		}
		if !ok {
			return newExceptionValue(KeyErrorClass, key)
		}
		return nil
	}
	return newException(TypeErrorClass, "'%s' object does not support item deletion", typeName(obj))
}
