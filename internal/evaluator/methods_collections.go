package evaluator

import (
	"math"
	"sort"

	"github.com/funvibe/pyhost/internal/ast"
)

func listSelf(args []Object) *List { return args[0].(*List) }

// sortObjects sorts elems stably by key, reporting the first comparison error.
func (e *Evaluator) sortObjects(elems []Object, key Object, reverse bool) error {
	keys := elems
	if key != nil && key != None {
		keys = make([]Object, len(elems))
		for i, el := range elems {
			k, err := e.Call(key, []Object{el}, nil)
			if err != nil {
				return err
			}
			keys[i] = k
		}
	}
	idx := make([]int, len(elems))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		a, b := keys[idx[i]], keys[idx[j]]
		if reverse {
			a, b = b, a
		}
		lt, err := e.less(a, b)
		if err != nil {
			sortErr = err
		}
		return lt
	})
	if sortErr != nil {
		return sortErr
	}
	sorted := make([]Object, len(elems))
	for i, j := range idx {
		sorted[i] = elems[j]
	}
	copy(elems, sorted)
	return nil
}

// indexOf finds v in elems[start:stop] by equality.
func (e *Evaluator) indexOf(name string, elems []Object, args []Object) (Object, error) {
	n := len(elems)
	start, err := optionalInt(name, args, 2, 0)
	if err != nil {
		return nil, err
	}
	stop, err := optionalInt(name, args, 3, int64(n))
	if err != nil {
		return nil, err
	}
	bound := func(i int64) int {
		if i < 0 {
			i += int64(n)
		}
		if i < 0 {
			return 0
		}
		if i > int64(n) {
			return n
		}
		return int(i)
	}
	for i := bound(start); i < bound(stop); i++ {
		eq, err := e.valuesEqual(elems[i], args[1])
		if err != nil {
			return nil, err
		}
		if eq {
			return NewInt(int64(i)), nil
		}
	}
	return nil, newException(ValueErrorClass, "%s.index(x): x not in %s", typeName(args[0]), typeName(args[0]))
}

func (e *Evaluator) countOf(elems []Object, v Object) (Object, error) {
	count := int64(0)
	for _, el := range elems {
		eq, err := e.valuesEqual(el, v)
		if err != nil {
			return nil, err
		}
		if eq {
			count++
		}
	}
	return NewInt(count), nil
}

var listMethods = map[string]*Builtin{
	"append": method("append", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		l := listSelf(args)
		l.Elements = append(l.Elements, args[1])
		return None, nil
	}),
	"extend": method("extend", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		l := listSelf(args)
		items, err := e.collect(args[1])
		if err != nil {
			return nil, err
		}
		l.Elements = append(l.Elements, items...)
		return None, nil
	}),
	"insert": method("insert", 2, 2, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		l := listSelf(args)
		i, err := intArg("insert", args[1])
		if err != nil {
			return nil, err
		}
		n := int64(len(l.Elements))
		if i < 0 {
			i += n
			if i < 0 {
				i = 0
			}
		}
		if i > n {
			i = n
		}
		l.Elements = append(l.Elements, nil)
		copy(l.Elements[i+1:], l.Elements[i:])
		l.Elements[i] = args[2]
		return None, nil
	}),
	"pop": method("pop", 0, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		l := listSelf(args)
		if len(l.Elements) == 0 {
			return nil, newException(IndexErrorClass, "pop from empty list")
		}
		var key Object = NewInt(-1)
		if len(args) > 1 {
			key = args[1]
		}
		i, err := normalizeIndex(key, len(l.Elements), "pop")
		if err != nil {
			return nil, err
		}
		v := l.Elements[i]
		l.Elements = append(l.Elements[:i], l.Elements[i+1:]...)
		return v, nil
	}),
	"clear": method("clear", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		listSelf(args).Elements = nil
		return None, nil
	}),
	"copy": method("copy", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return &List{Elements: append([]Object(nil), listSelf(args).Elements...)}, nil
	}),
	"reverse": method("reverse", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		el := listSelf(args).Elements
		for i, j := 0, len(el)-1; i < j; i, j = i+1, j-1 {
			el[i], el[j] = el[j], el[i]
		}
		return None, nil
	}),
}

func init() {
	listMethods["remove"] = method("remove", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		l := listSelf(args)
		for i, el := range l.Elements {
			eq, err := e.valuesEqual(el, args[1])
			if err != nil {
				return nil, err
			}
			if eq {
				l.Elements = append(l.Elements[:i], l.Elements[i+1:]...)
				return None, nil
			}
		}
		return nil, newException(ValueErrorClass, "list.remove(x): x not in list")
	})
	listMethods["index"] = method("index", 1, 3, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return e.indexOf("list", listSelf(args).Elements, args)
	})
	listMethods["count"] = method("count", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return e.countOf(listSelf(args).Elements, args[1])
	})
	listMethods["sort"] = &Builtin{Name: "sort", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if len(args) > 1 {
			return nil, newException(TypeErrorClass, "sort() takes no positional arguments")
		}
		params, err := parseKwargs("sort", nil, kwargs, "key", "reverse")
		if err != nil {
			return nil, err
		}
		reverse := params[1] != nil && isTruthy(params[1])
		return None, e.sortObjects(listSelf(args).Elements, params[0], reverse)
	}}
	tupleMethods["index"] = method("index", 1, 3, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return e.indexOf("tuple", args[0].(*Tuple).Elements, args)
	})
	tupleMethods["count"] = method("count", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return e.countOf(args[0].(*Tuple).Elements, args[1])
	})
	dictMethods["update"] = &Builtin{Name: "update", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := checkArity("update", len(args)-1, 0, 1); err != nil {
			return nil, err
		}
		d := dictSelf(args)
		if len(args) > 1 {
			if err := e.dictUpdate(d, args[1]); err != nil {
				return nil, err
			}
		}
		for _, kw := range kwargs {
			d.SetStr(kw.Name, kw.Value)
		}
		return None, nil
	}}
	setMethods["update"] = method("update", 0, -1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		s := setSelf(args)
		for _, other := range args[1:] {
			items, err := e.collect(other)
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				if err := s.Add(it); err != nil {
					return nil, err
				}
			}
		}
		return None, nil
	})
	setMethods["union"] = setCombinator("union", func(acc *Set, other *Set) (*Set, error) {
		for _, m := range other.Members() {
			if err := acc.Add(m); err != nil {
				return nil, err
			}
		}
		return acc, nil
	})
	setMethods["intersection"] = setCombinator("intersection", func(acc *Set, other *Set) (*Set, error) {
		out := NewSet()
		for _, m := range acc.Members() {
			if ok, _ := other.Contains(m); ok {
				_ = out.Add(m)
			}
		}
		return out, nil
	})
	setMethods["difference"] = setCombinator("difference", func(acc *Set, other *Set) (*Set, error) {
		for _, m := range other.Members() {
			_, _ = acc.Remove(m)
		}
		return acc, nil
	})
	setMethods["symmetric_difference"] = setCombinator("symmetric_difference", func(acc *Set, other *Set) (*Set, error) {
		for _, m := range other.Members() {
			if removed, _ := acc.Remove(m); !removed {
				_ = acc.Add(m)
			}
		}
		return acc, nil
	})
	setMethods["issubset"] = setRelation("issubset", func(a, b *Set) bool { return setOrder(ast.LtE, a, b) })
	setMethods["issuperset"] = setRelation("issuperset", func(a, b *Set) bool { return setOrder(ast.GtE, a, b) })
	setMethods["isdisjoint"] = setRelation("isdisjoint", func(a, b *Set) bool {
		for _, m := range a.Members() {
			if ok, _ := b.Contains(m); ok {
				return false
			}
		}
		return true
	})
}

var tupleMethods = map[string]*Builtin{}

func dictSelf(args []Object) *Dict { return args[0].(*Dict) }

// dictUpdate merges a mapping or an iterable of pairs into d.
func (e *Evaluator) dictUpdate(d *Dict, src Object) error {
	if other, ok := src.(*Dict); ok {
		for _, item := range other.Items() {
			kv := item.(*Tuple).Elements
			if err := d.Set(kv[0], kv[1]); err != nil {
				return err
			}
		}
		return nil
	}
	items, err := e.collect(src)
	if err != nil {
		return err
	}
	for i, item := range items {
		pair, err := e.collect(item)
		if err != nil {
			return newException(TypeErrorClass, "cannot convert dictionary update sequence element #%d to a sequence", i)
		}
		if len(pair) != 2 {
			return newException(ValueErrorClass, "dictionary update sequence element #%d has length %d; 2 is required", i, len(pair))
		}
		if err := d.Set(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

var dictMethods = map[string]*Builtin{
	"keys": method("keys", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return &List{Elements: dictSelf(args).Keys()}, nil
	}),
	"values": method("values", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return &List{Elements: dictSelf(args).Values()}, nil
	}),
	"items": method("items", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return &List{Elements: dictSelf(args).Items()}, nil
	}),
	"get": method("get", 1, 2, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		v, ok, err := dictSelf(args).Get(args[1])
		if err != nil {
			return nil, err
		}
		if ok {
			return v, nil
		}
		if len(args) > 2 {
			return args[2], nil
		}
		return None, nil
	}),
	"pop": method("pop", 1, 2, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		v, ok, err := dictSelf(args).Delete(args[1])
		if err != nil {
			return nil, err
		}
		if ok {
			return v, nil
		}
		if len(args) > 2 {
			return args[2], nil
		}
		return nil, newExceptionValue(KeyErrorClass, args[1])
	}),
	"popitem": method("popitem", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		d := dictSelf(args)
		k, v, ok := d.table.Last()
		if !ok {
			return nil, newException(KeyErrorClass, "popitem(): dictionary is empty")
		}
		_, _, _ = d.Delete(k)
		return NewTuple(k, v), nil
	}),
	"setdefault": method("setdefault", 1, 2, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		d := dictSelf(args)
		v, ok, err := d.Get(args[1])
		if err != nil {
			return nil, err
		}
		if ok {
			return v, nil
		}
		var def Object = None
		if len(args) > 2 {
			def = args[2]
		}
		return def, d.Set(args[1], def)
	}),
	"copy": method("copy", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return dictSelf(args).Copy(), nil
	}),
	"clear": method("clear", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		dictSelf(args).table.Clear()
		return None, nil
	}),
}

func setSelf(args []Object) *Set { return args[0].(*Set) }

// setArg accepts a set or any iterable as the other operand of a set method.
func (e *Evaluator) setArg(o Object) (*Set, error) {
	if s, ok := o.(*Set); ok {
		return s, nil
	}
	items, err := e.collect(o)
	if err != nil {
		return nil, err
	}
	s := NewSet()
	for _, it := range items {
		if err := s.Add(it); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func setCombinator(name string, step func(acc, other *Set) (*Set, error)) *Builtin {
	return method(name, 0, -1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		acc := setSelf(args).Copy()
		for _, o := range args[1:] {
			other, err := e.setArg(o)
			if err != nil {
				return nil, err
			}
			if acc, err = step(acc, other); err != nil {
				return nil, err
			}
		}
		return acc, nil
	})
}

func setRelation(name string, rel func(a, b *Set) bool) *Builtin {
	return method(name, 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		other, err := e.setArg(args[1])
		if err != nil {
			return nil, err
		}
		return nativeBool(rel(setSelf(args), other)), nil
	})
}

var setMethods = map[string]*Builtin{
	"add": method("add", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return None, setSelf(args).Add(args[1])
	}),
	"remove": method("remove", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		ok, err := setSelf(args).Remove(args[1])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newExceptionValue(KeyErrorClass, args[1])
		}
		return None, nil
	}),
	"discard": method("discard", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		_, err := setSelf(args).Remove(args[1])
		return None, err
	}),
	"pop": method("pop", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		s := setSelf(args)
		k, _, ok := s.table.First()
		if !ok {
			return nil, newException(KeyErrorClass, "pop from an empty set")
		}
		_, _ = s.Remove(k)
		return k, nil
	}),
	"copy": method("copy", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return setSelf(args).Copy(), nil
	}),
	"clear": method("clear", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		setSelf(args).table.Clear()
		return None, nil
	}),
}

var rangeMethods = map[string]*Builtin{
	"index": method("index", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		r := args[0].(*Range)
		if v, ok := toInt(args[1]); ok && r.Contains(v) {
			return NewInt((v - r.Start) / r.Step), nil
		}
		return nil, newException(ValueErrorClass, "%s is not in range", args[1].Inspect())
	}),
	"count": method("count", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		r := args[0].(*Range)
		if v, ok := toInt(args[1]); ok && r.Contains(v) {
			return NewInt(1), nil
		}
		return NewInt(0), nil
	}),
}

var intMethods = map[string]*Builtin{
	"bit_length": method("bit_length", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		n, _ := toInt(args[0])
		u := absU(n)
		bits := 0
		for u > 0 {
			bits++
			u >>= 1
		}
		return NewInt(int64(bits)), nil
	}),
	"conjugate": method("conjugate", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return args[0], nil
	}),
}

var floatMethods = map[string]*Builtin{
	"is_integer": method("is_integer", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		n, _ := toNumber(args[0])
		f := n.float()
		return nativeBool(!math.IsInf(f, 0) && f == math.Trunc(f)), nil
	}),
}

var wrapperMethods = map[string]*Builtin{
	"setter": method("setter", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		w := args[0].(*MethodWrapper)
		if w.Kind != PropertyWrapper {
			return nil, attributeError(w, "setter")
		}
		return &MethodWrapper{Kind: PropertyWrapper, Fn: w.Fn, Setter: args[1]}, nil
	}),
	"getter": method("getter", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		w := args[0].(*MethodWrapper)
		if w.Kind != PropertyWrapper {
			return nil, attributeError(w, "getter")
		}
		return &MethodWrapper{Kind: PropertyWrapper, Fn: args[1], Setter: w.Setter}, nil
	}),
}
