package evaluator

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string  { return "[" + inspectAll(l.Elements) + "]" }

// Tuple is never mutated after construction.
type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	if len(t.Elements) == 1 {
		return "(" + t.Elements[0].Inspect() + ",)"
	}
	return "(" + inspectAll(t.Elements) + ")"
}

func inspectAll(elems []Object) string {
	parts := make([]string, len(elems))
	for i, el := range elems {
		parts[i] = el.Inspect()
	}
	return strings.Join(parts, ", ")
}

func NewTuple(elems ...Object) *Tuple { return &Tuple{Elements: elems} }

// Range is a lazy arithmetic progression.
type Range struct {
	Start, Stop, Step int64
}

func (r *Range) Type() ObjectType { return RANGE_OBJ }
func (r *Range) Inspect() string {
	s := "range(" + strconv.FormatInt(r.Start, 10) + ", " + strconv.FormatInt(r.Stop, 10)
	if r.Step != 1 {
		s += ", " + strconv.FormatInt(r.Step, 10)
	}
	return s + ")"
}

func (r *Range) Len() int64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	case r.Step < 0 && r.Start > r.Stop:
		return (r.Start - r.Stop - r.Step - 1) / -r.Step
	}
	return 0
}

func (r *Range) At(i int64) int64 { return r.Start + i*r.Step }

func (r *Range) Contains(v int64) bool {
	if r.Step > 0 && (v < r.Start || v >= r.Stop) {
		return false
	}
	if r.Step < 0 && (v > r.Start || v <= r.Stop) {
		return false
	}
	return (v-r.Start)%r.Step == 0
}

// SliceValue is the value of a slice expression; absent bounds are None.
type SliceValue struct {
	Start, Stop, Step Object
}

func (s *SliceValue) Type() ObjectType { return SLICE_OBJ }
func (s *SliceValue) Inspect() string {
	return "slice(" + s.Start.Inspect() + ", " + s.Stop.Inspect() + ", " + s.Step.Inspect() + ")"
}

// --- Hashing ---

// hashKey computes the dict/set hash of a value. Numbers that compare equal
// hash equally across widths. Unhashable values report false.
func hashKey(obj Object) (uint64, bool) {
	switch o := obj.(type) {
	case *NoneType:
		return 0x9e3779b97f4a7c15, true
	case *Bool:
		if o.Value {
			return 1, true
		}
		return 0, true
	case *Int:
		return uint64(int64(o.Value)), true
	case *Long:
		return uint64(o.Value), true
	case *Float:
		return hashFloat(o.Value), true
	case *Float32:
		return hashFloat(float64(o.Value)), true
	case *Str:
		return hashString(o.Value), true
	case *Tuple:
		h := uint64(0x345678)
		for _, el := range o.Elements {
			eh, ok := hashKey(el)
			if !ok {
				return 0, false
			}
			h = (h ^ eh) * 1000003
		}
		return h, true
	case *List, *Dict, *Set:
		return 0, false
	}
	return identityHash(obj), true
}

func hashFloat(f float64) uint64 {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return uint64(int64(f))
	}
	return math.Float64bits(f)
}

func identityHash(obj Object) uint64 {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		return uint64(v.Pointer())
	}
	return hashString(obj.Inspect())
}

// keyEquals is the native equality used for dict keys and set members.
func keyEquals(a, b Object) bool {
	if eq, ok := numericEquals(a, b); ok {
		return eq
	}
	switch x := a.(type) {
	case *Str:
		y, ok := b.(*Str)
		return ok && x.Value == y.Value
	case *Tuple:
		y, ok := b.(*Tuple)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !keyEquals(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// --- Insertion-ordered hash table shared by Dict and Set ---

type tableEntry struct {
	key     Object
	value   Object
	deleted bool
}

type hashTable struct {
	entries []tableEntry
	index   map[uint64][]int
	live    int
}

func newHashTable() *hashTable {
	return &hashTable{index: make(map[uint64][]int)}
}

func (t *hashTable) find(key Object) (int, uint64, error) {
	h, ok := hashKey(key)
	if !ok {
		return -1, 0, unhashableError(key)
	}
	for _, i := range t.index[h] {
		if !t.entries[i].deleted && keyEquals(t.entries[i].key, key) {
			return i, h, nil
		}
	}
	return -1, h, nil
}

func (t *hashTable) Get(key Object) (Object, bool, error) {
	i, _, err := t.find(key)
	if err != nil || i < 0 {
		return nil, false, err
	}
	return t.entries[i].value, true, nil
}

func (t *hashTable) Set(key, value Object) error {
	i, h, err := t.find(key)
	if err != nil {
		return err
	}
	if i >= 0 {
		t.entries[i].value = value
		return nil
	}
	t.entries = append(t.entries, tableEntry{key: key, value: value})
	t.index[h] = append(t.index[h], len(t.entries)-1)
	t.live++
	return nil
}

func (t *hashTable) Delete(key Object) (Object, bool, error) {
	i, _, err := t.find(key)
	if err != nil || i < 0 {
		return nil, false, err
	}
	v := t.entries[i].value
	t.entries[i] = tableEntry{deleted: true}
	t.live--
	if len(t.entries) > 16 && t.live < len(t.entries)/2 {
		t.compact()
	}
	return v, true, nil
}

func (t *hashTable) compact() {
	old := t.entries
	t.entries = make([]tableEntry, 0, t.live)
	t.index = make(map[uint64][]int, t.live)
	for _, e := range old {
		if e.deleted {
			continue
		}
		h, _ := hashKey(e.key)
		t.entries = append(t.entries, e)
		t.index[h] = append(t.index[h], len(t.entries)-1)
	}
}

func (t *hashTable) Len() int { return t.live }

func (t *hashTable) Clear() {
	t.entries = nil
	t.index = make(map[uint64][]int)
	t.live = 0
}

func (t *hashTable) Keys() []Object {
	out := make([]Object, 0, t.live)
	for _, e := range t.entries {
		if !e.deleted {
			out = append(out, e.key)
		}
	}
	return out
}

func (t *hashTable) Values() []Object {
	out := make([]Object, 0, t.live)
	for _, e := range t.entries {
		if !e.deleted {
			out = append(out, e.value)
		}
	}
	return out
}

// First returns the oldest live entry.
func (t *hashTable) First() (Object, Object, bool) {
	for _, e := range t.entries {
		if !e.deleted {
			return e.key, e.value, true
		}
	}
	return nil, nil, false
}

// Last returns the newest live entry.
func (t *hashTable) Last() (Object, Object, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if !t.entries[i].deleted {
			return t.entries[i].key, t.entries[i].value, true
		}
	}
	return nil, nil, false
}

func (t *hashTable) Copy() *hashTable {
	c := newHashTable()
	for _, e := range t.entries {
		if !e.deleted {
			_ = c.Set(e.key, e.value)
		}
	}
	return c
}

// Dict preserves insertion order.
type Dict struct {
	table *hashTable
}

func NewDict() *Dict { return &Dict{table: newHashTable()} }

func (d *Dict) Type() ObjectType { return DICT_OBJ }
func (d *Dict) Inspect() string {
	parts := make([]string, 0, d.table.Len())
	for _, e := range d.table.entries {
		if !e.deleted {
			parts = append(parts, e.key.Inspect()+": "+e.value.Inspect())
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *Dict) Get(key Object) (Object, bool, error)       { return d.table.Get(key) }
func (d *Dict) Set(key, value Object) error                { return d.table.Set(key, value) }
func (d *Dict) Delete(key Object) (Object, bool, error)    { return d.table.Delete(key) }
func (d *Dict) Len() int                                   { return d.table.Len() }
func (d *Dict) Keys() []Object                             { return d.table.Keys() }
func (d *Dict) Values() []Object                           { return d.table.Values() }
func (d *Dict) Copy() *Dict                                { return &Dict{table: d.table.Copy()} }

// SetStr stores a value under a string key.
func (d *Dict) SetStr(key string, value Object) {
	_ = d.table.Set(NewStr(key), value)
}

// Items returns (key, value) tuples in insertion order.
func (d *Dict) Items() []Object {
	out := make([]Object, 0, d.table.Len())
	for _, e := range d.table.entries {
		if !e.deleted {
			out = append(out, NewTuple(e.key, e.value))
		}
	}
	return out
}

// Set holds unique hashable members.
type Set struct {
	table *hashTable
}

func NewSet() *Set { return &Set{table: newHashTable()} }

func (s *Set) Type() ObjectType { return SET_OBJ }
func (s *Set) Inspect() string {
	if s.table.Len() == 0 {
		return "set()"
	}
	return "{" + inspectAll(s.table.Keys()) + "}"
}

func (s *Set) Add(v Object) error { return s.table.Set(v, None) }
func (s *Set) Contains(v Object) (bool, error) {
	_, ok, err := s.table.Get(v)
	return ok, err
}
func (s *Set) Remove(v Object) (bool, error) {
	_, ok, err := s.table.Delete(v)
	return ok, err
}
func (s *Set) Len() int          { return s.table.Len() }
func (s *Set) Members() []Object { return s.table.Keys() }
func (s *Set) Copy() *Set        { return &Set{table: s.table.Copy()} }
