package evaluator

import (
	"hash/fnv"
	"strconv"

	"github.com/funvibe/pyhost/internal/utils"
)

// ObjectType is the script-visible type name of a value.
type ObjectType string

const (
	NONE_OBJ         = "NoneType"
	BOOL_OBJ         = "bool"
	INT_OBJ          = "int"
	FLOAT_OBJ        = "float"
	STR_OBJ          = "str"
	LIST_OBJ         = "list"
	TUPLE_OBJ        = "tuple"
	DICT_OBJ         = "dict"
	SET_OBJ          = "set"
	RANGE_OBJ        = "range"
	SLICE_OBJ        = "slice"
	FUNCTION_OBJ     = "function"
	BUILTIN_OBJ      = "builtin_function_or_method"
	BOUND_METHOD_OBJ = "method"
	TYPE_OBJ         = "type"
	INSTANCE_OBJ     = "instance"
	MODULE_OBJ       = "module"
	SUPER_OBJ        = "super"
	WRAPPER_OBJ      = "descriptor"
	HOST_OBJ         = "host"
	HOST_CLASS_OBJ   = "host_class"
)

// Object is every runtime value.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Helper for hashing strings
func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// NoneType is the type of the None singleton.
type NoneType struct{}

func (n *NoneType) Type() ObjectType { return NONE_OBJ }
func (n *NoneType) Inspect() string  { return "None" }

type Bool struct {
	Value bool
}

func (b *Bool) Type() ObjectType { return BOOL_OBJ }
func (b *Bool) Inspect() string {
	if b.Value {
		return "True"
	}
	return "False"
}

var (
	None  = &NoneType{}
	True  = &Bool{Value: true}
	False = &Bool{Value: false}
)

func nativeBool(b bool) *Bool {
	if b {
		return True
	}
	return False
}

// Int is the narrow integer representation.
type Int struct {
	Value int32
}

func (i *Int) Type() ObjectType { return INT_OBJ }
func (i *Int) Inspect() string  { return strconv.FormatInt(int64(i.Value), 10) }

// Long is the wide integer representation.
type Long struct {
	Value int64
}

// Both integer widths report INT_OBJ.
func (l *Long) Type() ObjectType { return INT_OBJ }
func (l *Long) Inspect() string  { return strconv.FormatInt(l.Value, 10) }

// Float32 is the narrow float representation.
type Float32 struct {
	Value float32
}

func (f *Float32) Type() ObjectType { return FLOAT_OBJ }
func (f *Float32) Inspect() string  { return utils.FormatFloat(float64(f.Value), 32) }

// Float is the wide float representation.
type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return utils.FormatFloat(f.Value, 64) }

type Str struct {
	Value string
}

func (s *Str) Type() ObjectType { return STR_OBJ }
func (s *Str) Inspect() string  { return utils.QuoteString(s.Value) }

// NewInt returns the narrowest integer representation holding v.
func NewInt(v int64) Object {
	if v >= -1<<31 && v < 1<<31 {
		return &Int{Value: int32(v)}
	}
	return &Long{Value: v}
}

func NewStr(s string) *Str { return &Str{Value: s} }
