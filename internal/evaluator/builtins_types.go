package evaluator

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// builtinTypes maps a value's ObjectType to its type object. It is filled in
// init because the method tables reach back into the evaluator.
var builtinTypes map[ObjectType]*BuiltinType

func init() {
	builtinTypes = map[ObjectType]*BuiltinType{
		NONE_OBJ:         {Name: NONE_OBJ},
		BOOL_OBJ:         {Name: BOOL_OBJ, New: newBool, Methods: intMethods},
		INT_OBJ:          {Name: INT_OBJ, New: newInt, Methods: intMethods},
		FLOAT_OBJ:        {Name: FLOAT_OBJ, New: newFloat, Methods: floatMethods},
		STR_OBJ:          {Name: STR_OBJ, New: newStr, Methods: strMethods},
		LIST_OBJ:         {Name: LIST_OBJ, New: newList, Methods: listMethods},
		TUPLE_OBJ:        {Name: TUPLE_OBJ, New: newTuple, Methods: tupleMethods},
		DICT_OBJ:         {Name: DICT_OBJ, New: newDict, Methods: dictMethods},
		SET_OBJ:          {Name: SET_OBJ, New: newSet, Methods: setMethods},
		RANGE_OBJ:        {Name: RANGE_OBJ, New: newRange, Methods: rangeMethods},
		SLICE_OBJ:        {Name: SLICE_OBJ, New: newSlice},
		TYPE_OBJ:         {Name: TYPE_OBJ, New: typeOfBuiltin},
		FUNCTION_OBJ:     {Name: FUNCTION_OBJ},
		BUILTIN_OBJ:      {Name: BUILTIN_OBJ},
		BOUND_METHOD_OBJ: {Name: BOUND_METHOD_OBJ},
		MODULE_OBJ:       {Name: MODULE_OBJ},
		SUPER_OBJ:        {Name: SUPER_OBJ},
		WRAPPER_OBJ:      {Name: WRAPPER_OBJ, Methods: wrapperMethods},
		HOST_OBJ:         {Name: HOST_OBJ},
		HOST_CLASS_OBJ:   {Name: HOST_CLASS_OBJ},
	}
}

// typeOf implements type(x).
func typeOf(obj Object) Object {
	switch o := obj.(type) {
	case *Instance:
		return o.Class
	case *Class, *BuiltinType:
		return builtinTypes[TYPE_OBJ]
	}
	if t, ok := builtinTypes[obj.Type()]; ok {
		return t
	}
	return builtinTypes[TYPE_OBJ]
}

func typeOfBuiltin(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if len(args) != 1 || len(kwargs) > 0 {
		return nil, newException(TypeErrorClass, "type() takes 1 argument")
	}
	return typeOf(args[0]), nil
}

// parseKwargs lays positional and keyword arguments out over names. Unset
// entries are nil.
func parseKwargs(fn string, args []Object, kwargs Kwargs, names ...string) ([]Object, error) {
	if len(args) > len(names) {
		return nil, newException(TypeErrorClass, "%s() takes at most %d %s (%d given)", fn, len(names), plural(len(names), "argument"), len(args))
	}
	out := make([]Object, len(names))
	copy(out, args)
	for _, kw := range kwargs {
		i := -1
		for j, n := range names {
			if n == kw.Name {
				i = j
				break
			}
		}
		if i < 0 {
			return nil, newException(TypeErrorClass, "%s() got an unexpected keyword argument '%s'", fn, kw.Name)
		}
		if out[i] != nil {
			return nil, newException(TypeErrorClass, "argument for %s() given by name ('%s') and position (%d)", fn, kw.Name, i+1)
		}
		out[i] = kw.Value
	}
	return out, nil
}

func noKeywords(fn string, kwargs Kwargs) error {
	if len(kwargs) > 0 {
		return newException(TypeErrorClass, "%s() takes no keyword arguments", fn)
	}
	return nil
}

func newBool(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("bool", kwargs); err != nil {
		return nil, err
	}
	if err := checkArity("bool", len(args), 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return False, nil
	}
	return nativeBool(isTruthy(args[0])), nil
}

func newInt(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("int", args, kwargs, "x", "base")
	if err != nil {
		return nil, err
	}
	x, base := params[0], params[1]
	if x == nil {
		if base != nil {
			return nil, newException(TypeErrorClass, "int() missing string argument")
		}
		return NewInt(0), nil
	}
	if base != nil {
		s, ok := x.(*Str)
		if !ok {
			return nil, newException(TypeErrorClass, "int() can't convert non-string with explicit base")
		}
		b, err := intArg("int", base)
		if err != nil {
			return nil, err
		}
		if b != 0 && (b < 2 || b > 36) {
			return nil, newException(ValueErrorClass, "int() base must be >= 2 and <= 36, or 0")
		}
		return parseIntLiteral(s.Value, int(b))
	}
	switch v := x.(type) {
	case *Str:
		return parseIntLiteral(v.Value, 10)
	case *Bool:
		if v.Value {
			return NewInt(1), nil
		}
		return NewInt(0), nil
	case *Int, *Long:
		return v, nil
	case *Float, *Float32:
		n, _ := toNumber(v)
		return floatToInt(n.f)
	case *Instance:
		for _, name := range []string{"__int__", "__index__"} {
			if r, ok, err := e.dunder(v, name); ok {
				if err != nil {
					return nil, err
				}
				if _, isInt := toInt(r); !isInt {
					return nil, newException(TypeErrorClass, "%s returned non-int (type %s)", name, typeName(r))
				}
				return r, nil
			}
		}
	}
	return nil, newException(TypeErrorClass, "int() argument must be a string, a bytes-like object or a real number, not '%s'", typeName(x))
}

func floatToInt(f float64) (Object, error) {
	switch {
	case math.IsInf(f, 0):
		return nil, newException(OverflowErrorClass, "cannot convert float infinity to integer")
	case math.IsNaN(f):
		return nil, newException(ValueErrorClass, "cannot convert float NaN to integer")
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return nil, newException(OverflowErrorClass, "int too large to convert")
	}
	return NewInt(int64(t)), nil
}

// parseIntLiteral implements int(str, base). Base 0 reads the prefix.
func parseIntLiteral(text string, base int) (Object, error) {
	invalid := func() error {
		return newException(ValueErrorClass, "invalid literal for int() with base %d: %s", base, NewStr(text).Inspect())
	}
	s := strings.TrimSpace(text)
	neg := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		neg = s[0] == '-'
		s = s[1:]
	}
	lower := strings.ToLower(s)
	prefixes := map[string]int{"0x": 16, "0o": 8, "0b": 2}
	if len(lower) > 2 {
		if b, ok := prefixes[lower[:2]]; ok && (base == 0 || base == b) {
			s, base = s[2:], b
			s = strings.TrimPrefix(s, "_")
		}
	}
	if base == 0 {
		if len(s) > 1 && strings.Trim(s, "0_") != "" && s[0] == '0' {
			return nil, invalid()
		}
		base = 10
	}
	if s == "" || strings.HasPrefix(s, "_") || strings.HasSuffix(s, "_") || strings.Contains(s, "__") {
		return nil, invalid()
	}
	digits := strings.ReplaceAll(s, "_", "")
	if neg {
		digits = "-" + digits
	}
	if n, err := strconv.ParseInt(digits, base, 64); err == nil {
		return NewInt(n), nil
	}
	r, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, invalid()
	}
	return bigToObject(kindLong, r), nil
}

func newFloat(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("float", kwargs); err != nil {
		return nil, err
	}
	if err := checkArity("float", len(args), 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return &Float{Value: 0}, nil
	}
	switch v := args[0].(type) {
	case *Str:
		s := strings.TrimSpace(v.Value)
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
		if err != nil {
			if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
				return nil, newException(ValueErrorClass, "could not convert string to float: %s", v.Inspect())
			}
		}
		return &Float{Value: f}, nil
	case *Instance:
		if r, ok, err := e.dunder(v, "__float__"); ok {
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, newException(TypeErrorClass, "float() argument must be a string or a real number, not '%s'", typeName(args[0]))
	}
	if n.kind == kindFloat32 {
		return args[0], nil
	}
	return &Float{Value: n.float()}, nil
}

func newStr(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("str", args, kwargs, "object")
	if err != nil {
		return nil, err
	}
	if params[0] == nil {
		return NewStr(""), nil
	}
	s, err := e.str(params[0])
	if err != nil {
		return nil, err
	}
	return NewStr(s), nil
}

func newList(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("list", kwargs); err != nil {
		return nil, err
	}
	if err := checkArity("list", len(args), 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return &List{}, nil
	}
	items, err := e.collect(args[0])
	if err != nil {
		return nil, err
	}
	return &List{Elements: append([]Object(nil), items...)}, nil
}

func newTuple(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("tuple", kwargs); err != nil {
		return nil, err
	}
	if err := checkArity("tuple", len(args), 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return NewTuple(), nil
	}
	if t, ok := args[0].(*Tuple); ok {
		return t, nil
	}
	items, err := e.collect(args[0])
	if err != nil {
		return nil, err
	}
	return NewTuple(items...), nil
}

func newDict(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := checkArity("dict", len(args), 0, 1); err != nil {
		return nil, err
	}
	d := NewDict()
	if len(args) == 1 {
		if err := e.dictUpdate(d, args[0]); err != nil {
			return nil, err
		}
	}
	for _, kw := range kwargs {
		d.SetStr(kw.Name, kw.Value)
	}
	return d, nil
}

func newSet(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("set", kwargs); err != nil {
		return nil, err
	}
	if err := checkArity("set", len(args), 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return NewSet(), nil
	}
	s, err := e.setArg(args[0])
	if err != nil {
		return nil, err
	}
	if s == args[0] {
		return s.Copy(), nil
	}
	return s, nil
}

func newRange(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("range", kwargs); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, newException(TypeErrorClass, "range expected at least 1 argument, got 0")
	}
	if len(args) > 3 {
		return nil, newException(TypeErrorClass, "range expected at most 3 arguments, got %d", len(args))
	}
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, err := intArg("range", a)
		if err != nil {
			return nil, err
		}
		bounds[i] = n
	}
	r := &Range{Step: 1}
	switch len(bounds) {
	case 1:
		r.Stop = bounds[0]
	case 2:
		r.Start, r.Stop = bounds[0], bounds[1]
	default:
		r.Start, r.Stop, r.Step = bounds[0], bounds[1], bounds[2]
		if r.Step == 0 {
			return nil, newException(ValueErrorClass, "range() arg 3 must not be zero")
		}
	}
	return r, nil
}

func newSlice(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("slice", kwargs); err != nil {
		return nil, err
	}
	if err := checkArity("slice", len(args), 1, 3); err != nil {
		return nil, err
	}
	switch len(args) {
	case 1:
		return &SliceValue{Start: None, Stop: args[0], Step: None}, nil
	case 2:
		return &SliceValue{Start: args[0], Stop: args[1], Step: None}, nil
	}
	return &SliceValue{Start: args[0], Stop: args[1], Step: args[2]}, nil
}
