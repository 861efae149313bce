package evaluator

import (
	"io"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/config"
)

// superBuiltin is compared by identity in evalCall to resolve zero-argument
// super() against the calling method.
var superBuiltin *Builtin

var builtinFunctions map[string]BuiltinFunction

func init() {
	superBuiltin = &Builtin{Name: config.SuperFuncName, Fn: builtinSuper}
	builtinFunctions = map[string]BuiltinFunction{
		config.PrintFuncName:      builtinPrint,
		config.LenFuncName:        builtinLen,
		config.ReprFuncName:       builtinRepr,
		config.IsInstanceFuncName: builtinIsInstance,
		config.HostClassFuncName:  builtinHostClass,
		"ascii":                   builtinASCII,
		"format":                  builtinFormat,
		"issubclass":              builtinIsSubclass,
		"abs":                     builtinAbs,
		"min":                     builtinMin,
		"max":                     builtinMax,
		"sum":                     builtinSum,
		"sorted":                  builtinSorted,
		"reversed":                builtinReversed,
		"enumerate":               builtinEnumerate,
		"zip":                     builtinZip,
		"map":                     builtinMap,
		"filter":                  builtinFilter,
		"any":                     builtinAny,
		"all":                     builtinAll,
		"hasattr":                 builtinHasAttr,
		"getattr":                 builtinGetAttr,
		"setattr":                 builtinSetAttr,
		"delattr":                 builtinDelAttr,
		"callable":                builtinCallable,
		"round":                   builtinRound,
		"divmod":                  builtinDivmod,
		"pow":                     builtinPow,
		"chr":                     builtinChr,
		"ord":                     builtinOrd,
		"hex":                     radixBuiltin("hex", 16, "0x"),
		"oct":                     radixBuiltin("oct", 8, "0o"),
		"bin":                     radixBuiltin("bin", 2, "0b"),
		"hash":                    builtinHash,
		"id":                      builtinID,
		"staticmethod":            wrapperBuiltin("staticmethod", StaticMethodWrapper),
		"classmethod":             wrapperBuiltin("classmethod", ClassMethodWrapper),
		"property":                builtinProperty,
		"dir":                     builtinDir,
		"vars":                    builtinVars,
	}
}

// newBuiltinsEnvironment creates the outermost scope shared by a script's
// module globals.
func newBuiltinsEnvironment() *Environment {
	env := NewEnvironment()
	env.kind = BuiltinsScope
	for name, fn := range builtinFunctions {
		env.Define(name, &Builtin{Name: name, Fn: fn})
	}
	env.Define(config.SuperFuncName, superBuiltin)
	for _, name := range []ObjectType{BOOL_OBJ, INT_OBJ, FLOAT_OBJ, STR_OBJ, LIST_OBJ, TUPLE_OBJ, DICT_OBJ, SET_OBJ, RANGE_OBJ, SLICE_OBJ, TYPE_OBJ} {
		env.Define(string(name), builtinTypes[name])
	}
	env.Define("object", objectClass)
	for _, cls := range exceptionClasses {
		env.Define(cls.Name, cls)
	}
	return env
}

func builtinPrint(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs(config.PrintFuncName, nil, kwargs, "sep", "end", "file", "flush")
	if err != nil {
		return nil, err
	}
	sep, end := " ", "\n"
	if params[0] != nil && params[0] != None {
		if sep, err = strArg("print", params[0]); err != nil {
			return nil, err
		}
	}
	if params[1] != nil && params[1] != None {
		if end, err = strArg("print", params[1]); err != nil {
			return nil, err
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		if parts[i], err = e.str(a); err != nil {
			return nil, err
		}
	}
	line := strings.Join(parts, sep) + end
	if file := params[2]; file != nil && file != None {
		write, err := e.getAttr(file, "write")
		if err != nil {
			return nil, err
		}
		_, err = e.Call(write, []Object{NewStr(line)}, nil)
		return None, err
	}
	if _, err := io.WriteString(e.Out, line); err != nil {
		return nil, newException(RuntimeErrorClass, "print: %v", err)
	}
	return None, nil
}

func builtinLen(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs(config.LenFuncName, args, kwargs, 1); err != nil {
		return nil, err
	}
	n, err := e.length(args[0])
	if err != nil {
		return nil, err
	}
	return NewInt(n), nil
}

func exactArgs(fn string, args []Object, kwargs Kwargs, n int) error {
	if err := noKeywords(fn, kwargs); err != nil {
		return err
	}
	if len(args) != n {
		if n == 1 {
			return newException(TypeErrorClass, "%s() takes exactly one argument (%d given)", fn, len(args))
		}
		return newException(TypeErrorClass, "%s expected %d arguments, got %d", fn, n, len(args))
	}
	return nil
}

func builtinRepr(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs(config.ReprFuncName, args, kwargs, 1); err != nil {
		return nil, err
	}
	s, err := e.repr(args[0])
	if err != nil {
		return nil, err
	}
	return NewStr(s), nil
}

func builtinASCII(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("ascii", args, kwargs, 1); err != nil {
		return nil, err
	}
	s, err := e.repr(args[0])
	if err != nil {
		return nil, err
	}
	return NewStr(asciiEscape(s)), nil
}

func builtinFormat(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("format", args, kwargs, "value", "format_spec")
	if err != nil {
		return nil, err
	}
	if params[0] == nil {
		return nil, newException(TypeErrorClass, "format() missing required argument 'value' (pos 1)")
	}
	spec := ""
	if params[1] != nil {
		if spec, err = strArg("format", params[1]); err != nil {
			return nil, err
		}
	}
	s, err := e.formatValue(params[0], spec)
	if err != nil {
		return nil, err
	}
	return NewStr(s), nil
}

// isInstance implements isinstance for a single class or a tuple of them.
func isInstance(obj, cls Object) (bool, error) {
	switch c := cls.(type) {
	case *Tuple:
		for _, el := range c.Elements {
			ok, err := isInstance(obj, el)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case *Class:
		if c == objectClass {
			return true, nil
		}
		inst, ok := obj.(*Instance)
		return ok && inst.Class.IsSubclass(c), nil
	case *BuiltinType:
		t := obj.Type()
		return t == c.Name || (c.Name == INT_OBJ && t == BOOL_OBJ), nil
	case *HostClass:
		h, ok := obj.(*HostObject)
		return ok && c.Handle.IsInstance(h.Value), nil
	}
	return false, newException(TypeErrorClass, "isinstance() arg 2 must be a type, a tuple of types, or a union")
}

func builtinIsInstance(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs(config.IsInstanceFuncName, args, kwargs, 2); err != nil {
		return nil, err
	}
	ok, err := isInstance(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return nativeBool(ok), nil
}

func isSubclass(sub, cls Object) (bool, error) {
	if t, ok := cls.(*Tuple); ok {
		for _, el := range t.Elements {
			ok, err := isSubclass(sub, el)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	switch s := sub.(type) {
	case *Class:
		c, ok := cls.(*Class)
		return ok && s.IsSubclass(c), nil
	case *BuiltinType:
		if cls == objectClass {
			return true, nil
		}
		c, ok := cls.(*BuiltinType)
		return ok && (s == c || (s.Name == BOOL_OBJ && c.Name == INT_OBJ)), nil
	case *HostClass:
		c, ok := cls.(*HostClass)
		return ok && c.Handle.Name() == s.Handle.Name(), nil
	}
	return false, newException(TypeErrorClass, "issubclass() arg 1 must be a class")
}

func builtinIsSubclass(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("issubclass", args, kwargs, 2); err != nil {
		return nil, err
	}
	ok, err := isSubclass(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return nativeBool(ok), nil
}

func builtinAbs(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("abs", args, kwargs, 1); err != nil {
		return nil, err
	}
	if v, ok, err := e.dunder(args[0], "__abs__"); ok {
		return v, err
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, newException(TypeErrorClass, "bad operand type for abs(): '%s'", typeName(args[0]))
	}
	switch n.kind {
	case kindInt, kindLong:
		if n.i >= 0 {
			return makeInt(n.kind, n.i), nil
		}
		if n.i == math.MinInt64 {
			return &Float{Value: -float64(n.i)}, nil
		}
		return makeInt(n.kind, -n.i), nil
	}
	return makeFloat(n.kind, math.Abs(n.f)), nil
}

// extreme implements min and max. better reports whether candidate should
// replace the current best.
func (e *Evaluator) extreme(fn string, args []Object, kwargs Kwargs, better func(candidate, best Object) (bool, error)) (Object, error) {
	params, err := parseKwargs(fn, nil, kwargs, "key", "default")
	if err != nil {
		return nil, err
	}
	items := args
	switch len(args) {
	case 0:
		return nil, newException(TypeErrorClass, "%s expected at least 1 argument, got 0", fn)
	case 1:
		if items, err = e.collect(args[0]); err != nil {
			return nil, err
		}
	default:
		if params[1] != nil {
			return nil, newException(TypeErrorClass, "Cannot specify a default for %s() with multiple positional arguments", fn)
		}
	}
	if len(items) == 0 {
		if params[1] != nil {
			return params[1], nil
		}
		return nil, newException(ValueErrorClass, "%s() arg is an empty sequence", fn)
	}
	keyOf := func(v Object) (Object, error) {
		if params[0] == nil || params[0] == None {
			return v, nil
		}
		return e.Call(params[0], []Object{v}, nil)
	}
	best := items[0]
	bestKey, err := keyOf(best)
	if err != nil {
		return nil, err
	}
	for _, it := range items[1:] {
		k, err := keyOf(it)
		if err != nil {
			return nil, err
		}
		replace, err := better(k, bestKey)
		if err != nil {
			return nil, err
		}
		if replace {
			best, bestKey = it, k
		}
	}
	return best, nil
}

func builtinMin(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	return e.extreme("min", args, kwargs, e.less)
}

func builtinMax(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	return e.extreme("max", args, kwargs, func(candidate, best Object) (bool, error) {
		return e.less(best, candidate)
	})
}

func builtinSum(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("sum", args, kwargs, "iterable", "start")
	if err != nil {
		return nil, err
	}
	if params[0] == nil {
		return nil, newException(TypeErrorClass, "sum() takes at least 1 positional argument (0 given)")
	}
	var acc Object = NewInt(0)
	if params[1] != nil {
		acc = params[1]
	}
	if _, ok := acc.(*Str); ok {
		return nil, newException(TypeErrorClass, "sum() can't sum strings [use ''.join(seq) instead]")
	}
	items, err := e.collect(params[0])
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if acc, err = e.binaryOp(ast.Add, acc, it); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func builtinSorted(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if len(args) != 1 {
		return nil, newException(TypeErrorClass, "sorted expected 1 argument, got %d", len(args))
	}
	params, err := parseKwargs("sorted", nil, kwargs, "key", "reverse")
	if err != nil {
		return nil, err
	}
	items, err := e.collect(args[0])
	if err != nil {
		return nil, err
	}
	out := append([]Object(nil), items...)
	reverse := params[1] != nil && isTruthy(params[1])
	if err := e.sortObjects(out, params[0], reverse); err != nil {
		return nil, err
	}
	return &List{Elements: out}, nil
}

// builtinReversed returns a reversed list; there are no lazy iterators.
func builtinReversed(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("reversed", args, kwargs, 1); err != nil {
		return nil, err
	}
	if v, ok, err := e.dunder(args[0], "__reversed__"); ok {
		return v, err
	}
	switch args[0].(type) {
	case *Dict, *Set:
		return nil, newException(TypeErrorClass, "'%s' object is not reversible", typeName(args[0]))
	}
	items, err := e.collect(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]Object, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return &List{Elements: out}, nil
}

func builtinEnumerate(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("enumerate", args, kwargs, "iterable", "start")
	if err != nil {
		return nil, err
	}
	if params[0] == nil {
		return nil, newException(TypeErrorClass, "enumerate() missing required argument 'iterable'")
	}
	start, err := optionalInt("enumerate", params, 1, 0)
	if err != nil {
		return nil, err
	}
	items, err := e.collect(params[0])
	if err != nil {
		return nil, err
	}
	out := make([]Object, len(items))
	for i, it := range items {
		out[i] = NewTuple(NewInt(start+int64(i)), it)
	}
	return &List{Elements: out}, nil
}

func builtinZip(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("zip", nil, kwargs, "strict")
	if err != nil {
		return nil, err
	}
	strict := params[0] != nil && isTruthy(params[0])
	cols := make([][]Object, len(args))
	shortest := -1
	for i, a := range args {
		if cols[i], err = e.collect(a); err != nil {
			return nil, err
		}
		if shortest < 0 || len(cols[i]) < shortest {
			if strict && shortest >= 0 {
				return nil, newException(ValueErrorClass, "zip() argument %d is shorter than argument 1", i+1)
			}
			shortest = len(cols[i])
		} else if strict && len(cols[i]) > shortest {
			return nil, newException(ValueErrorClass, "zip() argument %d is longer than argument 1", i+1)
		}
	}
	if shortest < 0 {
		return &List{}, nil
	}
	out := make([]Object, shortest)
	for row := range out {
		elems := make([]Object, len(cols))
		for c := range cols {
			elems[c] = cols[c][row]
		}
		out[row] = NewTuple(elems...)
	}
	return &List{Elements: out}, nil
}

func builtinMap(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("map", kwargs); err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, newException(TypeErrorClass, "map() must have at least two arguments.")
	}
	zipped, err := builtinZip(e, args[1:], nil)
	if err != nil {
		return nil, err
	}
	rows := zipped.(*List).Elements
	out := make([]Object, len(rows))
	for i, row := range rows {
		if out[i], err = e.Call(args[0], row.(*Tuple).Elements, nil); err != nil {
			return nil, err
		}
	}
	return &List{Elements: out}, nil
}

func builtinFilter(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("filter", args, kwargs, 2); err != nil {
		return nil, err
	}
	items, err := e.collect(args[1])
	if err != nil {
		return nil, err
	}
	var out []Object
	for _, it := range items {
		keep := it
		if args[0] != None {
			if keep, err = e.Call(args[0], []Object{it}, nil); err != nil {
				return nil, err
			}
		}
		if isTruthy(keep) {
			out = append(out, it)
		}
	}
	return &List{Elements: out}, nil
}

func (e *Evaluator) truthScan(fn string, args []Object, kwargs Kwargs, stopOn bool) (Object, error) {
	if err := exactArgs(fn, args, kwargs, 1); err != nil {
		return nil, err
	}
	it, err := e.iterator(args[0])
	if err != nil {
		return nil, err
	}
	for {
		v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nativeBool(!stopOn), nil
		}
		if isTruthy(v) == stopOn {
			return nativeBool(stopOn), nil
		}
	}
}

func builtinAny(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	return e.truthScan("any", args, kwargs, true)
}

func builtinAll(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	return e.truthScan("all", args, kwargs, false)
}

func attrName(fn string, o Object) (string, error) {
	s, ok := o.(*Str)
	if !ok {
		return "", newException(TypeErrorClass, "attribute name must be string, not '%s'", typeName(o))
	}
	return s.Value, nil
}

func builtinHasAttr(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("hasattr", args, kwargs, 2); err != nil {
		return nil, err
	}
	name, err := attrName("hasattr", args[1])
	if err != nil {
		return nil, err
	}
	ok, err := e.hasAttr(args[0], name)
	if err != nil {
		return nil, err
	}
	return nativeBool(ok), nil
}

func builtinGetAttr(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("getattr", kwargs); err != nil {
		return nil, err
	}
	if len(args) < 2 || len(args) > 3 {
		return nil, newException(TypeErrorClass, "getattr expected 2 or 3 arguments, got %d", len(args))
	}
	name, err := attrName("getattr", args[1])
	if err != nil {
		return nil, err
	}
	v, err := e.getAttr(args[0], name)
	if err != nil && len(args) == 3 {
		if exc, ok := err.(*Exception); ok && exc.Is(AttributeErrorClass) {
			return args[2], nil
		}
	}
	return v, err
}

func builtinSetAttr(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("setattr", args, kwargs, 3); err != nil {
		return nil, err
	}
	name, err := attrName("setattr", args[1])
	if err != nil {
		return nil, err
	}
	return None, e.setAttr(args[0], name, args[2])
}

func builtinDelAttr(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("delattr", args, kwargs, 2); err != nil {
		return nil, err
	}
	name, err := attrName("delattr", args[1])
	if err != nil {
		return nil, err
	}
	return None, e.delAttr(args[0], name)
}

// IsCallable reports whether scripts can call o.
func IsCallable(o Object) bool {
	switch v := o.(type) {
	case *Function, *Builtin, *BoundMethod, *Class, *BuiltinType, *HostClass, *HostMethod:
		return true
	case *MethodWrapper:
		return v.Kind != PropertyWrapper
	case *Instance:
		_, _, ok := v.Class.Lookup(config.CallMethod)
		return ok
	}
	return false
}

func builtinCallable(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("callable", args, kwargs, 1); err != nil {
		return nil, err
	}
	return nativeBool(IsCallable(args[0])), nil
}

func builtinRound(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("round", args, kwargs, "number", "ndigits")
	if err != nil {
		return nil, err
	}
	x := params[0]
	if x == nil {
		return nil, newException(TypeErrorClass, "round() missing required argument 'number' (pos 1)")
	}
	if inst, ok := x.(*Instance); ok {
		var extra []Object
		if params[1] != nil {
			extra = []Object{params[1]}
		}
		if v, ok, err := e.dunder(inst, "__round__", extra...); ok {
			return v, err
		}
	}
	n, ok := toNumber(x)
	if !ok {
		return nil, newException(TypeErrorClass, "type %s doesn't define __round__ method", typeName(x))
	}
	if params[1] == nil || params[1] == None {
		if n.isInt() {
			return makeInt(n.kind, n.i), nil
		}
		return floatToInt(roundHalfEven(n.f))
	}
	digits, err := intArg("round", params[1])
	if err != nil {
		return nil, err
	}
	if n.isInt() {
		if digits >= 0 {
			return makeInt(n.kind, n.i), nil
		}
		p := math.Pow(10, float64(-digits))
		return NewInt(int64(roundHalfEven(float64(n.i)/p) * p)), nil
	}
	if math.IsInf(n.f, 0) || math.IsNaN(n.f) {
		return x, nil
	}
	var r float64
	if digits >= 0 {
		// decimal formatting rounds the exact binary value half-to-even
		r, _ = strconv.ParseFloat(strconv.FormatFloat(n.f, 'f', int(digits), 64), 64)
	} else {
		p := math.Pow(10, float64(-digits))
		r = roundHalfEven(n.f/p) * p
	}
	return makeFloat(n.kind, r), nil
}

func builtinDivmod(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("divmod", args, kwargs, 2); err != nil {
		return nil, err
	}
	q, err := e.binaryOp(ast.FloorDiv, args[0], args[1])
	if err != nil {
		return nil, err
	}
	r, err := e.binaryOp(ast.Mod, args[0], args[1])
	if err != nil {
		return nil, err
	}
	return NewTuple(q, r), nil
}

func builtinPow(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("pow", args, kwargs, "base", "exp", "mod")
	if err != nil {
		return nil, err
	}
	if params[0] == nil || params[1] == nil {
		return nil, newException(TypeErrorClass, "pow() missing required argument")
	}
	if params[2] == nil || params[2] == None {
		return e.binaryOp(ast.Pow, params[0], params[1])
	}
	base, ok1 := toInt(params[0])
	exp, ok2 := toInt(params[1])
	mod, ok3 := toInt(params[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, newException(TypeErrorClass, "pow() 3rd argument not allowed unless all arguments are integers")
	}
	if mod == 0 {
		return nil, newException(ValueErrorClass, "pow() 3rd argument cannot be 0")
	}
	m := new(big.Int).Abs(big.NewInt(mod))
	b := new(big.Int).Mod(big.NewInt(base), m)
	if exp < 0 {
		if b = b.ModInverse(b, m); b == nil {
			return nil, newException(ValueErrorClass, "base is not invertible for the given modulus")
		}
		exp = -exp
	}
	r := new(big.Int).Exp(b, big.NewInt(exp), m)
	if mod < 0 && r.Sign() != 0 {
		r.Add(r, big.NewInt(mod))
	}
	return NewInt(r.Int64()), nil
}

func builtinChr(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("chr", args, kwargs, 1); err != nil {
		return nil, err
	}
	n, err := intArg("chr", args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 || n > 0x10ffff {
		return nil, newException(ValueErrorClass, "chr() arg not in range(0x110000)")
	}
	return NewStr(string(rune(n))), nil
}

func builtinOrd(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("ord", args, kwargs, 1); err != nil {
		return nil, err
	}
	s, ok := args[0].(*Str)
	if !ok {
		return nil, newException(TypeErrorClass, "ord() expected string of length 1, but %s found", typeName(args[0]))
	}
	runes := []rune(s.Value)
	if len(runes) != 1 {
		return nil, newException(TypeErrorClass, "ord() expected a character, but string of length %d found", len(runes))
	}
	return NewInt(int64(runes[0])), nil
}

func radixBuiltin(name string, base int, prefix string) BuiltinFunction {
	return func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs(name, args, kwargs, 1); err != nil {
			return nil, err
		}
		v := args[0]
		if inst, ok := v.(*Instance); ok {
			r, found, err := e.dunder(inst, "__index__")
			if err != nil {
				return nil, err
			}
			if found {
				v = r
			}
		}
		n, ok := toInt(v)
		if !ok {
			return nil, newException(TypeErrorClass, "'%s' object cannot be interpreted as an integer", typeName(v))
		}
		sign := ""
		if n < 0 {
			sign = "-"
		}
		return NewStr(sign + prefix + strconv.FormatUint(absU(n), base)), nil
	}
}

func (e *Evaluator) hash(o Object) (int64, error) {
	if inst, ok := o.(*Instance); ok {
		if v, found, err := e.dunder(inst, config.HashMethod); found {
			if err != nil {
				return 0, err
			}
			n, isInt := toInt(v)
			if !isInt {
				return 0, newException(TypeErrorClass, "__hash__ method should return an integer")
			}
			return n, nil
		}
	}
	h, ok := hashKey(o)
	if !ok {
		return 0, unhashableError(o)
	}
	return int64(h), nil
}

func builtinHash(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("hash", args, kwargs, 1); err != nil {
		return nil, err
	}
	h, err := e.hash(args[0])
	if err != nil {
		return nil, err
	}
	return NewInt(h), nil
}

func builtinID(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("id", args, kwargs, 1); err != nil {
		return nil, err
	}
	return NewInt(int64(identityHash(args[0]) >> 1)), nil
}

func builtinSuper(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords(config.SuperFuncName, kwargs); err != nil {
		return nil, err
	}
	switch len(args) {
	case 0:
		return e.zeroArgSuper()
	case 2:
		cls, ok := args[0].(*Class)
		if !ok {
			return nil, newException(TypeErrorClass, "super() argument 1 must be a type, not %s", typeName(args[0]))
		}
		return &SuperProxy{Class: cls, Self: args[1]}, nil
	}
	return nil, newException(TypeErrorClass, "super() takes 0 or 2 arguments (%d given)", len(args))
}

func wrapperBuiltin(name string, kind WrapperKind) BuiltinFunction {
	return func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs(name, args, kwargs, 1); err != nil {
			return nil, err
		}
		return &MethodWrapper{Kind: kind, Fn: args[0]}, nil
	}
}

func builtinProperty(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	params, err := parseKwargs("property", args, kwargs, "fget", "fset", "fdel", "doc")
	if err != nil {
		return nil, err
	}
	w := &MethodWrapper{Kind: PropertyWrapper, Fn: params[0], Setter: params[1]}
	if w.Fn == nil || w.Fn == None {
		return nil, newException(TypeErrorClass, "property() requires a getter")
	}
	if w.Setter == None {
		w.Setter = nil
	}
	return w, nil
}

func builtinHostClass(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs(config.HostClassFuncName, args, kwargs, 1); err != nil {
		return nil, err
	}
	name, err := strArg(config.HostClassFuncName, args[0])
	if err != nil {
		return nil, err
	}
	if e.Bridge == nil {
		return nil, newException(ImportErrorClass, "no host bridge configured: cannot resolve '%s'", name)
	}
	handle, err := e.Bridge.Resolve(name)
	if err != nil {
		return nil, hostCallError(err, name)
	}
	return &HostClass{Handle: handle}, nil
}

func builtinDir(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := noKeywords("dir", kwargs); err != nil {
		return nil, err
	}
	if err := checkArity("dir", len(args), 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return strList(e.State.Globals.Names()), nil
	}
	return strList(e.dir(args[0])), nil
}

func builtinVars(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
	if err := exactArgs("vars", args, kwargs, 1); err != nil {
		return nil, err
	}
	d := NewDict()
	switch o := args[0].(type) {
	case *Instance:
		for _, n := range o.FieldNames() {
			d.SetStr(n, o.Fields[n])
		}
	case *Class:
		for _, n := range o.Order {
			d.SetStr(n, o.Dict[n])
		}
	case *Module:
		for _, n := range sortedKeys(o.Members) {
			d.SetStr(n, o.Members[n])
		}
	default:
		return nil, newException(TypeErrorClass, "vars() argument must have __dict__ attribute")
	}
	return d, nil
}

func sortedKeys(m map[string]Object) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
