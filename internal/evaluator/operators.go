package evaluator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/config"
)

// errUnsupported marks an operand combination with no native implementation.
var errUnsupported = errors.New("unsupported operands")

var binaryDunders = map[ast.Operator]string{
	ast.Add:      "__add__",
	ast.Sub:      "__sub__",
	ast.Mult:     "__mul__",
	ast.MatMult:  "__matmul__",
	ast.Div:      "__truediv__",
	ast.FloorDiv: "__floordiv__",
	ast.Mod:      "__mod__",
	ast.Pow:      "__pow__",
	ast.LShift:   "__lshift__",
	ast.RShift:   "__rshift__",
	ast.BitAnd:   "__and__",
	ast.BitOr:    "__or__",
	ast.BitXor:   "__xor__",
}

var compareDunders = map[ast.Operator]string{
	ast.Eq:    config.EqMethod,
	ast.NotEq: config.NeMethod,
	ast.Lt:    "__lt__",
	ast.LtE:   "__le__",
	ast.Gt:    "__gt__",
	ast.GtE:   "__ge__",
}

var unaryDunders = map[ast.Operator]string{
	ast.USub:   "__neg__",
	ast.UAdd:   "__pos__",
	ast.Invert: "__invert__",
}

// inplaceDunder maps __add__ to __iadd__ and so on.
func inplaceDunder(op ast.Operator) string {
	return "__i" + strings.TrimPrefix(binaryDunders[op], "__")
}

// binaryOp dispatches to the left operand's overload, then to the native
// implementation.
func (e *Evaluator) binaryOp(op ast.Operator, a, b Object) (Object, error) {
	if v, ok, err := e.dunder(a, binaryDunders[op], b); ok {
		return v, err
	}
	v, err := e.nativeBinary(op, a, b)
	if err == errUnsupported {
		return nil, unsupportedOperands(op.Symbol(), a, b)
	}
	return v, err
}

// inplaceOp implements augmented assignment: __iadd__-family overloads, list
// extension in place, then the plain binary operator.
func (e *Evaluator) inplaceOp(op ast.Operator, a, b Object) (Object, error) {
	if v, ok, err := e.dunder(a, inplaceDunder(op), b); ok {
		return v, err
	}
	if l, ok := a.(*List); ok && op == ast.Add {
		items, err := e.collect(b)
		if err != nil {
			return nil, err
		}
		l.Elements = append(l.Elements, items...)
		return l, nil
	}
	if s, ok := a.(*Set); ok {
		if other, ok := b.(*Set); ok {
			switch op {
			case ast.BitOr:
				for _, m := range other.Members() {
					if err := s.Add(m); err != nil {
						return nil, err
					}
				}
				return s, nil
			case ast.BitAnd, ast.Sub, ast.BitXor:
				r, err := setOperation(op, s, other)
				if err != nil {
					return nil, err
				}
				s.table = r.(*Set).table
				return s, nil
			}
		}
	}
	if d, ok := a.(*Dict); ok && op == ast.BitOr {
		if other, ok := b.(*Dict); ok {
			for _, item := range other.Items() {
				kv := item.(*Tuple).Elements
				if err := d.Set(kv[0], kv[1]); err != nil {
					return nil, err
				}
			}
			return d, nil
		}
	}
	v, err := e.binaryOp(op, a, b)
	if exc, ok := err.(*Exception); ok && exc.Is(TypeErrorClass) && strings.HasPrefix(exc.Message(), "unsupported operand") {
		return nil, unsupportedOperands(op.Symbol()+"=", a, b)
	}
	return v, err
}

func (e *Evaluator) nativeBinary(op ast.Operator, a, b Object) (Object, error) {
	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			if ab, ok := a.(*Bool); ok {
				if bb, ok := b.(*Bool); ok {
					switch op {
					case ast.BitAnd:
						return nativeBool(ab.Value && bb.Value), nil
					case ast.BitOr:
						return nativeBool(ab.Value || bb.Value), nil
					case ast.BitXor:
						return nativeBool(ab.Value != bb.Value), nil
					}
				}
			}
			return arithmetic(op, x, y)
		}
	}
	switch x := a.(type) {
	case *Str:
		switch op {
		case ast.Add:
			if y, ok := b.(*Str); ok {
				return NewStr(x.Value + y.Value), nil
			}
		case ast.Mult:
			if n, ok := toInt(b); ok {
				return NewStr(strings.Repeat(x.Value, clampRepeat(n))), nil
			}
		case ast.Mod:
			s, err := e.percentFormat(x.Value, b)
			if err != nil {
				return nil, err
			}
			return NewStr(s), nil
		}
	case *List:
		switch op {
		case ast.Add:
			if y, ok := b.(*List); ok {
				out := make([]Object, 0, len(x.Elements)+len(y.Elements))
				return &List{Elements: append(append(out, x.Elements...), y.Elements...)}, nil
			}
		case ast.Mult:
			if n, ok := toInt(b); ok {
				return &List{Elements: repeat(x.Elements, n)}, nil
			}
		}
	case *Tuple:
		switch op {
		case ast.Add:
			if y, ok := b.(*Tuple); ok {
				out := make([]Object, 0, len(x.Elements)+len(y.Elements))
				return NewTuple(append(append(out, x.Elements...), y.Elements...)...), nil
			}
		case ast.Mult:
			if n, ok := toInt(b); ok {
				return NewTuple(repeat(x.Elements, n)...), nil
			}
		}
	case *Set:
		if y, ok := b.(*Set); ok {
			return setOperation(op, x, y)
		}
	case *Dict:
		if y, ok := b.(*Dict); ok && op == ast.BitOr {
			out := x.Copy()
			for _, item := range y.Items() {
				kv := item.(*Tuple).Elements
				if err := out.Set(kv[0], kv[1]); err != nil {
					return nil, err
				}
			}
			return out, nil
		}
	}
	if op == ast.Mult {
		if n, ok := toInt(a); ok {
			switch y := b.(type) {
			case *Str, *List, *Tuple:
				return e.nativeBinary(op, y, NewInt(n))
			}
		}
	}
	return nil, errUnsupported
}

func clampRepeat(n int64) int {
	if n < 0 {
		return 0
	}
	return int(n)
}

func repeat(elems []Object, n int64) []Object {
	count := clampRepeat(n)
	out := make([]Object, 0, len(elems)*count)
	for i := 0; i < count; i++ {
		out = append(out, elems...)
	}
	return out
}

func setOperation(op ast.Operator, a, b *Set) (Object, error) {
	out := NewSet()
	switch op {
	case ast.BitOr:
		out = a.Copy()
		for _, m := range b.Members() {
			if err := out.Add(m); err != nil {
				return nil, err
			}
		}
	case ast.BitAnd:
		for _, m := range a.Members() {
			if ok, _ := b.Contains(m); ok {
				_ = out.Add(m)
			}
		}
	case ast.Sub:
		for _, m := range a.Members() {
			if ok, _ := b.Contains(m); !ok {
				_ = out.Add(m)
			}
		}
	case ast.BitXor:
		for _, m := range a.Members() {
			if ok, _ := b.Contains(m); !ok {
				_ = out.Add(m)
			}
		}
		for _, m := range b.Members() {
			if ok, _ := a.Contains(m); !ok {
				_ = out.Add(m)
			}
		}
	default:
		return nil, errUnsupported
	}
	return out, nil
}

func (e *Evaluator) unaryOp(op ast.Operator, a Object) (Object, error) {
	if v, ok, err := e.dunder(a, unaryDunders[op]); ok {
		return v, err
	}
	if n, ok := toNumber(a); ok {
		switch op {
		case ast.USub:
			if n.isInt() {
				if n.i == -1<<63 {
					return &Float{Value: -float64(n.i)}, nil
				}
				return makeInt(n.kind, -n.i), nil
			}
			return makeFloat(n.kind, -n.f), nil
		case ast.UAdd:
			if n.isInt() {
				return makeInt(n.kind, n.i), nil
			}
			return makeFloat(n.kind, n.f), nil
		case ast.Invert:
			if n.isInt() {
				return makeInt(n.kind, ^n.i), nil
			}
		}
	}
	return nil, newException(TypeErrorClass, "bad operand type for unary %s: '%s'", op.Symbol(), typeName(a))
}

// compare evaluates a single comparison operator.
func (e *Evaluator) compare(op ast.Operator, a, b Object) (Object, error) {
	switch op {
	case ast.Is:
		return nativeBool(identical(a, b)), nil
	case ast.IsNot:
		return nativeBool(!identical(a, b)), nil
	case ast.In, ast.NotIn:
		ok, err := e.contains(b, a)
		if err != nil {
			return nil, err
		}
		return nativeBool(ok == (op == ast.In)), nil
	case ast.Eq:
		if v, ok, err := e.dunder(a, config.EqMethod, b); ok {
			return v, err
		}
		eq, err := e.equals(a, b)
		return nativeBool(eq), err
	case ast.NotEq:
		if v, ok, err := e.dunder(a, config.NeMethod, b); ok {
			return v, err
		}
		if v, ok, err := e.dunder(a, config.EqMethod, b); ok {
			if err != nil {
				return nil, err
			}
			return nativeBool(!isTruthy(v)), nil
		}
		eq, err := e.equals(a, b)
		return nativeBool(!eq), err
	}
	if v, ok, err := e.dunder(a, compareDunders[op], b); ok {
		return v, err
	}
	r, err := e.order(op, a, b)
	if err != nil {
		return nil, err
	}
	return nativeBool(r), nil
}

// identical implements `is`. Numbers and strings compare by kind and value
// since they have no stable identity.
func identical(a, b Object) bool {
	switch x := a.(type) {
	case *Int:
		y, ok := b.(*Int)
		return ok && x.Value == y.Value
	case *Long:
		y, ok := b.(*Long)
		return ok && x.Value == y.Value
	case *Float:
		y, ok := b.(*Float)
		return ok && x.Value == y.Value
	case *Float32:
		y, ok := b.(*Float32)
		return ok && x.Value == y.Value
	case *Str:
		y, ok := b.(*Str)
		return ok && x.Value == y.Value
	case *HostObject:
		y, ok := b.(*HostObject)
		return ok && (x == y || sameForeign(x.Value, y.Value))
	}
	return a == b
}

func sameForeign(a, b ForeignValue) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

// equals is `==` without the left operand's overload; elements of
// collections are compared with full dispatch.
func (e *Evaluator) equals(a, b Object) (bool, error) {
	if eq, ok := numericEquals(a, b); ok {
		return eq, nil
	}
	switch x := a.(type) {
	case *Str:
		y, ok := b.(*Str)
		return ok && x.Value == y.Value, nil
	case *List:
		y, ok := b.(*List)
		if !ok {
			return false, nil
		}
		return e.elementsEqual(x.Elements, y.Elements)
	case *Tuple:
		y, ok := b.(*Tuple)
		if !ok {
			return false, nil
		}
		return e.elementsEqual(x.Elements, y.Elements)
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false, nil
		}
		for _, item := range x.Items() {
			kv := item.(*Tuple).Elements
			other, found, err := y.Get(kv[0])
			if err != nil || !found {
				return false, err
			}
			if eq, err := e.valuesEqual(kv[1], other); err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case *Set:
		y, ok := b.(*Set)
		if !ok || x.Len() != y.Len() {
			return false, nil
		}
		for _, m := range x.Members() {
			if ok, _ := y.Contains(m); !ok {
				return false, nil
			}
		}
		return true, nil
	case *Range:
		y, ok := b.(*Range)
		if !ok {
			return false, nil
		}
		if x.Len() == 0 || y.Len() == 0 {
			return x.Len() == y.Len(), nil
		}
		return x.Len() == y.Len() && x.Start == y.Start && (x.Len() == 1 || x.Step == y.Step), nil
	case *HostObject:
		return identical(a, b), nil
	}
	return a == b, nil
}

// valuesEqual is `==` with full dispatch, reduced to a bool.
func (e *Evaluator) valuesEqual(a, b Object) (bool, error) {
	if a == b {
		return true, nil
	}
	v, err := e.compare(ast.Eq, a, b)
	if err != nil {
		return false, err
	}
	return isTruthy(v), nil
}

func (e *Evaluator) elementsEqual(x, y []Object) (bool, error) {
	if len(x) != len(y) {
		return false, nil
	}
	for i := range x {
		if eq, err := e.valuesEqual(x[i], y[i]); err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// order evaluates < <= > >= natively.
func (e *Evaluator) order(op ast.Operator, a, b Object) (bool, error) {
	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			return compareNumbers(op, x, y), nil
		}
	}
	switch x := a.(type) {
	case *Str:
		if y, ok := b.(*Str); ok {
			return cmpResult(op, strings.Compare(x.Value, y.Value)), nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			return e.orderSequences(op, x.Elements, y.Elements)
		}
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			return e.orderSequences(op, x.Elements, y.Elements)
		}
	case *Set:
		if y, ok := b.(*Set); ok {
			return setOrder(op, x, y), nil
		}
	}
	return false, newException(TypeErrorClass, "'%s' not supported between instances of '%s' and '%s'", op.Symbol(), typeName(a), typeName(b))
}

func cmpResult(op ast.Operator, c int) bool {
	switch op {
	case ast.Lt:
		return c < 0
	case ast.LtE:
		return c <= 0
	case ast.Gt:
		return c > 0
	case ast.GtE:
		return c >= 0
	}
	return false
}

// orderSequences compares lexicographically: the first unequal pair
// decides, otherwise the lengths do.
func (e *Evaluator) orderSequences(op ast.Operator, x, y []Object) (bool, error) {
	for i := 0; i < len(x) && i < len(y); i++ {
		eq, err := e.valuesEqual(x[i], y[i])
		if err != nil {
			return false, err
		}
		if eq {
			continue
		}
		v, err := e.compare(op, x[i], y[i])
		if err != nil {
			return false, err
		}
		return isTruthy(v), nil
	}
	return cmpResult(op, len(x)-len(y)), nil
}

func setOrder(op ast.Operator, a, b *Set) bool {
	subset := func(x, y *Set) bool {
		for _, m := range x.Members() {
			if ok, _ := y.Contains(m); !ok {
				return false
			}
		}
		return true
	}
	switch op {
	case ast.LtE:
		return subset(a, b)
	case ast.Lt:
		return a.Len() < b.Len() && subset(a, b)
	case ast.GtE:
		return subset(b, a)
	case ast.Gt:
		return a.Len() > b.Len() && subset(b, a)
	}
	return false
}

// less is the ordering used by sort, min and max.
func (e *Evaluator) less(a, b Object) (bool, error) {
	v, err := e.compare(ast.Lt, a, b)
	if err != nil {
		return false, err
	}
	return isTruthy(v), nil
}
