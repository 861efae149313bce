package evaluator

import (
	"math"
	"math/big"
	"math/bits"

	"github.com/funvibe/pyhost/internal/ast"
)

// numKind orders the numeric representations by width.
type numKind int

const (
	kindInt numKind = iota
	kindLong
	kindFloat32
	kindFloat
)

type number struct {
	kind numKind
	i    int64
	f    float64
}

func (n number) isInt() bool { return n.kind <= kindLong }

func (n number) float() float64 {
	if n.isInt() {
		return float64(n.i)
	}
	return n.f
}

// toNumber extracts a numeric value. Bool counts as Int.
func toNumber(o Object) (number, bool) {
	switch v := o.(type) {
	case *Int:
		return number{kind: kindInt, i: int64(v.Value)}, true
	case *Bool:
		if v.Value {
			return number{kind: kindInt, i: 1}, true
		}
		return number{kind: kindInt}, true
	case *Long:
		return number{kind: kindLong, i: v.Value}, true
	case *Float32:
		return number{kind: kindFloat32, f: float64(v.Value)}, true
	case *Float:
		return number{kind: kindFloat, f: v.Value}, true
	}
	return number{}, false
}

// toInt extracts an integer, accepting bools.
func toInt(o Object) (int64, bool) {
	n, ok := toNumber(o)
	if !ok || !n.isInt() {
		return 0, false
	}
	return n.i, true
}

func isNumber(o Object) bool {
	_, ok := toNumber(o)
	return ok
}

// makeInt returns an integer of the given kind, widening when v does not fit.
func makeInt(kind numKind, v int64) Object {
	if kind == kindInt && v >= math.MinInt32 && v <= math.MaxInt32 {
		return &Int{Value: int32(v)}
	}
	return &Long{Value: v}
}

func makeFloat(kind numKind, v float64) Object {
	if kind == kindFloat32 {
		return &Float32{Value: float32(v)}
	}
	return &Float{Value: v}
}

func widest(a, b number) numKind {
	if a.kind > b.kind {
		return a.kind
	}
	return b.kind
}

// arithmetic applies a binary operator to two numbers.
func arithmetic(op ast.Operator, a, b number) (Object, error) {
	kind := widest(a, b)
	if op == ast.Div {
		if b.float() == 0 {
			if b.isInt() {
				return nil, zeroDivision("division by zero")
			}
			return nil, zeroDivision("float division by zero")
		}
		if kind <= kindLong {
			return &Float{Value: a.float() / b.float()}, nil
		}
		return makeFloat(kind, a.float()/b.float()), nil
	}
	if kind <= kindLong {
		return intArithmetic(op, kind, a.i, b.i)
	}
	return floatArithmetic(op, kind, a.float(), b.float())
}

func intArithmetic(op ast.Operator, kind numKind, x, y int64) (Object, error) {
	switch op {
	case ast.Add:
		r := x + y
		if (x >= 0) == (y >= 0) && (r >= 0) != (x >= 0) {
			return &Float{Value: float64(x) + float64(y)}, nil
		}
		return makeInt(kind, r), nil
	case ast.Sub:
		r := x - y
		if (x >= 0) != (y >= 0) && (r >= 0) != (x >= 0) {
			return &Float{Value: float64(x) - float64(y)}, nil
		}
		return makeInt(kind, r), nil
	case ast.Mult:
		if r, ok := mulInt64(x, y); ok {
			return makeInt(kind, r), nil
		}
		return &Float{Value: float64(x) * float64(y)}, nil
	case ast.FloorDiv:
		if y == 0 {
			return nil, zeroDivision("integer division or modulo by zero")
		}
		if x == math.MinInt64 && y == -1 {
			return &Float{Value: -float64(x)}, nil
		}
		return makeInt(kind, floorDiv(x, y)), nil
	case ast.Mod:
		if y == 0 {
			return nil, zeroDivision("integer division or modulo by zero")
		}
		if y == -1 {
			return makeInt(kind, 0), nil
		}
		return makeInt(kind, floorMod(x, y)), nil
	case ast.Pow:
		return intPow(kind, x, y)
	case ast.LShift:
		if y < 0 {
			return nil, newException(ValueErrorClass, "negative shift count")
		}
		if x == 0 {
			return makeInt(kind, 0), nil
		}
		if y >= 64 || bits.Len64(absU(x))+int(y) > 63 {
			r := new(big.Int).Lsh(big.NewInt(x), uint(y))
			return bigToObject(kind, r), nil
		}
		return makeInt(kind, x<<uint(y)), nil
	case ast.RShift:
		if y < 0 {
			return nil, newException(ValueErrorClass, "negative shift count")
		}
		if y >= 64 {
			if x < 0 {
				return makeInt(kind, -1), nil
			}
			return makeInt(kind, 0), nil
		}
		return makeInt(kind, x>>uint(y)), nil
	case ast.BitAnd:
		return makeInt(kind, x&y), nil
	case ast.BitOr:
		return makeInt(kind, x|y), nil
	case ast.BitXor:
		return makeInt(kind, x^y), nil
	}
	return nil, errUnsupported
}

func absU(x int64) uint64 {
	if x < 0 {
		return uint64(-x)
	}
	return uint64(x)
}

func mulInt64(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	r := x * y
	if r/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, false
	}
	return r, true
}

func floorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

func floorMod(x, y int64) int64 {
	m := x % y
	if m != 0 && ((m < 0) != (y < 0)) {
		m += y
	}
	return m
}

// bigToObject narrows an exact integer result: Int or Long when it fits,
// otherwise the nearest float.
func bigToObject(kind numKind, r *big.Int) Object {
	if r.IsInt64() {
		return makeInt(kind, r.Int64())
	}
	f, _ := new(big.Float).SetInt(r).Float64()
	return &Float{Value: f}
}

func intPow(kind numKind, base, exp int64) (Object, error) {
	if exp < 0 {
		if base == 0 {
			return nil, zeroDivision("0 cannot be raised to a negative power")
		}
		return &Float{Value: math.Pow(float64(base), float64(exp))}, nil
	}
	if absU(base) >= 2 && exp >= 64 {
		return &Float{Value: math.Pow(float64(base), float64(exp))}, nil
	}
	r := new(big.Int).Exp(big.NewInt(base), big.NewInt(exp), nil)
	return bigToObject(kind, r), nil
}

func floatArithmetic(op ast.Operator, kind numKind, x, y float64) (Object, error) {
	switch op {
	case ast.Add:
		return makeFloat(kind, x+y), nil
	case ast.Sub:
		return makeFloat(kind, x-y), nil
	case ast.Mult:
		return makeFloat(kind, x*y), nil
	case ast.FloorDiv:
		if y == 0 {
			return nil, zeroDivision("float floor division by zero")
		}
		return makeFloat(kind, math.Floor(x/y)), nil
	case ast.Mod:
		if y == 0 {
			return nil, zeroDivision("float modulo")
		}
		m := math.Mod(x, y)
		if m != 0 && ((m < 0) != (y < 0)) {
			m += y
		}
		return makeFloat(kind, m), nil
	case ast.Pow:
		if x == 0 && y < 0 {
			return nil, zeroDivision("0.0 cannot be raised to a negative power")
		}
		if x < 0 && y != math.Trunc(y) {
			return nil, newException(ValueErrorClass, "math domain error")
		}
		return makeFloat(kind, math.Pow(x, y)), nil
	}
	return nil, errUnsupported
}

// numericEquals compares numbers by mathematical value. ok is false when
// either operand is not a number.
func numericEquals(a, b Object) (bool, bool) {
	x, ok := toNumber(a)
	if !ok {
		return false, false
	}
	y, ok := toNumber(b)
	if !ok {
		return false, false
	}
	c, ok := cmpNumbers(x, y)
	return ok && c == 0, true
}

// compareNumbers evaluates an ordering operator on two numbers.
func compareNumbers(op ast.Operator, x, y number) bool {
	c, ok := cmpNumbers(x, y)
	return ok && cmpResult(op, c)
}

// cmpNumbers orders two numbers by exact mathematical value. ok is false
// when either is NaN.
func cmpNumbers(x, y number) (int, bool) {
	switch {
	case x.isInt() && y.isInt():
		switch {
		case x.i < y.i:
			return -1, true
		case x.i > y.i:
			return 1, true
		}
		return 0, true
	case x.isInt():
		return cmpIntFloat(x.i, y.f)
	case y.isInt():
		c, ok := cmpIntFloat(y.i, x.f)
		return -c, ok
	}
	a, b := x.f, y.f
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return 0, false
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	}
	return 0, true
}

// cmpIntFloat compares without rounding i to float64, so integers beyond
// 2**53 stay distinct from their nearest double.
func cmpIntFloat(i int64, f float64) (int, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	return new(big.Float).SetInt64(i).Cmp(big.NewFloat(f)), true
}

// roundHalfEven rounds to the nearest integer, ties to even.
func roundHalfEven(f float64) float64 {
	return math.RoundToEven(f)
}
