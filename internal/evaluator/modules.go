package evaluator

import (
	"math"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/config"
)

func newAtExitModule(e *Evaluator) *Module {
	m := &Module{Name: config.AtExitModuleName, Members: map[string]Object{}}
	m.Members["register"] = &Builtin{Name: "register", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if len(args) == 0 {
			return nil, newException(TypeErrorClass, "register() takes at least 1 argument (0 given)")
		}
		if !IsCallable(args[0]) {
			return nil, newException(TypeErrorClass, "the first argument must be callable")
		}
		if e.State.Exited() {
			return nil, newException(RuntimeErrorClass, "cannot register at-exit callbacks after exit")
		}
		e.State.RegisterAtExit(args[0], append([]Object(nil), args[1:]...), kwargs)
		return args[0], nil
	}}
	m.Members["unregister"] = &Builtin{Name: "unregister", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs("unregister", args, kwargs, 1); err != nil {
			return nil, err
		}
		e.State.UnregisterAtExit(args[0])
		return None, nil
	}}
	m.Members["_ncallbacks"] = &Builtin{Name: "_ncallbacks", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs("_ncallbacks", args, kwargs, 0); err != nil {
			return nil, err
		}
		return NewInt(int64(e.State.pendingAtExit())), nil
	}}
	return m
}

func floatArg(fn string, o Object) (float64, error) {
	n, ok := toNumber(o)
	if !ok {
		return 0, newException(TypeErrorClass, "must be real number, not %s", typeName(o))
	}
	return n.float(), nil
}

func mathFunc(name string, fn func(float64) (float64, bool)) *Builtin {
	return &Builtin{Name: name, Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs(name, args, kwargs, 1); err != nil {
			return nil, err
		}
		x, err := floatArg(name, args[0])
		if err != nil {
			return nil, err
		}
		r, ok := fn(x)
		if !ok {
			return nil, newException(ValueErrorClass, "math domain error")
		}
		if math.IsInf(r, 0) && !math.IsInf(x, 0) {
			return nil, newException(OverflowErrorClass, "math range error")
		}
		return &Float{Value: r}, nil
	}}
}

func total(fn func(float64) float64) func(float64) (float64, bool) {
	return func(x float64) (float64, bool) { return fn(x), true }
}

func intResult(name string, fn func(float64) float64) *Builtin {
	return &Builtin{Name: name, Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs(name, args, kwargs, 1); err != nil {
			return nil, err
		}
		n, ok := toNumber(args[0])
		if !ok {
			return nil, newException(TypeErrorClass, "must be real number, not %s", typeName(args[0]))
		}
		if n.isInt() {
			return makeInt(n.kind, n.i), nil
		}
		return floatToInt(fn(n.f))
	}}
}

func newMathModule(e *Evaluator) *Module {
	m := &Module{Name: config.MathModuleName, Members: map[string]Object{
		"pi":    &Float{Value: math.Pi},
		"e":     &Float{Value: math.E},
		"tau":   &Float{Value: 2 * math.Pi},
		"inf":   &Float{Value: math.Inf(1)},
		"nan":   &Float{Value: math.NaN()},
		"sqrt":  mathFunc("sqrt", func(x float64) (float64, bool) { return math.Sqrt(x), x >= 0 || math.IsNaN(x) }),
		"exp":   mathFunc("exp", total(math.Exp)),
		"sin":   mathFunc("sin", func(x float64) (float64, bool) { return math.Sin(x), !math.IsInf(x, 0) }),
		"cos":   mathFunc("cos", func(x float64) (float64, bool) { return math.Cos(x), !math.IsInf(x, 0) }),
		"tan":   mathFunc("tan", func(x float64) (float64, bool) { return math.Tan(x), !math.IsInf(x, 0) }),
		"asin":  mathFunc("asin", func(x float64) (float64, bool) { return math.Asin(x), x >= -1 && x <= 1 }),
		"acos":  mathFunc("acos", func(x float64) (float64, bool) { return math.Acos(x), x >= -1 && x <= 1 }),
		"atan":  mathFunc("atan", total(math.Atan)),
		"fabs":  mathFunc("fabs", total(math.Abs)),
		"log2":  mathFunc("log2", func(x float64) (float64, bool) { return math.Log2(x), x > 0 }),
		"log10": mathFunc("log10", func(x float64) (float64, bool) { return math.Log10(x), x > 0 }),
		"floor": intResult("floor", math.Floor),
		"ceil":  intResult("ceil", math.Ceil),
		"trunc": intResult("trunc", math.Trunc),
	}}
	m.Members["log"] = &Builtin{Name: "log", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := noKeywords("log", kwargs); err != nil {
			return nil, err
		}
		if err := checkArity("log", len(args), 1, 2); err != nil {
			return nil, err
		}
		x, err := floatArg("log", args[0])
		if err != nil {
			return nil, err
		}
		if x <= 0 {
			return nil, newException(ValueErrorClass, "math domain error")
		}
		r := math.Log(x)
		if len(args) == 2 {
			base, err := floatArg("log", args[1])
			if err != nil {
				return nil, err
			}
			if base <= 0 || base == 1 {
				return nil, newException(ValueErrorClass, "math domain error")
			}
			r /= math.Log(base)
		}
		return &Float{Value: r}, nil
	}}
	m.Members["pow"] = &Builtin{Name: "pow", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs("pow", args, kwargs, 2); err != nil {
			return nil, err
		}
		x, err := floatArg("pow", args[0])
		if err != nil {
			return nil, err
		}
		y, err := floatArg("pow", args[1])
		if err != nil {
			return nil, err
		}
		return floatArithmetic(ast.Pow, kindFloat, x, y)
	}}
	m.Members["atan2"] = &Builtin{Name: "atan2", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs("atan2", args, kwargs, 2); err != nil {
			return nil, err
		}
		y, err := floatArg("atan2", args[0])
		if err != nil {
			return nil, err
		}
		x, err := floatArg("atan2", args[1])
		if err != nil {
			return nil, err
		}
		return &Float{Value: math.Atan2(y, x)}, nil
	}}
	m.Members["hypot"] = &Builtin{Name: "hypot", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := noKeywords("hypot", kwargs); err != nil {
			return nil, err
		}
		sum := 0.0
		for _, a := range args {
			x, err := floatArg("hypot", a)
			if err != nil {
				return nil, err
			}
			sum = math.Hypot(sum, x)
		}
		return &Float{Value: sum}, nil
	}}
	for name, pred := range map[string]func(float64) bool{
		"isnan":    math.IsNaN,
		"isinf":    func(x float64) bool { return math.IsInf(x, 0) },
		"isfinite": func(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) },
	} {
		name, pred := name, pred
		m.Members[name] = &Builtin{Name: name, Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
			if err := exactArgs(name, args, kwargs, 1); err != nil {
				return nil, err
			}
			x, err := floatArg(name, args[0])
			if err != nil {
				return nil, err
			}
			return nativeBool(pred(x)), nil
		}}
	}
	m.Members["gcd"] = &Builtin{Name: "gcd", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := noKeywords("gcd", kwargs); err != nil {
			return nil, err
		}
		g := uint64(0)
		for _, a := range args {
			n, err := intArg("gcd", a)
			if err != nil {
				return nil, err
			}
			x := absU(n)
			for x != 0 {
				g, x = x, g%x
			}
		}
		if g > math.MaxInt64 {
			return &Float{Value: float64(g)}, nil
		}
		return NewInt(int64(g)), nil
	}}
	m.Members["factorial"] = &Builtin{Name: "factorial", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if err := exactArgs("factorial", args, kwargs, 1); err != nil {
			return nil, err
		}
		n, err := intArg("factorial", args[0])
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, newException(ValueErrorClass, "factorial() not defined for negative values")
		}
		var acc Object = NewInt(1)
		for i := int64(2); i <= n; i++ {
			if acc, err = e.binaryOp(ast.Mult, acc, NewInt(i)); err != nil {
				return nil, err
			}
		}
		return acc, nil
	}}
	m.Members["isclose"] = &Builtin{Name: "isclose", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if len(args) != 2 {
			return nil, newException(TypeErrorClass, "isclose() takes exactly 2 positional arguments (%d given)", len(args))
		}
		params, err := parseKwargs("isclose", nil, kwargs, "rel_tol", "abs_tol")
		if err != nil {
			return nil, err
		}
		a, err := floatArg("isclose", args[0])
		if err != nil {
			return nil, err
		}
		b, err := floatArg("isclose", args[1])
		if err != nil {
			return nil, err
		}
		rel, abs := 1e-9, 0.0
		if params[0] != nil {
			if rel, err = floatArg("isclose", params[0]); err != nil {
				return nil, err
			}
		}
		if params[1] != nil {
			if abs, err = floatArg("isclose", params[1]); err != nil {
				return nil, err
			}
		}
		if a == b {
			return True, nil
		}
		diff := math.Abs(a - b)
		return nativeBool(diff <= math.Max(rel*math.Max(math.Abs(a), math.Abs(b)), abs)), nil
	}}
	return m
}
