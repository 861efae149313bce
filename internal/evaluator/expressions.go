package evaluator

import (
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
)

// Eval evaluates an expression in env.
func (e *Evaluator) Eval(node ast.Expr, env *Environment) (Object, error) {
	switch n := node.(type) {
	case *ast.Name:
		return e.evalName(n.Id, env)
	case *ast.LocalSlot:
		if v, ok := env.GetSlot(n.Index); ok {
			return v, nil
		}
		return e.evalName(n.Id, env)
	case *ast.Constant:
		return constantObject(n), nil
	case *ast.BinOp:
		left, err := e.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := e.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		return e.binaryOp(n.Op, left, right)
	case *ast.BoolOp:
		return e.evalBoolOp(n, env)
	case *ast.UnaryOp:
		operand, err := e.Eval(n.Operand, env)
		if err != nil {
			return nil, err
		}
		if n.Op == ast.Not {
			return nativeBool(!isTruthy(operand)), nil
		}
		return e.unaryOp(n.Op, operand)
	case *ast.Compare:
		return e.evalCompare(n, env)
	case *ast.IfExp:
		cond, err := e.Eval(n.Test, env)
		if err != nil {
			return nil, err
		}
		if isTruthy(cond) {
			return e.Eval(n.Body, env)
		}
		return e.Eval(n.Orelse, env)
	case *ast.Call:
		return e.evalCall(n, env)
	case *ast.Attribute:
		obj, err := e.Eval(n.Value, env)
		if err != nil {
			return nil, err
		}
		return e.getAttr(obj, n.Attr)
	case *ast.Subscript:
		obj, err := e.Eval(n.Value, env)
		if err != nil {
			return nil, err
		}
		key, err := e.Eval(n.Slice, env)
		if err != nil {
			return nil, err
		}
		return e.getItem(obj, key)
	case *ast.Slice:
		return e.evalSlice(n, env)
	case *ast.Lambda:
		return e.makeFunction(n, "<lambda>", n.Args, nil, n.Body, env)
	case *ast.List:
		elems, err := e.evalElements(n.Elts, env)
		if err != nil {
			return nil, err
		}
		return &List{Elements: elems}, nil
	case *ast.Tuple:
		elems, err := e.evalElements(n.Elts, env)
		if err != nil {
			return nil, err
		}
		return NewTuple(elems...), nil
	case *ast.Set:
		elems, err := e.evalElements(n.Elts, env)
		if err != nil {
			return nil, err
		}
		set := NewSet()
		for _, el := range elems {
			if err := set.Add(el); err != nil {
				return nil, err
			}
		}
		return set, nil
	case *ast.Dict:
		return e.evalDict(n, env)
	case *ast.ListComp:
		out := &List{}
		err := e.comprehension(n.Generators, env, func(inner *Environment) error {
			v, err := e.Eval(n.Elt, inner)
			if err == nil {
				out.Elements = append(out.Elements, v)
			}
			return err
		})
		return out, err
	case *ast.GeneratorExp:
		// no suspension: generator expressions are materialized as lists
		out := &List{}
		err := e.comprehension(n.Generators, env, func(inner *Environment) error {
			v, err := e.Eval(n.Elt, inner)
			if err == nil {
				out.Elements = append(out.Elements, v)
			}
			return err
		})
		return out, err
	case *ast.SetComp:
		out := NewSet()
		err := e.comprehension(n.Generators, env, func(inner *Environment) error {
			v, err := e.Eval(n.Elt, inner)
			if err != nil {
				return err
			}
			return out.Add(v)
		})
		return out, err
	case *ast.DictComp:
		out := NewDict()
		err := e.comprehension(n.Generators, env, func(inner *Environment) error {
			k, err := e.Eval(n.Key, inner)
			if err != nil {
				return err
			}
			v, err := e.Eval(n.Value, inner)
			if err != nil {
				return err
			}
			return out.Set(k, v)
		})
		return out, err
	case *ast.JoinedStr:
		return e.evalJoinedStr(n, env)
	case *ast.FormattedValue:
		s, err := e.evalFormattedValue(n, env)
		if err != nil {
			return nil, err
		}
		return NewStr(s), nil
	case *ast.Starred:
		return nil, newException(SyntaxErrorClass, "can't use starred expression here")
	}
	return nil, newException(SyntaxErrorClass, "unsupported expression %T", node)
}

func (e *Evaluator) evalName(name string, env *Environment) (Object, error) {
	v, ok, err := env.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nameError(name, env)
	}
	return v, nil
}

// constantObject converts a literal to its runtime value.
func constantObject(c *ast.Constant) Object {
	switch v := c.Value.(type) {
	case nil:
		return None
	case bool:
		return nativeBool(v)
	case int64:
		return NewInt(v)
	case int:
		return NewInt(int64(v))
	case float64:
		return &Float{Value: v}
	case string:
		return NewStr(v)
	}
	return None
}

func (e *Evaluator) evalBoolOp(n *ast.BoolOp, env *Environment) (Object, error) {
	var v Object = None
	for _, operand := range n.Values {
		var err error
		if v, err = e.Eval(operand, env); err != nil {
			return nil, err
		}
		truthy := isTruthy(v)
		if (n.Op == ast.And && !truthy) || (n.Op == ast.Or && truthy) {
			return v, nil
		}
	}
	return v, nil
}

func (e *Evaluator) evalCompare(n *ast.Compare, env *Environment) (Object, error) {
	left, err := e.Eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	var result Object = True
	for i, op := range n.Ops {
		right, err := e.Eval(n.Comparators[i], env)
		if err != nil {
			return nil, err
		}
		if result, err = e.compare(op, left, right); err != nil {
			return nil, err
		}
		if !isTruthy(result) {
			return result, nil
		}
		left = right
	}
	return result, nil
}

func (e *Evaluator) evalSlice(n *ast.Slice, env *Environment) (Object, error) {
	bound := func(x ast.Expr) (Object, error) {
		if x == nil {
			return None, nil
		}
		return e.Eval(x, env)
	}
	lo, err := bound(n.Lower)
	if err != nil {
		return nil, err
	}
	hi, err := bound(n.Upper)
	if err != nil {
		return nil, err
	}
	step, err := bound(n.Step)
	if err != nil {
		return nil, err
	}
	return &SliceValue{Start: lo, Stop: hi, Step: step}, nil
}

// evalElements evaluates display elements, expanding *iterable.
func (e *Evaluator) evalElements(elts []ast.Expr, env *Environment) ([]Object, error) {
	out := make([]Object, 0, len(elts))
	for _, el := range elts {
		if star, ok := el.(*ast.Starred); ok {
			v, err := e.Eval(star.Value, env)
			if err != nil {
				return nil, err
			}
			items, err := e.collect(v)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
			continue
		}
		v, err := e.Eval(el, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Evaluator) evalDict(n *ast.Dict, env *Environment) (Object, error) {
	d := NewDict()
	for i, kx := range n.Keys {
		if kx == nil {
			m, err := e.Eval(n.Values[i], env)
			if err != nil {
				return nil, err
			}
			src, ok := m.(*Dict)
			if !ok {
				return nil, newException(TypeErrorClass, "'%s' object is not a mapping", typeName(m))
			}
			for _, item := range src.Items() {
				kv := item.(*Tuple).Elements
				if err := d.Set(kv[0], kv[1]); err != nil {
					return nil, err
				}
			}
			continue
		}
		k, err := e.Eval(kx, env)
		if err != nil {
			return nil, err
		}
		v, err := e.Eval(n.Values[i], env)
		if err != nil {
			return nil, err
		}
		if err := d.Set(k, v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// comprehension runs emit once per combination of the generators. The first
// iterable is evaluated in the enclosing scope; targets bind in a fresh
// comprehension scope.
func (e *Evaluator) comprehension(gens []*ast.Comprehension, env *Environment, emit func(*Environment) error) error {
	first, err := e.Eval(gens[0].Iter, env)
	if err != nil {
		return err
	}
	inner := NewEnclosedEnvironment(env, ComprehensionScope)
	return e.generate(gens, 0, first, inner, emit)
}

func (e *Evaluator) generate(gens []*ast.Comprehension, i int, iterable Object, env *Environment, emit func(*Environment) error) error {
	it, err := e.iterator(iterable)
	if err != nil {
		return err
	}
	gen := gens[i]
	for {
		v, ok, err := it.Next()
		if err != nil || !ok {
			return err
		}
		if err := e.assign(gen.Target, v, env); err != nil {
			return err
		}
		pass := true
		for _, cond := range gen.Ifs {
			c, err := e.Eval(cond, env)
			if err != nil {
				return err
			}
			if !isTruthy(c) {
				pass = false
				break
			}
		}
		if !pass {
			continue
		}
		if i+1 == len(gens) {
			if err := emit(env); err != nil {
				return err
			}
			continue
		}
		next, err := e.Eval(gens[i+1].Iter, env)
		if err != nil {
			return err
		}
		if err := e.generate(gens, i+1, next, env, emit); err != nil {
			return err
		}
	}
}

func (e *Evaluator) evalJoinedStr(n *ast.JoinedStr, env *Environment) (Object, error) {
	s, err := e.joinedString(n, env)
	if err != nil {
		return nil, err
	}
	return NewStr(s), nil
}

func (e *Evaluator) joinedString(n *ast.JoinedStr, env *Environment) (string, error) {
	var b strings.Builder
	for _, part := range n.Values {
		switch p := part.(type) {
		case *ast.Constant:
			if s, ok := p.Value.(string); ok {
				b.WriteString(s)
				continue
			}
			v, err := e.str(constantObject(p))
			if err != nil {
				return "", err
			}
			b.WriteString(v)
		case *ast.FormattedValue:
			s, err := e.evalFormattedValue(p, env)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		default:
			v, err := e.Eval(p, env)
			if err != nil {
				return "", err
			}
			s, err := e.str(v)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
	}
	return b.String(), nil
}

func (e *Evaluator) evalFormattedValue(n *ast.FormattedValue, env *Environment) (string, error) {
	v, err := e.Eval(n.Value, env)
	if err != nil {
		return "", err
	}
	switch n.Conversion {
	case 'r':
		s, err := e.repr(v)
		if err != nil {
			return "", err
		}
		v = NewStr(s)
	case 'a':
		s, err := e.repr(v)
		if err != nil {
			return "", err
		}
		v = NewStr(asciiEscape(s))
	case 's':
		s, err := e.str(v)
		if err != nil {
			return "", err
		}
		v = NewStr(s)
	}
	spec := ""
	switch fs := n.FormatSpec.(type) {
	case nil:
	case *ast.JoinedStr:
		if spec, err = e.joinedString(fs, env); err != nil {
			return "", err
		}
	default:
		sv, err := e.Eval(fs, env)
		if err != nil {
			return "", err
		}
		if spec, err = e.str(sv); err != nil {
			return "", err
		}
	}
	return e.formatValue(v, spec)
}

// isTruthy: zero numbers, empty strings and collections, None and False are
// falsy. Everything else is truthy, including every instance.
func isTruthy(obj Object) bool {
	switch o := obj.(type) {
	case *NoneType:
		return false
	case *Bool:
		return o.Value
	case *Int:
		return o.Value != 0
	case *Long:
		return o.Value != 0
	case *Float:
		return o.Value != 0
	case *Float32:
		return o.Value != 0
	case *Str:
		return o.Value != ""
	case *List:
		return len(o.Elements) > 0
	case *Tuple:
		return len(o.Elements) > 0
	case *Dict:
		return o.Len() > 0
	case *Set:
		return o.Len() > 0
	case *Range:
		return o.Len() > 0
	}
	return true
}
