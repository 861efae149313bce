package evaluator

import (
	"strconv"
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/config"
)

// activation is a running script function, for zero-argument super().
type activation struct {
	fn  *Function
	env *Environment
}

func (e *Evaluator) evalCall(n *ast.Call, env *Environment) (Object, error) {
	fn, err := e.Eval(n.Func, env)
	if err != nil {
		return nil, err
	}
	args, err := e.evalElements(n.Args, env)
	if err != nil {
		return nil, err
	}
	var kwargs Kwargs
	for _, kw := range n.Keywords {
		v, err := e.Eval(kw.Value, env)
		if err != nil {
			return nil, err
		}
		if kw.Arg != "" {
			if kwargs, err = addKeyword(kwargs, kw.Arg, v); err != nil {
				return nil, err
			}
			continue
		}
		d, ok := v.(*Dict)
		if !ok {
			return nil, newException(TypeErrorClass, "argument after ** must be a mapping, not %s", typeName(v))
		}
		for _, item := range d.Items() {
			kv := item.(*Tuple).Elements
			k, ok := kv[0].(*Str)
			if !ok {
				return nil, newException(TypeErrorClass, "keywords must be strings")
			}
			if kwargs, err = addKeyword(kwargs, k.Value, kv[1]); err != nil {
				return nil, err
			}
		}
	}
	if fn == superBuiltin && len(args) == 0 && len(kwargs) == 0 {
		return e.zeroArgSuper()
	}
	return e.Call(fn, args, kwargs)
}

func addKeyword(kwargs Kwargs, name string, v Object) (Kwargs, error) {
	if _, dup := kwargs.Get(name); dup {
		return nil, newException(TypeErrorClass, "got multiple values for keyword argument '%s'", name)
	}
	return append(kwargs, KeywordArg{Name: name, Value: v}), nil
}

// Call invokes any callable value.
func (e *Evaluator) Call(fn Object, args []Object, kwargs Kwargs) (Object, error) {
	switch f := fn.(type) {
	case *Function:
		return e.callFunction(f, args, kwargs)
	case *Builtin:
		return f.Fn(e, args, kwargs)
	case *BoundMethod:
		return e.Call(f.Fn, append([]Object{f.Self}, args...), kwargs)
	case *Class:
		return e.instantiate(f, args, kwargs)
	case *BuiltinType:
		if f.New == nil {
			return nil, newException(TypeErrorClass, "cannot create '%s' instances", f.Name)
		}
		return f.New(e, args, kwargs)
	case *Instance:
		call, err := e.lookupMethod(f, config.CallMethod)
		if err != nil {
			return nil, newException(TypeErrorClass, "'%s' object is not callable", f.Class.Name)
		}
		return e.Call(call, args, kwargs)
	case *MethodWrapper:
		if f.Kind == PropertyWrapper {
			break
		}
		return e.Call(f.Fn, args, kwargs)
	case *HostClass:
		if len(kwargs) > 0 {
			return nil, newException(TypeErrorClass, "%s() takes no keyword arguments", f.Handle.Name())
		}
		v, err := f.Handle.Construct(args)
		if err != nil {
			return nil, hostCallError(err, f.Handle.Name())
		}
		return v, nil
	case *HostMethod:
		if len(kwargs) > 0 {
			return nil, newException(TypeErrorClass, "%s() takes no keyword arguments", f.Name)
		}
		if f.Receiver != nil {
			v, err := f.Receiver.InvokeMethod(f.Name, args)
			if err != nil {
				return nil, hostCallError(err, f.Receiver.TypeName()+"."+f.Name)
			}
			return v, nil
		}
		v, err := f.Class.InvokeStatic(f.Name, args)
		if err != nil {
			return nil, hostCallError(err, f.Class.Name()+"."+f.Name)
		}
		return v, nil
	}
	return nil, newException(TypeErrorClass, "'%s' object is not callable", typeName(fn))
}

func (e *Evaluator) callFunction(fn *Function, args []Object, kwargs Kwargs) (Object, error) {
	if e.depth >= e.MaxDepth {
		line := 0
		if n := len(e.CallStack); n > 0 {
			line = e.CallStack[n-1].Line
		}
		return nil, &FatalError{Message: "maximum recursion depth exceeded", Line: line, Traceback: e.traceback()}
	}
	var env *Environment
	if fn.Plan != nil {
		env = NewSlotEnvironment(fn.Env, fn.Plan.Slots, fn.Plan.Index)
	} else {
		env = NewEnclosedEnvironment(fn.Env, FunctionScope)
		env.locals = fn.Locals
	}
	env.Declare(fn.Globals, fn.Nonlocals)
	if err := e.bindArguments(fn, env, args, kwargs); err != nil {
		return nil, err
	}

	e.Logger.Trace().Str("function", fn.Name).Int("args", len(args)).Int("depth", e.depth+1).Msg("call")
	savedFile := e.CurrentFile
	e.CurrentFile = fn.File
	e.CallStack = append(e.CallStack, CallFrame{Name: fn.Name, File: fn.File, Line: fn.Line})
	e.activations = append(e.activations, activation{fn: fn, env: env})
	e.depth++
	defer func() {
		e.depth--
		e.activations = e.activations[:len(e.activations)-1]
		e.CallStack = e.CallStack[:len(e.CallStack)-1]
		e.CurrentFile = savedFile
	}()

	body, expr := fn.Body, fn.Expr
	if fn.Plan != nil {
		body, expr = fn.Plan.Body, fn.Plan.Expr
	}
	if expr != nil {
		v, err := e.Eval(expr, env)
		if err != nil {
			return nil, e.annotate(err, fn.Line)
		}
		return v, nil
	}
	switch sig := e.execBlock(body, env).(type) {
	case nil:
		return None, nil
	case *returnSignal:
		return sig.value, nil
	case *breakSignal, *continueSignal:
		return nil, newException(SyntaxErrorClass, "%s", sig.Error())
	default:
		return nil, sig
	}
}

// bindArguments binds positional and keyword arguments to fn's parameters
// in env.
func (e *Evaluator) bindArguments(fn *Function, env *Environment, args []Object, kwargs Kwargs) error {
	params := fn.Args.Args
	bound := make([]Object, len(params))
	var extra []Object
	for i, a := range args {
		if i < len(params) {
			bound[i] = a
		} else {
			extra = append(extra, a)
		}
	}
	if len(extra) > 0 && fn.Args.Vararg == nil {
		return bindingError("%s() takes %s but %d %s given", fn.Name, positionalCount(fn), len(args), wasWere(len(args)))
	}

	kwonly := make([]Object, len(fn.Args.KwOnlyArgs))
	var extraKw *Dict
	if fn.Args.Kwarg != nil {
		extraKw = NewDict()
	}
	for _, kw := range kwargs {
		if i := argIndex(params, kw.Name); i >= 0 {
			if bound[i] != nil {
				return bindingError("%s() got multiple values for argument '%s'", fn.Name, kw.Name)
			}
			bound[i] = kw.Value
			continue
		}
		if i := argIndex(fn.Args.KwOnlyArgs, kw.Name); i >= 0 {
			kwonly[i] = kw.Value
			continue
		}
		if extraKw == nil {
			return bindingError("%s() got an unexpected keyword argument '%s'", fn.Name, kw.Name)
		}
		extraKw.SetStr(kw.Name, kw.Value)
	}

	firstDefault := len(params) - len(fn.Defaults)
	var missing []string
	for i := range bound {
		if bound[i] != nil {
			continue
		}
		if i >= firstDefault {
			bound[i] = fn.Defaults[i-firstDefault]
			continue
		}
		missing = append(missing, params[i].Name)
	}
	if len(missing) > 0 {
		return bindingError("%s() missing %d required positional %s: %s", fn.Name, len(missing), plural(len(missing), "argument"), quoteNames(missing))
	}
	for i := range kwonly {
		if kwonly[i] != nil {
			continue
		}
		if i < len(fn.KwDefaults) && fn.KwDefaults[i] != nil {
			kwonly[i] = fn.KwDefaults[i]
			continue
		}
		missing = append(missing, fn.Args.KwOnlyArgs[i].Name)
	}
	if len(missing) > 0 {
		return bindingError("%s() missing %d required keyword-only %s: %s", fn.Name, len(missing), plural(len(missing), "argument"), quoteNames(missing))
	}

	for i, p := range params {
		env.Define(p.Name, bound[i])
	}
	if fn.Args.Vararg != nil {
		env.Define(fn.Args.Vararg.Name, NewTuple(extra...))
	}
	for i, p := range fn.Args.KwOnlyArgs {
		env.Define(p.Name, kwonly[i])
	}
	if extraKw != nil {
		env.Define(fn.Args.Kwarg.Name, extraKw)
	}
	return nil
}

func argIndex(params []*ast.Arg, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func positionalCount(fn *Function) string {
	max := len(fn.Args.Args)
	min := max - len(fn.Defaults)
	if min == max {
		return strconv.Itoa(max) + " positional " + plural(max, "argument")
	}
	return "from " + strconv.Itoa(min) + " to " + strconv.Itoa(max) + " positional arguments"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func wasWere(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}

func quoteNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
}

// instantiate creates an instance of cls and runs __init__.
func (e *Evaluator) instantiate(cls *Class, args []Object, kwargs Kwargs) (Object, error) {
	inst := NewInstance(cls)
	if cls.IsSubclass(BaseExceptionClass) {
		inst.SetField("args", NewTuple(args...))
	}
	init, _, ok := cls.Lookup(config.InitMethod)
	if !ok {
		if len(args) > 0 || len(kwargs) > 0 {
			return nil, newException(TypeErrorClass, "%s() takes no arguments", cls.Name)
		}
		return inst, nil
	}
	bound, err := e.bindAttr(init, inst, cls)
	if err != nil {
		return nil, err
	}
	r, err := e.Call(bound, args, kwargs)
	if err != nil {
		return nil, err
	}
	if r != None {
		return nil, newException(TypeErrorClass, "__init__() should return None, not '%s'", typeName(r))
	}
	return inst, nil
}

// zeroArgSuper resolves super() inside a method: the defining class and the
// method's first argument.
func (e *Evaluator) zeroArgSuper() (Object, error) {
	for i := len(e.activations) - 1; i >= 0; i-- {
		act := e.activations[i]
		if act.fn.Owner == nil {
			continue
		}
		if len(act.fn.Args.Args) == 0 {
			break
		}
		self, ok, err := act.env.Get(act.fn.Args.Args[0].Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		return &SuperProxy{Class: act.fn.Owner, Self: self}, nil
	}
	return nil, newException(RuntimeErrorClass, "super(): no arguments")
}
