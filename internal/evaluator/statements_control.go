package evaluator

import (
	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/config"
)

func (e *Evaluator) execIf(s *ast.If, env *Environment) error {
	cond, err := e.Eval(s.Test, env)
	if err != nil {
		return err
	}
	if isTruthy(cond) {
		return e.execBlock(s.Body, env)
	}
	return e.execBlock(s.Orelse, env)
}

// loopBody runs one iteration. It reports whether the loop must stop and
// the error to propagate, if any.
func (e *Evaluator) loopBody(body []ast.Stmt, env *Environment) (bool, error) {
	switch err := e.execBlock(body, env); err.(type) {
	case nil, *continueSignal:
		return false, nil
	case *breakSignal:
		return true, nil
	default:
		return true, err
	}
}

func (e *Evaluator) execWhile(s *ast.While, env *Environment) error {
	for {
		cond, err := e.Eval(s.Test, env)
		if err != nil {
			return err
		}
		if !isTruthy(cond) {
			return e.execBlock(s.Orelse, env)
		}
		stop, err := e.loopBody(s.Body, env)
		if stop {
			return err
		}
	}
}

func (e *Evaluator) execFor(s *ast.For, env *Environment) error {
	iterable, err := e.Eval(s.Iter, env)
	if err != nil {
		return err
	}
	it, err := e.iterator(iterable)
	if err != nil {
		return err
	}
	for {
		v, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return e.execBlock(s.Orelse, env)
		}
		if err := e.assign(s.Target, v, env); err != nil {
			return err
		}
		stop, err := e.loopBody(s.Body, env)
		if stop {
			return err
		}
	}
}

func (e *Evaluator) execTry(s *ast.Try, env *Environment) error {
	err := e.execBlock(s.Body, env)
	if exc, ok := err.(*Exception); ok && len(s.Handlers) > 0 {
		for _, h := range s.Handlers {
			matched, merr := e.matchHandler(h, exc, env)
			if merr != nil {
				err = merr
				break
			}
			if matched {
				err = e.runHandler(h, exc, env)
				break
			}
		}
	} else if err == nil {
		err = e.execBlock(s.Orelse, env)
	}
	if _, fatal := err.(*FatalError); fatal {
		return err
	}
	if len(s.Finalbody) > 0 {
		if ferr := e.execBlock(s.Finalbody, env); ferr != nil {
			return ferr
		}
	}
	return err
}

func (e *Evaluator) matchHandler(h *ast.ExceptHandler, exc *Exception, env *Environment) (bool, error) {
	if h.Type == nil {
		return true, nil
	}
	t, err := e.Eval(h.Type, env)
	if err != nil {
		return false, err
	}
	return exceptionMatches(exc, t)
}

func exceptionMatches(exc *Exception, t Object) (bool, error) {
	switch t := t.(type) {
	case *Tuple:
		for _, el := range t.Elements {
			ok, err := exceptionMatches(exc, el)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case *Class:
		if !t.IsSubclass(BaseExceptionClass) {
			break
		}
		if _, host := exc.Value.(*HostObject); host {
			return t == ExceptionClass || t == BaseExceptionClass, nil
		}
		return exc.Is(t), nil
	case *HostClass:
		hv, ok := exc.Value.(*HostObject)
		return ok && t.Handle.IsInstance(hv.Value), nil
	}
	return false, newException(TypeErrorClass, "catching classes that do not inherit from BaseException is not allowed")
}

func (e *Evaluator) runHandler(h *ast.ExceptHandler, exc *Exception, env *Environment) error {
	e.handling = append(e.handling, exc)
	defer func() { e.handling = e.handling[:len(e.handling)-1] }()
	handlerEnv := env
	if h.Name != "" {
		handlerEnv = NewEnclosedEnvironment(env, HandlerScope)
		handlerEnv.Define(h.Name, exc.Value)
	}
	return e.execBlock(h.Body, handlerEnv)
}

func (e *Evaluator) execRaise(s *ast.Raise, env *Environment) error {
	if s.Exc == nil {
		if n := len(e.handling); n > 0 {
			return e.handling[n-1]
		}
		return newException(RuntimeErrorClass, "No active exception to reraise")
	}
	v, err := e.Eval(s.Exc, env)
	if err != nil {
		return err
	}
	value, err := e.exceptionValue(v)
	if err != nil {
		return err
	}
	if s.Cause != nil {
		c, err := e.Eval(s.Cause, env)
		if err != nil {
			return err
		}
		if c != None {
			if c, err = e.exceptionValue(c); err != nil {
				return err
			}
		}
		if inst, ok := value.(*Instance); ok {
			inst.SetField("__cause__", c)
		}
	}
	return &Exception{Value: value}
}

// exceptionValue normalizes a raised object to an exception value.
func (e *Evaluator) exceptionValue(v Object) (Object, error) {
	switch x := v.(type) {
	case *Class:
		if x.IsSubclass(BaseExceptionClass) {
			return e.Call(x, nil, nil)
		}
	case *Instance:
		if x.Class.IsSubclass(BaseExceptionClass) {
			return x, nil
		}
	case *HostObject:
		return x, nil
	}
	return nil, newException(TypeErrorClass, "exceptions must derive from BaseException")
}

func (e *Evaluator) execAssert(s *ast.Assert, env *Environment) error {
	v, err := e.Eval(s.Test, env)
	if err != nil {
		return err
	}
	if isTruthy(v) {
		return nil
	}
	if s.Msg == nil {
		return &Exception{Value: NewInstanceWithArgs(AssertionErrorClass)}
	}
	msg, err := e.Eval(s.Msg, env)
	if err != nil {
		return err
	}
	return &Exception{Value: NewInstanceWithArgs(AssertionErrorClass, msg)}
}

// execWith enters the context managers from index i on, runs the body and
// exits them innermost first.
func (e *Evaluator) execWith(s *ast.With, env *Environment, i int) error {
	if i == len(s.Items) {
		return e.execBlock(s.Body, env)
	}
	item := s.Items[i]
	mgr, err := e.Eval(item.ContextExpr, env)
	if err != nil {
		return err
	}
	entered, exit, err := e.enterContext(mgr)
	if err != nil {
		return err
	}
	if item.OptionalVars != nil {
		err = e.assign(item.OptionalVars, entered, env)
	}
	if err == nil {
		err = e.execWith(s, env, i+1)
	}
	if _, fatal := err.(*FatalError); fatal {
		return err
	}
	suppress, xerr := exit(err)
	if xerr != nil {
		return xerr
	}
	if suppress {
		return nil
	}
	return err
}

// contextExit releases a context manager given the outcome of its body. It
// reports whether an exception should be suppressed.
type contextExit func(body error) (bool, error)

// enterContext returns the value bound by `as` and the matching exit.
func (e *Evaluator) enterContext(mgr Object) (Object, contextExit, error) {
	switch m := mgr.(type) {
	case *Instance:
		enter, err := e.lookupMethod(m, config.EnterMethod)
		if err != nil {
			return nil, nil, err
		}
		exitFn, err := e.lookupMethod(m, config.ExitMethod)
		if err != nil {
			return nil, nil, err
		}
		v, err := e.Call(enter, nil, nil)
		if err != nil {
			return nil, nil, err
		}
		exit := func(body error) (bool, error) {
			args := []Object{None, None, None}
			exc, isExc := body.(*Exception)
			if isExc {
				args = []Object{exceptionType(exc), exc.Value, None}
			}
			r, err := e.Call(exitFn, args, nil)
			if err != nil {
				return false, err
			}
			return isExc && isTruthy(r), nil
		}
		return v, exit, nil
	case *HostObject:
		if !m.Value.HasMethod("close") {
			break
		}
		exit := func(error) (bool, error) {
			if _, err := m.Value.InvokeMethod("close", nil); err != nil {
				return false, hostCallError(err, m.Value.TypeName()+".close")
			}
			return false, nil
		}
		return m, exit, nil
	}
	return nil, nil, newException(TypeErrorClass, "'%s' object does not support the context manager protocol", typeName(mgr))
}

func exceptionType(exc *Exception) Object {
	if inst, ok := exc.Value.(*Instance); ok {
		return inst.Class
	}
	return None
}
