package evaluator

import (
	"sort"
	"strings"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/compiler"
	"github.com/funvibe/pyhost/internal/config"
)

func (e *Evaluator) execAssign(s *ast.Assign, env *Environment) error {
	v, err := e.Eval(s.Value, env)
	if err != nil {
		return err
	}
	for _, t := range s.Targets {
		if err := e.assign(t, v, env); err != nil {
			return err
		}
	}
	return nil
}

// assign binds v to a target expression.
func (e *Evaluator) assign(target ast.Expr, v Object, env *Environment) error {
	switch t := target.(type) {
	case *ast.Name:
		return env.Set(t.Id, v)
	case *ast.LocalSlot:
		if !env.SetSlot(t.Index, v) {
			return env.Set(t.Id, v)
		}
		return nil
	case *ast.Attribute:
		obj, err := e.Eval(t.Value, env)
		if err != nil {
			return err
		}
		return e.setAttr(obj, t.Attr, v)
	case *ast.Subscript:
		obj, err := e.Eval(t.Value, env)
		if err != nil {
			return err
		}
		key, err := e.Eval(t.Slice, env)
		if err != nil {
			return err
		}
		return e.setItem(obj, key, v)
	case *ast.Tuple:
		return e.unpack(t.Elts, v, env)
	case *ast.List:
		return e.unpack(t.Elts, v, env)
	case *ast.Starred:
		return newException(SyntaxErrorClass, "starred assignment target must be in a list or tuple")
	}
	return newException(SyntaxErrorClass, "cannot assign to %s", describeTarget(target))
}

func describeTarget(e ast.Expr) string {
	switch e.(type) {
	case *ast.Call:
		return "function call"
	case *ast.Constant:
		return "literal"
	}
	return "expression"
}

// unpack assigns the elements of v to targets, allowing one starred target.
func (e *Evaluator) unpack(targets []ast.Expr, v Object, env *Environment) error {
	values, err := e.collect(v)
	if err != nil {
		return err
	}
	star := -1
	for i, t := range targets {
		if _, ok := t.(*ast.Starred); ok {
			if star >= 0 {
				return newException(SyntaxErrorClass, "multiple starred expressions in assignment")
			}
			star = i
		}
	}
	if star < 0 {
		if len(values) != len(targets) {
			if len(values) > len(targets) {
				return newException(ValueErrorClass, "too many values to unpack (expected %d)", len(targets))
			}
			return newException(ValueErrorClass, "not enough values to unpack (expected %d, got %d)", len(targets), len(values))
		}
		for i, t := range targets {
			if err := e.assign(t, values[i], env); err != nil {
				return err
			}
		}
		return nil
	}
	after := len(targets) - star - 1
	if len(values) < len(targets)-1 {
		return newException(ValueErrorClass, "not enough values to unpack (expected at least %d, got %d)", len(targets)-1, len(values))
	}
	for i := 0; i < star; i++ {
		if err := e.assign(targets[i], values[i], env); err != nil {
			return err
		}
	}
	rest := append([]Object(nil), values[star:len(values)-after]...)
	if err := e.assign(targets[star].(*ast.Starred).Value, &List{Elements: rest}, env); err != nil {
		return err
	}
	for i := 0; i < after; i++ {
		if err := e.assign(targets[star+1+i], values[len(values)-after+i], env); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) execAugAssign(s *ast.AugAssign, env *Environment) error {
	switch t := s.Target.(type) {
	case *ast.Name, *ast.LocalSlot:
		cur, err := e.Eval(t, env)
		if err != nil {
			return err
		}
		rhs, err := e.Eval(s.Value, env)
		if err != nil {
			return err
		}
		v, err := e.inplaceOp(s.Op, cur, rhs)
		if err != nil {
			return err
		}
		return e.assign(t, v, env)
	case *ast.Attribute:
		obj, err := e.Eval(t.Value, env)
		if err != nil {
			return err
		}
		cur, err := e.getAttr(obj, t.Attr)
		if err != nil {
			return err
		}
		rhs, err := e.Eval(s.Value, env)
		if err != nil {
			return err
		}
		v, err := e.inplaceOp(s.Op, cur, rhs)
		if err != nil {
			return err
		}
		return e.setAttr(obj, t.Attr, v)
	case *ast.Subscript:
		obj, err := e.Eval(t.Value, env)
		if err != nil {
			return err
		}
		key, err := e.Eval(t.Slice, env)
		if err != nil {
			return err
		}
		cur, err := e.getItem(obj, key)
		if err != nil {
			return err
		}
		rhs, err := e.Eval(s.Value, env)
		if err != nil {
			return err
		}
		v, err := e.inplaceOp(s.Op, cur, rhs)
		if err != nil {
			return err
		}
		return e.setItem(obj, key, v)
	}
	return newException(SyntaxErrorClass, "illegal expression for augmented assignment")
}

func (e *Evaluator) delete(target ast.Expr, env *Environment) error {
	switch t := target.(type) {
	case *ast.Name:
		ok, err := env.Delete(t.Id)
		if err != nil {
			return err
		}
		if !ok {
			return newException(NameErrorClass, "name '%s' is not defined", t.Id)
		}
		return nil
	case *ast.LocalSlot:
		if _, ok := env.GetSlot(t.Index); ok {
			env.SetSlot(t.Index, nil)
			return nil
		}
		return e.delete(&ast.Name{Token: t.Token, Id: t.Id}, env)
	case *ast.Attribute:
		obj, err := e.Eval(t.Value, env)
		if err != nil {
			return err
		}
		return e.delAttr(obj, t.Attr)
	case *ast.Subscript:
		obj, err := e.Eval(t.Value, env)
		if err != nil {
			return err
		}
		key, err := e.Eval(t.Slice, env)
		if err != nil {
			return err
		}
		return e.delItem(obj, key)
	case *ast.Tuple:
		for _, el := range t.Elts {
			if err := e.delete(el, env); err != nil {
				return err
			}
		}
		return nil
	case *ast.List:
		for _, el := range t.Elts {
			if err := e.delete(el, env); err != nil {
				return err
			}
		}
		return nil
	}
	return newException(SyntaxErrorClass, "cannot delete %s", describeTarget(target))
}

// --- Definitions ---

func (e *Evaluator) evalDecorators(decorators []ast.Expr, env *Environment) ([]Object, error) {
	out := make([]Object, len(decorators))
	for i, d := range decorators {
		v, err := e.Eval(d, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// applyDecorators applies decorators bottom-up.
func (e *Evaluator) applyDecorators(decorators []Object, v Object) (Object, error) {
	for i := len(decorators) - 1; i >= 0; i-- {
		var err error
		if v, err = e.Call(decorators[i], []Object{v}, nil); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// makeFunction evaluates defaults once in the defining scope and closes
// over env.
func (e *Evaluator) makeFunction(node ast.Node, name string, args *ast.Arguments, body []ast.Stmt, expr ast.Expr, env *Environment) (*Function, error) {
	fn := &Function{Name: name, Args: args, Body: body, Expr: expr, Env: env, Line: ast.Line(node), File: e.CurrentFile}
	if args == nil {
		fn.Args = &ast.Arguments{}
	}
	for _, d := range fn.Args.Defaults {
		v, err := e.Eval(d, env)
		if err != nil {
			return nil, err
		}
		fn.Defaults = append(fn.Defaults, v)
	}
	if len(fn.Args.KwDefaults) > 0 {
		fn.KwDefaults = make([]Object, len(fn.Args.KwDefaults))
		for i, d := range fn.Args.KwDefaults {
			if d == nil {
				continue
			}
			v, err := e.Eval(d, env)
			if err != nil {
				return nil, err
			}
			fn.KwDefaults[i] = v
		}
	}
	if plan, ok := e.Plans[node]; ok {
		fn.Plan = plan
		fn.Globals, fn.Nonlocals = plan.Globals, plan.Nonlocals
	} else if body != nil {
		fn.Globals, fn.Nonlocals = compiler.Declarations(body)
		fn.Locals = compiler.LocalNames(args, body)
	}
	return fn, nil
}

func (e *Evaluator) execFunctionDef(s *ast.FunctionDef, env *Environment) error {
	decorators, err := e.evalDecorators(s.DecoratorList, env)
	if err != nil {
		return err
	}
	fn, err := e.makeFunction(s, s.Name, s.Args, s.Body, nil, env)
	if err != nil {
		return err
	}
	v, err := e.applyDecorators(decorators, fn)
	if err != nil {
		return err
	}
	return env.Set(s.Name, v)
}

func (e *Evaluator) execClassDef(s *ast.ClassDef, env *Environment) error {
	decorators, err := e.evalDecorators(s.DecoratorList, env)
	if err != nil {
		return err
	}
	var base *Class
	switch len(s.Bases) {
	case 0:
	case 1:
		b, err := e.Eval(s.Bases[0], env)
		if err != nil {
			return err
		}
		cls, ok := b.(*Class)
		if !ok {
			return newException(TypeErrorClass, "cannot subclass '%s'", typeName(b))
		}
		if cls != objectClass {
			base = cls
		}
	default:
		return newException(TypeErrorClass, "class %s: multiple inheritance is not supported", s.Name)
	}

	classEnv := NewEnclosedEnvironment(env, ClassScope)
	if err := e.execBlock(s.Body, classEnv); err != nil {
		return err
	}
	cls := NewClass(s.Name, base)
	store := classEnv.GetStore()
	names := make([]string, 0, len(store))
	for n := range store {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		v := store[n]
		claimMethod(v, cls, classEnv)
		cls.SetAttr(n, v)
	}
	e.Logger.Trace().Str("class", s.Name).Int("members", len(names)).Msg("class defined")

	v, err := e.applyDecorators(decorators, cls)
	if err != nil {
		return err
	}
	return env.Set(s.Name, v)
}

// claimMethod records the class a method body was defined in, for super().
func claimMethod(v Object, cls *Class, classEnv *Environment) {
	switch f := v.(type) {
	case *Function:
		if f.Owner == nil && f.Env == classEnv {
			f.Owner = cls
		}
	case *MethodWrapper:
		claimMethod(f.Fn, cls, classEnv)
		if f.Setter != nil {
			claimMethod(f.Setter, cls, classEnv)
		}
	}
}

// --- Imports ---

func (e *Evaluator) importModule(name string) (Object, error) {
	if m, ok := e.State.module(name); ok {
		return m, nil
	}
	if build, ok := builtinModules[name]; ok {
		m := build(e)
		e.State.setModule(name, m)
		return m, nil
	}
	if e.Bridge != nil {
		return &HostPackage{Path: name}, nil
	}
	return nil, newException(ImportErrorClass, "No module named '%s'", name)
}

func (e *Evaluator) execImport(s *ast.Import, env *Environment) error {
	for _, alias := range s.Names {
		root := strings.SplitN(alias.Name, ".", 2)[0]
		if alias.AsName != "" {
			m, err := e.importModule(alias.Name)
			if err != nil {
				return err
			}
			if err := env.Set(alias.AsName, m); err != nil {
				return err
			}
			continue
		}
		m, err := e.importModule(root)
		if err != nil {
			return err
		}
		if err := env.Set(root, m); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) execImportFrom(s *ast.ImportFrom, env *Environment) error {
	m, err := e.importModule(s.Module)
	if err != nil {
		return err
	}
	for _, alias := range s.Names {
		if alias.Name == "*" {
			mod, ok := m.(*Module)
			if !ok {
				return newException(ImportErrorClass, "cannot import * from host package '%s'", s.Module)
			}
			for name, v := range mod.Members {
				if err := env.Set(name, v); err != nil {
					return err
				}
			}
			continue
		}
		v, err := e.importMember(m, s.Module, alias.Name)
		if err != nil {
			return err
		}
		bind := alias.Name
		if alias.AsName != "" {
			bind = alias.AsName
		}
		if err := env.Set(bind, v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) importMember(m Object, module, name string) (Object, error) {
	switch mod := m.(type) {
	case *Module:
		if v, ok := mod.Members[name]; ok {
			return v, nil
		}
	case *HostPackage:
		handle, err := e.Bridge.Resolve(mod.Path + "." + name)
		if err == nil {
			return &HostClass{Handle: handle}, nil
		}
		e.Logger.Debug().Err(err).Str("package", mod.Path).Str("name", name).Msg("host import failed")
	}
	return nil, newException(ImportErrorClass, "cannot import name '%s' from '%s'", name, module)
}

// builtinModules are constructed on first import, once per script.
var builtinModules map[string]func(e *Evaluator) *Module

func init() {
	builtinModules = map[string]func(e *Evaluator) *Module{
		config.AtExitModuleName: newAtExitModule,
		config.MathModuleName:   newMathModule,
	}
}
