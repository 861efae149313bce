package evaluator

import (
	"errors"
	"fmt"
	"sort"
)

// bindAttr turns a class attribute into the value seen through self.
func (e *Evaluator) bindAttr(v Object, self Object, cls *Class) (Object, error) {
	switch f := v.(type) {
	case *Function, *Builtin:
		return &BoundMethod{Self: self, Fn: f}, nil
	case *MethodWrapper:
		switch f.Kind {
		case StaticMethodWrapper:
			return f.Fn, nil
		case ClassMethodWrapper:
			return &BoundMethod{Self: cls, Fn: f.Fn}, nil
		case PropertyWrapper:
			return e.Call(f.Fn, []Object{self}, nil)
		}
	}
	return v, nil
}

// lookupMethod finds name on the instance's class chain, bound to inst.
func (e *Evaluator) lookupMethod(inst *Instance, name string) (Object, error) {
	v, _, ok := inst.Class.Lookup(name)
	if !ok {
		return nil, attributeError(inst, name)
	}
	return e.bindAttr(v, inst, inst.Class)
}

// dunder calls an overload defined on obj's class chain. ok is false when
// obj is not an instance or its class does not define name.
func (e *Evaluator) dunder(obj Object, name string, args ...Object) (Object, bool, error) {
	inst, isInst := obj.(*Instance)
	if !isInst {
		return nil, false, nil
	}
	if _, _, ok := inst.Class.Lookup(name); !ok {
		return nil, false, nil
	}
	m, err := e.lookupMethod(inst, name)
	if err != nil {
		return nil, true, err
	}
	v, err := e.Call(m, args, nil)
	return v, true, err
}

func attributeError(obj Object, name string) *Exception {
	switch o := obj.(type) {
	case *Class:
		return newException(AttributeErrorClass, "type object '%s' has no attribute '%s'", o.Name, name)
	case *Module:
		return newException(AttributeErrorClass, "module '%s' has no attribute '%s'", o.Name, name)
	}
	return newException(AttributeErrorClass, "'%s' object has no attribute '%s'", typeName(obj), name)
}

func (e *Evaluator) getAttr(obj Object, name string) (Object, error) {
	switch o := obj.(type) {
	case *Instance:
		if v, ok := o.Fields[name]; ok {
			return v, nil
		}
		if name == "__class__" {
			return o.Class, nil
		}
		if name == "__dict__" {
			d := NewDict()
			for _, n := range o.FieldNames() {
				d.SetStr(n, o.Fields[n])
			}
			return d, nil
		}
		if v, _, ok := o.Class.Lookup(name); ok {
			return e.bindAttr(v, o, o.Class)
		}
	case *Class:
		switch name {
		case "__name__":
			return NewStr(o.Name), nil
		case "__bases__":
			if o.Base == nil {
				return NewTuple(objectClass), nil
			}
			return NewTuple(o.Base), nil
		}
		if v, _, ok := o.Lookup(name); ok {
			switch w := v.(type) {
			case *MethodWrapper:
				switch w.Kind {
				case StaticMethodWrapper:
					return w.Fn, nil
				case ClassMethodWrapper:
					return &BoundMethod{Self: o, Fn: w.Fn}, nil
				}
			}
			return v, nil
		}
	case *SuperProxy:
		if o.Class.Base != nil {
			if v, _, ok := o.Class.Base.Lookup(name); ok {
				cls := o.Class.Base
				if inst, ok := o.Self.(*Instance); ok {
					cls = inst.Class
				}
				return e.bindAttr(v, o.Self, cls)
			}
		}
		if name == "__init__" {
			// object.__init__
			return &Builtin{Name: "__init__", Fn: func(*Evaluator, []Object, Kwargs) (Object, error) { return None, nil }}, nil
		}
		return nil, newException(AttributeErrorClass, "'super' object has no attribute '%s'", name)
	case *Module:
		if v, ok := o.Members[name]; ok {
			return v, nil
		}
		if name == "__name__" {
			return NewStr(o.Name), nil
		}
	case *HostPackage:
		if e.Bridge != nil {
			handle, err := e.Bridge.Resolve(o.Path + "." + name)
			if err == nil {
				return &HostClass{Handle: handle}, nil
			}
			if !errors.Is(err, ErrNoSuchClass) {
				return nil, hostCallError(err, o.Path+"."+name)
			}
		}
		return nil, newException(AttributeErrorClass, "host package '%s' has no class '%s'", o.Path, name)
	case *HostObject:
		if o.Value.HasMethod(name) {
			return &HostMethod{Receiver: o.Value, Name: name}, nil
		}
		v, err := o.Value.GetField(name)
		if err != nil {
			return nil, hostCallError(err, fmt.Sprintf("'%s' object has no attribute '%s'", o.Value.TypeName(), name))
		}
		return v, nil
	case *HostClass:
		if o.Handle.HasStaticMethod(name) {
			return &HostMethod{Class: o.Handle, Name: name}, nil
		}
		v, err := o.Handle.GetStaticField(name)
		if err != nil {
			return nil, hostCallError(err, fmt.Sprintf("host class '%s' has no attribute '%s'", o.Handle.Name(), name))
		}
		return v, nil
	case *Function:
		switch name {
		case "__name__":
			return NewStr(o.Name), nil
		case "__defaults__":
			if len(o.Defaults) == 0 {
				return None, nil
			}
			return NewTuple(o.Defaults...), nil
		}
	case *BoundMethod:
		switch name {
		case "__self__":
			return o.Self, nil
		case "__func__":
			return o.Fn, nil
		}
	case *Builtin:
		if name == "__name__" {
			return NewStr(o.Name), nil
		}
	case *BuiltinType:
		if name == "__name__" {
			return NewStr(string(o.Name)), nil
		}
		if m, ok := o.Methods[name]; ok {
			return m, nil
		}
	case *Range:
		switch name {
		case "start":
			return NewInt(o.Start), nil
		case "stop":
			return NewInt(o.Stop), nil
		case "step":
			return NewInt(o.Step), nil
		}
	case *SliceValue:
		switch name {
		case "start":
			return o.Start, nil
		case "stop":
			return o.Stop, nil
		case "step":
			return o.Step, nil
		}
	}
	if m := nativeMethod(obj, name); m != nil {
		return &BoundMethod{Self: obj, Fn: m}, nil
	}
	return nil, withHint(attributeError(obj, name), name, e.dir(obj))
}

// nativeMethod finds a method of a builtin value type.
func nativeMethod(obj Object, name string) *Builtin {
	t, ok := builtinTypes[obj.Type()]
	if !ok {
		return nil
	}
	return t.Methods[name]
}

func (e *Evaluator) setAttr(obj Object, name string, v Object) error {
	switch o := obj.(type) {
	case *Instance:
		if w, ok := classProperty(o.Class, name); ok {
			if w.Setter == nil {
				return newException(AttributeErrorClass, "can't set attribute '%s'", name)
			}
			_, err := e.Call(w.Setter, []Object{o, v}, nil)
			return err
		}
		o.SetField(name, v)
		return nil
	case *Class:
		o.SetAttr(name, v)
		return nil
	case *Module:
		o.Members[name] = v
		return nil
	case *HostObject:
		if err := o.Value.SetField(name, v); err != nil {
			return hostCallError(err, fmt.Sprintf("'%s' object has no attribute '%s'", o.Value.TypeName(), name))
		}
		return nil
	}
	return newException(AttributeErrorClass, "'%s' object has no attribute '%s'", typeName(obj), name)
}

func classProperty(cls *Class, name string) (*MethodWrapper, bool) {
	v, _, ok := cls.Lookup(name)
	if !ok {
		return nil, false
	}
	w, ok := v.(*MethodWrapper)
	return w, ok && w.Kind == PropertyWrapper
}

func (e *Evaluator) delAttr(obj Object, name string) error {
	switch o := obj.(type) {
	case *Instance:
		if o.DeleteField(name) {
			return nil
		}
	case *Class:
		if _, ok := o.Dict[name]; ok {
			delete(o.Dict, name)
			for i, n := range o.Order {
				if n == name {
					o.Order = append(o.Order[:i], o.Order[i+1:]...)
					break
				}
			}
			return nil
		}
	}
	return attributeError(obj, name)
}

// hasAttr reports whether getattr would succeed, propagating only errors
// other than AttributeError.
func (e *Evaluator) hasAttr(obj Object, name string) (bool, error) {
	_, err := e.getAttr(obj, name)
	if err == nil {
		return true, nil
	}
	if exc, ok := err.(*Exception); ok && exc.Is(AttributeErrorClass) {
		return false, nil
	}
	return false, err
}

// dir lists the attribute names of obj.
func (e *Evaluator) dir(obj Object) []string {
	seen := map[string]bool{}
	switch o := obj.(type) {
	case *Instance:
		for n := range o.Fields {
			seen[n] = true
		}
		for k := o.Class; k != nil; k = k.Base {
			for n := range k.Dict {
				seen[n] = true
			}
		}
	case *Class:
		for k := o; k != nil; k = k.Base {
			for n := range k.Dict {
				seen[n] = true
			}
		}
	case *Module:
		for n := range o.Members {
			seen[n] = true
		}
	default:
		if t, ok := builtinTypes[obj.Type()]; ok {
			for n := range t.Methods {
				seen[n] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
