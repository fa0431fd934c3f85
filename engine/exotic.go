package engine

import (
	"github.com/dop251/goja"

	"github.com/wxiaoguang/quickjs-jsi/errors"
)

// exoticObject routes goja's dynamic object protocol to ExoticMethods.
// Exceptions raised by hooks are rethrown into goja by panicking with the
// pending exception value.
type exoticObject struct {
	ctx  *Context
	inst *classInstance
}

func (o *exoticObject) self() Value {
	obj := o.inst.key.Value()
	if obj == nil {
		return Undefined
	}
	return o.ctx.wrap(obj)
}

func (o *exoticObject) Get(key string) goja.Value {
	m := o.inst.def.Exotic
	if m.GetProperty == nil {
		return nil
	}
	obj := o.self()
	atom := o.ctx.NewAtom(key)
	res := m.GetProperty(o.ctx, obj, atom, obj)
	o.ctx.FreeAtom(atom)
	o.ctx.FreeValue(obj)
	return o.ctx.unwrapResult(res)
}

func (o *exoticObject) Set(key string, val goja.Value) bool {
	m := o.inst.def.Exotic
	if m.SetProperty == nil {
		return false
	}
	obj := o.self()
	atom := o.ctx.NewAtom(key)
	v := o.ctx.wrap(val)
	ret := m.SetProperty(o.ctx, obj, atom, v, obj, 0)
	o.ctx.FreeValue(v)
	o.ctx.FreeAtom(atom)
	o.ctx.FreeValue(obj)

	if ret < 0 {
		o.ctx.throwPending()
	}
	return ret != 0
}

func (o *exoticObject) Has(key string) bool {
	m := o.inst.def.Exotic
	atom := o.ctx.NewAtom(key)
	defer o.ctx.FreeAtom(atom)

	if m.HasProperty != nil {
		obj := o.self()
		ret := m.HasProperty(o.ctx, obj, atom)
		o.ctx.FreeValue(obj)
		if ret < 0 {
			o.ctx.throwPending()
		}
		return ret > 0
	}

	tab := o.ownNames()
	defer o.ctx.FreePropertyEnum(tab)
	for _, e := range tab {
		if e.Atom == atom {
			return true
		}
	}
	return false
}

func (o *exoticObject) Delete(key string) bool {
	return true
}

func (o *exoticObject) Keys() []string {
	tab := o.ownNames()
	defer o.ctx.FreePropertyEnum(tab)

	keys := make([]string, 0, len(tab))
	for _, e := range tab {
		if s, ok := o.ctx.AtomString(e.Atom); ok {
			keys = append(keys, s)
		}
	}
	return keys
}

func (o *exoticObject) ownNames() []PropertyEnum {
	m := o.inst.def.Exotic
	if m.GetOwnPropertyNames == nil {
		return nil
	}
	obj := o.self()
	tab, ret := m.GetOwnPropertyNames(o.ctx, obj)
	o.ctx.FreeValue(obj)
	if ret < 0 {
		o.ctx.throwPending()
	}
	return tab
}

// callTrampoline adapts ClassDef.Call to a goja native function.
func (ctx *Context) callTrampoline(inst *classInstance) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		def := inst.def
		if argc := len(call.Arguments); def.MaxArgs > 0 && argc > def.MaxArgs {
			if def.TooManyArgs == nil {
				ctx.throwError(errors.ArgumentCount(errors.PhaseEngine, argc, def.MaxArgs))
				ctx.throwPending()
			}
			return ctx.unwrapResult(def.TooManyArgs(ctx, argc))
		}

		fn := Undefined
		if self := inst.key.Value(); self != nil {
			fn = ctx.wrap(self)
		}
		this := ctx.wrap(call.This)
		args := make([]Value, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = ctx.wrap(a)
		}

		res := def.Call(ctx, fn, this, args, 0)

		for _, a := range args {
			ctx.FreeValue(a)
		}
		ctx.FreeValue(this)
		ctx.FreeValue(fn)
		return ctx.unwrapResult(res)
	}
}

// unwrapResult converts an owned hook result into a goja value, rethrowing
// the pending exception for Exception.
func (ctx *Context) unwrapResult(res Value) goja.Value {
	if res.IsException() {
		ctx.throwPending()
	}
	gv := ctx.goValue(res)
	ctx.FreeValue(res)
	return gv
}

// throwPending moves the pending exception into goja by panicking with it.
func (ctx *Context) throwPending() {
	gv := ctx.exception
	ctx.exception = nil
	if gv == nil {
		gv = ctx.vm.NewTypeError("exception raised without a pending value")
	}
	panic(gv)
}
