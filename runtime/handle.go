package runtime

import (
	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

// pointerValue owns one reference to a native value. A live handle has a
// non-nil ctx; Invalidate releases the reference and clears ctx.
type pointerValue struct {
	ctx *engine.Context
	v   engine.Value
}

// take wraps an already owned native value.
func take(ctx *engine.Context, v engine.Value) *pointerValue {
	return &pointerValue{ctx: ctx, v: v}
}

// clone returns a second owning handle to the same value.
func (p *pointerValue) clone() *pointerValue {
	if p == nil || p.ctx == nil {
		return &pointerValue{}
	}
	return &pointerValue{ctx: p.ctx, v: p.ctx.DupValue(p.v)}
}

func (p *pointerValue) Invalidate() {
	if p == nil || p.ctx == nil {
		return
	}
	ctx := p.ctx
	p.ctx = nil
	ctx.FreeValue(p.v)
	p.v = engine.Undefined
}

// atomPointerValue owns one reference to an interned property key.
type atomPointerValue struct {
	ctx  *engine.Context
	atom engine.Atom
}

func takeAtom(ctx *engine.Context, a engine.Atom) *atomPointerValue {
	return &atomPointerValue{ctx: ctx, atom: a}
}

func (p *atomPointerValue) clone() *atomPointerValue {
	if p == nil || p.ctx == nil {
		return &atomPointerValue{}
	}
	return &atomPointerValue{ctx: p.ctx, atom: p.ctx.DupAtom(p.atom)}
}

func (p *atomPointerValue) Invalidate() {
	if p == nil || p.ctx == nil {
		return
	}
	ctx := p.ctx
	p.ctx = nil
	ctx.FreeAtom(p.atom)
	p.atom = engine.AtomNull
}

// native resolves a handle payload to the borrowed native value.
func (r *Runtime) native(pv jsi.PointerValue) (engine.Value, error) {
	p, ok := pv.(*pointerValue)
	if !ok || p == nil || p.ctx == nil {
		return engine.Undefined, errors.InvalidHandle(errors.PhaseMarshal, "value")
	}
	if p.ctx != r.ctx {
		return engine.Undefined, errors.InvalidHandle(errors.PhaseMarshal, "value of another runtime")
	}
	return p.v, nil
}

// atom resolves a PropNameID to the borrowed native atom.
func (r *Runtime) atom(name jsi.PropNameID) (engine.Atom, error) {
	p, ok := name.PointerValue().(*atomPointerValue)
	if !ok || p == nil || p.ctx == nil {
		return engine.AtomNull, errors.InvalidHandle(errors.PhaseMarshal, "property name")
	}
	if p.ctx != r.ctx {
		return engine.AtomNull, errors.InvalidHandle(errors.PhaseMarshal, "property name of another runtime")
	}
	return p.atom, nil
}

func (r *Runtime) CloneSymbol(s jsi.Symbol) jsi.Symbol {
	p, _ := s.PointerValue().(*pointerValue)
	return jsi.MakeSymbol(p.clone())
}

func (r *Runtime) CloneString(s jsi.String) jsi.String {
	p, _ := s.PointerValue().(*pointerValue)
	return jsi.MakeString(p.clone())
}

func (r *Runtime) CloneObject(o jsi.Object) jsi.Object {
	p, _ := o.PointerValue().(*pointerValue)
	return jsi.MakeObject(p.clone())
}

func (r *Runtime) ClonePropNameID(name jsi.PropNameID) jsi.PropNameID {
	p, _ := name.PointerValue().(*atomPointerValue)
	return jsi.MakePropNameID(p.clone())
}
