package runtime

import (
	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
	"github.com/wxiaoguang/quickjs-jsi/resource"
)

type hostObjectProxy struct {
	ho jsi.HostObject
}

// Drop is called when the side-table entry is removed.
func (p *hostObjectProxy) Drop() {
	if d, ok := p.ho.(jsi.Disposer); ok {
		dispose("host object", d.Dispose)
	}
}

var hostObjectClassDef = &engine.ClassDef{
	Name:      "HostObject",
	Finalizer: finalizeHostObject,
	Exotic: &engine.ExoticMethods{
		GetProperty:         hostObjectGet,
		SetProperty:         hostObjectSet,
		GetOwnPropertyNames: hostObjectOwnKeys,
	},
}

// registerHostObjectClass registers the shared class with this engine
// runtime before its first host object.
func (r *Runtime) registerHostObjectClass() error {
	id := hostObjectClass()
	if r.rt.IsRegisteredClass(id) {
		return nil
	}
	return r.rt.NewClass(id, hostObjectClassDef)
}

func finalizeHostObject(rt *engine.Runtime, opaque resource.Handle) {
	if _, ok := proxiesOf(rt).objects.Remove(opaque); !ok {
		Logger().Warn("host object finalized twice", zap.Uint64("handle", uint64(opaque)))
	}
}

// hostObjectOf resolves the proxy attached to a host object instance.
func hostObjectOf(ctx *engine.Context, obj engine.Value) (*Runtime, *hostObjectProxy, bool) {
	r := adapterOf(ctx)
	if r == nil {
		return nil, nil, false
	}
	p, ok := r.proxies.objects.Get(ctx.GetOpaque(obj, hostObjectClass()))
	return r, p, ok
}

func hostObjectGet(ctx *engine.Context, obj engine.Value, atom engine.Atom, receiver engine.Value) (res engine.Value) {
	r, p, ok := hostObjectOf(ctx, obj)
	if !ok {
		return ctx.ThrowTypeError("host object is no longer attached")
	}
	defer func() {
		if rec := recover(); rec != nil {
			res = r.setNativeFromPanic(ctx, "get", rec, unexpectedHostError)
		}
	}()

	name := jsi.MakePropNameID(takeAtom(ctx, ctx.DupAtom(atom)))
	defer name.Release()

	v, err := p.ho.Get(r, name)
	if err != nil {
		return setNativeFromError(ctx, err, "")
	}
	defer v.Release()

	nv, err := r.dupNative(v)
	if err != nil {
		return setNativeFromError(ctx, err, "")
	}
	return nv
}

// hostObjectSet always reports the assignment as handled so the engine
// never stores the value on the instance itself.
func hostObjectSet(ctx *engine.Context, obj engine.Value, atom engine.Atom, value, receiver engine.Value, flags int) (ret int) {
	r, p, ok := hostObjectOf(ctx, obj)
	if !ok {
		ctx.ThrowTypeError("host object is no longer attached")
		return -1
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.setNativeFromPanic(ctx, "set", rec, unexpectedHostError)
			ret = -1
		}
	}()

	name := jsi.MakePropNameID(takeAtom(ctx, ctx.DupAtom(atom)))
	defer name.Release()

	v, err := r.cloneFromNative(value)
	if err != nil {
		setNativeFromError(ctx, err, "")
		return -1
	}
	defer v.Release()

	if err := p.ho.Set(r, name, v); err != nil {
		setNativeFromError(ctx, err, "")
		return -1
	}
	return 1
}

// hostObjectOwnKeys reports the capability's property names as enumerable
// own keys, collapsing names that intern to the same atom.
func hostObjectOwnKeys(ctx *engine.Context, obj engine.Value) (tab []engine.PropertyEnum, ret int) {
	r, p, ok := hostObjectOf(ctx, obj)
	if !ok {
		ctx.ThrowTypeError("host object is no longer attached")
		return nil, -1
	}
	defer func() {
		if rec := recover(); rec != nil {
			ctx.FreePropertyEnum(tab)
			r.setNativeFromPanic(ctx, "enumerate", rec, unexpectedHostError)
			tab, ret = nil, -1
		}
	}()

	names, err := p.ho.GetPropertyNames(r)
	defer func() {
		for _, n := range names {
			n.Release()
		}
	}()
	if err != nil {
		setNativeFromError(ctx, err, "")
		return nil, -1
	}

	seen := make(map[engine.Atom]struct{}, len(names))
	tab = make([]engine.PropertyEnum, 0, len(names))
	for _, n := range names {
		a, err := r.atom(n)
		if err != nil {
			ctx.FreePropertyEnum(tab)
			setNativeFromError(ctx, err, "")
			return nil, -1
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		tab = append(tab, engine.PropertyEnum{Atom: ctx.DupAtom(a), IsEnumerable: true})
	}
	return tab, 0
}

// CreateHostObject creates an object whose property access is served by ho.
// ho is disposed once the engine finalizes the object.
func (r *Runtime) CreateHostObject(ho jsi.HostObject) (jsi.Object, error) {
	if ho == nil {
		return jsi.Object{}, errors.NilPointer(errors.PhaseRuntime, nil, "jsi.HostObject")
	}
	if err := r.registerHostObjectClass(); err != nil {
		return jsi.Object{}, err
	}
	obj := r.ctx.NewObjectClass(hostObjectClass())
	if obj.IsException() {
		return jsi.Object{}, r.raiseFromNative(r.ctx)
	}
	r.ctx.SetOpaque(obj, r.proxies.objects.Insert(&hostObjectProxy{ho: ho}))
	return jsi.MakeObject(take(r.ctx, obj)), nil
}

// GetHostObject returns the capability behind a host object.
func (r *Runtime) GetHostObject(o jsi.Object) (jsi.HostObject, error) {
	obj, err := r.native(o.PointerValue())
	if err != nil {
		return nil, err
	}
	p, ok := r.proxies.objects.Get(r.ctx.GetOpaque(obj, hostObjectClass()))
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseRuntime, nil, "jsi.HostObject", "object")
	}
	return p.ho, nil
}

func (r *Runtime) IsHostObject(o jsi.Object) bool {
	obj, err := r.native(o.PointerValue())
	if err != nil {
		return false
	}
	return r.ctx.GetClassID(obj) == hostObjectClass()
}
