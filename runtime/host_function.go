package runtime

import (
	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
	"github.com/wxiaoguang/quickjs-jsi/resource"
)

// MaxCallArgCount is the largest argument count accepted by host functions,
// Call and CallAsConstructor.
const MaxCallArgCount = 32

type hostFunctionProxy struct {
	fn jsi.HostFunction
}

var hostFunctionClassDef = &engine.ClassDef{
	Name:        "HostFunction",
	Finalizer:   finalizeHostFunction,
	Call:        hostFunctionCall,
	MaxArgs:     MaxCallArgCount,
	TooManyArgs: hostFunctionTooManyArgs,
}

func (r *Runtime) registerHostFunctionClass() error {
	id := hostFunctionClass()
	if r.rt.IsRegisteredClass(id) {
		return nil
	}
	return r.rt.NewClass(id, hostFunctionClassDef)
}

func finalizeHostFunction(rt *engine.Runtime, opaque resource.Handle) {
	if _, ok := proxiesOf(rt).functions.Remove(opaque); !ok {
		Logger().Warn("host function finalized twice", zap.Uint64("handle", uint64(opaque)))
	}
}

// hostFunctionTooManyArgs rejects a call before its arguments are converted.
func hostFunctionTooManyArgs(ctx *engine.Context, argc int) engine.Value {
	return setNativeFromError(ctx, errors.ArgumentCount(errors.PhaseHost, argc, MaxCallArgCount), hostFunctionPrefix)
}

// hostFunctionCall converts this and args into owned embedding values for
// the duration of the call. Callables clone what they keep.
func hostFunctionCall(ctx *engine.Context, fn, this engine.Value, args []engine.Value, flags int) (res engine.Value) {
	r := adapterOf(ctx)
	if r == nil {
		return ctx.ThrowTypeError("host function is no longer attached")
	}
	p, ok := r.proxies.functions.Get(ctx.GetOpaque(fn, hostFunctionClass()))
	if !ok {
		return ctx.ThrowTypeError("host function is no longer attached")
	}
	defer func() {
		if rec := recover(); rec != nil {
			res = r.setNativeFromPanic(ctx, "call", rec, unexpectedHostFuncErr)
		}
	}()

	thisArg, err := r.cloneFromNative(this)
	if err != nil {
		return setNativeFromError(ctx, err, hostFunctionPrefix)
	}
	defer thisArg.Release()

	jsArgs := make([]jsi.Value, 0, len(args))
	defer func() {
		for _, a := range jsArgs {
			a.Release()
		}
	}()
	for _, a := range args {
		v, err := r.cloneFromNative(a)
		if err != nil {
			return setNativeFromError(ctx, err, hostFunctionPrefix)
		}
		jsArgs = append(jsArgs, v)
	}

	ret, err := p.fn(r, thisArg, jsArgs)
	if err != nil {
		return setNativeFromError(ctx, err, hostFunctionPrefix)
	}
	defer ret.Release()

	nv, err := r.dupNative(ret)
	if err != nil {
		return setNativeFromError(ctx, err, hostFunctionPrefix)
	}
	return nv
}

// CreateFunctionFromHostFunction creates a function object backed by fn with
// the given name and length.
func (r *Runtime) CreateFunctionFromHostFunction(name jsi.PropNameID, paramCount int, fn jsi.HostFunction) (jsi.Function, error) {
	if fn == nil {
		return jsi.Function{}, errors.NilPointer(errors.PhaseRuntime, nil, "jsi.HostFunction")
	}
	atom, err := r.atom(name)
	if err != nil {
		return jsi.Function{}, err
	}
	if err := r.registerHostFunctionClass(); err != nil {
		return jsi.Function{}, err
	}

	obj := r.ctx.NewObjectClass(hostFunctionClass())
	if obj.IsException() {
		return jsi.Function{}, r.raiseFromNative(r.ctx)
	}
	r.ctx.SetOpaque(obj, r.proxies.functions.Insert(&hostFunctionProxy{fn: fn}))

	if r.ctx.DefinePropertyValue(obj, engine.AtomLength, engine.NewInt32(int32(paramCount)), engine.PropConfigurable) < 0 {
		r.ctx.FreeValue(obj)
		return jsi.Function{}, r.raiseFromNative(r.ctx)
	}
	nameStr := r.ctx.AtomToString(atom)
	if nameStr.IsException() || r.ctx.DefinePropertyValue(obj, engine.AtomName, nameStr, engine.PropConfigurable) < 0 {
		r.ctx.FreeValue(obj)
		return jsi.Function{}, r.raiseFromNative(r.ctx)
	}
	return jsi.MakeFunction(take(r.ctx, obj)), nil
}

// GetHostFunction returns the callable behind a host function.
func (r *Runtime) GetHostFunction(f jsi.Function) (jsi.HostFunction, error) {
	obj, err := r.native(f.PointerValue())
	if err != nil {
		return nil, err
	}
	p, ok := r.proxies.functions.Get(r.ctx.GetOpaque(obj, hostFunctionClass()))
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseRuntime, nil, "jsi.HostFunction", "function")
	}
	return p.fn, nil
}

func (r *Runtime) IsHostFunction(f jsi.Function) bool {
	obj, err := r.native(f.PointerValue())
	if err != nil {
		return false
	}
	return r.ctx.GetClassID(obj) == hostFunctionClass()
}
