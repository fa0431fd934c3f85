package runtime

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

var _ jsi.Runtime = (*Runtime)(nil)

// Runtime implements jsi.Runtime on one engine context.
// It is NOT safe for concurrent use.
type Runtime struct {
	rt      *engine.Runtime
	ctx     *engine.Context
	proxies *proxies
	log     *zap.Logger

	// objectProto is Object.prototype, where GetPropertyNames stops.
	objectProto engine.Value

	dontExecutePending bool
	ownsContext        bool
	closed             bool
}

// New creates a Runtime with a fresh engine runtime and context, or on the
// context given by WithContext.
func New(opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &Runtime{log: o.logger}
	if r.log == nil {
		r.log = Logger()
	}

	if o.ctx != nil {
		if o.ctx.ContextOpaque() != nil {
			return nil, errors.InvalidInput(errors.PhaseRuntime, "engine context is already in use")
		}
		r.ctx = o.ctx
		r.rt = o.ctx.Runtime()
		if o.maxCallStackSize > 0 {
			r.rt.SetMaxCallStackSize(o.maxCallStackSize)
		}
	} else {
		r.rt = engine.NewRuntimeWithConfig(&engine.Config{MaxCallStackSize: o.maxCallStackSize})
		ctx, err := r.rt.NewContext()
		if err != nil {
			return nil, multierr.Append(errors.Wrap(errors.PhaseRuntime, errors.KindNotInitialized, err, "create context"), r.rt.Free())
		}
		r.ctx = ctx
		r.ownsContext = true
	}

	r.ctx.SetContextOpaque(r)
	r.proxies = proxiesOf(r.rt)

	proto, err := r.lookupObjectPrototype()
	if err != nil {
		return nil, multierr.Append(err, r.Close())
	}
	r.objectProto = proto
	return r, nil
}

func (r *Runtime) lookupObjectPrototype() (engine.Value, error) {
	global := r.ctx.GlobalObject()
	defer r.ctx.FreeValue(global)
	ctor := r.ctx.GetPropertyStr(global, "Object")
	if ctor.IsException() {
		return engine.Undefined, r.raiseFromNative(r.ctx)
	}
	defer r.ctx.FreeValue(ctor)
	proto := r.ctx.GetProperty(ctor, engine.AtomPrototype)
	if proto.IsException() {
		return engine.Undefined, r.raiseFromNative(r.ctx)
	}
	return proto, nil
}

// Engine returns the engine context this Runtime runs on.
func (r *Runtime) Engine() *engine.Context {
	return r.ctx
}

// CollectGarbage runs the Go collector and the finalizers of host objects
// and host functions it reclaimed.
func (r *Runtime) CollectGarbage() {
	r.rt.RunGC()
}

// Close frees the context and engine runtime this Runtime created. All
// handles must be released before. Host objects still alive are disposed.
func (r *Runtime) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	r.ctx.FreeValue(r.objectProto)
	r.objectProto = engine.Undefined
	r.ctx.SetContextOpaque(nil)
	if !r.ownsContext {
		return nil
	}

	err := r.rt.Free()
	return multierr.Append(err, r.proxies.close())
}

func (r *Runtime) Description() string {
	return "QuickJS"
}

func (r *Runtime) IsInspectable() bool {
	return false
}

// EvaluateJavaScript runs buffer as a global script and drains pending
// jobs unless called from inside another evaluation or call.
func (r *Runtime) EvaluateJavaScript(buffer jsi.Buffer, sourceURL string) (res jsi.Value, err error) {
	scope := r.enterScope()
	defer scope.exit(&res, &err)

	return r.takeValue(r.ctx.Eval(string(buffer.Data()), sourceURL))
}

func (r *Runtime) PrepareJavaScript(buffer jsi.Buffer, sourceURL string) (jsi.PreparedJavaScript, error) {
	return nil, errors.Unsupported(errors.PhaseRuntime, "prepared scripts")
}

func (r *Runtime) EvaluatePreparedJavaScript(js jsi.PreparedJavaScript) (jsi.Value, error) {
	return jsi.Undefined(), errors.Unsupported(errors.PhaseRuntime, "prepared scripts")
}

func (r *Runtime) Global() jsi.Object {
	return jsi.MakeObject(take(r.ctx, r.ctx.GlobalObject()))
}

func (r *Runtime) CreatePropNameIDFromASCII(s string) (jsi.PropNameID, error) {
	return r.newPropNameID(s)
}

func (r *Runtime) CreatePropNameIDFromUTF8(b []byte) (jsi.PropNameID, error) {
	return r.newPropNameID(string(b))
}

func (r *Runtime) newPropNameID(s string) (jsi.PropNameID, error) {
	a := r.ctx.NewAtom(s)
	if a == engine.AtomNull {
		return jsi.PropNameID{}, errors.InvalidInput(errors.PhaseRuntime, "cannot intern property name")
	}
	return jsi.MakePropNameID(takeAtom(r.ctx, a)), nil
}

func (r *Runtime) CreatePropNameIDFromString(s jsi.String) (jsi.PropNameID, error) {
	v, err := r.native(s.PointerValue())
	if err != nil {
		return jsi.PropNameID{}, err
	}
	a := r.ctx.ValueToAtom(v)
	if a == engine.AtomNull {
		return jsi.PropNameID{}, r.raiseFromNative(r.ctx)
	}
	return jsi.MakePropNameID(takeAtom(r.ctx, a)), nil
}

func (r *Runtime) PropNameIDUTF8(name jsi.PropNameID) (string, error) {
	a, err := r.atom(name)
	if err != nil {
		return "", err
	}
	if s, ok := r.ctx.AtomString(a); ok {
		return s, nil
	}
	v := r.ctx.AtomToString(a)
	if v.IsException() {
		return "", r.raiseFromNative(r.ctx)
	}
	defer r.ctx.FreeValue(v)
	return r.toCString(v)
}

// ComparePropNameIDs compares interned keys by identity.
func (r *Runtime) ComparePropNameIDs(a, b jsi.PropNameID) bool {
	aa, err := r.atom(a)
	if err != nil {
		return false
	}
	ba, err := r.atom(b)
	if err != nil {
		return false
	}
	return aa == ba
}

func (r *Runtime) SymbolToString(s jsi.Symbol) (string, error) {
	v, err := r.native(s.PointerValue())
	if err != nil {
		return "", err
	}
	return r.toCString(v)
}

func (r *Runtime) CreateStringFromASCII(s string) (jsi.String, error) {
	return r.takeString(r.ctx.NewString(s))
}

func (r *Runtime) CreateStringFromUTF8(b []byte) (jsi.String, error) {
	return r.takeString(r.ctx.NewString(string(b)))
}

func (r *Runtime) StringUTF8(s jsi.String) (string, error) {
	v, err := r.native(s.PointerValue())
	if err != nil {
		return "", err
	}
	return r.toCString(v)
}

func (r *Runtime) toCString(v engine.Value) (string, error) {
	s, ok := r.ctx.ToCString(v)
	if !ok {
		return "", r.raiseFromNative(r.ctx)
	}
	return s, nil
}

func (r *Runtime) CreateObject() (jsi.Object, error) {
	return r.takeObject(r.ctx.NewObject())
}

func (r *Runtime) GetProperty(o jsi.Object, name jsi.PropNameID) (jsi.Value, error) {
	obj, err := r.native(o.PointerValue())
	if err != nil {
		return jsi.Undefined(), err
	}
	a, err := r.atom(name)
	if err != nil {
		return jsi.Undefined(), err
	}
	return r.takeValue(r.ctx.GetProperty(obj, a))
}

func (r *Runtime) GetPropertyByString(o jsi.Object, name jsi.String) (jsi.Value, error) {
	prop, err := r.CreatePropNameIDFromString(name)
	if err != nil {
		return jsi.Undefined(), err
	}
	defer prop.Release()
	return r.GetProperty(o, prop)
}

func (r *Runtime) HasProperty(o jsi.Object, name jsi.PropNameID) (bool, error) {
	obj, err := r.native(o.PointerValue())
	if err != nil {
		return false, err
	}
	a, err := r.atom(name)
	if err != nil {
		return false, err
	}
	ret := r.ctx.HasProperty(obj, a)
	if ret < 0 {
		return false, r.raiseFromNative(r.ctx)
	}
	return ret > 0, nil
}

func (r *Runtime) HasPropertyByString(o jsi.Object, name jsi.String) (bool, error) {
	prop, err := r.CreatePropNameIDFromString(name)
	if err != nil {
		return false, err
	}
	defer prop.Release()
	return r.HasProperty(o, prop)
}

// SetProperty assigns o[name] = value. value stays owned by the caller.
func (r *Runtime) SetProperty(o jsi.Object, name jsi.PropNameID, value jsi.Value) error {
	obj, err := r.native(o.PointerValue())
	if err != nil {
		return err
	}
	a, err := r.atom(name)
	if err != nil {
		return err
	}
	nv, err := r.dupNative(value)
	if err != nil {
		return err
	}
	if r.ctx.SetProperty(obj, a, nv) < 0 {
		return r.raiseFromNative(r.ctx)
	}
	return nil
}

func (r *Runtime) SetPropertyByString(o jsi.Object, name jsi.String, value jsi.Value) error {
	prop, err := r.CreatePropNameIDFromString(name)
	if err != nil {
		return err
	}
	defer prop.Release()
	return r.SetProperty(o, prop, value)
}

func (r *Runtime) IsArray(o jsi.Object) bool {
	obj, err := r.native(o.PointerValue())
	return err == nil && r.ctx.IsArray(obj)
}

func (r *Runtime) IsArrayBuffer(o jsi.Object) bool {
	return false
}

func (r *Runtime) IsFunction(o jsi.Object) bool {
	obj, err := r.native(o.PointerValue())
	return err == nil && r.ctx.IsFunction(obj)
}

func (r *Runtime) CreateWeakObject(o jsi.Object) (jsi.WeakObject, error) {
	return jsi.WeakObject{}, errors.Unsupported(errors.PhaseRuntime, "weak objects")
}

func (r *Runtime) LockWeakObject(w jsi.WeakObject) (jsi.Value, error) {
	return jsi.Undefined(), errors.Unsupported(errors.PhaseRuntime, "weak objects")
}

// CreateArray creates an array whose length is set to length.
func (r *Runtime) CreateArray(length int) (jsi.Array, error) {
	if length < 0 {
		return jsi.Array{}, errors.InvalidInput(errors.PhaseRuntime, "negative array length")
	}
	arr := r.ctx.NewArray()
	if arr.IsException() {
		return jsi.Array{}, r.raiseFromNative(r.ctx)
	}
	if r.ctx.SetPropertyStr(arr, "length", engine.NewNumber(float64(length))) < 0 {
		r.ctx.FreeValue(arr)
		return jsi.Array{}, r.raiseFromNative(r.ctx)
	}
	return jsi.MakeArray(take(r.ctx, arr)), nil
}

func (r *Runtime) ArraySize(a jsi.Array) (int, error) {
	arr, err := r.native(a.PointerValue())
	if err != nil {
		return 0, err
	}
	v := r.ctx.GetProperty(arr, engine.AtomLength)
	if v.IsException() {
		return 0, r.raiseFromNative(r.ctx)
	}
	defer r.ctx.FreeValue(v)
	if !v.IsNumber() {
		return 0, errors.TypeMismatch(errors.PhaseRuntime, []string{"length"}, "int", v.Tag().String())
	}
	return int(v.Number()), nil
}

func (r *Runtime) ArrayBufferSize(b jsi.ArrayBuffer) (int, error) {
	return 0, errors.Unsupported(errors.PhaseRuntime, "array buffers")
}

func (r *Runtime) ArrayBufferData(b jsi.ArrayBuffer) ([]byte, error) {
	return nil, errors.Unsupported(errors.PhaseRuntime, "array buffers")
}

func (r *Runtime) GetValueAtIndex(a jsi.Array, i int) (jsi.Value, error) {
	arr, err := r.native(a.PointerValue())
	if err != nil {
		return jsi.Undefined(), err
	}
	if i < 0 {
		return jsi.Undefined(), errors.OutOfBounds(errors.PhaseRuntime, nil, i, 0)
	}
	return r.takeValue(r.ctx.GetPropertyUint32(arr, uint32(i)))
}

// SetValueAtIndex assigns a[i] = value. value stays owned by the caller.
func (r *Runtime) SetValueAtIndex(a jsi.Array, i int, value jsi.Value) error {
	arr, err := r.native(a.PointerValue())
	if err != nil {
		return err
	}
	if i < 0 {
		return errors.OutOfBounds(errors.PhaseRuntime, nil, i, 0)
	}
	nv, err := r.dupNative(value)
	if err != nil {
		return err
	}
	if r.ctx.SetPropertyUint32(arr, uint32(i), nv) < 0 {
		return r.raiseFromNative(r.ctx)
	}
	return nil
}

// Call invokes f with this and args, all borrowed.
func (r *Runtime) Call(f jsi.Function, this jsi.Value, args ...jsi.Value) (res jsi.Value, err error) {
	if len(args) > MaxCallArgCount {
		return jsi.Undefined(), errors.ArgumentCount(errors.PhaseRuntime, len(args), MaxCallArgCount)
	}
	fn, err := r.native(f.PointerValue())
	if err != nil {
		return jsi.Undefined(), err
	}
	thisArg, err := r.pickNative(this)
	if err != nil {
		return jsi.Undefined(), err
	}
	nargs, err := r.pickNatives(args)
	if err != nil {
		return jsi.Undefined(), err
	}

	scope := r.enterScope()
	defer scope.exit(&res, &err)

	return r.takeValue(r.ctx.Call(fn, thisArg, nargs))
}

// CallAsConstructor evaluates `new f(...args)`.
func (r *Runtime) CallAsConstructor(f jsi.Function, args ...jsi.Value) (res jsi.Value, err error) {
	if len(args) > MaxCallArgCount {
		return jsi.Undefined(), errors.ArgumentCount(errors.PhaseRuntime, len(args), MaxCallArgCount)
	}
	fn, err := r.native(f.PointerValue())
	if err != nil {
		return jsi.Undefined(), err
	}
	nargs, err := r.pickNatives(args)
	if err != nil {
		return jsi.Undefined(), err
	}

	scope := r.enterScope()
	defer scope.exit(&res, &err)

	return r.takeValue(r.ctx.CallConstructor(fn, nargs))
}

func (r *Runtime) StrictEqualsSymbol(a, b jsi.Symbol) bool {
	return r.strictEquals(a.PointerValue(), b.PointerValue())
}

// StrictEqualsString compares the UTF-8 contents of a and b.
func (r *Runtime) StrictEqualsString(a, b jsi.String) bool {
	as, err := r.StringUTF8(a)
	if err != nil {
		return false
	}
	bs, err := r.StringUTF8(b)
	if err != nil {
		return false
	}
	return as == bs
}

func (r *Runtime) StrictEqualsObject(a, b jsi.Object) bool {
	return r.strictEquals(a.PointerValue(), b.PointerValue())
}

func (r *Runtime) strictEquals(a, b jsi.PointerValue) bool {
	av, err := r.native(a)
	if err != nil {
		return false
	}
	bv, err := r.native(b)
	if err != nil {
		return false
	}
	return r.ctx.StrictEquals(av, bv)
}

func (r *Runtime) InstanceOf(o jsi.Object, f jsi.Function) (bool, error) {
	obj, err := r.native(o.PointerValue())
	if err != nil {
		return false, err
	}
	fn, err := r.native(f.PointerValue())
	if err != nil {
		return false, err
	}
	ret := r.ctx.IsInstanceOf(obj, fn)
	if ret < 0 {
		return false, r.raiseFromNative(r.ctx)
	}
	return ret > 0, nil
}
