package engine

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Property flags for DefinePropertyValue.
const (
	PropConfigurable = 1 << 0
	PropWritable     = 1 << 1
	PropEnumerable   = 1 << 2
	PropCWE          = PropConfigurable | PropWritable | PropEnumerable
)

// Flags for GetOwnPropertyNames.
const (
	GPNStringMask = 1 << 0
	GPNSymbolMask = 1 << 1
	GPNEnumOnly   = 1 << 4
)

// helperSource implements the operations goja only exposes to scripts.
const helperSource = `(function () {
	return {
		get: function (o, k) { return o[k]; },
		set: function (o, k, v) { "use strict"; o[k] = v; },
		has: function (o, k) { return k in o; },
		define: function (o, k, v, w, e, c) {
			Object.defineProperty(o, k, { value: v, writable: w, enumerable: e, configurable: c });
		},
		instanceOf: function (o, c) { return o instanceof c; },
		ownNames: function (o) { return Object.getOwnPropertyNames(o); },
		ownSymbols: function (o) { return Object.getOwnPropertySymbols(o); },
		isEnumerable: function (o, k) { return Object.prototype.propertyIsEnumerable.call(o, k); },
		getPrototype: function (v) { return Object.getPrototypeOf(v); },
		newError: function (m) { return m === undefined ? new Error() : new Error(m); },
		toString: function (v) { return String(v); }
	};
})()`

type helpers struct {
	get          goja.Callable
	set          goja.Callable
	has          goja.Callable
	define       goja.Callable
	instanceOf   goja.Callable
	ownNames     goja.Callable
	ownSymbols   goja.Callable
	isEnumerable goja.Callable
	getPrototype goja.Callable
	newError     goja.Callable
	toString     goja.Callable
}

// Context is one script realm with its own global object and a single
// pending-exception slot.
type Context struct {
	rt        *Runtime
	vm        *goja.Runtime
	exception goja.Value
	opaque    any
	fn        helpers
	id        uint64
	freed     bool
}

// NewContext creates a realm with the queueMicrotask global installed.
func (rt *Runtime) NewContext() (*Context, error) {
	vm := goja.New()
	if rt.maxCallStackSize > 0 {
		vm.SetMaxCallStackSize(rt.maxCallStackSize)
	}
	rt.nextContextID++
	ctx := &Context{
		rt: rt,
		vm: vm,
		id: rt.nextContextID,
	}
	if err := ctx.initHelpers(); err != nil {
		return nil, err
	}
	if err := ctx.installMicrotask(); err != nil {
		return nil, err
	}
	rt.contexts = append(rt.contexts, ctx)
	return ctx, nil
}

func (ctx *Context) initHelpers() error {
	v, err := ctx.vm.RunString(helperSource)
	if err != nil {
		return fmt.Errorf("compile helpers: %w", err)
	}
	obj := v.ToObject(ctx.vm)

	for name, dst := range map[string]*goja.Callable{
		"get":          &ctx.fn.get,
		"set":          &ctx.fn.set,
		"has":          &ctx.fn.has,
		"define":       &ctx.fn.define,
		"instanceOf":   &ctx.fn.instanceOf,
		"ownNames":     &ctx.fn.ownNames,
		"ownSymbols":   &ctx.fn.ownSymbols,
		"isEnumerable": &ctx.fn.isEnumerable,
		"getPrototype": &ctx.fn.getPrototype,
		"newError":     &ctx.fn.newError,
		"toString":     &ctx.fn.toString,
	} {
		fn, ok := goja.AssertFunction(obj.Get(name))
		if !ok {
			return fmt.Errorf("helper %q is not a function", name)
		}
		*dst = fn
	}
	return nil
}

// Runtime returns the owning runtime.
func (ctx *Context) Runtime() *Runtime {
	return ctx.rt
}

// SetContextOpaque attaches an embedder value to the context.
func (ctx *Context) SetContextOpaque(v any) {
	ctx.opaque = v
}

// ContextOpaque returns the value set by SetContextOpaque.
func (ctx *Context) ContextOpaque() any {
	return ctx.opaque
}

// Free finalizes the class instances created in this context and drops its
// queued jobs. Values it handed out stay valid for FreeValue.
func (ctx *Context) Free() {
	if ctx.freed {
		return
	}
	ctx.freed = true
	ctx.exception = nil

	ctx.rt.runFinalizers()
	var owned []*classInstance
	for _, inst := range ctx.rt.instances {
		if inst.ctxID == ctx.id {
			owned = append(owned, inst)
		}
	}
	for _, inst := range owned {
		ctx.rt.finalize(inst)
	}

	kept := ctx.rt.jobs[:0]
	for _, j := range ctx.rt.jobs {
		if j.ctx != ctx {
			kept = append(kept, j)
			continue
		}
		for _, a := range j.args {
			ctx.rt.FreeValue(a)
		}
	}
	ctx.rt.jobs = kept

	for i, c := range ctx.rt.contexts {
		if c == ctx {
			ctx.rt.contexts = append(ctx.rt.contexts[:i], ctx.rt.contexts[i+1:]...)
			break
		}
	}
}

func (ctx *Context) DupValue(v Value) Value {
	return ctx.rt.DupValue(v)
}

func (ctx *Context) FreeValue(v Value) {
	ctx.rt.FreeValue(v)
}

// wrap converts a goja value into an owned engine value.
func (ctx *Context) wrap(gv goja.Value) Value {
	if gv == nil || goja.IsUndefined(gv) {
		return Undefined
	}
	if goja.IsNull(gv) {
		return Null
	}
	switch x := gv.(type) {
	case *goja.Object:
		return ctx.rt.newRef(TagObject, x)
	case *goja.Symbol:
		return ctx.rt.newRef(TagSymbol, x)
	}
	switch x := gv.Export().(type) {
	case bool:
		return NewBool(x)
	case int64:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return NewInt32(int32(x))
		}
		return NewFloat64(float64(x))
	case float64:
		return NewFloat64(x)
	case string:
		return ctx.rt.newRef(TagString, gv)
	case *big.Int:
		return ctx.rt.newRef(TagBigInt, gv)
	}
	return Undefined
}

// goValue returns the goja value for a borrowed engine value.
func (ctx *Context) goValue(v Value) goja.Value {
	switch v.tag {
	case TagInt:
		return ctx.vm.ToValue(v.Int32())
	case TagFloat64:
		return ctx.vm.ToValue(v.Float64())
	case TagBool:
		return ctx.vm.ToValue(v.Bool())
	case TagNull:
		return goja.Null()
	case TagUndefined, TagUninitialized, TagException, TagCatchOffset:
		return goja.Undefined()
	}
	if gv, ok := ctx.rt.lookup(v); ok {
		return gv
	}
	Logger().Error("use of stale value",
		zap.Stringer("tag", v.tag),
		zap.Uint64("handle", uint64(v.ref)))
	return goja.Undefined()
}

func (ctx *Context) invoke(fn goja.Callable, args ...goja.Value) Value {
	res, err := fn(goja.Undefined(), args...)
	if err != nil {
		return ctx.throwError(err)
	}
	return ctx.wrap(res)
}

// invokeBool returns 1 or 0 from a boolean helper, -1 on exception.
func (ctx *Context) invokeBool(fn goja.Callable, args ...goja.Value) int {
	res, err := fn(goja.Undefined(), args...)
	if err != nil {
		ctx.throwError(err)
		return -1
	}
	if res.ToBoolean() {
		return 1
	}
	return 0
}

// invokeStatus returns 1 on success and -1 on exception.
func (ctx *Context) invokeStatus(fn goja.Callable, args ...goja.Value) int {
	if _, err := fn(goja.Undefined(), args...); err != nil {
		ctx.throwError(err)
		return -1
	}
	return 1
}

// Eval runs src as a global script and returns its completion value.
func (ctx *Context) Eval(src, filename string) Value {
	res, err := ctx.vm.RunScript(filename, src)
	if err != nil {
		return ctx.throwError(err)
	}
	return ctx.wrap(res)
}

func (ctx *Context) GlobalObject() Value {
	return ctx.wrap(ctx.vm.GlobalObject())
}

func (ctx *Context) NewObject() Value {
	return ctx.wrap(ctx.vm.NewObject())
}

func (ctx *Context) NewArray() Value {
	return ctx.wrap(ctx.vm.NewArray())
}

// NewError creates an Error instance without a message.
func (ctx *Context) NewError() Value {
	return ctx.invoke(ctx.fn.newError, goja.Undefined())
}

func (ctx *Context) NewString(s string) Value {
	return ctx.rt.newRef(TagString, ctx.vm.ToValue(s))
}

func (ctx *Context) GetProperty(obj Value, prop Atom) Value {
	return ctx.invoke(ctx.fn.get, ctx.goValue(obj), ctx.atomValue(prop))
}

func (ctx *Context) GetPropertyStr(obj Value, name string) Value {
	return ctx.invoke(ctx.fn.get, ctx.goValue(obj), ctx.vm.ToValue(name))
}

func (ctx *Context) GetPropertyUint32(obj Value, idx uint32) Value {
	return ctx.invoke(ctx.fn.get, ctx.goValue(obj), ctx.vm.ToValue(idx))
}

// SetProperty assigns val, taking ownership of it. It returns 1 or -1 on
// exception.
func (ctx *Context) SetProperty(obj Value, prop Atom, val Value) int {
	gv := ctx.goValue(val)
	ctx.FreeValue(val)
	return ctx.invokeStatus(ctx.fn.set, ctx.goValue(obj), ctx.atomValue(prop), gv)
}

func (ctx *Context) SetPropertyStr(obj Value, name string, val Value) int {
	gv := ctx.goValue(val)
	ctx.FreeValue(val)
	return ctx.invokeStatus(ctx.fn.set, ctx.goValue(obj), ctx.vm.ToValue(name), gv)
}

func (ctx *Context) SetPropertyUint32(obj Value, idx uint32, val Value) int {
	gv := ctx.goValue(val)
	ctx.FreeValue(val)
	return ctx.invokeStatus(ctx.fn.set, ctx.goValue(obj), ctx.vm.ToValue(idx), gv)
}

// HasProperty returns 1 if prop is in obj or its prototype chain, 0 if not
// and -1 on exception.
func (ctx *Context) HasProperty(obj Value, prop Atom) int {
	return ctx.invokeBool(ctx.fn.has, ctx.goValue(obj), ctx.atomValue(prop))
}

// DefinePropertyValue defines an own data property, taking ownership of val.
func (ctx *Context) DefinePropertyValue(obj Value, prop Atom, val Value, flags int) int {
	gv := ctx.goValue(val)
	ctx.FreeValue(val)
	return ctx.invokeStatus(ctx.fn.define,
		ctx.goValue(obj),
		ctx.atomValue(prop),
		gv,
		ctx.vm.ToValue(flags&PropWritable != 0),
		ctx.vm.ToValue(flags&PropEnumerable != 0),
		ctx.vm.ToValue(flags&PropConfigurable != 0))
}

// GetOwnPropertyNames lists the own keys of obj in property order. It
// returns 0 with owned atoms, or -1 on exception.
func (ctx *Context) GetOwnPropertyNames(obj Value, flags int) ([]PropertyEnum, int) {
	gv := ctx.goValue(obj)
	if _, ok := gv.(*goja.Object); !ok {
		ctx.ThrowTypeError("not an object")
		return nil, -1
	}

	if inst := ctx.rt.instanceOf(gv); inst != nil && inst.def.Exotic != nil {
		m := inst.def.Exotic
		if m.GetOwnPropertyNames == nil {
			return nil, 0
		}
		tab, ret := m.GetOwnPropertyNames(ctx, obj)
		if ret < 0 {
			return nil, -1
		}
		out := tab[:0]
		for _, e := range tab {
			_, isString := ctx.AtomString(e.Atom)
			keep := (isString && flags&GPNStringMask != 0) || (!isString && flags&GPNSymbolMask != 0)
			if keep && flags&GPNEnumOnly != 0 && !e.IsEnumerable {
				keep = false
			}
			if keep {
				out = append(out, e)
			} else {
				ctx.FreeAtom(e.Atom)
			}
		}
		return out, 0
	}

	var tab []PropertyEnum
	collect := func(list goja.Callable) int {
		res, err := list(goja.Undefined(), gv)
		if err != nil {
			ctx.throwError(err)
			return -1
		}
		arr := res.ToObject(ctx.vm)
		n := arr.Get("length").ToInteger()
		for i := int64(0); i < n; i++ {
			key := arr.Get(strconv.FormatInt(i, 10))
			enumerable := true
			if flags&GPNEnumOnly != 0 {
				ok, err := ctx.fn.isEnumerable(goja.Undefined(), gv, key)
				if err != nil {
					ctx.throwError(err)
					return -1
				}
				enumerable = ok.ToBoolean()
				if !enumerable {
					continue
				}
			}
			var atom Atom
			if sym, ok := key.(*goja.Symbol); ok {
				atom = ctx.rt.newAtom(sym)
			} else {
				atom = ctx.rt.newAtom(key.String())
			}
			tab = append(tab, PropertyEnum{Atom: atom, IsEnumerable: enumerable})
		}
		return 0
	}

	if flags&GPNStringMask != 0 && collect(ctx.fn.ownNames) < 0 {
		ctx.FreePropertyEnum(tab)
		return nil, -1
	}
	if flags&GPNSymbolMask != 0 && collect(ctx.fn.ownSymbols) < 0 {
		ctx.FreePropertyEnum(tab)
		return nil, -1
	}
	return tab, 0
}

// FreePropertyEnum releases the atoms of tab.
func (ctx *Context) FreePropertyEnum(tab []PropertyEnum) {
	for _, e := range tab {
		ctx.FreeAtom(e.Atom)
	}
}

// GetPrototype returns the prototype of v, or Null at the end of the chain.
func (ctx *Context) GetPrototype(v Value) Value {
	return ctx.invoke(ctx.fn.getPrototype, ctx.goValue(v))
}

func (ctx *Context) IsArray(v Value) bool {
	obj, ok := ctx.goValue(v).(*goja.Object)
	return ok && obj.ClassName() == "Array"
}

func (ctx *Context) IsFunction(v Value) bool {
	if !v.IsObject() {
		return false
	}
	_, ok := goja.AssertFunction(ctx.goValue(v))
	return ok
}

// IsInstanceOf returns 1, 0 or -1 on exception.
func (ctx *Context) IsInstanceOf(v, ctor Value) int {
	return ctx.invokeBool(ctx.fn.instanceOf, ctx.goValue(v), ctx.goValue(ctor))
}

// Call invokes fn with borrowed this and args.
func (ctx *Context) Call(fn, this Value, args []Value) Value {
	callable, ok := goja.AssertFunction(ctx.goValue(fn))
	if !ok {
		return ctx.ThrowTypeError("not a function")
	}
	res, err := callable(ctx.goValue(this), ctx.goValues(args)...)
	if err != nil {
		return ctx.throwError(err)
	}
	return ctx.wrap(res)
}

// CallConstructor invokes ctor as `new ctor(...args)`.
func (ctx *Context) CallConstructor(ctor Value, args []Value) Value {
	obj, err := ctx.vm.New(ctx.goValue(ctor), ctx.goValues(args)...)
	if err != nil {
		return ctx.throwError(err)
	}
	return ctx.wrap(obj)
}

func (ctx *Context) goValues(args []Value) []goja.Value {
	out := make([]goja.Value, len(args))
	for i, a := range args {
		out[i] = ctx.goValue(a)
	}
	return out
}

// ToCString converts v with String(v). ok is false with a pending exception
// when the conversion throws.
func (ctx *Context) ToCString(v Value) (s string, ok bool) {
	gv := ctx.goValue(v)
	if v.IsString() {
		return gv.String(), true
	}
	res, err := ctx.fn.toString(goja.Undefined(), gv)
	if err != nil {
		ctx.throwError(err)
		return "", false
	}
	return res.String(), true
}

func (ctx *Context) ToBool(v Value) bool {
	return ctx.goValue(v).ToBoolean()
}

// StrictEquals compares with ===. Objects and symbols compare by identity.
func (ctx *Context) StrictEquals(a, b Value) bool {
	return ctx.goValue(a).StrictEquals(ctx.goValue(b))
}

// Throw installs v as the pending exception, taking ownership of it, and
// returns Exception.
func (ctx *Context) Throw(v Value) Value {
	gv := ctx.goValue(v)
	ctx.FreeValue(v)
	ctx.exception = gv
	return Exception
}

// ThrowTypeError installs a new TypeError as the pending exception.
func (ctx *Context) ThrowTypeError(format string, args ...any) Value {
	ctx.exception = ctx.vm.NewTypeError(fmt.Sprintf(format, args...))
	return Exception
}

func (ctx *Context) throwError(err error) Value {
	if ex, ok := err.(*goja.Exception); ok {
		ctx.exception = ex.Value()
	} else {
		ctx.exception = ctx.vm.NewGoError(err)
	}
	return Exception
}

// GetException returns and clears the pending exception, or Null if none.
func (ctx *Context) GetException() Value {
	if ctx.exception == nil {
		return Null
	}
	gv := ctx.exception
	ctx.exception = nil
	return ctx.wrap(gv)
}

func (ctx *Context) HasException() bool {
	return ctx.exception != nil
}

func uint32Key(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}
