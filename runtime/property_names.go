package runtime

import (
	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

// GetPropertyNames returns the enumerable string keys of o and of its
// prototypes up to, but not including, Object.prototype. Keys appear level
// by level starting at o; shadowed keys are not removed.
func (r *Runtime) GetPropertyNames(o jsi.Object) (jsi.Array, error) {
	obj, err := r.native(o.PointerValue())
	if err != nil {
		return jsi.Array{}, err
	}
	ctx := r.ctx

	arr := ctx.NewArray()
	if arr.IsException() {
		return jsi.Array{}, r.raiseFromNative(ctx)
	}
	fail := func() (jsi.Array, error) {
		ctx.FreeValue(arr)
		return jsi.Array{}, r.raiseFromNative(ctx)
	}

	var idx uint32
	cur := ctx.DupValue(obj)
	for !ctx.StrictEquals(cur, r.objectProto) {
		tab, ret := ctx.GetOwnPropertyNames(cur, engine.GPNStringMask|engine.GPNEnumOnly)
		if ret < 0 {
			ctx.FreeValue(cur)
			return fail()
		}
		for _, e := range tab {
			key := ctx.AtomToString(e.Atom)
			if key.IsException() || ctx.SetPropertyUint32(arr, idx, key) < 0 {
				ctx.FreePropertyEnum(tab)
				ctx.FreeValue(cur)
				return fail()
			}
			idx++
		}
		ctx.FreePropertyEnum(tab)

		next := ctx.GetPrototype(cur)
		ctx.FreeValue(cur)
		if next.IsException() {
			return fail()
		}
		if !next.IsObject() {
			ctx.FreeValue(next)
			return jsi.MakeArray(take(ctx, arr)), nil
		}
		cur = next
	}
	ctx.FreeValue(cur)
	return jsi.MakeArray(take(ctx, arr)), nil
}
