package runtime

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

// pickNative returns the native representation of v without taking a
// reference. The result is only valid while v is.
func (r *Runtime) pickNative(v jsi.Value) (engine.Value, error) {
	switch v.Kind() {
	case jsi.KindUndefined:
		return engine.Undefined, nil
	case jsi.KindNull:
		return engine.Null, nil
	case jsi.KindBoolean:
		return engine.NewBool(v.Bool()), nil
	case jsi.KindNumber:
		return engine.NewNumber(v.Number()), nil
	case jsi.KindSymbol, jsi.KindString, jsi.KindObject:
		return r.native(v.PointerValue())
	}
	return engine.Undefined, errors.New(errors.PhaseMarshal, errors.KindUnsupported).
		GoType("jsi.Value").
		JSType(v.Kind().String()).
		Detail("cannot convert value kind").
		Build()
}

func (r *Runtime) pickNatives(args []jsi.Value) ([]engine.Value, error) {
	out := make([]engine.Value, len(args))
	for i, a := range args {
		nv, err := r.pickNative(a)
		if err != nil {
			return nil, err
		}
		out[i] = nv
	}
	return out, nil
}

// dupNative returns an owned native representation of v.
func (r *Runtime) dupNative(v jsi.Value) (engine.Value, error) {
	nv, err := r.pickNative(v)
	if err != nil {
		return engine.Undefined, err
	}
	return r.ctx.DupValue(nv), nil
}

// takeValue consumes an owned native value. The exception sentinel is
// converted into the pending exception's error.
func (r *Runtime) takeValue(v engine.Value) (jsi.Value, error) {
	switch v.Tag() {
	case engine.TagException:
		return jsi.Undefined(), r.raiseFromNative(r.ctx)
	case engine.TagUndefined, engine.TagUninitialized:
		return jsi.Undefined(), nil
	case engine.TagInt, engine.TagFloat64:
		return jsi.NumberValue(v.Number()), nil
	case engine.TagBool:
		return jsi.BoolValue(v.Bool()), nil
	case engine.TagNull:
		return jsi.Null(), nil
	case engine.TagString:
		return jsi.StringValue(jsi.MakeString(take(r.ctx, v))), nil
	case engine.TagObject:
		return jsi.ObjectValue(jsi.MakeObject(take(r.ctx, v))), nil
	case engine.TagSymbol:
		return jsi.SymbolValue(jsi.MakeSymbol(take(r.ctx, v))), nil
	case engine.TagBigInt, engine.TagBigFloat, engine.TagBigDecimal:
		// No embedding counterpart; the value is dropped.
		r.log.Debug("numeric tower value converted to undefined", zap.Stringer("tag", v.Tag()))
		r.ctx.FreeValue(v)
		return jsi.Undefined(), nil
	}
	panic(fmt.Sprintf("quickjs-jsi: unexpected native tag %v", v.Tag()))
}

// takeObject consumes an owned native value that must be an object.
func (r *Runtime) takeObject(v engine.Value) (jsi.Object, error) {
	if v.IsException() {
		return jsi.Object{}, r.raiseFromNative(r.ctx)
	}
	if !v.IsObject() {
		r.ctx.FreeValue(v)
		return jsi.Object{}, errors.TypeMismatch(errors.PhaseMarshal, nil, "jsi.Object", v.Tag().String())
	}
	return jsi.MakeObject(take(r.ctx, v)), nil
}

// takeString consumes an owned native value that must be a string.
func (r *Runtime) takeString(v engine.Value) (jsi.String, error) {
	if v.IsException() {
		return jsi.String{}, r.raiseFromNative(r.ctx)
	}
	if !v.IsString() {
		r.ctx.FreeValue(v)
		return jsi.String{}, errors.TypeMismatch(errors.PhaseMarshal, nil, "jsi.String", v.Tag().String())
	}
	return jsi.MakeString(take(r.ctx, v)), nil
}

// cloneFromNative converts a borrowed native value into an owned
// embedding value.
func (r *Runtime) cloneFromNative(v engine.Value) (jsi.Value, error) {
	return r.takeValue(r.ctx.DupValue(v))
}
