package jsi

import (
	"strconv"
)

// Kind is the type of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindSymbol
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// PointerValue is the runtime-specific payload behind a pointer handle.
// Invalidate releases the underlying engine reference; it is idempotent.
type PointerValue interface {
	Invalidate()
}

// Pointer is the base of all handle types. The zero Pointer is invalid.
// A Pointer owns one engine reference; Release gives it up.
type Pointer struct {
	pv PointerValue
}

// Release gives up the engine reference. Copies of the handle share it.
func (p Pointer) Release() {
	if p.pv != nil {
		p.pv.Invalidate()
	}
}

// IsValid reports whether p carries a payload.
func (p Pointer) IsValid() bool {
	return p.pv != nil
}

// PointerValue returns the runtime payload. Only runtime implementations
// should need it.
func (p Pointer) PointerValue() PointerValue {
	return p.pv
}

type Symbol struct{ Pointer }

type String struct{ Pointer }

type PropNameID struct{ Pointer }

type Object struct{ Pointer }

// Array is an Object known to be an array.
type Array struct{ Object }

// Function is an Object known to be callable.
type Function struct{ Object }

type ArrayBuffer struct{ Object }

type WeakObject struct{ Pointer }

func MakeSymbol(pv PointerValue) Symbol           { return Symbol{Pointer{pv}} }
func MakeString(pv PointerValue) String           { return String{Pointer{pv}} }
func MakePropNameID(pv PointerValue) PropNameID   { return PropNameID{Pointer{pv}} }
func MakeObject(pv PointerValue) Object           { return Object{Pointer{pv}} }
func MakeArray(pv PointerValue) Array             { return Array{MakeObject(pv)} }
func MakeFunction(pv PointerValue) Function       { return Function{MakeObject(pv)} }
func MakeArrayBuffer(pv PointerValue) ArrayBuffer { return ArrayBuffer{MakeObject(pv)} }
func MakeWeakObject(pv PointerValue) WeakObject   { return WeakObject{Pointer{pv}} }

// AsFunction views o as a Function. The result shares o's reference.
func (o Object) AsFunction(rt Runtime) (Function, bool) {
	if !rt.IsFunction(o) {
		return Function{}, false
	}
	return Function{o}, true
}

// AsArray views o as an Array. The result shares o's reference.
func (o Object) AsArray(rt Runtime) (Array, bool) {
	if !rt.IsArray(o) {
		return Array{}, false
	}
	return Array{o}, true
}

// Value is a JavaScript value. Values of kind symbol, string and object own
// one engine reference and must be released exactly once.
type Value struct {
	ptr  PointerValue
	n    float64
	kind Kind
	b    bool
}

func Undefined() Value {
	return Value{kind: KindUndefined}
}

func Null() Value {
	return Value{kind: KindNull}
}

func BoolValue(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

func NumberValue(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

// SymbolValue wraps s; the value takes over s's reference.
func SymbolValue(s Symbol) Value {
	return Value{kind: KindSymbol, ptr: s.pv}
}

// StringValue wraps s; the value takes over s's reference.
func StringValue(s String) Value {
	return Value{kind: KindString, ptr: s.pv}
}

// ObjectValue wraps o; the value takes over o's reference.
func ObjectValue(o Object) Value {
	return Value{kind: KindObject, ptr: o.pv}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsBool() bool      { return v.kind == KindBoolean }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsSymbol() bool    { return v.kind == KindSymbol }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsObject() bool    { return v.kind == KindObject }

// Bool returns the payload of a boolean value.
func (v Value) Bool() bool {
	return v.b
}

// Number returns the payload of a number value.
func (v Value) Number() float64 {
	return v.n
}

// AsSymbol returns the symbol handle sharing v's reference.
func (v Value) AsSymbol() Symbol {
	if v.kind != KindSymbol {
		return Symbol{}
	}
	return Symbol{Pointer{v.ptr}}
}

// AsString returns the string handle sharing v's reference.
func (v Value) AsString() String {
	if v.kind != KindString {
		return String{}
	}
	return String{Pointer{v.ptr}}
}

// AsObject returns the object handle sharing v's reference.
func (v Value) AsObject() Object {
	if v.kind != KindObject {
		return Object{}
	}
	return Object{Pointer{v.ptr}}
}

// PointerValue returns the runtime payload of a pointer kind, or nil.
func (v Value) PointerValue() PointerValue {
	return v.ptr
}

// Release gives up the engine reference of pointer kinds.
func (v Value) Release() {
	if v.ptr != nil {
		v.ptr.Invalidate()
	}
}

// Clone returns an independently owned copy of v.
func (v Value) Clone(rt Runtime) Value {
	switch v.kind {
	case KindSymbol:
		return SymbolValue(rt.CloneSymbol(v.AsSymbol()))
	case KindString:
		return StringValue(rt.CloneString(v.AsString()))
	case KindObject:
		return ObjectValue(rt.CloneObject(v.AsObject()))
	}
	return v
}
