package jsi

import (
	"fmt"
	"strconv"
)

// Buffer holds script source.
type Buffer interface {
	Data() []byte
}

// StringBuffer is a Buffer over a Go string.
type StringBuffer string

func (b StringBuffer) Data() []byte {
	return []byte(b)
}

// PreparedJavaScript is a precompiled script produced by PrepareJavaScript.
type PreparedJavaScript interface{}

// HostObject lets native code implement property access for a JS object.
// Arguments are borrowed for the duration of the call. Returned values and
// names are owned by the caller, which releases them.
type HostObject interface {
	Get(rt Runtime, name PropNameID) (Value, error)
	Set(rt Runtime, name PropNameID, value Value) error
	GetPropertyNames(rt Runtime) ([]PropNameID, error)
}

// Disposer is implemented by host objects that need to know when the engine
// has dropped them.
type Disposer interface {
	Dispose()
}

// HostFunction implements a JS function in native code. this and args are
// borrowed; Clone them to keep them past the call. The returned value is owned
// by the caller.
type HostFunction func(rt Runtime, this Value, args []Value) (Value, error)

// BaseHostObject provides default HostObject behavior: every property reads
// as undefined, assignments fail and there are no property names.
type BaseHostObject struct{}

func (BaseHostObject) Get(rt Runtime, name PropNameID) (Value, error) {
	return Undefined(), nil
}

func (BaseHostObject) Set(rt Runtime, name PropNameID, value Value) error {
	prop, err := rt.PropNameIDUTF8(name)
	if err != nil {
		return err
	}
	return &JSError{Message: fmt.Sprintf("TypeError: Cannot assign to property '%s' on HostObject with default setter", prop)}
}

func (BaseHostObject) GetPropertyNames(rt Runtime) ([]PropNameID, error) {
	return nil, nil
}

// JSError is a JavaScript exception surfaced to native code, or a native
// error that should be thrown into JavaScript with this message and stack.
type JSError struct {
	Message string
	Stack   string
}

func (e *JSError) Error() string {
	if e.Stack == "" {
		return e.Message
	}
	return e.Message + "\n\n" + e.Stack
}

// Runtime is the engine-neutral embedding interface.
//
// Methods returning handles transfer one reference to the caller. Handles
// passed in are borrowed. A Runtime is not safe for concurrent use.
type Runtime interface {
	EvaluateJavaScript(buffer Buffer, sourceURL string) (Value, error)
	PrepareJavaScript(buffer Buffer, sourceURL string) (PreparedJavaScript, error)
	EvaluatePreparedJavaScript(js PreparedJavaScript) (Value, error)
	Global() Object
	Description() string
	IsInspectable() bool

	CloneSymbol(s Symbol) Symbol
	CloneString(s String) String
	CloneObject(o Object) Object
	ClonePropNameID(p PropNameID) PropNameID

	CreatePropNameIDFromASCII(s string) (PropNameID, error)
	CreatePropNameIDFromUTF8(b []byte) (PropNameID, error)
	CreatePropNameIDFromString(s String) (PropNameID, error)
	PropNameIDUTF8(p PropNameID) (string, error)
	ComparePropNameIDs(a, b PropNameID) bool

	SymbolToString(s Symbol) (string, error)

	CreateStringFromASCII(s string) (String, error)
	CreateStringFromUTF8(b []byte) (String, error)
	StringUTF8(s String) (string, error)

	CreateObject() (Object, error)
	CreateHostObject(ho HostObject) (Object, error)
	GetHostObject(o Object) (HostObject, error)
	GetHostFunction(f Function) (HostFunction, error)

	GetProperty(o Object, name PropNameID) (Value, error)
	GetPropertyByString(o Object, name String) (Value, error)
	HasProperty(o Object, name PropNameID) (bool, error)
	HasPropertyByString(o Object, name String) (bool, error)
	SetProperty(o Object, name PropNameID, value Value) error
	SetPropertyByString(o Object, name String, value Value) error

	IsArray(o Object) bool
	IsArrayBuffer(o Object) bool
	IsFunction(o Object) bool
	IsHostObject(o Object) bool
	IsHostFunction(f Function) bool
	GetPropertyNames(o Object) (Array, error)

	CreateWeakObject(o Object) (WeakObject, error)
	LockWeakObject(w WeakObject) (Value, error)

	CreateArray(length int) (Array, error)
	ArraySize(a Array) (int, error)
	ArrayBufferSize(b ArrayBuffer) (int, error)
	ArrayBufferData(b ArrayBuffer) ([]byte, error)
	GetValueAtIndex(a Array, i int) (Value, error)
	SetValueAtIndex(a Array, i int, value Value) error

	CreateFunctionFromHostFunction(name PropNameID, paramCount int, fn HostFunction) (Function, error)
	Call(f Function, this Value, args ...Value) (Value, error)
	CallAsConstructor(f Function, args ...Value) (Value, error)

	StrictEqualsSymbol(a, b Symbol) bool
	StrictEqualsString(a, b String) bool
	StrictEqualsObject(a, b Object) bool
	InstanceOf(o Object, f Function) (bool, error)
}

// GetPropertyString reads o[name].
func GetPropertyString(rt Runtime, o Object, name string) (Value, error) {
	prop, err := rt.CreatePropNameIDFromUTF8([]byte(name))
	if err != nil {
		return Undefined(), err
	}
	defer prop.Release()
	return rt.GetProperty(o, prop)
}

// SetPropertyString assigns o[name] = value. value stays owned by the caller.
func SetPropertyString(rt Runtime, o Object, name string, value Value) error {
	prop, err := rt.CreatePropNameIDFromUTF8([]byte(name))
	if err != nil {
		return err
	}
	defer prop.Release()
	return rt.SetProperty(o, prop, value)
}

// StrictEquals compares two values with ===.
func StrictEquals(rt Runtime, a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindSymbol:
		return rt.StrictEqualsSymbol(a.AsSymbol(), b.AsSymbol())
	case KindString:
		return rt.StrictEqualsString(a.AsString(), b.AsString())
	case KindObject:
		return rt.StrictEqualsObject(a.AsObject(), b.AsObject())
	}
	return false
}

// NewString creates a string value from UTF-8 text.
func NewString(rt Runtime, s string) (Value, error) {
	str, err := rt.CreateStringFromUTF8([]byte(s))
	if err != nil {
		return Undefined(), err
	}
	return StringValue(str), nil
}

// ToString converts v with the global String function.
func ToString(rt Runtime, v Value) (string, error) {
	switch v.kind {
	case KindString:
		return rt.StringUTF8(v.AsString())
	case KindUndefined:
		return "undefined", nil
	case KindNull:
		return "null", nil
	case KindBoolean:
		return strconv.FormatBool(v.b), nil
	}

	global := rt.Global()
	defer global.Release()
	ctor, err := GetPropertyString(rt, global, "String")
	if err != nil {
		return "", err
	}
	defer ctor.Release()
	fn, ok := ctor.AsObject().AsFunction(rt)
	if !ok {
		return "", &JSError{Message: "String is not a function"}
	}
	res, err := rt.Call(fn, Undefined(), v)
	if err != nil {
		return "", err
	}
	defer res.Release()
	return rt.StringUTF8(res.AsString())
}
