package engine

import (
	"math"
	"strconv"

	"github.com/wxiaoguang/quickjs-jsi/resource"
)

// Tag identifies the representation of a Value. Negative tags carry a
// reference-counted payload.
type Tag int32

const (
	TagBigDecimal       Tag = -11
	TagBigInt           Tag = -10
	TagBigFloat         Tag = -9
	TagSymbol           Tag = -8
	TagString           Tag = -7
	TagModule           Tag = -3
	TagFunctionBytecode Tag = -2
	TagObject           Tag = -1

	TagInt           Tag = 0
	TagBool          Tag = 1
	TagNull          Tag = 2
	TagUndefined     Tag = 3
	TagUninitialized Tag = 4
	TagCatchOffset   Tag = 5
	TagException     Tag = 6
	TagFloat64       Tag = 7
)

// HasRefCount reports whether values with this tag own a table slot.
func (t Tag) HasRefCount() bool {
	return t < 0
}

func (t Tag) String() string {
	switch t {
	case TagBigDecimal:
		return "bigdecimal"
	case TagBigInt:
		return "bigint"
	case TagBigFloat:
		return "bigfloat"
	case TagSymbol:
		return "symbol"
	case TagString:
		return "string"
	case TagModule:
		return "module"
	case TagFunctionBytecode:
		return "function_bytecode"
	case TagObject:
		return "object"
	case TagInt:
		return "int"
	case TagBool:
		return "bool"
	case TagNull:
		return "null"
	case TagUndefined:
		return "undefined"
	case TagUninitialized:
		return "uninitialized"
	case TagCatchOffset:
		return "catch_offset"
	case TagException:
		return "exception"
	case TagFloat64:
		return "float64"
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// Value is a tagged engine value. Immediate values carry their payload in
// place; reference-counted values carry a handle into the runtime's value
// table and must be released with FreeValue exactly once per owner.
type Value struct {
	tag Tag
	u   uint64
	ref resource.Handle
}

var (
	Undefined     = Value{tag: TagUndefined}
	Null          = Value{tag: TagNull}
	Uninitialized = Value{tag: TagUninitialized}
	Exception     = Value{tag: TagException}
	True          = Value{tag: TagBool, u: 1}
	False         = Value{tag: TagBool}
)

// NewInt32 returns an int-tagged value.
func NewInt32(i int32) Value {
	return Value{tag: TagInt, u: uint64(uint32(i))}
}

// NewFloat64 returns a float64-tagged value.
func NewFloat64(f float64) Value {
	return Value{tag: TagFloat64, u: math.Float64bits(f)}
}

// NewBool returns a bool-tagged value.
func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewCatchOffset returns a catch-offset marker. Such values only appear on
// the interpreter stack and never reach property or call results.
func NewCatchOffset(off int32) Value {
	return Value{tag: TagCatchOffset, u: uint64(uint32(off))}
}

// NewNumber picks the int tag for integral values in int32 range and the
// float64 tag for everything else, negative zero included.
func NewNumber(f float64) Value {
	if f >= math.MinInt32 && f <= math.MaxInt32 && f == math.Trunc(f) && !(f == 0 && math.Signbit(f)) {
		return NewInt32(int32(f))
	}
	return NewFloat64(f)
}

func refValue(tag Tag, h resource.Handle) Value {
	return Value{tag: tag, ref: h}
}

func (v Value) Tag() Tag {
	return v.tag
}

func (v Value) Int32() int32 {
	return int32(uint32(v.u))
}

func (v Value) Float64() float64 {
	return math.Float64frombits(v.u)
}

func (v Value) Bool() bool {
	return v.u != 0
}

// Handle returns the table handle of a reference-counted value, or 0.
func (v Value) Handle() resource.Handle {
	return v.ref
}

func (v Value) IsException() bool {
	return v.tag == TagException
}

func (v Value) IsUndefined() bool {
	return v.tag == TagUndefined
}

func (v Value) IsNull() bool {
	return v.tag == TagNull
}

func (v Value) IsObject() bool {
	return v.tag == TagObject
}

func (v Value) IsString() bool {
	return v.tag == TagString
}

func (v Value) IsSymbol() bool {
	return v.tag == TagSymbol
}

// IsNumber reports whether v has the int or float64 tag.
func (v Value) IsNumber() bool {
	return v.tag == TagInt || v.tag == TagFloat64
}

// Number returns the numeric payload of an int or float64 value.
func (v Value) Number() float64 {
	if v.tag == TagInt {
		return float64(v.Int32())
	}
	return v.Float64()
}
