package jsi

import (
	"testing"
)

type countingPointer struct {
	invalidated int
}

func (p *countingPointer) Invalidate() {
	p.invalidated++
}

// cloneRuntime implements only what Value.Clone and StrictEquals need.
type cloneRuntime struct {
	Runtime
	clones int
}

func (r *cloneRuntime) CloneSymbol(s Symbol) Symbol {
	r.clones++
	return MakeSymbol(&countingPointer{})
}

func (r *cloneRuntime) CloneString(s String) String {
	r.clones++
	return MakeString(&countingPointer{})
}

func (r *cloneRuntime) CloneObject(o Object) Object {
	r.clones++
	return MakeObject(&countingPointer{})
}

func (r *cloneRuntime) StrictEqualsString(a, b String) bool {
	return a.PointerValue() == b.PointerValue()
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUndefined, "undefined"},
		{KindNull, "null"},
		{KindBoolean, "boolean"},
		{KindNumber, "number"},
		{KindSymbol, "symbol"},
		{KindString, "string"},
		{KindObject, "object"},
		{Kind(42), "kind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestValue_Immediates(t *testing.T) {
	if v := Undefined(); !v.IsUndefined() || v.PointerValue() != nil {
		t.Error("Undefined() is not an immediate undefined")
	}
	if v := Null(); !v.IsNull() {
		t.Error("Null() is not null")
	}
	if v := BoolValue(true); !v.IsBool() || !v.Bool() {
		t.Error("BoolValue(true) lost its payload")
	}
	if v := NumberValue(2.5); !v.IsNumber() || v.Number() != 2.5 {
		t.Error("NumberValue(2.5) lost its payload")
	}

	// Releasing immediates is a no-op.
	NumberValue(1).Release()
	Undefined().Release()
}

func TestValue_PointerOwnership(t *testing.T) {
	p := &countingPointer{}
	v := StringValue(MakeString(p))

	if !v.IsString() {
		t.Fatalf("Kind() = %v, want string", v.Kind())
	}
	if v.AsString().PointerValue() != p {
		t.Fatal("AsString must share the payload")
	}
	if v.AsObject().IsValid() {
		t.Fatal("AsObject on a string must be invalid")
	}

	v.Release()
	if p.invalidated != 1 {
		t.Fatalf("Invalidate called %d times, want 1", p.invalidated)
	}
}

func TestValue_Clone(t *testing.T) {
	rt := &cloneRuntime{}

	orig := &countingPointer{}
	v := ObjectValue(MakeObject(orig))
	c := v.Clone(rt)

	if rt.clones != 1 {
		t.Fatalf("clones = %d, want 1", rt.clones)
	}
	if c.PointerValue() == orig {
		t.Fatal("clone must own a separate payload")
	}
	if !c.IsObject() {
		t.Fatalf("clone kind = %v", c.Kind())
	}

	c.Release()
	if orig.invalidated != 0 {
		t.Fatal("releasing the clone released the original")
	}
	v.Release()
	if orig.invalidated != 1 {
		t.Fatal("original not released")
	}

	n := NumberValue(3)
	if got := n.Clone(rt); got.Number() != 3 || rt.clones != 1 {
		t.Fatal("cloning an immediate must not touch the runtime")
	}
}

func TestStrictEquals(t *testing.T) {
	rt := &cloneRuntime{}
	shared := &countingPointer{}

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"undefined", Undefined(), Undefined(), true},
		{"null", Null(), Null(), true},
		{"undefined vs null", Undefined(), Null(), false},
		{"bool", BoolValue(true), BoolValue(true), true},
		{"bool differs", BoolValue(true), BoolValue(false), false},
		{"number", NumberValue(1), NumberValue(1), true},
		{"number vs bool", NumberValue(1), BoolValue(true), false},
		{"same string", StringValue(MakeString(shared)), StringValue(MakeString(shared)), true},
		{"different strings", StringValue(MakeString(shared)), StringValue(MakeString(&countingPointer{})), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrictEquals(rt, tt.a, tt.b); got != tt.want {
				t.Errorf("StrictEquals = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSError(t *testing.T) {
	err := &JSError{Message: "Error: boom"}
	if err.Error() != "Error: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	err.Stack = "at <eval>:1:1"
	if err.Error() != "Error: boom\n\nat <eval>:1:1" {
		t.Errorf("Error() with stack = %q", err.Error())
	}
}

func TestBaseHostObject(t *testing.T) {
	var ho BaseHostObject
	v, err := ho.Get(nil, PropNameID{})
	if err != nil || !v.IsUndefined() {
		t.Fatalf("Get = %v, %v", v.Kind(), err)
	}
	names, err := ho.GetPropertyNames(nil)
	if err != nil || len(names) != 0 {
		t.Fatalf("GetPropertyNames = %v, %v", names, err)
	}
}
