package engine

import (
	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/resource"
)

// Atom is an interned property key. Atoms for equal strings (or the same
// symbol) compare equal while they are alive.
type Atom resource.Handle

// AtomNull is the invalid atom.
const AtomNull Atom = 0

// Predefined atoms. They are created first in every runtime, never freed, and
// DupAtom/FreeAtom are no-ops for them.
const (
	AtomLength Atom = iota + 1
	AtomName
	AtomMessage
	AtomStack
	AtomPrototype
	AtomConstructor
)

var predefinedAtoms = []string{
	"length",
	"name",
	"message",
	"stack",
	"prototype",
	"constructor",
}

func (rt *Runtime) initAtoms() {
	for i, name := range predefinedAtoms {
		h := rt.atoms.Insert(typeAtom, name)
		if Atom(h) != Atom(i+1) {
			panic("engine: predefined atom table out of order")
		}
		rt.atomIndex[name] = Atom(h)
	}
}

func (a Atom) isConst() bool {
	return a >= AtomLength && a <= AtomConstructor
}

// newAtom interns key, which is either a string or a *goja.Symbol.
func (rt *Runtime) newAtom(key any) Atom {
	if a, ok := rt.atomIndex[key]; ok {
		if !a.isConst() {
			if err := rt.atoms.Retain(resource.Handle(a)); err != nil {
				Logger().Error("retain of stale atom", zap.Uint64("atom", uint64(a)), zap.Error(err))
			}
		}
		return a
	}
	h := rt.atoms.Insert(typeAtom, key)
	if h == 0 {
		return AtomNull
	}
	a := Atom(h)
	rt.atomIndex[key] = a
	return a
}

// DupAtom adds a reference to a.
func (rt *Runtime) DupAtom(a Atom) Atom {
	if a == AtomNull || a.isConst() {
		return a
	}
	if err := rt.atoms.Retain(resource.Handle(a)); err != nil {
		Logger().Error("dup of stale atom", zap.Uint64("atom", uint64(a)), zap.Error(err))
	}
	return a
}

// FreeAtom drops a reference to a. Freeing a dead atom is logged and
// otherwise ignored.
func (rt *Runtime) FreeAtom(a Atom) {
	if a == AtomNull || a.isConst() {
		return
	}
	key, _ := rt.atoms.Get(resource.Handle(a))
	freed, err := rt.atoms.Release(resource.Handle(a))
	if err != nil {
		Logger().Error("free of stale atom", zap.Uint64("atom", uint64(a)), zap.Error(err))
		return
	}
	if freed && rt.atomIndex[key] == a {
		delete(rt.atomIndex, key)
	}
}

func (rt *Runtime) atomKey(a Atom) (any, bool) {
	return rt.atoms.Get(resource.Handle(a))
}

// NewAtom interns the string s.
func (ctx *Context) NewAtom(s string) Atom {
	return ctx.rt.newAtom(s)
}

// NewAtomUint32 interns the canonical string form of an array index.
func (ctx *Context) NewAtomUint32(n uint32) Atom {
	return ctx.rt.newAtom(uint32Key(n))
}

func (ctx *Context) DupAtom(a Atom) Atom {
	return ctx.rt.DupAtom(a)
}

func (ctx *Context) FreeAtom(a Atom) {
	ctx.rt.FreeAtom(a)
}

// ValueToAtom converts v to a property key the way ToPropertyKey does.
// It returns AtomNull with a pending exception when the conversion throws.
func (ctx *Context) ValueToAtom(v Value) Atom {
	if v.IsSymbol() {
		if sym, ok := ctx.goValue(v).(*goja.Symbol); ok {
			return ctx.rt.newAtom(sym)
		}
		return AtomNull
	}
	s, ok := ctx.ToCString(v)
	if !ok {
		return AtomNull
	}
	return ctx.rt.newAtom(s)
}

// AtomToValue returns the key as a string or symbol value.
func (ctx *Context) AtomToValue(a Atom) Value {
	key, ok := ctx.rt.atomKey(a)
	if !ok {
		return ctx.ThrowTypeError("invalid atom")
	}
	switch k := key.(type) {
	case *goja.Symbol:
		return ctx.rt.newRef(TagSymbol, k)
	case string:
		return ctx.NewString(k)
	}
	return Undefined
}

// AtomToString returns the key as a string value. Symbol keys yield their
// descriptive string.
func (ctx *Context) AtomToString(a Atom) Value {
	key, ok := ctx.rt.atomKey(a)
	if !ok {
		return ctx.ThrowTypeError("invalid atom")
	}
	switch k := key.(type) {
	case *goja.Symbol:
		return ctx.invoke(ctx.fn.toString, k)
	case string:
		return ctx.NewString(k)
	}
	return Undefined
}

// AtomString returns the Go string of a string atom. ok is false for symbol
// atoms and dead atoms.
func (ctx *Context) AtomString(a Atom) (s string, ok bool) {
	key, live := ctx.rt.atomKey(a)
	if !live {
		return "", false
	}
	s, ok = key.(string)
	return s, ok
}

// atomValue returns the goja property key for a.
func (ctx *Context) atomValue(a Atom) goja.Value {
	key, ok := ctx.rt.atomKey(a)
	if !ok {
		return goja.Undefined()
	}
	switch k := key.(type) {
	case *goja.Symbol:
		return k
	case string:
		return ctx.vm.ToValue(k)
	}
	return goja.Undefined()
}
