package engine

import (
	"runtime"
	"sync"
	"weak"

	"github.com/dop251/goja"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/resource"
)

const (
	typeValue uint32 = iota + 1
	typeAtom
)

// Config holds configuration for runtime creation
type Config struct {
	// MaxCallStackSize limits the call depth of every context.
	// 0 keeps the goja default.
	MaxCallStackSize int
}

// Runtime owns the value and atom tables, the registered classes, the job
// queue and the finalizer queue shared by its contexts.
// It is NOT safe for concurrent use; only the finalizer queue may be fed
// from other goroutines.
type Runtime struct {
	values    *resource.Table
	objects   map[*goja.Object]resource.Handle
	atoms     *resource.Table
	atomIndex map[any]Atom

	classes   map[ClassID]*ClassDef
	instances map[weak.Pointer[goja.Object]]*classInstance

	contexts      []*Context
	nextContextID uint64
	jobs          []job

	finalizeMu    sync.Mutex
	finalizeQueue []*classInstance

	maxCallStackSize int
	opaque           any
	freed            bool
}

// NewRuntime creates a runtime with default configuration
func NewRuntime() *Runtime {
	return NewRuntimeWithConfig(nil)
}

// NewRuntimeWithConfig creates a runtime with custom configuration
func NewRuntimeWithConfig(cfg *Config) *Runtime {
	rt := &Runtime{
		values:    resource.NewTable(),
		objects:   make(map[*goja.Object]resource.Handle),
		atoms:     resource.NewTable(),
		atomIndex: make(map[any]Atom),
		classes:   make(map[ClassID]*ClassDef),
		instances: make(map[weak.Pointer[goja.Object]]*classInstance),
	}
	if cfg != nil {
		rt.maxCallStackSize = cfg.MaxCallStackSize
	}
	rt.values.Subscribe(dropLogger{msg: "value dropped"})
	rt.atoms.Subscribe(dropLogger{msg: "atom dropped"})
	rt.initAtoms()
	return rt
}

// SetMaxCallStackSize limits the call depth of current and future contexts.
func (rt *Runtime) SetMaxCallStackSize(n int) {
	rt.maxCallStackSize = n
	for _, ctx := range rt.contexts {
		ctx.vm.SetMaxCallStackSize(n)
	}
}

// SetRuntimeOpaque attaches an embedder value shared by all contexts.
func (rt *Runtime) SetRuntimeOpaque(v any) {
	rt.opaque = v
}

func (rt *Runtime) RuntimeOpaque() any {
	return rt.opaque
}

// newRef stores gv in the value table. Objects are interned so every live
// reference to one object shares a slot and a reference count.
func (rt *Runtime) newRef(tag Tag, gv goja.Value) Value {
	if obj, ok := gv.(*goja.Object); ok {
		if h, ok := rt.objects[obj]; ok {
			if err := rt.values.Retain(h); err == nil {
				return refValue(TagObject, h)
			}
			delete(rt.objects, obj)
		}
		h := rt.values.Insert(typeValue, gv)
		if h == 0 {
			return Undefined
		}
		rt.objects[obj] = h
		return refValue(TagObject, h)
	}
	h := rt.values.Insert(typeValue, gv)
	if h == 0 {
		return Undefined
	}
	return refValue(tag, h)
}

func (rt *Runtime) lookup(v Value) (goja.Value, bool) {
	raw, ok := rt.values.Get(v.ref)
	if !ok {
		return nil, false
	}
	gv, ok := raw.(goja.Value)
	return gv, ok
}

// DupValue adds a reference to v and returns it.
func (rt *Runtime) DupValue(v Value) Value {
	if !v.tag.HasRefCount() {
		return v
	}
	if err := rt.values.Retain(v.ref); err != nil {
		Logger().Error("dup of stale value",
			zap.Stringer("tag", v.tag),
			zap.Uint64("handle", uint64(v.ref)),
			zap.Error(err))
	}
	return v
}

// FreeValue drops a reference to v. Freeing a dead value is logged and
// otherwise ignored; it never touches a slot reused by another value.
func (rt *Runtime) FreeValue(v Value) {
	if !v.tag.HasRefCount() {
		return
	}
	raw, _ := rt.values.Get(v.ref)
	freed, err := rt.values.Release(v.ref)
	if err != nil {
		Logger().Error("free of stale value",
			zap.Stringer("tag", v.tag),
			zap.Uint64("handle", uint64(v.ref)),
			zap.Error(err))
		return
	}
	if !freed {
		return
	}
	if obj, ok := raw.(*goja.Object); ok && rt.objects[obj] == v.ref {
		delete(rt.objects, obj)
	}
}

// RefCount returns the number of live references to v, or 0 for immediate
// and dead values.
func (rt *Runtime) RefCount(v Value) int {
	if !v.tag.HasRefCount() {
		return 0
	}
	n, _ := rt.values.RefCount(v.ref)
	return int(n)
}

// LiveValues returns the number of reference-counted values still alive.
func (rt *Runtime) LiveValues() int {
	return rt.values.Len()
}

// RunGC runs the Go collector and then the finalizers of every class
// instance it reclaimed. Finalizers run on the calling goroutine.
func (rt *Runtime) RunGC() {
	runtime.GC()
	rt.runFinalizers()
}

// Free releases all contexts and reports values and atoms that are still
// referenced.
func (rt *Runtime) Free() error {
	if rt.freed {
		return nil
	}
	for len(rt.contexts) > 0 {
		rt.contexts[len(rt.contexts)-1].Free()
	}
	rt.freed = true

	var err error
	if n := rt.values.Len(); n > 0 {
		Logger().Warn("values leaked at runtime teardown", zap.Int("count", n))
		err = multierr.Append(err, errors.Leak(errors.PhaseEngine, "values", n))
	}
	if n := rt.atoms.Len() - len(predefinedAtoms); n > 0 {
		Logger().Warn("atoms leaked at runtime teardown", zap.Int("count", n))
		err = multierr.Append(err, errors.Leak(errors.PhaseEngine, "atoms", n))
	}

	rt.objects = nil
	rt.atomIndex = nil
	err = multierr.Append(err, rt.values.Close())
	err = multierr.Append(err, rt.atoms.Close())
	return err
}
