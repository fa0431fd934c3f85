package engine

import (
	"runtime"
	"sync/atomic"
	"weak"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/resource"
)

// ClassID identifies a class across all runtimes of the process.
type ClassID uint32

var lastClassID atomic.Uint32

// NewClassID allocates a process-wide class id.
func NewClassID() ClassID {
	return ClassID(lastClassID.Add(1))
}

// CallFlagConstructor is passed to ClassDef.Call for `new` invocations.
const CallFlagConstructor = 1 << 0

// ClassDef describes the hooks of a class. Hooks receive borrowed values and
// return owned values; returning Exception requires a pending exception.
type ClassDef struct {
	Name string

	// Finalizer runs once when an instance becomes unreachable or its context
	// is freed.
	Finalizer func(rt *Runtime, opaque resource.Handle)

	// Call makes instances callable.
	Call func(ctx *Context, fn, this Value, args []Value, flags int) Value

	// MaxArgs bounds the argument count Call receives. Zero means no bound.
	MaxArgs int

	// TooManyArgs produces the result of a call over MaxArgs. Arguments are
	// not converted and Call does not run. Nil throws an argument count error.
	TooManyArgs func(ctx *Context, argc int) Value

	// Exotic intercepts property access on instances.
	Exotic *ExoticMethods
}

// ExoticMethods intercept property access on class instances. Only string
// keys reach the hooks.
type ExoticMethods struct {
	// GetProperty returns an owned value. The result is final: the
	// prototype chain is not consulted for string keys.
	GetProperty func(ctx *Context, obj Value, atom Atom, receiver Value) Value

	// SetProperty returns 1 when handled, 0 when rejected and -1 on exception.
	SetProperty func(ctx *Context, obj Value, atom Atom, value, receiver Value, flags int) int

	// HasProperty returns 1, 0 or -1 on exception. When nil the names from
	// GetOwnPropertyNames are searched.
	HasProperty func(ctx *Context, obj Value, atom Atom) int

	// GetOwnPropertyNames returns owned atoms and 0, or -1 on exception.
	GetOwnPropertyNames func(ctx *Context, obj Value) ([]PropertyEnum, int)
}

// PropertyEnum is one own property key. Atom is owned by the holder of the
// slice; release with FreePropertyEnum.
type PropertyEnum struct {
	Atom         Atom
	IsEnumerable bool
}

// NewClass registers def under id for this runtime.
func (rt *Runtime) NewClass(id ClassID, def *ClassDef) error {
	if id == 0 || def == nil {
		return errors.Registration(errors.PhaseEngine, "<nil>", errors.InvalidInput(errors.PhaseEngine, "class id and definition are required"))
	}
	if _, ok := rt.classes[id]; ok {
		return errors.Registration(errors.PhaseEngine, def.Name, errors.InvalidInput(errors.PhaseEngine, "class id already registered"))
	}
	rt.classes[id] = def
	return nil
}

// IsRegisteredClass reports whether id has been registered with this runtime.
func (rt *Runtime) IsRegisteredClass(id ClassID) bool {
	_, ok := rt.classes[id]
	return ok
}

type classInstance struct {
	def       *ClassDef
	key       weak.Pointer[goja.Object]
	opaque    resource.Handle
	id        ClassID
	ctxID     uint64
	finalized bool
}

func (rt *Runtime) track(obj *goja.Object, inst *classInstance) {
	inst.key = weak.Make(obj)
	rt.instances[inst.key] = inst
	runtime.AddCleanup(obj, rt.enqueueFinalizer, inst)
}

func (rt *Runtime) instanceOf(gv goja.Value) *classInstance {
	obj, ok := gv.(*goja.Object)
	if !ok {
		return nil
	}
	return rt.instances[weak.Make(obj)]
}

// enqueueFinalizer runs on the cleanup goroutine.
func (rt *Runtime) enqueueFinalizer(inst *classInstance) {
	rt.finalizeMu.Lock()
	rt.finalizeQueue = append(rt.finalizeQueue, inst)
	rt.finalizeMu.Unlock()
}

func (rt *Runtime) runFinalizers() {
	rt.finalizeMu.Lock()
	queue := rt.finalizeQueue
	rt.finalizeQueue = nil
	rt.finalizeMu.Unlock()

	for _, inst := range queue {
		rt.finalize(inst)
	}
}

func (rt *Runtime) finalize(inst *classInstance) {
	if inst.finalized {
		return
	}
	inst.finalized = true
	delete(rt.instances, inst.key)

	if inst.def.Finalizer == nil {
		return
	}
	Logger().Debug("running finalizer", zap.String("class", inst.def.Name), zap.Uint64("opaque", uint64(inst.opaque)))
	inst.def.Finalizer(rt, inst.opaque)
}

// NewObjectClass creates an instance of a registered class with the default
// prototype.
func (ctx *Context) NewObjectClass(id ClassID) Value {
	return ctx.NewObjectProtoClass(Undefined, id)
}

// NewObjectProtoClass creates an instance of a registered class. A Null proto
// creates an instance without prototype; Undefined keeps the default.
func (ctx *Context) NewObjectProtoClass(proto Value, id ClassID) Value {
	def, ok := ctx.rt.classes[id]
	if !ok {
		return ctx.ThrowTypeError("class %d is not registered", id)
	}
	inst := &classInstance{def: def, id: id, ctxID: ctx.id}

	var obj *goja.Object
	switch {
	case def.Exotic != nil:
		obj = ctx.vm.NewDynamicObject(&exoticObject{ctx: ctx, inst: inst})
	case def.Call != nil:
		obj = ctx.vm.ToValue(ctx.callTrampoline(inst)).(*goja.Object)
	default:
		obj = ctx.vm.NewObject()
	}

	switch {
	case proto.IsNull():
		_ = obj.SetPrototype(nil)
	case proto.IsObject():
		if p, ok := ctx.goValue(proto).(*goja.Object); ok {
			_ = obj.SetPrototype(p)
		}
	}

	ctx.rt.track(obj, inst)
	return ctx.wrap(obj)
}

// SetOpaque stores opaque in a class instance. It reports false for values
// that are not class instances.
func (ctx *Context) SetOpaque(obj Value, opaque resource.Handle) bool {
	inst := ctx.rt.instanceOf(ctx.goValue(obj))
	if inst == nil {
		return false
	}
	inst.opaque = opaque
	return true
}

// GetOpaque returns the opaque slot of obj if it is an instance of class id,
// or 0.
func (ctx *Context) GetOpaque(obj Value, id ClassID) resource.Handle {
	inst := ctx.rt.instanceOf(ctx.goValue(obj))
	if inst == nil || inst.id != id {
		return 0
	}
	return inst.opaque
}

// GetClassID returns the class of obj, or 0 for ordinary values.
func (ctx *Context) GetClassID(obj Value) ClassID {
	inst := ctx.rt.instanceOf(ctx.goValue(obj))
	if inst == nil {
		return 0
	}
	return inst.id
}
