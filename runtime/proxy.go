package runtime

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/resource"
)

const (
	typeHostObject uint32 = iota + 1
	typeHostFunction
)

var (
	hostObjectClassOnce   sync.Once
	hostObjectClassID     engine.ClassID
	hostFunctionClassOnce sync.Once
	hostFunctionClassID   engine.ClassID
)

// hostObjectClass returns the process-wide class id of host objects.
func hostObjectClass() engine.ClassID {
	hostObjectClassOnce.Do(func() {
		hostObjectClassID = engine.NewClassID()
	})
	return hostObjectClassID
}

// hostFunctionClass returns the process-wide class id of host functions.
func hostFunctionClass() engine.ClassID {
	hostFunctionClassOnce.Do(func() {
		hostFunctionClassID = engine.NewClassID()
	})
	return hostFunctionClassID
}

// proxies holds the host objects and host functions attached to the
// instances of one engine runtime. Instances store only the side-table
// handle in their opaque slot.
type proxies struct {
	objects   *resource.Typed[*hostObjectProxy]
	functions *resource.Typed[*hostFunctionProxy]
}

// proxiesOf returns the side tables of rt, creating them on first use.
func proxiesOf(rt *engine.Runtime) *proxies {
	if p, ok := rt.RuntimeOpaque().(*proxies); ok {
		return p
	}
	p := &proxies{
		objects:   resource.NewTyped[*hostObjectProxy](typeHostObject),
		functions: resource.NewTyped[*hostFunctionProxy](typeHostFunction),
	}
	rt.SetRuntimeOpaque(p)
	return p
}

func (p *proxies) close() error {
	return multierr.Combine(p.objects.Close(), p.functions.Close())
}

// adapterOf returns the Runtime that owns ctx, or nil once it is closed.
func adapterOf(ctx *engine.Context) *Runtime {
	r, _ := ctx.ContextOpaque().(*Runtime)
	return r
}

// dispose runs a Disposer hook; panics are logged and dropped since no
// script frame is active during finalization.
func dispose(kind string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			Logger().Error("dispose panicked", zap.String("kind", kind), zap.Any("panic", p))
		}
	}()
	fn()
}
