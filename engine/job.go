package engine

import (
	"github.com/dop251/goja"
)

// JobFunc runs a deferred job with borrowed args and returns an owned result.
type JobFunc func(ctx *Context, args []Value) Value

type job struct {
	ctx  *Context
	fn   JobFunc
	args []Value
}

// EnqueueJob appends a job to the runtime queue. Args are duplicated.
func (ctx *Context) EnqueueJob(fn JobFunc, args []Value) {
	owned := make([]Value, len(args))
	for i, a := range args {
		owned[i] = ctx.DupValue(a)
	}
	ctx.rt.jobs = append(ctx.rt.jobs, job{ctx: ctx, fn: fn, args: owned})
}

// IsJobPending reports whether the job queue is non-empty.
func (rt *Runtime) IsJobPending() bool {
	return len(rt.jobs) > 0
}

// ExecutePendingJob runs the oldest queued job. It returns 0 when the queue
// is empty, 1 when a job ran and -1 when a job threw; in that case the
// exception is pending on the returned context.
func (rt *Runtime) ExecutePendingJob() (int, *Context) {
	rt.runFinalizers()
	if len(rt.jobs) == 0 {
		return 0, nil
	}
	j := rt.jobs[0]
	rt.jobs[0] = job{}
	rt.jobs = rt.jobs[1:]

	debugf("executing job with %d args", len(j.args))
	res := j.fn(j.ctx, j.args)
	for _, a := range j.args {
		rt.FreeValue(a)
	}
	if res.IsException() {
		return -1, j.ctx
	}
	rt.FreeValue(res)
	return 1, j.ctx
}

func callJob(ctx *Context, args []Value) Value {
	return ctx.Call(args[0], Undefined, nil)
}

// installMicrotask exposes the job queue to scripts as queueMicrotask.
func (ctx *Context) installMicrotask() error {
	return ctx.vm.GlobalObject().Set("queueMicrotask", func(call goja.FunctionCall) goja.Value {
		fn := call.Argument(0)
		if _, ok := goja.AssertFunction(fn); !ok {
			panic(ctx.vm.NewTypeError("queueMicrotask: argument must be a function"))
		}
		v := ctx.wrap(fn)
		ctx.EnqueueJob(callJob, []Value{v})
		ctx.FreeValue(v)
		return goja.Undefined()
	})
}
