package runtime

import (
	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

// drainScope brackets every entry into the engine that may run script.
// Only the outermost scope drains the job queue, and only when its own call
// succeeded, so a job failure never replaces the error being returned.
type drainScope struct {
	r          *Runtime
	wasRunning bool
}

func (r *Runtime) enterScope() drainScope {
	s := drainScope{r: r, wasRunning: r.dontExecutePending}
	r.dontExecutePending = true
	return s
}

// exit restores the nesting state and drains pending jobs. A failed drain
// releases *res and reports the job's error instead.
func (s drainScope) exit(res *jsi.Value, err *error) {
	s.r.dontExecutePending = s.wasRunning
	if s.wasRunning || *err != nil {
		return
	}
	if derr := s.r.drainJobs(); derr != nil {
		res.Release()
		*res = jsi.Undefined()
		*err = derr
	}
}

// drainJobs runs queued jobs until the queue is empty or one fails.
func (r *Runtime) drainJobs() error {
	for {
		ret, ctx := r.rt.ExecutePendingJob()
		switch {
		case ret == 0:
			return nil
		case ret < 0:
			return r.raiseFromNative(ctx)
		}
	}
}
