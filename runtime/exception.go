package runtime

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

const (
	defaultErrorMessage   = "Unknown error"
	unexpectedHostError   = "Unexpected error"
	hostFunctionPrefix    = "Exception in HostFunction: "
	unexpectedHostFuncErr = hostFunctionPrefix + "<unknown>"
)

// raiseFromNative consumes the pending exception of ctx and returns it as a
// *jsi.JSError. It must run before any other engine call once an exception
// sentinel has been observed.
func (r *Runtime) raiseFromNative(ctx *engine.Context) error {
	exc := ctx.GetException()
	defer ctx.FreeValue(exc)

	if !exc.IsObject() {
		msg, ok := ctx.ToCString(exc)
		if !ok {
			ctx.FreeValue(ctx.GetException())
		}
		return &jsi.JSError{Message: msg}
	}
	return &jsi.JSError{
		Message: errorProperty(ctx, exc, engine.AtomMessage),
		Stack:   errorProperty(ctx, exc, engine.AtomStack),
	}
}

// errorProperty reads a string property of an error object, "" when absent.
func errorProperty(ctx *engine.Context, exc engine.Value, prop engine.Atom) string {
	v := ctx.GetProperty(exc, prop)
	if v.IsException() {
		ctx.FreeValue(ctx.GetException())
		return ""
	}
	defer ctx.FreeValue(v)
	if v.IsUndefined() || v.IsNull() {
		return ""
	}
	s, ok := ctx.ToCString(v)
	if !ok {
		ctx.FreeValue(ctx.GetException())
		return ""
	}
	return s
}

// setNativeFromEmbedding installs a new Error as the pending exception of
// ctx and returns the exception sentinel.
func setNativeFromEmbedding(ctx *engine.Context, message, stack string) engine.Value {
	errObj := ctx.NewError()
	if errObj.IsException() {
		return errObj
	}
	if message == "" {
		message = defaultErrorMessage
	}
	defineErrorProperty(ctx, errObj, engine.AtomMessage, message)
	if stack != "" {
		defineErrorProperty(ctx, errObj, engine.AtomStack, stack)
	}
	return ctx.Throw(errObj)
}

func defineErrorProperty(ctx *engine.Context, errObj engine.Value, prop engine.Atom, s string) {
	flags := engine.PropConfigurable | engine.PropWritable
	if ctx.DefinePropertyValue(errObj, prop, ctx.NewString(s), flags) < 0 {
		ctx.FreeValue(ctx.GetException())
	}
}

// setNativeFromError converts an error returned by host code into the
// pending exception of ctx. A *jsi.JSError keeps its message and stack;
// other errors are prefixed with prefix.
func setNativeFromError(ctx *engine.Context, err error, prefix string) engine.Value {
	var jsErr *jsi.JSError
	if stderrors.As(err, &jsErr) {
		return setNativeFromEmbedding(ctx, jsErr.Message, jsErr.Stack)
	}
	return setNativeFromEmbedding(ctx, prefix+err.Error(), "")
}

// setNativeFromPanic converts a value recovered from host code into the
// pending exception of ctx.
func (r *Runtime) setNativeFromPanic(ctx *engine.Context, op string, p any, message string) engine.Value {
	r.log.Error("host callback panicked",
		zap.String("op", op),
		zap.Any("panic", p),
		zap.Stack("stack"))
	return setNativeFromEmbedding(ctx, message, "")
}
