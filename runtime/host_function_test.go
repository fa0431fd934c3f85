package runtime

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

func sum(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
	total := 0.0
	for _, a := range args {
		total += a.Number()
	}
	return jsi.NumberValue(total), nil
}

func installFunction(t *testing.T, rt *Runtime, name string, arity int, fn jsi.HostFunction) {
	t.Helper()
	f := newHostFunction(t, rt, name, arity, fn)
	defer f.Release()
	setGlobal(t, rt, name, jsi.ObjectValue(f.Object))
}

func TestHostFunction_Call(t *testing.T) {
	rt := newTestRuntime(t)
	installFunction(t, rt, "add", 2, sum)

	assert.Equal(t, "function", evalString(t, rt, "typeof add"))
	assert.Equal(t, "6", evalString(t, rt, "String(add(1, 2, 3))"))
	assert.Equal(t, "add:2", evalString(t, rt, "add.name + ':' + add.length"))

	fnVal := getGlobal(t, rt, "add")
	defer fnVal.Release()
	fn, ok := fnVal.AsObject().AsFunction(rt)
	require.True(t, ok)

	res, err := rt.Call(fn, jsi.Undefined(), jsi.NumberValue(40), jsi.NumberValue(2))
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.Number())

	assert.True(t, rt.IsHostFunction(fn))
	got, err := rt.GetHostFunction(fn)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestHostFunction_ThisArg(t *testing.T) {
	rt := newTestRuntime(t)
	installFunction(t, rt, "self", 0, func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
		return this.Clone(rt), nil
	})

	assert.Equal(t, "true", evalString(t, rt, "var o = { self: self }; String(o.self() === o)"))
}

func TestHostFunction_RetainedArgs(t *testing.T) {
	rt := newTestRuntime(t)

	var kept jsi.Value
	installFunction(t, rt, "keep", 1, func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
		kept = args[0].Clone(rt)
		return jsi.Undefined(), nil
	})

	v := eval(t, rt, "keep('retained')")
	v.Release()

	require.True(t, kept.IsString())
	s, err := rt.StringUTF8(kept.AsString())
	require.NoError(t, err)
	assert.Equal(t, "retained", s)
	kept.Release()
}

func TestHostFunction_ArityGuard(t *testing.T) {
	rt := newTestRuntime(t)

	calls := 0
	installFunction(t, rt, "count", 0, func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
		calls++
		return jsi.NumberValue(float64(len(args))), nil
	})

	args := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = "0"
		}
		return strings.Join(parts, ", ")
	}

	assert.Equal(t, "32", evalString(t, rt, "String(count("+args(MaxCallArgCount)+"))"))
	assert.Equal(t, 1, calls)

	live := rt.rt.LiveValues()
	_, err := rt.EvaluateJavaScript(jsi.StringBuffer("count("+args(MaxCallArgCount+1)+")"), "test.js")
	assert.Equal(t, live, rt.rt.LiveValues())
	var jsErr *jsi.JSError
	require.ErrorAs(t, err, &jsErr)
	assert.True(t, strings.HasPrefix(jsErr.Message, "Exception in HostFunction: "), jsErr.Message)
	assert.Equal(t, 1, calls, "callable must not run with too many arguments")

	fnVal := getGlobal(t, rt, "count")
	defer fnVal.Release()
	fn, ok := fnVal.AsObject().AsFunction(rt)
	require.True(t, ok)

	tooMany := make([]jsi.Value, MaxCallArgCount+1)
	_, err = rt.Call(fn, jsi.Undefined(), tooMany...)
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindArgumentCount})
	assert.Equal(t, 1, calls)
}

func TestHostFunction_Errors(t *testing.T) {
	rt := newTestRuntime(t)

	installFunction(t, rt, "fail", 0, func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
		return jsi.Undefined(), stderrors.New("disk full")
	})
	installFunction(t, rt, "throwJS", 0, func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
		return jsi.Undefined(), &jsi.JSError{Message: "custom failure", Stack: "at host"}
	})

	assert.Equal(t, "Exception in HostFunction: disk full",
		evalString(t, rt, "try { fail(); 'ok' } catch (e) { e.message }"))
	assert.Equal(t, "custom failure",
		evalString(t, rt, "try { throwJS(); 'ok' } catch (e) { e.message }"))
	assert.Equal(t, "true",
		evalString(t, rt, "try { fail(); 'ok' } catch (e) { String(e instanceof Error) }"))

	_, err := rt.EvaluateJavaScript(jsi.StringBuffer("throwJS()"), "test.js")
	var jsErr *jsi.JSError
	require.ErrorAs(t, err, &jsErr)
	assert.Equal(t, "custom failure", jsErr.Message)
}

func TestHostFunction_PanicBecomesError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rt := newTestRuntime(t, WithLogger(zap.New(core)))

	installFunction(t, rt, "boom", 0, func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
		panic("kaboom")
	})

	assert.Equal(t, "Exception in HostFunction: <unknown>",
		evalString(t, rt, "try { boom(); 'ok' } catch (e) { e.message }"))
	require.Equal(t, 1, logs.FilterMessage("host callback panicked").Len())
	assert.Equal(t, "call", logs.All()[0].ContextMap()["op"])
}

func TestHostFunction_Reentrant(t *testing.T) {
	rt := newTestRuntime(t)

	installFunction(t, rt, "evalNested", 1, func(r jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
		src, err := jsi.ToString(r, args[0])
		if err != nil {
			return jsi.Undefined(), err
		}
		return r.EvaluateJavaScript(jsi.StringBuffer(src), "nested.js")
	})

	assert.Equal(t, "7", evalString(t, rt, "String(evalNested('3 + 4'))"))
	assert.Equal(t, "inner",
		evalString(t, rt, "try { evalNested('throw new Error(\"inner\")'); 'ok' } catch (e) { e.message }"))
}

func TestHostFunction_NilCallable(t *testing.T) {
	rt := newTestRuntime(t)
	name := propName(t, rt, "nothing")
	defer name.Release()

	_, err := rt.CreateFunctionFromHostFunction(name, 0, nil)
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindNilPointer})
}

func TestHostFunction_FinalizedByCollector(t *testing.T) {
	rt := newTestRuntime(t)

	f := newHostFunction(t, rt, "temp", 0, sum)
	assert.Equal(t, 1, rt.proxies.functions.Len())
	f.Release()

	require.True(t, collectUntil(rt, func() bool { return rt.proxies.functions.Len() == 0 }),
		"host function was not finalized")
}
