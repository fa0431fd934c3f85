package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	rt, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, rt.Close(), "runtime leaked handles")
	})
	return rt
}

func eval(t *testing.T, rt *Runtime, src string) jsi.Value {
	t.Helper()
	v, err := rt.EvaluateJavaScript(jsi.StringBuffer(src), "test.js")
	require.NoError(t, err, src)
	return v
}

func evalString(t *testing.T, rt *Runtime, src string) string {
	t.Helper()
	v := eval(t, rt, src)
	defer v.Release()
	s, err := jsi.ToString(rt, v)
	require.NoError(t, err)
	return s
}

// collectUntil runs the collector until done holds. Cleanups are queued
// asynchronously, so a single pass is not always enough.
func collectUntil(rt *Runtime, done func() bool) bool {
	for i := 0; i < 50; i++ {
		rt.CollectGarbage()
		if done() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func propName(t *testing.T, rt *Runtime, name string) jsi.PropNameID {
	t.Helper()
	p, err := rt.CreatePropNameIDFromUTF8([]byte(name))
	require.NoError(t, err)
	return p
}

// setGlobal stores v as a global. v stays owned by the caller.
func setGlobal(t *testing.T, rt *Runtime, name string, v jsi.Value) {
	t.Helper()
	global := rt.Global()
	defer global.Release()
	require.NoError(t, jsi.SetPropertyString(rt, global, name, v))
}

func getGlobal(t *testing.T, rt *Runtime, name string) jsi.Value {
	t.Helper()
	global := rt.Global()
	defer global.Release()
	v, err := jsi.GetPropertyString(rt, global, name)
	require.NoError(t, err)
	return v
}

func newHostFunction(t *testing.T, rt *Runtime, name string, arity int, fn jsi.HostFunction) jsi.Function {
	t.Helper()
	p := propName(t, rt, name)
	defer p.Release()
	f, err := rt.CreateFunctionFromHostFunction(p, arity, fn)
	require.NoError(t, err)
	return f
}

// mapHost serves numeric properties from a Go map. keys is what
// GetPropertyNames reports and may contain duplicates.
type mapHost struct {
	values   map[string]float64
	keys     []string
	disposed int
}

func newMapHost(keys ...string) *mapHost {
	h := &mapHost{values: make(map[string]float64), keys: keys}
	for i, k := range keys {
		h.values[k] = float64(i + 1)
	}
	return h
}

func (h *mapHost) Get(rt jsi.Runtime, name jsi.PropNameID) (jsi.Value, error) {
	key, err := rt.PropNameIDUTF8(name)
	if err != nil {
		return jsi.Undefined(), err
	}
	if v, ok := h.values[key]; ok {
		return jsi.NumberValue(v), nil
	}
	return jsi.Undefined(), nil
}

func (h *mapHost) Set(rt jsi.Runtime, name jsi.PropNameID, value jsi.Value) error {
	key, err := rt.PropNameIDUTF8(name)
	if err != nil {
		return err
	}
	if !value.IsNumber() {
		return &jsi.JSError{Message: "only numbers can be stored"}
	}
	h.values[key] = value.Number()
	return nil
}

func (h *mapHost) GetPropertyNames(rt jsi.Runtime) ([]jsi.PropNameID, error) {
	names := make([]jsi.PropNameID, 0, len(h.keys))
	for _, k := range h.keys {
		n, err := rt.CreatePropNameIDFromUTF8([]byte(k))
		if err != nil {
			for _, prev := range names {
				prev.Release()
			}
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}

func (h *mapHost) Dispose() {
	h.disposed++
}

// arrayStrings reads every element of a as a string.
func arrayStrings(t *testing.T, rt *Runtime, a jsi.Array) []string {
	t.Helper()
	n, err := rt.ArraySize(a)
	require.NoError(t, err)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v, err := rt.GetValueAtIndex(a, i)
		require.NoError(t, err)
		s, err := jsi.ToString(rt, v)
		v.Release()
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}
