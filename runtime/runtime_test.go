package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxiaoguang/quickjs-jsi/engine"
	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

func TestRuntime_Description(t *testing.T) {
	rt := newTestRuntime(t)
	assert.Equal(t, "QuickJS", rt.Description())
	assert.False(t, rt.IsInspectable())
}

func TestRuntime_TemplateLiteral(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"constant", "var result = `result is ${2 + 2}`;"},
		{"lexical", "let x = 2; var result = `result is ${x + x}`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newTestRuntime(t)
			eval(t, rt, tt.src).Release()

			v := getGlobal(t, rt, "result")
			defer v.Release()
			require.True(t, v.IsString())
			s, err := rt.StringUTF8(v.AsString())
			require.NoError(t, err)
			assert.Equal(t, "result is 4", s)
		})
	}
}

func TestRuntime_MultipleEval(t *testing.T) {
	rt := newTestRuntime(t)

	eval(t, rt, "x = 1").Release()
	eval(t, rt, "var y = 2").Release()
	eval(t, rt, "let z = 3").Release()

	v := eval(t, rt, "x + y + z")
	assert.Equal(t, 6.0, v.Number())
}

func TestRuntime_EvaluateErrors(t *testing.T) {
	rt := newTestRuntime(t)

	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"error object", "throw new Error('boom')", "boom"},
		{"type error", "null.x", ""},
		{"string", "throw 'plain'", "plain"},
		{"number", "throw 42", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.EvaluateJavaScript(jsi.StringBuffer(tt.src), "test.js")
			var jsErr *jsi.JSError
			require.ErrorAs(t, err, &jsErr)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, jsErr.Message)
			} else {
				assert.NotEmpty(t, jsErr.Message)
			}
		})
	}

	// The runtime stays usable after an exception.
	assert.Equal(t, "ok", evalString(t, rt, "'ok'"))
}

func TestRuntime_SyntaxError(t *testing.T) {
	rt := newTestRuntime(t)

	_, err := rt.EvaluateJavaScript(jsi.StringBuffer("let = ;"), "broken.js")
	var jsErr *jsi.JSError
	require.ErrorAs(t, err, &jsErr)
	assert.NotEmpty(t, jsErr.Message)
}

func TestRuntime_Properties(t *testing.T) {
	rt := newTestRuntime(t)

	obj, err := rt.CreateObject()
	require.NoError(t, err)
	defer obj.Release()

	key, err := rt.CreateStringFromUTF8([]byte("answer"))
	require.NoError(t, err)
	defer key.Release()

	require.NoError(t, rt.SetPropertyByString(obj, key, jsi.NumberValue(42)))

	has, err := rt.HasPropertyByString(obj, key)
	require.NoError(t, err)
	assert.True(t, has)

	v, err := rt.GetPropertyByString(obj, key)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.Number())

	missing := propName(t, rt, "missing")
	defer missing.Release()
	has, err = rt.HasProperty(obj, missing)
	require.NoError(t, err)
	assert.False(t, has)
	v, err = rt.GetProperty(obj, missing)
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())
}

func TestRuntime_PropNameIDs(t *testing.T) {
	rt := newTestRuntime(t)

	a, err := rt.CreatePropNameIDFromASCII("key")
	require.NoError(t, err)
	defer a.Release()
	b := propName(t, rt, "key")
	defer b.Release()
	s, err := rt.CreateStringFromASCII("key")
	require.NoError(t, err)
	defer s.Release()
	c, err := rt.CreatePropNameIDFromString(s)
	require.NoError(t, err)
	defer c.Release()
	other := propName(t, rt, "other")
	defer other.Release()

	assert.True(t, rt.ComparePropNameIDs(a, b))
	assert.True(t, rt.ComparePropNameIDs(a, c))
	assert.False(t, rt.ComparePropNameIDs(a, other))

	got, err := rt.PropNameIDUTF8(c)
	require.NoError(t, err)
	assert.Equal(t, "key", got)
}

func TestRuntime_Strings(t *testing.T) {
	rt := newTestRuntime(t)

	a, err := rt.CreateStringFromUTF8([]byte("naïve"))
	require.NoError(t, err)
	defer a.Release()
	b, err := rt.CreateStringFromUTF8([]byte("naïve"))
	require.NoError(t, err)
	defer b.Release()
	c, err := rt.CreateStringFromASCII("naive")
	require.NoError(t, err)
	defer c.Release()

	assert.True(t, rt.StrictEqualsString(a, b))
	assert.False(t, rt.StrictEqualsString(a, c))

	got, err := rt.StringUTF8(a)
	require.NoError(t, err)
	assert.Equal(t, "naïve", got)
}

func TestRuntime_Symbols(t *testing.T) {
	rt := newTestRuntime(t)

	v := eval(t, rt, "var sym = Symbol('tag'); sym")
	defer v.Release()
	require.True(t, v.IsSymbol())

	s, err := rt.SymbolToString(v.AsSymbol())
	require.NoError(t, err)
	assert.Equal(t, "Symbol(tag)", s)

	again := getGlobal(t, rt, "sym")
	defer again.Release()
	other := eval(t, rt, "Symbol('tag')")
	defer other.Release()

	assert.True(t, rt.StrictEqualsSymbol(v.AsSymbol(), again.AsSymbol()))
	assert.False(t, rt.StrictEqualsSymbol(v.AsSymbol(), other.AsSymbol()))
}

func TestRuntime_Objects(t *testing.T) {
	rt := newTestRuntime(t)

	a := getGlobal(t, rt, "Object")
	defer a.Release()
	b := getGlobal(t, rt, "Object")
	defer b.Release()
	assert.True(t, rt.StrictEqualsObject(a.AsObject(), b.AsObject()))

	o1, err := rt.CreateObject()
	require.NoError(t, err)
	defer o1.Release()
	o2, err := rt.CreateObject()
	require.NoError(t, err)
	defer o2.Release()
	assert.False(t, rt.StrictEqualsObject(o1, o2))
	assert.False(t, rt.IsFunction(o1))
	assert.True(t, rt.IsFunction(a.AsObject()))
}

func TestRuntime_Arrays(t *testing.T) {
	rt := newTestRuntime(t)

	arr, err := rt.CreateArray(3)
	require.NoError(t, err)
	defer arr.Release()

	assert.True(t, rt.IsArray(arr.Object))
	n, err := rt.ArraySize(arr)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	s, err := jsi.NewString(rt, "second")
	require.NoError(t, err)
	require.NoError(t, rt.SetValueAtIndex(arr, 1, s))
	s.Release()

	v, err := rt.GetValueAtIndex(arr, 1)
	require.NoError(t, err)
	got, err := jsi.ToString(rt, v)
	v.Release()
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	v, err = rt.GetValueAtIndex(arr, 0)
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())

	require.NoError(t, rt.SetValueAtIndex(arr, 4, jsi.BoolValue(true)))
	n, err = rt.ArraySize(arr)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = rt.GetValueAtIndex(arr, -1)
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindOutOfBounds})
	_, err = rt.CreateArray(-1)
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindInvalidInput})

	obj, err := rt.CreateObject()
	require.NoError(t, err)
	defer obj.Release()
	assert.False(t, rt.IsArray(obj))
}

func TestRuntime_CallAsConstructor(t *testing.T) {
	rt := newTestRuntime(t)

	ctorVal := eval(t, rt, "(function Point(x) { this.x = x; })")
	defer ctorVal.Release()
	ctor, ok := ctorVal.AsObject().AsFunction(rt)
	require.True(t, ok)

	pt, err := rt.CallAsConstructor(ctor, jsi.NumberValue(3))
	require.NoError(t, err)
	defer pt.Release()
	require.True(t, pt.IsObject())

	x, err := jsi.GetPropertyString(rt, pt.AsObject(), "x")
	require.NoError(t, err)
	assert.Equal(t, 3.0, x.Number())

	is, err := rt.InstanceOf(pt.AsObject(), ctor)
	require.NoError(t, err)
	assert.True(t, is)

	plain, err := rt.CreateObject()
	require.NoError(t, err)
	defer plain.Release()
	is, err = rt.InstanceOf(plain, ctor)
	require.NoError(t, err)
	assert.False(t, is)
}

func TestRuntime_CallThrows(t *testing.T) {
	rt := newTestRuntime(t)

	fnVal := eval(t, rt, "(function (msg) { throw new TypeError(msg); })")
	defer fnVal.Release()
	fn, ok := fnVal.AsObject().AsFunction(rt)
	require.True(t, ok)

	msg, err := jsi.NewString(rt, "bad input")
	require.NoError(t, err)
	defer msg.Release()

	_, err = rt.Call(fn, jsi.Undefined(), msg)
	var jsErr *jsi.JSError
	require.ErrorAs(t, err, &jsErr)
	assert.Equal(t, "bad input", jsErr.Message)
}

func TestRuntime_PropertyNames(t *testing.T) {
	rt := newTestRuntime(t)

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"plain", "({a: 1, b: 2})", []string{"a", "b"}},
		{"inherited", "var base = {p: 1}; var o = Object.create(base); o.own = 2; o", []string{"own", "p"}},
		{"shadowed", "var base2 = {k: 1}; var o2 = Object.create(base2); o2.k = 2; o2", []string{"k", "k"}},
		{"null prototype", "var bare = Object.create(null); bare.only = 1; bare", []string{"only"}},
		{"non-enumerable", "var h = {shown: 1}; Object.defineProperty(h, 'hidden', {value: 2}); h", []string{"shown"}},
		{"empty", "({})", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := eval(t, rt, tt.src)
			defer v.Release()

			names, err := rt.GetPropertyNames(v.AsObject())
			require.NoError(t, err)
			defer names.Release()
			assert.Equal(t, tt.want, arrayStrings(t, rt, names))
		})
	}
}

func TestRuntime_Unsupported(t *testing.T) {
	rt := newTestRuntime(t)
	unsupported := &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindUnsupported}

	_, err := rt.PrepareJavaScript(jsi.StringBuffer("1"), "test.js")
	assert.ErrorIs(t, err, unsupported)
	_, err = rt.EvaluatePreparedJavaScript(nil)
	assert.ErrorIs(t, err, unsupported)

	obj, err := rt.CreateObject()
	require.NoError(t, err)
	defer obj.Release()
	_, err = rt.CreateWeakObject(obj)
	assert.ErrorIs(t, err, unsupported)
	_, err = rt.LockWeakObject(jsi.WeakObject{})
	assert.ErrorIs(t, err, unsupported)

	assert.False(t, rt.IsArrayBuffer(obj))
	_, err = rt.ArrayBufferSize(jsi.ArrayBuffer{})
	assert.ErrorIs(t, err, unsupported)
	_, err = rt.ArrayBufferData(jsi.ArrayBuffer{})
	assert.ErrorIs(t, err, unsupported)
}

func TestRuntime_WithContext(t *testing.T) {
	ert := engine.NewRuntime()
	ctx, err := ert.NewContext()
	require.NoError(t, err)

	rt, err := New(WithContext(ctx))
	require.NoError(t, err)
	assert.Same(t, ctx, rt.Engine())

	_, err = New(WithContext(ctx))
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindInvalidInput})

	eval(t, rt, "var adopted = 1").Release()
	require.NoError(t, rt.Close())

	// The adopted context survives Close and can be adopted again.
	again, err := New(WithContext(ctx))
	require.NoError(t, err)
	assert.Equal(t, "1", evalString(t, again, "String(adopted)"))
	require.NoError(t, again.Close())

	require.NoError(t, ert.Free())
}

func TestRuntime_CloseReportsLeaks(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)

	_, err = rt.CreateObject()
	require.NoError(t, err)

	err = rt.Close()
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseEngine, Kind: errors.KindLeak})
}
