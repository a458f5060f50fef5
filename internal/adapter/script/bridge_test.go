package script

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installer-shell/internal/adapter/script/jsctx"
	"installer-shell/internal/domain"
)

type fakeObject struct {
	name  string
	props map[string]bool
	panic bool
}

func (o *fakeObject) ObjectName() string { return o.name }

func (o *fakeObject) Property(name string) bool {
	if o.panic {
		panic("boom")
	}
	return o.props[name]
}

func (o *fakeObject) SetProperty(name string, v bool) {
	if o.panic {
		panic("boom")
	}
	o.props[name] = v
}

func newLoggedBridge() (*Bridge, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewBridge(logger), &buf
}

func newJS(t *testing.T, src string) *jsctx.Context {
	t.Helper()
	c := jsctx.New(domain.ContextControl, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if src != "" {
		require.NoError(t, c.Load("control.js", src, jsctx.ControllerConstructor))
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestBridge_BindMirrorsProperties(t *testing.T) {
	b, _ := newLoggedBridge()
	sc := newJS(t, "")
	obj := &fakeObject{name: "Foo", props: map[string]bool{"complete": true}}

	b.Bind(sc, "Foo", obj, nil)
	require.True(t, b.Bound(sc, "Foo"))

	v, err := sc.Evaluate(`Foo.complete`)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = sc.Evaluate(`Foo.complete = false; Foo.final = true`)
	require.NoError(t, err)
	assert.False(t, obj.props["complete"])
	assert.True(t, obj.props["final"])

	// Only mirrored properties are bridged.
	v, err = sc.Evaluate(`Foo.title`)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBridge_BindMethods(t *testing.T) {
	b, _ := newLoggedBridge()
	sc := newJS(t, "")
	called := false
	b.Bind(sc, "Foo", &fakeObject{name: "Foo", props: map[string]bool{}}, map[string]domain.ScriptFunc{
		"ping": func(...any) (any, error) {
			called = true
			return "pong", nil
		},
	})

	v, err := sc.Evaluate(`Foo.ping()`)
	require.NoError(t, err)
	assert.Equal(t, "pong", v)
	assert.True(t, called)
}

func TestBridge_PanickingPropertyIsContained(t *testing.T) {
	b, buf := newLoggedBridge()
	sc := newJS(t, "")
	b.Bind(sc, "Foo", &fakeObject{name: "Foo", props: map[string]bool{}, panic: true}, nil)

	v, err := sc.Evaluate(`Foo.complete`)
	require.NoError(t, err)
	assert.Equal(t, false, v)
	assert.Contains(t, buf.String(), "property trampoline failed")
}

func TestBridge_UnbindIsIdempotent(t *testing.T) {
	b, _ := newLoggedBridge()
	sc := newJS(t, "")
	b.Bind(sc, "Foo", &fakeObject{name: "Foo", props: map[string]bool{}}, nil)

	b.Unbind(sc, "Foo")
	b.Unbind(sc, "Foo")
	assert.False(t, b.Bound(sc, "Foo"))
	assert.False(t, sc.Has("Foo"))

	v, err := sc.Evaluate(`typeof Foo`)
	require.NoError(t, err)
	assert.Equal(t, "undefined", v)
}

func TestBridge_InvokeHook(t *testing.T) {
	b, _ := newLoggedBridge()
	sc := newJS(t, `
function Controller() {}
Controller.prototype.IntroductionPageCallback = function () { installer.hits++; };
`)
	_, err := sc.Evaluate(`var installer = { hits: 0 }`)
	require.NoError(t, err)

	b.InvokeHook(sc, "IntroductionPage", "Callback")
	b.InvokeHook(sc, "IntroductionPage", "Callback")

	v, err := sc.Evaluate(`installer.hits`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func TestBridge_MissingHookIsSilent(t *testing.T) {
	b, buf := newLoggedBridge()
	control := newJS(t, `function Controller() {}`)
	component := newJS(t, "")

	b.InvokeHook(control, "Foo", "Callback")
	b.InvokeHook(component, "Foo", "Callback")

	assert.NotContains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "hook not implemented")
}

func TestBridge_FailingHookIsLogged(t *testing.T) {
	b, buf := newLoggedBridge()
	sc := newJS(t, `
function Controller() {}
Controller.prototype.FooPageCallback = function () { throw new Error("nope"); };
`)

	assert.NotPanics(t, func() { b.InvokeHook(sc, "FooPage", "Callback") })
	assert.Contains(t, buf.String(), "hook failed")
	assert.Contains(t, buf.String(), "FooPageCallback")
}

func TestBridge_Call(t *testing.T) {
	b, _ := newLoggedBridge()
	sc := newJS(t, `
function Controller() {}
Controller.prototype.FooValidate = function (x) { return x > 1; };
`)

	res, found, err := b.Call(sc, "FooValidate", 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, true, res)

	_, found, err = b.Call(sc, "BarValidate")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = b.Call(nil, "FooValidate")
	require.NoError(t, err)
	assert.False(t, found)
}

type panicContext struct{ domain.ScriptContext }

func (panicContext) Name() string { return "panic" }
func (panicContext) Ready() bool  { return true }
func (panicContext) Method(string) (domain.ScriptFunc, bool) {
	return func(...any) (any, error) { panic("host exploded") }, true
}

func TestBridge_CallRecoversPanic(t *testing.T) {
	b, _ := newLoggedBridge()
	_, found, err := b.Call(panicContext{}, "FooPageCallback")
	assert.True(t, found)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScriptHook)
}

type failingRegister struct{ domain.ScriptContext }

func (failingRegister) Name() string                       { return "broken" }
func (failingRegister) Register(domain.ScriptObject) error { return errors.New("closed") }

func TestBridge_BindFailureIsLogged(t *testing.T) {
	b, buf := newLoggedBridge()
	sc := failingRegister{}
	b.Bind(sc, "Foo", &fakeObject{name: "Foo"}, nil)
	assert.False(t, b.Bound(sc, "Foo"))
	assert.Contains(t, buf.String(), "bind failed")
}
