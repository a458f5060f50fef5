// Package jsctx implements script contexts backed by the goja JavaScript
// runtime.
package jsctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dop251/goja"

	"installer-shell/internal/domain"
)

// DefaultTimeout bounds a single script evaluation or hook call.
const DefaultTimeout = 5 * time.Second

// Conventional constructor names instantiated after a script is loaded.
const (
	ControllerConstructor = "Controller"
	ComponentConstructor  = "Component"
)

// Context is a domain.ScriptContext holding one goja runtime. Every loaded
// script contributes one receiver for hook lookups. It is not safe for
// concurrent use.
type Context struct {
	name      string
	vm        *goja.Runtime
	receivers []*goja.Object
	ready     bool
	globals  map[string]struct{}
	timeout  time.Duration
	logger   *slog.Logger
}

var _ domain.ScriptContext = (*Context)(nil)

// New creates an empty context. A timeout of zero uses DefaultTimeout.
func New(name string, timeout time.Duration, logger *slog.Logger) *Context {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	c := &Context{
		name:    name,
		vm:      vm,
		globals: make(map[string]struct{}),
		timeout: timeout,
		logger:  logger.With("context", name),
	}
	c.installConsole()
	return c
}

func (c *Context) Name() string { return c.name }

func (c *Context) Ready() bool { return c.ready }

// Register installs obj as a global object.
func (c *Context) Register(obj domain.ScriptObject) error {
	if obj.Name == "" {
		return domain.NewSubSystemError("script", "jsctx.Register", domain.ErrInvalidInput, "empty global name")
	}
	o := c.vm.NewObject()
	for name, acc := range obj.Props {
		if err := o.DefineAccessorProperty(name, c.getter(acc), c.setter(acc), goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", domain.ErrScriptProperty, obj.Name, name, err)
		}
	}
	for name, fn := range obj.Methods {
		if err := o.Set(name, c.method(fn)); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", domain.ErrScriptLoad, obj.Name, name, err)
		}
	}
	if err := c.vm.Set(obj.Name, o); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrScriptLoad, obj.Name, err)
	}
	c.globals[obj.Name] = struct{}{}
	return nil
}

func (c *Context) getter(acc domain.PropertyAccessor) goja.Value {
	return c.vm.ToValue(func(goja.FunctionCall) goja.Value {
		if acc.Get == nil {
			return goja.Undefined()
		}
		return c.vm.ToValue(acc.Get())
	})
}

func (c *Context) setter(acc domain.PropertyAccessor) goja.Value {
	return c.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if acc.Set != nil {
			acc.Set(call.Argument(0).ToBoolean())
		}
		return goja.Undefined()
	})
}

func (c *Context) method(fn domain.ScriptFunc) goja.Value {
	return c.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a.Export()
		}
		res, err := fn(args...)
		if err != nil {
			panic(c.vm.NewGoError(err))
		}
		if res == nil {
			return goja.Undefined()
		}
		return c.vm.ToValue(res)
	})
}

// Unregister deletes a global previously installed with Register.
func (c *Context) Unregister(name string) {
	if _, ok := c.globals[name]; !ok {
		return
	}
	delete(c.globals, name)
	if err := c.vm.GlobalObject().Delete(name); err != nil {
		c.logger.Warn("unregister global", "global", name, "error", err)
	}
}

func (c *Context) Has(name string) bool {
	_, ok := c.globals[name]
	return ok
}

// LoadFile reads and loads a script from disk.
func (c *Context) LoadFile(path, constructor string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrScriptLoad, path, err)
	}
	return c.Load(path, string(src), constructor)
}

// Load evaluates src and, when the script defines constructor, instantiates
// it as the script's receiver for hook lookups. A script that leaves the
// constructor undefined or unchanged resolves hooks against the global
// object.
func (c *Context) Load(name, src, constructor string) error {
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrScriptLoad, name, err)
	}
	var prev goja.Value
	if constructor != "" {
		prev = c.vm.Get(constructor)
	}
	if _, err := c.run(func() (goja.Value, error) { return c.vm.RunProgram(prog) }); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrScriptLoad, name, err)
	}

	recv := c.vm.GlobalObject()
	if constructor != "" {
		v := c.vm.Get(constructor)
		if ctor, ok := goja.AssertConstructor(v); ok && (prev == nil || !v.SameAs(prev)) {
			obj, err := c.run(func() (goja.Value, error) { return ctor(nil) })
			if err != nil {
				return fmt.Errorf("%w: %s: new %s: %w", domain.ErrScriptLoad, name, constructor, err)
			}
			recv = obj.ToObject(c.vm)
		}
	}
	if !slices.Contains(c.receivers, recv) {
		c.receivers = append(c.receivers, recv)
	}
	c.ready = true
	c.logger.Info("script loaded", "script", name, "constructor", constructor, "receivers", len(c.receivers))
	return nil
}

// Evaluate runs src in the context and returns the exported result.
func (c *Context) Evaluate(src string) (any, error) {
	v, err := c.run(func() (goja.Value, error) { return c.vm.RunString(src) })
	if err != nil {
		return nil, err
	}
	return export(v), nil
}

// Method looks up name on every receiver, in load order. The returned
// function calls each of them; an error, false or a non-empty string stops
// the chain and is returned, otherwise the last result is.
func (c *Context) Method(name string) (domain.ScriptFunc, bool) {
	type target struct {
		this *goja.Object
		fn   goja.Callable
	}
	var targets []target
	for _, r := range c.receivers {
		if fn, ok := goja.AssertFunction(r.Get(name)); ok {
			targets = append(targets, target{r, fn})
		}
	}
	if len(targets) == 0 {
		return nil, false
	}
	return func(args ...any) (any, error) {
		vals := make([]goja.Value, len(args))
		for i, a := range args {
			vals[i] = c.vm.ToValue(a)
		}
		var res any
		for _, t := range targets {
			v, err := c.run(func() (goja.Value, error) { return t.fn(t.this, vals...) })
			if err != nil {
				return nil, err
			}
			res = export(v)
			if vetoes(res) {
				return res, nil
			}
		}
		return res, nil
	}, true
}

func vetoes(v any) bool {
	switch v := v.(type) {
	case bool:
		return !v
	case string:
		return v != ""
	}
	return false
}

// run executes fn under the context timeout.
func (c *Context) run(fn func() (goja.Value, error)) (goja.Value, error) {
	timer := time.AfterFunc(c.timeout, func() {
		c.vm.Interrupt(domain.ErrTimeout)
	})
	defer func() {
		timer.Stop()
		c.vm.ClearInterrupt()
	}()

	v, err := fn()
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, domain.NewSubSystemError("script", "jsctx.run", domain.ErrTimeout, c.timeout.String())
		}
		return nil, err
	}
	return v, nil
}

// Close drops the runtime.
func (c *Context) Close(context.Context) error {
	c.vm.Interrupt(domain.ErrCanceled)
	c.ready = false
	c.receivers = nil
	return nil
}

func (c *Context) installConsole() {
	console := c.vm.NewObject()
	logAt := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			c.logger.Log(context.Background(), level, strings.Join(parts, " "), "source", "script")
			return goja.Undefined()
		}
	}
	_ = console.Set("log", logAt(slog.LevelInfo))
	_ = console.Set("debug", logAt(slog.LevelDebug))
	_ = console.Set("warn", logAt(slog.LevelWarn))
	_ = console.Set("error", logAt(slog.LevelError))
	_ = c.vm.Set("console", console)
}

func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}
