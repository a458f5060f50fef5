// Package script binds wizard pages into script contexts.
package script

import (
	"fmt"
	"log/slog"

	"installer-shell/internal/domain"
)

// Bridge registers live objects into script contexts and calls
// conventional hooks. Script failures are logged here and never returned
// to the caller's transition.
type Bridge struct {
	logger   *slog.Logger
	bindings map[domain.ScriptContext]map[string]struct{}
}

// NewBridge creates a bridge with no bindings.
func NewBridge(logger *slog.Logger) *Bridge {
	return &Bridge{
		logger:   logger.With("component", "script-bridge"),
		bindings: make(map[domain.ScriptContext]map[string]struct{}),
	}
}

// Bind registers obj as global in sc, installing accessor trampolines for
// the mirrored properties.
func (b *Bridge) Bind(sc domain.ScriptContext, global string, obj domain.Bindable, methods map[string]domain.ScriptFunc) {
	props := make(map[string]domain.PropertyAccessor, len(domain.MirroredProperties))
	for _, name := range domain.MirroredProperties {
		props[name] = b.trampoline(sc, global, obj, name)
	}

	err := sc.Register(domain.ScriptObject{Name: global, Props: props, Methods: methods})
	if err != nil {
		b.logger.Error("bind failed", "context", sc.Name(), "global", global, "error", err)
		return
	}
	if b.bindings[sc] == nil {
		b.bindings[sc] = make(map[string]struct{})
	}
	b.bindings[sc][global] = struct{}{}
	b.logger.Debug("bound", "context", sc.Name(), "global", global, "object", obj.ObjectName())
}

// trampoline forwards a script property to obj. A panicking getter or
// setter is logged and degrades to a read of false or a dropped write.
func (b *Bridge) trampoline(sc domain.ScriptContext, global string, obj domain.Bindable, name string) domain.PropertyAccessor {
	return domain.PropertyAccessor{
		Get: func() (v bool) {
			defer b.recoverProperty(sc, global, name)
			return obj.Property(name)
		},
		Set: func(v bool) {
			defer b.recoverProperty(sc, global, name)
			obj.SetProperty(name, v)
		},
	}
}

func (b *Bridge) recoverProperty(sc domain.ScriptContext, global, name string) {
	if r := recover(); r != nil {
		b.logger.Error("property trampoline failed",
			"context", sc.Name(), "global", global, "property", name,
			"error", fmt.Errorf("%w: %v", domain.ErrScriptProperty, r))
	}
}

// Unbind removes global from sc. Unknown bindings are ignored.
func (b *Bridge) Unbind(sc domain.ScriptContext, global string) {
	globals := b.bindings[sc]
	if _, ok := globals[global]; !ok {
		return
	}
	sc.Unregister(global)
	delete(globals, global)
	if len(globals) == 0 {
		delete(b.bindings, sc)
	}
	b.logger.Debug("unbound", "context", sc.Name(), "global", global)
}

// Bound reports whether global is currently bound in sc.
func (b *Bridge) Bound(sc domain.ScriptContext, global string) bool {
	_, ok := b.bindings[sc][global]
	return ok
}

// InvokeHook calls <label><suffix> in sc. A missing method or a context
// without a loaded script is a no-op; a failing method is logged.
func (b *Bridge) InvokeHook(sc domain.ScriptContext, label, suffix string) {
	method := label + suffix
	_, found, err := b.Call(sc, method)
	switch {
	case !found:
		b.logger.Debug("hook not implemented", "context", sc.Name(), "method", method)
	case err != nil:
		b.logger.Error("hook failed", "context", sc.Name(), "method", method, "error", err)
	}
}

// Call invokes method in sc. found is false when sc is not ready or has no
// such method. Panics raised by the script host are returned as errors.
func (b *Bridge) Call(sc domain.ScriptContext, method string, args ...any) (result any, found bool, err error) {
	if sc == nil || !sc.Ready() {
		return nil, false, nil
	}
	fn, ok := sc.Method(method)
	if !ok {
		return nil, false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", domain.ErrScriptHook, method, r)
		}
	}()
	res, err := fn(args...)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s: %w", domain.ErrScriptHook, method, err)
	}
	return res, true, nil
}
