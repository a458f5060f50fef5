package wasmctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"installer-shell/internal/domain"
)

// Context is a domain.ScriptContext whose hooks are the exported functions
// of a guest module. Registered objects are reachable from the guest through
// the installer_v1 host functions.
type Context struct {
	name    string
	rt      wazero.Runtime
	cfg     RuntimeConfig
	module  api.Module
	objects map[string]domain.ScriptObject
	logger  *slog.Logger
}

var _ domain.ScriptContext = (*Context)(nil)

// New creates a context with its own runtime and host module. The caller
// must call Close when done.
func New(ctx context.Context, name string, cfg RuntimeConfig, logger *slog.Logger) (*Context, error) {
	logger = logger.With("context", name)
	rt, cfg := newRuntime(ctx, cfg, logger)
	c := &Context{
		name:    name,
		rt:      rt,
		cfg:     cfg,
		objects: make(map[string]domain.ScriptObject),
		logger:  logger,
	}

	host, err := c.registerHostFunctions(ctx, rt)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	if _, err := rt.InstantiateModule(ctx, host, wazero.NewModuleConfig().WithName(HostModule)); err != nil {
		_ = rt.Close(ctx)
		return nil, domain.NewSubSystemError("wasm", "wasmctx.New", domain.ErrInvalidInput, fmt.Sprintf("instantiate host module: %v", err))
	}
	return c, nil
}

func (c *Context) Name() string { return c.name }

func (c *Context) Ready() bool { return c.module != nil && !c.module.IsClosed() }

// Register stores obj in the object table consulted by host functions.
func (c *Context) Register(obj domain.ScriptObject) error {
	if obj.Name == "" {
		return domain.NewSubSystemError("wasm", "wasmctx.Register", domain.ErrInvalidInput, "empty global name")
	}
	c.objects[obj.Name] = obj
	return nil
}

func (c *Context) Unregister(name string) { delete(c.objects, name) }

func (c *Context) Has(name string) bool {
	_, ok := c.objects[name]
	return ok
}

func (c *Context) property(obj, prop string) (domain.PropertyAccessor, bool) {
	o, ok := c.objects[obj]
	if !ok {
		return domain.PropertyAccessor{}, false
	}
	acc, ok := o.Props[prop]
	return acc, ok
}

func (c *Context) objectMethod(obj, method string) (domain.ScriptFunc, bool) {
	o, ok := c.objects[obj]
	if !ok {
		return nil, false
	}
	fn, ok := o.Methods[method]
	return fn, ok
}

// LoadFile compiles and instantiates the guest module at path.
func (c *Context) LoadFile(ctx context.Context, path string) error {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrScriptLoad, path, err)
	}
	return c.Load(ctx, path, wasmBytes)
}

// Load instantiates a guest module and calls its _init export if present.
func (c *Context) Load(ctx context.Context, name string, wasmBytes []byte) error {
	compiled, err := c.rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fmt.Errorf("%w: compile %s: %v", domain.ErrScriptLoad, name, err)
	}

	modCfg := wazero.NewModuleConfig().
		WithName(c.name).
		WithStartFunctions()
	mod, err := c.rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return fmt.Errorf("%w: instantiate %s: %v", domain.ErrScriptLoad, name, err)
	}
	c.module = mod

	if initFn := mod.ExportedFunction("_init"); initFn != nil {
		if _, err := c.call(ctx, "_init", initFn); err != nil {
			c.module = nil
			return fmt.Errorf("%w: %s: %w", domain.ErrScriptLoad, name, err)
		}
	}

	c.logger.Info("wasm script loaded", "script", name, "exports", len(compiled.ExportedFunctions()))
	return nil
}

// Method resolves an exported function. Hooks take no parameters; an i32
// result is reported as a boolean.
func (c *Context) Method(name string) (domain.ScriptFunc, bool) {
	if !c.Ready() {
		return nil, false
	}
	fn := c.module.ExportedFunction(name)
	if fn == nil || len(fn.Definition().ParamTypes()) != 0 {
		return nil, false
	}
	return func(...any) (any, error) {
		results, err := c.call(context.Background(), name, fn)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return api.DecodeI32(results[0]) != 0, nil
	}, true
}

func (c *Context) call(ctx context.Context, name string, fn api.Function) ([]uint64, error) {
	execCtx, cancel := context.WithTimeout(ctx, c.cfg.ExecTimeout)
	defer cancel()

	results, err := fn.Call(execCtx)
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, domain.NewSubSystemError("wasm", "wasmctx."+name, domain.ErrTimeout, c.cfg.ExecTimeout.String())
		}
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	return results, nil
}

// Close releases the guest module and the runtime.
func (c *Context) Close(ctx context.Context) error {
	if c.module != nil {
		if closeFn := c.module.ExportedFunction("_close"); closeFn != nil && !c.module.IsClosed() {
			if _, err := c.call(ctx, "_close", closeFn); err != nil {
				c.logger.Warn("wasm _close failed", "error", err)
			}
		}
		c.module = nil
	}
	return closeRuntime(ctx, c.rt)
}
