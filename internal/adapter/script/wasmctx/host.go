package wasmctx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"installer-shell/internal/domain"
)

// HostModule is the namespace under which host functions are registered.
const HostModule = "installer_v1"

// Return values of prop_get and call when the target cannot be resolved.
const (
	resultUnknown = -1
	resultError   = -2
)

// registerHostFunctions builds the installer_v1 host module. Every function
// resolves its target through the context's object table, so bindings made
// after the guest is loaded are visible.
func (c *Context) registerHostFunctions(ctx context.Context, rt wazero.Runtime) (wazero.CompiledModule, error) {
	i32 := api.ValueTypeI32
	builder := rt.NewHostModuleBuilder(HostModule)

	// log(level, ptr, len)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			level := int32(stack[0])
			msg, err := readString(mod, uint32(stack[1]), uint32(stack[2]))
			if err != nil {
				c.logger.Error("wasm log: read failed", "error", err)
				return
			}
			switch {
			case level <= 0:
				c.logger.Debug(msg, "source", "script")
			case level == 1:
				c.logger.Info(msg, "source", "script")
			case level == 2:
				c.logger.Warn(msg, "source", "script")
			default:
				c.logger.Error(msg, "source", "script")
			}
		}), []api.ValueType{i32, i32, i32}, nil).
		Export("log")

	// prop_get(obj_ptr, obj_len, prop_ptr, prop_len) -> 0 | 1 | -1 | -2
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			obj, prop, err := readPair(mod, stack)
			if err != nil {
				c.logger.Error("wasm prop_get: read failed", "error", err)
				stack[0] = api.EncodeI32(resultError)
				return
			}
			acc, ok := c.property(obj, prop)
			if !ok || acc.Get == nil {
				stack[0] = api.EncodeI32(resultUnknown)
				return
			}
			stack[0] = api.EncodeI32(boolToI32(acc.Get()))
		}), []api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}).
		Export("prop_get")

	// prop_set(obj_ptr, obj_len, prop_ptr, prop_len, value)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			obj, prop, err := readPair(mod, stack)
			if err != nil {
				c.logger.Error("wasm prop_set: read failed", "error", err)
				return
			}
			acc, ok := c.property(obj, prop)
			if !ok || acc.Set == nil {
				c.logger.Warn("wasm prop_set: unknown property", "object", obj, "property", prop)
				return
			}
			acc.Set(api.DecodeI32(stack[4]) != 0)
		}), []api.ValueType{i32, i32, i32, i32, i32}, nil).
		Export("prop_set")

	// call(obj_ptr, obj_len, method_ptr, method_len, args_ptr, args_len) -> i32
	// args is a JSON array. Boolean and numeric results are returned as i32.
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(c.hostCall(mod, stack))
		}), []api.ValueType{i32, i32, i32, i32, i32, i32}, []api.ValueType{i32}).
		Export("call")

	compiled, err := builder.Compile(ctx)
	if err != nil {
		return nil, domain.NewSubSystemError("wasm", "wasmctx.registerHostFunctions", domain.ErrInvalidInput, fmt.Sprint(err))
	}
	return compiled, nil
}

func (c *Context) hostCall(mod api.Module, stack []uint64) int32 {
	obj, method, err := readPair(mod, stack)
	if err != nil {
		c.logger.Error("wasm call: read failed", "error", err)
		return resultError
	}
	fn, ok := c.objectMethod(obj, method)
	if !ok {
		c.logger.Warn("wasm call: unknown method", "object", obj, "method", method)
		return resultUnknown
	}

	var args []any
	raw, err := readBytes(mod, uint32(stack[4]), uint32(stack[5]))
	if err != nil {
		c.logger.Error("wasm call: read args failed", "error", err)
		return resultError
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			c.logger.Error("wasm call: decode args failed", "object", obj, "method", method, "error", err)
			return resultError
		}
	}

	res, err := fn(args...)
	if err != nil {
		c.logger.Error("wasm call failed", "object", obj, "method", method, "error", err)
		return resultError
	}
	switch v := res.(type) {
	case bool:
		return boolToI32(v)
	case int:
		return int32(v)
	case int64:
		return int32(v)
	case float64:
		return int32(v)
	}
	return 0
}

func boolToI32(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
