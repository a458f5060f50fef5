// Package wasmctx implements script contexts backed by WebAssembly control
// modules running under wazero.
package wasmctx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tetratelabs/wazero"

	"installer-shell/internal/domain"
)

// RuntimeConfig holds configuration for the WASM runtime.
type RuntimeConfig struct {
	// MaxMemoryPages is the maximum number of 64KB WASM memory pages.
	// Default 256 = 16MB.
	MaxMemoryPages uint32
	// ExecTimeout bounds a single exported call.
	ExecTimeout time.Duration
}

// DefaultRuntimeConfig returns a RuntimeConfig with sensible defaults.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		MaxMemoryPages: 256,
		ExecTimeout:    5 * time.Second,
	}
}

// newRuntime creates a wazero runtime that aborts guest execution when the
// call context is done.
func newRuntime(ctx context.Context, cfg RuntimeConfig, logger *slog.Logger) (wazero.Runtime, RuntimeConfig) {
	def := DefaultRuntimeConfig()
	if cfg.MaxMemoryPages == 0 {
		cfg.MaxMemoryPages = def.MaxMemoryPages
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = def.ExecTimeout
	}

	rtCfg := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithMemoryLimitPages(cfg.MaxMemoryPages)

	logger.Debug("wasm runtime created",
		"max_memory_pages", cfg.MaxMemoryPages,
		"exec_timeout", cfg.ExecTimeout,
	)
	return wazero.NewRuntimeWithConfig(ctx, rtCfg), cfg
}

func closeRuntime(ctx context.Context, rt wazero.Runtime) error {
	if err := rt.Close(ctx); err != nil {
		return domain.NewSubSystemError("wasm", "wasmctx.Close", domain.ErrInvalidInput, fmt.Sprint(err))
	}
	return nil
}
