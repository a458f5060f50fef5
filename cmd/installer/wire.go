package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"installer-shell/internal/adapter/engine"
	"installer-shell/internal/adapter/precheck"
	"installer-shell/internal/adapter/script"
	"installer-shell/internal/adapter/script/jsctx"
	"installer-shell/internal/adapter/script/wasmctx"
	"installer-shell/internal/adapter/settings"
	"installer-shell/internal/domain"
	"installer-shell/internal/infra/config"
	"installer-shell/internal/usecase/eventbus"
	"installer-shell/internal/usecase/wizard"
)

// app holds the wired collaborators of one wizard run.
type app struct {
	wizard   *wizard.Controller
	engine   *engine.Engine
	bus      *eventbus.Bus
	settings domain.SettingsStore
	contexts []domain.ScriptContext
	log      *slog.Logger
}

// build wires config into a ready controller: script contexts first, then
// the controller and its default pages, then the scripts, so constructors
// can already reach the installer object and the built-in pages.
func build(ctx context.Context, cfg *config.Config, dispatcher domain.Dispatcher, confirmer wizard.Confirmer, log *slog.Logger) (*app, error) {
	a := &app{log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.WithoutCancel(ctx))
		}
	}()

	mode, err := domain.ParseRunMode(cfg.Wizard.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigLoad, err)
	}

	components, err := buildComponents(cfg.Components.Items)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigLoad, err)
	}

	a.bus = eventbus.New(log)
	a.engine = engine.New(engine.Config{
		SourceDir:         cfg.Components.SourceDir,
		Workers:           cfg.Engine.Workers,
		MaxBytesPerSecond: cfg.Engine.MaxBytesPerSecond,
	}, components, a.bus, log)
	a.engine.SetMode(mode)
	for k, v := range productValues(cfg.Product) {
		a.engine.SetValue(k, v)
	}

	a.settings = openSettings(cfg.Settings.Path, log)

	timeout := config.Duration(cfg.Scripts.Timeout, jsctx.DefaultTimeout)
	control, err := newControlContext(ctx, cfg.Scripts, timeout, log)
	if err != nil {
		return nil, err
	}
	a.contexts = append(a.contexts, control)
	component := jsctx.New(domain.ContextComponent, timeout, log)
	a.contexts = append(a.contexts, component)

	deps := wizard.Deps{
		Engine:        a.engine,
		Bridge:        script.NewBridge(log),
		Control:       control,
		Component:     component,
		Dispatcher:    dispatcher,
		Bus:           a.bus,
		Confirmer:     confirmer,
		Preconditions: precheck.FromConfig(cfg.Preconditions),
		Logger:        log,
		Options: wizard.Options{
			SilentStepDelay:  config.Duration(cfg.Wizard.SilentStepDelay, 10*time.Millisecond),
			EngineStartDelay: config.Duration(cfg.Wizard.EngineStartDelay, 30*time.Millisecond),
			AutoSwitch:       cfg.Wizard.AutoSwitch,
		},
	}
	if a.settings != nil {
		deps.Settings = a.settings
	}
	a.wizard = wizard.New(deps)
	if err := a.wizard.InstallDefaultPages(wizard.PageSet{TargetDirectory: cfg.Wizard.TargetDirectoryPage}); err != nil {
		return nil, err
	}

	if err := loadControlScript(ctx, control, cfg.Scripts.Control); err != nil {
		return nil, err
	}
	for _, path := range cfg.Scripts.Component {
		if err := component.LoadFile(path, jsctx.ComponentConstructor); err != nil {
			return nil, err
		}
	}

	ok = true
	return a, nil
}

// Close waits for a running action and releases every resource.
func (a *app) Close(ctx context.Context) {
	if a.wizard != nil {
		a.wizard.Close()
	}
	if a.engine != nil {
		a.engine.Wait()
	}
	if a.bus != nil {
		a.bus.Close()
	}
	for _, sc := range a.contexts {
		if err := sc.Close(ctx); err != nil {
			a.log.Warn("close script context", "context", sc.Name(), "error", err)
		}
	}
	if a.settings != nil {
		if err := a.settings.Close(); err != nil {
			a.log.Warn("close settings", "error", err)
		}
	}
}

// newControlContext picks the script runtime from the control script's
// extension. Without a script the JavaScript context stays empty.
func newControlContext(ctx context.Context, cfg config.ScriptsConfig, timeout time.Duration, log *slog.Logger) (domain.ScriptContext, error) {
	if strings.EqualFold(filepath.Ext(cfg.Control), ".wasm") {
		rc := wasmctx.DefaultRuntimeConfig()
		if cfg.WASMMaxMemoryMB > 0 {
			rc.MaxMemoryPages = uint32(cfg.WASMMaxMemoryMB) * 16
		}
		rc.ExecTimeout = timeout
		return wasmctx.New(ctx, domain.ContextControl, rc, log)
	}
	return jsctx.New(domain.ContextControl, timeout, log), nil
}

func loadControlScript(ctx context.Context, sc domain.ScriptContext, path string) error {
	if path == "" {
		return nil
	}
	switch c := sc.(type) {
	case *wasmctx.Context:
		return c.LoadFile(ctx, path)
	case *jsctx.Context:
		return c.LoadFile(path, jsctx.ControllerConstructor)
	}
	return fmt.Errorf("%w: no loader for %s", domain.ErrScriptLoad, path)
}

// openSettings opens the settings store. A store that cannot be opened
// disables path memory instead of failing the run.
func openSettings(path string, log *slog.Logger) domain.SettingsStore {
	if path == "" {
		return nil
	}
	store, err := settings.NewSQLiteStore(path)
	if err != nil {
		log.Warn("settings store unavailable", "path", path, "error", err)
		return nil
	}
	return store
}

// productValues maps the product section onto engine values. Explicit
// values win over the well-known keys.
func productValues(p config.ProductConfig) map[string]string {
	out := map[string]string{
		domain.KeyProductName:    p.Name,
		domain.KeyTitle:          p.Title,
		domain.KeyProductVersion: p.Version,
		domain.KeyPublisher:      p.Publisher,
		domain.KeyTargetDir:      p.TargetDir,
	}
	for k, v := range p.Values {
		out[k] = v
	}
	return out
}

// buildComponents converts configured components, reading license files
// into the license text.
func buildComponents(items []config.ComponentConfig) ([]domain.Component, error) {
	out := make([]domain.Component, 0, len(items))
	for _, it := range items {
		c := domain.Component{
			Name:        it.Name,
			DisplayName: it.DisplayName,
			Description: it.Description,
			Version:     it.Version,
			Default:     it.Default,
			Files:       it.Files,
		}
		for _, l := range it.Licenses {
			lic := domain.License{Name: l.Name, File: l.File, Text: l.Text}
			if lic.Text == "" && lic.File != "" {
				data, err := os.ReadFile(lic.File)
				if err != nil {
					return nil, fmt.Errorf("component %s: license %s: %w", it.Name, l.Name, err)
				}
				lic.Text = string(data)
			}
			c.Licenses = append(c.Licenses, lic)
		}
		out = append(out, c)
	}
	return out, nil
}
