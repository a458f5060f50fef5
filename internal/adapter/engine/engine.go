// Package engine implements a payload install engine that copies component
// files from a source tree into the target directory.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"installer-shell/internal/domain"
	"installer-shell/internal/infra/tracer"
)

// Emitter publishes engine lifecycle events.
type Emitter interface {
	Emit(ctx context.Context, t domain.EventType, runID string, payload any) error
}

// Config controls where payloads come from and how many components are
// processed concurrently.
type Config struct {
	SourceDir string
	Workers   int

	// MaxBytesPerSecond caps the combined copy rate of all workers.
	// Zero means unlimited.
	MaxBytesPerSecond int
}

// Engine is a domain.InstallEngine. It is safe for concurrent use: the
// wizard queries it while a run executes on worker goroutines.
type Engine struct {
	mu         sync.Mutex
	cfg        Config
	mode       domain.RunMode
	components []domain.Component
	values     map[string]string
	status     domain.EngineStatus
	limiter    *rate.Limiter
	cancel     context.CancelFunc
	done       chan struct{}

	emitter Emitter
	logger  *slog.Logger
}

var _ domain.InstallEngine = (*Engine)(nil)

// New creates an engine for the given components. Components marked Default
// start selected.
func New(cfg Config, components []domain.Component, emitter Emitter, logger *slog.Logger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	comps := slices.Clone(components)
	for i := range comps {
		comps[i].Selected = comps[i].Default
	}
	return &Engine{
		cfg:        cfg,
		components: comps,
		values:     make(map[string]string),
		limiter:    newLimiter(cfg.MaxBytesPerSecond),
		emitter:    emitter,
		logger:     logger.With("component", "engine"),
	}
}

func (e *Engine) Mode() domain.RunMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SetMode switches the run mode. Maintainer modes preselect exactly the
// installed components.
func (e *Engine) SetMode(mode domain.RunMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
	e.applySelectionLocked()
}

func (e *Engine) applySelectionLocked() {
	for i := range e.components {
		if e.mode.IsMaintainer() {
			e.components[i].Selected = e.components[i].Installed
		} else {
			e.components[i].Selected = e.components[i].Default
		}
	}
}

func (e *Engine) Components() []domain.Component {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.components)
}

func (e *Engine) SetSelected(name string, selected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.components {
		if e.components[i].Name == name {
			e.components[i].Selected = selected
			return nil
		}
	}
	return domain.NewSubSystemError("engine", "Engine.SetSelected", domain.ErrNotFound, name)
}

// ComponentsToInstall returns the selected components that the next action
// adds to the target. Maintain skips components already installed.
func (e *Engine) ComponentsToInstall() []domain.Component {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toInstallLocked()
}

func (e *Engine) toInstallLocked() []domain.Component {
	if e.mode.IsUninstaller() {
		return nil
	}
	var out []domain.Component
	for _, c := range e.components {
		if !c.Selected {
			continue
		}
		if e.mode == domain.ModeMaintain && c.Installed {
			continue
		}
		out = append(out, c)
	}
	return out
}

// toRemoveLocked returns installed components the next action removes.
func (e *Engine) toRemoveLocked() []domain.Component {
	var out []domain.Component
	for _, c := range e.components {
		if !c.Installed {
			continue
		}
		if e.mode.IsUninstaller() || (e.mode == domain.ModeMaintain && !c.Selected) {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) Status() domain.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Value(key string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values[key]
}

// SetValue stores key. Changing TargetDir reloads the installed state
// recorded under it.
func (e *Engine) SetValue(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = value
	if key == domain.KeyTargetDir {
		e.loadStateLocked(value)
	}
}

func (e *Engine) loadStateLocked(dir string) {
	st, err := readState(dir)
	if err != nil {
		e.logger.Warn("read install state", "dir", dir, "error", err)
	}
	for i := range e.components {
		e.components[i].Installed = st.has(e.components[i].Name)
	}
	if e.mode.IsMaintainer() {
		e.applySelectionLocked()
	}
}

// Run starts the action for the current mode on a background goroutine.
// Completion is reported with the mode's finished event.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.status == domain.StatusRunning {
		e.mu.Unlock()
		return domain.NewSubSystemError("engine", "Engine.Run", domain.ErrEngineBusy, "")
	}
	target := e.values[domain.KeyTargetDir]
	if target == "" {
		e.mu.Unlock()
		return domain.NewSubSystemError("engine", "Engine.Run", domain.ErrInvalidInput, "target directory not set")
	}

	runID := ulid.Make().String()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	mode := e.mode
	install := e.toInstallLocked()
	remove := e.toRemoveLocked()
	e.values[domain.KeyRunID] = runID
	e.status = domain.StatusRunning
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	e.logger.Info("run started", "run_id", runID, "mode", mode.String(),
		"install", len(install), "remove", len(remove), "target", target)
	e.emit(ctx, domain.StartedEvent(mode), runID, nil)

	go func() {
		defer close(done)
		defer cancel()
		err := e.execute(runCtx, runID, target, install, remove)
		e.finish(ctx, mode, runID, err)
	}()
	return nil
}

func (e *Engine) execute(ctx context.Context, runID, target string, install, remove []domain.Component) error {
	ctx, span := tracer.StartSpan(ctx, "engine.run")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("run_id", runID), tracer.IntAttr("components", len(install)+len(remove)))

	st, err := readState(target)
	if err != nil {
		e.logger.Warn("read install state", "dir", target, "error", err)
	}

	total := len(install) + len(remove)
	var processed atomic.Int32
	var stMu sync.Mutex

	// Workers mutate st under stMu, so file lists are read up front.
	recorded := make(map[string][]string, len(remove))
	for _, c := range remove {
		recorded[c.Name] = slices.Clone(st.files(c.Name))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for _, c := range remove {
		files := recorded[c.Name]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := removeComponent(target, files); err != nil {
				return fmt.Errorf("remove %s: %w", c.Name, err)
			}
			stMu.Lock()
			st.drop(c.Name)
			stMu.Unlock()
			e.processed(ctx, runID, c.Name, int(processed.Add(1)), total)
			return nil
		})
	}
	for _, c := range install {
		g.Go(func() error {
			files, err := installComponent(gctx, e.cfg.SourceDir, target, c, e.limiter)
			if err != nil {
				return fmt.Errorf("install %s: %w", c.Name, err)
			}
			stMu.Lock()
			st.put(c.Name, c.Version, files)
			stMu.Unlock()
			e.processed(ctx, runID, c.Name, int(processed.Add(1)), total)
			return nil
		})
	}

	runErr := g.Wait()
	if err := writeState(target, st); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		tracer.RecordError(span, runErr)
	} else {
		tracer.SetOK(span)
	}
	return runErr
}

func (e *Engine) processed(ctx context.Context, runID, name string, index, total int) {
	e.logger.Debug("component processed", "run_id", runID, "component", name, "index", index, "total", total)
	e.emit(ctx, domain.EventComponentProcessed, runID, domain.ComponentPayload{Name: name, Index: index, Total: total})
}

func (e *Engine) finish(ctx context.Context, mode domain.RunMode, runID string, err error) {
	payload := domain.FinishedPayload{Status: domain.StatusSuccess}
	switch {
	case errors.Is(err, context.Canceled):
		payload.Status = domain.StatusCanceled
		payload.Error = domain.ErrCanceled.Error()
	case err != nil:
		payload.Status = domain.StatusFailure
		payload.Error = fmt.Errorf("%w: %w", domain.ErrEngine, err).Error()
	}

	e.mu.Lock()
	e.status = payload.Status
	e.cancel = nil
	target := e.values[domain.KeyTargetDir]
	e.loadStateLocked(target)
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("run finished", "run_id", runID, "status", payload.Status.String(), "error", err)
	} else {
		e.logger.Info("run finished", "run_id", runID, "status", payload.Status.String())
	}
	e.emit(ctx, domain.FinishedEvent(mode), runID, payload)
}

func (e *Engine) emit(ctx context.Context, t domain.EventType, runID string, payload any) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.Emit(context.WithoutCancel(ctx), t, runID, payload); err != nil {
		e.logger.Error("emit event", "event", string(t), "error", err)
	}
}

// Interrupt cancels a running action. The run finishes with StatusCanceled.
func (e *Engine) Interrupt() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		e.logger.Info("run interrupted")
		e.emit(context.Background(), domain.EventInstallationInterrupt, e.Value(domain.KeyRunID), nil)
		cancel()
	}
}

// Wait blocks until the current run, if any, has finished.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}
