package wizard

import (
	"context"
	"log/slog"

	"installer-shell/internal/domain"
	"installer-shell/internal/infra/tracer"
)

// transitionListener receives lifecycle notifications from the driver.
type transitionListener interface {
	pageLeft(p *Page)
	pageEntered(p *Page)
	refreshPageIndex()
}

// Driver sequences leaving and entering callbacks and script hooks
// whenever the current page changes.
type Driver struct {
	registry *Registry
	bridge   Bridge
	hooks    domain.ScriptContext
	listener transitionListener
	logger   *slog.Logger

	current    domain.PageID
	busy       bool
	pending    domain.PageID
	hasPending bool
	visited    []domain.PageID
}

// NewDriver creates a driver in the NoPage state. Page hooks are invoked
// in the hooks context only; it may be nil.
func NewDriver(registry *Registry, bridge Bridge, hooks domain.ScriptContext, listener transitionListener, logger *slog.Logger) *Driver {
	return &Driver{
		registry: registry,
		bridge:   bridge,
		hooks:    hooks,
		listener: listener,
		logger:   logger,
		current:  domain.PageNone,
	}
}

// Current returns the active page id, PageNone before the first transition.
func (d *Driver) Current() domain.PageID { return d.current }

// Visited returns every id transitioned to, in order.
func (d *Driver) Visited() []domain.PageID {
	out := make([]domain.PageID, len(d.visited))
	copy(out, d.visited)
	return out
}

// GoTo transitions to id. A request made while a transition is running is
// deferred; later requests replace earlier deferred ones.
func (d *Driver) GoTo(ctx context.Context, id domain.PageID) {
	if d.busy {
		d.pending = id
		d.hasPending = true
		d.logger.Debug("transition deferred", "target", id.String())
		return
	}

	d.busy = true
	defer func() { d.busy = false }()

	d.transition(ctx, id)
	for d.hasPending {
		next := d.pending
		d.hasPending = false
		d.transition(ctx, next)
	}
}

func (d *Driver) transition(ctx context.Context, id domain.PageID) {
	_, span := tracer.StartSpan(ctx, "wizard.transition")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("wizard.from", d.current.String()),
		tracer.StringAttr("wizard.to", id.String()),
	)

	if old, ok := d.registry.Get(d.current); ok {
		old.leaving()
		d.listener.pageLeft(old)
	}

	d.current = id
	d.visited = append(d.visited, id)

	page, ok := d.registry.Get(id)
	if ok {
		page.entering()
		d.listener.pageEntered(page)
		d.listener.refreshPageIndex()
	}

	d.executeHooks(id)
	tracer.SetOK(span)
}

// executeHooks invokes <PageName>Callback for the page at id, once. Without
// a page there is no label to derive a hook from, so nothing is called.
func (d *Driver) executeHooks(id domain.PageID) {
	if d.hooks == nil {
		return
	}
	page, ok := d.registry.Get(id)
	if !ok {
		return
	}
	d.bridge.InvokeHook(d.hooks, page.Name(), HookSuffix)
}
