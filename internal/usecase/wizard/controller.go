package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"installer-shell/internal/domain"
	"installer-shell/internal/infra/tracer"
)

// Options tunes controller timing and behaviour.
type Options struct {
	// SilentStepDelay separates automated advance steps in silent runs.
	SilentStepDelay time.Duration
	// EngineStartDelay is how long the progress page waits before starting the engine.
	EngineStartDelay time.Duration
	// AutoSwitch advances past the progress page as soon as the engine finishes.
	AutoSwitch bool
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Engine        domain.InstallEngine
	Bridge        Bridge
	Control       domain.ScriptContext
	Component     domain.ScriptContext
	Settings      domain.SettingsStore
	Dispatcher    domain.Dispatcher
	Bus           domain.EventBus
	Confirmer     Confirmer
	Preconditions []domain.Precondition
	Logger        *slog.Logger
	Options       Options
}

// AdvanceResult reports the outcome of Advance.
type AdvanceResult struct {
	Moved bool
	// Terminal is set when the current page has no successor.
	Terminal bool
	// Message is the page-local error of a failed validation.
	Message string
}

// Controller owns the page registry and the current page, and is the only
// component that mutates them. All methods must be called on the wizard thread.
type Controller struct {
	registry *Registry
	removed  map[domain.PageID]*Page
	resolver *Resolver
	driver   *Driver

	engine        domain.InstallEngine
	bridge        Bridge
	control       domain.ScriptContext
	component     domain.ScriptContext
	settings      domain.SettingsStore
	dispatcher    domain.Dispatcher
	bus           domain.EventBus
	confirmer     Confirmer
	preconditions []domain.Precondition
	observers     []Observer
	logger        *slog.Logger
	opts          Options

	widgets        map[string]*Widget
	acceptLicenses func(bool)

	// ctx is the run context handed to Start or RunSilent. Timer and event
	// callbacks reuse it.
	ctx context.Context

	modified   bool
	autoSwitch bool
	silent     bool
	closed     bool
	exitCode   domain.ExitCode
	unsub      []func()
}

// New creates a controller with an empty registry. Call AddPage or
// InstallDefaultPages before Start.
func New(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Options.EngineStartDelay <= 0 {
		deps.Options.EngineStartDelay = 30 * time.Millisecond
	}
	if deps.Options.SilentStepDelay <= 0 {
		deps.Options.SilentStepDelay = 10 * time.Millisecond
	}

	c := &Controller{
		registry:      NewRegistry(),
		removed:       make(map[domain.PageID]*Page),
		engine:        deps.Engine,
		bridge:        deps.Bridge,
		control:       deps.Control,
		component:     deps.Component,
		settings:      deps.Settings,
		dispatcher:    deps.Dispatcher,
		bus:           deps.Bus,
		confirmer:     deps.Confirmer,
		preconditions: deps.Preconditions,
		logger:        logger.With("component", "wizard"),
		opts:          deps.Options,
		widgets:       make(map[string]*Widget),
		autoSwitch:    deps.Options.AutoSwitch,
		ctx:           context.Background(),
	}
	if c.confirmer == nil {
		c.confirmer = AlwaysConfirm
	}
	c.resolver = NewResolver(c.registry, c.engine)
	c.driver = NewDriver(c.registry, c.bridge, c.control, c, c.logger)
	c.registerScriptAPI()
	c.subscribeEngine()
	return c
}

// AddObserver registers o for state change notifications.
func (c *Controller) AddObserver(o Observer) { c.observers = append(c.observers, o) }

// Registry exposes the page sequence for read-only use by front-ends.
func (c *Controller) Registry() *Registry { return c.registry }

// Resolver exposes next-page computation.
func (c *Controller) Resolver() *Resolver { return c.resolver }

// Engine returns the install engine driven by the wizard.
func (c *Controller) Engine() domain.InstallEngine { return c.engine }

// CurrentID returns the active page id.
func (c *Controller) CurrentID() domain.PageID { return c.driver.Current() }

// CurrentPage returns the active page, if any.
func (c *Controller) CurrentPage() (*Page, bool) { return c.registry.Get(c.driver.Current()) }

// Visited returns the ids transitioned to so far.
func (c *Controller) Visited() []domain.PageID { return c.driver.Visited() }

// IsSilent reports whether the wizard runs headless.
func (c *Controller) IsSilent() bool { return c.silent }

// IsModified reports whether the page graph was mutated at runtime.
func (c *Controller) IsModified() bool { return c.modified }

// IsClosed reports whether the wizard was finished or rejected.
func (c *Controller) IsClosed() bool { return c.closed }

// ExitCode returns the code the wizard closed with.
func (c *Controller) ExitCode() domain.ExitCode { return c.exitCode }

// SetAutomatedPageSwitchEnabled controls whether the progress page advances by itself.
func (c *Controller) SetAutomatedPageSwitchEnabled(v bool) { c.autoSwitch = v }

// AddPage registers a page at a fixed id and binds it into the control context.
func (c *Controller) AddPage(id domain.PageID, p *Page) error {
	if err := c.registry.InsertAt(id, p); err != nil {
		return err
	}
	p.onChange = c.pageChanged
	if c.control != nil {
		c.bridge.Bind(c.control, p.Name(), p, nil)
	}
	c.refreshPageIndex()
	return nil
}

// InsertDynamicPage wraps w in a new page placed before the page at
// before, or as close as possible before it when that slot is taken. Any
// page already wrapping w is removed first. It returns the id used.
func (c *Controller) InsertDynamicPage(w *Widget, before domain.PageID) domain.PageID {
	c.RemoveDynamicPage(w)

	id := c.registry.FindFirstFreeSlotAtOrBefore(before - 1)
	p := newDynamicPage(w)
	p.onChange = c.pageChanged
	// The slot was just checked free; InsertAt cannot fail here.
	_ = c.registry.InsertAt(id, p)
	c.widgets[w.Name()] = w
	c.modified = true

	for _, sc := range c.scriptContexts() {
		c.bridge.Bind(sc, p.Name(), p, nil)
		c.bridge.Bind(sc, w.Name(), w, nil)
	}
	c.logger.Debug("dynamic page inserted", "page", p.Name(), "id", id.String(), "requested", before.String())
	c.refreshPageIndex()
	return id
}

// RemoveDynamicPage removes the page wrapping w. Unknown content is a no-op.
func (c *Controller) RemoveDynamicPage(w *Widget) {
	id, ok := c.registry.FindByContent(w)
	if !ok {
		id, ok = c.findRemovedByContent(w)
		if !ok {
			return
		}
		delete(c.removed, id)
	} else {
		c.registry.RemoveByID(id)
	}

	name := DynamicPrefix + w.Name()
	for _, sc := range c.scriptContexts() {
		c.bridge.Unbind(sc, name)
		c.bridge.Unbind(sc, w.Name())
	}
	w.detach()
	c.modified = true
	c.logger.Debug("dynamic page removed", "page", name, "id", id.String())
	c.refreshPageIndex()
}

func (c *Controller) findRemovedByContent(w *Widget) (domain.PageID, bool) {
	for id, p := range c.removed {
		if p.content == w {
			return id, true
		}
	}
	return domain.PageNone, false
}

// SetPageVisible hides the page at id into the removed-page cache, or
// restores the identical page from it.
func (c *Controller) SetPageVisible(id domain.PageID, visible bool) {
	if visible {
		if p, ok := c.removed[id]; ok && !c.registry.Contains(id) {
			delete(c.removed, id)
			_ = c.registry.InsertAt(id, p)
			c.modified = true
		}
	} else if p, ok := c.registry.RemoveByID(id); ok {
		c.removed[id] = p
		c.modified = true
	}
	c.refreshPageIndex()
}

// InsertWidget places w on the page at id at the given position and binds
// it into the component context.
func (c *Controller) InsertWidget(w *Widget, id domain.PageID, position int) error {
	p, ok := c.registry.Get(id)
	if !ok {
		return domain.NewSubSystemError("wizard", "Controller.InsertWidget", domain.ErrNotFound, fmt.Sprintf("page %s", id))
	}
	if owner, ok := c.registry.FindWidget(w); ok {
		owner.RemoveWidget(w)
	}
	p.InsertWidget(position, w)
	c.widgets[w.Name()] = w
	if c.component != nil {
		c.bridge.Bind(c.component, w.Name(), w, nil)
	}
	c.pageChanged(p)
	return nil
}

// RemoveWidget removes w from whichever page holds it. It reports whether
// w was found.
func (c *Controller) RemoveWidget(w *Widget) bool {
	p, ok := c.registry.FindWidget(w)
	if !ok {
		return false
	}
	p.RemoveWidget(w)
	if c.component != nil {
		c.bridge.Unbind(c.component, w.Name())
	}
	c.pageChanged(p)
	return true
}

// Widget returns content previously created by name.
func (c *Controller) Widget(name string) (*Widget, bool) {
	w, ok := c.widgets[name]
	return w, ok
}

// SetMode switches the run mode. It is only allowed before the wizard has
// moved past the introduction page.
func (c *Controller) SetMode(mode domain.RunMode) error {
	cur := c.driver.Current()
	if cur != domain.PageNone && cur > domain.PageIntroduction {
		return domain.NewDomainError("Controller.SetMode", domain.ErrInvalidInput, "mode is fixed after the introduction page")
	}
	c.engine.SetMode(mode)
	if p, ok := c.registry.Get(domain.PageIntroduction); ok {
		c.pageChanged(p)
	}
	c.refreshPageIndex()
	return nil
}

// Start makes the first transition into the lowest page.
func (c *Controller) Start(ctx context.Context) {
	c.ctx = ctx
	c.driver.GoTo(ctx, c.registry.First())
}

// CheckPreconditions runs every environment check and returns the first
// failure. Interactive front-ends offer a retry.
func (c *Controller) CheckPreconditions(ctx context.Context) error {
	for _, pc := range c.preconditions {
		if err := pc.Check(ctx); err != nil {
			c.logger.Warn("precondition failed", "check", pc.Name(), "error", err)
			return err
		}
		c.logger.Debug("precondition passed", "check", pc.Name())
	}
	return nil
}

// Advance moves to the page computed by the resolver. A failed validation
// leaves the current page unchanged and is reported through the result.
func (c *Controller) Advance(ctx context.Context) AdvanceResult {
	if c.closed {
		return AdvanceResult{Terminal: true}
	}
	ctx, span := tracer.StartSpan(ctx, "wizard.advance")
	defer span.End()

	cur := c.driver.Current()
	if p, ok := c.registry.Get(cur); ok {
		if !p.IsComplete() {
			return AdvanceResult{}
		}
		if err := c.validate(p); err != nil {
			tracer.RecordError(span, err)
			c.logger.Info("page validation failed", "page", p.Name(), "error", err)
			for _, o := range c.observers {
				o.ValidationFailed(p, p.Message())
			}
			return AdvanceResult{Message: p.Message()}
		}
	}

	next := c.resolver.Resolve(cur)
	span.SetAttributes(tracer.StringAttr("wizard.next", next.String()))
	if next == domain.PageNone {
		c.finish()
		return AdvanceResult{Terminal: true}
	}
	c.driver.GoTo(ctx, next)
	tracer.SetOK(span)
	return AdvanceResult{Moved: true}
}

// validate runs the page's own check, then any <PageName>Validate script
// method in either context.
func (c *Controller) validate(p *Page) error {
	if err := p.validate(); err != nil {
		return domain.WrapOp(p.Name(), fmt.Errorf("%w: %s", domain.ErrValidation, err))
	}
	for _, sc := range c.scriptContexts() {
		res, found, err := c.bridge.Call(sc, p.Name()+"Validate")
		if !found {
			continue
		}
		msg := ""
		switch v := res.(type) {
		case bool:
			if !v {
				msg = "The page is not valid."
			}
		case string:
			msg = v
		}
		if err != nil {
			msg = err.Error()
		}
		if msg != "" {
			p.message = msg
			return domain.WrapOp(p.Name(), fmt.Errorf("%w: %s", domain.ErrValidation, msg))
		}
	}
	return nil
}

// GoBack moves to the structural predecessor.
func (c *Controller) GoBack(ctx context.Context) bool {
	if c.closed || !c.CanGoBack() {
		return false
	}
	c.driver.GoTo(ctx, c.registry.Predecessor(c.driver.Current()))
	return true
}

// CanGoBack reports whether GoBack would move. Final pages and pages
// following a commit page cannot go back.
func (c *Controller) CanGoBack() bool {
	if cur, ok := c.CurrentPage(); ok && cur.IsFinal() {
		return false
	}
	prev := c.registry.Predecessor(c.driver.Current())
	if prev == domain.PageNone {
		return false
	}
	p, ok := c.registry.Get(prev)
	return ok && !p.IsCommit()
}

// RequestCancel routes a user abort through the current page. Pages that
// cannot be interrupted drop the request; others ask for confirmation.
func (c *Controller) RequestCancel() {
	if c.closed {
		return
	}
	id := c.driver.Current()
	switch id {
	case domain.PageIntroduction, domain.PageInstallationFinished, domain.PageInstallationError:
		c.Reject()
		return
	case domain.PageReadyForInstallation:
		if c.engine.Mode().IsUninstaller() {
			c.Reject()
			return
		}
	}

	page, ok := c.registry.Get(id)
	if ok && !page.IsInterruptible() {
		c.logger.Debug("cancel request dropped", "page", page.Name())
		return
	}

	c.confirmer.Confirm(c.engine.Value(domain.KeyTitle), c.cancelQuestion(page), func(yes bool) {
		if yes {
			c.Reject()
		}
	})
}

func (c *Controller) cancelQuestion(page *Page) string {
	title := c.engine.Value(domain.KeyTitle)
	mode := c.engine.Mode()
	status := c.engine.Status()
	if page != nil && page.IsInterruptible() && status == domain.StatusRunning {
		if mode.IsUninstaller() {
			return "Do you want to cancel the removal process?"
		}
		return fmt.Sprintf("Do you want to cancel the %q installation process?", title)
	}
	switch {
	case mode.IsUninstaller():
		return fmt.Sprintf("Do you want to quit the %q uninstaller application?", title)
	case mode.IsMaintainer():
		return fmt.Sprintf("Do you want to quit the %q maintenance application?", title)
	}
	return fmt.Sprintf("Do you want to quit the %q installer application?", title)
}

// Reject closes the wizard as canceled, interrupting a running engine.
func (c *Controller) Reject() {
	if c.closed {
		return
	}
	if c.engine.Status() == domain.StatusRunning {
		c.engine.Interrupt()
	}
	c.close(domain.ExitCanceled)
}

// Abort closes the wizard with the exit code mapped from err. Front-ends
// call it when the user gives up after a failed precondition.
func (c *Controller) Abort(err error) {
	if c.closed {
		return
	}
	c.logger.Error("wizard aborted", "error", err)
	c.close(domain.ExitCodeOf(err))
}

// finish closes the wizard from a page without successor.
func (c *Controller) finish() {
	code := domain.ExitSuccess
	if c.driver.Current() == domain.PageInstallationError || c.engine.Status() == domain.StatusFailure {
		code = domain.ExitFailure
	}
	c.close(code)
}

func (c *Controller) close(code domain.ExitCode) {
	if c.closed {
		return
	}
	c.closed = true
	c.exitCode = code
	c.logger.Info("wizard closed", "exit_code", int(code), "reason", code.String())
	c.publish(domain.EventWizardClose, map[string]any{"exit_code": int(code)})
	for _, o := range c.observers {
		o.Closed(code)
	}
}

// Close releases engine subscriptions.
func (c *Controller) Close() {
	for _, u := range c.unsub {
		u()
	}
	c.unsub = nil
}

// ClickButton presses a wizard button after delay, on the wizard thread.
func (c *Controller) ClickButton(name string, delay time.Duration) {
	c.dispatcher.AfterFunc(delay, func() {
		switch name {
		case ButtonNext, ButtonCommit, ButtonFinish:
			c.Advance(c.ctx)
		case ButtonBack:
			c.GoBack(c.ctx)
		case ButtonCancel:
			c.RequestCancel()
		default:
			c.logger.Warn("unknown button", "button", name)
		}
	})
}

// Button names understood by ClickButton.
const (
	ButtonNext   = "NextButton"
	ButtonBack   = "BackButton"
	ButtonCancel = "CancelButton"
	ButtonFinish = "FinishButton"
	ButtonCommit = "CommitButton"
)

// PageIndex returns the current page list.
func (c *Controller) PageIndex() []PageIndexEntry {
	return BuildPageIndex(c.registry, c.driver.Current())
}

func (c *Controller) scriptContexts() []domain.ScriptContext {
	var out []domain.ScriptContext
	for _, sc := range []domain.ScriptContext{c.control, c.component} {
		if sc != nil {
			out = append(out, sc)
		}
	}
	return out
}

func (c *Controller) pageChanged(p *Page) {
	for _, o := range c.observers {
		o.PageChanged(p)
	}
}

// transitionListener implementation.

func (c *Controller) pageLeft(p *Page) {
	c.publish(domain.EventPageLeft, pagePayload(p))
	for _, o := range c.observers {
		o.PageLeft(p)
	}
}

func (c *Controller) pageEntered(p *Page) {
	c.publish(domain.EventPageEntered, pagePayload(p))
	for _, o := range c.observers {
		o.PageEntered(p)
	}
}

func (c *Controller) refreshPageIndex() {
	entries := c.PageIndex()
	for _, o := range c.observers {
		o.PageIndexChanged(entries)
	}
}

func pagePayload(p *Page) map[string]any {
	return map[string]any{"id": int(p.ID()), "name": p.Name()}
}

func (c *Controller) publish(t domain.EventType, payload any) {
	if c.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("marshal event payload", "event", string(t), "error", err)
		return
	}
	c.bus.Publish(c.ctx, domain.Event{
		Type:      t,
		Timestamp: time.Now(),
		RunID:     c.engine.Value(domain.KeyRunID),
		Payload:   data,
	})
}
