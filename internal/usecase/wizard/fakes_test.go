package wizard

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"installer-shell/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEngine is an in-memory InstallEngine. Run records the call and
// invokes onRun; tests complete the action through finishEngine.
type fakeEngine struct {
	mu          sync.Mutex
	mode        domain.RunMode
	components  []domain.Component
	status      domain.EngineStatus
	values      map[string]string
	runErr      error
	runs        int
	interrupted int
	onRun       func()
}

func newFakeEngine(comps ...domain.Component) *fakeEngine {
	return &fakeEngine{
		components: comps,
		values: map[string]string{
			domain.KeyTitle:       "Demo",
			domain.KeyProductName: "demo",
			domain.KeyPublisher:   "Acme",
		},
	}
}

func (e *fakeEngine) Mode() domain.RunMode { return e.mode }
func (e *fakeEngine) SetMode(m domain.RunMode) {
	e.mode = m
}

func (e *fakeEngine) Components() []domain.Component {
	out := make([]domain.Component, len(e.components))
	copy(out, e.components)
	return out
}

func (e *fakeEngine) SetSelected(name string, selected bool) error {
	for i := range e.components {
		if e.components[i].Name == name {
			e.components[i].Selected = selected
			return nil
		}
	}
	return domain.NewSubSystemError("engine", "fakeEngine.SetSelected", domain.ErrNotFound, name)
}

func (e *fakeEngine) ComponentsToInstall() []domain.Component {
	if e.mode.IsUninstaller() {
		return nil
	}
	var out []domain.Component
	for _, c := range e.components {
		if c.Selected {
			out = append(out, c)
		}
	}
	return out
}

func (e *fakeEngine) Status() domain.EngineStatus { return e.status }

func (e *fakeEngine) Value(key string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values[key]
}

func (e *fakeEngine) SetValue(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = value
}

func (e *fakeEngine) Run(context.Context) error {
	e.runs++
	if e.runErr != nil {
		return e.runErr
	}
	e.status = domain.StatusRunning
	if e.onRun != nil {
		e.onRun()
	}
	return nil
}

func (e *fakeEngine) Interrupt() {
	e.interrupted++
	e.status = domain.StatusCanceled
}

// manualDispatcher queues work until drain is called. Delays are ignored.
type manualDispatcher struct {
	queue []func()
}

func (d *manualDispatcher) Post(fn func()) { d.queue = append(d.queue, fn) }

func (d *manualDispatcher) AfterFunc(_ time.Duration, fn func()) { d.queue = append(d.queue, fn) }

// drain runs queued work, including work queued while draining.
func (d *manualDispatcher) drain(t *testing.T) {
	t.Helper()
	for i := 0; len(d.queue) > 0; i++ {
		if i > 1000 {
			t.Fatal("dispatcher did not settle")
		}
		fn := d.queue[0]
		d.queue = d.queue[1:]
		fn()
	}
}

// fakeScriptContext stores registered objects; methods are looked up on
// the objects named in hooks.
type fakeScriptContext struct {
	name    string
	objects map[string]domain.ScriptObject
}

func newFakeScriptContext(name string) *fakeScriptContext {
	return &fakeScriptContext{name: name, objects: make(map[string]domain.ScriptObject)}
}

func (s *fakeScriptContext) Name() string { return s.name }
func (s *fakeScriptContext) Ready() bool { return true }
func (s *fakeScriptContext) Register(obj domain.ScriptObject) error {
	s.objects[obj.Name] = obj
	return nil
}
func (s *fakeScriptContext) Unregister(name string) { delete(s.objects, name) }
func (s *fakeScriptContext) Has(name string) bool { _, ok := s.objects[name]; return ok }
func (s *fakeScriptContext) Close(context.Context) error { return nil }
func (s *fakeScriptContext) Method(string) (domain.ScriptFunc, bool) { return nil, false }

// call invokes a method of a registered object the way a script would.
func (s *fakeScriptContext) call(t *testing.T, object, method string, args ...any) any {
	t.Helper()
	obj, ok := s.objects[object]
	if !ok {
		t.Fatalf("object %q not registered", object)
	}
	fn, ok := obj.Methods[method]
	if !ok {
		t.Fatalf("method %s.%s not registered", object, method)
	}
	res, err := fn(args...)
	if err != nil {
		t.Fatalf("%s.%s: %v", object, method, err)
	}
	return res
}

// fakeBridge records bindings and hook calls. Script methods are provided
// per context through funcs.
type fakeBridge struct {
	bound map[domain.ScriptContext]map[string]domain.Bindable
	hooks []string
	funcs map[string]func() (any, error)
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		bound: make(map[domain.ScriptContext]map[string]domain.Bindable),
		funcs: make(map[string]func() (any, error)),
	}
}

func (b *fakeBridge) Bind(sc domain.ScriptContext, global string, obj domain.Bindable, _ map[string]domain.ScriptFunc) {
	if b.bound[sc] == nil {
		b.bound[sc] = make(map[string]domain.Bindable)
	}
	b.bound[sc][global] = obj
}

func (b *fakeBridge) Unbind(sc domain.ScriptContext, global string) {
	delete(b.bound[sc], global)
}

func (b *fakeBridge) InvokeHook(sc domain.ScriptContext, label, suffix string) {
	b.hooks = append(b.hooks, sc.Name()+":"+label+suffix)
}

func (b *fakeBridge) Call(sc domain.ScriptContext, method string, _ ...any) (any, bool, error) {
	fn, ok := b.funcs[sc.Name()+":"+method]
	if !ok {
		return nil, false, nil
	}
	res, err := fn()
	return res, true, err
}

func (b *fakeBridge) isBound(sc domain.ScriptContext, global string) bool {
	_, ok := b.bound[sc][global]
	return ok
}

// memSettings is a map-backed SettingsStore.
type memSettings struct {
	data map[string]string
	err  error
}

func newMemSettings() *memSettings { return &memSettings{data: make(map[string]string)} }

func settingsKey(scope domain.SettingsScope, key string) string {
	return scope.Publisher + "/" + scope.Product + "/" + key
}

func (s *memSettings) Get(_ context.Context, scope domain.SettingsScope, key string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.data[settingsKey(scope, key)]
	return v, ok, nil
}

func (s *memSettings) Set(_ context.Context, scope domain.SettingsScope, key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.data[settingsKey(scope, key)] = value
	return nil
}

func (s *memSettings) Remove(_ context.Context, scope domain.SettingsScope, key string) error {
	delete(s.data, settingsKey(scope, key))
	return nil
}

func (s *memSettings) Close() error { return nil }

type fakePrecondition struct {
	name string
	err  error
}

func (p fakePrecondition) Name() string { return p.name }
func (p fakePrecondition) Check(context.Context) error { return p.err }

// recordingObserver captures notifications.
type recordingObserver struct {
	NopObserver
	entered  []domain.PageID
	left     []domain.PageID
	indexes  [][]PageIndexEntry
	failures []string
	closed   []domain.ExitCode
}

func (o *recordingObserver) PageEntered(p *Page) { o.entered = append(o.entered, p.ID()) }
func (o *recordingObserver) PageLeft(p *Page) { o.left = append(o.left, p.ID()) }
func (o *recordingObserver) PageIndexChanged(e []PageIndexEntry) {
	o.indexes = append(o.indexes, e)
}
func (o *recordingObserver) ValidationFailed(_ *Page, msg string) {
	o.failures = append(o.failures, msg)
}
func (o *recordingObserver) Closed(code domain.ExitCode) { o.closed = append(o.closed, code) }

// harness bundles a controller with its fakes.
type harness struct {
	c          *Controller
	engine     *fakeEngine
	dispatcher *manualDispatcher
	bridge     *fakeBridge
	control    *fakeScriptContext
	component  *fakeScriptContext
	settings   *memSettings
	observer   *recordingObserver
}

type harnessOption func(*Deps)

func withPreconditions(pcs ...domain.Precondition) harnessOption {
	return func(d *Deps) { d.Preconditions = pcs }
}

func withConfirmer(cf Confirmer) harnessOption {
	return func(d *Deps) { d.Confirmer = cf }
}

func newHarness(t *testing.T, engine *fakeEngine, pages PageSet, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		engine:     engine,
		dispatcher: &manualDispatcher{},
		bridge:     newFakeBridge(),
		control:    newFakeScriptContext(domain.ContextControl),
		component:  newFakeScriptContext(domain.ContextComponent),
		settings:   newMemSettings(),
		observer:   &recordingObserver{},
	}
	deps := Deps{
		Engine:     engine,
		Bridge:     h.bridge,
		Control:    h.control,
		Component:  h.component,
		Settings:   h.settings,
		Dispatcher: h.dispatcher,
		Logger:     discardLogger(),
		Options:    Options{AutoSwitch: true},
	}
	for _, o := range opts {
		o(&deps)
	}
	h.c = New(deps)
	h.c.AddObserver(h.observer)
	if err := h.c.InstallDefaultPages(pages); err != nil {
		t.Fatalf("InstallDefaultPages: %v", err)
	}
	t.Cleanup(h.c.Close)
	return h
}

func licensed(name string) domain.Component {
	return domain.Component{
		Name:     name,
		Default:  true,
		Selected: true,
		Licenses: []domain.License{{Name: "EULA", Text: "terms"}},
	}
}

func plain(name string) domain.Component {
	return domain.Component{Name: name, Default: true, Selected: true}
}

// finishEngine reports the end of the running action the way the event
// bus subscription would.
func (h *harness) finishEngine(t *testing.T, status domain.EngineStatus, msg string) {
	t.Helper()
	h.engine.status = status
	h.c.onEngineFinished(domain.FinishedEvent(h.engine.mode), domain.FinishedPayload{Status: status, Error: msg})
	h.dispatcher.drain(t)
}
