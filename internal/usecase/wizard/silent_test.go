package wizard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installer-shell/internal/domain"
	"installer-shell/internal/usecase/eventloop"
)

func withDispatcher(d domain.Dispatcher) harnessOption {
	return func(deps *Deps) { deps.Dispatcher = d }
}

// newSilentHarness wires the controller to a real event loop. The fake
// engine finishes with status as soon as it is started.
func newSilentHarness(t *testing.T, e *fakeEngine, status domain.EngineStatus, opts ...harnessOption) (*harness, *eventloop.Loop) {
	t.Helper()
	loop := eventloop.New(discardLogger())
	opts = append(opts, withDispatcher(loop), withConfirmer(ConfirmFunc(func(_, _ string, answer func(bool)) {
		t.Error("silent runs must not prompt")
		answer(false)
	})))
	h := newHarness(t, e, PageSet{TargetDirectory: true}, opts...)
	h.engine.values[domain.KeyTargetDir] = t.TempDir()
	e.onRun = func() {
		loop.Post(func() {
			e.status = status
			h.c.onEngineFinished(domain.FinishedEvent(e.mode), domain.FinishedPayload{Status: status})
		})
	}
	return h, loop
}

func runSilent(t *testing.T, h *harness, loop *eventloop.Loop) domain.ExitCode {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.c.RunSilent(ctx, loop)
}

func TestRunSilent_Success(t *testing.T) {
	h, loop := newSilentHarness(t, newFakeEngine(licensed("core")), domain.StatusSuccess)
	root := h.engine.values[domain.KeyTargetDir]

	code := runSilent(t, h, loop)

	assert.Equal(t, domain.ExitSuccess, code)
	assert.True(t, h.c.IsSilent())
	assert.Equal(t, []domain.PageID{
		domain.PageIntroduction,
		domain.PageTargetDirectory,
		domain.PageComponentSelection,
		domain.PageLicenseCheck,
		domain.PageReadyForInstallation,
		domain.PagePerformInstallation,
		domain.PageInstallationFinished,
	}, h.c.Visited())
	assert.Equal(t, 1, h.engine.runs)
	assert.Equal(t, filepath.Join(root, "Acme", "Demo"), h.engine.Value(domain.KeyTargetDir))
	assert.Equal(t, root, h.settings.data["Acme/demo/path"])
}

func TestRunSilent_Uninstall(t *testing.T) {
	e := newFakeEngine(licensed("core"))
	e.mode = domain.ModeUninstall
	h, loop := newSilentHarness(t, e, domain.StatusSuccess)

	code := runSilent(t, h, loop)

	assert.Equal(t, domain.ExitSuccess, code)
	assert.Equal(t, []domain.PageID{
		domain.PageIntroduction,
		domain.PageReadyForInstallation,
		domain.PagePerformInstallation,
		domain.PageInstallationFinished,
	}, h.c.Visited())
	assert.Equal(t, 1, e.runs)
	assert.Equal(t, domain.ModeUninstall, e.Mode())
	assert.Equal(t, []string{
		"control:IntroductionPageCallback",
		"control:ReadyForInstallationPageCallback",
		"control:PerformInstallationPageCallback",
		"control:FinishedPageCallback",
	}, h.bridge.hooks)
}

func TestRunSilent_UninstallFailure(t *testing.T) {
	e := newFakeEngine(plain("core"))
	e.mode = domain.ModeUninstall
	h, loop := newSilentHarness(t, e, domain.StatusFailure)

	code := runSilent(t, h, loop)

	assert.Equal(t, domain.ExitFailure, code)
	visited := h.c.Visited()
	assert.Equal(t, domain.PageInstallationError, visited[len(visited)-1])
}

func TestRunSilent_EngineFailure(t *testing.T) {
	h, loop := newSilentHarness(t, newFakeEngine(plain("core")), domain.StatusFailure)

	code := runSilent(t, h, loop)

	assert.Equal(t, domain.ExitFailure, code)
	visited := h.c.Visited()
	assert.Equal(t, domain.PageInstallationError, visited[len(visited)-1])
}

func TestRunSilent_PreconditionFailure(t *testing.T) {
	gpu := &domain.PreconditionError{Check: "device:gpu", Code: domain.ExitGpuNotExist}
	h, loop := newSilentHarness(t, newFakeEngine(plain("core")), domain.StatusSuccess,
		withPreconditions(failingCheck(gpu)))

	code := runSilent(t, h, loop)

	assert.Equal(t, domain.ExitGpuNotExist, code)
	assert.Equal(t, []domain.PageID{domain.PageIntroduction}, h.c.Visited())
	assert.Zero(t, h.engine.runs)
}

func failingCheck(err *domain.PreconditionError) domain.Precondition {
	return fakePrecondition{name: err.Check, err: err}
}

func TestRunSilent_ValidationFailure(t *testing.T) {
	h, loop := newSilentHarness(t, newFakeEngine(), domain.StatusSuccess)

	code := runSilent(t, h, loop)

	assert.Equal(t, domain.ExitValidationFailed, code)
	assert.Equal(t, []domain.PageID{domain.PageIntroduction}, h.c.Visited())
}

func TestRunSilent_IncompletePage(t *testing.T) {
	h, loop := newSilentHarness(t, newFakeEngine(domain.Component{Name: "core"}), domain.StatusSuccess)

	code := runSilent(t, h, loop)

	assert.Equal(t, domain.ExitValidationFailed, code)
	assert.Equal(t, domain.PageComponentSelection, h.c.CurrentID())
}

func TestRunSilent_ContextCanceled(t *testing.T) {
	e := newFakeEngine(plain("core"))
	h, loop := newSilentHarness(t, e, domain.StatusSuccess)
	e.onRun = nil // the action never finishes

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	code := h.c.RunSilent(ctx, loop)

	assert.Equal(t, domain.ExitCanceled, code)
	require.Equal(t, domain.PagePerformInstallation, h.c.CurrentID())
	assert.Equal(t, 1, e.interrupted)
}
