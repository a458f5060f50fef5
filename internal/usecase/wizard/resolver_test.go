package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installer-shell/internal/domain"
)

func standardRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, id := range []domain.PageID{
		domain.PageIntroduction,
		domain.PageTargetDirectory,
		domain.PageComponentSelection,
		domain.PageLicenseCheck,
		domain.PageReadyForInstallation,
		domain.PagePerformInstallation,
		domain.PageInstallationFinished,
		domain.PageInstallationError,
	} {
		require.NoError(t, r.InsertAt(id, NewPage(id.String(), "", Hooks{})))
	}
	return r
}

func TestResolver_LicensePage(t *testing.T) {
	tests := []struct {
		name  string
		mode  domain.RunMode
		comps []domain.Component
		want  domain.PageID
	}{
		{"install without licenses", domain.ModeInstall, []domain.Component{plain("a")}, domain.PageReadyForInstallation},
		{"install with license", domain.ModeInstall, []domain.Component{plain("a"), licensed("b")}, domain.PageLicenseCheck},
		{"licensed but unselected", domain.ModeInstall, []domain.Component{{Name: "b", Licenses: []domain.License{{Name: "L"}}}}, domain.PageReadyForInstallation},
		{"maintain already installed", domain.ModeMaintain, []domain.Component{func() domain.Component {
			c := licensed("b")
			c.Installed = true
			return c
		}()}, domain.PageReadyForInstallation},
		{"maintain new licensed", domain.ModeMaintain, []domain.Component{licensed("b")}, domain.PageLicenseCheck},
		{"update with license", domain.ModeUpdate, []domain.Component{licensed("b")}, domain.PageLicenseCheck},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFakeEngine(tt.comps...)
			e.mode = tt.mode
			res := NewResolver(standardRegistry(t), e)
			assert.Equal(t, tt.want, res.Resolve(domain.PageComponentSelection))
		})
	}
}

func TestResolver_NoLicensesSkipsLicensePage(t *testing.T) {
	r := NewRegistry()
	for _, id := range []domain.PageID{domain.PageIntroduction, domain.PageLicenseCheck, domain.PageReadyForInstallation} {
		require.NoError(t, r.InsertAt(id, NewPage(id.String(), "", Hooks{})))
	}
	res := NewResolver(r, newFakeEngine())

	assert.Equal(t, domain.PageReadyForInstallation, res.Resolve(domain.PageIntroduction))
}

func TestResolver_UninstallGoesStraightToReady(t *testing.T) {
	for _, comps := range [][]domain.Component{nil, {licensed("a")}, {plain("b")}} {
		e := newFakeEngine(comps...)
		e.mode = domain.ModeUninstall
		res := NewResolver(standardRegistry(t), e)

		assert.Equal(t, domain.PageReadyForInstallation, res.Resolve(domain.PageIntroduction))
	}
}

func TestResolver_LicenseSuccessorIsLive(t *testing.T) {
	r := standardRegistry(t)
	e := newFakeEngine(plain("a"))
	res := NewResolver(r, e)
	require.Equal(t, domain.PageReadyForInstallation, res.Resolve(domain.PageComponentSelection))

	require.NoError(t, r.InsertAt(domain.PageLicenseCheck+1, NewPage("Extra", "", Hooks{})))
	assert.Equal(t, domain.PageLicenseCheck+1, res.Resolve(domain.PageComponentSelection))
}

func TestResolver_AfterPerformInstallation(t *testing.T) {
	e := newFakeEngine()
	res := NewResolver(standardRegistry(t), e)

	e.status = domain.StatusSuccess
	assert.Equal(t, domain.PageInstallationFinished, res.Resolve(domain.PagePerformInstallation))

	e.status = domain.StatusFailure
	assert.Equal(t, domain.PageInstallationError, res.Resolve(domain.PagePerformInstallation))
}

func TestResolver_FinalPageHasNoSuccessor(t *testing.T) {
	r := standardRegistry(t)
	res := NewResolver(r, newFakeEngine())

	p, _ := r.Get(domain.PageInstallationFinished)
	p.SetFinal(true)
	assert.Equal(t, domain.PageNone, res.Resolve(domain.PageInstallationFinished))
	assert.Equal(t, domain.PageNone, res.Resolve(domain.PageInstallationError))
}

func TestResolver_IsMonotonic(t *testing.T) {
	r := standardRegistry(t)
	e := newFakeEngine(licensed("a"))
	res := NewResolver(r, e)

	for _, mode := range []domain.RunMode{domain.ModeInstall, domain.ModeUpdate, domain.ModeUninstall, domain.ModeMaintain} {
		e.mode = mode
		for _, id := range r.OrderedIDs() {
			next := res.Resolve(id)
			if next != domain.PageNone {
				assert.Greater(t, next, id, "mode %s from %s", mode, id)
			}
		}
	}
}
