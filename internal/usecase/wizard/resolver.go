package wizard

import "installer-shell/internal/domain"

// Resolver computes the page shown after the current one. Mode and
// component state are read from the engine on every call.
type Resolver struct {
	registry *Registry
	engine   domain.InstallEngine
}

// NewResolver creates a resolver over registry.
func NewResolver(registry *Registry, engine domain.InstallEngine) *Resolver {
	return &Resolver{registry: registry, engine: engine}
}

// Resolve returns the id to advance to from current, or PageNone when the
// wizard has nowhere further to go.
func (r *Resolver) Resolve(current domain.PageID) domain.PageID {
	if page, ok := r.registry.Get(current); ok && page.IsFinal() {
		return domain.PageNone
	}

	mode := r.engine.Mode()
	switch current {
	case domain.PageIntroduction:
		if mode.IsUninstaller() && r.registry.Contains(domain.PageReadyForInstallation) {
			return domain.PageReadyForInstallation
		}
	case domain.PagePerformInstallation:
		if r.engine.Status() == domain.StatusFailure && r.registry.Contains(domain.PageInstallationError) {
			return domain.PageInstallationError
		}
		if r.registry.Contains(domain.PageInstallationFinished) {
			return domain.PageInstallationFinished
		}
	}

	next := r.registry.Successor(current)
	if next == domain.PageLicenseCheck && !r.licensePageRequired(mode) {
		// Looked up in the live registry so dynamically inserted pages after
		// the license page are honoured.
		return r.registry.Successor(next)
	}
	return next
}

func (r *Resolver) licensePageRequired(mode domain.RunMode) bool {
	return !mode.IsUninstaller() && len(r.LicensedComponents()) > 0
}

// LicensedComponents recomputes the components to install and returns the
// ones that declare a license. Components already installed are skipped
// when maintaining an existing installation.
func (r *Resolver) LicensedComponents() []domain.Component {
	mode := r.engine.Mode()
	var out []domain.Component
	for _, c := range r.engine.ComponentsToInstall() {
		if mode.IsMaintainer() && c.Installed {
			continue
		}
		if c.HasLicense() {
			out = append(out, c)
		}
	}
	return out
}
