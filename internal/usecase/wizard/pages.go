package wizard

import (
	"errors"
	"fmt"
	"strings"

	"installer-shell/internal/domain"
)

// PageSet selects the optional built-in pages.
type PageSet struct {
	TargetDirectory bool
}

// Built-in page object names.
const (
	NameIntroduction       = "IntroductionPage"
	NameTargetDirectory    = "TargetDirectoryPage"
	NameComponentSelection = "ComponentSelectionPage"
	NameLicenseCheck       = "LicenseAgreementPage"
	NameReadyForInstall    = "ReadyForInstallationPage"
	NamePerformInstall     = "PerformInstallationPage"
	NameFinished           = "FinishedPage"
	NameError              = "ErrorPage"
)

// InstallDefaultPages registers the standard installer pages.
func (c *Controller) InstallDefaultPages(set PageSet) error {
	pages := []struct {
		id   domain.PageID
		page *Page
	}{
		{domain.PageIntroduction, c.introductionPage()},
		{domain.PageComponentSelection, c.componentSelectionPage()},
		{domain.PageLicenseCheck, c.licensePage()},
		{domain.PageReadyForInstallation, c.readyPage()},
		{domain.PagePerformInstallation, c.performPage()},
		{domain.PageInstallationFinished, c.finishedPage()},
		{domain.PageInstallationError, c.errorPage()},
	}
	if set.TargetDirectory {
		pages = append(pages, struct {
			id   domain.PageID
			page *Page
		}{domain.PageTargetDirectory, c.targetDirectoryPage()})
	}
	for _, p := range pages {
		if err := c.AddPage(p.id, p.page); err != nil {
			return domain.WrapOp("InstallDefaultPages", err)
		}
	}
	return nil
}

func (c *Controller) productTitle() string {
	if t := c.engine.Value(domain.KeyTitle); t != "" {
		return t
	}
	return c.engine.Value(domain.KeyProductName)
}

func (c *Controller) introductionPage() *Page {
	return NewPage(NameIntroduction, "Welcome", Hooks{
		Entering: func(p *Page) {
			p.SetTitle(fmt.Sprintf("Setup - %s", c.productTitle()))
			switch mode := c.engine.Mode(); {
			case mode.IsUninstaller():
				p.SetSubTitle("Remove all components.")
			case mode.IsUpdater():
				p.SetSubTitle("Update components.")
			case mode.IsPackageManager():
				p.SetSubTitle("Add or remove components.")
			default:
				p.SetSubTitle(fmt.Sprintf("Welcome to the %s setup wizard.", c.productTitle()))
			}
			p.SetComplete(true)
		},
		Validate: func(p *Page) error {
			if c.engine.Mode().IsUninstaller() {
				return nil
			}
			if len(c.engine.Components()) == 0 {
				return errors.New("no components are available for this action")
			}
			return nil
		},
	})
}

func (c *Controller) targetDirectoryPage() *Page {
	return NewPage(NameTargetDirectory, "Installation Folder", Hooks{
		Entering: func(p *Page) {
			p.SetSubTitle(fmt.Sprintf("Please specify the directory where %s will be installed.", c.productTitle()))
			p.SetComplete(strings.TrimSpace(c.engine.Value(domain.KeyTargetDir)) != "")
		},
		Validate: func(p *Page) error {
			dir := strings.TrimSpace(c.engine.Value(domain.KeyTargetDir))
			if dir == "" {
				return errors.New("the installation path cannot be empty")
			}
			if strings.ContainsAny(dir, "\"<>|*?") {
				return errors.New("the installation path contains invalid characters")
			}
			return nil
		},
	})
}

// SetTargetDir updates the installation directory and the completeness
// of the target directory page.
func (c *Controller) SetTargetDir(dir string) {
	c.engine.SetValue(domain.KeyTargetDir, dir)
	if p, ok := c.registry.Get(domain.PageTargetDirectory); ok {
		p.SetComplete(strings.TrimSpace(dir) != "")
	}
}

func (c *Controller) componentSelectionPage() *Page {
	return NewPage(NameComponentSelection, "Select Components", Hooks{
		Entering: func(p *Page) {
			p.SetSubTitle("Please select the components you want to install.")
			c.updateSelectionComplete(p)
		},
	})
}

func (c *Controller) updateSelectionComplete(p *Page) {
	if c.engine.Mode().IsUninstaller() {
		p.SetComplete(true)
		return
	}
	selected := false
	for _, comp := range c.engine.Components() {
		if comp.Selected {
			selected = true
			break
		}
	}
	p.SetComplete(selected)
}

// SetComponentSelected toggles a component and refreshes page completeness.
func (c *Controller) SetComponentSelected(name string, selected bool) error {
	if err := c.engine.SetSelected(name, selected); err != nil {
		return err
	}
	if p, ok := c.registry.Get(domain.PageComponentSelection); ok {
		c.updateSelectionComplete(p)
	}
	return nil
}

func (c *Controller) licensePage() *Page {
	var accepted bool
	p := NewPage(NameLicenseCheck, "License Agreement", Hooks{
		Entering: func(p *Page) {
			p.SetSubTitle("Please read the following license agreements. You must accept the terms to continue.")
			p.SetComplete(accepted)
		},
	})
	c.acceptLicenses = func(v bool) {
		accepted = v
		p.SetComplete(v)
	}
	return p
}

// AcceptLicenses records the user's answer on the license page.
func (c *Controller) AcceptLicenses(v bool) {
	if c.acceptLicenses != nil {
		c.acceptLicenses(v)
	}
}

// LicensedComponents lists the components whose licenses are shown.
func (c *Controller) LicensedComponents() []domain.Component {
	return c.resolver.LicensedComponents()
}

func (c *Controller) readyPage() *Page {
	p := NewPage(NameReadyForInstall, "Ready to Install", Hooks{
		Entering: func(p *Page) {
			title := c.productTitle()
			switch mode := c.engine.Mode(); {
			case mode.IsUninstaller():
				p.SetTitle("Ready to Uninstall")
				p.SetSubTitle(fmt.Sprintf("All %s components will now be removed from your computer.", title))
			case mode.IsMaintainer():
				p.SetTitle("Ready to Update Packages")
				p.SetSubTitle(fmt.Sprintf("Setup is now ready to begin updating %s.", title))
			default:
				p.SetTitle("Ready to Install")
				p.SetSubTitle(fmt.Sprintf("Setup is now ready to begin installing %s into %s.",
					title, c.engine.Value(domain.KeyTargetDir)))
			}
		},
	})
	p.SetCommit(true)
	return p
}

func (c *Controller) performPage() *Page {
	p := NewPage(NamePerformInstall, "Installing", Hooks{
		Entering: func(p *Page) {
			p.SetComplete(false)
			p.SetInterruptible(true)

			mode := c.engine.Mode()
			if mode.IsInstaller() {
				c.rememberInstallPath(c.ctx)
			}
			switch {
			case mode.IsUninstaller():
				p.SetTitle(fmt.Sprintf("Uninstalling %s", c.productTitle()))
			case mode.IsMaintainer():
				p.SetTitle(fmt.Sprintf("Updating components of %s", c.productTitle()))
			default:
				p.SetTitle(fmt.Sprintf("Installing %s", c.productTitle()))
			}
			c.autoSwitch = true
			c.dispatcher.AfterFunc(c.opts.EngineStartDelay, c.runEngine)
		},
		Leaving: func(p *Page) {
			if !c.engine.Mode().IsInstaller() {
				c.forgetInstallPath(c.ctx)
			}
		},
	})
	p.SetCommit(true)
	p.SetListTitle("Installation")
	return p
}

func (c *Controller) runEngine() {
	if c.closed {
		return
	}
	if err := c.engine.Run(c.ctx); err != nil {
		c.logger.Error("engine start failed", "error", err)
		c.onEngineFinished(domain.FinishedEvent(c.engine.Mode()), domain.FinishedPayload{
			Status: domain.StatusFailure,
			Error:  err.Error(),
		})
	}
}

func (c *Controller) finishedPage() *Page {
	p := NewPage(NameFinished, "Completing the Setup Wizard", Hooks{
		Entering: func(p *Page) {
			switch mode := c.engine.Mode(); {
			case mode.IsUninstaller():
				p.SetSubTitle(fmt.Sprintf("%s has been removed from your computer.", c.productTitle()))
			default:
				p.SetSubTitle(fmt.Sprintf("%s is ready in %s.", c.productTitle(), c.engine.Value(domain.KeyTargetDir)))
			}
		},
	})
	p.SetFinal(true)
	p.SetListTitle("Finished")
	return p
}

func (c *Controller) errorPage() *Page {
	p := NewPage(NameError, "Installation Failed", Hooks{})
	p.SetFinal(true)
	p.SetShowOnPageList(false)
	return p
}
