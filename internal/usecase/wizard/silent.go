package wizard

import (
	"context"
	"errors"

	"installer-shell/internal/domain"
)

// Loop is the event loop a silent run drives. It is the same dispatcher
// the controller schedules its timers on.
type Loop interface {
	domain.Dispatcher
	// Run processes events until Quit is called or ctx is done.
	Run(ctx context.Context) error
	Quit()
}

type quitObserver struct {
	NopObserver
	loop Loop
}

func (o quitObserver) Closed(domain.ExitCode) { o.loop.Quit() }

// SetSilent marks the wizard and every page as headless. Confirmation
// questions are answered yes.
func (c *Controller) SetSilent(v bool) {
	c.silent = v
	for _, id := range c.registry.OrderedIDs() {
		p, _ := c.registry.Get(id)
		p.SetSilent(v)
	}
	for _, p := range c.removed {
		p.SetSilent(v)
	}
	if v {
		c.confirmer = AlwaysConfirm
	}
}

// RunSilent drives the wizard without rendering through the same Advance
// sequence an interactive user would, and returns the process exit code.
// Precondition failures stop the run after the first transition.
func (c *Controller) RunSilent(ctx context.Context, loop Loop) domain.ExitCode {
	c.ctx = ctx
	c.SetSilent(true)
	c.InitTargetDir(ctx)
	c.AddObserver(quitObserver{loop: loop})

	loop.Post(func() {
		c.driver.GoTo(ctx, c.registry.First())
		if err := c.CheckPreconditions(ctx); err != nil {
			c.logger.Error("silent run aborted", "error", err)
			c.close(domain.ExitCodeOf(err))
			return
		}
		loop.AfterFunc(c.opts.SilentStepDelay, c.silentStep)
	})

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("event loop stopped", "error", err)
	}
	if !c.closed {
		// The context ended before the wizard did.
		c.Reject()
	}
	return c.exitCode
}

// silentStep performs one automated click on the current page.
func (c *Controller) silentStep() {
	if c.closed {
		return
	}
	cur := c.driver.Current()
	page, ok := c.registry.Get(cur)

	if ok && cur == domain.PagePerformInstallation && !page.IsComplete() {
		// Resumed by the engine's finished event.
		return
	}
	if cur == domain.PageLicenseCheck {
		c.AcceptLicenses(true)
	}

	res := c.Advance(c.ctx)
	switch {
	case res.Terminal:
		return
	case res.Message != "":
		c.logger.Error("silent run blocked by validation", "page", page.Name(), "message", res.Message)
		c.close(domain.ExitValidationFailed)
		return
	case !res.Moved:
		name := cur.String()
		if ok {
			name = page.Name()
		}
		c.logger.Error("silent run blocked by incomplete page", "page", name)
		c.close(domain.ExitValidationFailed)
		return
	}

	if c.driver.Current() == domain.PagePerformInstallation {
		return
	}
	c.dispatcher.AfterFunc(c.opts.SilentStepDelay, c.silentStep)
}
