package wizard

import (
	"context"
	"encoding/json"
	"fmt"

	"installer-shell/internal/domain"
)

// subscribeEngine routes engine lifecycle events onto the wizard thread.
// Handlers run on bus goroutines, so they only post.
func (c *Controller) subscribeEngine() {
	if c.bus == nil || c.dispatcher == nil {
		return
	}

	for _, t := range []domain.EventType{
		domain.EventInstallationStarted,
		domain.EventUninstallationStarted,
		domain.EventUpdateStarted,
	} {
		c.unsub = append(c.unsub, c.bus.Subscribe(t, func(_ context.Context, ev domain.Event) {
			c.dispatcher.Post(func() { c.onEngineStarted(ev.Type) })
		}))
	}

	for _, t := range []domain.EventType{
		domain.EventInstallationFinished,
		domain.EventUninstallationFinished,
		domain.EventUpdateFinished,
	} {
		c.unsub = append(c.unsub, c.bus.Subscribe(t, func(_ context.Context, ev domain.Event) {
			var payload domain.FinishedPayload
			if len(ev.Payload) > 0 {
				if err := json.Unmarshal(ev.Payload, &payload); err != nil {
					c.logger.Warn("decode finished event", "event", string(ev.Type), "error", err)
				}
			}
			c.dispatcher.Post(func() { c.onEngineFinished(ev.Type, payload) })
		}))
	}

	c.unsub = append(c.unsub, c.bus.Subscribe(domain.EventComponentProcessed, func(_ context.Context, ev domain.Event) {
		var payload domain.ComponentPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return
		}
		c.dispatcher.Post(func() { c.onComponentProcessed(payload) })
	}))
}

func (c *Controller) onEngineStarted(t domain.EventType) {
	c.logger.Info("engine started", "event", string(t), "mode", c.engine.Mode().String())
}

func (c *Controller) onEngineFinished(t domain.EventType, payload domain.FinishedPayload) {
	if c.closed {
		return
	}
	c.logger.Info("engine finished", "event", string(t), "status", payload.Status.String(), "error", payload.Error)

	if p, ok := c.registry.Get(domain.PagePerformInstallation); ok {
		p.SetInterruptible(false)
		p.SetComplete(true)
	}
	if payload.Status == domain.StatusFailure {
		if p, ok := c.registry.Get(domain.PageInstallationError); ok && payload.Error != "" {
			p.SetSubTitle(payload.Error)
		}
		if c.engine.Status() != domain.StatusFailure {
			// The action never started, so the resolver cannot see the failure.
			c.showErrorPage()
			return
		}
	}
	c.showFinishedPage()
}

// showFinishedPage moves on once the engine is done: silent runs resume
// their step timer, interactive runs advance when automatic switching is on.
func (c *Controller) showFinishedPage() {
	if c.silent {
		c.dispatcher.AfterFunc(c.opts.SilentStepDelay, c.silentStep)
		return
	}
	if c.autoSwitch && c.driver.Current() == domain.PagePerformInstallation {
		c.Advance(c.ctx)
	}
}

func (c *Controller) showErrorPage() {
	if c.registry.Contains(domain.PageInstallationError) {
		c.driver.GoTo(c.ctx, domain.PageInstallationError)
	} else {
		c.close(domain.ExitFailure)
		return
	}
	if c.silent {
		c.dispatcher.AfterFunc(c.opts.SilentStepDelay, c.silentStep)
	}
}

func (c *Controller) onComponentProcessed(payload domain.ComponentPayload) {
	p, ok := c.registry.Get(domain.PagePerformInstallation)
	if !ok {
		return
	}
	p.SetSubTitle(fmt.Sprintf("%s (%d/%d)", payload.Name, payload.Index, payload.Total))
}
