package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	// Engine lifecycle events.
	EventInstallationStarted    EventType = "installation.started"
	EventInstallationFinished   EventType = "installation.finished"
	EventUninstallationStarted  EventType = "uninstallation.started"
	EventUninstallationFinished EventType = "uninstallation.finished"
	EventUpdateStarted          EventType = "update.started"
	EventUpdateFinished         EventType = "update.finished"
	EventComponentProcessed     EventType = "component.processed"
	EventInstallationInterrupt  EventType = "installation.interrupted"

	// Wizard events.
	EventPageEntered EventType = "wizard.page.entered"
	EventPageLeft    EventType = "wizard.page.left"
	EventWizardClose EventType = "wizard.closed"
)

// StartedEvent returns the "<action>Started" event for mode.
func StartedEvent(mode RunMode) EventType {
	switch mode {
	case ModeUninstall:
		return EventUninstallationStarted
	case ModeUpdate, ModeMaintain:
		return EventUpdateStarted
	}
	return EventInstallationStarted
}

// FinishedEvent returns the completion event for mode.
func FinishedEvent(mode RunMode) EventType {
	switch mode {
	case ModeUninstall:
		return EventUninstallationFinished
	case ModeUpdate, ModeMaintain:
		return EventUpdateFinished
	}
	return EventInstallationFinished
}

// Event is the envelope published on the event bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	RunID     string          `json:"run_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// FinishedPayload is carried by the *.finished events.
type FinishedPayload struct {
	Status EngineStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// ComponentPayload is carried by EventComponentProcessed.
type ComponentPayload struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// EventHandler is a callback invoked when an event is received.
type EventHandler func(ctx context.Context, event Event)

// EventBus provides a publish/subscribe mechanism for domain events.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, event Event)
	// Subscribe registers a handler for a specific event type.
	// Returns an unsubscribe function.
	Subscribe(eventType EventType, handler EventHandler) func()
	// SubscribeAll registers a handler that receives every event.
	// Returns an unsubscribe function.
	SubscribeAll(handler EventHandler) func()
	// Close drains in-flight handlers and prevents new publishes.
	Close()
}
