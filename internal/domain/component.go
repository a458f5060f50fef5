package domain

import (
	"context"
	"strings"
)

// License is a license text shipped with a component.
type License struct {
	Name string `yaml:"name" json:"name"`
	File string `yaml:"file,omitempty" json:"file,omitempty"`
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
}

// Component is an installable unit known to the install engine.
type Component struct {
	Name        string    `yaml:"name" json:"name"`
	DisplayName string    `yaml:"display_name" json:"display_name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string    `yaml:"version,omitempty" json:"version,omitempty"`
	Default     bool      `yaml:"default" json:"default"`
	Licenses    []License `yaml:"licenses,omitempty" json:"licenses,omitempty"`
	Files       []string  `yaml:"files,omitempty" json:"files,omitempty"`
	Installed   bool      `yaml:"-" json:"installed"`
	Selected    bool      `yaml:"-" json:"selected"`
}

// HasLicense reports whether the component declares at least one non-empty license.
func (c Component) HasLicense() bool {
	for _, l := range c.Licenses {
		if strings.TrimSpace(l.Name) != "" || strings.TrimSpace(l.Text) != "" || l.File != "" {
			return true
		}
	}
	return false
}

// EngineStatus is the state of the install engine's last action.
type EngineStatus int

const (
	StatusUnfinished EngineStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailure
	StatusCanceled
)

func (s EngineStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusCanceled:
		return "canceled"
	}
	return "unfinished"
}

// Well-known engine value keys.
const (
	KeyTargetDir      = "TargetDir"
	KeyPublisher      = "Publisher"
	KeyTitle          = "Title"
	KeyProductName    = "ProductName"
	KeyProductVersion = "ProductVersion"
	KeyRunID          = "RunID"
)

// InstallEngine performs installation work. The wizard treats it as a
// black box: it queries mode and component state and starts actions whose
// completion is reported as events on the EventBus.
type InstallEngine interface {
	Mode() RunMode
	SetMode(mode RunMode)

	// Components returns a snapshot of all known components.
	Components() []Component
	// SetSelected marks a component for installation.
	SetSelected(name string, selected bool) error
	// ComponentsToInstall recomputes and returns the components the next
	// action will install, in installation order.
	ComponentsToInstall() []Component

	Status() EngineStatus
	Value(key string) string
	SetValue(key, value string)

	// Run starts the action for the current mode in the background.
	Run(ctx context.Context) error
	// Interrupt requests the running action to stop.
	Interrupt()
}
