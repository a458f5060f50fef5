package domain

import "context"

// Script context names.
const (
	ContextControl   = "control"
	ContextComponent = "component"
)

// Page properties mirrored between a dynamic page and its content. They
// are the only properties scripts may read or write through a binding.
const (
	PropFinal    = "final"
	PropCommit   = "commit"
	PropComplete = "complete"
)

// MirroredProperties lists the Prop* names in binding order.
var MirroredProperties = []string{PropFinal, PropCommit, PropComplete}

// IsMirrored reports whether name is one of MirroredProperties.
func IsMirrored(name string) bool {
	switch name {
	case PropFinal, PropCommit, PropComplete:
		return true
	}
	return false
}

// PropertyAccessor forwards script reads and writes of a boolean property
// to live Go state.
type PropertyAccessor struct {
	Get func() bool
	Set func(bool)
}

// ScriptFunc is a Go function exposed as a method on a script object.
type ScriptFunc func(args ...any) (any, error)

// ScriptObject describes a global registered into a script context.
type ScriptObject struct {
	Name    string
	Props   map[string]PropertyAccessor
	Methods map[string]ScriptFunc
}

// ScriptContext is an opaque script environment into which wizard objects
// are registered as named globals.
type ScriptContext interface {
	Name() string
	// Ready reports whether a control script has been loaded.
	Ready() bool
	Register(obj ScriptObject) error
	// Unregister removes a global. Unknown names are ignored.
	Unregister(name string)
	Has(name string) bool
	// Method probes for a callable hook. A missing method is not an error.
	Method(name string) (ScriptFunc, bool)
	Close(ctx context.Context) error
}

// Bindable is a live object whose mirrored boolean properties scripts may
// read and write.
type Bindable interface {
	ObjectName() string
	Property(name string) bool
	SetProperty(name string, v bool)
}
