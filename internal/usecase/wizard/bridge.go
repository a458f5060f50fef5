package wizard

import "installer-shell/internal/domain"

// HookSuffix is appended to a page object name to form its lifecycle hook.
const HookSuffix = "Callback"

// Bridge binds wizard objects into script contexts and invokes
// conventional hooks. Implementations recover from script failures
// locally and never return them to the wizard.
type Bridge interface {
	// Bind registers obj as global in sc together with final, commit and
	// complete accessors forwarding to obj.
	Bind(sc domain.ScriptContext, global string, obj domain.Bindable, methods map[string]domain.ScriptFunc)
	// Unbind removes global from sc. It is idempotent.
	Unbind(sc domain.ScriptContext, global string)
	// InvokeHook calls <label><suffix> in sc if it exists.
	InvokeHook(sc domain.ScriptContext, label, suffix string)
	// Call invokes method in sc with args. found is false when the method
	// does not exist or the context is not ready.
	Call(sc domain.ScriptContext, method string, args ...any) (result any, found bool, err error)
}
