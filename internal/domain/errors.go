package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Use with NewSubSystemError for subsystem-specific errors.
var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrDuplicate    = fmt.Errorf("duplicate")
	ErrTimeout      = fmt.Errorf("operation timed out")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrUnsupported  = fmt.Errorf("unsupported")
)

// Sentinel errors for the domain layer.
var (
	ErrDuplicateSlot  = fmt.Errorf("page slot already occupied: %w", ErrDuplicate)
	ErrScriptHook     = fmt.Errorf("script hook failed")
	ErrScriptLoad     = fmt.Errorf("script load failed")
	ErrScriptProperty = fmt.Errorf("script property access failed")
	ErrValidation     = fmt.Errorf("page validation failed")
	ErrPrecondition   = fmt.Errorf("precondition not met")
	ErrSettingsStore  = fmt.Errorf("settings store failed")
	ErrConfigLoad     = fmt.Errorf("failed to load configuration")
	ErrEngine         = fmt.Errorf("install engine failed")
	ErrEngineBusy     = fmt.Errorf("install engine already running")
	ErrCanceled       = fmt.Errorf("installation canceled")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op        string // operation name (e.g., "Registry.InsertAt")
	Err       error  // underlying sentinel or wrapped error
	Detail    string // human-readable detail
	SubSystem string // subsystem identifier (e.g., "script", "settings"); used for ErrorCode dispatch
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// NewSubSystemError creates a DomainError tagged with a subsystem for ErrorCode dispatch.
func NewSubSystemError(subsystem, op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail, SubSystem: subsystem}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// PreconditionError reports an environment check that failed before the
// first real page transition. Code is the process exit code used in silent mode.
type PreconditionError struct {
	Check string
	Code  ExitCode
	Err   error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition %s: %s", e.Check, e.Err)
	}
	return fmt.Sprintf("precondition %s failed", e.Check)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// ExitCodeOf maps an error to the process exit code used by silent runs.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe.Code
	}
	switch {
	case errors.Is(err, ErrCanceled):
		return ExitCanceled
	case errors.Is(err, ErrValidation):
		return ExitValidationFailed
	case errors.Is(err, ErrConfigLoad):
		return ExitConfigError
	}
	return ExitFailure
}

// ErrorCode is a machine-parseable error category for monitoring and alerting.
type ErrorCode string

const (
	CodeUnknown        ErrorCode = "UNKNOWN"
	CodeDuplicateSlot  ErrorCode = "DUPLICATE_SLOT"
	CodeScriptHook     ErrorCode = "SCRIPT_HOOK"
	CodeScriptLoad     ErrorCode = "SCRIPT_LOAD"
	CodeScriptProperty ErrorCode = "SCRIPT_PROPERTY"
	CodeValidation     ErrorCode = "VALIDATION"
	CodePrecondition   ErrorCode = "PRECONDITION"
	CodeSettingsStore  ErrorCode = "SETTINGS_STORE"
	CodeConfigLoad     ErrorCode = "CONFIG_LOAD"
	CodeEngine         ErrorCode = "ENGINE"
	CodeEngineBusy     ErrorCode = "ENGINE_BUSY"
	CodeCanceled       ErrorCode = "CANCELED"

	// Subsystem-specific codes used by subSystemCodeMap.
	CodePageNotFound      ErrorCode = "PAGE_NOT_FOUND"
	CodeComponentNotFound ErrorCode = "COMPONENT_NOT_FOUND"
	CodeSettingNotFound   ErrorCode = "SETTING_NOT_FOUND"
	CodeWASMLoad          ErrorCode = "WASM_LOAD"
	CodeWASMTimeout       ErrorCode = "WASM_TIMEOUT"
	CodeScriptTimeout     ErrorCode = "SCRIPT_TIMEOUT"
	CodeWidgetDuplicate   ErrorCode = "WIDGET_DUPLICATE"

	// Category error codes. Fallback when no subsystem-specific code matches.
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeDuplicate    ErrorCode = "DUPLICATE"
	CodeTimeout      ErrorCode = "TIMEOUT"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeUnsupported  ErrorCode = "UNSUPPORTED"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrNotFound:     CodeNotFound,
	ErrDuplicate:    CodeDuplicate,
	ErrTimeout:      CodeTimeout,
	ErrInvalidInput: CodeInvalidInput,
	ErrUnsupported:  CodeUnsupported,

	ErrDuplicateSlot:  CodeDuplicateSlot,
	ErrScriptHook:     CodeScriptHook,
	ErrScriptLoad:     CodeScriptLoad,
	ErrScriptProperty: CodeScriptProperty,
	ErrValidation:     CodeValidation,
	ErrPrecondition:   CodePrecondition,
	ErrSettingsStore:  CodeSettingsStore,
	ErrConfigLoad:     CodeConfigLoad,
	ErrEngine:         CodeEngine,
	ErrEngineBusy:     CodeEngineBusy,
	ErrCanceled:       CodeCanceled,
}

// subSystemCodeMap maps (category sentinel, subsystem) pairs to specific ErrorCodes.
var subSystemCodeMap = map[error]map[string]ErrorCode{
	ErrNotFound: {
		"wizard":   CodePageNotFound,
		"engine":   CodeComponentNotFound,
		"settings": CodeSettingNotFound,
	},
	ErrDuplicate: {
		"wizard": CodeWidgetDuplicate,
	},
	ErrTimeout: {
		"wasm":   CodeWASMTimeout,
		"script": CodeScriptTimeout,
	},
	ErrInvalidInput: {
		"wasm": CodeWASMLoad,
	},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It unwraps DomainError and uses errors.Is to match sentinel errors.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	if code, ok := errorCodeMap[err]; ok {
		return code
	}

	var de *DomainError
	if errors.As(err, &de) {
		if code := de.Code(); code != CodeUnknown {
			return code
		}
	}

	// Specific sentinels wrap category sentinels (ErrDuplicateSlot wraps
	// ErrDuplicate), so they are checked first.
	for _, sentinel := range specificSentinels {
		if errors.Is(err, sentinel) {
			return errorCodeMap[sentinel]
		}
	}
	for _, sentinel := range categorySentinels {
		if errors.Is(err, sentinel) {
			return errorCodeMap[sentinel]
		}
	}

	return CodeUnknown
}

var (
	specificSentinels = []error{
		ErrDuplicateSlot, ErrScriptHook, ErrScriptLoad, ErrScriptProperty,
		ErrValidation, ErrPrecondition, ErrSettingsStore, ErrConfigLoad,
		ErrEngine, ErrEngineBusy, ErrCanceled,
	}
	categorySentinels = []error{
		ErrNotFound, ErrDuplicate, ErrTimeout, ErrInvalidInput, ErrUnsupported,
	}
)

// Code returns the ErrorCode for this DomainError's underlying sentinel.
// If SubSystem is set, checks the subSystemCodeMap for a specific code.
func (e *DomainError) Code() ErrorCode {
	if e.SubSystem != "" {
		if subsysMap, ok := subSystemCodeMap[e.Err]; ok {
			if code, ok := subsysMap[e.SubSystem]; ok {
				return code
			}
		}
	}
	if code, ok := errorCodeMap[e.Err]; ok {
		return code
	}
	return CodeUnknown
}
