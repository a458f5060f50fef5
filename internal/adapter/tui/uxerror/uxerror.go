// Package uxerror translates raw errors into user-friendly messages with
// recovery hints for the TUI.
package uxerror

import (
	"errors"
	"fmt"
	"strings"

	"installer-shell/internal/adapter/tui/theme"
	"installer-shell/internal/domain"
)

// FriendlyError is a user-facing error with suggestions for recovery.
type FriendlyError struct {
	Title   string   // short heading, e.g. "Missing Requirement"
	Message string   // one-liner explanation
	Hints   []string // actionable recovery suggestions
	Raw     string   // original error text (for debug)
}

// Render formats the FriendlyError for display in the TUI.
func (fe FriendlyError) Render() string {
	var sb strings.Builder
	sb.WriteString(fe.Title)
	if fe.Message != "" {
		sb.WriteString("\n  ")
		sb.WriteString(fe.Message)
	}
	if len(fe.Hints) > 0 {
		sb.WriteString("\n  Suggestions:")
		for _, h := range fe.Hints {
			sb.WriteString(fmt.Sprintf("\n    %s %s", theme.SymbolBullet, h))
		}
	}
	return sb.String()
}

type errorPattern struct {
	match   func(err error) bool
	produce func(err error) FriendlyError
}

var patterns = []errorPattern{
	// Domain errors first so errors.Is/As work through wrapping.
	{
		match: func(err error) bool {
			var pe *domain.PreconditionError
			return errors.As(err, &pe)
		},
		produce: func(err error) FriendlyError {
			var pe *domain.PreconditionError
			errors.As(err, &pe)
			msg := "This system does not meet a requirement of the installer."
			if pe.Err != nil {
				msg = pe.Err.Error()
			}
			return FriendlyError{
				Title:   "Missing Requirement (" + pe.Check + ")",
				Message: msg,
				Hints:   []string{"Install the missing tool or device driver", "Run 'installer doctor' to list every check"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match:   is(domain.ErrConfigLoad),
		produce: constantError("Configuration Error", "The installer configuration could not be read.", []string{"Check the file passed with --config", "Validate the YAML syntax"}),
	},
	{
		match:   is(domain.ErrScriptLoad),
		produce: constantError("Script Error", "A control or component script failed to load.", []string{"Check the script path in config", "Run the script through a JavaScript linter"}),
	},
	{
		match:   is(domain.ErrScriptHook),
		produce: constantError("Script Hook Failed", "A page callback raised an error.", []string{"Check the installer log for the script stack trace"}),
	},
	{
		match:   is(domain.ErrSettingsStore),
		produce: constantError("Settings Unavailable", "Stored installer settings could not be read or written.", []string{"Check permissions on the settings database", "Remove a stale lock held by another installer"}),
	},
	{
		match:   is(domain.ErrEngineBusy),
		produce: constantError("Installation In Progress", "Another installation action is still running.", []string{"Wait for it to finish before retrying"}),
	},
	{
		match:   is(domain.ErrEngine),
		produce: constantError("Installation Failed", "The install engine reported an error.", []string{"Check free disk space in the target directory", "Check write permissions on the target directory"}),
	},
	{
		match:   is(domain.ErrCanceled),
		produce: constantError("Installation Canceled", "The installation was canceled before it completed.", nil),
	},

	// External errors (string matching).
	{
		match:   containsAny("permission denied", "operation not permitted"),
		produce: constantError("Permission Denied", "The installer is not allowed to write to this location.", []string{"Pick a target directory you own", "Run the installer with elevated privileges"}),
	},
	{
		match:   containsAny("no space left"),
		produce: constantError("Disk Full", "There is not enough free space in the target directory.", []string{"Free some disk space", "Choose another target directory"}),
	},
	{
		match:   containsAny("deadline exceeded", "timeout", "context deadline"),
		produce: constantError("Timed Out", "The operation took too long to complete.", []string{"Retry the operation", "Increase the script timeout in config"}),
	},
}

// Humanize converts a raw error into a FriendlyError with recovery hints.
func Humanize(err error) FriendlyError {
	if err == nil {
		return FriendlyError{}
	}

	for _, p := range patterns {
		if p.match(err) {
			return p.produce(err)
		}
	}

	// Fallback for unrecognized errors.
	return FriendlyError{
		Title:   "Unexpected Error",
		Message: err.Error(),
		Raw:     err.Error(),
	}
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// containsAny returns a match func that checks if the error string contains
// any of the given substrings (case-insensitive).
func containsAny(substrs ...string) func(error) bool {
	return func(err error) bool {
		lower := strings.ToLower(err.Error())
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

// constantError returns a produce func that always returns the same FriendlyError.
func constantError(title, message string, hints []string) func(error) FriendlyError {
	return func(err error) FriendlyError {
		return FriendlyError{
			Title:   title,
			Message: message,
			Hints:   hints,
			Raw:     err.Error(),
		}
	}
}
