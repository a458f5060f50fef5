package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Registry.InsertAt", ErrDuplicateSlot, "id 0x1000")
	want := "Registry.InsertAt: id 0x1000: page slot already occupied: duplicate"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Engine.Run", ErrEngineBusy, "")
	want := "Engine.Run: install engine already running"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("Registry.InsertAt", ErrDuplicateSlot, "")
	assert.True(t, errors.Is(err, ErrDuplicateSlot))
	assert.True(t, errors.Is(err, ErrDuplicate), "slot errors are duplicates")
}

func TestDomainErrorAs(t *testing.T) {
	err := WrapOp("Settings.Set", NewDomainError("sqlite.exec", ErrSettingsStore, "locked"))
	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "sqlite.exec", de.Op)
}

func TestErrorCodeOf_DirectSentinel(t *testing.T) {
	assert.Equal(t, CodeDuplicateSlot, ErrorCodeOf(ErrDuplicateSlot))
	assert.Equal(t, CodeScriptHook, ErrorCodeOf(ErrScriptHook))
	assert.Equal(t, CodePrecondition, ErrorCodeOf(ErrPrecondition))
}

func TestErrorCodeOf_WrappedPrefersSpecific(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", ErrDuplicateSlot)
	assert.Equal(t, CodeDuplicateSlot, ErrorCodeOf(wrapped))
}

func TestErrorCodeOf_SubSystem(t *testing.T) {
	err := NewSubSystemError("wizard", "Controller.RemoveWidget", ErrNotFound, "banner")
	assert.Equal(t, CodePageNotFound, ErrorCodeOf(err))
	assert.Equal(t, CodePageNotFound, err.Code())

	fallback := NewSubSystemError("nope", "Op", ErrNotFound, "")
	assert.Equal(t, CodeNotFound, fallback.Code())
}

func TestErrorCodeOf_Unknown(t *testing.T) {
	assert.Equal(t, CodeUnknown, ErrorCodeOf(nil))
	assert.Equal(t, CodeUnknown, ErrorCodeOf(fmt.Errorf("some random error")))
	assert.Equal(t, CodeUnknown, NewDomainError("Op", fmt.Errorf("custom"), "").Code())
}

func TestAllSentinelsHaveCodes(t *testing.T) {
	for _, s := range append(append([]error{}, specificSentinels...), categorySentinels...) {
		code := ErrorCodeOf(s)
		assert.NotEqual(t, CodeUnknown, code, "sentinel %q has no code", s)
	}
}

func TestWrapOp(t *testing.T) {
	assert.NoError(t, WrapOp("op", nil))
	err := WrapOp("Wizard.Advance", ErrValidation)
	assert.Equal(t, "Wizard.Advance: page validation failed", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPreconditionError(t *testing.T) {
	err := &PreconditionError{Check: "gpu", Code: ExitGpuNotExist, Err: errors.New("no /dev/dri")}
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, "precondition gpu: no /dev/dri", err.Error())
	assert.Equal(t, ExitGpuNotExist, ExitCodeOf(fmt.Errorf("silent: %w", err)))
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeOf(nil))
	assert.Equal(t, ExitCanceled, ExitCodeOf(ErrCanceled))
	assert.Equal(t, ExitValidationFailed, ExitCodeOf(WrapOp("advance", ErrValidation)))
	assert.Equal(t, ExitConfigError, ExitCodeOf(ErrConfigLoad))
	assert.Equal(t, ExitFailure, ExitCodeOf(errors.New("boom")))
}
