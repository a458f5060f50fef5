package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageIDString(t *testing.T) {
	assert.Equal(t, "LicenseCheck", PageLicenseCheck.String())
	assert.Equal(t, "None", PageNone.String())
	assert.Equal(t, "0x3fff", PageID(0x3fff).String())
}

func TestParsePageID(t *testing.T) {
	id, ok := ParsePageID("ReadyForInstallation")
	assert.True(t, ok)
	assert.Equal(t, PageReadyForInstallation, id)

	_, ok = ParsePageID("Nope")
	assert.False(t, ok)
}

func TestRunModeQueries(t *testing.T) {
	assert.True(t, ModeInstall.IsInstaller())
	assert.False(t, ModeInstall.IsMaintainer())
	for _, m := range []RunMode{ModeUpdate, ModeUninstall, ModeMaintain} {
		assert.True(t, m.IsMaintainer(), m.String())
	}
	assert.True(t, ModeMaintain.IsPackageManager())

	m, err := ParseRunMode("Uninstaller")
	assert.NoError(t, err)
	assert.Equal(t, ModeUninstall, m)

	_, err = ParseRunMode("sideways")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComponentHasLicense(t *testing.T) {
	assert.False(t, Component{Name: "a"}.HasLicense())
	assert.False(t, Component{Licenses: []License{{Name: "  "}}}.HasLicense())
	assert.True(t, Component{Licenses: []License{{Name: "MIT"}}}.HasLicense())
}

func TestStartedFinishedEvents(t *testing.T) {
	assert.Equal(t, EventInstallationStarted, StartedEvent(ModeInstall))
	assert.Equal(t, EventUninstallationStarted, StartedEvent(ModeUninstall))
	assert.Equal(t, EventUpdateFinished, FinishedEvent(ModeMaintain))
}

func TestParseExitCode(t *testing.T) {
	c, ok := ParseExitCode("gpu-not-exist")
	assert.True(t, ok)
	assert.Equal(t, ExitGpuNotExist, c)
	_, ok = ParseExitCode("bogus")
	assert.False(t, ok)
}

func TestIsMirrored(t *testing.T) {
	for _, name := range MirroredProperties {
		assert.True(t, IsMirrored(name), name)
	}
	assert.False(t, IsMirrored("title"))
	assert.Len(t, MirroredProperties, 3)
}
