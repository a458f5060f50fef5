package domain

import (
	"fmt"
	"strings"
)

// RunMode is the installer's operating intent. It may change at runtime
// until the first real transition, so consumers must read it live.
type RunMode int

const (
	ModeInstall RunMode = iota
	ModeUpdate
	ModeUninstall
	ModeMaintain
)

func (m RunMode) String() string {
	switch m {
	case ModeInstall:
		return "install"
	case ModeUpdate:
		return "update"
	case ModeUninstall:
		return "uninstall"
	case ModeMaintain:
		return "maintain"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// IsInstaller reports whether m is a fresh installation.
func (m RunMode) IsInstaller() bool { return m == ModeInstall }

// IsUpdater reports whether m updates installed components.
func (m RunMode) IsUpdater() bool { return m == ModeUpdate }

// IsUninstaller reports whether m removes the installation.
func (m RunMode) IsUninstaller() bool { return m == ModeUninstall }

// IsPackageManager reports whether m adds or removes components of an existing installation.
func (m RunMode) IsPackageManager() bool { return m == ModeMaintain }

// IsMaintainer reports whether m operates on an existing installation.
func (m RunMode) IsMaintainer() bool { return m != ModeInstall }

// ParseRunMode parses a mode name as accepted on the command line.
func ParseRunMode(s string) (RunMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "install", "installer", "":
		return ModeInstall, nil
	case "update", "updater":
		return ModeUpdate, nil
	case "uninstall", "uninstaller":
		return ModeUninstall, nil
	case "maintain", "maintainer", "packagemanager", "package-manager":
		return ModeMaintain, nil
	}
	return ModeInstall, fmt.Errorf("%w: run mode %q", ErrInvalidInput, s)
}
