// Package precheck implements environment preconditions evaluated before
// the wizard's first real page transition.
package precheck

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"installer-shell/internal/domain"
	"installer-shell/internal/infra/config"
)

// DeviceCheck passes when at least one path matches one of Patterns.
// It guards installs that need hardware, such as a GPU.
type DeviceCheck struct {
	Label    string
	Patterns []string
	glob     func(string) ([]string, error)
}

func (c DeviceCheck) Name() string { return "device:" + c.Label }

func (c DeviceCheck) Check(ctx context.Context) error {
	glob := c.glob
	if glob == nil {
		glob = filepath.Glob
	}
	for _, p := range c.Patterns {
		if err := ctx.Err(); err != nil {
			return err
		}
		matches, err := glob(p)
		if err == nil && len(matches) > 0 {
			return nil
		}
	}
	return &domain.PreconditionError{
		Check: c.Name(),
		Code:  domain.ExitGpuNotExist,
		Err:   fmt.Errorf("no device matching %s", strings.Join(c.Patterns, ", ")),
	}
}

// PlatformCheck passes when the running platform is one of Allowed.
// Entries are GOOS or GOOS/GOARCH.
type PlatformCheck struct {
	Allowed []string
	goos    string
	goarch  string
}

func (c PlatformCheck) Name() string { return "platform" }

func (c PlatformCheck) Check(context.Context) error {
	goos, goarch := c.goos, c.goarch
	if goos == "" {
		goos, goarch = runtime.GOOS, runtime.GOARCH
	}
	if len(c.Allowed) == 0 || slices.Contains(c.Allowed, goos) || slices.Contains(c.Allowed, goos+"/"+goarch) {
		return nil
	}
	return &domain.PreconditionError{
		Check: c.Name(),
		Code:  domain.ExitSystemNotSupport,
		Err:   fmt.Errorf("%s/%s is not one of %s", goos, goarch, strings.Join(c.Allowed, ", ")),
	}
}

// CommandCheck passes when every command is found on PATH.
type CommandCheck struct {
	Commands []string
	lookPath func(string) (string, error)
}

func (c CommandCheck) Name() string { return "commands" }

func (c CommandCheck) Check(context.Context) error {
	lookPath := c.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	var missing []string
	for _, cmd := range c.Commands {
		if _, err := lookPath(cmd); err != nil {
			missing = append(missing, cmd)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.PreconditionError{
		Check: c.Name(),
		Code:  domain.ExitMissingDependency,
		Err:   fmt.Errorf("missing %s", strings.Join(missing, ", ")),
	}
}

// FromConfig builds the configured checks in evaluation order: platform,
// devices, then commands.
func FromConfig(cfg config.PreconditionsConfig) []domain.Precondition {
	var out []domain.Precondition
	if len(cfg.Platforms) > 0 {
		out = append(out, PlatformCheck{Allowed: cfg.Platforms})
	}
	for _, d := range cfg.Devices {
		out = append(out, DeviceCheck{Label: d.Name, Patterns: d.Patterns})
	}
	if len(cfg.Commands) > 0 {
		out = append(out, CommandCheck{Commands: cfg.Commands})
	}
	return out
}

// Result is the outcome of one check, as reported by the doctor command.
type Result struct {
	Name string
	Err  error
}

// RunAll evaluates every check and returns one result each.
func RunAll(ctx context.Context, checks []domain.Precondition) []Result {
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		results = append(results, Result{Name: c.Name(), Err: c.Check(ctx)})
	}
	return results
}
