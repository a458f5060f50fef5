package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"installer-shell/internal/adapter/precheck"
	"installer-shell/internal/infra/config"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

// runDoctor executes all health checks and reports results.
func runDoctor() error {
	cfgPath := configPath(os.Args[2:])
	cfg, cfgErr := config.Load(cfgPath)

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "Control script", Fn: checkControlScript},
		{Name: "Component payload", Fn: checkPayload},
		{Name: "Target directory", Fn: checkTargetDir},
		{Name: "Settings store", Fn: checkSettingsDir},
	}

	fmt.Println("installer doctor")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	var results []CheckResult
	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name
		results = append(results, result)
	}
	results = append(results, preconditionResults(cfg)...)

	var pass, warn, fail int
	for _, result := range results {
		fmt.Printf("  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Printf("      Fix: %s\n", result.Fix)
		}
		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		fmt.Println("\nFix the FAIL issues above before running the installer.")
		return fmt.Errorf("%d check(s) failed", fail)
	}
	fmt.Println("\nThe installer is ready to run.")
	return nil
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

// checkConfigFile returns a check that verifies the config file exists and parses correctly.
func checkConfigFile(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     "Check the YAML syntax and the fields named above",
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config file at %s, using defaults", cfgPath),
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkControlScript verifies the configured control script is readable.
func checkControlScript(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	path := cfg.Scripts.Control
	if path == "" {
		return CheckResult{Status: StatusPass, Message: "no control script, default page flow"}
	}
	if _, err := os.Stat(path); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot read %s: %v", path, err),
			Fix:     "Fix scripts.control or pass --script",
		}
	}
	return CheckResult{Status: StatusPass, Message: path}
}

// checkPayload verifies every declared component file exists under
// <source_dir>/<component>/.
func checkPayload(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	if len(cfg.Components.Items) == 0 {
		return CheckResult{
			Status:  StatusWarn,
			Message: "no components configured",
			Fix:     "Add components.items or components.manifest",
		}
	}
	var missing []string
	files := 0
	for _, c := range cfg.Components.Items {
		for _, f := range c.Files {
			files++
			if _, err := os.Stat(filepath.Join(cfg.Components.SourceDir, c.Name, f)); err != nil {
				missing = append(missing, c.Name+":"+f)
			}
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("missing payload files: %s", strings.Join(missing, ", ")),
			Fix:     fmt.Sprintf("Check components.source_dir (%s)", cfg.Components.SourceDir),
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%d component(s), %d file(s)", len(cfg.Components.Items), files),
	}
}

// checkTargetDir verifies the fallback target directory can be written.
func checkTargetDir(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	return checkWritable(cfg.Product.TargetDir)
}

// checkSettingsDir verifies the settings database directory can be written.
func checkSettingsDir(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	if cfg.Settings.Path == ":memory:" {
		return CheckResult{Status: StatusPass, Message: "in-memory settings"}
	}
	res := checkWritable(filepath.Dir(cfg.Settings.Path))
	if res.Status == StatusFail {
		// Path memory is optional.
		res.Status = StatusWarn
	}
	return res
}

// checkWritable walks up to the nearest existing directory and probes it.
func checkWritable(dir string) CheckResult {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: err.Error()}
	}
	probe := abs
	for {
		info, err := os.Stat(probe)
		if err == nil {
			if !info.IsDir() {
				return CheckResult{Status: StatusFail, Message: fmt.Sprintf("%s is not a directory", probe)}
			}
			break
		}
		if !errors.Is(err, os.ErrNotExist) || filepath.Dir(probe) == probe {
			return CheckResult{Status: StatusFail, Message: fmt.Sprintf("cannot stat %s: %v", probe, err)}
		}
		probe = filepath.Dir(probe)
	}

	f, err := os.CreateTemp(probe, ".installer-doctor-*")
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s is not writable: %v", probe, err),
			Fix:     "Choose a directory you own or run with elevated privileges",
		}
	}
	f.Close()
	os.Remove(f.Name())
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s writable", abs)}
}

// preconditionResults runs the configured environment checks.
func preconditionResults(cfg *config.Config) []CheckResult {
	if cfg == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out []CheckResult
	for _, r := range precheck.RunAll(ctx, precheck.FromConfig(cfg.Preconditions)) {
		res := CheckResult{Name: "Precondition " + r.Name, Status: StatusPass, Message: "ok"}
		if r.Err != nil {
			res.Status = StatusFail
			res.Message = r.Err.Error()
		}
		out = append(out, res)
	}
	return out
}
