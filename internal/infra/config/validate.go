package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateProduct(cfg, ve)
	validateWizard(cfg, ve)
	validateScripts(cfg, ve)
	validateComponents(cfg, ve)
	validatePreconditions(cfg, ve)
	validateEngine(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

var validModes = []string{"install", "update", "uninstall", "maintain"}

func validateProduct(cfg *Config, ve *ValidationError) {
	if strings.TrimSpace(cfg.Product.Name) == "" {
		ve.Add("product.name is required")
	}
	if strings.TrimSpace(cfg.Product.Publisher) == "" {
		ve.Add("product.publisher is required")
	}
	if cfg.Product.TargetDir == "" {
		ve.Add("product.target_dir is required")
	}
}

func validateWizard(cfg *Config, ve *ValidationError) {
	if !slices.Contains(validModes, strings.ToLower(cfg.Wizard.Mode)) {
		ve.Add("wizard.mode %q must be one of %s", cfg.Wizard.Mode, strings.Join(validModes, ", "))
	}
	validateDuration(ve, "wizard.silent_step_delay", cfg.Wizard.SilentStepDelay)
	validateDuration(ve, "wizard.engine_start_delay", cfg.Wizard.EngineStartDelay)
}

func validateScripts(cfg *Config, ve *ValidationError) {
	if c := cfg.Scripts.Control; c != "" {
		switch strings.ToLower(filepath.Ext(c)) {
		case ".js", ".wasm":
		default:
			ve.Add("scripts.control %q must be a .js or .wasm file", c)
		}
	}
	for _, c := range cfg.Scripts.Component {
		if strings.ToLower(filepath.Ext(c)) != ".js" {
			ve.Add("scripts.component %q must be a .js file", c)
		}
	}
	validateDuration(ve, "scripts.timeout", cfg.Scripts.Timeout)
	if cfg.Scripts.WASMMaxMemoryMB < 0 {
		ve.Add("scripts.wasm_max_memory_mb must be >= 0, got %d", cfg.Scripts.WASMMaxMemoryMB)
	}
}

func validateComponents(cfg *Config, ve *ValidationError) {
	seen := make(map[string]bool, len(cfg.Components.Items))
	for i, c := range cfg.Components.Items {
		if c.Name == "" {
			ve.Add("components.items[%d].name is required", i)
			continue
		}
		if seen[c.Name] {
			ve.Add("components.items[%d]: duplicate component %q", i, c.Name)
		}
		seen[c.Name] = true
		for j, l := range c.Licenses {
			if l.Name == "" {
				ve.Add("components.items[%d].licenses[%d].name is required", i, j)
			}
		}
	}
}

func validatePreconditions(cfg *Config, ve *ValidationError) {
	for i, d := range cfg.Preconditions.Devices {
		if len(d.Patterns) == 0 {
			ve.Add("preconditions.devices[%d].patterns must not be empty", i)
		}
		for _, p := range d.Patterns {
			if _, err := filepath.Match(p, ""); err != nil {
				ve.Add("preconditions.devices[%d]: invalid pattern %q", i, p)
			}
		}
	}
	for i, p := range cfg.Preconditions.Platforms {
		if p == "" || strings.Count(p, "/") > 1 {
			ve.Add("preconditions.platforms[%d] %q must be GOOS or GOOS/GOARCH", i, p)
		}
	}
}

func validateEngine(cfg *Config, ve *ValidationError) {
	if cfg.Engine.Workers < 1 {
		ve.Add("engine.workers must be >= 1, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.MaxBytesPerSecond < 0 {
		ve.Add("engine.max_bytes_per_second must not be negative")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q must be text or json", cfg.Logger.Format)
	}
	if cfg.Logger.MaxSizeMB < 0 || cfg.Logger.MaxBackups < 0 {
		ve.Add("logger.max_size_mb and logger.max_backups must not be negative")
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout", "stderr":
	default:
		ve.Add("tracer.exporter %q must be noop, stdout or stderr", cfg.Tracer.Exporter)
	}
}

func validateDuration(ve *ValidationError, field, s string) {
	if s == "" {
		return
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		ve.Add("%s %q is not a valid duration", field, s)
		return
	}
	if d < 0 {
		ve.Add("%s must not be negative", field)
	}
}
