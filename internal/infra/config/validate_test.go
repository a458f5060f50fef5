package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Product.Name = ""
	cfg.Wizard.Mode = "reinstall"
	cfg.Engine.Workers = 0

	err := Validate(cfg)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Errors) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(ve.Errors), ve.Errors)
	}
	if !strings.Contains(err.Error(), "wizard.mode") {
		t.Errorf("error should mention wizard.mode: %v", err)
	}
}

func TestValidateCases(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"publisher", func(c *Config) { c.Product.Publisher = " " }, "product.publisher"},
		{"target dir", func(c *Config) { c.Product.TargetDir = "" }, "product.target_dir"},
		{"step delay", func(c *Config) { c.Wizard.SilentStepDelay = "fast" }, "wizard.silent_step_delay"},
		{"negative delay", func(c *Config) { c.Wizard.EngineStartDelay = "-1s" }, "negative"},
		{"control ext", func(c *Config) { c.Scripts.Control = "control.py" }, "scripts.control"},
		{"component ext", func(c *Config) { c.Scripts.Component = []string{"core.wasm"} }, "scripts.component"},
		{"wasm memory", func(c *Config) { c.Scripts.WASMMaxMemoryMB = -1 }, "wasm_max_memory_mb"},
		{"component name", func(c *Config) { c.Components.Items = []ComponentConfig{{}} }, "name is required"},
		{"duplicate component", func(c *Config) {
			c.Components.Items = []ComponentConfig{{Name: "core"}, {Name: "core"}}
		}, "duplicate"},
		{"license name", func(c *Config) {
			c.Components.Items = []ComponentConfig{{Name: "core", Licenses: []LicenseConfig{{File: "x"}}}}
		}, "licenses[0].name"},
		{"device patterns", func(c *Config) {
			c.Preconditions.Devices = []DeviceCheckConfig{{Name: "gpu"}}
		}, "patterns must not be empty"},
		{"device glob", func(c *Config) {
			c.Preconditions.Devices = []DeviceCheckConfig{{Name: "gpu", Patterns: []string{"/dev/[nvidia"}}}
		}, "invalid pattern"},
		{"platform", func(c *Config) { c.Preconditions.Platforms = []string{"linux/amd64/v3"} }, "GOOS"},
		{"logger format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
		{"tracer exporter", func(c *Config) {
			c.Tracer.Enabled = true
			c.Tracer.Exporter = "zipkin"
		}, "tracer.exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestValidateAcceptsScripts(t *testing.T) {
	cfg := Defaults()
	cfg.Scripts.Control = "/srv/control.WASM"
	cfg.Scripts.Component = []string{"core.js"}
	cfg.Preconditions.Platforms = []string{"linux", "linux/amd64"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
