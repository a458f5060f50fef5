package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level installer configuration.
type Config struct {
	Product       ProductConfig       `yaml:"product"`
	Wizard        WizardConfig        `yaml:"wizard"`
	Scripts       ScriptsConfig       `yaml:"scripts"`
	Components    ComponentsConfig    `yaml:"components"`
	Settings      SettingsConfig      `yaml:"settings"`
	Preconditions PreconditionsConfig `yaml:"preconditions"`
	Engine        EngineConfig        `yaml:"engine"`
	Logger        LoggerConfig        `yaml:"logger"`
	Tracer        TracerConfig        `yaml:"tracer"`
	Includes      []string            `yaml:"includes,omitempty"`
}

// ProductConfig describes the product being installed.
type ProductConfig struct {
	Name      string `yaml:"name"`
	Title     string `yaml:"title"`
	Version   string `yaml:"version"`
	Publisher string `yaml:"publisher"`
	TargetDir string `yaml:"target_dir"` // fallback when no path was remembered
	// Values are exposed to scripts through installer.value(). Entries
	// prefixed with "enc:" are decrypted with INSTALLER_CONFIG_KEY.
	Values map[string]string `yaml:"values,omitempty"`
}

// WizardConfig holds page flow settings.
type WizardConfig struct {
	Mode                string `yaml:"mode"` // install, update, uninstall, maintain
	TargetDirectoryPage bool   `yaml:"target_directory_page"`
	SilentStepDelay     string `yaml:"silent_step_delay"`  // duration string, default "10ms"
	EngineStartDelay    string `yaml:"engine_start_delay"` // duration string, default "30ms"
	AutoSwitch          bool   `yaml:"auto_switch"`
}

// ScriptsConfig locates the control and component scripts.
type ScriptsConfig struct {
	Control   string   `yaml:"control"`   // .js or .wasm
	Component []string `yaml:"component"` // .js
	Timeout   string   `yaml:"timeout"`   // duration string, default "5s"
	// WASMMaxMemoryMB caps guest memory for .wasm control scripts.
	WASMMaxMemoryMB int `yaml:"wasm_max_memory_mb"`
}

// LicenseConfig is a license shipped with a component.
type LicenseConfig struct {
	Name string `yaml:"name"`
	File string `yaml:"file,omitempty"`
	Text string `yaml:"text,omitempty"`
}

// ComponentConfig declares an installable component.
type ComponentConfig struct {
	Name        string          `yaml:"name"`
	DisplayName string          `yaml:"display_name"`
	Description string          `yaml:"description,omitempty"`
	Version     string          `yaml:"version,omitempty"`
	Default     bool            `yaml:"default"`
	Licenses    []LicenseConfig `yaml:"licenses,omitempty"`
	Files       []string        `yaml:"files,omitempty"`
}

// ComponentsConfig lists components inline or in a separate manifest.
type ComponentsConfig struct {
	SourceDir string            `yaml:"source_dir"`
	Manifest  string            `yaml:"manifest,omitempty"` // YAML list of components
	Items     []ComponentConfig `yaml:"items,omitempty"`
}

// SettingsConfig holds the persisted settings store location.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// PreconditionsConfig lists environment checks run before the first page.
type PreconditionsConfig struct {
	Devices   []DeviceCheckConfig `yaml:"devices,omitempty"`
	Platforms []string            `yaml:"platforms,omitempty"` // GOOS or GOOS/GOARCH
	Commands  []string            `yaml:"commands,omitempty"`
}

// DeviceCheckConfig requires at least one path matching one of Patterns.
type DeviceCheckConfig struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// EngineConfig holds install engine settings.
type EngineConfig struct {
	Workers           int `yaml:"workers"`
	MaxBytesPerSecond int `yaml:"max_bytes_per_second"` // 0 = unlimited
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`

	// File outputs rotate once they exceed MaxSizeMB. Zero disables rotation.
	MaxSizeMB  int `yaml:"max_size_mb,omitempty"`
	MaxBackups int `yaml:"max_backups,omitempty"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// defaultSettingsPath returns $HOME/.installer/settings.db.
// Falls back to "./installer-settings.db" if $HOME cannot be determined.
func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "installer-settings.db"
	}
	return filepath.Join(home, ".installer", "settings.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Product: ProductConfig{
			Name:      "Product",
			Title:     "Product",
			Version:   "1.0.0",
			Publisher: "Publisher",
			TargetDir: defaultTargetDir(),
		},
		Wizard: WizardConfig{
			Mode:                "install",
			TargetDirectoryPage: true,
			SilentStepDelay:     "10ms",
			EngineStartDelay:    "30ms",
			AutoSwitch:          true,
		},
		Scripts: ScriptsConfig{
			Timeout:         "5s",
			WASMMaxMemoryMB: 16,
		},
		Components: ComponentsConfig{
			SourceDir: "payload",
		},
		Settings: SettingsConfig{
			Path: defaultSettingsPath(),
		},
		Engine: EngineConfig{
			Workers: 2,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

func defaultTargetDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// Load reads a YAML config file, applies env var overrides, decrypts
// secrets and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	// First pass: unmarshal to get the includes list.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(cfg.Includes) > 0 {
		visited := map[string]bool{absPath: true}
		if err := processIncludes(cfg, filepath.Dir(absPath), visited, 0); err != nil {
			return nil, err
		}

		// Second pass: re-unmarshal main config so it takes precedence over includes.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (second pass): %w", err)
		}
		cfg.Includes = nil
	}

	if err := loadManifest(cfg, filepath.Dir(absPath)); err != nil {
		return nil, err
	}

	resolvePaths(cfg, filepath.Dir(absPath))
	getenv, err := dotenvLookup(filepath.Dir(absPath))
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, getenv)

	if passphrase := getenv("INSTALLER_CONFIG_KEY"); passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadManifest appends the components listed in the manifest file.
func loadManifest(cfg *Config, baseDir string) error {
	if cfg.Components.Manifest == "" {
		return nil
	}
	path := cfg.Components.Manifest
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read component manifest: %w", err)
	}
	if err := validateManifest(data); err != nil {
		return fmt.Errorf("component manifest %s: %w", path, err)
	}
	var items []ComponentConfig
	if err := yaml.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parse component manifest %s: %w", path, err)
	}
	cfg.Components.Items = append(cfg.Components.Items, items...)
	return nil
}

// resolvePaths makes script and payload paths relative to the config file.
func resolvePaths(cfg *Config, baseDir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	cfg.Scripts.Control = abs(cfg.Scripts.Control)
	for i := range cfg.Scripts.Component {
		cfg.Scripts.Component[i] = abs(cfg.Scripts.Component[i])
	}
	cfg.Components.SourceDir = abs(cfg.Components.SourceDir)
	for i := range cfg.Components.Items {
		for j := range cfg.Components.Items[i].Licenses {
			cfg.Components.Items[i].Licenses[j].File = abs(cfg.Components.Items[i].Licenses[j].File)
		}
	}
}

// ApplyEnvOverrides maps INSTALLER_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	applyOverrides(cfg, os.Getenv)
}

func applyOverrides(cfg *Config, getenv func(string) string) {
	if v := getenv("INSTALLER_PRODUCT_TARGET_DIR"); v != "" {
		cfg.Product.TargetDir = v
	}
	if v := getenv("INSTALLER_WIZARD_MODE"); v != "" {
		cfg.Wizard.Mode = v
	}
	if v := getenv("INSTALLER_WIZARD_SILENT_STEP_DELAY"); v != "" {
		cfg.Wizard.SilentStepDelay = v
	}
	if v := getenv("INSTALLER_SCRIPTS_CONTROL"); v != "" {
		cfg.Scripts.Control = v
	}
	if v := getenv("INSTALLER_SCRIPTS_TIMEOUT"); v != "" {
		cfg.Scripts.Timeout = v
	}
	if v := getenv("INSTALLER_COMPONENTS_SOURCE_DIR"); v != "" {
		cfg.Components.SourceDir = v
	}
	if v := getenv("INSTALLER_SETTINGS_PATH"); v != "" {
		cfg.Settings.Path = v
	}
	if v := getenv("INSTALLER_PRECONDITIONS_COMMANDS"); v != "" {
		cfg.Preconditions.Commands = splitAndTrim(v, ",")
	}
	if v := getenv("INSTALLER_ENGINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}
	if v := getenv("INSTALLER_ENGINE_MAX_BYTES_PER_SECOND"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxBytesPerSecond = n
		}
	}
	if v := getenv("INSTALLER_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := getenv("INSTALLER_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := getenv("INSTALLER_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := getenv("INSTALLER_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := getenv("INSTALLER_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// dotenvLookup returns a getenv that falls back to the .env file in dir.
// The process environment wins over the file.
func dotenvLookup(dir string) (func(string) string, error) {
	vals, err := godotenv.Read(filepath.Join(dir, ".env"))
	if errors.Is(err, fs.ErrNotExist) {
		return os.Getenv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return vals[key]
	}, nil
}

// splitAndTrim splits s by sep and trims whitespace from each element.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Duration parses a duration string, returning def when s is empty or invalid.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
