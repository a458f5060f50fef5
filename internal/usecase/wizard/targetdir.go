package wizard

import (
	"context"
	"path/filepath"
	"strings"

	"installer-shell/internal/domain"
)

// ComputeTargetDir returns the installation directory for a run: the last
// used path (or the configured default) with /publisher/title appended
// unless already contained, made absolute.
func ComputeTargetDir(last, fallback, publisher, title string) string {
	dir := last
	if dir == "" {
		dir = fallback
	}
	base := string(filepath.Separator) + filepath.Join(publisher, title)
	if !strings.Contains(dir, base) {
		dir += base
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Clean(dir)
}

// trimSegments drops n trailing path segments.
func trimSegments(path string, n int) string {
	path = filepath.Clean(path)
	for i := 0; i < n; i++ {
		path = filepath.Dir(path)
	}
	return path
}

func (c *Controller) settingsScope() domain.SettingsScope {
	return domain.SettingsScope{
		Publisher: c.engine.Value(domain.KeyPublisher),
		Product:   c.engine.Value(domain.KeyProductName),
	}
}

// InitTargetDir seeds the engine's TargetDir from persisted settings.
func (c *Controller) InitTargetDir(ctx context.Context) string {
	last := ""
	if c.settings != nil {
		v, ok, err := c.settings.Get(ctx, c.settingsScope(), domain.SettingKeyPath)
		if err != nil {
			c.logger.Warn("read last install path", "error", err)
		} else if ok {
			last = v
		}
	}
	dir := ComputeTargetDir(last, c.engine.Value(domain.KeyTargetDir),
		c.engine.Value(domain.KeyPublisher), c.engine.Value(domain.KeyTitle))
	c.engine.SetValue(domain.KeyTargetDir, dir)
	c.logger.Debug("target directory", "dir", dir, "from_settings", last != "")
	return dir
}

// rememberInstallPath records the installation root for the next run and
// appends the version segment to TargetDir.
func (c *Controller) rememberInstallPath(ctx context.Context) {
	target := c.engine.Value(domain.KeyTargetDir)
	if target == "" {
		return
	}
	if c.settings != nil {
		root := trimSegments(target, 2)
		if err := c.settings.Set(ctx, c.settingsScope(), domain.SettingKeyPath, root); err != nil {
			c.logger.Warn("persist install path", "error", err)
		}
	}
	if v := c.engine.Value(domain.KeyProductVersion); v != "" {
		c.engine.SetValue(domain.KeyTargetDir, filepath.Join(target, v))
	}
}

func (c *Controller) forgetInstallPath(ctx context.Context) {
	if c.settings == nil {
		return
	}
	if err := c.settings.Remove(ctx, c.settingsScope(), domain.SettingKeyPath); err != nil {
		c.logger.Warn("remove install path", "error", err)
	}
}
