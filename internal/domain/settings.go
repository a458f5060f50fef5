package domain

import "context"

// SettingsScope namespaces persisted settings per publisher and product.
type SettingsScope struct {
	Publisher string
	Product   string
}

// SettingKeyPath is the last-used installation path.
const SettingKeyPath = "path"

// SettingsStore persists small per-product settings between runs.
type SettingsStore interface {
	Get(ctx context.Context, scope SettingsScope, key string) (string, bool, error)
	Set(ctx context.Context, scope SettingsScope, key, value string) error
	Remove(ctx context.Context, scope SettingsScope, key string) error
	Close() error
}
