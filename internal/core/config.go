// Package core implements the task store engine: the record codec,
// identifier resolution, the typed dependency graph, fractional peer
// ordering, the archive lifecycle, and legacy import.
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/slabforge/tsk/pkg/models"
)

// ConfigManager loads and validates the .taskconfig file at the
// project root.
type ConfigManager interface {
	LoadConfig() (*models.StoreConfig, error)
	ValidateConfig(cfg *models.StoreConfig) error
}

// viperConfigManager implements ConfigManager using Viper.
type viperConfigManager struct {
	// basePath is the project root where .taskconfig resides.
	basePath string
}

// NewConfigManager creates a ConfigManager reading .taskconfig from
// basePath.
func NewConfigManager(basePath string) ConfigManager {
	return &viperConfigManager{basePath: basePath}
}

// ConfigFileName is the store configuration artifact at the project
// root.
const ConfigFileName = ".taskconfig"

// LoadConfig reads .taskconfig from the base path. A missing file
// yields the defaults; unknown keys are tolerated.
func (cm *viperConfigManager) LoadConfig() (*models.StoreConfig, error) {
	cfg := models.DefaultStoreConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("prefix", cfg.Prefix)
	v.SetDefault("tasks_dir", cfg.TasksDir)
	v.SetDefault("id_style", cfg.IDStyle)
	v.SetDefault("lock_timeout", cfg.LockTimeout)
	v.SetDefault("alerts.stale_days", cfg.Alerts.StaleDays)
	v.SetDefault("alerts.blocked_hours", cfg.Alerts.BlockedHours)
	v.SetDefault("alerts.max_open", cfg.Alerts.MaxOpen)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg.Prefix = v.GetString("prefix")
	cfg.TasksDir = v.GetString("tasks_dir")
	cfg.IDStyle = v.GetString("id_style")
	cfg.LockTimeout = v.GetDuration("lock_timeout")
	cfg.Alerts.StaleDays = v.GetInt("alerts.stale_days")
	cfg.Alerts.BlockedHours = v.GetInt("alerts.blocked_hours")
	cfg.Alerts.MaxOpen = v.GetInt("alerts.max_open")

	return cfg, nil
}

// ValidateConfig checks the configuration and reports every invalid
// value at once.
func (cm *viperConfigManager) ValidateConfig(cfg *models.StoreConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !ValidPrefix(cfg.Prefix) {
		errs = append(errs, fmt.Sprintf(
			"prefix %q is invalid, must match [a-z][a-z0-9]{0,11}", cfg.Prefix))
	}
	if strings.TrimSpace(cfg.TasksDir) == "" {
		errs = append(errs, "tasks_dir must not be empty")
	}
	if cfg.IDStyle != models.IDStyleHex && cfg.IDStyle != models.IDStyleSlug {
		errs = append(errs, fmt.Sprintf(
			"id_style %q is invalid, must be %q or %q", cfg.IDStyle, models.IDStyleHex, models.IDStyleSlug))
	}
	if cfg.LockTimeout <= 0 {
		errs = append(errs, fmt.Sprintf(
			"lock_timeout %s is invalid, must be positive", cfg.LockTimeout))
	}
	if cfg.Alerts.StaleDays < 0 {
		errs = append(errs, fmt.Sprintf(
			"alerts.stale_days must be non-negative, got %d", cfg.Alerts.StaleDays))
	}
	if cfg.Alerts.BlockedHours < 0 {
		errs = append(errs, fmt.Sprintf(
			"alerts.blocked_hours must be non-negative, got %d", cfg.Alerts.BlockedHours))
	}
	if cfg.Alerts.MaxOpen < 0 {
		errs = append(errs, fmt.Sprintf(
			"alerts.max_open must be non-negative, got %d", cfg.Alerts.MaxOpen))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// TasksDirPath resolves the configured tasks directory against the
// project root. Absolute paths are taken as-is.
func TasksDirPath(basePath string, cfg *models.StoreConfig) string {
	if filepath.IsAbs(cfg.TasksDir) {
		return cfg.TasksDir
	}
	return filepath.Join(basePath, cfg.TasksDir)
}

// defaultConfigTemplate is what tsk init writes. A literal template
// keeps the file human-editable with duration strings instead of
// nanosecond integers.
const defaultConfigTemplate = `# tsk store configuration
prefix: %s
tasks_dir: %s
id_style: %s
lock_timeout: %s

alerts:
    stale_days: %d
    blocked_hours: %d
    max_open: %d
`

// RenderDefaultConfig produces the .taskconfig contents for a new
// store.
func RenderDefaultConfig(cfg *models.StoreConfig) string {
	return fmt.Sprintf(defaultConfigTemplate,
		cfg.Prefix, cfg.TasksDir, cfg.IDStyle, cfg.LockTimeout,
		cfg.Alerts.StaleDays, cfg.Alerts.BlockedHours, cfg.Alerts.MaxOpen)
}

// InitResult reports what store initialization created and what was
// already in place.
type InitResult struct {
	Created []string
	Skipped []string
}

// InitStore scaffolds a new store at basePath: the .taskconfig file,
// the tasks directory, and its archive mirror. Existing pieces are
// left untouched and reported as skipped, so re-running init is safe.
func InitStore(basePath string, cfg *models.StoreConfig, rfs RecordFS) (*InitResult, error) {
	result := &InitResult{}

	configPath := filepath.Join(basePath, ConfigFileName)
	if rfs.Exists(configPath) {
		result.Skipped = append(result.Skipped, configPath)
	} else {
		if err := rfs.WriteAtomic(configPath, []byte(RenderDefaultConfig(cfg))); err != nil {
			return nil, fmt.Errorf("writing %s: %w", ConfigFileName, err)
		}
		result.Created = append(result.Created, configPath)
	}

	layout := NewLayout(TasksDirPath(basePath, cfg))
	for _, dir := range []string{layout.Root(), layout.ArchiveRoot()} {
		if rfs.Exists(dir) {
			result.Skipped = append(result.Skipped, dir)
			continue
		}
		if err := rfs.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		result.Created = append(result.Created, dir)
	}

	return result, nil
}
