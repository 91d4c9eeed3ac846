package models

import "time"

// StoreConfig holds the settings read from the .taskconfig file at the
// project root. Both yaml and mapstructure tags are present so the same
// struct works for direct YAML marshaling and for Viper unmarshaling.
type StoreConfig struct {
	// Prefix is the identifier prefix every task id in this store
	// starts with, e.g. "tsk" in tsk-9f8e7d6c.
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	// TasksDir is the store directory, relative to the project root
	// unless absolute.
	TasksDir string `yaml:"tasks_dir" mapstructure:"tasks_dir"`

	// IDStyle selects how new identifier suffixes are formed:
	// "hex" for random hex, "slug" for a title slug plus random hex.
	IDStyle string `yaml:"id_style" mapstructure:"id_style"`

	// LockTimeout bounds how long a writer waits for the store lock
	// before giving up.
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`

	Alerts AlertConfig `yaml:"alerts" mapstructure:"alerts"`
}

// AlertConfig holds the thresholds the alert engine evaluates.
type AlertConfig struct {
	// StaleDays flags active tasks untouched for this many days.
	StaleDays int `yaml:"stale_days" mapstructure:"stale_days"`

	// BlockedHours flags open tasks that have sat blocked and
	// unchanged for this many hours.
	BlockedHours int `yaml:"blocked_hours" mapstructure:"blocked_hours"`

	// MaxOpen flags the store when the open task count exceeds it.
	MaxOpen int `yaml:"max_open" mapstructure:"max_open"`
}

// IDStyleHex and IDStyleSlug are the recognized IDStyle values.
const (
	IDStyleHex  = "hex"
	IDStyleSlug = "slug"
)

// DefaultStoreConfig returns a StoreConfig populated with the defaults
// used when .taskconfig is missing or leaves keys unset.
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		Prefix:      "tsk",
		TasksDir:    ".tasks",
		IDStyle:     IDStyleHex,
		LockTimeout: 5 * time.Second,
		Alerts: AlertConfig{
			StaleDays:    3,
			BlockedHours: 48,
			MaxOpen:      25,
		},
	}
}
