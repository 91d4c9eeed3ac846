package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/slabforge/tsk/pkg/models"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cm := NewConfigManager(t.TempDir())
	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := models.DefaultStoreConfig()
	if cfg.Prefix != want.Prefix || cfg.TasksDir != want.TasksDir || cfg.IDStyle != want.IDStyle {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.LockTimeout != want.LockTimeout {
		t.Errorf("LockTimeout = %s, want %s", cfg.LockTimeout, want.LockTimeout)
	}
	if cfg.Alerts != want.Alerts {
		t.Errorf("Alerts = %+v, want %+v", cfg.Alerts, want.Alerts)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `prefix: bug
tasks_dir: work/tasks
id_style: slug
lock_timeout: 11s
alerts:
    stale_days: 7
    blocked_hours: 12
    max_open: 100
unknown_key: tolerated
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewConfigManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Prefix != "bug" || cfg.TasksDir != "work/tasks" || cfg.IDStyle != models.IDStyleSlug {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.LockTimeout != 11*time.Second {
		t.Errorf("LockTimeout = %s", cfg.LockTimeout)
	}
	if cfg.Alerts.StaleDays != 7 || cfg.Alerts.BlockedHours != 12 || cfg.Alerts.MaxOpen != 100 {
		t.Errorf("alert thresholds not applied: %+v", cfg.Alerts)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("prefix: ops\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewConfigManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := models.DefaultStoreConfig()
	if cfg.Prefix != "ops" {
		t.Errorf("Prefix = %q", cfg.Prefix)
	}
	if cfg.TasksDir != want.TasksDir || cfg.LockTimeout != want.LockTimeout {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
}

func TestValidateConfigReportsEveryOffender(t *testing.T) {
	cm := NewConfigManager(t.TempDir())
	cfg := &models.StoreConfig{
		Prefix:      "Bad-Prefix",
		TasksDir:    "  ",
		IDStyle:     "roman",
		LockTimeout: -time.Second,
		Alerts:      models.AlertConfig{StaleDays: -1, BlockedHours: -2, MaxOpen: -3},
	}

	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	msg := err.Error()
	for _, fragment := range []string{"prefix", "tasks_dir", "id_style", "lock_timeout", "stale_days", "blocked_hours", "max_open"} {
		if !strings.Contains(msg, fragment) {
			t.Errorf("validation error missing %q:\n%s", fragment, msg)
		}
	}
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	cm := NewConfigManager(t.TempDir())
	if err := cm.ValidateConfig(models.DefaultStoreConfig()); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestRenderDefaultConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	want := models.DefaultStoreConfig()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(RenderDefaultConfig(want)), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewConfigManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *got != *want {
		t.Errorf("rendered config round trip changed values:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestInitStore(t *testing.T) {
	dir := t.TempDir()
	cfg := models.DefaultStoreConfig()
	rfs := newTestRecordFS()

	result, err := InitStore(dir, cfg, rfs)
	if err != nil {
		t.Fatalf("InitStore failed: %v", err)
	}
	if len(result.Created) != 3 || len(result.Skipped) != 0 {
		t.Fatalf("first init: created %v, skipped %v", result.Created, result.Skipped)
	}

	layout := NewLayout(TasksDirPath(dir, cfg))
	for _, path := range []string{filepath.Join(dir, ConfigFileName), layout.Root(), layout.ArchiveRoot()} {
		if !rfs.Exists(path) {
			t.Errorf("init did not create %s", path)
		}
	}

	// Re-running must be a no-op.
	again, err := InitStore(dir, cfg, rfs)
	if err != nil {
		t.Fatalf("second InitStore failed: %v", err)
	}
	if len(again.Created) != 0 || len(again.Skipped) != 3 {
		t.Errorf("second init: created %v, skipped %v", again.Created, again.Skipped)
	}
}
