// Package internal provides the App struct that wires all components of
// the task store together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slabforge/tsk/internal/cli"
	"github.com/slabforge/tsk/internal/core"
	"github.com/slabforge/tsk/internal/observability"
	"github.com/slabforge/tsk/internal/storage"
	"github.com/slabforge/tsk/pkg/models"
)

// App holds all service dependencies for the task store.
type App struct {
	BasePath string
	Config   *models.StoreConfig

	// Configuration
	ConfigMgr core.ConfigManager

	// Storage layer
	Records storage.RecordFS

	// Core services
	Store core.TaskStore
	IDGen core.TaskIDGenerator

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components of the task store. basePath
// is the project root, typically the directory containing .taskconfig.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Records = storage.NewFileRecordFS()
	rfsAdapter := &recordFSAdapter{fs: app.Records}

	// --- Observability ---
	tasksDir := core.TasksDirPath(basePath, cfg)
	layout := core.NewLayout(tasksDir)
	app.EventLog = observability.NewJSONLEventLog(layout.JournalPath())
	app.AlertEngine = observability.NewAlertEngine(cfg.Alerts)
	app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)

	// --- Core services ---
	app.IDGen = core.NewTaskIDGenerator(cfg.Prefix, cfg.IDStyle)
	evtAdapter := &eventLogAdapter{log: app.EventLog}
	app.Store = core.NewTaskStore(tasksDir, cfg, rfsAdapter, app.IDGen, evtAdapter)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.TasksDir = tasksDir
	cli.Store = app.Store
	cli.Records = rfsAdapter
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App, such as the journal file
// handle.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the project root. It checks the TSK_HOME
// env var, then walks up from the current directory looking for a
// .taskconfig, and falls back to the current directory so that tsk
// init works anywhere.
func ResolveBasePath() string {
	if home := os.Getenv("TSK_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

// --- Adapters ---

// recordFSAdapter adapts storage.RecordFS to core.RecordFS. The two
// interfaces match except for the entry type returned by ScanTree.
type recordFSAdapter struct {
	fs storage.RecordFS
}

func (a *recordFSAdapter) ScanTree(root string, skipDirs ...string) ([]core.RecordEntry, error) {
	entries, err := a.fs.ScanTree(root, skipDirs...)
	if err != nil {
		return nil, err
	}
	result := make([]core.RecordEntry, len(entries))
	for i, e := range entries {
		result[i] = core.RecordEntry{ID: e.ID, Path: e.Path}
	}
	return result, nil
}

func (a *recordFSAdapter) Read(path string) ([]byte, error) {
	return a.fs.Read(path)
}

func (a *recordFSAdapter) WriteAtomic(path string, data []byte) error {
	return a.fs.WriteAtomic(path, data)
}

func (a *recordFSAdapter) Move(oldPath, newPath string) error {
	return a.fs.Move(oldPath, newPath)
}

func (a *recordFSAdapter) RemoveFile(path string) error {
	return a.fs.RemoveFile(path)
}

func (a *recordFSAdapter) RemoveTree(path string) error {
	return a.fs.RemoveTree(path)
}

func (a *recordFSAdapter) RemoveDirIfEmpty(path string) error {
	return a.fs.RemoveDirIfEmpty(path)
}

func (a *recordFSAdapter) RemoveEmptyDirs(root string, keep ...string) (int, error) {
	return a.fs.RemoveEmptyDirs(root, keep...)
}

func (a *recordFSAdapter) EnsureDir(path string) error {
	return a.fs.EnsureDir(path)
}

func (a *recordFSAdapter) Exists(path string) bool {
	return a.fs.Exists(path)
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "info",
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
