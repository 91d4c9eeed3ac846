package cli

import (
	"github.com/slabforge/tsk/internal/core"
	"github.com/slabforge/tsk/internal/observability"
	"github.com/slabforge/tsk/pkg/models"
)

// Service instances, set during app initialization in internal/app.go.
var (
	BasePath string
	Config   *models.StoreConfig
	TasksDir string

	Store   core.TaskStore
	Records core.RecordFS

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
)
