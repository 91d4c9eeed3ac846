package core

// EventLogger is the subset of the observability event journal the
// store needs. Defining it here avoids importing the observability
// package. Journal failures never fail the operation that triggered
// them; the record tree is the source of truth.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Journal event types emitted by store mutations.
const (
	EventTaskCreated       = "task.created"
	EventTaskStatusChanged = "task.status_changed"
	EventTaskArchived      = "task.archived"
	EventTaskReordered     = "task.reordered"
	EventTaskUpdated       = "task.updated"
	EventTaskRemoved       = "task.removed"
	EventStoreImported     = "store.imported"
	EventStoreRepaired     = "store.repaired"
)
