package observability

import (
	"fmt"
	"time"
)

// ActivityMetrics holds journal-derived activity over a time window.
type ActivityMetrics struct {
	TasksCreated     int            `json:"tasks_created"`
	TasksStarted     int            `json:"tasks_started"`
	TasksClosed      int            `json:"tasks_closed"`
	TasksRemoved     int            `json:"tasks_removed"`
	SubtreesArchived int            `json:"subtrees_archived"`
	Reorders         int            `json:"reorders"`
	Imports          int            `json:"imports"`
	Repairs          int            `json:"repairs"`
	ClosedByReason   map[string]int `json:"closed_by_reason,omitempty"`
	EventCount       int            `json:"event_count"`
	OldestEvent      *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives activity metrics from the journal.
type MetricsCalculator interface {
	Calculate(since time.Time) (*ActivityMetrics, error)
}

// metricsCalculator implements MetricsCalculator by reading an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from the
// given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads every event since the given time and aggregates it.
func (mc *metricsCalculator) Calculate(since time.Time) (*ActivityMetrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &ActivityMetrics{
		ClosedByReason: make(map[string]int),
	}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "task.created":
			m.TasksCreated++
		case "task.status_changed":
			switch to, _ := event.Data["to"].(string); to {
			case "active":
				m.TasksStarted++
			case "closed":
				m.TasksClosed++
				if reason, ok := event.Data["reason"].(string); ok && reason != "" {
					m.ClosedByReason[reason]++
				}
			}
		case "task.archived":
			m.SubtreesArchived++
		case "task.removed":
			m.TasksRemoved++
		case "task.reordered":
			m.Reorders++
		case "store.imported":
			m.Imports++
		case "store.repaired":
			m.Repairs++
		}
	}

	return m, nil
}
