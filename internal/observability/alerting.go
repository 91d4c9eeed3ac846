package observability

import (
	"fmt"
	"time"

	"github.com/slabforge/tsk/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertEngine evaluates alert conditions against a store snapshot.
type AlertEngine interface {
	Evaluate(now time.Time, tasks []*models.Task) []Alert
}

// alertEngine implements AlertEngine with the thresholds configured in
// .taskconfig.
type alertEngine struct {
	thresholds models.AlertConfig
}

// NewAlertEngine creates an AlertEngine with the given thresholds.
func NewAlertEngine(thresholds models.AlertConfig) AlertEngine {
	return &alertEngine{thresholds: thresholds}
}

// Evaluate checks every alert condition against the snapshot. The
// snapshot should carry the full task set, archived included; archived
// tasks never alert themselves but their closed status still matters
// when deciding whether a live task is blocked.
func (ae *alertEngine) Evaluate(now time.Time, tasks []*models.Task) []Alert {
	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	blocked := func(t *models.Task) bool {
		for _, b := range t.Blocks {
			if blocker, ok := byID[b]; ok && blocker.Status.Blocking() {
				return true
			}
		}
		return false
	}

	var alerts []Alert
	openCount := 0
	for _, t := range tasks {
		if t.Archived {
			continue
		}
		if t.Status == models.StatusOpen {
			openCount++
		}

		if ae.thresholds.StaleDays > 0 && t.Status == models.StatusActive {
			staleAfter := time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour
			if now.Sub(t.UpdatedAt) > staleAfter {
				alerts = append(alerts, Alert{
					ID:        "stale-" + t.ID,
					Condition: "task_stale",
					Severity:  SeverityMedium,
					Message: fmt.Sprintf("task %s is active but untouched for more than %d days",
						t.ID, ae.thresholds.StaleDays),
					TriggeredAt: now,
				})
			}
		}

		if ae.thresholds.BlockedHours > 0 && t.Status == models.StatusOpen && blocked(t) {
			blockedAfter := time.Duration(ae.thresholds.BlockedHours) * time.Hour
			if now.Sub(t.UpdatedAt) > blockedAfter {
				alerts = append(alerts, Alert{
					ID:        "blocked-" + t.ID,
					Condition: "task_blocked_too_long",
					Severity:  SeverityHigh,
					Message: fmt.Sprintf("task %s has sat blocked for more than %d hours",
						t.ID, ae.thresholds.BlockedHours),
					TriggeredAt: now,
				})
			}
		}
	}

	if ae.thresholds.MaxOpen > 0 && openCount > ae.thresholds.MaxOpen {
		alerts = append(alerts, Alert{
			ID:        "open-count",
			Condition: "too_many_open",
			Severity:  SeverityLow,
			Message: fmt.Sprintf("store has %d open tasks, above the configured maximum of %d",
				openCount, ae.thresholds.MaxOpen),
			TriggeredAt: now,
		})
	}

	return alerts
}
