package observability

import (
	"testing"
	"time"

	"github.com/slabforge/tsk/pkg/models"
)

func alertTask(id string, status models.TaskStatus, updated time.Time) *models.Task {
	return &models.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    status,
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func conditions(alerts []Alert) map[string]int {
	out := make(map[string]int)
	for _, a := range alerts {
		out[a.Condition]++
	}
	return out
}

func TestAlertEngineStaleActive(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	engine := NewAlertEngine(models.AlertConfig{StaleDays: 3, BlockedHours: 48, MaxOpen: 25})

	tasks := []*models.Task{
		alertTask("tsk-aaaa1111", models.StatusActive, now.Add(-4*24*time.Hour)),
		alertTask("tsk-bbbb2222", models.StatusActive, now.Add(-1*time.Hour)),
		// Open tasks never go stale, only active ones.
		alertTask("tsk-cccc3333", models.StatusOpen, now.Add(-30*24*time.Hour)),
	}

	alerts := engine.Evaluate(now, tasks)
	got := conditions(alerts)
	if got["task_stale"] != 1 {
		t.Fatalf("expected 1 stale alert, got %v", alerts)
	}
	if alerts[0].ID != "stale-tsk-aaaa1111" {
		t.Errorf("alert ID = %q", alerts[0].ID)
	}
	if alerts[0].Severity != SeverityMedium {
		t.Errorf("stale severity = %q, want medium", alerts[0].Severity)
	}
}

func TestAlertEngineBlockedTooLong(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	engine := NewAlertEngine(models.AlertConfig{StaleDays: 3, BlockedHours: 48, MaxOpen: 25})

	blocker := alertTask("tsk-aaaa1111", models.StatusActive, now)
	stuck := alertTask("tsk-bbbb2222", models.StatusOpen, now.Add(-72*time.Hour))
	stuck.Blocks = []string{blocker.ID}
	fresh := alertTask("tsk-cccc3333", models.StatusOpen, now.Add(-1*time.Hour))
	fresh.Blocks = []string{blocker.ID}

	got := conditions(engine.Evaluate(now, []*models.Task{blocker, stuck, fresh}))
	if got["task_blocked_too_long"] != 1 {
		t.Fatalf("expected 1 blocked alert, got %v", got)
	}
}

func TestAlertEngineClosedBlockerDoesNotAlert(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	engine := NewAlertEngine(models.AlertConfig{BlockedHours: 48})

	blocker := alertTask("tsk-aaaa1111", models.StatusClosed, now)
	waiting := alertTask("tsk-bbbb2222", models.StatusOpen, now.Add(-72*time.Hour))
	waiting.Blocks = []string{blocker.ID}

	if alerts := engine.Evaluate(now, []*models.Task{blocker, waiting}); len(alerts) != 0 {
		t.Fatalf("closed blocker should not alert, got %v", alerts)
	}
}

func TestAlertEngineArchivedBlockerStillCounts(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	engine := NewAlertEngine(models.AlertConfig{BlockedHours: 48})

	// An archived blocker is closed by definition, so the dependent is
	// not blocked; the archived task itself must never alert either.
	blocker := alertTask("tsk-aaaa1111", models.StatusClosed, now.Add(-100*24*time.Hour))
	blocker.Archived = true
	waiting := alertTask("tsk-bbbb2222", models.StatusOpen, now.Add(-72*time.Hour))
	waiting.Blocks = []string{blocker.ID}

	if alerts := engine.Evaluate(now, []*models.Task{blocker, waiting}); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %v", alerts)
	}
}

func TestAlertEngineTooManyOpen(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	engine := NewAlertEngine(models.AlertConfig{MaxOpen: 2})

	tasks := []*models.Task{
		alertTask("tsk-aaaa1111", models.StatusOpen, now),
		alertTask("tsk-bbbb2222", models.StatusOpen, now),
		alertTask("tsk-cccc3333", models.StatusOpen, now),
		alertTask("tsk-dddd4444", models.StatusClosed, now),
	}

	alerts := engine.Evaluate(now, tasks)
	got := conditions(alerts)
	if got["too_many_open"] != 1 {
		t.Fatalf("expected too_many_open, got %v", got)
	}
	for _, a := range alerts {
		if a.Condition == "too_many_open" && a.Severity != SeverityLow {
			t.Errorf("too_many_open severity = %q, want low", a.Severity)
		}
	}
}

func TestAlertEngineZeroThresholdsDisable(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	engine := NewAlertEngine(models.AlertConfig{})

	tasks := []*models.Task{
		alertTask("tsk-aaaa1111", models.StatusActive, now.Add(-365*24*time.Hour)),
		alertTask("tsk-bbbb2222", models.StatusOpen, now),
	}
	if alerts := engine.Evaluate(now, tasks); len(alerts) != 0 {
		t.Fatalf("zero thresholds should disable every condition, got %v", alerts)
	}
}
