package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/slabforge/tsk/pkg/models"
)

func TestRenderTaskLine(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	task := &models.Task{
		ID:        "tsk-9f8e7d6c",
		Title:     "wire the auth flow",
		Status:    models.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	line := renderTaskLine(task, false)
	if !strings.Contains(line, "tsk-9f8e7d6c") {
		t.Errorf("line missing id: %q", line)
	}
	if !strings.Contains(line, "wire the auth flow") {
		t.Errorf("line missing title: %q", line)
	}
	if !strings.Contains(line, "open") {
		t.Errorf("line missing status: %q", line)
	}
	if strings.Contains(line, "[blocked]") {
		t.Errorf("unblocked task should not carry the marker: %q", line)
	}
}

func TestRenderTaskLineBlocked(t *testing.T) {
	task := &models.Task{
		ID:     "tsk-11223344",
		Title:  "fix the login redirect",
		Status: models.StatusOpen,
	}

	line := renderTaskLine(task, true)
	if !strings.Contains(line, "[blocked]") {
		t.Errorf("blocked task missing marker: %q", line)
	}
}

func TestRenderTaskLineArchived(t *testing.T) {
	task := &models.Task{
		ID:       "tsk-deadbeef",
		Title:    "done long ago",
		Status:   models.StatusClosed,
		Archived: true,
	}

	line := renderTaskLine(task, false)
	if !strings.Contains(line, "arch") {
		t.Errorf("archived task should show arch, got %q", line)
	}
}

func TestStyleForStatus(t *testing.T) {
	for _, status := range []models.TaskStatus{
		models.StatusOpen, models.StatusActive, models.StatusClosed,
	} {
		got := styleForStatus(status).Render(string(status))
		if !strings.Contains(got, string(status)) {
			t.Errorf("style for %s lost its text: %q", status, got)
		}
	}
}
