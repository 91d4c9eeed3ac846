package core

import (
	"testing"
	"time"

	"github.com/slabforge/tsk/pkg/models"
)

func orderedTask(id string, index float64, created time.Time) *models.Task {
	return &models.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    models.StatusOpen,
		CreatedAt: created,
		PeerIndex: index,
	}
}

func TestPositionBetween(t *testing.T) {
	now := time.Now().UTC()
	a := orderedTask("tsk-aaaa1111", 0, now)
	b := orderedTask("tsk-bbbb2222", 1, now)

	tests := []struct {
		name          string
		before, after *models.Task
		want          float64
	}{
		{"empty group", nil, nil, 0},
		{"append", a, nil, 1},
		{"prepend", nil, b, 0},
		{"midpoint", a, b, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PositionBetween(tt.before, tt.after); got != tt.want {
				t.Errorf("PositionBetween = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortSiblingsTieBreaks(t *testing.T) {
	early := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	// Equal peer indexes fall back to creation time, then id.
	tasks := []*models.Task{
		orderedTask("tsk-cccc3333", 1, early),
		orderedTask("tsk-bbbb2222", 1, late),
		orderedTask("tsk-aaaa1111", 1, early),
		orderedTask("tsk-dddd4444", 0, late),
	}
	SortSiblings(tasks)

	want := []string{"tsk-dddd4444", "tsk-aaaa1111", "tsk-cccc3333", "tsk-bbbb2222"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, tasks[i].ID, id)
		}
	}
}
