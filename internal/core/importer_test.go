package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/slabforge/tsk/pkg/models"
)

func importLine(s string) string { return s + "\n" }

func TestImportGoodBatch(t *testing.T) {
	h := newStoreHarness(t)
	feed := importLine(`{"id":"bd-aaaa1111","title":"Epic","status":"open","created_at":"2026-08-01T09:00:00Z"}`) +
		importLine(`{"id":"bd-bbbb2222","title":"Child","status":"in_progress","created_at":"2026-08-01T09:01:00Z","dependencies":[{"issue_id":"bd-bbbb2222","depends_on_id":"bd-aaaa1111","type":"parent-child"}]}`) +
		importLine("") +
		importLine(`{"id":"bd-cccc3333","title":"Waiter","description":"waits on the child","status":"blocked","created_at":"2026-08-01T09:02:00Z","dependencies":[{"issue_id":"bd-cccc3333","depends_on_id":"bd-bbbb2222","type":"blocks"}]}`)

	report, err := h.store.Import(strings.NewReader(feed), ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if report.Imported != 3 || len(report.Archived) != 0 {
		t.Fatalf("report = %+v", report)
	}

	child, err := h.store.Get("bd-bbbb2222")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if child.Task.Parent != "bd-aaaa1111" || child.Task.Status != models.StatusActive {
		t.Errorf("child = %+v", child.Task)
	}

	// The feed's "blocked" status is derived here, so the waiter lands
	// open and its blocked state comes from the dependency.
	waiter, err := h.store.Get("bd-cccc3333")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if waiter.Task.Status != models.StatusOpen || !waiter.Blocked {
		t.Errorf("waiter = %+v, blocked %v", waiter.Task, waiter.Blocked)
	}
	if waiter.Task.Description != "waits on the child" {
		t.Errorf("Description = %q", waiter.Task.Description)
	}

	// Child record sits inside the epic's container.
	if !h.rfs.Exists(h.layout.RecordPath([]string{"bd-aaaa1111"}, "bd-bbbb2222", false, false)) {
		t.Error("imported child not placed under its parent")
	}
}

func TestImportBadLineRejectsWholeBatch(t *testing.T) {
	h := newStoreHarness(t)
	pre := h.create(CreateRequest{Title: "Existing"})

	feed := importLine(`{"id":"bd-aaaa1111","title":"Fine","status":"open","created_at":"2026-08-01T09:00:00Z"}`) +
		importLine(`{"id":"bd-bbbb2222","title":"","status":"open","created_at":"2026-08-01T09:01:00Z"}`)

	_, err := h.store.Import(strings.NewReader(feed), ImportOptions{})
	var lineErr *ImportLineError
	if !errors.As(err, &lineErr) {
		t.Fatalf("expected ImportLineError, got %v", err)
	}
	if lineErr.Line != 2 {
		t.Errorf("Line = %d, want 2", lineErr.Line)
	}
	var invalid *InvalidRecordError
	if !errors.As(err, &invalid) {
		t.Errorf("wrapped error should be InvalidRecordError, got %v", lineErr.Err)
	}

	// Nothing from the feed landed, the first line included.
	got := h.listIDs(ListFilter{IncludeArchived: true})
	if !reflect.DeepEqual(got, []string{pre.ID}) {
		t.Errorf("store contents after failed import = %v", got)
	}
}

func TestImportCycleRejectedWithLineNumber(t *testing.T) {
	h := newStoreHarness(t)
	feed := importLine(`{"id":"bd-aaaa1111","title":"A","status":"open","created_at":"2026-08-01T09:00:00Z","dependencies":[{"issue_id":"bd-aaaa1111","depends_on_id":"bd-bbbb2222","type":"blocks"}]}`) +
		importLine(`{"id":"bd-bbbb2222","title":"B","status":"open","created_at":"2026-08-01T09:01:00Z","dependencies":[{"issue_id":"bd-bbbb2222","depends_on_id":"bd-aaaa1111","type":"blocks"}]}`)

	_, err := h.store.Import(strings.NewReader(feed), ImportOptions{})
	var lineErr *ImportLineError
	if !errors.As(err, &lineErr) {
		t.Fatalf("expected ImportLineError, got %v", err)
	}
	if lineErr.Line != 2 {
		t.Errorf("Line = %d, want 2 (the edge that closes the cycle)", lineErr.Line)
	}
	var cycle *DependencyCycleError
	if !errors.As(err, &cycle) {
		t.Errorf("wrapped error should be DependencyCycleError, got %v", lineErr.Err)
	}
	if ExitCode(err) != ExitDependencyCycle {
		t.Errorf("ExitCode = %d", ExitCode(err))
	}

	if got := h.listIDs(ListFilter{IncludeArchived: true}); len(got) != 0 {
		t.Errorf("store should be empty after rejected import, got %v", got)
	}
}

func TestImportPrefixMap(t *testing.T) {
	h := newStoreHarness(t)
	feed := importLine(`{"id":"bd-aaaa1111","title":"A","status":"open","created_at":"2026-08-01T09:00:00Z"}`) +
		importLine(`{"id":"bd-bbbb2222","title":"B","status":"open","created_at":"2026-08-01T09:01:00Z","dependencies":[{"issue_id":"bd-bbbb2222","depends_on_id":"bd-aaaa1111","type":"blocks"}]}`)

	report, err := h.store.Import(strings.NewReader(feed), ImportOptions{
		PrefixMap: map[string]string{"bd": "tsk"},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if report.Imported != 2 {
		t.Fatalf("Imported = %d", report.Imported)
	}

	got := h.listIDs(ListFilter{})
	want := []string{"tsk-aaaa1111", "tsk-bbbb2222"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}

	// Dependency targets were rewritten along with the ids.
	detail, err := h.store.Get("tsk-bbbb2222")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(detail.Task.Blocks, []string{"tsk-aaaa1111"}) {
		t.Errorf("Blocks = %v", detail.Task.Blocks)
	}
}

func TestImportClosedSubtreeArchives(t *testing.T) {
	h := newStoreHarness(t)
	feed := importLine(`{"id":"bd-aaaa1111","title":"Done epic","status":"closed","created_at":"2026-08-01T09:00:00Z","closed_at":"2026-08-02T10:00:00Z","close_reason":"shipped"}`) +
		importLine(`{"id":"bd-bbbb2222","title":"Done child","status":"closed","created_at":"2026-08-01T09:01:00Z","dependencies":[{"issue_id":"bd-bbbb2222","depends_on_id":"bd-aaaa1111","type":"parent-child"}]}`) +
		importLine(`{"id":"bd-cccc3333","title":"Still going","status":"open","created_at":"2026-08-01T09:02:00Z"}`)

	report, err := h.store.Import(strings.NewReader(feed), ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if report.Imported != 3 {
		t.Errorf("Imported = %d", report.Imported)
	}
	if !reflect.DeepEqual(report.Archived, []string{"bd-aaaa1111"}) {
		t.Errorf("Archived = %v", report.Archived)
	}

	if got := h.listIDs(ListFilter{}); !reflect.DeepEqual(got, []string{"bd-cccc3333"}) {
		t.Errorf("active listing = %v", got)
	}
	if !h.rfs.Exists(h.layout.RecordPath([]string{"bd-aaaa1111"}, "bd-bbbb2222", false, true)) {
		t.Error("closed subtree not moved to the archive")
	}
}

func TestImportRejectsCollisions(t *testing.T) {
	h := newStoreHarness(t)
	pre := h.create(CreateRequest{Title: "Existing"})

	t.Run("duplicate in feed", func(t *testing.T) {
		feed := importLine(`{"id":"bd-aaaa1111","title":"A","status":"open","created_at":"2026-08-01T09:00:00Z"}`) +
			importLine(`{"id":"bd-aaaa1111","title":"A again","status":"open","created_at":"2026-08-01T09:01:00Z"}`)
		_, err := h.store.Import(strings.NewReader(feed), ImportOptions{})
		var lineErr *ImportLineError
		if !errors.As(err, &lineErr) || lineErr.Line != 2 {
			t.Fatalf("expected line 2 error, got %v", err)
		}
	})

	t.Run("collides with store", func(t *testing.T) {
		feed := importLine(`{"id":"` + pre.ID + `","title":"Clash","status":"open","created_at":"2026-08-01T09:00:00Z"}`)
		_, err := h.store.Import(strings.NewReader(feed), ImportOptions{})
		var lineErr *ImportLineError
		if !errors.As(err, &lineErr) || lineErr.Line != 1 {
			t.Fatalf("expected line 1 error, got %v", err)
		}
	})
}

func TestImportRejectsBadReferences(t *testing.T) {
	h := newStoreHarness(t)

	tests := []struct {
		name string
		feed string
		line int
	}{
		{"unknown status", importLine(`{"id":"bd-aaaa1111","title":"A","status":"wontfix","created_at":"2026-08-01T09:00:00Z"}`), 1},
		{"missing blocker", importLine(`{"id":"bd-aaaa1111","title":"A","status":"open","created_at":"2026-08-01T09:00:00Z","dependencies":[{"issue_id":"bd-aaaa1111","depends_on_id":"bd-gone0000","type":"blocks"}]}`), 1},
		{"missing parent", importLine(`{"id":"bd-aaaa1111","title":"A","status":"open","created_at":"2026-08-01T09:00:00Z","dependencies":[{"issue_id":"bd-aaaa1111","depends_on_id":"bd-gone0000","type":"parent-child"}]}`), 1},
		{"unknown dependency type", importLine(`{"id":"bd-aaaa1111","title":"A","status":"open","created_at":"2026-08-01T09:00:00Z","dependencies":[{"issue_id":"bd-aaaa1111","depends_on_id":"bd-bbbb2222","type":"related"}]}`), 1},
		{"mismatched issue id", importLine(`{"id":"bd-aaaa1111","title":"A","status":"open","created_at":"2026-08-01T09:00:00Z","dependencies":[{"issue_id":"bd-zzzz9999","depends_on_id":"bd-bbbb2222","type":"blocks"}]}`), 1},
		{"garbage json", importLine(`{"id": busted`), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.store.Import(strings.NewReader(tt.feed), ImportOptions{})
			var lineErr *ImportLineError
			if !errors.As(err, &lineErr) {
				t.Fatalf("expected ImportLineError, got %v", err)
			}
			if lineErr.Line != tt.line {
				t.Errorf("Line = %d, want %d", lineErr.Line, tt.line)
			}
		})
	}

	if got := h.listIDs(ListFilter{IncludeArchived: true}); len(got) != 0 {
		t.Errorf("failed imports must leave the store empty, got %v", got)
	}
}

func TestImportAppendsAfterExistingSiblings(t *testing.T) {
	h := newStoreHarness(t)
	a := h.create(CreateRequest{Title: "A"})

	feed := importLine(`{"id":"bd-aaaa1111","title":"Imported","status":"open","created_at":"2026-08-01T09:00:00Z"}`)
	if _, err := h.store.Import(strings.NewReader(feed), ImportOptions{}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	got := h.listIDs(ListFilter{})
	want := []string{a.ID, "bd-aaaa1111"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}
