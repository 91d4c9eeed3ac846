package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"invalid record", &InvalidRecordError{ID: "tsk-aaaa1111", Field: "title", Reason: "missing"}, ExitInvalidRecord},
		{"not found", &NotFoundError{Fragment: "zzz"}, ExitNotFound},
		{"ambiguous", &AmbiguousError{Fragment: "tsk-a", Candidates: []string{"tsk-aaaa1111", "tsk-abab2323"}}, ExitAmbiguous},
		{"cycle", &DependencyCycleError{From: "tsk-aaaa1111", To: "tsk-bbbb2222"}, ExitDependencyCycle},
		{"conflict", &DependencyConflictError{From: "tsk-aaaa1111", To: "tsk-bbbb2222", Existing: "parent-child", Proposed: "blocks"}, ExitDependencyConflict},
		{"locked", &StoreLockedError{Path: "/x/.lock", Timeout: time.Second}, ExitStoreLocked},
		{"orphaned parent", &OrphanedParentError{TaskID: "tsk-aaaa1111", ParentID: "tsk-gone0000"}, ExitOrphanedParent},
		{"generic", errors.New("disk on fire"), ExitFailure},
		{"wrapped taxonomy error", fmt.Errorf("resolving: %w", &NotFoundError{Fragment: "x"}), ExitNotFound},
		{"double wrapped", fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", &StoreLockedError{Path: "/x", Timeout: time.Second})), ExitStoreLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	ambig := &AmbiguousError{Fragment: "tsk-a", Candidates: []string{"tsk-aaaa1111", "tsk-abab2323"}}
	if msg := ambig.Error(); !strings.Contains(msg, "tsk-aaaa1111") || !strings.Contains(msg, "tsk-abab2323") {
		t.Errorf("ambiguous message should list candidates: %s", msg)
	}

	self := &DependencyCycleError{From: "tsk-aaaa1111", To: "tsk-aaaa1111"}
	if msg := self.Error(); !strings.Contains(msg, "itself") {
		t.Errorf("self cycle should read as a self dependency: %s", msg)
	}

	orphan := &OrphanedParentError{TaskID: "tsk-aaaa1111", ParentID: "tsk-gone0000"}
	if msg := orphan.Error(); !strings.Contains(msg, "tsk-gone0000") {
		t.Errorf("orphan message should name the missing parent: %s", msg)
	}
}
