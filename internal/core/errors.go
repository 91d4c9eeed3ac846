package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InvalidRecordError reports a task record that fails structural
// validation: a missing required field, a malformed identifier
// reference, a duplicate or self-referencing blocks entry, or an
// unrecognized status value.
type InvalidRecordError struct {
	ID     string
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid record %s: %s: %s", e.ID, e.Field, e.Reason)
}

// NotFoundError reports an identifier fragment that matches no task.
type NotFoundError struct {
	Fragment string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no task matches %q", e.Fragment)
}

// AmbiguousError reports an identifier fragment that matches more than
// one task. Candidates is sorted.
type AmbiguousError struct {
	Fragment   string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q is ambiguous, matches: %s", e.Fragment, strings.Join(e.Candidates, ", "))
}

// DependencyCycleError reports an edge that would close a cycle.
type DependencyCycleError struct {
	From string
	To   string
}

func (e *DependencyCycleError) Error() string {
	if e.From == e.To {
		return fmt.Sprintf("task %s cannot depend on itself", e.From)
	}
	return fmt.Sprintf("dependency %s -> %s would create a cycle", e.From, e.To)
}

// DependencyConflictError reports an edge between two tasks that
// already carry an edge of a different kind.
type DependencyConflictError struct {
	From     string
	To       string
	Existing string
	Proposed string
}

func (e *DependencyConflictError) Error() string {
	return fmt.Sprintf("tasks %s and %s already have a %s relationship, cannot also add %s",
		e.From, e.To, e.Existing, e.Proposed)
}

// StoreLockedError reports that the store's exclusive lock could not be
// acquired within the configured timeout.
type StoreLockedError struct {
	Path    string
	Timeout time.Duration
}

func (e *StoreLockedError) Error() string {
	return fmt.Sprintf("store is locked by another process (gave up on %s after %s)", e.Path, e.Timeout)
}

// OrphanedParentError reports a task whose parent identifier no longer
// resolves to any record.
type OrphanedParentError struct {
	TaskID   string
	ParentID string
}

func (e *OrphanedParentError) Error() string {
	return fmt.Sprintf("task %s references missing parent %s (run repair to promote it)", e.TaskID, e.ParentID)
}

// Exit codes for the error taxonomy. Scripts branch on these, so each
// class keeps a stable code.
const (
	ExitFailure            = 1
	ExitInvalidRecord      = 2
	ExitNotFound           = 3
	ExitAmbiguous          = 4
	ExitDependencyCycle    = 5
	ExitDependencyConflict = 6
	ExitStoreLocked        = 7
	ExitOrphanedParent     = 8
)

// ExitCode maps an error to its process exit code. Wrapped errors are
// unwrapped via errors.As; anything outside the taxonomy is a generic
// failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		invalid  *InvalidRecordError
		notFound *NotFoundError
		ambig    *AmbiguousError
		cycle    *DependencyCycleError
		conflict *DependencyConflictError
		locked   *StoreLockedError
		orphan   *OrphanedParentError
	)
	switch {
	case errors.As(err, &invalid):
		return ExitInvalidRecord
	case errors.As(err, &notFound):
		return ExitNotFound
	case errors.As(err, &ambig):
		return ExitAmbiguous
	case errors.As(err, &cycle):
		return ExitDependencyCycle
	case errors.As(err, &conflict):
		return ExitDependencyConflict
	case errors.As(err, &locked):
		return ExitStoreLocked
	case errors.As(err, &orphan):
		return ExitOrphanedParent
	}
	return ExitFailure
}
