package core

import (
	"path/filepath"
	"strings"
)

// Store directory layout. The tasks dir is the root container; a task
// without children is a flat <id>.md inside its container, a task with
// children becomes a directory named by its id holding its own record
// plus the children's. _archived/ mirrors the same shape for archived
// subtrees. .lock and events.jsonl are bookkeeping, never records.

const (
	archiveDirName  = "_archived"
	lockFileName    = ".lock"
	journalFileName = "events.jsonl"
	recordExt       = ".md"
)

// Layout computes record paths under one store directory.
type Layout struct {
	root string
}

// NewLayout creates a Layout rooted at the tasks directory.
func NewLayout(root string) *Layout {
	return &Layout{root: root}
}

// Root returns the tasks directory itself.
func (l *Layout) Root() string { return l.root }

// ArchiveRoot returns the archived mirror directory.
func (l *Layout) ArchiveRoot() string { return filepath.Join(l.root, archiveDirName) }

// LockPath returns the store lock file path.
func (l *Layout) LockPath() string { return filepath.Join(l.root, lockFileName) }

// JournalPath returns the operation journal path.
func (l *Layout) JournalPath() string { return filepath.Join(l.root, journalFileName) }

func (l *Layout) base(archived bool) string {
	if archived {
		return l.ArchiveRoot()
	}
	return l.root
}

// RecordPath returns the canonical path of a task's record file.
// ancestors is the id chain from the task's root ancestor down to its
// immediate parent; hasChildren decides whether the task's record sits
// inside its own container directory.
func (l *Layout) RecordPath(ancestors []string, id string, hasChildren, archived bool) string {
	dir := l.ContainerDir(ancestors, archived)
	if hasChildren {
		dir = filepath.Join(dir, id)
	}
	return filepath.Join(dir, id+recordExt)
}

// SubtreeDir returns the container directory a task with children owns.
func (l *Layout) SubtreeDir(ancestors []string, id string, archived bool) string {
	return filepath.Join(l.ContainerDir(ancestors, archived), id)
}

// ContainerDir returns the directory a task's record lives in, given
// its ancestor chain.
func (l *Layout) ContainerDir(ancestors []string, archived bool) string {
	parts := append([]string{l.base(archived)}, ancestors...)
	return filepath.Join(parts...)
}

// IDFromRecordPath extracts the task id from a record file path, or ""
// if the path is not a record.
func IDFromRecordPath(path string) string {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, recordExt) {
		return ""
	}
	return strings.TrimSuffix(name, recordExt)
}
