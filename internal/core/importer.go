package core

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/slabforge/tsk/pkg/models"
)

// Legacy import ingests the JSONL export of a beads issue database:
// one JSON object per line, dependencies typed "blocks" or
// "parent-child". The whole batch is validated before any record is
// written; the first bad line or cycle-closing edge rejects everything.

// ImportOptions tune one import run.
type ImportOptions struct {
	// PrefixMap rewrites id prefixes during ingest, old prefix to
	// new. Ids whose prefix is not in the map pass through unchanged.
	PrefixMap map[string]string
}

// ImportReport summarizes a committed import.
type ImportReport struct {
	// Imported counts the tasks materialized.
	Imported int
	// Archived lists root subtrees that arrived fully closed and went
	// straight to the archive.
	Archived []string
}

// ImportLineError wraps a validation failure with the feed line that
// caused it. Unwrap exposes the underlying taxonomy error.
type ImportLineError struct {
	Line int
	Err  error
}

func (e *ImportLineError) Error() string {
	return fmt.Sprintf("import line %d: %v", e.Line, e.Err)
}

func (e *ImportLineError) Unwrap() error { return e.Err }

// beadsEntry is one line of the feed.
type beadsEntry struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at,omitempty"`
	ClosedAt     *time.Time        `json:"closed_at,omitempty"`
	CloseReason  string            `json:"close_reason,omitempty"`
	Dependencies []beadsDependency `json:"dependencies,omitempty"`
}

type beadsDependency struct {
	IssueID     string `json:"issue_id"`
	DependsOnID string `json:"depends_on_id"`
	Type        string `json:"type"`
}

// mapBeadsStatus translates a feed status. "blocked" is a stored
// status there but derived here, so it lands as open.
func mapBeadsStatus(s string) (models.TaskStatus, error) {
	switch s {
	case "open":
		return models.StatusOpen, nil
	case "in_progress":
		return models.StatusActive, nil
	case "blocked":
		return models.StatusOpen, nil
	case "closed":
		return models.StatusClosed, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func applyPrefixMap(id string, m map[string]string) string {
	if len(m) == 0 {
		return id
	}
	i := strings.Index(id, "-")
	if i < 0 {
		return id
	}
	if repl, ok := m[id[:i]]; ok {
		return repl + id[i:]
	}
	return id
}

// Import reads the feed, validates every line and every dependency
// edge, and only then materializes the batch under one lock scope.
func (s *fileTaskStore) Import(feed io.Reader, opts ImportOptions) (*ImportReport, error) {
	unlock, err := s.lockStore()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}

	// Pass 1: parse and structurally validate each line.
	scanner := bufio.NewScanner(feed)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		tasks   []*models.Task
		lineOf  = make(map[string]int)
		batch   = make(map[string]*models.Task)
		lineNum = 0
	)
	for scanner.Scan() {
		lineNum++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var entry beadsEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, &ImportLineError{Line: lineNum, Err: fmt.Errorf("parsing entry: %w", err)}
		}

		id := applyPrefixMap(entry.ID, opts.PrefixMap)
		if !ValidTaskID(id) {
			return nil, &ImportLineError{Line: lineNum,
				Err: &InvalidRecordError{ID: id, Field: "id", Reason: "not a valid task id"}}
		}
		if _, dup := batch[id]; dup {
			return nil, &ImportLineError{Line: lineNum,
				Err: &InvalidRecordError{ID: id, Field: "id", Reason: "duplicate id in feed"}}
		}
		if _, dup := snap.byID[id]; dup {
			return nil, &ImportLineError{Line: lineNum,
				Err: &InvalidRecordError{ID: id, Field: "id", Reason: "id already exists in the store"}}
		}

		status, err := mapBeadsStatus(entry.Status)
		if err != nil {
			return nil, &ImportLineError{Line: lineNum,
				Err: &InvalidRecordError{ID: id, Field: "status", Reason: err.Error()}}
		}

		t := &models.Task{
			ID:          id,
			Title:       entry.Title,
			Status:      status,
			CreatedAt:   entry.CreatedAt.UTC(),
			UpdatedAt:   entry.UpdatedAt.UTC(),
			CloseReason: entry.CloseReason,
			Description: entry.Description,
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		if entry.ClosedAt != nil {
			closedAt := entry.ClosedAt.UTC()
			t.ClosedAt = &closedAt
		}

		for _, dep := range entry.Dependencies {
			if applyPrefixMap(dep.IssueID, opts.PrefixMap) != id {
				return nil, &ImportLineError{Line: lineNum,
					Err: fmt.Errorf("dependency issue_id %q does not match entry id %q", dep.IssueID, entry.ID)}
			}
			target := applyPrefixMap(dep.DependsOnID, opts.PrefixMap)
			switch dep.Type {
			case "blocks":
				t.Blocks = append(t.Blocks, target)
			case "parent-child":
				if t.Parent != "" && t.Parent != target {
					return nil, &ImportLineError{Line: lineNum,
						Err: fmt.Errorf("entry %s claims two parents, %s and %s", id, t.Parent, target)}
				}
				t.Parent = target
			default:
				return nil, &ImportLineError{Line: lineNum,
					Err: fmt.Errorf("unknown dependency type %q", dep.Type)}
			}
		}

		if err := validateTask(t); err != nil {
			return nil, &ImportLineError{Line: lineNum, Err: err}
		}

		tasks = append(tasks, t)
		batch[id] = t
		lineOf[id] = lineNum
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading import feed: %w", err)
	}

	// Pass 2: reference and edge validation in feed order, against
	// the live graph, so the reported line is the first one whose
	// edge breaks an invariant.
	exists := func(id string) bool {
		if _, ok := batch[id]; ok {
			return true
		}
		_, ok := snap.byID[id]
		return ok
	}
	for _, t := range tasks {
		line := lineOf[t.ID]
		if t.Parent != "" {
			if !exists(t.Parent) {
				return nil, &ImportLineError{Line: line,
					Err: &OrphanedParentError{TaskID: t.ID, ParentID: t.Parent}}
			}
			if existing, ok := snap.byID[t.Parent]; ok && existing.Archived {
				return nil, &ImportLineError{Line: line,
					Err: fmt.Errorf("parent %s is archived, cannot import children under it", t.Parent)}
			}
			if err := snap.graph.AddEdge(t.ID, t.Parent, EdgeParentChild); err != nil {
				return nil, &ImportLineError{Line: line, Err: err}
			}
		}
		for _, b := range t.Blocks {
			if !exists(b) {
				return nil, &ImportLineError{Line: line,
					Err: &NotFoundError{Fragment: b}}
			}
			if err := snap.graph.AddEdge(t.ID, b, EdgeBlocks); err != nil {
				return nil, &ImportLineError{Line: line, Err: err}
			}
		}
	}

	// Pass 3: assign peer indexes in feed order per sibling group,
	// continuing past each group's existing tail, then merge the
	// batch into the snapshot.
	preChildCount := make(map[string]int, len(snap.children))
	for p, kids := range snap.children {
		preChildCount[p] = len(kids)
	}

	next := make(map[string]float64)
	for _, t := range tasks {
		key := t.Parent
		if _, seeded := next[key]; !seeded {
			group := snap.siblingGroup(key, false)
			if len(group) == 0 {
				next[key] = 0
			} else {
				next[key] = group[len(group)-1].PeerIndex + 1
			}
		}
		t.PeerIndex = next[key]
		next[key]++
	}

	for _, t := range tasks {
		snap.byID[t.ID] = t
		snap.ids = append(snap.ids, t.ID)
		if t.Parent != "" {
			snap.children[t.Parent] = append(snap.children[t.Parent], t)
		} else {
			snap.roots = append(snap.roots, t)
		}
	}
	sort.Strings(snap.ids)
	for p := range snap.children {
		SortSiblings(snap.children[p])
	}
	SortSiblings(snap.roots)

	// Pass 4: write records. An existing flat parent gaining its
	// first imported child is promoted to a container first.
	promoted := make(map[string]bool)
	for _, t := range tasks {
		if t.Parent == "" {
			continue
		}
		if _, inBatch := batch[t.Parent]; inBatch {
			continue
		}
		if preChildCount[t.Parent] != 0 || promoted[t.Parent] {
			continue
		}
		promoted[t.Parent] = true
		parent := snap.byID[t.Parent]
		parentAncestors, err := snap.ancestors(t.Parent)
		if err != nil {
			return nil, err
		}
		newPath := s.layout.RecordPath(parentAncestors, t.Parent, true, parent.Archived)
		if snap.paths[t.Parent] != newPath {
			if err := s.rfs.Move(snap.paths[t.Parent], newPath); err != nil {
				return nil, fmt.Errorf("promoting parent %s to a container: %w", t.Parent, err)
			}
			snap.paths[t.Parent] = newPath
		}
	}

	for _, t := range tasks {
		ancestors, err := snap.ancestors(t.ID)
		if err != nil {
			return nil, err
		}
		path := s.layout.RecordPath(ancestors, t.ID, len(snap.children[t.ID]) > 0, false)
		data, err := EncodeTask(t)
		if err != nil {
			return nil, err
		}
		if err := s.rfs.WriteAtomic(path, data); err != nil {
			return nil, err
		}
		snap.paths[t.ID] = path
	}

	// Fully closed root subtrees the batch produced move straight to
	// the archive.
	report := &ImportReport{Imported: len(tasks)}
	seenRoot := make(map[string]bool)
	for _, t := range tasks {
		ancestors, err := snap.ancestors(t.ID)
		if err != nil {
			return nil, err
		}
		rootID := t.ID
		if len(ancestors) > 0 {
			rootID = ancestors[0]
		}
		if seenRoot[rootID] {
			continue
		}
		seenRoot[rootID] = true
		if !snap.byID[rootID].Archived && snap.subtreeClosed(rootID) {
			if err := s.archiveSubtree(snap, rootID); err != nil {
				return nil, err
			}
			report.Archived = append(report.Archived, rootID)
		}
	}
	sort.Strings(report.Archived)

	s.logEvent(EventStoreImported, map[string]any{
		"imported": report.Imported, "archived": report.Archived,
	})
	return report, nil
}
