package core

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/slabforge/tsk/pkg/models"
)

// TaskStore is the aggregate over one store directory. Every operation
// opens a fresh snapshot of the record tree; state-changing operations
// additionally run under the store's exclusive lock for their whole
// read-modify-write cycle. Readers are lock-free and may observe a
// snapshot that is already stale by the time it renders.
type TaskStore interface {
	Create(req CreateRequest) (*models.Task, error)
	Get(fragment string) (*TaskDetail, error)
	List(filter ListFilter) ([]*models.Task, error)
	Search(query string) ([]*models.Task, error)
	SetStatus(fragment string, status models.TaskStatus, reason string) (*StatusChange, error)
	Remove(fragment string) (*RemoveResult, error)
	Reorder(fragment, beforeFrag, afterFrag string) (*models.Task, error)
	ReadyTasks() ([]*models.Task, error)
	Children(fragment string) ([]*models.Task, error)
	Roots() ([]*models.Task, error)
	Tree(fragment string) ([]*TreeNode, error)
	AddDependency(fragment, blockerFrag string) (*models.Task, error)
	RemoveDependency(fragment, blockerFrag string) (*models.Task, error)
	RepairOrphans() (*RepairReport, error)
	Resolve(fragment string) (string, error)
	Import(feed io.Reader, opts ImportOptions) (*ImportReport, error)
	Stats() (*StoreStats, error)
}

// CreateRequest carries everything needed to create one task.
type CreateRequest struct {
	Title       string
	Description string
	// Parent and Blocks are identifier fragments, resolved against
	// the snapshot the create runs on.
	Parent string
	Blocks []string
	// Before and After name an optional insertion anchor among the
	// new task's siblings. At most one may be set; neither means
	// append.
	Before string
	After  string
	// Slug forces a slug-style id for this create.
	Slug bool
}

// ListFilter narrows a listing.
type ListFilter struct {
	// Status keeps only tasks in that status; empty keeps all.
	Status models.TaskStatus
	// IncludeArchived adds archived subtrees to the listing.
	IncludeArchived bool
}

func (f ListFilter) matches(t *models.Task) bool {
	if t.Archived && !f.IncludeArchived {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// TaskDetail is the full view of one task.
type TaskDetail struct {
	Task     *models.Task
	Children []*models.Task
	// BlockedBy are the tasks this one directly waits on; Blocking
	// are the tasks waiting on this one.
	BlockedBy []*models.Task
	Blocking  []*models.Task
	// Blocked reports whether any BlockedBy entry is still open or
	// active.
	Blocked bool
}

// StatusChange reports a SetStatus outcome.
type StatusChange struct {
	Task     *models.Task
	Previous models.TaskStatus
	// Changed is false when the task was already in the requested
	// status.
	Changed bool
	// ArchivedRoot names the root whose subtree moved to the archive
	// because of this change, or "" if nothing moved.
	ArchivedRoot string
}

// RemoveResult reports what a Remove deleted and repaired.
type RemoveResult struct {
	// Removed holds the deleted subtree's ids, sorted.
	Removed []string
	// Stripped holds the ids whose blocks lists referenced a removed
	// task and were rewritten, sorted.
	Stripped []string
}

// TreeNode is one task with its children nested, in sibling order.
type TreeNode struct {
	Task     *models.Task
	Children []*TreeNode
}

// RepairReport summarizes a RepairOrphans pass.
type RepairReport struct {
	// Promoted holds orphaned tasks promoted to roots.
	Promoted []string
	// Archived holds fully closed root subtrees swept into the
	// archive.
	Archived []string
	// RemovedDirs counts empty container directories cleaned up.
	RemovedDirs int
}

// StoreStats is a point-in-time census of the store.
type StoreStats struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Active   int `json:"active"`
	Closed   int `json:"closed"`
	Archived int `json:"archived"`
	Ready    int `json:"ready"`
	Blocked  int `json:"blocked"`
	Roots    int `json:"roots"`
}

// fileTaskStore implements TaskStore over a record directory.
type fileTaskStore struct {
	layout *Layout
	cfg    *models.StoreConfig
	rfs    RecordFS
	idgen  TaskIDGenerator
	events EventLogger
}

// NewTaskStore creates a TaskStore over tasksDir. events may be nil
// when no journal is wired in.
func NewTaskStore(tasksDir string, cfg *models.StoreConfig, rfs RecordFS, idgen TaskIDGenerator, events EventLogger) TaskStore {
	return &fileTaskStore{
		layout: NewLayout(tasksDir),
		cfg:    cfg,
		rfs:    rfs,
		idgen:  idgen,
		events: events,
	}
}

// lockStore takes the store's exclusive lock for one mutation.
func (s *fileTaskStore) lockStore() (func() error, error) {
	if err := s.rfs.EnsureDir(s.layout.Root()); err != nil {
		return nil, err
	}
	return acquireLock(s.layout.LockPath(), s.cfg.LockTimeout)
}

func (s *fileTaskStore) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	// The record tree is the source of truth; a journal failure never
	// fails the operation it describes.
	_ = s.events.LogEvent(eventType, data)
}

// Create validates, places, and persists a new open task. Any failure
// leaves the store untouched.
func (s *fileTaskStore) Create(req CreateRequest) (*models.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, &InvalidRecordError{Field: "title", Reason: "must not be empty"}
	}
	if req.Before != "" && req.After != "" {
		return nil, fmt.Errorf("creating task: before and after anchors are mutually exclusive")
	}

	unlock, err := s.lockStore()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}

	parentID := ""
	if req.Parent != "" {
		parentID, err = snap.resolver.Resolve(req.Parent)
		if err != nil {
			return nil, fmt.Errorf("resolving parent: %w", err)
		}
		if snap.byID[parentID].Archived {
			return nil, fmt.Errorf("parent %s is archived, cannot create tasks under it", parentID)
		}
	}

	blockIDs := make([]string, 0, len(req.Blocks))
	for _, frag := range req.Blocks {
		id, err := snap.resolver.Resolve(frag)
		if err != nil {
			return nil, fmt.Errorf("resolving blocker: %w", err)
		}
		blockIDs = append(blockIDs, id)
	}

	siblings := snap.siblingGroup(parentID, false)
	pos, err := s.placeAmong(snap, siblings, req.Before, req.After)
	if err != nil {
		return nil, err
	}

	id, err := s.idgen.GenerateTaskID(req.Title, req.Slug, func(candidate string) bool {
		_, taken := snap.byID[candidate]
		return taken
	})
	if err != nil {
		return nil, err
	}

	// Edge checks run against the live graph so a cross reference
	// (say, a blocker that is also the parent) fails before anything
	// is written.
	if parentID != "" {
		if err := snap.graph.AddEdge(id, parentID, EdgeParentChild); err != nil {
			return nil, err
		}
	}
	for _, b := range blockIDs {
		if err := snap.graph.AddEdge(id, b, EdgeBlocks); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	t := &models.Task{
		ID:          id,
		Title:       req.Title,
		Status:      models.StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
		Description: req.Description,
		Blocks:      blockIDs,
		Parent:      parentID,
		PeerIndex:   pos,
	}
	data, err := EncodeTask(t)
	if err != nil {
		return nil, err
	}

	var ancestors []string
	if parentID != "" {
		parentAncestors, err := snap.ancestors(parentID)
		if err != nil {
			return nil, err
		}
		ancestors = append(parentAncestors, parentID)

		if len(snap.children[parentID]) == 0 {
			// First child: the parent's flat record becomes a
			// container directory holding it.
			newParentPath := s.layout.RecordPath(parentAncestors, parentID, true, false)
			if snap.paths[parentID] != newParentPath {
				if err := s.rfs.Move(snap.paths[parentID], newParentPath); err != nil {
					return nil, fmt.Errorf("promoting parent %s to a container: %w", parentID, err)
				}
			}
		}
	}

	path := s.layout.RecordPath(ancestors, id, false, false)
	if err := s.rfs.WriteAtomic(path, data); err != nil {
		return nil, err
	}

	s.logEvent(EventTaskCreated, map[string]any{
		"id": id, "title": t.Title, "parent": parentID, "blocks": blockIDs,
	})
	return t, nil
}

// Get resolves a fragment and returns the task with its relationships.
func (s *fileTaskStore) Get(fragment string) (*TaskDetail, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	id, err := snap.resolver.Resolve(fragment)
	if err != nil {
		return nil, err
	}

	t := snap.byID[id]
	d := &TaskDetail{
		Task:     t,
		Children: append([]*models.Task(nil), snap.children[id]...),
		Blocked:  snap.isBlocked(id),
	}
	for _, bid := range snap.graph.DirectBlockers(id) {
		if bt, ok := snap.byID[bid]; ok {
			d.BlockedBy = append(d.BlockedBy, bt)
		}
	}
	for _, bid := range snap.graph.Dependents(id) {
		if bt, ok := snap.byID[bid]; ok {
			d.Blocking = append(d.Blocking, bt)
		}
	}
	return d, nil
}

// List returns matching tasks in depth-first tree order: each root in
// sibling order, immediately followed by its descendants.
func (s *fileTaskStore) List(filter ListFilter) ([]*models.Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("listing tasks: unknown status %q", filter.Status)
	}
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	var out []*models.Task
	for _, t := range snap.orderedTasks() {
		if filter.matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Search returns tasks whose title, description, or close reason
// contains the query, case-insensitively. Archived tasks are included.
func (s *fileTaskStore) Search(query string) ([]*models.Task, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []*models.Task
	for _, t := range snap.orderedTasks() {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.CloseReason), q) {
			out = append(out, t)
		}
	}
	return out, nil
}

// SetStatus moves a task through the lifecycle. Closing a task may
// relocate its whole root subtree to the archive when nothing in it
// remains open.
func (s *fileTaskStore) SetStatus(fragment string, status models.TaskStatus, reason string) (*StatusChange, error) {
	if !status.IsValid() {
		return nil, &InvalidRecordError{Field: "status",
			Reason: fmt.Sprintf("%q is not one of open, active, closed", status)}
	}

	unlock, err := s.lockStore()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	id, err := snap.resolver.Resolve(fragment)
	if err != nil {
		return nil, err
	}
	t := snap.byID[id]
	if t.Archived {
		return nil, fmt.Errorf("task %s is archived and no longer changes status", id)
	}
	if t.Status == status {
		return &StatusChange{Task: t, Previous: status}, nil
	}
	if !t.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("task %s is %s and cannot move to %s", id, t.Status, status)
	}

	// The archive walk needs an intact parent chain; a broken one
	// fails the close before anything is written.
	ancestors, err := snap.ancestors(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prev := t.Status
	t.Status = status
	t.UpdatedAt = now
	if status == models.StatusClosed {
		closedAt := now
		t.ClosedAt = &closedAt
		if reason != "" {
			t.CloseReason = reason
		}
	}

	data, err := EncodeTask(t)
	if err != nil {
		return nil, err
	}
	if err := s.rfs.WriteAtomic(snap.paths[id], data); err != nil {
		return nil, err
	}

	change := &StatusChange{Task: t, Previous: prev, Changed: true}
	if status == models.StatusClosed {
		rootID := id
		if len(ancestors) > 0 {
			rootID = ancestors[0]
		}
		if snap.subtreeClosed(rootID) {
			if err := s.archiveSubtree(snap, rootID); err != nil {
				return nil, err
			}
			change.ArchivedRoot = rootID
		}
	}

	eventData := map[string]any{"id": id, "from": string(prev), "to": string(status)}
	if reason != "" {
		eventData["reason"] = reason
	}
	s.logEvent(EventTaskStatusChanged, eventData)
	if change.ArchivedRoot != "" {
		s.logEvent(EventTaskArchived, map[string]any{"root": change.ArchivedRoot})
	}
	return change, nil
}

// archiveSubtree relocates a fully closed root subtree into the
// archive mirror with a single rename.
func (s *fileTaskStore) archiveSubtree(snap *snapshot, rootID string) error {
	root := snap.byID[rootID]
	if root.Archived {
		return nil
	}
	var src, dst string
	if len(snap.children[rootID]) > 0 {
		src = filepath.Dir(snap.paths[rootID])
		dst = s.layout.SubtreeDir(nil, rootID, true)
	} else {
		src = snap.paths[rootID]
		dst = s.layout.RecordPath(nil, rootID, false, true)
	}
	if err := s.rfs.Move(src, dst); err != nil {
		return fmt.Errorf("archiving subtree %s: %w", rootID, err)
	}
	for _, id := range snap.subtree(rootID) {
		snap.byID[id].Archived = true
	}
	return nil
}

// Remove permanently deletes a task and its whole subtree, then strips
// every reference to the deleted ids from other tasks' blocks lists.
// Archived subtrees can be removed too. There is no undo.
func (s *fileTaskStore) Remove(fragment string) (*RemoveResult, error) {
	unlock, err := s.lockStore()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	id, err := snap.resolver.Resolve(fragment)
	if err != nil {
		return nil, err
	}
	t := snap.byID[id]

	removed := snap.subtree(id)
	removedSet := make(map[string]bool, len(removed))
	for _, rid := range removed {
		removedSet[rid] = true
	}

	// Rewrite referencing records first; the store never holds a
	// blocks entry pointing at a task that no longer exists.
	now := time.Now().UTC()
	var stripped []string
	for _, oid := range snap.ids {
		other := snap.byID[oid]
		if removedSet[oid] {
			continue
		}
		kept := other.Blocks[:0:0]
		for _, b := range other.Blocks {
			if !removedSet[b] {
				kept = append(kept, b)
			}
		}
		if len(kept) == len(other.Blocks) {
			continue
		}
		other.Blocks = kept
		other.UpdatedAt = now
		data, err := EncodeTask(other)
		if err != nil {
			return nil, err
		}
		if err := s.rfs.WriteAtomic(snap.paths[oid], data); err != nil {
			return nil, err
		}
		stripped = append(stripped, oid)
	}

	if len(snap.children[id]) > 0 {
		if err := s.rfs.RemoveTree(filepath.Dir(snap.paths[id])); err != nil {
			return nil, err
		}
	} else {
		if err := s.rfs.RemoveFile(snap.paths[id]); err != nil {
			return nil, err
		}
	}

	// A parent that just lost its only child collapses back to a flat
	// record.
	if t.Parent != "" {
		if parent, ok := snap.byID[t.Parent]; ok && len(snap.children[t.Parent]) == 1 {
			if parentAncestors, aerr := snap.ancestors(t.Parent); aerr == nil {
				oldPath := snap.paths[t.Parent]
				newPath := s.layout.RecordPath(parentAncestors, t.Parent, false, parent.Archived)
				if oldPath != newPath {
					if err := s.rfs.Move(oldPath, newPath); err != nil {
						return nil, fmt.Errorf("collapsing container %s: %w", t.Parent, err)
					}
					if err := s.rfs.RemoveDirIfEmpty(filepath.Dir(oldPath)); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	sort.Strings(removed)
	sort.Strings(stripped)
	s.logEvent(EventTaskRemoved, map[string]any{"removed": removed, "stripped": stripped})
	return &RemoveResult{Removed: removed, Stripped: stripped}, nil
}

// Reorder moves a task next to an anchor within its sibling group.
func (s *fileTaskStore) Reorder(fragment, beforeFrag, afterFrag string) (*models.Task, error) {
	if (beforeFrag == "") == (afterFrag == "") {
		return nil, fmt.Errorf("reordering requires exactly one of a before or after anchor")
	}

	unlock, err := s.lockStore()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	id, err := snap.resolver.Resolve(fragment)
	if err != nil {
		return nil, err
	}
	t := snap.byID[id]
	if t.Archived {
		return nil, fmt.Errorf("task %s is archived and cannot be reordered", id)
	}

	anchorID, err := snap.resolver.Resolve(beforeFrag + afterFrag)
	if err != nil {
		return nil, fmt.Errorf("resolving anchor: %w", err)
	}
	if anchorID == id {
		return nil, fmt.Errorf("cannot reorder %s relative to itself", id)
	}
	anchor := snap.byID[anchorID]
	if anchor.Parent != t.Parent || anchor.Archived != t.Archived {
		return nil, fmt.Errorf("tasks %s and %s are not siblings", id, anchorID)
	}

	group := snap.siblingGroup(t.Parent, t.Archived)
	siblings := make([]*models.Task, 0, len(group)-1)
	for _, sib := range group {
		if sib.ID != id {
			siblings = append(siblings, sib)
		}
	}
	pos, err := s.placeAmong(snap, siblings, beforeFrag, afterFrag)
	if err != nil {
		return nil, err
	}

	t.PeerIndex = pos
	t.UpdatedAt = time.Now().UTC()
	data, err := EncodeTask(t)
	if err != nil {
		return nil, err
	}
	if err := s.rfs.WriteAtomic(snap.paths[id], data); err != nil {
		return nil, err
	}

	s.logEvent(EventTaskReordered, map[string]any{"id": id, "peer_index": pos})
	return t, nil
}

// placeAmong computes a peer index within siblings (sibling-sorted,
// with the task being placed excluded). Empty anchors mean append.
func (s *fileTaskStore) placeAmong(snap *snapshot, siblings []*models.Task, beforeFrag, afterFrag string) (float64, error) {
	if beforeFrag == "" && afterFrag == "" {
		if len(siblings) == 0 {
			return PositionBetween(nil, nil), nil
		}
		return PositionBetween(siblings[len(siblings)-1], nil), nil
	}

	frag := beforeFrag + afterFrag
	anchorID, err := snap.resolver.Resolve(frag)
	if err != nil {
		return 0, fmt.Errorf("resolving anchor: %w", err)
	}
	at := -1
	for i, sib := range siblings {
		if sib.ID == anchorID {
			at = i
			break
		}
	}
	if at < 0 {
		return 0, fmt.Errorf("anchor %s is not a sibling at the insertion point", anchorID)
	}

	if beforeFrag != "" {
		var prev *models.Task
		if at > 0 {
			prev = siblings[at-1]
		}
		return PositionBetween(prev, siblings[at]), nil
	}
	var next *models.Task
	if at+1 < len(siblings) {
		next = siblings[at+1]
	}
	return PositionBetween(siblings[at], next), nil
}

// ReadyTasks returns open, unblocked, unarchived tasks in tree order.
func (s *fileTaskStore) ReadyTasks() ([]*models.Task, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	var out []*models.Task
	for _, t := range snap.orderedTasks() {
		if t.Archived || t.Status != models.StatusOpen {
			continue
		}
		if snap.isBlocked(t.ID) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Children returns a task's direct children in sibling order.
func (s *fileTaskStore) Children(fragment string) ([]*models.Task, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	id, err := snap.resolver.Resolve(fragment)
	if err != nil {
		return nil, err
	}
	return append([]*models.Task(nil), snap.children[id]...), nil
}

// Roots returns the unarchived parentless tasks in sibling order.
func (s *fileTaskStore) Roots() ([]*models.Task, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	return append([]*models.Task(nil), snap.roots...), nil
}

// Tree returns the nested task forest. With a fragment it returns that
// task's subtree alone; otherwise one node per unarchived root.
func (s *fileTaskStore) Tree(fragment string) ([]*TreeNode, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	if fragment != "" {
		id, err := snap.resolver.Resolve(fragment)
		if err != nil {
			return nil, err
		}
		return []*TreeNode{snap.buildTree(id)}, nil
	}
	nodes := make([]*TreeNode, 0, len(snap.roots))
	for _, r := range snap.roots {
		nodes = append(nodes, snap.buildTree(r.ID))
	}
	return nodes, nil
}

// AddDependency records that a task is blocked by another. Re-adding
// an existing dependency is a no-op.
func (s *fileTaskStore) AddDependency(fragment, blockerFrag string) (*models.Task, error) {
	unlock, err := s.lockStore()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	id, err := snap.resolver.Resolve(fragment)
	if err != nil {
		return nil, err
	}
	t := snap.byID[id]
	if t.Archived {
		return nil, fmt.Errorf("task %s is archived and cannot take new dependencies", id)
	}
	blockerID, err := snap.resolver.Resolve(blockerFrag)
	if err != nil {
		return nil, fmt.Errorf("resolving blocker: %w", err)
	}

	if err := snap.graph.AddEdge(id, blockerID, EdgeBlocks); err != nil {
		return nil, err
	}
	for _, b := range t.Blocks {
		if b == blockerID {
			return t, nil
		}
	}

	t.Blocks = append(t.Blocks, blockerID)
	t.UpdatedAt = time.Now().UTC()
	data, err := EncodeTask(t)
	if err != nil {
		return nil, err
	}
	if err := s.rfs.WriteAtomic(snap.paths[id], data); err != nil {
		return nil, err
	}

	s.logEvent(EventTaskUpdated, map[string]any{"id": id, "dep_added": blockerID})
	return t, nil
}

// RemoveDependency drops one blocker from a task's blocks list.
func (s *fileTaskStore) RemoveDependency(fragment, blockerFrag string) (*models.Task, error) {
	unlock, err := s.lockStore()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	id, err := snap.resolver.Resolve(fragment)
	if err != nil {
		return nil, err
	}
	t := snap.byID[id]
	if t.Archived {
		return nil, fmt.Errorf("task %s is archived and cannot change dependencies", id)
	}
	blockerID, err := snap.resolver.Resolve(blockerFrag)
	if err != nil {
		return nil, fmt.Errorf("resolving blocker: %w", err)
	}

	kept := t.Blocks[:0:0]
	for _, b := range t.Blocks {
		if b != blockerID {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(t.Blocks) {
		return nil, fmt.Errorf("task %s is not blocked by %s", id, blockerID)
	}

	t.Blocks = kept
	t.UpdatedAt = time.Now().UTC()
	data, err := EncodeTask(t)
	if err != nil {
		return nil, err
	}
	if err := s.rfs.WriteAtomic(snap.paths[id], data); err != nil {
		return nil, err
	}

	s.logEvent(EventTaskUpdated, map[string]any{"id": id, "dep_removed": blockerID})
	return t, nil
}

// RepairOrphans promotes tasks whose parent no longer exists to roots,
// sweeps fully closed root subtrees into the archive, and removes
// empty container directories.
func (s *fileTaskStore) RepairOrphans() (*RepairReport, error) {
	unlock, err := s.lockStore()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}

	var orphans []*models.Task
	for _, oid := range snap.ids {
		t := snap.byID[oid]
		if t.Parent == "" {
			continue
		}
		if _, ok := snap.byID[t.Parent]; !ok {
			orphans = append(orphans, t)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return siblingLess(orphans[i], orphans[j]) })

	report := &RepairReport{}
	now := time.Now().UTC()

	var lastActive, lastArchived *models.Task
	if len(snap.roots) > 0 {
		lastActive = snap.roots[len(snap.roots)-1]
	}
	if len(snap.archivedRoots) > 0 {
		lastArchived = snap.archivedRoots[len(snap.archivedRoots)-1]
	}

	for _, o := range orphans {
		base := lastActive
		if o.Archived {
			base = lastArchived
		}
		o.Parent = ""
		o.PeerIndex = PositionBetween(base, nil)
		o.UpdatedAt = now
		if o.Archived {
			lastArchived = o
		} else {
			lastActive = o
		}

		// Relocate the orphan's records to the root level, children
		// and all.
		if len(snap.children[o.ID]) > 0 {
			src := filepath.Dir(snap.paths[o.ID])
			dst := s.layout.SubtreeDir(nil, o.ID, o.Archived)
			if src != dst {
				if err := s.rfs.Move(src, dst); err != nil {
					return nil, fmt.Errorf("promoting orphan %s: %w", o.ID, err)
				}
			}
			snap.paths[o.ID] = filepath.Join(dst, o.ID+recordExt)
		} else {
			dst := s.layout.RecordPath(nil, o.ID, false, o.Archived)
			if snap.paths[o.ID] != dst {
				if err := s.rfs.Move(snap.paths[o.ID], dst); err != nil {
					return nil, fmt.Errorf("promoting orphan %s: %w", o.ID, err)
				}
			}
			snap.paths[o.ID] = dst
		}

		data, err := EncodeTask(o)
		if err != nil {
			return nil, err
		}
		if err := s.rfs.WriteAtomic(snap.paths[o.ID], data); err != nil {
			return nil, err
		}
		report.Promoted = append(report.Promoted, o.ID)
	}

	// Fully closed subtrees stranded in the active tree (a crashed
	// archive rename, an import of finished work) move to the archive
	// now.
	var activeRoots []string
	for _, oid := range snap.ids {
		t := snap.byID[oid]
		if t.Parent == "" && !t.Archived {
			activeRoots = append(activeRoots, oid)
		}
	}
	for _, rid := range activeRoots {
		if snap.subtreeClosed(rid) {
			if err := s.archiveSubtree(snap, rid); err != nil {
				return nil, err
			}
			report.Archived = append(report.Archived, rid)
		}
	}

	swept, err := s.rfs.RemoveEmptyDirs(s.layout.Root(), archiveDirName)
	if err != nil {
		return nil, err
	}
	report.RemovedDirs += swept
	swept, err = s.rfs.RemoveEmptyDirs(s.layout.ArchiveRoot())
	if err != nil {
		return nil, err
	}
	report.RemovedDirs += swept

	if len(report.Promoted) > 0 || len(report.Archived) > 0 || report.RemovedDirs > 0 {
		s.logEvent(EventStoreRepaired, map[string]any{
			"promoted": report.Promoted, "archived": report.Archived, "removed_dirs": report.RemovedDirs,
		})
	}
	return report, nil
}

// Resolve expands an identifier fragment against the current snapshot.
func (s *fileTaskStore) Resolve(fragment string) (string, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return "", err
	}
	return snap.resolver.Resolve(fragment)
}

// Stats returns a census of the current snapshot.
func (s *fileTaskStore) Stats() (*StoreStats, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	st := &StoreStats{}
	for _, oid := range snap.ids {
		t := snap.byID[oid]
		st.Total++
		if t.Archived {
			st.Archived++
			continue
		}
		switch t.Status {
		case models.StatusOpen:
			st.Open++
		case models.StatusActive:
			st.Active++
		case models.StatusClosed:
			st.Closed++
		}
		blocked := snap.isBlocked(t.ID)
		if t.Status == models.StatusOpen && !blocked {
			st.Ready++
		}
		if t.Status.Blocking() && blocked {
			st.Blocked++
		}
		if t.Parent == "" {
			st.Roots++
		}
	}
	return st, nil
}

// snapshot is one consistent load of the record tree with the derived
// indexes every operation works from.
type snapshot struct {
	byID     map[string]*models.Task
	paths    map[string]string
	children map[string][]*models.Task
	roots    []*models.Task
	// archivedRoots are the roots of archived subtrees, in sibling
	// order.
	archivedRoots []*models.Task
	ids           []string
	resolver      *Resolver
	graph         *DepGraph
}

// loadSnapshot scans both trees and builds the indexes. Any record
// that fails to decode fails the load; a store with a broken record in
// it reports that instead of quietly working around it.
func (s *fileTaskStore) loadSnapshot() (*snapshot, error) {
	snap := &snapshot{
		byID:     make(map[string]*models.Task),
		paths:    make(map[string]string),
		children: make(map[string][]*models.Task),
		graph:    NewDepGraph(),
	}

	active, err := s.rfs.ScanTree(s.layout.Root(), archiveDirName)
	if err != nil {
		return nil, err
	}
	archived, err := s.rfs.ScanTree(s.layout.ArchiveRoot())
	if err != nil {
		return nil, err
	}

	for _, batch := range []struct {
		entries  []RecordEntry
		archived bool
	}{{active, false}, {archived, true}} {
		for _, e := range batch.entries {
			if !ValidTaskID(e.ID) {
				return nil, &InvalidRecordError{ID: e.ID, Field: "id",
					Reason: fmt.Sprintf("record file %s is not named by a valid task id", e.Path)}
			}
			if prev, dup := snap.paths[e.ID]; dup {
				return nil, &InvalidRecordError{ID: e.ID, Field: "id",
					Reason: fmt.Sprintf("duplicate records at %s and %s", prev, e.Path)}
			}
			data, err := s.rfs.Read(e.Path)
			if err != nil {
				return nil, err
			}
			t, err := DecodeTask(e.ID, data)
			if err != nil {
				return nil, err
			}
			t.Archived = batch.archived
			snap.byID[e.ID] = t
			snap.paths[e.ID] = e.Path
		}
	}

	snap.ids = make([]string, 0, len(snap.byID))
	for id := range snap.byID {
		snap.ids = append(snap.ids, id)
	}
	sort.Strings(snap.ids)
	snap.resolver = NewResolver(snap.ids)

	for _, id := range snap.ids {
		t := snap.byID[id]
		if t.Parent != "" {
			snap.children[t.Parent] = append(snap.children[t.Parent], t)
			snap.graph.setEdge(id, t.Parent, EdgeParentChild)
		}
		for _, b := range t.Blocks {
			snap.graph.setEdge(id, b, EdgeBlocks)
		}
	}
	for parent := range snap.children {
		SortSiblings(snap.children[parent])
	}
	for _, id := range snap.ids {
		t := snap.byID[id]
		if t.Parent != "" {
			continue
		}
		if t.Archived {
			snap.archivedRoots = append(snap.archivedRoots, t)
		} else {
			snap.roots = append(snap.roots, t)
		}
	}
	SortSiblings(snap.roots)
	SortSiblings(snap.archivedRoots)

	return snap, nil
}

// ancestors returns the id chain above a task, root first. A parent
// reference that resolves to nothing is an OrphanedParentError; a
// parent chain that loops is reported rather than walked forever.
func (sn *snapshot) ancestors(id string) ([]string, error) {
	visited := map[string]bool{id: true}
	var up []string
	cur := sn.byID[id]
	for cur.Parent != "" {
		p, ok := sn.byID[cur.Parent]
		if !ok {
			return nil, &OrphanedParentError{TaskID: cur.ID, ParentID: cur.Parent}
		}
		if visited[p.ID] {
			return nil, fmt.Errorf("parent chain of %s loops at %s", id, p.ID)
		}
		visited[p.ID] = true
		up = append(up, p.ID)
		cur = p
	}
	for i, j := 0, len(up)-1; i < j; i, j = i+1, j-1 {
		up[i], up[j] = up[j], up[i]
	}
	return up, nil
}

// siblingGroup returns one sorted sibling group: the children of
// parentID, or the roots of the given tree when parentID is empty.
func (sn *snapshot) siblingGroup(parentID string, archived bool) []*models.Task {
	if parentID != "" {
		return sn.children[parentID]
	}
	if archived {
		return sn.archivedRoots
	}
	return sn.roots
}

// subtree returns id plus all descendants in depth-first order.
func (sn *snapshot) subtree(id string) []string {
	out := make([]string, 0, 1)
	stack := []string{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		kids := sn.children[n]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i].ID)
		}
	}
	return out
}

func (sn *snapshot) subtreeClosed(rootID string) bool {
	for _, id := range sn.subtree(rootID) {
		if !sn.byID[id].IsClosed() {
			return false
		}
	}
	return true
}

// blocking reports whether the task with the given id currently blocks
// its dependents. Dangling references never block.
func (sn *snapshot) blocking(id string) bool {
	t, ok := sn.byID[id]
	return ok && t.Status.Blocking()
}

func (sn *snapshot) isBlocked(id string) bool {
	return sn.graph.IsBlocked(id, sn.blocking)
}

// orderedTasks returns every task in depth-first tree order: active
// roots, then archived roots, then orphaned subtrees. The trailing
// sweep picks up anything a damaged parent chain would otherwise hide.
func (sn *snapshot) orderedTasks() []*models.Task {
	visited := make(map[string]bool, len(sn.byID))
	out := make([]*models.Task, 0, len(sn.byID))

	walk := func(start *models.Task) {
		stack := []*models.Task{start}
		for len(stack) > 0 {
			t := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[t.ID] {
				continue
			}
			visited[t.ID] = true
			out = append(out, t)
			kids := sn.children[t.ID]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		}
	}

	for _, r := range sn.roots {
		walk(r)
	}
	for _, r := range sn.archivedRoots {
		walk(r)
	}
	for _, id := range sn.ids {
		if !visited[id] {
			walk(sn.byID[id])
		}
	}
	return out
}

// buildTree assembles the nested node form of one subtree without
// recursion: the pre-order walk guarantees a parent's node exists
// before any child attaches to it.
func (sn *snapshot) buildTree(rootID string) *TreeNode {
	nodes := make(map[string]*TreeNode)
	for _, id := range sn.subtree(rootID) {
		t := sn.byID[id]
		n := &TreeNode{Task: t}
		nodes[id] = n
		if id != rootID {
			nodes[t.Parent].Children = append(nodes[t.Parent].Children, n)
		}
	}
	return nodes[rootID]
}
