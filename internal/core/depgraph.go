package core

import "sort"

// EdgeKind distinguishes the two relationships tasks can have.
type EdgeKind string

const (
	// EdgeBlocks runs from a task to a task it is blocked by.
	EdgeBlocks EdgeKind = "blocks"
	// EdgeParentChild runs from a child task to its parent.
	EdgeParentChild EdgeKind = "parent-child"
)

// DepGraph holds every directed edge between tasks, typed by kind.
// Each kind must stay acyclic on its own: blocks edges form the
// blocking DAG, parent-child edges form the containment forest. A pair
// of tasks carries at most one kind of relationship.
type DepGraph struct {
	out map[string]map[string]EdgeKind
	in  map[string]map[string]EdgeKind
}

// NewDepGraph returns an empty dependency graph.
func NewDepGraph() *DepGraph {
	return &DepGraph{
		out: make(map[string]map[string]EdgeKind),
		in:  make(map[string]map[string]EdgeKind),
	}
}

// AddEdge records that from depends on to with the given kind. An
// identical existing edge is a no-op. An edge of a different kind
// between the same two tasks, in either direction, fails with
// DependencyConflictError. An edge that would let a task reach itself
// through same-kind edges fails with DependencyCycleError and leaves
// the graph untouched.
func (g *DepGraph) AddEdge(from, to string, kind EdgeKind) error {
	if existing, ok := g.out[from][to]; ok {
		if existing == kind {
			return nil
		}
		return &DependencyConflictError{From: from, To: to,
			Existing: string(existing), Proposed: string(kind)}
	}
	if existing, ok := g.out[to][from]; ok && existing != kind {
		return &DependencyConflictError{From: from, To: to,
			Existing: string(existing), Proposed: string(kind)}
	}
	if g.Reaches(to, from, kind) {
		return &DependencyCycleError{From: from, To: to}
	}
	g.setEdge(from, to, kind)
	return nil
}

// setEdge writes an edge without validation. Snapshot loading uses it
// so a damaged store can still be read and repaired; mutations go
// through AddEdge.
func (g *DepGraph) setEdge(from, to string, kind EdgeKind) {
	if g.out[from] == nil {
		g.out[from] = make(map[string]EdgeKind)
	}
	g.out[from][to] = kind
	if g.in[to] == nil {
		g.in[to] = make(map[string]EdgeKind)
	}
	g.in[to][from] = kind
}

// RemoveEdge drops the from->to edge if it exists with the given kind.
func (g *DepGraph) RemoveEdge(from, to string, kind EdgeKind) {
	if g.out[from][to] != kind {
		return
	}
	delete(g.out[from], to)
	if len(g.out[from]) == 0 {
		delete(g.out, from)
	}
	delete(g.in[to], from)
	if len(g.in[to]) == 0 {
		delete(g.in, to)
	}
}

// RemoveNode drops every edge where id is either endpoint. After a task
// is deleted no dangling edge may survive.
func (g *DepGraph) RemoveNode(id string) {
	for to, kind := range g.out[id] {
		g.RemoveEdge(id, to, kind)
	}
	for from, kind := range g.in[id] {
		g.RemoveEdge(from, id, kind)
	}
}

// Reaches reports whether target is reachable from start following
// edges of one kind. The traversal is an explicit-stack DFS with a
// visited set, so depth is bounded by memory rather than the call
// stack, and a damaged graph with a cycle still terminates.
func (g *DepGraph) Reaches(start, target string, kind EdgeKind) bool {
	if start == target {
		return true
	}
	visited := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next, k := range g.out[n] {
			if k != kind || visited[next] {
				continue
			}
			if next == target {
				return true
			}
			visited[next] = true
			stack = append(stack, next)
		}
	}
	return false
}

// DirectBlockers returns the sorted ids the given task is directly
// blocked by.
func (g *DepGraph) DirectBlockers(id string) []string {
	var out []string
	for to, kind := range g.out[id] {
		if kind == EdgeBlocks {
			out = append(out, to)
		}
	}
	sort.Strings(out)
	return out
}

// TransitiveBlockers returns every task reachable from id over blocks
// edges, sorted. The task itself is excluded.
func (g *DepGraph) TransitiveBlockers(id string) []string {
	visited := map[string]bool{id: true}
	stack := []string{id}
	var out []string
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next, k := range g.out[n] {
			if k != EdgeBlocks || visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, next)
			stack = append(stack, next)
		}
	}
	sort.Strings(out)
	return out
}

// IsBlocked reports whether any direct blocker of id satisfies the
// blocking predicate. The store passes "status is open or active";
// closed and archived blockers never block.
func (g *DepGraph) IsBlocked(id string, blocking func(id string) bool) bool {
	for to, kind := range g.out[id] {
		if kind == EdgeBlocks && blocking(to) {
			return true
		}
	}
	return false
}

// Dependents returns the sorted ids of tasks directly blocked by id.
func (g *DepGraph) Dependents(id string) []string {
	var out []string
	for from, kind := range g.in[id] {
		if kind == EdgeBlocks {
			out = append(out, from)
		}
	}
	sort.Strings(out)
	return out
}
