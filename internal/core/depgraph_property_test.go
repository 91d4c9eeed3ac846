package core

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func graphEdgeCount(g *DepGraph) int {
	n := 0
	for _, targets := range g.out {
		n += len(targets)
	}
	return n
}

// Feature: tsk, Property 1: Acyclicity is preserved
// No sequence of AddEdge calls can ever produce a graph where a task
// reaches itself through edges of one kind.
func TestProperty_GraphStaysAcyclic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nodes := rapid.IntRange(2, 12).Draw(rt, "nodes")
		attempts := rapid.IntRange(1, 60).Draw(rt, "attempts")

		g := NewDepGraph()
		for i := 0; i < attempts; i++ {
			from := fmt.Sprintf("tsk-%08x", rapid.IntRange(0, nodes-1).Draw(rt, "from"))
			to := fmt.Sprintf("tsk-%08x", rapid.IntRange(0, nodes-1).Draw(rt, "to"))
			kind := EdgeBlocks
			if rapid.Bool().Draw(rt, "parent") {
				kind = EdgeParentChild
			}
			_ = g.AddEdge(from, to, kind)
		}

		for from, targets := range g.out {
			for to, kind := range targets {
				if g.Reaches(to, from, kind) {
					rt.Fatalf("edge %s -> %s (%s) closes a cycle", from, to, kind)
				}
			}
		}
	})
}

// Feature: tsk, Property 2: Rejected edges leave no trace
// A failed AddEdge changes nothing: the edge count and every existing
// edge stay exactly as they were.
func TestProperty_RejectedEdgeLeavesGraphUnchanged(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nodes := rapid.IntRange(2, 10).Draw(rt, "nodes")
		attempts := rapid.IntRange(1, 50).Draw(rt, "attempts")

		g := NewDepGraph()
		for i := 0; i < attempts; i++ {
			from := fmt.Sprintf("tsk-%08x", rapid.IntRange(0, nodes-1).Draw(rt, "from"))
			to := fmt.Sprintf("tsk-%08x", rapid.IntRange(0, nodes-1).Draw(rt, "to"))
			kind := EdgeBlocks
			if rapid.Bool().Draw(rt, "parent") {
				kind = EdgeParentChild
			}

			before := graphEdgeCount(g)
			err := g.AddEdge(from, to, kind)
			after := graphEdgeCount(g)

			var cycle *DependencyCycleError
			var conflict *DependencyConflictError
			switch {
			case err == nil:
				if g.out[from][to] != kind {
					rt.Fatalf("successful AddEdge did not record the edge")
				}
				if after != before && after != before+1 {
					rt.Fatalf("successful AddEdge changed edge count from %d to %d", before, after)
				}
			case errors.As(err, &cycle), errors.As(err, &conflict):
				if after != before {
					rt.Fatalf("failed AddEdge changed edge count from %d to %d", before, after)
				}
				if g.out[from][to] == kind {
					rt.Fatalf("failed AddEdge recorded the edge anyway")
				}
			default:
				rt.Fatalf("unexpected error class: %v", err)
			}
		}
	})
}
