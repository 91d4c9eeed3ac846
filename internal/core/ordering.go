package core

import (
	"sort"

	"github.com/slabforge/tsk/pkg/models"
)

// Sibling order is a fractional float key: inserting between two tasks
// takes their midpoint, so no neighboring record ever needs rewriting.
// Repeated insertion at one spot eventually exhausts float precision,
// which collapses the midpoint onto an endpoint; the tie-break below
// keeps the order deterministic even then.

// PositionBetween computes the peer index for a task placed between two
// siblings. Nil before means prepend, nil after means append, both nil
// means first task in the group.
func PositionBetween(before, after *models.Task) float64 {
	switch {
	case before == nil && after == nil:
		return 0
	case after == nil:
		return before.PeerIndex + 1
	case before == nil:
		return after.PeerIndex - 1
	default:
		return (before.PeerIndex + after.PeerIndex) / 2
	}
}

// siblingLess is the total order within one sibling group: peer index,
// then creation time, then id. Equal peer indexes only arise from
// writes that bypassed PositionBetween (imports, hand-edited records).
func siblingLess(a, b *models.Task) bool {
	if a.PeerIndex != b.PeerIndex {
		return a.PeerIndex < b.PeerIndex
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortSiblings orders one sibling group in place.
func SortSiblings(tasks []*models.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		return siblingLess(tasks[i], tasks[j])
	})
}
