package core

import (
	"sort"
	"strings"
)

// Resolver maps identifier fragments to full task ids. It is built per
// snapshot over the complete id set, archived tasks included, so closed
// work stays addressable by the same short fragments after it moves.
type Resolver struct {
	ids []string
}

// NewResolver creates a Resolver over the given id set. The slice is
// copied and sorted; the caller's order does not matter.
func NewResolver(ids []string) *Resolver {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return &Resolver{ids: sorted}
}

// Resolve expands a fragment to the single full id it identifies. An
// exact match wins even when other ids extend it. Otherwise the
// fragment must be a prefix of exactly one id: zero matches is
// NotFoundError, several is AmbiguousError carrying all candidates.
func (r *Resolver) Resolve(fragment string) (string, error) {
	if fragment == "" {
		return "", &NotFoundError{Fragment: fragment}
	}

	var candidates []string
	for _, id := range r.ids {
		if id == fragment {
			return id, nil
		}
		if strings.HasPrefix(id, fragment) {
			candidates = append(candidates, id)
		}
	}

	switch len(candidates) {
	case 0:
		return "", &NotFoundError{Fragment: fragment}
	case 1:
		return candidates[0], nil
	}
	return "", &AmbiguousError{Fragment: fragment, Candidates: candidates}
}

// IDs returns the full sorted id set the resolver was built over.
func (r *Resolver) IDs() []string {
	return r.ids
}
