package core

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/slabforge/tsk/pkg/models"
)

// Feature: tsk, Property 5: Generated ids are valid and collision-free
// Every id the generator mints satisfies the identifier grammar and
// never repeats within a store, whatever the title or style.
func TestProperty_GeneratedIDsValidAndUnique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.StringMatching(`[a-z][a-z0-9]{0,11}`).Draw(rt, "prefix")
		style := models.IDStyleHex
		if rapid.Bool().Draw(rt, "slugStyle") {
			style = models.IDStyleSlug
		}
		gen := NewTaskIDGenerator(prefix, style)

		seen := map[string]bool{}
		exists := func(id string) bool { return seen[id] }

		count := rapid.IntRange(1, 30).Draw(rt, "count")
		for i := 0; i < count; i++ {
			title := rapid.String().Draw(rt, "title")
			slugged := rapid.Bool().Draw(rt, "slugged")

			id, err := gen.GenerateTaskID(title, slugged, exists)
			if err != nil {
				rt.Fatalf("GenerateTaskID(%q) failed: %v", title, err)
			}
			if !ValidTaskID(id) {
				rt.Fatalf("generated id %q fails the grammar (title %q)", id, title)
			}
			if seen[id] {
				rt.Fatalf("generated id %q collides", id)
			}
			seen[id] = true
		}
	})
}
