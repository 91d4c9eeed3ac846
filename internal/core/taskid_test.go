package core

import (
	"strings"
	"testing"

	"github.com/slabforge/tsk/pkg/models"
)

func TestValidTaskID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"tsk-9f8e7d6c", true},
		{"tsk-9f8e7d6c0a1b", true},
		{"tsk-db-migration-abcd1234", true},
		{"tsk-a-b-c-dead", true},
		{"bug42-deadbeef", true},

		{"tsk", false},                   // no suffix
		{"tsk-", false},                  // empty suffix
		{"tsk-ab12", false},              // plain hex too short
		{"tsk-XYZ12345", false},          // non-hex suffix
		{"Tsk-9f8e7d6c", false},          // uppercase prefix
		{"1tsk-9f8e7d6c", false},         // prefix must start with a letter
		{"tsk-db-migration-ab", false},   // slug hex segment too short
		{"tsk-db_migration-dead", false}, // underscore is not a slug char
		{"toolongaprefix-9f8e7d6c", false},
		{"-9f8e7d6c", false},
	}
	for _, tt := range tests {
		if got := ValidTaskID(tt.id); got != tt.want {
			t.Errorf("ValidTaskID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestGenerateTaskIDHexStyle(t *testing.T) {
	gen := NewTaskIDGenerator("tsk", models.IDStyleHex)
	id, err := gen.GenerateTaskID("Anything at all", false, func(string) bool { return false })
	if err != nil {
		t.Fatalf("GenerateTaskID failed: %v", err)
	}
	if !ValidTaskID(id) {
		t.Fatalf("generated id %q fails the grammar", id)
	}
	if !strings.HasPrefix(id, "tsk-") {
		t.Errorf("id %q missing prefix", id)
	}
	if strings.Count(id, "-") != 1 {
		t.Errorf("hex style should have no slug segments: %q", id)
	}
}

func TestGenerateTaskIDSlugStyle(t *testing.T) {
	gen := NewTaskIDGenerator("tsk", models.IDStyleSlug)
	id, err := gen.GenerateTaskID("Fix the DB migration!!", false, func(string) bool { return false })
	if err != nil {
		t.Fatalf("GenerateTaskID failed: %v", err)
	}
	if !ValidTaskID(id) {
		t.Fatalf("generated id %q fails the grammar", id)
	}
	if !strings.HasPrefix(id, "tsk-fix-the-db-") {
		t.Errorf("id %q missing slug from title", id)
	}
}

func TestGenerateTaskIDSluggedOverride(t *testing.T) {
	gen := NewTaskIDGenerator("tsk", models.IDStyleHex)
	id, err := gen.GenerateTaskID("Ship It", true, func(string) bool { return false })
	if err != nil {
		t.Fatalf("GenerateTaskID failed: %v", err)
	}
	if !strings.HasPrefix(id, "tsk-ship-it-") {
		t.Errorf("slugged override ignored: %q", id)
	}
}

func TestGenerateTaskIDEmptySlugFallsBackToHex(t *testing.T) {
	gen := NewTaskIDGenerator("tsk", models.IDStyleSlug)
	id, err := gen.GenerateTaskID("!!!???", false, func(string) bool { return false })
	if err != nil {
		t.Fatalf("GenerateTaskID failed: %v", err)
	}
	if !ValidTaskID(id) || strings.Count(id, "-") != 1 {
		t.Errorf("unusable title should fall back to plain hex, got %q", id)
	}
}

func TestGenerateTaskIDRetriesOnCollision(t *testing.T) {
	gen := NewTaskIDGenerator("tsk", models.IDStyleHex)
	rejections := 0
	id, err := gen.GenerateTaskID("X", false, func(string) bool {
		if rejections < 6 {
			rejections++
			return true
		}
		return false
	})
	if err != nil {
		t.Fatalf("GenerateTaskID failed after collisions: %v", err)
	}
	if !ValidTaskID(id) {
		t.Fatalf("id %q fails the grammar", id)
	}
	// After four straight collisions the suffix widens past 8 chars.
	suffix := id[strings.LastIndex(id, "-")+1:]
	if len(suffix) <= 8 {
		t.Errorf("suffix %q should have widened after %d collisions", suffix, rejections)
	}
}

func TestGenerateTaskIDGivesUpEventually(t *testing.T) {
	gen := NewTaskIDGenerator("tsk", models.IDStyleHex)
	if _, err := gen.GenerateTaskID("X", false, func(string) bool { return true }); err == nil {
		t.Fatal("expected an error when every candidate collides")
	}
}

func TestValidPrefix(t *testing.T) {
	for _, p := range []string{"t", "tsk", "bug42", "abcdefghijkl"} {
		if !ValidPrefix(p) {
			t.Errorf("ValidPrefix(%q) = false, want true", p)
		}
	}
	for _, p := range []string{"", "Tsk", "4bug", "way-too-long-prefix", "has-dash"} {
		if ValidPrefix(p) {
			t.Errorf("ValidPrefix(%q) = true, want false", p)
		}
	}
}
