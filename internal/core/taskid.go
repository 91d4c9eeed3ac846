package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/slabforge/tsk/pkg/models"
)

// Task identifiers are {prefix}-{suffix}: the store's configured prefix,
// then either a random hex suffix (tsk-9f8e7d6c) or a title slug ending
// in a hex segment (tsk-db-migration-abcd1234).

var (
	prefixPattern   = regexp.MustCompile(`^[a-z][a-z0-9]{0,11}$`)
	slugWordPattern = regexp.MustCompile(`^[a-z0-9]+$`)
	slugUnsafe      = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValidPrefix reports whether p is usable as a store identifier prefix.
func ValidPrefix(p string) bool {
	return prefixPattern.MatchString(p)
}

// ValidTaskID reports whether id satisfies the identifier grammar.
// Plain form: prefix plus a hex suffix of at least 8 chars. Slug form:
// prefix, one or more slug words, and a trailing hex segment of at
// least 4 chars.
func ValidTaskID(id string) bool {
	segs := strings.Split(id, "-")
	if len(segs) < 2 {
		return false
	}
	if !ValidPrefix(segs[0]) {
		return false
	}
	last := segs[len(segs)-1]
	if len(segs) == 2 {
		return len(last) >= 8 && isHex(last)
	}
	for _, word := range segs[1 : len(segs)-1] {
		if !slugWordPattern.MatchString(word) {
			return false
		}
	}
	return len(last) >= 4 && isHex(last)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// TaskIDGenerator mints fresh task identifiers. The exists predicate is
// consulted under the store lock so concurrent creators cannot race a
// collision past it. slugged forces the slug form for one call
// regardless of the generator's default style.
type TaskIDGenerator interface {
	GenerateTaskID(title string, slugged bool, exists func(id string) bool) (string, error)
}

// randomTaskIDGenerator implements TaskIDGenerator with random hex
// suffixes, optionally prefixed by a slug derived from the title.
type randomTaskIDGenerator struct {
	prefix string
	style  string
}

// NewTaskIDGenerator creates a TaskIDGenerator for the given prefix and
// id style (models.IDStyleHex or models.IDStyleSlug).
func NewTaskIDGenerator(prefix, style string) TaskIDGenerator {
	return &randomTaskIDGenerator{prefix: prefix, style: style}
}

const (
	baseSuffixLen = 8
	maxIDAttempts = 16
)

// GenerateTaskID returns a fresh identifier not currently in use. On
// repeated collisions the hex suffix widens so the search space grows
// faster than the store can exhaust it.
func (g *randomTaskIDGenerator) GenerateTaskID(title string, slugged bool, exists func(id string) bool) (string, error) {
	slug := ""
	if slugged || g.style == models.IDStyleSlug {
		slug = slugFromTitle(title)
	}

	hexLen := baseSuffixLen
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if attempt > 0 && attempt%4 == 0 {
			hexLen += 2
		}
		suffix, err := randomHex(hexLen)
		if err != nil {
			return "", fmt.Errorf("generating task id: %w", err)
		}
		id := g.prefix + "-" + suffix
		if slug != "" {
			id = g.prefix + "-" + slug + "-" + suffix
		}
		if !exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("generating task id: no unused id after %d attempts", maxIDAttempts)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}
	return hex.EncodeToString(buf)[:n], nil
}

// slugFromTitle reduces a title to at most three lowercase words joined
// by hyphens, capped at 24 chars. An empty result means the title had
// nothing usable and the caller falls back to the plain hex form.
func slugFromTitle(title string) string {
	s := strings.ToLower(title)
	s = slugUnsafe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return ""
	}
	words := strings.Split(s, "-")
	if len(words) > 3 {
		words = words[:3]
	}
	s = strings.Join(words, "-")
	if len(s) > 24 {
		s = strings.TrimRight(s[:24], "-")
	}
	return s
}
