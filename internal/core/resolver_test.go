package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolveUniquePrefix(t *testing.T) {
	r := NewResolver([]string{"tsk-aaaa1111", "tsk-bbbb2222", "tsk-bbcc3333"})

	id, err := r.Resolve("tsk-a")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != "tsk-aaaa1111" {
		t.Errorf("Resolve = %q, want tsk-aaaa1111", id)
	}
}

func TestResolveNotFound(t *testing.T) {
	r := NewResolver([]string{"tsk-aaaa1111"})

	_, err := r.Resolve("tsk-z")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Fragment != "tsk-z" {
		t.Errorf("Fragment = %q, want tsk-z", notFound.Fragment)
	}
}

func TestResolveAmbiguousListsAllCandidates(t *testing.T) {
	r := NewResolver([]string{"tsk-bbcc3333", "tsk-bbbb2222", "tsk-aaaa1111"})

	_, err := r.Resolve("tsk-bb")
	var ambig *AmbiguousError
	if !errors.As(err, &ambig) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	want := []string{"tsk-bbbb2222", "tsk-bbcc3333"}
	if !reflect.DeepEqual(ambig.Candidates, want) {
		t.Errorf("Candidates = %v, want %v", ambig.Candidates, want)
	}
}

func TestResolveExactMatchBeatsPrefixMatches(t *testing.T) {
	// tsk-ab is a full id and also a prefix of tsk-abcd1234; the exact
	// match must win rather than report ambiguity.
	r := NewResolver([]string{"tsk-abcd1234", "tsk-ab"})

	id, err := r.Resolve("tsk-ab")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != "tsk-ab" {
		t.Errorf("Resolve = %q, want the exact match tsk-ab", id)
	}
}

func TestResolveEmptyFragment(t *testing.T) {
	r := NewResolver([]string{"tsk-aaaa1111"})
	var notFound *NotFoundError
	if _, err := r.Resolve(""); !errors.As(err, &notFound) {
		t.Fatalf("empty fragment should be NotFoundError, got %v", err)
	}
}
