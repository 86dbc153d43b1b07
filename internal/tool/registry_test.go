package tool

import (
	"context"
	"encoding/json"
	"testing"
)

func echoDef(name string) Definition {
	return Definition{
		Name:        name,
		Description: "echo",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) (*Result, error) {
			return Success(map[string]any{"echoed": "hi"})
		},
	}
}

func TestRegisterReplaceOnCollision(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(echoDef("echo")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(echoDef("echo")); err != nil {
		t.Fatalf("Add (replace): %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (replace, not duplicate)", r.Len())
	}
}

func TestExtendThenRemoveByPrefixRestoresSize(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(echoDef("core_tool"))
	before := r.Len()

	added, err := r.Extend([]Definition{echoDef("symbol_find"), echoDef("symbol_rename")})
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if added != 2 {
		t.Fatalf("Extend added = %d, want 2", added)
	}

	removed := r.RemoveByPrefix("symbol_")
	if removed != 2 {
		t.Fatalf("RemoveByPrefix removed = %d, want 2", removed)
	}
	if r.Len() != before {
		t.Fatalf("Len() = %d, want %d (restored)", r.Len(), before)
	}
}

func TestExtendReplacementsCountZero(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(echoDef("echo"))

	added, err := r.Extend([]Definition{echoDef("echo")})
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if added != 0 {
		t.Fatalf("Extend added = %d, want 0 for a pure replacement", added)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}
