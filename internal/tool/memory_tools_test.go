package tool

import (
	"encoding/json"
	"testing"

	"codegateway/internal/memorystore"
)

func newMemoryToolsRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := memorystore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r := NewRegistry()
	if err := RegisterMemoryTools(r, store); err != nil {
		t.Fatalf("RegisterMemoryTools: %v", err)
	}
	return r
}

func TestMemoryToolsRoundTrip(t *testing.T) {
	r := newMemoryToolsRegistry(t)

	res := callHandler(t, r, "write_memory", map[string]any{"name": "arch", "content": "overview"})
	if res.IsError() {
		t.Fatalf("write_memory: %+v", res)
	}

	res = callHandler(t, r, "read_memory", map[string]any{"name": "arch"})
	if res.IsError() {
		t.Fatalf("read_memory: %+v", res)
	}
	var data struct {
		Content string `json:"content"`
	}
	_ = json.Unmarshal(res.Data, &data)
	if data.Content != "overview" {
		t.Fatalf("content = %q", data.Content)
	}

	res = callHandler(t, r, "edit_memory", map[string]any{"name": "missing", "content": "x"})
	if !res.IsError() {
		t.Fatalf("expected edit_memory on missing name to fail")
	}

	res = callHandler(t, r, "delete_memory", map[string]any{"name": "arch"})
	if res.IsError() {
		t.Fatalf("delete_memory: %+v", res)
	}

	res = callHandler(t, r, "list_memories", map[string]any{})
	var list struct {
		Memories []memorystore.Record `json:"memories"`
	}
	_ = json.Unmarshal(res.Data, &list)
	if len(list.Memories) != 0 {
		t.Fatalf("expected no memories left, got %+v", list.Memories)
	}
}
