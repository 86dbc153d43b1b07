package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func callHandler(t *testing.T, r *Registry, name string, args map[string]any) *Result {
	t.Helper()
	def, ok := r.Get(name)
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	raw, _ := json.Marshal(args)
	result, err := def.Handler(context.Background(), raw)
	if err != nil {
		t.Fatalf("%s handler error: %v", name, err)
	}
	return result
}

func newFileToolsRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	root := t.TempDir()
	r := NewRegistry()
	if err := RegisterFileTools(r, root, 0); err != nil {
		t.Fatalf("RegisterFileTools: %v", err)
	}
	return r, root
}

func TestCreateThenReadFile(t *testing.T) {
	r, root := newFileToolsRegistry(t)

	res := callHandler(t, r, "create_text_file", map[string]any{"path": "a.txt", "content": "one\ntwo\nthree"})
	if res.IsError() {
		t.Fatalf("create_text_file failed: %+v", res)
	}

	res = callHandler(t, r, "read_file", map[string]any{"path": "a.txt"})
	if res.IsError() {
		t.Fatalf("read_file failed: %+v", res)
	}
	var data struct {
		Content    string `json:"content"`
		TotalLines int    `json:"total_lines"`
	}
	_ = json.Unmarshal(res.Data, &data)
	if data.Content != "one\ntwo\nthree" || data.TotalLines != 3 {
		t.Fatalf("unexpected read result: %+v", data)
	}
	_ = root
}

func TestReadFileEscapeRejected(t *testing.T) {
	r, _ := newFileToolsRegistry(t)
	res := callHandler(t, r, "read_file", map[string]any{"path": "../../etc/passwd"})
	if !res.IsError() {
		t.Fatalf("expected escape attempt to be rejected, got %+v", res)
	}
}

func TestDeleteInsertReplaceLines(t *testing.T) {
	r, root := newFileToolsRegistry(t)
	_ = callHandler(t, r, "create_text_file", map[string]any{"path": "b.txt", "content": "l1\nl2\nl3\nl4"})

	res := callHandler(t, r, "delete_lines", map[string]any{"path": "b.txt", "start_line": 2, "end_line": 2})
	if res.IsError() {
		t.Fatalf("delete_lines failed: %+v", res)
	}
	content, _ := os.ReadFile(filepath.Join(root, "b.txt"))
	if string(content) != "l1\nl3\nl4" {
		t.Fatalf("after delete = %q", content)
	}

	res = callHandler(t, r, "insert_at_line", map[string]any{"path": "b.txt", "line": 1, "text": "INSERTED"})
	if res.IsError() {
		t.Fatalf("insert_at_line failed: %+v", res)
	}
	content, _ = os.ReadFile(filepath.Join(root, "b.txt"))
	if string(content) != "l1\nINSERTED\nl3\nl4" {
		t.Fatalf("after insert = %q", content)
	}

	res = callHandler(t, r, "replace_lines", map[string]any{"path": "b.txt", "start_line": 1, "end_line": 2, "text": "X"})
	if res.IsError() {
		t.Fatalf("replace_lines failed: %+v", res)
	}
	content, _ = os.ReadFile(filepath.Join(root, "b.txt"))
	if string(content) != "X\nl3\nl4" {
		t.Fatalf("after replace = %q", content)
	}
}

func TestListDirectorySkipsIgnored(t *testing.T) {
	r, root := newFileToolsRegistry(t)
	_ = os.MkdirAll(filepath.Join(root, "node_modules"), 0o755)
	_ = os.WriteFile(filepath.Join(root, "keep.txt"), []byte("x"), 0o644)

	res := callHandler(t, r, "list_directory", map[string]any{})
	if res.IsError() {
		t.Fatalf("list_directory failed: %+v", res)
	}
	var data struct {
		Entries []struct {
			Name string `json:"name"`
		} `json:"entries"`
	}
	_ = json.Unmarshal(res.Data, &data)
	for _, e := range data.Entries {
		if e.Name == "node_modules" {
			t.Fatalf("node_modules should have been filtered out: %+v", data.Entries)
		}
	}
}
