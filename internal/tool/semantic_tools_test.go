package tool

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"codegateway/internal/logging"
	"codegateway/internal/lspsupervisor"
	"codegateway/internal/symbolgraph"
)

func newSemanticTestFixture(t *testing.T) (*Registry, string, *lspsupervisor.Supervisor, *symbolgraph.Graph) {
	t.Helper()
	root := t.TempDir()
	sup := lspsupervisor.New(root, 0, logging.New(io.Discard, logging.LevelError))
	graph := symbolgraph.New()
	r := NewRegistry()
	if err := RegisterSemanticTools(r, root, sup, graph); err != nil {
		t.Fatalf("RegisterSemanticTools: %v", err)
	}
	return r, root, sup, graph
}

func TestReplaceSymbolBodyUsesIndexedRange(t *testing.T) {
	r, root, _, graph := newSemanticTestFixture(t)

	src := "package main\n\nfunc Greet() {\n\tprintln(\"hi\")\n}\n"
	path := filepath.Join(root, "main.go")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	uri := lspsupervisor.PathToURI(path)

	graph.InsertDocumentSymbols(uri, []symbolgraph.DocumentSymbol{
		{
			Name: "Greet",
			Kind: symbolgraph.KindFunction,
			Range: symbolgraph.Range{
				Start: symbolgraph.Position{Line: 2, Character: 0},
				End:   symbolgraph.Position{Line: 4, Character: 1},
			},
		},
	})

	res := callHandler(t, r, "replace_symbol_body", map[string]any{
		"name_path": "Greet",
		"body":      "func Greet() {\n\tprintln(\"hello\")\n}",
	})
	if res.IsError() {
		t.Fatalf("replace_symbol_body failed: %+v", res)
	}

	content, _ := os.ReadFile(path)
	want := "package main\n\nfunc Greet() {\n\tprintln(\"hello\")\n}\n"
	if string(content) != want {
		t.Fatalf("content = %q, want %q", content, want)
	}
}

func TestInsertAfterSymbol(t *testing.T) {
	r, root, _, graph := newSemanticTestFixture(t)

	src := "package main\n\nfunc A() {}\n"
	path := filepath.Join(root, "a.go")
	_ = os.WriteFile(path, []byte(src), 0o644)
	uri := lspsupervisor.PathToURI(path)

	graph.InsertDocumentSymbols(uri, []symbolgraph.DocumentSymbol{
		{
			Name: "A",
			Kind: symbolgraph.KindFunction,
			Range: symbolgraph.Range{
				Start: symbolgraph.Position{Line: 2, Character: 0},
				End:   symbolgraph.Position{Line: 2, Character: 11},
			},
		},
	})

	res := callHandler(t, r, "insert_after_symbol", map[string]any{"name_path": "A", "text": "func B() {}"})
	if res.IsError() {
		t.Fatalf("insert_after_symbol failed: %+v", res)
	}
	content, _ := os.ReadFile(path)
	want := "package main\n\nfunc A() {}\nfunc B() {}\n"
	if string(content) != want {
		t.Fatalf("content = %q, want %q", content, want)
	}
}

func TestAmbiguousSymbolNameRejected(t *testing.T) {
	r, root, _, graph := newSemanticTestFixture(t)
	path := filepath.Join(root, "dup.go")
	_ = os.WriteFile(path, []byte("x"), 0o644)
	uri := lspsupervisor.PathToURI(path)

	graph.InsertDocumentSymbols(uri, []symbolgraph.DocumentSymbol{
		{Name: "Dup", Kind: symbolgraph.KindFunction},
		{Name: "Outer", Kind: symbolgraph.KindClass, Children: []symbolgraph.DocumentSymbol{
			{Name: "Dup", Kind: symbolgraph.KindMethod},
		}},
	})

	res := callHandler(t, r, "replace_symbol_body", map[string]any{"name_path": "Dup", "body": "x"})
	if !res.IsError() {
		t.Fatalf("expected ambiguous symbol name to be rejected")
	}
}
