package watch

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codegateway/internal/logging"
	"codegateway/internal/lspsupervisor"
	"codegateway/internal/symbolgraph"
)

func TestWatcherInvalidatesOnWrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	log := logging.New(io.Discard, logging.LevelError)
	sup := lspsupervisor.New(root, 0, log)
	graph := symbolgraph.New()

	uri := lspsupervisor.PathToURI(path)
	graph.InsertDocumentSymbols(uri, []symbolgraph.DocumentSymbol{{Name: "X"}})
	sup.Cache().Insert("textDocument/documentSymbol", map[string]any{"uri": uri}, []byte(`[]`))

	w := New(root, sup, graph, log)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("package main\n\nfunc X() {}\n"), 0o644); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		if _, ok := graph.GetFileSymbols(uri); !ok {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("symbol graph entry for %s was never invalidated", uri)
		case <-time.After(50 * time.Millisecond):
		}
	}
}
