// Package watch implements the File Watcher (A3): an fsnotify-driven
// invalidation hook layered on top of (not replacing) the response
// cache's TTL expiry, keeping the symbol graph and cache fresh between
// edits. Grounded on loom's indexer.Index.StartWatching/watchLoop
// batching pattern.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codegateway/internal/logging"
	"codegateway/internal/lspsupervisor"
	"codegateway/internal/symbolgraph"
	"codegateway/internal/tool"
)

// debounceWindow matches loom's indexer.go batching interval.
const debounceWindow = 500 * time.Millisecond

// Watcher recursively watches a project root, debouncing bursts of writes
// before invalidating the cache and symbol graph for the affected files.
type Watcher struct {
	root    string
	cache   *lspsupervisor.Supervisor
	graph   *symbolgraph.Graph
	log     *logging.Logger
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// New builds a Watcher for root; call Start to begin watching.
func New(root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph, log *logging.Logger) *Watcher {
	return &Watcher{root: root, cache: sup, graph: graph, log: log}
}

// Start begins watching root and every subdirectory not excluded by the
// shared ignore list, returning once the initial tree walk completes. A
// background goroutine processes events until Stop is called.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	err = filepath.Walk(w.root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr == nil && rel != "." && tool.IsIgnoredDirName(info.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	if err != nil {
		fw.Close()
		return err
	}

	go w.loop()
	return nil
}

// Stop halts watching and releases the underlying fsnotify handle. Safe to
// call more than once; only the first call has any effect.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.stop)
	<-w.done
	w.watcher.Close()
	w.watcher = nil
}

// loop batches events within debounceWindow before invalidating, mirroring
// loom's watchLoop pendingUpdates/timer-reset pattern.
func (w *Watcher) loop() {
	defer close(w.done)

	timer := time.NewTimer(debounceWindow)
	if !timer.Stop() {
		<-timer.C
	}
	var mu sync.Mutex
	pending := make(map[string]struct{})

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !tool.IsIgnoredDirName(info.Name()) {
						_ = w.watcher.Add(event.Name)
					}
				}
			}
			mu.Lock()
			pending[event.Name] = struct{}{}
			mu.Unlock()
			timer.Reset(debounceWindow)

		case <-timer.C:
			mu.Lock()
			paths := pending
			pending = make(map[string]struct{})
			mu.Unlock()
			w.invalidate(paths)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("watch: fsnotify error: %v", err)

		case <-w.stop:
			return
		}
	}
}

// invalidate drops every cached documentSymbol response (for all files)
// and the indexed nodes of each changed file. This is strictly additive to the cache's own
// TTL expiry, never a replacement for it.
func (w *Watcher) invalidate(paths map[string]struct{}) {
	if len(paths) == 0 {
		return
	}
	w.cache.Cache().InvalidateMethod("textDocument/documentSymbol")
	for path := range paths {
		uri := lspsupervisor.PathToURI(path)
		w.graph.RemoveFile(uri)
	}
	w.log.Debugf("watch: invalidated %d changed path(s)", len(paths))
}
