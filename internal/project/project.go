// Package project implements the Project Activator (C10): resolving a
// workspace root, detecting its languages, starting LSP servers for them,
// and wiring the semantic tool set into the registry.
package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"codegateway/internal/logging"
	"codegateway/internal/lspsupervisor"
	"codegateway/internal/symbolgraph"
	"codegateway/internal/tool"
)

const maxWalkDepth = 5

// Activator owns the single active project, enforcing the rule that only
// one project is active at a time.
type Activator struct {
	mu       sync.Mutex
	registry *tool.Registry
	log      *logging.Logger
	cacheTTL time.Duration

	active *Project
}

// Project is the state recorded for the currently active workspace.
type Project struct {
	Name       string
	RootPath   string
	Languages  []string
	Supervisor *lspsupervisor.Supervisor
	Graph      *symbolgraph.Graph
}

// New builds an Activator backed by registry, logging through log.
// cacheTTL configures the response cache TTL for every Supervisor this
// Activator creates.
func New(registry *tool.Registry, cacheTTL time.Duration, log *logging.Logger) *Activator {
	return &Activator{registry: registry, log: log, cacheTTL: cacheTTL}
}

// Active returns the currently active project, or nil if none.
func (a *Activator) Active() *Project {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Activate implements C10's activate(path) contract. Activating while
// another project is active implicitly deactivates it first.
func (a *Activator) Activate(ctx context.Context, path string) (*Project, error) {
	root, err := ResolveProjectRoot(path)
	if err != nil {
		return nil, fmt.Errorf("project: resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project: %s is not a directory", root)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active != nil {
		a.deactivateLocked(ctx)
	}

	name := filepath.Base(root)
	languages := detectLanguages(root, maxWalkDepth)

	sup := lspsupervisor.New(root, a.cacheTTL, a.log.With("lspsupervisor"))
	graph := symbolgraph.New()

	startLanguageServers(ctx, sup, languages, a.log)

	if err := tool.RegisterSemanticTools(a.registry, root, sup, graph); err != nil {
		for _, stopErr := range sup.StopAll(ctx) {
			a.log.Warnf("project: error stopping LSP server after failed activation: %v", stopErr)
		}
		return nil, fmt.Errorf("project: registering semantic tools: %w", err)
	}

	a.active = &Project{
		Name:       name,
		RootPath:   root,
		Languages:  languages,
		Supervisor: sup,
		Graph:      graph,
	}
	a.log.Infof("project: activated %s at %s (languages: %v)", name, root, languages)
	return a.active, nil
}

// Deactivate implements C10's deactivate() contract: a no-op if no project
// is active.
func (a *Activator) Deactivate(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deactivateLocked(ctx)
}

func (a *Activator) deactivateLocked(ctx context.Context) {
	if a.active == nil {
		return
	}
	removed := removeProjectScopedTools(a.registry)
	for _, stopErr := range a.active.Supervisor.StopAll(ctx) {
		a.log.Warnf("project: error stopping LSP server during deactivation: %v", stopErr)
	}
	a.log.Infof("project: deactivated %s (%d semantic tools removed)", a.active.Name, removed)
	a.active = nil
}

// removeProjectScopedTools removes every tool registered with
// RequiresProject set. The fixed external tool names carry no literal
// common prefix to key a removal off, so scoping happens via
// the descriptor's RequiresProject flag instead.
func removeProjectScopedTools(registry *tool.Registry) int {
	removed := 0
	for _, def := range registry.List() {
		if !def.RequiresProject {
			continue
		}
		if _, ok := registry.Remove(def.Name); ok {
			removed++
		}
	}
	return removed
}

// startLanguageServers starts one LSP server per detected language
// concurrently, waiting for all of them with an errgroup and logging (not
// failing) individual start errors: activation proceeds with whichever
// subset of servers actually started.
func startLanguageServers(ctx context.Context, sup *lspsupervisor.Supervisor, languages []string, log *logging.Logger) {
	var g errgroup.Group
	for _, lang := range languages {
		lang := lang
		if _, ok := lspsupervisor.DescriptorFor(lang); !ok {
			continue
		}
		g.Go(func() error {
			if err := sup.Start(ctx, lang); err != nil {
				log.Warnf("project: failed to start LSP server for %s: %v", lang, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// detectLanguages walks root up to maxDepth directory levels, mapping
// every file extension it finds to a language via lspsupervisor's
// extension table, returning the unique set found.
func detectLanguages(root string, maxDepth int) []string {
	seen := make(map[string]struct{})

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(filepath.ToSlash(rel), "/") + 1

		if d.IsDir() {
			if tool.IsIgnoredDirName(d.Name()) {
				return filepath.SkipDir
			}
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(d.Name()), ".")
		if ext == "" {
			return nil
		}
		if lang, ok := lspsupervisor.LanguageForExtension(ext); ok {
			seen[lang] = struct{}{}
		}
		return nil
	})

	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
