// Package lspsupervisor implements the LSP Supervisor (C3): starting,
// stopping, and looking up LSP Clients per language, owning the workspace
// root URI and the shared response cache. Grounded on original_source's
// serena-lsp LanguageServerManager, adapted to loom's goroutine and
// reference-counting idiom from internal/mcp/manager.go.
package lspsupervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codegateway/internal/logging"
	"codegateway/internal/lspclient"
	"codegateway/internal/rpccache"
)

// refClient pairs an LSP Client with a reference count so the Supervisor's
// map entry and any in-flight tool invocation can both hold the Client
// without either side owning its lifetime outright.
type refClient struct {
	client  *lspclient.Client
	mu      sync.Mutex
	refs    int
	removed bool // true once the supervisor's own map entry has been dropped
}

// Handle is a reference-counted hold on a running Client. Release must be
// called exactly once when the holder is done with it.
type Handle struct {
	rc *refClient
}

func (h *Handle) Client() *lspclient.Client { return h.rc.client }

// Release drops this holder's reference. If the supervisor has already
// removed its own entry (Stop/StopAll) and this was the last outstanding
// reference, the subprocess is killed now.
func (h *Handle) Release() {
	h.rc.mu.Lock()
	h.rc.refs--
	shouldKill := h.rc.refs <= 0 && h.rc.removed
	h.rc.mu.Unlock()
	if shouldKill {
		h.rc.client.Kill()
	}
}

func (rc *refClient) retain() *Handle {
	rc.mu.Lock()
	rc.refs++
	rc.mu.Unlock()
	return &Handle{rc: rc}
}

// Supervisor owns the workspace root and one Client per language.
type Supervisor struct {
	rootPath string
	rootURI  string
	log      *logging.Logger
	cache    *rpccache.Cache

	mu      sync.RWMutex
	clients map[string]*refClient
}

// New creates a Supervisor rooted at rootPath, with its own shared
// response cache: the Supervisor owns the shared response cache, and
// tools consult it via the Supervisor rather than directly. cacheTTL
// configures that cache's entry lifetime; a zero value falls back to
// rpccache.DefaultTTL.
func New(rootPath string, cacheTTL time.Duration, log *logging.Logger) *Supervisor {
	if cacheTTL <= 0 {
		cacheTTL = rpccache.DefaultTTL
	}
	return &Supervisor{
		rootPath: rootPath,
		rootURI:  PathToURI(rootPath),
		log:      log,
		cache:    rpccache.WithTTL(cacheTTL),
		clients:  make(map[string]*refClient),
	}
}

// Cache returns the Supervisor-owned response cache.
func (s *Supervisor) Cache() *rpccache.Cache { return s.cache }

// RootPath returns the workspace root path.
func (s *Supervisor) RootPath() string { return s.rootPath }

// RootURI returns the workspace root as a file:// URI.
func (s *Supervisor) RootURI() string { return s.rootURI }

// Start ensures a Client is running for language, spawning and
// initializing it if necessary. No-op if one is already registered.
func (s *Supervisor) Start(ctx context.Context, language string) error {
	s.mu.RLock()
	_, exists := s.clients[language]
	s.mu.RUnlock()
	if exists {
		return nil
	}

	desc, ok := DescriptorFor(language)
	if !ok {
		return fmt.Errorf("lspsupervisor: no LSP descriptor for language %q", language)
	}

	client, err := lspclient.New(ctx, desc.Command, desc.Args, s.log.With(language))
	if err != nil {
		return fmt.Errorf("lspsupervisor: spawn %s: %w", desc.Command, err)
	}

	if _, err := client.Initialize(ctx, s.rootURI); err != nil {
		client.Kill()
		return fmt.Errorf("lspsupervisor: initialize %s: %w", desc.Command, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[language]; exists {
		// Lost a race with a concurrent Start for the same language; keep
		// the winner and shut ours down.
		go client.Shutdown(context.Background())
		return nil
	}
	s.clients[language] = &refClient{client: client, refs: 1}
	s.log.Infof("started LSP server for %s (%s)", language, desc.Command)
	return nil
}

// Get returns a reference-counted handle to the running Client for
// language, if any.
func (s *Supervisor) Get(language string) (*Handle, bool) {
	s.mu.RLock()
	rc, ok := s.clients[language]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return rc.retain(), true
}

// GetOrStart returns a handle to the Client for language, starting it first
// if necessary.
func (s *Supervisor) GetOrStart(ctx context.Context, language string) (*Handle, error) {
	if h, ok := s.Get(language); ok {
		return h, nil
	}
	if err := s.Start(ctx, language); err != nil {
		return nil, err
	}
	h, ok := s.Get(language)
	if !ok {
		return nil, fmt.Errorf("lspsupervisor: client for %q vanished after start", language)
	}
	return h, nil
}

// Stop removes language's entry from the map and performs a graceful
// shutdown; if tool invocations still hold references, kill-on-drop fires
// when they release.
func (s *Supervisor) Stop(ctx context.Context, language string) error {
	s.mu.Lock()
	rc, ok := s.clients[language]
	if ok {
		delete(s.clients, language)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	rc.mu.Lock()
	rc.refs--
	rc.removed = true
	sole := rc.refs <= 0
	rc.mu.Unlock()

	if sole {
		return rc.client.Shutdown(ctx)
	}
	// Other holders remain; whichever releases last will observe refs<=0
	// and removed==true and kill the subprocess (Handle.Release above).
	return nil
}

// StopAll stops every running language server, best-effort: it collects
// but does not abort on a single server's shutdown error.
func (s *Supervisor) StopAll(ctx context.Context) []error {
	s.mu.RLock()
	languages := make([]string, 0, len(s.clients))
	for lang := range s.clients {
		languages = append(languages, lang)
	}
	s.mu.RUnlock()

	var errs []error
	for _, lang := range languages {
		if err := s.Stop(ctx, lang); err != nil {
			errs = append(errs, fmt.Errorf("stopping %s: %w", lang, err))
		}
	}
	return errs
}

// Running reports every language currently running.
func (s *Supervisor) Running() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.clients))
	for lang := range s.clients {
		out = append(out, lang)
	}
	return out
}

// IsRunning reports whether language has an active Client.
func (s *Supervisor) IsRunning(language string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.clients[language]
	return ok
}

// Count returns the number of running servers.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
