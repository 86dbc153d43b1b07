// Package rpccache implements the LSP Response Cache (C5): a concurrent
// TTL'd cache keyed by (method, canonical-params-string), self-pruning on
// Get. Grounded on original_source's serena-lsp LspCache, one-for-one.
package rpccache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// DefaultTTL matches the source's default of 5 minutes.
const DefaultTTL = 5 * time.Minute

type key struct {
	method string
	params string
}

type entry struct {
	value    json.RawMessage
	insertAt time.Time
}

// Cache is a TTL'd response cache. Unlike the Symbol Graph, entries are
// small and lookups are always by a single composite key, so one mutex
// guarding the whole map is the right shape here; per-bucket locking
// is reserved for the Symbol
// Graph, whose access pattern actually benefits from it.
type Cache struct {
	mu      sync.Mutex
	entries map[key]entry
	ttl     time.Duration
}

// New creates a Cache with DefaultTTL.
func New() *Cache {
	return WithTTL(DefaultTTL)
}

// WithTTL creates a Cache with a custom TTL.
func WithTTL(ttl time.Duration) *Cache {
	return &Cache{entries: make(map[key]entry), ttl: ttl}
}

// canonicalize produces a deterministic JSON string for params so that
// {"a":1,"b":2} and {"b":2,"a":1} hash to the same cache key.
func canonicalize(params any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return string(raw)
	}
	return canonicalJSON(generic)
}

func canonicalJSON(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			kb, _ := json.Marshal(k)
			out += string(kb) + ":" + canonicalJSON(t[k])
		}
		return out + "}"
	case []any:
		out := "["
		for i, e := range t {
			if i > 0 {
				out += ","
			}
			out += canonicalJSON(e)
		}
		return out + "]"
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// Get returns the cached value for (method, params) if present and not
// expired. An expired entry is removed as a side effect of Get; the get
// path is self-pruning.
func (c *Cache) Get(method string, params any) (json.RawMessage, bool) {
	k := key{method: method, params: canonicalize(params)}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if time.Since(e.insertAt) >= c.ttl {
		delete(c.entries, k)
		return nil, false
	}
	return e.value, true
}

// Insert stores value under (method, params), overwriting any existing
// entry with a fresh timestamp.
func (c *Cache) Insert(method string, params any, value json.RawMessage) {
	k := key{method: method, params: canonicalize(params)}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = entry{value: value, insertAt: time.Now()}
}

// InvalidateMethod removes every entry for the given method, regardless of
// params.
func (c *Cache) InvalidateMethod(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.method == method {
			delete(c.entries, k)
		}
	}
}

// PruneExpired sweeps and removes every expired entry. Get is already
// self-pruning; this is for periodic maintenance (e.g. a background
// ticker) independent of lookup traffic.
func (c *Cache) PruneExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if now.Sub(e.insertAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]entry)
}

// Len returns the number of live (not necessarily unexpired) entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) IsEmpty() bool {
	return c.Len() == 0
}
