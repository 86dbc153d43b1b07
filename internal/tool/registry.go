package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry is the Tool Registry (C6): name -> handler mapping, shared
// behind a reader/writer lock. Grounded on original_source's serena-core
// ToolRegistry semantics (replace-on-collision, extend/remove_by_prefix
// returning counts), adapted to loom's internal/tool/registry.go
// struct shape.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
	order []string // insertion order, for stable tools/list output
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Definition)}
}

// Add registers def, replacing any existing tool of the same name. The
// definition's input schema is compiled once here.
func (r *Registry) Add(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool: name must not be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %q: handler must not be nil", def.Name)
	}
	schema, err := compileSchema(def.Name, def.InputSchema)
	if err != nil {
		return err
	}
	def.compiled = schema

	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.tools[def.Name]
	r.tools[def.Name] = &def
	if !existed {
		r.order = append(r.order, def.Name)
	}
	return nil
}

// Extend registers every definition in defs, returning the count of keys
// that were newly added (replacements count as 0)
func (r *Registry) Extend(defs []Definition) (int, error) {
	added := 0
	for _, def := range defs {
		r.mu.RLock()
		_, existed := r.tools[def.Name]
		r.mu.RUnlock()
		if err := r.Add(def); err != nil {
			return added, err
		}
		if !existed {
			added++
		}
	}
	return added, nil
}

// Remove deletes the named tool, returning it if it existed.
func (r *Registry) Remove(name string) (*Definition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	delete(r.tools, name)
	r.removeFromOrder(name)
	return def, true
}

// RemoveByPrefix deletes every tool whose name starts with prefix,
// returning the count removed.
func (r *Registry) RemoveByPrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for name := range r.tools {
		if strings.HasPrefix(name, prefix) {
			delete(r.tools, name)
			r.removeFromOrder(name)
			count++
		}
	}
	return count
}

func (r *Registry) removeFromOrder(name string) {
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Get returns the named tool's definition, if registered.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns a snapshot of every registered definition, in registration
// order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		if def, ok := r.tools[name]; ok {
			out = append(out, *def)
		}
	}
	return out
}

// Descriptors returns the wire-facing tools/list payload, sorted by name
// for deterministic output independent of registration order.
func (r *Registry) Descriptors() []descriptor {
	defs := r.List()
	out := make([]descriptor, len(defs))
	for i, d := range defs {
		out[i] = d.toDescriptor()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// IsEmpty reports whether the registry has no tools.
func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}
