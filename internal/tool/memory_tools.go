package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"codegateway/internal/memorystore"
)

// RegisterMemoryTools wires the A7 memory collaborators onto store.
// Grounded on loom's internal/tool/memories.go action-dispatch shape,
// split here into one tool per action.
func RegisterMemoryTools(registry *Registry, store *memorystore.Store) error {
	defs := []Definition{
		writeMemoryDef(store),
		readMemoryDef(store),
		listMemoriesDef(store),
		deleteMemoryDef(store),
		editMemoryDef(store),
	}
	for _, def := range defs {
		if err := registry.Add(def); err != nil {
			return fmt.Errorf("registering %s: %w", def.Name, err)
		}
	}
	return nil
}

func writeMemoryDef(store *memorystore.Store) Definition {
	return Definition{
		Name:        "write_memory",
		Description: "Writes a named Markdown memory for this project, creating or overwriting it",
		CanEdit:     true,
		Tags:        []string{"memory"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":    map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
				"tags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"name", "content"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Name    string   `json:"name"`
				Content string   `json:"content"`
				Tags    []string `json:"tags"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			var rec memorystore.Record
			var err error
			if args.Tags != nil {
				rec, err = store.WriteTags(args.Name, args.Content, args.Tags)
			} else {
				rec, err = store.Write(args.Name, args.Content)
			}
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			return Success(rec)
		},
	}
}

func readMemoryDef(store *memorystore.Store) Definition {
	return Definition{
		Name:        "read_memory",
		Description: "Reads a named memory's Markdown content",
		CanEdit:     false,
		Tags:        []string{"memory"},
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
			"required":   []any{"name"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			content, err := store.Read(args.Name)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			return Success(map[string]any{"name": args.Name, "content": content})
		},
	}
}

func listMemoriesDef(store *memorystore.Store) Definition {
	return Definition{
		Name:        "list_memories",
		Description: "Lists every memory recorded for this project",
		CanEdit:     false,
		Tags:        []string{"memory"},
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			return Success(map[string]any{"memories": store.List()})
		},
	}
}

func deleteMemoryDef(store *memorystore.Store) Definition {
	return Definition{
		Name:        "delete_memory",
		Description: "Deletes a named memory",
		CanEdit:     true,
		Tags:        []string{"memory"},
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
			"required":   []any{"name"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if err := store.Delete(args.Name); err != nil {
				return ErrorResult(err.Error()), nil
			}
			return Success(map[string]any{"name": args.Name, "deleted": true})
		},
	}
}

func editMemoryDef(store *memorystore.Store) Definition {
	return Definition{
		Name:        "edit_memory",
		Description: "Replaces an existing memory's content; fails if the memory does not already exist",
		CanEdit:     true,
		Tags:        []string{"memory"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":    map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
				"tags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"name", "content"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Name    string   `json:"name"`
				Content string   `json:"content"`
				Tags    []string `json:"tags"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if !store.Has(args.Name) {
				return ErrorResult(fmt.Sprintf("memory %q not found, use write_memory to create it", args.Name)), nil
			}
			var rec memorystore.Record
			var err error
			if args.Tags != nil {
				rec, err = store.WriteTags(args.Name, args.Content, args.Tags)
			} else {
				rec, err = store.Write(args.Name, args.Content)
			}
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			return Success(rec)
		},
	}
}
