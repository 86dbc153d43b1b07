package tool

import (
	"context"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Handler is the function a tool registers to service tools/call.
type Handler func(ctx context.Context, args json.RawMessage) (*Result, error)

// Definition is a Tool Descriptor: immutable once registered, destroyed
// only by explicit removal.
type Definition struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	InputSchema     map[string]any `json:"input_schema"`
	CanEdit         bool           `json:"can_edit"`
	RequiresProject bool           `json:"requires_project"`
	Tags            []string       `json:"tags,omitempty"`

	Handler Handler `json:"-"`

	compiled *jsonschema.Schema
}

// descriptor returns the wire-facing subset of Definition exposed by
// tools/list: name, description, and input schema.
type descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func (d Definition) toDescriptor() descriptor {
	return descriptor{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema}
}
