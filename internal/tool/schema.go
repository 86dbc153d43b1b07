package tool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileSchema builds a *jsonschema.Schema from a tool's declared
// input_schema (a plain map[string]any, the shape the Tool Descriptor
// names), compiling once at registration time so every subsequent
// tools/call reuses the same compiled validator.
func compileSchema(name string, raw map[string]any) (*jsonschema.Schema, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("tool %q: marshal schema: %w", name, err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tool %q: parse schema: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	resourceURL := "mem://" + name + ".json"
	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("tool %q: add schema resource: %w", name, err)
	}
	schema, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("tool %q: compile schema: %w", name, err)
	}
	return schema, nil
}

// validateArguments runs the compiled schema against raw JSON arguments,
// returning a human-readable detail string on failure so the "Invalid
// params" error carries validation detail.
func validateArguments(schema *jsonschema.Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return err
	}
	return nil
}
