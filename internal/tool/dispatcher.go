// Package tool implements the Tool Registry (C6) and Tool Dispatcher (C7),
// plus the fixed catalog of file, semantic, memory, workflow, and shell
// tools.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"codegateway/internal/rpc"
)

// ServerInfo identifies this gateway in the `initialize` response.
type ServerInfo struct {
	Name    string
	Version string
}

// Dispatcher implements C7: it recognizes initialize/tools/list/tools/call/
// ping and shapes every result as a well-formed JSON-RPC response.
type Dispatcher struct {
	registry *Registry
	info     ServerInfo
}

// NewDispatcher builds a Dispatcher backed by registry.
func NewDispatcher(registry *Registry, info ServerInfo) *Dispatcher {
	return &Dispatcher{registry: registry, info: info}
}

// callToolParams is the wire shape of tools/call params.
type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// callToolResult is the wire shape tools/call responds with.
type callToolResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Dispatch handles one already-parsed JSON-RPC request. For a notification
// (req.ID == nil) it still executes (so state-changing notifications take
// effect) but the caller must not write the returned response — Dispatch
// returns nil for notifications to make that explicit.
func (d *Dispatcher) Dispatch(ctx context.Context, req *rpc.Request) *rpc.Response {
	var resp *rpc.Response

	switch req.Method {
	case "initialize":
		resp = d.handleInitialize(req)
	case "tools/list":
		resp = d.handleToolsList(req)
	case "tools/call":
		resp = d.handleToolsCall(ctx, req)
	case "ping":
		result, _ := rpc.NewResult(req.ID, struct{}{})
		resp = result
	default:
		resp = rpc.NewError(req.ID, rpc.CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

func (d *Dispatcher) handleInitialize(req *rpc.Request) *rpc.Response {
	result := map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    d.info.Name,
			"version": d.info.Version,
		},
	}
	resp, err := rpc.NewResult(req.ID, result)
	if err != nil {
		return rpc.NewError(req.ID, rpc.CodeInternalError, err.Error(), nil)
	}
	return resp
}

func (d *Dispatcher) handleToolsList(req *rpc.Request) *rpc.Response {
	resp, err := rpc.NewResult(req.ID, map[string]any{"tools": d.registry.Descriptors()})
	if err != nil {
		return rpc.NewError(req.ID, rpc.CodeInternalError, err.Error(), nil)
	}
	return resp
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *rpc.Request) *rpc.Response {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err), nil)
	}

	def, ok := d.registry.Get(params.Name)
	if !ok {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, fmt.Sprintf("tool not found: %s", params.Name), nil)
	}

	if err := validateArguments(def.compiled, params.Arguments); err != nil {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, fmt.Sprintf("invalid arguments for %s: %v", params.Name, err), nil)
	}

	result, callErr := d.invoke(ctx, def, params.Arguments)
	if callErr != nil {
		// An unexpected panic/internal failure inside the handler plumbing
		// itself (not a tool-reported Error result) is -32603.
		return rpc.NewError(req.ID, rpc.CodeInternalError, callErr.Error(), nil)
	}

	wire, err := marshalCallToolResult(result)
	if err != nil {
		return rpc.NewError(req.ID, rpc.CodeInternalError, err.Error(), nil)
	}
	resp, err := rpc.NewResult(req.ID, wire)
	if err != nil {
		return rpc.NewError(req.ID, rpc.CodeInternalError, err.Error(), nil)
	}
	return resp
}

// invoke runs def.Handler, recovering a panic into an internal error so a
// single misbehaving tool cannot take down the dispatch loop.
func (d *Dispatcher) invoke(ctx context.Context, def *Definition, args json.RawMessage) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %q panicked: %v", def.Name, r)
		}
	}()
	return def.Handler(ctx, args)
}

// marshalCallToolResult shapes a Result into the tools/call wire response:
// Success/Warning -> isError:false with the pretty-printed Result JSON as
// text; Error -> isError:true with the same shape, carried as a
// successful JSON-RPC response either way.
func marshalCallToolResult(result *Result) (*callToolResult, error) {
	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	return &callToolResult{
		Content: []textContent{{Type: "text", Text: string(pretty)}},
		IsError: result.IsError(),
	}, nil
}
