package tool

import (
	"context"
	"encoding/json"
	"testing"

	"codegateway/internal/rpc"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	r := NewRegistry()
	if err := r.Add(echoDef("echo")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(Definition{
		Name:        "read_file",
		Description: "reads a file",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) (*Result, error) {
			return Success(map[string]any{"content": ""})
		},
	}); err != nil {
		t.Fatalf("Add read_file: %v", err)
	}
	return NewDispatcher(r, ServerInfo{Name: "gateway", Version: "test"})
}

func id(n int64) *int64 { return &n }

func TestInitializeListPing(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	resp := d.Dispatch(ctx, &rpc.Request{JSONRPC: rpc.Version, ID: id(1), Method: "initialize"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("initialize failed: %+v", resp)
	}
	var initResult map[string]any
	_ = json.Unmarshal(resp.Result, &initResult)
	if initResult["protocolVersion"] != "2024-11-05" {
		t.Fatalf("protocolVersion = %v", initResult["protocolVersion"])
	}

	resp = d.Dispatch(ctx, &rpc.Request{JSONRPC: rpc.Version, ID: id(2), Method: "tools/list"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("tools/list failed: %+v", resp)
	}
	var listResult struct {
		Tools []map[string]any `json:"tools"`
	}
	_ = json.Unmarshal(resp.Result, &listResult)
	found := false
	for _, tl := range listResult.Tools {
		if tl["name"] == "read_file" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected read_file in tools/list, got %+v", listResult.Tools)
	}

	resp = d.Dispatch(ctx, &rpc.Request{JSONRPC: rpc.Version, ID: id(3), Method: "ping"})
	if resp == nil || resp.Error != nil || string(resp.Result) != "{}" {
		t.Fatalf("ping failed: %+v", resp)
	}
}

func TestUnknownMethod(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), &rpc.Request{JSONRPC: rpc.Version, ID: id(7), Method: "frobnicate"})
	if resp == nil || resp.Error == nil || resp.Error.Code != rpc.CodeMethodNotFound {
		t.Fatalf("expected -32601, got %+v", resp)
	}
}

func TestToolNotFoundIsInvalidParamsNotMethodNotFound(t *testing.T) {
	d := newTestDispatcher(t)
	params, _ := json.Marshal(map[string]any{"name": "no_such", "arguments": map[string]any{}})
	resp := d.Dispatch(context.Background(), &rpc.Request{
		JSONRPC: rpc.Version, ID: id(8), Method: "tools/call", Params: params,
	})
	if resp == nil || resp.Error == nil || resp.Error.Code != rpc.CodeInvalidParams {
		t.Fatalf("expected -32602, got %+v", resp)
	}
}

func TestSuccessfulEchoToolCall(t *testing.T) {
	d := newTestDispatcher(t)
	params, _ := json.Marshal(map[string]any{"name": "echo", "arguments": map[string]any{"message": "hi"}})
	resp := d.Dispatch(context.Background(), &rpc.Request{
		JSONRPC: rpc.Version, ID: id(9), Method: "tools/call", Params: params,
	})
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected error response: %+v", resp)
	}
	var result callToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected isError:false, got true: %+v", result)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("unexpected content: %+v", result.Content)
	}
	want := `{
  "status": "success",
  "data": {
    "echoed": "hi"
  }
}`
	if result.Content[0].Text != want {
		t.Fatalf("text = %q, want %q", result.Content[0].Text, want)
	}
}

func TestToolErrorIsInResultNotJSONRPCError(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Definition{
		Name:        "fails",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) (*Result, error) {
			return ErrorResult("boom"), nil
		},
	})
	d := NewDispatcher(r, ServerInfo{Name: "gateway", Version: "test"})

	params, _ := json.Marshal(map[string]any{"name": "fails", "arguments": map[string]any{}})
	resp := d.Dispatch(context.Background(), &rpc.Request{
		JSONRPC: rpc.Version, ID: id(10), Method: "tools/call", Params: params,
	})
	if resp.Error != nil {
		t.Fatalf("tool-reported failure must not be a JSON-RPC error, got %+v", resp.Error)
	}
	var result callToolResult
	_ = json.Unmarshal(resp.Result, &result)
	if !result.IsError {
		t.Fatalf("expected isError:true, got %+v", result)
	}
}

func TestNotificationProducesNoResponse(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), &rpc.Request{JSONRPC: rpc.Version, Method: "ping"})
	if resp != nil {
		t.Fatalf("expected nil response for notification, got %+v", resp)
	}
}

func TestArgumentSchemaValidationFailureIsInvalidParams(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Definition{
		Name: "strict",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{"path"},
			"properties": map[string]any{
				"path": map[string]any{"type": "string"},
			},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (*Result, error) {
			return Success(map[string]any{})
		},
	})
	d := NewDispatcher(r, ServerInfo{Name: "gateway", Version: "test"})

	params, _ := json.Marshal(map[string]any{"name": "strict", "arguments": map[string]any{}})
	resp := d.Dispatch(context.Background(), &rpc.Request{
		JSONRPC: rpc.Version, ID: id(11), Method: "tools/call", Params: params,
	})
	if resp.Error == nil || resp.Error.Code != rpc.CodeInvalidParams {
		t.Fatalf("expected -32602 for missing required argument, got %+v", resp)
	}
}
