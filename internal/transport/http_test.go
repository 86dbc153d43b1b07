package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"codegateway/internal/logging"
	"codegateway/internal/rpc"
)

func TestHTTPHealth(t *testing.T) {
	h := NewHTTP(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError), 0)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHTTPSinglePing(t *testing.T) {
	h := NewHTTP(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError), 0)
	id := int64(7)
	body, _ := json.Marshal(&rpc.Request{JSONRPC: rpc.Version, ID: &id, Method: "ping"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp rpc.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestHTTPSingleMalformedJSON(t *testing.T) {
	h := NewHTTP(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError), 0)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte("{not json")))
	h.Handler().ServeHTTP(rec, req)

	var resp rpc.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error == nil || resp.Error.Code != rpc.CodeParseError {
		t.Fatalf("expected parse error, got %+v", resp)
	}
}

func TestHTTPBatchEmptyArrayRejected(t *testing.T) {
	h := NewHTTP(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError), 0)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp/batch", bytes.NewReader([]byte("[]")))
	h.Handler().ServeHTTP(rec, req)

	var resp rpc.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error == nil || resp.Error.Code != rpc.CodeInvalidRequest {
		t.Fatalf("expected invalid request error for empty batch, got %+v", resp)
	}
}

func TestHTTPBatchMultipleRequests(t *testing.T) {
	h := NewHTTP(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError), 0)
	id1, id2 := int64(1), int64(2)
	items := []*rpc.Request{
		{JSONRPC: rpc.Version, ID: &id1, Method: "ping"},
		{JSONRPC: rpc.Version, ID: &id2, Method: "ping"},
	}
	body, _ := json.Marshal(items)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp/batch", bytes.NewReader(body))
	h.Handler().ServeHTTP(rec, req)

	var responses []rpc.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &responses); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}
}

func TestHTTPBodyTooLargeRejected(t *testing.T) {
	h := NewHTTP(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError), 0)
	oversized := bytes.Repeat([]byte("a"), defaultMaxRequestBody+2)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(oversized))
	h.Handler().ServeHTTP(rec, req)

	var resp rpc.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error == nil || resp.Error.Code != rpc.CodeInvalidRequest {
		t.Fatalf("expected invalid request error for oversized body, got %+v", resp)
	}
}
