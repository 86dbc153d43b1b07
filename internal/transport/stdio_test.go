package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"codegateway/internal/logging"
	"codegateway/internal/rpc"
	"codegateway/internal/tool"
)

func newTestDispatcher(t *testing.T) *tool.Dispatcher {
	t.Helper()
	r := tool.NewRegistry()
	return tool.NewDispatcher(r, tool.ServerInfo{Name: "codegateway", Version: "test"})
}

func frame(t *testing.T, v any) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := rpc.WriteFrame(w, body); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	return buf.Bytes()
}

func TestStdioServeRoundTripsPing(t *testing.T) {
	id := int64(1)
	var in bytes.Buffer
	in.Write(frame(t, &rpc.Request{JSONRPC: rpc.Version, ID: &id, Method: "ping"}))

	var out bytes.Buffer
	s := NewStdio(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError))
	if err := s.Serve(context.Background(), &in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	body, err := rpc.ReadFrame(bufio.NewReader(&out))
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	var resp rpc.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error response: %+v", resp.Error)
	}
	if resp.ID == nil || *resp.ID != id {
		t.Fatalf("response id = %v, want %d", resp.ID, id)
	}
}

func TestStdioServeMalformedJSONYieldsParseError(t *testing.T) {
	var in bytes.Buffer
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := rpc.WriteFrame(w, []byte("{not json")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	in.Write(buf.Bytes())

	var out bytes.Buffer
	s := NewStdio(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError))
	if err := s.Serve(context.Background(), &in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	body, err := rpc.ReadFrame(bufio.NewReader(&out))
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	var resp rpc.Response
	_ = json.Unmarshal(body, &resp)
	if resp.Error == nil || resp.Error.Code != rpc.CodeParseError {
		t.Fatalf("expected parse error response, got %+v", resp)
	}
}

func TestStdioServeEOFReturnsNil(t *testing.T) {
	s := NewStdio(newTestDispatcher(t), logging.New(io.Discard, logging.LevelError))
	if err := s.Serve(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatalf("expected clean EOF to return nil error, got %v", err)
	}
}
