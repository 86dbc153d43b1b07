package rpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"testing"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	id := int64(42)
	req := &Request{JSONRPC: Version, ID: &id, Method: "ping"}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := WriteFrame(w, body); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	r := bufio.NewReader(&buf)
	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	var gotReq Request
	if err := json.Unmarshal(got, &gotReq); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if gotReq.Method != req.Method || *gotReq.ID != *req.ID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", gotReq, req)
	}
}

func TestReadFrameMissingContentLength(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("X-Other: 1\r\n\r\n{}"))
	_, err := ReadFrame(r)
	if err == nil {
		t.Fatal("expected framing error for missing Content-Length")
	}
	var fe *FramingError
	if !asFramingError(err, &fe) {
		t.Fatalf("expected *FramingError, got %T: %v", err, err)
	}
}

func TestReadFrameZeroLength(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("Content-Length: 0\r\n\r\n"))
	body, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(body) != 0 {
		t.Fatalf("expected empty body, got %q", body)
	}
}

func TestReadFrameShortBody(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("Content-Length: 10\r\n\r\n{}"))
	_, err := ReadFrame(r)
	if err == nil {
		t.Fatal("expected framing error for short body")
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader(nil))
	_, err := ReadFrame(r)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func asFramingError(err error, target **FramingError) bool {
	if fe, ok := err.(*FramingError); ok {
		*target = fe
		return true
	}
	return false
}
