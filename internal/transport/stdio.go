// Package transport implements the Stdio Transport (C8) and HTTP Transport
// (C9): the two ways a client speaks JSON-RPC to the dispatcher. Grounded
// on original_source's serena-mcp/src/transport/{stdio,http}.rs, inverted
// from that crate's client-facing `receive`/`send` shape to a server-side
// read-dispatch-write loop, reusing the Content-Length framing loom's
// internal/mcp/client.go already established for the LSP side (C1/C2).
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"codegateway/internal/logging"
	"codegateway/internal/rpc"
	"codegateway/internal/tool"
)

// Stdio serves JSON-RPC requests framed with Content-Length headers over a
// single reader/writer pair, processing one request at a time in the order
// received: single-threaded and cooperative, with no concurrent request
// processing.
type Stdio struct {
	dispatcher *tool.Dispatcher
	log        *logging.Logger
}

// NewStdio builds a Stdio transport over dispatcher.
func NewStdio(dispatcher *tool.Dispatcher, log *logging.Logger) *Stdio {
	return &Stdio{dispatcher: dispatcher, log: log}
}

// Serve reads framed requests from r and writes framed responses to w until
// EOF (a graceful shutdown, not an error) or ctx is cancelled.
func (s *Stdio) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		body, err := rpc.ReadFrame(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Infof("stdio transport: peer closed the connection")
				return nil
			}
			return fmt.Errorf("stdio transport: read frame: %w", err)
		}
		if len(body) == 0 {
			// A zero-length Content-Length frame carries no message; skip
			// it and keep reading rather than handing an empty body to the
			// parser.
			continue
		}

		resp := s.handle(ctx, body)
		if resp == nil {
			continue
		}
		out, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("stdio transport: marshal response: %w", err)
		}
		if err := rpc.WriteFrame(writer, out); err != nil {
			return fmt.Errorf("stdio transport: write frame: %w", err)
		}
	}
}

// handle parses one request body and dispatches it, producing the
// JSON-RPC-level parse/invalid-request errors the dispatcher itself never
// sees (it only ever receives well-formed *rpc.Request values).
func (s *Stdio) handle(ctx context.Context, body []byte) *rpc.Response {
	req, parseResp := parseRequest(body)
	if parseResp != nil {
		return parseResp
	}
	return s.dispatcher.Dispatch(ctx, req)
}

// parseRequest unmarshals a JSON-RPC request, returning a ready-made
// -32700/-32600 error Response when it cannot, and (nil, nil) is never
// returned — exactly one of the two results is non-nil.
func parseRequest(body []byte) (*rpc.Request, *rpc.Response) {
	var req rpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, rpc.NewError(nil, rpc.CodeParseError, fmt.Sprintf("parse error: %v", err), nil)
	}
	if req.JSONRPC != rpc.Version || req.Method == "" {
		return nil, rpc.NewError(req.ID, rpc.CodeInvalidRequest, "invalid request: missing jsonrpc version or method", nil)
	}
	return &req, nil
}
