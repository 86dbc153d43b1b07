// Package lspclient implements the LSP Client (C2): ownership of one
// language-server subprocess and its framed JSON-RPC channel, correlating
// responses to pending requests by numeric id. Grounded on loom's
// internal/mcp/client.go subprocess-management idiom (writer/reader/stderr
// cooperating goroutines, atomic id counter, channel-based pending table),
// generalized from the MCP stdio dialect to the LSP Content-Length dialect.
package lspclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"codegateway/internal/logging"
	"codegateway/internal/rpc"
)

// State is the LSP Client's lifecycle stage.
type State int32

const (
	StateSpawned State = iota
	StateInitialized
	StateRunning
	StateShuttingDown
	StateTerminated
)

// CommError wraps a communication failure (subprocess death, EOF, timeout)
// surfaced to every pending request when the channel can no longer be
// trusted.
type CommError struct {
	Err error
}

func (e *CommError) Error() string { return fmt.Sprintf("lsp communication error: %v", e.Err) }
func (e *CommError) Unwrap() error { return e.Err }

// ServerError is an LSP "error" object surfaced to the caller as a typed
// error carrying code and message.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string { return fmt.Sprintf("lsp error %d: %s", e.Code, e.Message) }

type pendingEntry struct {
	resultCh chan json.RawMessage
	errCh    chan error
}

// Client owns one language-server subprocess.
type Client struct {
	log     *logging.Logger
	command string
	args    []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	writeMu sync.Mutex // serializes stdin writes (the writer "task")
	stdinW  *bufio.Writer

	nextID  atomic.Int64
	state   atomic.Int32
	pendMu  sync.Mutex
	pending map[int64]pendingEntry

	closeOnce sync.Once
	done      chan struct{}
}

// New spawns the subprocess with piped stdio and starts the reader and
// stderr-logger goroutines. It does not perform the LSP handshake; call
// Initialize for that.
func New(ctx context.Context, command string, args []string, log *logging.Logger) (*Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("lspclient: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("lspclient: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("lspclient: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("lspclient: start %s: %w", command, err)
	}

	c := &Client{
		log:     log,
		command: command,
		args:    args,
		cmd:     cmd,
		stdin:   stdin,
		stdinW:  bufio.NewWriter(stdin),
		stdout:  bufio.NewReader(stdout),
		pending: make(map[int64]pendingEntry),
		done:    make(chan struct{}),
	}
	c.nextID.Store(0)
	c.state.Store(int32(StateSpawned))

	go c.readLoop()
	go c.stderrLoop(stderr)

	return c, nil
}

// Command reports the subprocess command line, for logging/inspection.
func (c *Client) Command() (string, []string) { return c.command, c.args }

// State reports the current lifecycle stage.
func (c *Client) State() State { return State(c.state.Load()) }

// stderrLoop logs every stderr line at warn level.
func (c *Client) stderrLoop(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		c.log.Warnf("%s stderr: %s", c.command, scanner.Text())
	}
}

// readLoop parses framed messages from the subprocess's stdout, dispatching
// responses to pending callers by id; on EOF it fails every pending slot.
func (c *Client) readLoop() {
	defer close(c.done)
	for {
		body, err := rpc.ReadFrame(c.stdout)
		if err != nil {
			c.failAllPending(&CommError{Err: err})
			return
		}

		var resp rpc.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			c.log.Warnf("%s: malformed message, dropping: %v", c.command, err)
			continue
		}

		if resp.ID == nil {
			// Server notification: out of core scope; log it.
			c.log.Debugf("%s: notification ignored: %s", c.command, string(body))
			continue
		}

		c.pendMu.Lock()
		entry, ok := c.pending[*resp.ID]
		if ok {
			delete(c.pending, *resp.ID)
		}
		c.pendMu.Unlock()

		if !ok {
			// No waiter for this id; drop silently.
			continue
		}

		if resp.Error != nil {
			entry.errCh <- &ServerError{Code: resp.Error.Code, Message: resp.Error.Message}
			continue
		}
		entry.resultCh <- resp.Result
	}
}

func (c *Client) failAllPending(err error) {
	c.pendMu.Lock()
	defer c.pendMu.Unlock()
	for id, entry := range c.pending {
		entry.errCh <- err
		delete(c.pending, id)
	}
}

// request allocates the next id, registers a pending slot, writes the
// framed request, and blocks until the reader completes it or ctx expires.
func (c *Client) request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("lspclient: marshal params: %w", err)
	}

	req := rpc.Request{JSONRPC: rpc.Version, ID: &id, Method: method, Params: raw}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("lspclient: marshal request: %w", err)
	}

	entry := pendingEntry{resultCh: make(chan json.RawMessage, 1), errCh: make(chan error, 1)}
	c.pendMu.Lock()
	c.pending[id] = entry
	c.pendMu.Unlock()

	if err := c.writeFrame(body); err != nil {
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, err
	}

	select {
	case result := <-entry.resultCh:
		return result, nil
	case err := <-entry.errCh:
		return nil, err
	case <-ctx.Done():
		// LSP has no generic request-cancel in the minimum spec, so the
		// server may still reply for this id later; drop our slot now
		// rather than leak it waiting for a reply nobody reads.
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		return nil, &CommError{Err: io.ErrClosedPipe}
	}
}

// notify writes a request with no id and does not await a reply.
func (c *Client) notify(method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("lspclient: marshal params: %w", err)
	}
	req := rpc.Request{JSONRPC: rpc.Version, Method: method, Params: raw}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("lspclient: marshal request: %w", err)
	}
	return c.writeFrame(body)
}

func (c *Client) writeFrame(body []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := rpc.WriteFrame(c.stdinW, body); err != nil {
		c.log.Errorf("%s: write error, subprocess assumed dead: %v", c.command, err)
		return &CommError{Err: err}
	}
	return nil
}

// Initialize performs the two-step LSP handshake: send `initialize`, then
// on success send the `initialized` notification. rootURI is the
// workspace-root URI's URI construction rules.
func (c *Client) Initialize(ctx context.Context, rootURI string) (json.RawMessage, error) {
	params := map[string]any{
		"processId": nil,
		"rootUri":   rootURI,
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"documentSymbol": map[string]any{
					"hierarchicalDocumentSymbolSupport": true,
				},
			},
			"workspace": map[string]any{
				"symbol": map[string]any{},
			},
		},
	}

	result, err := c.request(ctx, "initialize", params)
	if err != nil {
		return nil, fmt.Errorf("lspclient: initialize: %w", err)
	}
	if err := c.notify("initialized", map[string]any{}); err != nil {
		return nil, fmt.Errorf("lspclient: initialized notification: %w", err)
	}
	c.state.Store(int32(StateInitialized))
	return result, nil
}

// Request issues an arbitrary LSP request and waits for its result.
func (c *Client) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.state.Store(int32(StateRunning))
	return c.request(ctx, method, params)
}

// Notify issues an arbitrary LSP notification.
func (c *Client) Notify(method string, params any) error {
	return c.notify(method, params)
}

// Shutdown performs the graceful LSP shutdown handshake: `shutdown` request,
// `exit` notification, a brief wait, then an unconditional kill.
func (c *Client) Shutdown(ctx context.Context) error {
	c.state.Store(int32(StateShuttingDown))

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, _ = c.request(shutdownCtx, "shutdown", nil)
	_ = c.notify("exit", nil)

	waitCh := make(chan error, 1)
	go func() { waitCh <- c.cmd.Wait() }()

	select {
	case <-waitCh:
	case <-time.After(2 * time.Second):
		_ = c.cmd.Process.Kill()
		<-waitCh
	}

	c.state.Store(int32(StateTerminated))
	return nil
}

// Kill unconditionally terminates the subprocess; this is the drop-path
// guarantee of the LSP Client's lifecycle state and is safe to call more
// than once.
func (c *Client) Kill() {
	c.closeOnce.Do(func() {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		c.state.Store(int32(StateTerminated))
	})
}
