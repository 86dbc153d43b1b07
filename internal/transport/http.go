package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"codegateway/internal/logging"
	"codegateway/internal/rpc"
	"codegateway/internal/tool"
)

// defaultMaxRequestBody is the fallback body cap used when NewHTTP is
// given a non-positive maxBodyBytes (boundary case: an over-limit body is
// rejected as an invalid request, not a bare connection reset).
const defaultMaxRequestBody = 10 << 20 // 10 MiB

// HTTP serves JSON-RPC over plain HTTP POST, grounded on
// jinterlante1206-AleutianLocal's gin.Engine/route-group idiom and
// original_source's serena-mcp/src/transport/http.rs thin-handler shape.
type HTTP struct {
	dispatcher *tool.Dispatcher
	log        *logging.Logger
	engine     *gin.Engine
	maxReqBody int64
}

// NewHTTP builds a gin.Engine wired with the JSON-RPC routes. maxBodyBytes
// caps a single request body; a non-positive value falls back to
// defaultMaxRequestBody.
func NewHTTP(dispatcher *tool.Dispatcher, log *logging.Logger, maxBodyBytes int64) *HTTP {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxRequestBody
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))
	engine.Use(corsMiddleware())

	h := &HTTP{dispatcher: dispatcher, log: log, engine: engine, maxReqBody: maxBodyBytes}

	engine.GET("/health", h.handleHealth)
	mcp := engine.Group("/mcp")
	{
		mcp.POST("", h.handleSingle)
		mcp.POST("/batch", h.handleBatch)
		mcp.GET("/events", h.handleEvents)
	}

	return h
}

// Handler returns the net/http handler ListenAndServe can use directly.
func (h *HTTP) Handler() http.Handler { return h.engine }

// ListenAndServe blocks serving on addr until the process is killed or the
// listener fails.
func (h *HTTP) ListenAndServe(addr string) error {
	h.log.Infof("http transport: listening on %s", addr)
	return http.ListenAndServe(addr, h.engine)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf("http transport: %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (h *HTTP) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSingle serves POST /mcp: exactly one JSON-RPC request object in,
// one JSON-RPC response object out.
func (h *HTTP) handleSingle(c *gin.Context) {
	body, ok := h.readBoundedBody(c)
	if !ok {
		return
	}

	req, errResp := parseRequest(body)
	if errResp != nil {
		c.JSON(http.StatusOK, errResp)
		return
	}

	resp := h.dispatcher.Dispatch(c.Request.Context(), req)
	if resp == nil {
		// A notification carries no id and gets no body, per JSON-RPC 2.0.
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleBatch serves POST /mcp/batch: a JSON array of requests answered
// with a JSON array of responses in the same order. An empty array is a
// protocol violation: -32600.
func (h *HTTP) handleBatch(c *gin.Context) {
	body, ok := h.readBoundedBody(c)
	if !ok {
		return
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(body, &rawItems); err != nil {
		c.JSON(http.StatusOK, rpc.NewError(nil, rpc.CodeParseError, fmt.Sprintf("parse error: %v", err), nil))
		return
	}
	if len(rawItems) == 0 {
		c.JSON(http.StatusOK, rpc.NewError(nil, rpc.CodeInvalidRequest, "invalid request: batch must not be empty", nil))
		return
	}

	responses := make([]*rpc.Response, 0, len(rawItems))
	for _, raw := range rawItems {
		req, errResp := parseRequest(raw)
		if errResp != nil {
			responses = append(responses, errResp)
			continue
		}
		if resp := h.dispatcher.Dispatch(c.Request.Context(), req); resp != nil {
			responses = append(responses, resp)
		}
	}
	c.JSON(http.StatusOK, responses)
}

// handleEvents is a minimal server-sent-events stream: it carries no
// events, only a keep-alive comment every 30 seconds, and gives long-lived
// HTTP clients a stable endpoint to subscribe to.
func (h *HTTP) handleEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			return true
		}
	})
}

// readBoundedBody reads the request body up to h.maxReqBody+1 bytes,
// writing a -32600 response itself and returning ok=false when the limit
// is exceeded.
func (h *HTTP) readBoundedBody(c *gin.Context) ([]byte, bool) {
	limited := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxReqBody+1)
	var buf bytes.Buffer
	n, err := buf.ReadFrom(limited)
	if err != nil {
		c.JSON(http.StatusOK, rpc.NewError(nil, rpc.CodeInvalidRequest, "invalid request: body too large or unreadable", nil))
		return nil, false
	}
	if n > h.maxReqBody {
		c.JSON(http.StatusOK, rpc.NewError(nil, rpc.CodeInvalidRequest, "invalid request: body exceeds maximum size", nil))
		return nil, false
	}
	return buf.Bytes(), true
}
