package tool

import "encoding/json"

// Status is a tool's execution outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Result is the tagged union a tool handler returns: exactly one of
// Success, Warning, or Error, constructed via the helpers below. Grounded
// on original_source's serena-core ToolResult, whose {"status":...,"data":
// ...} shape this mirrors field-for-field so the dispatcher's pretty-
// printed JSON matches exactly.
type Result struct {
	Status  Status          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Success builds a successful Result carrying data.
func Success(data any) (*Result, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Result{Status: StatusSuccess, Data: raw}, nil
}

// SuccessWithMessage builds a successful Result carrying data and a
// human-readable message.
func SuccessWithMessage(data any, message string) (*Result, error) {
	r, err := Success(data)
	if err != nil {
		return nil, err
	}
	r.Message = message
	return r, nil
}

// ErrorResult builds a tool-reported failure. This is never a JSON-RPC
// error; the dispatcher marshals it as a successful JSON-RPC response
// with isError:true.
func ErrorResult(message string) *Result {
	return &Result{Status: StatusError, Error: message}
}

// Warning builds a Result indicating a non-fatal condition worth surfacing
// to the agent without failing the call.
func Warning(message string) *Result {
	return &Result{Status: StatusWarning, Message: message}
}

// WarningWithData builds a Warning Result that still carries data.
func WarningWithData(data any, message string) (*Result, error) {
	r, err := Success(data)
	if err != nil {
		return nil, err
	}
	r.Status = StatusWarning
	r.Message = message
	return r, nil
}

// IsError reports whether this Result represents a tool-reported failure.
func (r *Result) IsError() bool {
	return r != nil && r.Status == StatusError
}
