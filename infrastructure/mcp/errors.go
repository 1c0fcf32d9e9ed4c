package mcp

import (
	"errors"
	"strings"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// ErrNoRegistry indicates a server was configured without tools.
var ErrNoRegistry = errors.New("mcp server requires a tool registry")

// ToolError is the error returned to MCP clients for a failed tool call.
// Its message always starts with the error kind.
type ToolError struct {
	Kind storage.Kind
	Err  error
}

// NewToolError classifies err. Unclassified errors are reported as
// BackendError.
func NewToolError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{Kind: storage.KindOf(err), Err: err}
}

func (e *ToolError) Error() string {
	msg := e.Err.Error()
	if strings.HasPrefix(msg, string(e.Kind)+":") {
		return msg
	}
	return string(e.Kind) + ": " + msg
}

// Unwrap returns the underlying cause.
func (e *ToolError) Unwrap() error {
	return e.Err
}
