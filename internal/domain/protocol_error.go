package domain

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// JSON-RPC 2.0 error codes used on the wire.
const (
	RPCParseError     int64 = -32700
	RPCInvalidRequest int64 = -32600
	RPCMethodNotFound int64 = -32601
	RPCInternalError  int64 = -32603
)

// ProtocolError is the error member of a JSON-RPC response. Tool failures
// never become one; they travel inside a successful result.
type ProtocolError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// HTTPStatus maps the code onto the HTTP binding: internal faults are 500,
// every other protocol error is the caller's fault.
func (e *ProtocolError) HTTPStatus() int {
	if e != nil && e.Code == RPCInternalError {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// Status is the metrics label for the code.
func (e *ProtocolError) Status() RPCStatus {
	if e == nil {
		return RPCStatusOK
	}
	switch e.Code {
	case RPCMethodNotFound:
		return RPCStatusNotFound
	case RPCInternalError:
		return RPCStatusInternal
	default:
		return RPCStatusInvalidRequest
	}
}

func NewProtocolError(code int64, message string) *ProtocolError {
	return &ProtocolError{Code: code, Message: message}
}
