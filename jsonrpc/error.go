package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ParsingError   = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Error represents a JSON-RPC error object; it doubles as a Go error so
// protocol-level failures can travel through regular error returns.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("jsonrpc error %d: %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewError creates an error with the supplied code, message and data.
func NewError(code int, message string, data any) *Error {
	ret := &Error{Code: code, Message: message}
	if data != nil {
		ret.Data, _ = json.Marshal(data)
	}
	return ret
}

// NewParsingError creates a parsing error
func NewParsingError(message string, data any) *Error {
	return NewError(ParsingError, message, data)
}

// NewInvalidRequest creates an invalid request error
func NewInvalidRequest(message string, data any) *Error {
	return NewError(InvalidRequest, message, data)
}

// NewMethodNotFound creates a method not found error
func NewMethodNotFound(message string, data any) *Error {
	return NewError(MethodNotFound, message, data)
}

// NewInvalidParamsError creates an invalid params error
func NewInvalidParamsError(message string, data any) *Error {
	return NewError(InvalidParams, message, data)
}

// NewInternalError creates an internal error
func NewInternalError(message string, data any) *Error {
	return NewError(InternalError, message, data)
}
