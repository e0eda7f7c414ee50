package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Version is the only JSON-RPC protocol version this package speaks.
const Version = "2.0"

// RequestId identifies a request; the wire format permits both strings and
// integers, so the Go representation stays loose and is normalized with Key
// wherever it is used for correlation.
type RequestId = any

// Request represents a JSON-RPC request envelope.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Id      RequestId       `json:"id,omitempty"`
}

// Response represents a JSON-RPC response envelope.
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	Id      RequestId       `json:"id,omitempty"`
}

// Notification represents a JSON-RPC notification (a request without an id).
type Notification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest creates a request for the supplied method, marshalling params.
// The id is left unset; the caller owns id assignment so that ids stay unique
// within one correlation domain.
func NewRequest(method string, params any) (*Request, error) {
	ret := &Request{Jsonrpc: Version, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		ret.Params = data
	}
	return ret, nil
}

// NewNotification creates a notification for the supplied method.
func NewNotification(method string, params any) (*Notification, error) {
	ret := &Notification{Jsonrpc: Version, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		ret.Params = data
	}
	return ret, nil
}

// Message is the parse result of an incoming frame: exactly one of Response
// or Notification is set.
type Message struct {
	Response     *Response
	Notification *Notification
}

// ParseMessage decodes a raw frame into either a response or a notification.
// Server-initiated requests (id and method both present) are surfaced as
// notifications; this client never answers them.
func ParseMessage(data []byte) (*Message, error) {
	var probe struct {
		Jsonrpc string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
		Result  json.RawMessage `json:"result"`
		Error   *Error          `json:"error"`
		Id      RequestId       `json:"id"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(data), &probe); err != nil {
		return nil, NewParsingError(err.Error(), data)
	}
	if probe.Method != "" {
		return &Message{Notification: &Notification{Jsonrpc: probe.Jsonrpc, Method: probe.Method, Params: probe.Params}}, nil
	}
	return &Message{Response: &Response{Jsonrpc: probe.Jsonrpc, Result: probe.Result, Error: probe.Error, Id: probe.Id}}, nil
}
