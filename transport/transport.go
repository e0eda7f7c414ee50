// Package transport defines the wire contract shared by the three MCP client
// transports and the correlation machinery the streaming ones build on.
package transport

import (
	"context"

	"github.com/mcpgen/mcpgen/jsonrpc"
)

// Transport carries JSON-RPC envelopes to one endpoint and returns the
// matching responses. Implementations are safe for concurrent use.
type Transport interface {
	// Send transmits a request and blocks until its correlated response
	// arrives, the context expires, or the transport fails.
	Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error)

	// Notify transmits a notification; no response is expected.
	Notify(ctx context.Context, notification *jsonrpc.Notification) error

	// Close releases any live connection state. Idempotent.
	Close() error
}

// Kind tags which wire format a transport speaks. It is decided once per
// client by probing and never changes afterwards.
type Kind string

const (
	KindStreamable Kind = "streamable-http"
	KindSSE        Kind = "sse"
	KindPost       Kind = "http-post"
)

// Kinds returns the probe candidates in fixed priority order.
func Kinds() []Kind {
	return []Kind{KindStreamable, KindSSE, KindPost}
}
