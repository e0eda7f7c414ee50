package sse

import (
	"net/http"
	"time"

	"github.com/mcpgen/mcpgen/jsonrpc"
)

// Option represents a transport option.
type Option func(t *Transport)

// WithHTTPClient sets a custom HTTP client used for both the event stream
// and message submission.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.httpClient = client
	}
}

// WithHeaders sets headers attached to every request, passed through
// unmodified.
func WithHeaders(headers http.Header) Option {
	return func(t *Transport) {
		for key, values := range headers {
			for _, value := range values {
				t.headers.Add(key, value)
			}
		}
	}
}

// WithHandshakeTimeout bounds the wait for the server's endpoint event.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		t.handshakeTimeout = timeout
	}
}

// WithNotificationHandler registers a callback for server-initiated
// notifications arriving on the shared stream.
func WithNotificationHandler(handler func(notification *jsonrpc.Notification)) Option {
	return func(t *Transport) {
		t.dispatcher.OnNotification = handler
	}
}
