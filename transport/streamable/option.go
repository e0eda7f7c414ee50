package streamable

import (
	"net/http"

	"github.com/mcpgen/mcpgen/jsonrpc"
)

// Option represents a transport option.
type Option func(t *Transport)

// WithHTTPClient sets a custom HTTP client.
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

// WithListenStream enables the standalone GET stream for server-initiated
// frames once a session is established.
func WithListenStream() Option {
	return func(t *Transport) {
		t.listenStream = true
	}
}

// WithNotificationHandler registers a callback for server-initiated
// notifications arriving on any of the transport's streams.
func WithNotificationHandler(handler func(notification *jsonrpc.Notification)) Option {
	return func(t *Transport) {
		t.dispatcher.OnNotification = handler
	}
}
