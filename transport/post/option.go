package post

import "net/http"

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
