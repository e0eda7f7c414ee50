// Package post implements the plain HTTP-POST JSON-RPC transport: one POST
// per call, with HTTP itself correlating each request to its response. No
// session and no correlation map are needed.
package post

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/mcpgen/mcpgen/internal/conv"
	"github.com/mcpgen/mcpgen/internal/sseio"
	"github.com/mcpgen/mcpgen/jsonrpc"
	"github.com/mcpgen/mcpgen/transport"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeStream = "text/event-stream"

	// Bound on concurrent connections to one endpoint.
	defaultMaxConns = 10
)

// Transport is the HTTP-POST JSON-RPC client transport.
type Transport struct {
	url        string
	headers    http.Header
	httpClient *http.Client
	closed     atomic.Bool
}

// New creates a POST transport for the supplied endpoint URL.
func New(url string, options ...Option) *Transport {
	ret := &Transport{url: url, headers: http.Header{}}
	for _, opt := range options {
		opt(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: defaultMaxConns,
				MaxConnsPerHost:     defaultMaxConns,
			},
		}
	}
	return ret
}

// Send issues one POST carrying the request and parses the response, which
// arrives either as a plain JSON body or as an event-stream whose first
// complete envelope with a matching id resolves the call.
func (t *Transport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	if t.closed.Load() {
		return nil, transport.ErrClosed
	}
	resp, err := t.post(ctx, request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if isEventStream(resp.Header.Get("Content-Type")) {
		return readStreamResponse(resp.Body, request.Id)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var response jsonrpc.Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &transport.MalformedResponseError{Body: body, Err: err}
	}
	return &response, nil
}

// Notify posts a notification; any 2xx status acknowledges it.
func (t *Transport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if t.closed.Load() {
		return transport.ErrClosed
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	resp, err := t.request(ctx, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http status %d", resp.StatusCode)
	}
	return nil
}

// Close marks the transport closed; there is no connection state to release.
func (t *Transport) Close() error {
	t.closed.Store(true)
	return nil
}

func (t *Transport) post(ctx context.Context, request *jsonrpc.Request) (*http.Response, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	return t.request(ctx, data)
}

func (t *Transport) request(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, values := range t.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON+", "+contentTypeStream)
	return t.httpClient.Do(req)
}

// readStreamResponse scans a POST-SSE body and resolves on the first event
// that parses into a complete envelope matching the outgoing request id.
func readStreamResponse(body io.Reader, id jsonrpc.RequestId) (*jsonrpc.Response, error) {
	scanner := sseio.NewScanner(body)
	want := conv.AsKey(id)
	for {
		event, err := scanner.Next()
		if err != nil {
			return nil, &transport.MalformedResponseError{Err: fmt.Errorf("stream ended before response: %w", err)}
		}
		message, err := jsonrpc.ParseMessage([]byte(event.Data))
		if err != nil || message.Response == nil {
			continue
		}
		if conv.AsKey(message.Response.Id) == want {
			return message.Response, nil
		}
	}
}

func isEventStream(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), contentTypeStream)
}

var _ transport.Transport = (*Transport)(nil)
