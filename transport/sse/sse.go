// Package sse implements the legacy SSE client transport: one long-lived
// event stream delivers responses while requests are submitted by POST to a
// message endpoint announced in the stream's first event. Requests and
// responses are correlated by id over the shared stream.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcpgen/mcpgen/internal/sseio"
	"github.com/mcpgen/mcpgen/jsonrpc"
	"github.com/mcpgen/mcpgen/transport"
)

const (
	eventEndpoint = "endpoint"
	eventMessage  = "message"

	defaultHandshakeTimeout = 10 * time.Second
)

// Transport is the SSE client transport.
type Transport struct {
	streamURL  string
	headers    http.Header
	httpClient *http.Client

	pending    *transport.Pending
	dispatcher *transport.Dispatcher

	handshakeTimeout time.Duration

	ready      chan struct{}
	messageURL string
	sessionId  string

	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    chan struct{}
}

// New opens the event stream for the supplied URL and blocks until the
// server announces its message endpoint (the session handshake) or the
// handshake times out.
func New(ctx context.Context, url string, options ...Option) (*Transport, error) {
	pending := transport.NewPending()
	ret := &Transport{
		streamURL:        url,
		headers:          http.Header{},
		pending:          pending,
		dispatcher:       transport.NewDispatcher(pending),
		handshakeTimeout: defaultHandshakeTimeout,
		ready:            make(chan struct{}),
		closed:           make(chan struct{}),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{}
	}

	// The stream outlives the dial context; Close cancels it.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ret.cancel = cancel
	body, err := ret.openStream(streamCtx)
	if err != nil {
		cancel()
		return nil, err
	}
	go ret.readLoop(streamCtx, body)

	select {
	case <-ret.ready:
		return ret, nil
	case <-time.After(ret.handshakeTimeout):
		_ = ret.Close()
		return nil, fmt.Errorf("sse handshake: no endpoint event within %s", ret.handshakeTimeout)
	case <-ctx.Done():
		_ = ret.Close()
		return nil, ctx.Err()
	}
}

func (t *Transport) openStream(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.streamURL, nil)
	if err != nil {
		return nil, err
	}
	applyHeaders(req, t.headers)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("sse stream status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// readLoop consumes the event stream for the transport's lifetime. It is the
// only goroutine resolving correlation slots; when the stream terminates,
// every still-pending call fails with a connection-closed error instead of
// hanging.
func (t *Transport) readLoop(ctx context.Context, body io.ReadCloser) {
	defer body.Close()
	go func() {
		<-ctx.Done()
		body.Close()
	}()

	scanner := sseio.NewScanner(body)
	for {
		event, err := scanner.Next()
		if err != nil {
			t.pending.FailAll(transport.ErrClosed)
			return
		}
		switch event.Name {
		case eventEndpoint:
			t.acceptEndpoint(event.Data)
		case eventMessage, "":
			t.dispatcher.Dispatch([]byte(event.Data))
		}
	}
}

// acceptEndpoint records the message POST target announced by the server.
// The endpoint usually carries the session token as a query parameter; when
// it does not, a client-generated token is used instead.
func (t *Transport) acceptEndpoint(endpoint string) {
	select {
	case <-t.ready:
		return // session already established, endpoint never changes mid-session
	default:
	}
	resolved := endpoint
	if base, err := url.Parse(t.streamURL); err == nil {
		if ref, err := url.Parse(endpoint); err == nil {
			resolved = base.ResolveReference(ref).String()
		}
	}
	t.messageURL = resolved
	t.sessionId = sessionFromEndpoint(resolved)
	if t.sessionId == "" {
		t.sessionId = uuid.New().String()
	}
	close(t.ready)
}

func sessionFromEndpoint(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	query := parsed.Query()
	for _, key := range []string{"sessionId", "session_id", "session"} {
		if value := query.Get(key); value != "" {
			return value
		}
	}
	return ""
}

// Send registers the request in the correlation map before transmitting it,
// then blocks until the read loop resolves the slot or the context expires.
func (t *Transport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	select {
	case <-t.closed:
		return nil, transport.ErrClosed
	default:
	}
	slot, err := t.pending.Add(request.Id)
	if err != nil {
		return nil, err
	}
	data, merr := json.Marshal(request)
	if merr != nil {
		t.pending.Remove(request.Id)
		return nil, merr
	}
	if err := t.post(ctx, data); err != nil {
		t.pending.Remove(request.Id)
		return nil, err
	}
	return t.pending.Await(ctx, request.Id, slot)
}

// Notify posts a notification; it has no id and no slot.
func (t *Transport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	select {
	case <-t.closed:
		return transport.ErrClosed
	default:
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return t.post(ctx, data)
}

func (t *Transport) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.messageURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	applyHeaders(req, t.headers)
	req.Header.Set("Content-Type", "application/json")
	if t.sessionId != "" {
		req.Header.Set("Mcp-Session-Id", t.sessionId)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sse post status %d", resp.StatusCode)
	}
	return nil
}

// SessionId exposes the server-issued (or generated) session token.
func (t *Transport) SessionId() string {
	return t.sessionId
}

// Close tears the stream down and fails anything still pending. Idempotent.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.cancel()
		t.pending.FailAll(transport.ErrClosed)
	})
	return nil
}

func applyHeaders(req *http.Request, headers http.Header) {
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
}

var _ transport.Transport = (*Transport)(nil)
