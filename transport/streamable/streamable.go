// Package streamable implements the streamable-HTTP client transport:
// requests are POSTed to the MCP endpoint, responses arrive either as plain
// JSON bodies or as event-stream framed messages, and a server-issued
// session id binds the sequence of requests together. Correlation and
// dispatch follow the same rules as the SSE transport; only framing and
// endpoint path differ.
package streamable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mcpgen/mcpgen/internal/sseio"
	"github.com/mcpgen/mcpgen/jsonrpc"
	"github.com/mcpgen/mcpgen/schema"
	"github.com/mcpgen/mcpgen/transport"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeStream = "text/event-stream"
)

// Transport is the streamable-HTTP client transport.
type Transport struct {
	url        string
	headers    http.Header
	httpClient *http.Client

	pending    *transport.Pending
	dispatcher *transport.Dispatcher

	mux             sync.RWMutex
	sessionId       string
	protocolVersion string
	listening       bool

	listenStream bool

	streamCtx context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a streamable-HTTP transport for the supplied endpoint URL.
// The connection itself is established lazily by the first Send.
func New(ctx context.Context, url string, options ...Option) (*Transport, error) {
	pending := transport.NewPending()
	ret := &Transport{
		url:        url,
		headers:    http.Header{},
		pending:    pending,
		dispatcher: transport.NewDispatcher(pending),
		closed:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{}
	}
	ret.streamCtx, ret.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return ret, nil
}

// Send registers the request in the correlation map, POSTs it, and resolves
// from whichever channel the response arrives on: the POST's own JSON body,
// the POST's event-stream body, or the standalone listen stream.
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
	resp, err := t.post(ctx, data)
	if err != nil {
		t.pending.Remove(request.Id)
		return nil, err
	}

	if request.Method == schema.MethodInitialize {
		t.acceptSession(resp.Header.Get(schema.HeaderSessionId))
	}

	switch {
	case resp.StatusCode == http.StatusAccepted:
		// Response will arrive on the listen stream.
		resp.Body.Close()
	case isEventStream(resp.Header.Get("Content-Type")):
		go func() {
			t.drainStream(resp.Body)
			// The per-request stream ended; if it never carried this
			// request's response, fail the call instead of leaving it to
			// run out its deadline. Other entries have their own streams.
			t.failIfPending(request.Id)
		}()
	default:
		defer resp.Body.Close()
		t.pending.Remove(request.Id)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
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
	return t.pending.Await(ctx, request.Id, slot)
}

// Notify posts a notification; 202 Accepted (or any 2xx) acknowledges it.
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
	resp, err := t.post(ctx, data)
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

func (t *Transport) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	t.setHeaders(req)
	return t.httpClient.Do(req)
}

func (t *Transport) setHeaders(req *http.Request) {
	for key, values := range t.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON+", "+contentTypeStream)
	t.mux.RLock()
	if t.sessionId != "" {
		req.Header.Set(schema.HeaderSessionId, t.sessionId)
	}
	if t.protocolVersion != "" {
		req.Header.Set(schema.HeaderProtocolVersion, t.protocolVersion)
	}
	t.mux.RUnlock()
}

// acceptSession records the server-issued session id from the initialize
// response and, when enabled, starts the standalone listen stream for
// server-initiated frames.
func (t *Transport) acceptSession(sessionId string) {
	if sessionId == "" {
		return
	}
	t.mux.Lock()
	t.sessionId = sessionId
	start := t.listenStream && !t.listening
	if start {
		t.listening = true
	}
	t.mux.Unlock()
	if start {
		go t.listenLoop()
	}
}

// SetProtocolVersion sets the negotiated version replayed on every request.
func (t *Transport) SetProtocolVersion(version string) {
	t.mux.Lock()
	t.protocolVersion = version
	t.mux.Unlock()
}

// SessionId exposes the server-issued session token, if any.
func (t *Transport) SessionId() string {
	t.mux.RLock()
	defer t.mux.RUnlock()
	return t.sessionId
}

// drainStream feeds every frame of a POST's event-stream body into the
// shared dispatch loop until the server completes the stream.
func (t *Transport) drainStream(body io.ReadCloser) {
	defer body.Close()
	scanner := sseio.NewScanner(body)
	for {
		event, err := scanner.Next()
		if err != nil {
			return
		}
		t.dispatcher.Dispatch([]byte(event.Data))
	}
}

// failIfPending resolves the slot for id with a connection-closed error. A
// no-op when the response already arrived.
func (t *Transport) failIfPending(id jsonrpc.RequestId) {
	t.pending.Resolve(&jsonrpc.Response{
		Jsonrpc: jsonrpc.Version,
		Id:      id,
		Error:   jsonrpc.NewInternalError(transport.ErrClosed.Error(), nil),
	})
}

// listenLoop maintains the standalone GET stream carrying server-initiated
// frames, reconnecting with exponential backoff until the transport closes.
// A 405 means the server does not offer the stream; that is not an error.
func (t *Transport) listenLoop() {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), t.streamCtx)
	_ = backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(t.streamCtx, http.MethodGet, t.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		t.setHeaders(req)
		req.Header.Set("Accept", contentTypeStream)
		resp, err := t.httpClient.Do(req)
		if err != nil {
			if t.streamCtx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if resp.StatusCode == http.StatusMethodNotAllowed {
			resp.Body.Close()
			return nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return fmt.Errorf("listen stream status %d", resp.StatusCode)
		}
		t.drainStream(resp.Body)
		if t.streamCtx.Err() != nil {
			return nil
		}
		return fmt.Errorf("listen stream interrupted")
	}, policy)
}

// Close terminates the session with a best-effort DELETE, stops the listen
// stream, and fails anything still pending. Idempotent.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.mux.RLock()
		sessionId := t.sessionId
		t.mux.RUnlock()
		if sessionId != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if req, err := http.NewRequestWithContext(ctx, http.MethodDelete, t.url, nil); err == nil {
				req.Header.Set(schema.HeaderSessionId, sessionId)
				if resp, err := t.httpClient.Do(req); err == nil {
					resp.Body.Close()
				}
			}
		}
		t.cancel()
		t.pending.FailAll(transport.ErrClosed)
	})
	return nil
}

func isEventStream(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), contentTypeStream)
}

var _ transport.Transport = (*Transport)(nil)
