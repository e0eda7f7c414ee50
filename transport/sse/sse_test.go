package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcpgen/mcpgen/jsonrpc"
	"github.com/mcpgen/mcpgen/transport"
)

// sseFixture is a minimal SSE-mode MCP endpoint: GET serves the event stream,
// POST /message accepts requests and pushes responses back over the stream.
type sseFixture struct {
	frames chan string
	server *httptest.Server

	mu       sync.Mutex
	sessions []string
}

func newSSEFixture(handle func(request *jsonrpc.Request, push func(frame string))) *sseFixture {
	ret := &sseFixture{frames: make(chan string, 64)}
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: endpoint\ndata: /message?sessionId=fixture-session\n\n")
		flusher.Flush()
		for {
			select {
			case frame := <-ret.frames:
				fmt.Fprintf(w, "event: message\ndata: %s\n\n", frame)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
	mux.HandleFunc("/message", func(w http.ResponseWriter, r *http.Request) {
		ret.mu.Lock()
		ret.sessions = append(ret.sessions, r.Header.Get("Mcp-Session-Id"))
		ret.mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		var request jsonrpc.Request
		if err := json.Unmarshal(body, &request); err != nil || request.Method == "" {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		if request.Id != nil && handle != nil {
			handle(&request, func(frame string) { ret.frames <- frame })
		}
		w.WriteHeader(http.StatusAccepted)
	})
	ret.server = httptest.NewServer(mux)
	return ret
}

func (f *sseFixture) close() {
	f.server.Close()
}

func echoHandler(request *jsonrpc.Request, push func(frame string)) {
	id, _ := json.Marshal(request.Id)
	go func() {
		// Random delivery order exercises correlation, not arrival order.
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		push(fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"result":{"echo":%s}}`, id, id))
	}()
}

func TestHandshake(t *testing.T) {
	fixture := newSSEFixture(echoHandler)
	defer fixture.close()

	client, err := New(context.Background(), fixture.server.URL+"/sse")
	assert.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "fixture-session", client.SessionId())
}

func TestHandshakeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	_, err := New(context.Background(), server.URL, WithHandshakeTimeout(50*time.Millisecond))
	assert.ErrorContains(t, err, "no endpoint event")
}

func TestConcurrentCorrelation(t *testing.T) {
	fixture := newSSEFixture(echoHandler)
	defer fixture.close()

	client, err := New(context.Background(), fixture.server.URL+"/sse")
	assert.NoError(t, err)
	defer client.Close()

	const calls = 20
	var waitGroup sync.WaitGroup
	errs := make([]error, calls)
	echoes := make([]int, calls)
	for i := 0; i < calls; i++ {
		waitGroup.Add(1)
		go func(i int) {
			defer waitGroup.Done()
			request, _ := jsonrpc.NewRequest("ping", nil)
			request.Id = i + 1
			response, err := client.Send(context.Background(), request)
			if err != nil {
				errs[i] = err
				return
			}
			var result struct {
				Echo int `json:"echo"`
			}
			if err := json.Unmarshal(response.Result, &result); err != nil {
				errs[i] = err
				return
			}
			echoes[i] = result.Echo
		}(i)
	}
	waitGroup.Wait()

	// Every caller got exactly its own response despite shuffled delivery.
	for i := 0; i < calls; i++ {
		assert.NoError(t, errs[i], "call %d", i+1)
		assert.Equal(t, i+1, echoes[i], "call %d", i+1)
	}
	assert.Equal(t, 0, client.pending.Len())
}

func TestSendTimeoutReleasesSlot(t *testing.T) {
	// The server swallows requests, so the call can only time out.
	fixture := newSSEFixture(nil)
	defer fixture.close()

	client, err := New(context.Background(), fixture.server.URL+"/sse")
	assert.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	request, _ := jsonrpc.NewRequest("ping", nil)
	request.Id = 1
	_, err = client.Send(ctx, request)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, client.pending.Len())

	// The id is reusable afterwards; a fresh call is unaffected.
	slot, err := client.pending.Add(1)
	assert.NoError(t, err)
	_ = slot
}

func TestSessionHeaderOnPost(t *testing.T) {
	fixture := newSSEFixture(echoHandler)
	defer fixture.close()

	client, err := New(context.Background(), fixture.server.URL+"/sse")
	assert.NoError(t, err)
	defer client.Close()

	request, _ := jsonrpc.NewRequest("ping", nil)
	request.Id = 1
	_, err = client.Send(context.Background(), request)
	assert.NoError(t, err)

	fixture.mu.Lock()
	defer fixture.mu.Unlock()
	if assert.NotEmpty(t, fixture.sessions) {
		assert.Equal(t, "fixture-session", fixture.sessions[0])
	}
}

func TestNotificationDelivery(t *testing.T) {
	fixture := newSSEFixture(echoHandler)
	defer fixture.close()

	notified := make(chan string, 1)
	client, err := New(context.Background(), fixture.server.URL+"/sse",
		WithNotificationHandler(func(notification *jsonrpc.Notification) {
			notified <- notification.Method
		}))
	assert.NoError(t, err)
	defer client.Close()

	fixture.frames <- `{"jsonrpc":"2.0","method":"notifications/message","params":{"level":"info"}}`
	select {
	case method := <-notified:
		assert.Equal(t, "notifications/message", method)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestCloseIdempotent(t *testing.T) {
	fixture := newSSEFixture(echoHandler)
	defer fixture.close()

	client, err := New(context.Background(), fixture.server.URL+"/sse")
	assert.NoError(t, err)
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())

	request, _ := jsonrpc.NewRequest("ping", nil)
	request.Id = 1
	_, err = client.Send(context.Background(), request)
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestStreamTerminationFailsPending(t *testing.T) {
	fixture := newSSEFixture(nil)

	client, err := New(context.Background(), fixture.server.URL+"/sse")
	assert.NoError(t, err)
	defer client.Close()

	done := make(chan *jsonrpc.Response, 1)
	go func() {
		request, _ := jsonrpc.NewRequest("ping", nil)
		request.Id = 1
		response, _ := client.Send(context.Background(), request)
		done <- response
	}()

	// Give the request time to register, then kill the stream.
	time.Sleep(100 * time.Millisecond)
	fixture.close()

	select {
	case response := <-done:
		if assert.NotNil(t, response) {
			assert.NotNil(t, response.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending call not failed after stream termination")
	}
}
