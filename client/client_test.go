package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcpgen/mcpgen/internal/conv"
	"github.com/mcpgen/mcpgen/jsonrpc"
	"github.com/mcpgen/mcpgen/schema"
	"github.com/mcpgen/mcpgen/transport"
)

// fakeTransport scripts responses per method so handshake and retry behavior
// can be asserted without a network.
type fakeTransport struct {
	mu            sync.Mutex
	handler       func(request *jsonrpc.Request) (*jsonrpc.Response, error)
	requests      []*jsonrpc.Request
	notifications []*jsonrpc.Notification
	protocol      string
	closes        int
}

func (f *fakeTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, request)
	f.mu.Unlock()
	return f.handler(request)
}

func (f *fakeTransport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, notification)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTransport) SetProtocolVersion(version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.protocol = version
}

func (f *fakeTransport) calls(method string) []*jsonrpc.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ret []*jsonrpc.Request
	for _, request := range f.requests {
		if request.Method == method {
			ret = append(ret, request)
		}
	}
	return ret
}

func result(id jsonrpc.RequestId, payload string) *jsonrpc.Response {
	return &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: id, Result: json.RawMessage(payload)}
}

func rpcError(id jsonrpc.RequestId, code int, message, data string) *jsonrpc.Response {
	rpcErr := &jsonrpc.Error{Code: code, Message: message}
	if data != "" {
		rpcErr.Data = json.RawMessage(data)
	}
	return &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: id, Error: rpcErr}
}

// acceptingServer answers initialize with the offered version and serves the
// supplied method handlers afterwards.
func acceptingServer(handlers map[string]func(request *jsonrpc.Request) (*jsonrpc.Response, error)) *fakeTransport {
	fake := &fakeTransport{}
	fake.handler = func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
		if request.Method == schema.MethodInitialize {
			var params schema.InitializeRequestParams
			_ = json.Unmarshal(request.Params, &params)
			payload := fmt.Sprintf(`{"protocolVersion":%q,"capabilities":{},"serverInfo":{"name":"fake","version":"1.0"}}`, params.ProtocolVersion)
			return result(request.Id, payload), nil
		}
		if handle, ok := handlers[request.Method]; ok {
			return handle(request)
		}
		return rpcError(request.Id, jsonrpc.MethodNotFound, "no such method", ""), nil
	}
	return fake
}

func TestInitialize(t *testing.T) {
	fake := acceptingServer(nil)
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindStreamable))
	defer client.Close()

	ctx := context.Background()
	initResult, err := client.Initialize(ctx)
	assert.NoError(t, err)
	assert.Equal(t, schema.LatestProtocolVersion, initResult.ProtocolVersion)
	assert.Equal(t, "fake", initResult.ServerInfo.Name)
	assert.Equal(t, schema.LatestProtocolVersion, client.ProtocolVersion())
	assert.Equal(t, transport.KindStreamable, client.Kind())
	assert.Equal(t, StateNegotiated, client.NegotiationState())

	// The negotiated version is pushed down to the transport and the
	// initialized notification follows the handshake.
	assert.Equal(t, schema.LatestProtocolVersion, fake.protocol)
	if assert.Len(t, fake.notifications, 1) {
		assert.Equal(t, schema.MethodNotificationInitialized, fake.notifications[0].Method)
	}

	// A second Initialize is served from the cached handshake.
	again, err := client.Initialize(ctx)
	assert.NoError(t, err)
	assert.Same(t, initResult, again)
	assert.Len(t, fake.calls(schema.MethodInitialize), 1)
}

func TestNegotiateRetryOnce(t *testing.T) {
	fake := &fakeTransport{}
	fake.handler = func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
		var params schema.InitializeRequestParams
		_ = json.Unmarshal(request.Params, &params)
		if params.ProtocolVersion == "2025-03-26" {
			return result(request.Id, `{"protocolVersion":"2025-03-26","capabilities":{},"serverInfo":{"name":"fake","version":"1.0"}}`), nil
		}
		return rpcError(request.Id, jsonrpc.InvalidParams, "unsupported protocol version", `["2024-11-05","2025-03-26"]`), nil
	}
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindPost))
	defer client.Close()

	initResult, err := client.Initialize(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "2025-03-26", initResult.ProtocolVersion)
	assert.Equal(t, "2025-03-26", client.ProtocolVersion())
	assert.Equal(t, StateNegotiated, client.NegotiationState())

	// Exactly one retry: the rejected offer and the common-version offer.
	attempts := fake.calls(schema.MethodInitialize)
	if assert.Len(t, attempts, 2) {
		var first, second schema.InitializeRequestParams
		assert.NoError(t, json.Unmarshal(attempts[0].Params, &first))
		assert.NoError(t, json.Unmarshal(attempts[1].Params, &second))
		assert.Equal(t, schema.LatestProtocolVersion, first.ProtocolVersion)
		assert.Equal(t, "2025-03-26", second.ProtocolVersion)
	}
}

func TestNegotiateDisjointVersions(t *testing.T) {
	fake := &fakeTransport{}
	fake.handler = func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
		return rpcError(request.Id, jsonrpc.InvalidParams, "unsupported protocol version", `["1999-01-01"]`), nil
	}
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindPost))
	defer client.Close()

	_, err := client.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.Equal(t, StateFailed, client.NegotiationState())
	// No retry can help when the sets are disjoint.
	assert.Len(t, fake.calls(schema.MethodInitialize), 1)
	assert.Equal(t, 1, fake.closes)
}

func TestNegotiateNonVersionRejection(t *testing.T) {
	fake := &fakeTransport{}
	fake.handler = func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
		return rpcError(request.Id, jsonrpc.InvalidRequest, "authorization required", ""), nil
	}
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindPost))
	defer client.Close()

	_, err := client.Initialize(context.Background())
	// A rejection that names no versions surfaces verbatim, not as a
	// version mismatch, and earns no retry.
	var rpcErr *jsonrpc.Error
	if assert.ErrorAs(t, err, &rpcErr) {
		assert.Equal(t, jsonrpc.InvalidRequest, rpcErr.Code)
		assert.Contains(t, rpcErr.Message, "authorization required")
	}
	assert.NotErrorIs(t, err, ErrVersionMismatch)
	assert.Equal(t, StateFailed, client.NegotiationState())
	assert.Len(t, fake.calls(schema.MethodInitialize), 1)
}

func TestNegotiateSecondRejectionTerminal(t *testing.T) {
	fake := &fakeTransport{}
	fake.handler = func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
		return rpcError(request.Id, jsonrpc.InvalidParams, "unsupported protocol version", `["2025-03-26"]`), nil
	}
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindPost))
	defer client.Close()

	_, err := client.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.Equal(t, StateFailed, client.NegotiationState())
	// Never a third attempt.
	assert.Len(t, fake.calls(schema.MethodInitialize), 2)

	// The failure is cached; later operations fail without new attempts.
	_, err = client.ListTools(context.Background())
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.Len(t, fake.calls(schema.MethodInitialize), 2)
}

func TestListToolsPagination(t *testing.T) {
	pages := map[string]string{
		"":   `{"tools":[{"name":"a","inputSchema":{"type":"object"}},{"name":"b","inputSchema":{"type":"object"}}],"nextCursor":"p2"}`,
		"p2": `{"tools":[{"name":"c","inputSchema":{"type":"object"}},{"name":"d","inputSchema":{"type":"object"}}],"nextCursor":"p3"}`,
		"p3": `{"tools":[{"name":"e","inputSchema":{"type":"object"}}]}`,
	}
	fake := acceptingServer(map[string]func(request *jsonrpc.Request) (*jsonrpc.Response, error){
		schema.MethodToolsList: func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
			var params schema.ListToolsRequestParams
			_ = json.Unmarshal(request.Params, &params)
			cursor := ""
			if params.Cursor != nil {
				cursor = *params.Cursor
			}
			page, ok := pages[cursor]
			if !ok {
				return rpcError(request.Id, jsonrpc.InvalidParams, "bad cursor", ""), nil
			}
			return result(request.Id, page), nil
		},
	})
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindStreamable))
	defer client.Close()

	ctx := context.Background()
	tools, err := client.ListTools(ctx)
	assert.NoError(t, err)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)

	// The listing is repeatable and page order is preserved.
	again, err := client.ListTools(ctx)
	assert.NoError(t, err)
	assert.Equal(t, tools, again)
	assert.Len(t, fake.calls(schema.MethodToolsList), 6)
}

func TestListToolsRetriesTransient(t *testing.T) {
	attempts := 0
	fake := acceptingServer(map[string]func(request *jsonrpc.Request) (*jsonrpc.Response, error){
		schema.MethodToolsList: func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
			attempts++
			if attempts == 1 {
				return nil, &net.OpError{Op: "read", Err: fmt.Errorf("connection reset")}
			}
			return result(request.Id, `{"tools":[]}`), nil
		},
	})
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindPost))
	defer client.Close()

	tools, err := client.ListTools(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, tools)
	assert.Equal(t, 2, attempts)
}

func TestCallTool(t *testing.T) {
	fake := acceptingServer(map[string]func(request *jsonrpc.Request) (*jsonrpc.Response, error){
		schema.MethodToolsCall: func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
			var params schema.CallToolRequestParams
			assert.NoError(t, json.Unmarshal(request.Params, &params))
			assert.Equal(t, "getWeather", params.Name)
			assert.Equal(t, "Utrecht", params.Arguments["city"])
			return result(request.Id, `{"content":[{"type":"text","text":"sunny"}]}`), nil
		},
	})
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindStreamable))
	defer client.Close()

	callResult, err := client.CallTool(context.Background(), &schema.CallToolRequestParams{
		Name:      "getWeather",
		Arguments: map[string]any{"city": "Utrecht"},
	})
	assert.NoError(t, err)
	if assert.Len(t, callResult.Content, 1) {
		assert.Equal(t, "sunny", callResult.Content[0].Text)
	}
}

func TestCallToolNeverRetries(t *testing.T) {
	attempts := 0
	fake := acceptingServer(map[string]func(request *jsonrpc.Request) (*jsonrpc.Response, error){
		schema.MethodToolsCall: func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
			attempts++
			return nil, &net.OpError{Op: "write", Err: fmt.Errorf("broken pipe")}
		},
	})
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindPost))
	defer client.Close()

	_, err := client.CallTool(context.Background(), &schema.CallToolRequestParams{Name: "mutate"})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestCallToolError(t *testing.T) {
	fake := acceptingServer(map[string]func(request *jsonrpc.Request) (*jsonrpc.Response, error){
		schema.MethodToolsCall: func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
			return rpcError(request.Id, jsonrpc.InvalidParams, "missing required argument", ""), nil
		},
	})
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindStreamable))
	defer client.Close()

	_, err := client.CallTool(context.Background(), &schema.CallToolRequestParams{Name: "getWeather"})
	var invocationErr *ToolInvocationError
	if assert.ErrorAs(t, err, &invocationErr) {
		assert.Equal(t, "getWeather", invocationErr.Tool)
		assert.Equal(t, jsonrpc.InvalidParams, invocationErr.Code)
		assert.Contains(t, invocationErr.Error(), "missing required argument")
	}
}

func TestPing(t *testing.T) {
	fake := acceptingServer(map[string]func(request *jsonrpc.Request) (*jsonrpc.Response, error){
		schema.MethodPing: func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
			return result(request.Id, `{}`), nil
		},
	})
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindSSE))
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()))
}

func TestRequestIdsUnique(t *testing.T) {
	fake := acceptingServer(map[string]func(request *jsonrpc.Request) (*jsonrpc.Response, error){
		schema.MethodPing: func(request *jsonrpc.Request) (*jsonrpc.Response, error) {
			return result(request.Id, `{}`), nil
		},
	})
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindStreamable))
	defer client.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.NoError(t, client.Ping(ctx))
	}
	seen := map[string]bool{}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	for _, request := range fake.requests {
		key := conv.AsKey(request.Id)
		assert.False(t, seen[key], "duplicate request id %s", key)
		seen[key] = true
	}
}

func TestCloseIdempotent(t *testing.T) {
	fake := acceptingServer(nil)
	client := New("test", "0.1.0", StaticDialer(fake, transport.KindStreamable))
	_, err := client.Initialize(context.Background())
	assert.NoError(t, err)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.Equal(t, 1, fake.closes)
}

func TestCloseBeforeUse(t *testing.T) {
	client := New("test", "0.1.0", func(ctx context.Context) (transport.Transport, transport.Kind, error) {
		t.Fatal("dialer must not run after close")
		return nil, "", nil
	})
	assert.NoError(t, client.Close())
	_, err := client.Initialize(context.Background())
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestDialFailureCached(t *testing.T) {
	dials := 0
	client := New("test", "0.1.0", func(ctx context.Context) (transport.Transport, transport.Kind, error) {
		dials++
		return nil, "", transport.ErrTransportUnavailable
	})
	defer client.Close()

	_, err := client.ListTools(context.Background())
	assert.ErrorIs(t, err, transport.ErrTransportUnavailable)
	_, err = client.Initialize(context.Background())
	assert.ErrorIs(t, err, transport.ErrTransportUnavailable)
	assert.Equal(t, 1, dials)
}
