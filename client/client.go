package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/mcpgen/mcpgen/jsonrpc"
	"github.com/mcpgen/mcpgen/schema"
	"github.com/mcpgen/mcpgen/transport"
)

// Dialer establishes the wire transport for one endpoint. It is invoked at
// most once per Client, on first use.
type Dialer func(ctx context.Context) (transport.Transport, transport.Kind, error)

// StaticDialer wraps an already constructed transport, bypassing probing.
func StaticDialer(t transport.Transport, kind transport.Kind) Dialer {
	return func(ctx context.Context) (transport.Transport, transport.Kind, error) {
		return t, kind, nil
	}
}

// Client is the façade over one MCP endpoint. It owns the probed transport
// and the negotiated protocol version for its lifetime; both are decided
// lazily on the first operation and never change afterwards.
type Client struct {
	info         schema.Implementation
	capabilities schema.ClientCapabilities
	offerVersion string
	dialer       Dialer
	logger       zerolog.Logger

	initOnce sync.Once
	initErr  error

	transport transport.Transport
	kind      transport.Kind

	state           atomic.Int32
	protocolVersion string
	initResult      *schema.InitializeResult

	seq       atomic.Int64
	closeOnce sync.Once
	closed    atomic.Bool
}

// New creates a client for the endpoint behind dialer. Nothing touches the
// network until the first operation.
func New(name, version string, dialer Dialer, options ...Option) *Client {
	ret := &Client{
		info:   *schema.NewImplementation(name, version),
		dialer: dialer,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.offerVersion == "" {
		ret.offerVersion = schema.LatestProtocolVersion
	}
	return ret
}

// ensureReady dials and negotiates on first use. Concurrent first callers
// share one attempt and its outcome; a failed probe or negotiation is cached
// as fatal for the client's lifetime.
func (c *Client) ensureReady(ctx context.Context) error {
	c.initOnce.Do(func() {
		if c.closed.Load() {
			c.initErr = transport.ErrClosed
			return
		}
		c.transport, c.kind, c.initErr = c.dialer(ctx)
		if c.initErr != nil {
			return
		}
		c.logger.Debug().Str("kind", string(c.kind)).Msg("transport established")
		if c.initErr = c.negotiate(ctx); c.initErr != nil {
			_ = c.transport.Close()
		}
	})
	return c.initErr
}

// Initialize forces the lazy handshake and returns the server's half of it.
func (c *Client) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	return c.initResult, nil
}

// ListTools returns every tool the endpoint advertises, following
// continuation cursors until the listing is exhausted and concatenating
// pages in server order. The operation is idempotent; each page gets one
// automatic retry on transient network failure.
func (c *Client) ListTools(ctx context.Context) ([]schema.Tool, error) {
	var tools []schema.Tool
	var cursor *string
	for {
		page, err := c.ListToolsPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		tools = append(tools, page.Tools...)
		if page.NextCursor == nil || *page.NextCursor == "" {
			return tools, nil
		}
		cursor = page.NextCursor
	}
}

// ListToolsPage fetches a single page of the tool listing.
func (c *Client) ListToolsPage(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	params := &schema.ListToolsRequestParams{Cursor: cursor}
	return send[schema.ListToolsRequestParams, schema.ListToolsResult](ctx, c, schema.MethodToolsList, params, retryOnce)
}

// CallTool invokes a remote tool. Invocations are not assumed idempotent and
// are never retried; a protocol-level error surfaces as ToolInvocationError
// with the endpoint's code and message.
func (c *Client) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	result, err := send[schema.CallToolRequestParams, schema.CallToolResult](ctx, c, schema.MethodToolsCall, params, retryNever)
	if err != nil {
		if rpcErr, ok := err.(*jsonrpc.Error); ok {
			return nil, &ToolInvocationError{Tool: params.Name, Code: rpcErr.Code, Message: rpcErr.Message, Data: rpcErr.Data}
		}
		return nil, err
	}
	return result, nil
}

// Ping checks endpoint liveness over the established transport.
func (c *Client) Ping(ctx context.Context) error {
	_, err := send[schema.PingRequestParams, schema.PingResult](ctx, c, schema.MethodPing, &schema.PingRequestParams{}, retryNever)
	return err
}

// Kind reports the probed transport kind, or "" before first use.
func (c *Client) Kind() transport.Kind {
	return c.kind
}

// ProtocolVersion reports the negotiated version, or "" before first use.
func (c *Client) ProtocolVersion() string {
	return c.protocolVersion
}

// Close releases the streaming session, if one was ever opened. Idempotent
// and safe on a client that never dialed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.transport != nil {
			err = c.transport.Close()
		}
	})
	return err
}

const (
	retryNever = false
	retryOnce  = true
)

// roundTrip assigns the next request id and sends. With retry enabled,
// transient network failures get exactly one more attempt; protocol errors
// and malformed bodies never do.
func (c *Client) roundTrip(ctx context.Context, method string, params any, retry bool) (*jsonrpc.Response, error) {
	request, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return nil, jsonrpc.NewInvalidRequest(err.Error(), nil)
	}
	request.Id = c.seq.Add(1)
	if !retry {
		return c.transport.Send(ctx, request)
	}
	var response *jsonrpc.Response
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	err = backoff.Retry(func() error {
		sent, sendErr := c.transport.Send(ctx, request)
		if sendErr != nil {
			if transport.IsTransient(sendErr) {
				c.logger.Debug().Str("method", method).Err(sendErr).Msg("transient failure, retrying")
				return sendErr
			}
			return backoff.Permanent(sendErr)
		}
		response = sent
		return nil
	}, policy)
	return response, err
}

func send[P any, R any](ctx context.Context, c *Client, method string, params *P, retry bool) (*R, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	response, err := c.roundTrip(ctx, method, params, retry)
	if err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, response.Error
	}
	var result R
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, jsonrpc.NewInternalError(fmt.Sprintf("unmarshal %v result: %v", method, err), nil)
	}
	return &result, nil
}

// ToolInvocationError carries the endpoint's protocol-level error for a
// tools/call request.
type ToolInvocationError struct {
	Tool    string
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %q failed: %s (code %d)", e.Tool, e.Message, e.Code)
}
