package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcpgen/mcpgen/jsonrpc"
	"github.com/mcpgen/mcpgen/schema"
)

// ErrVersionMismatch is returned when client and server share no protocol
// version after the single negotiation retry.
var ErrVersionMismatch = errors.New("no common protocol version")

// NegotiationState tracks handshake progress. The state moves forward only:
// once NEGOTIATED or FAILED, it never changes for the client's lifetime.
type NegotiationState int32

const (
	StateUnnegotiated NegotiationState = iota
	StateNegotiating
	StateNegotiated
	StateFailed
)

func (s NegotiationState) String() string {
	switch s {
	case StateUnnegotiated:
		return "unnegotiated"
	case StateNegotiating:
		return "negotiating"
	case StateNegotiated:
		return "negotiated"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// NegotiationState reports where the handshake currently stands.
func (c *Client) NegotiationState() NegotiationState {
	return NegotiationState(c.state.Load())
}

// negotiate performs the initialize handshake. The first attempt offers the
// client's preferred version; if the server rejects it and enumerates its own
// supported versions, the highest version both sides speak is offered in
// exactly one retry. A second rejection, or a disjoint version set, is
// terminal.
func (c *Client) negotiate(ctx context.Context) error {
	c.state.Store(int32(StateNegotiating))

	result, rpcErr, err := c.initialize(ctx, c.offerVersion)
	if err != nil {
		c.state.Store(int32(StateUnnegotiated))
		return err
	}
	if rpcErr != nil {
		serverVersions := schema.ParseSupportedVersions(rpcErr.Data)
		if len(serverVersions) == 0 {
			// A rejection that enumerates no versions is not a version
			// dispute; surface the server's error as-is.
			c.state.Store(int32(StateFailed))
			return rpcErr
		}
		common := schema.HighestCommonVersion(serverVersions)
		if common == "" {
			c.state.Store(int32(StateFailed))
			return fmt.Errorf("%w: offered %s, server supports %v", ErrVersionMismatch, c.offerVersion, serverVersions)
		}
		c.logger.Debug().Str("offered", c.offerVersion).Str("retry", common).Msg("version rejected, retrying once")
		result, rpcErr, err = c.initialize(ctx, common)
		if err != nil {
			c.state.Store(int32(StateUnnegotiated))
			return err
		}
		if rpcErr != nil {
			c.state.Store(int32(StateFailed))
			return fmt.Errorf("%w: retry with %s rejected: %s", ErrVersionMismatch, common, rpcErr.Message)
		}
	}

	// The server's answer is recorded verbatim; it is the version the rest
	// of the session speaks.
	c.protocolVersion = result.ProtocolVersion
	c.initResult = result
	if setter, ok := c.transport.(protocolVersionSetter); ok {
		setter.SetProtocolVersion(result.ProtocolVersion)
	}
	if err := c.notifyInitialized(ctx); err != nil {
		c.state.Store(int32(StateUnnegotiated))
		return err
	}
	c.state.Store(int32(StateNegotiated))
	c.logger.Debug().Str("version", c.protocolVersion).Msg("negotiated")
	return nil
}

// initialize sends one handshake attempt. Protocol-level rejections come back
// as the middle return so the caller can distinguish a version dispute from a
// transport failure.
func (c *Client) initialize(ctx context.Context, version string) (*schema.InitializeResult, *jsonrpc.Error, error) {
	params := &schema.InitializeRequestParams{
		ProtocolVersion: version,
		Capabilities:    c.capabilities,
		ClientInfo:      c.info,
	}
	response, err := c.roundTrip(ctx, schema.MethodInitialize, params, retryOnce)
	if err != nil {
		return nil, nil, err
	}
	if response.Error != nil {
		return nil, response.Error, nil
	}
	var result schema.InitializeResult
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, nil, jsonrpc.NewInternalError(fmt.Sprintf("unmarshal initialize result: %v", err), nil)
	}
	return &result, nil, nil
}

func (c *Client) notifyInitialized(ctx context.Context) error {
	notification, err := jsonrpc.NewNotification(schema.MethodNotificationInitialized, nil)
	if err != nil {
		return err
	}
	return c.transport.Notify(ctx, notification)
}

// protocolVersionSetter is implemented by transports that replay the
// negotiated version as a header on subsequent requests.
type protocolVersionSetter interface {
	SetProtocolVersion(version string)
}
