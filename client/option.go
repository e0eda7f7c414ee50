package client

import (
	"github.com/rs/zerolog"

	"github.com/mcpgen/mcpgen/schema"
)

// Option represents a client option.
type Option func(c *Client)

// WithCapabilities sets the capabilities advertised during initialize.
func WithCapabilities(capabilities schema.ClientCapabilities) Option {
	return func(c *Client) {
		c.capabilities = capabilities
	}
}

// WithProtocolVersion overrides the version offered on the first initialize
// attempt; by default the latest supported revision is offered.
func WithProtocolVersion(version string) Option {
	return func(c *Client) {
		c.offerVersion = version
	}
}

// WithLogger attaches a structured logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}
