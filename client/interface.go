package client

import (
	"context"

	"github.com/mcpgen/mcpgen/schema"
)

// Interface defines the client surface for all exported operations.
type Interface interface {
	// Initialize forces the lazy handshake and returns the server's half of it
	Initialize(ctx context.Context) (*schema.InitializeResult, error)

	// ListTools returns the endpoint's full tool listing across all pages
	ListTools(ctx context.Context) ([]schema.Tool, error)

	// ListToolsPage fetches a single page of the tool listing
	ListToolsPage(ctx context.Context, cursor *string) (*schema.ListToolsResult, error)

	// CallTool invokes a remote tool
	CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error)

	// Ping checks endpoint liveness
	Ping(ctx context.Context) error

	// Close releases any open streaming session
	Close() error
}

// Ensure Client implements Interface
var _ Interface = (*Client)(nil)
