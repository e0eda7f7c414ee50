// Package schema defines the MCP wire data model used by the client: the
// initialize handshake, tool discovery and tool invocation payloads.
package schema

import "encoding/json"

// Implementation identifies a client or server to its peer.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NewImplementation creates an implementation with the supplied name and version.
func NewImplementation(name, version string) *Implementation {
	return &Implementation{Name: name, Version: version}
}

// ClientCapabilities advertises optional client features during initialize.
type ClientCapabilities struct {
	Experimental map[string]any `json:"experimental,omitempty"`
	Roots        map[string]any `json:"roots,omitempty"`
	Sampling     map[string]any `json:"sampling,omitempty"`
}

// ServerCapabilities mirrors the server side of the capability exchange.
type ServerCapabilities struct {
	Experimental map[string]any `json:"experimental,omitempty"`
	Logging      map[string]any `json:"logging,omitempty"`
	Prompts      map[string]any `json:"prompts,omitempty"`
	Resources    map[string]any `json:"resources,omitempty"`
	Tools        map[string]any `json:"tools,omitempty"`
}

// InitializeRequestParams is the payload of the initialize handshake.
type InitializeRequestParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the server's half of the handshake. ProtocolVersion is
// recorded verbatim, it is the version the rest of the session speaks.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    *string            `json:"instructions,omitempty"`
}

// ToolInputSchema is the JSON schema describing a tool's parameters.
type ToolInputSchema struct {
	Type       string                     `json:"type"`
	Properties map[string]json.RawMessage `json:"properties,omitempty"`
	Required   []string                   `json:"required,omitempty"`
}

// Tool describes one remotely invocable tool.
type Tool struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ListToolsRequestParams optionally carries a continuation cursor.
type ListToolsRequestParams struct {
	Cursor *string `json:"cursor,omitempty"`
}

// ListToolsResult is one page of the tool listing.
type ListToolsResult struct {
	Tools      []Tool  `json:"tools"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// CallToolRequestParams names the tool and supplies its arguments.
type CallToolRequestParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResultContentElem is one content element of a tool result.
type CallToolResultContentElem struct {
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// CallToolResult is the raw outcome of a tool invocation.
type CallToolResult struct {
	Content []CallToolResultContentElem `json:"content,omitempty"`
	IsError *bool                       `json:"isError,omitempty"`
}

// PingRequestParams is empty; ping carries no arguments.
type PingRequestParams struct{}

// PingResult is empty; a ping succeeds by arriving.
type PingResult struct{}

// NewCallToolRequestParams builds call params by round-tripping a typed
// command through JSON into the arguments map.
func NewCallToolRequestParams[T any](name string, cmd *T) (*CallToolRequestParams, error) {
	result := &CallToolRequestParams{Name: name, Arguments: map[string]any{}}
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(data, &result.Arguments); err != nil {
		return nil, err
	}
	return result, nil
}
