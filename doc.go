// Package mcpgen turns remote MCP tool servers into importable Go stubs.
//
// The package glues the protocol client under client/ and the wire transports
// under transport/ with endpoint probing and convenience configuration. Its
// primary entry point is NewClient, which returns a lazily connecting client:
// the first ListTools or CallTool probes the endpoint for the transport it
// supports (streamable-http, then SSE, then plain HTTP-POST), negotiates a
// protocol version, and caches both for the client's lifetime.
//
// The sibling packages codegen, skill, search and runner consume that client
// to generate stub modules, emit skill files, search generated trees, and run
// generated code in a sandbox.
//
// Example:
//
//	cli, _ := mcpgen.NewClient(&mcpgen.ClientOptions{URL: "https://mcp.example.com"})
//	defer cli.Close()
//	tools, _ := cli.ListTools(ctx)
package mcpgen
