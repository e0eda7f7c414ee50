// Package client implements a high-level client for MCP tool servers.
//
// A Client owns one endpoint: the wire transport chosen by probing and the
// protocol version agreed during the initialize handshake. Both are decided
// lazily on the first operation and cached for the client's lifetime; two
// clients for the same endpoint probe and negotiate independently.
//
// Example:
//
//	cli := client.New("demo", "1.0", dialer)
//	defer cli.Close()
//	tools, _ := cli.ListTools(ctx)
//	result, _ := cli.CallTool(ctx, &schema.CallToolRequestParams{Name: tools[0].Name})
package client
