package schema

const (
	MethodInitialize              = "initialize"
	MethodPing                    = "ping"
	MethodToolsList               = "tools/list"
	MethodToolsCall               = "tools/call"
	MethodNotificationInitialized = "notifications/initialized"
	MethodNotificationProgress    = "notifications/progress"
	MethodNotificationMessage     = "notifications/message"
)

// HTTP headers carrying MCP session and version state across requests.
const (
	HeaderSessionId       = "Mcp-Session-Id"
	HeaderProtocolVersion = "MCP-Protocol-Version"
)
