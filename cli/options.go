package cli

import (
	"os"
	"strconv"
	"time"
)

// Options carries flags shared by every command.
type Options struct {
	Verbose bool `short:"v" long:"verbose" description:"enable debug logging"`

	Ls     LsCmd     `command:"ls" description:"list tools exposed by an MCP server"`
	Gen    GenCmd    `command:"gen" description:"generate Go stubs from an MCP server"`
	Call   CallCmd   `command:"call" description:"call a tool directly"`
	Search SearchCmd `command:"search" description:"search generated tool stubs"`
	Run    RunCmd    `command:"run" description:"execute agent code under resource limits"`
}

// endpointOptions are shared by commands that talk to a server.
type endpointOptions struct {
	URL        string            `short:"u" long:"url" description:"MCP server URL" required:"true"`
	Transport  string            `short:"t" long:"transport" description:"force transport kind" choice:"streamable-http" choice:"sse" choice:"http-post"`
	Header     map[string]string `short:"H" long:"header" description:"extra header as key:value"`
	Timeout    int               `long:"timeout" description:"request timeout in seconds"`
	AllowLocal bool              `long:"allow-local" description:"allow plain-http and private endpoints"`
}

// envSeconds reads a float seconds value from the environment, falling back
// to def. Timeout knobs are env-tunable so slow servers don't need flag
// changes in every invocation.
func envSeconds(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return def
	}
	return time.Duration(seconds * float64(time.Second))
}
