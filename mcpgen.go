package mcpgen

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mcpgen/mcpgen/client"
	"github.com/mcpgen/mcpgen/transport"
	"github.com/mcpgen/mcpgen/transport/post"
	"github.com/mcpgen/mcpgen/transport/sse"
	"github.com/mcpgen/mcpgen/transport/streamable"
)

// ClientOptions configures an MCP client. The struct tags let it be populated
// from CLI flags or configuration files alike.
type ClientOptions struct {
	Name            string            `yaml:"name" json:"name,omitempty" short:"n" long:"name" description:"client name"`
	Version         string            `yaml:"version,omitempty" json:"version,omitempty" long:"client-version" description:"client version"`
	URL             string            `yaml:"url" json:"url" short:"u" long:"url" description:"endpoint URL"`
	Transport       string            `yaml:"transport,omitempty" json:"transport,omitempty" short:"t" long:"transport" description:"force transport kind, skipping probing" choice:"streamable-http" choice:"sse" choice:"http-post"`
	ProtocolVersion string            `yaml:"protocol,omitempty" json:"protocol,omitempty" short:"p" long:"protocol" description:"protocol version offered first"`
	TimeoutSec      int               `yaml:"timeoutSec,omitempty" json:"timeoutSec,omitempty" long:"timeout" description:"per-call timeout in seconds"`
	Headers         map[string]string `yaml:"headers,omitempty" json:"headers,omitempty" short:"H" long:"header" description:"extra header, key:value"`
}

func (o *ClientOptions) init() {
	if o.Name == "" {
		o.Name = "mcpgen"
	}
	if o.Version == "" {
		o.Version = "0.1.0"
	}
}

func (o *ClientOptions) header() http.Header {
	ret := http.Header{}
	for key, value := range o.Headers {
		ret.Set(key, value)
	}
	return ret
}

// Timeout returns the configured per-call deadline, defaulting to 30s.
func (o *ClientOptions) Timeout() time.Duration {
	if o.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.TimeoutSec) * time.Second
}

// NewClient creates a client for the endpoint named by options. The transport
// is chosen by probing on first use unless options force a kind; caller
// headers pass through to the wire unmodified.
func NewClient(options *ClientOptions, clientOptions ...client.Option) (*client.Client, error) {
	if options == nil || options.URL == "" {
		return nil, fmt.Errorf("endpoint URL was empty")
	}
	options.init()
	headers := options.header()

	dialer := func(ctx context.Context) (transport.Transport, transport.Kind, error) {
		kind := transport.Kind(options.Transport)
		var target string
		if kind == "" {
			detected, resolved, err := DetectKind(ctx, options.URL, &ProbeOptions{Headers: headers})
			if err != nil {
				return nil, "", err
			}
			kind, target = detected, resolved
		} else {
			target = EndpointURL(kind, options.URL)
		}
		t, err := newTransport(ctx, kind, target, headers)
		if err != nil {
			return nil, "", err
		}
		return t, kind, nil
	}

	if options.ProtocolVersion != "" {
		clientOptions = append(clientOptions, client.WithProtocolVersion(options.ProtocolVersion))
	}
	return client.New(options.Name, options.Version, dialer, clientOptions...), nil
}

func newTransport(ctx context.Context, kind transport.Kind, target string, headers http.Header) (transport.Transport, error) {
	switch kind {
	case transport.KindStreamable:
		return streamable.New(ctx, target, streamable.WithHeaders(headers))
	case transport.KindSSE:
		return sse.New(ctx, target, sse.WithHeaders(headers))
	case transport.KindPost:
		return post.New(target, post.WithHeaders(headers)), nil
	}
	return nil, fmt.Errorf("unknown transport kind %q", kind)
}
