package cli

import (
	"fmt"
	"net"
	"net/url"
)

// validateURL rejects endpoints that are neither https nor explicitly
// allowed: plain http, loopback, and private addresses need the
// --allow-local escape hatch. Forcing a transport implies a deliberate local
// setup and relaxes the loopback check.
func validateURL(endpoint string, allowLocal, explicitTransport bool) error {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", endpoint, err)
	}
	switch parsed.Scheme {
	case "https":
		return nil
	case "http":
	default:
		return fmt.Errorf("URL scheme %q not supported, use http:// or https://", parsed.Scheme)
	}
	if allowLocal || explicitTransport {
		return nil
	}
	host := parsed.Hostname()
	if host == "localhost" {
		return fmt.Errorf("local URLs not allowed, use --allow-local to override")
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsPrivate()) {
		return fmt.Errorf("private address %s not allowed, use --allow-local to override", host)
	}
	return fmt.Errorf("plain http to %s not allowed, use --allow-local to override", host)
}
