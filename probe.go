package mcpgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcpgen/mcpgen/jsonrpc"
	"github.com/mcpgen/mcpgen/schema"
	"github.com/mcpgen/mcpgen/transport"
)

const (
	defaultConnectTimeout = 1500 * time.Millisecond
	defaultReadTimeout    = 400 * time.Millisecond

	pathStreamable = "/mcp"
	pathSSE        = "/sse"
)

// postProbeStatuses are statuses a JSON-RPC endpoint plausibly returns to an
// unauthenticated initialize POST. Anything else means "not this transport".
var postProbeStatuses = map[int]bool{
	http.StatusOK:                   true,
	http.StatusBadRequest:           true,
	http.StatusUnauthorized:         true,
	http.StatusForbidden:            true,
	http.StatusUnsupportedMediaType: true,
	http.StatusUnprocessableEntity:  true,
}

// ProbeOptions bounds transport reconnaissance. Probes are deliberately
// impatient: a candidate that cannot answer headers within ReadTimeout is
// skipped rather than waited on.
type ProbeOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Headers        http.Header
	HTTPClient     *http.Client
}

func (o *ProbeOptions) init() {
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = defaultReadTimeout
	}
}

func (o *ProbeOptions) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: o.ConnectTimeout}).DialContext,
			TLSHandshakeTimeout:   o.ConnectTimeout,
			ResponseHeaderTimeout: o.ReadTimeout,
		},
	}
}

// DetectKind probes the endpoint for the transports it supports and returns
// the first candidate, in priority order, that answers its reconnaissance
// request, together with the resolved URL for that transport. Individual
// candidate failures are non-fatal; only exhaustion of all candidates
// surfaces as ErrTransportUnavailable.
func DetectKind(ctx context.Context, endpoint string, options *ProbeOptions) (transport.Kind, string, error) {
	if options == nil {
		options = &ProbeOptions{}
	}
	options.init()
	httpClient := options.client()
	logger := zerolog.Ctx(ctx)

	var errs []error
	for _, kind := range transport.Kinds() {
		target := EndpointURL(kind, endpoint)
		ok, err := probeKind(ctx, httpClient, kind, target, options.Headers)
		if ok {
			logger.Debug().Str("kind", string(kind)).Str("url", target).Msg("transport detected")
			return kind, target, nil
		}
		logger.Debug().Str("kind", string(kind)).Str("url", target).Err(err).Msg("probe rejected")
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	return "", "", fmt.Errorf("%w: %s: %v", transport.ErrTransportUnavailable, endpoint, errors.Join(errs...))
}

// EndpointURL resolves the transport-specific URL for a base endpoint. A URL
// that already names a path is used verbatim; only bare host URLs get the
// transport's well-known path appended.
func EndpointURL(kind transport.Kind, endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return endpoint
	}
	switch kind {
	case transport.KindSSE:
		parsed.Path = pathSSE
	default:
		parsed.Path = pathStreamable
	}
	return parsed.String()
}

func probeKind(ctx context.Context, httpClient *http.Client, kind transport.Kind, target string, headers http.Header) (bool, error) {
	switch kind {
	case transport.KindStreamable, transport.KindSSE:
		return probeStream(ctx, httpClient, target, headers)
	case transport.KindPost:
		return probeInitialize(ctx, httpClient, target, headers)
	}
	return false, fmt.Errorf("unknown transport kind %q", kind)
}

// probeStream issues a header-only request asking for an event stream. A 2xx
// or an event-stream content-type selects the kind; a 405 retries once with
// GET for servers that refuse HEAD outright.
func probeStream(ctx context.Context, httpClient *http.Client, target string, headers http.Header) (bool, error) {
	ok, status, err := headRecon(ctx, httpClient, http.MethodHead, target, headers)
	if ok {
		return true, nil
	}
	if status == http.StatusMethodNotAllowed {
		ok, _, err = headRecon(ctx, httpClient, http.MethodGet, target, headers)
		return ok, err
	}
	return false, err
}

func headRecon(ctx context.Context, httpClient *http.Client, method, target string, headers http.Header) (bool, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return false, 0, err
	}
	applyHeaders(req, headers)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := httpClient.Do(req)
	if err != nil {
		return false, 0, err
	}
	defer resp.Body.Close()
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/event-stream") {
		return true, resp.StatusCode, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, resp.StatusCode, nil
	}
	return false, resp.StatusCode, fmt.Errorf("recon status %d", resp.StatusCode)
}

// probeInitialize sends a real initialize request, the lightest check the
// plain POST transport admits. Any well-formed JSON-RPC response, including a
// protocol-level error, proves the endpoint speaks JSON-RPC over POST.
func probeInitialize(ctx context.Context, httpClient *http.Client, target string, headers http.Header) (bool, error) {
	request, err := jsonrpc.NewRequest(schema.MethodInitialize, &schema.InitializeRequestParams{
		ProtocolVersion: schema.LatestProtocolVersion,
		Capabilities:    schema.ClientCapabilities{},
		ClientInfo:      schema.Implementation{Name: "mcpgen-probe", Version: "0.0.0"},
	})
	if err != nil {
		return false, err
	}
	request.Id = 0
	data, err := json.Marshal(request)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	applyHeaders(req, headers)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var response jsonrpc.Response
	if json.Unmarshal(body, &response) == nil && (response.Result != nil || response.Error != nil) {
		return true, nil
	}
	if postProbeStatuses[resp.StatusCode] {
		return true, nil
	}
	return false, fmt.Errorf("probe status %d", resp.StatusCode)
}

func applyHeaders(req *http.Request, headers http.Header) {
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
}
