package oauth

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/louisbranch/oauthlogin/internal/platform/timeouts"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrClientClosed is returned by requests issued after Close.
var ErrClientClosed = errors.New("oauth: http client closed")

// Doer issues outbound HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient is the process-wide client for provider calls. It is created
// once at startup and closed once at shutdown.
type HTTPClient struct {
	client    *http.Client
	transport *http.Transport
	closed    atomic.Bool
}

// NewHTTPClient builds a traced client whose requests are bounded by timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = timeouts.ProviderRequest
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &HTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		transport: transport,
	}
}

// Do sends req unless the client was closed.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	return c.client.Do(req)
}

// Close releases pooled connections. Later calls are no-ops.
func (c *HTTPClient) Close() error {
	if c == nil || c.closed.Swap(true) {
		return nil
	}
	c.transport.CloseIdleConnections()
	return nil
}

// Closed reports whether Close was called.
func (c *HTTPClient) Closed() bool {
	return c != nil && c.closed.Load()
}
