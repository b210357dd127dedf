package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// defaultMaxBodySize caps response bodies at 10MB to prevent memory
// exhaustion from oversized pages.
const defaultMaxBodySize = 10 * 1024 * 1024

// Transport issues the actual network request. It is injected into the
// Client so tests and alternative transports (proxied clients, recorded
// fixtures) can stand in for the real network.
type Transport interface {
	// Fetch issues a GET for rawURL with the given request headers and
	// returns the status code and the body stream. The caller closes
	// the body. A non-nil error means the request itself failed; status
	// handling is the caller's concern.
	Fetch(ctx context.Context, rawURL string, headers map[string]string) (int, io.ReadCloser, error)
}

// HTTPTransport is the standard Transport over net/http.
//
// The http.Client is supplied by the caller so proxy and TLS
// configuration stay outside this package. No timeout is applied here;
// a client that should time out must carry its own.
type HTTPTransport struct {
	client      *http.Client
	maxBodySize int64
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithMaxBodySize sets the maximum number of body bytes read per
// response. Default is 10MB.
func WithMaxBodySize(size int64) TransportOption {
	return func(t *HTTPTransport) {
		t.maxBodySize = size
	}
}

// NewHTTPTransport creates a Transport over the given HTTP client.
func NewHTTPTransport(client *http.Client, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client:      client,
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fetch implements Transport.
func (t *HTTPTransport) Fetch(ctx context.Context, rawURL string, headers map[string]string) (int, io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}

	return resp.StatusCode, &limitedBody{
		Reader: io.LimitReader(resp.Body, t.maxBodySize),
		body:   resp.Body,
	}, nil
}

// limitedBody caps reads at the transport's body limit while closing
// the underlying response body.
type limitedBody struct {
	io.Reader
	body io.Closer
}

// Close closes the underlying response body.
func (l *limitedBody) Close() error {
	return l.body.Close()
}
