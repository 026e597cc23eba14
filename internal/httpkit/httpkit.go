// Package httpkit builds the HTTP clients used for every outbound call:
// the room API, the webhook and the status probes share one transport with
// explicit dial, TLS and header timeouts.
package httpkit

import (
	"net"
	"net/http"
	"time"

	"github.com/oshokin/room-monitor/internal/version"
)

// Default timeouts and connection pool limits for the shared transport.
const (
	// DefaultDialTimeout is the maximum time to establish a TCP connection.
	DefaultDialTimeout = 10 * time.Second
	// DefaultKeepAlive is the interval between TCP keep-alive probes.
	DefaultKeepAlive = 30 * time.Second
	// DefaultTLSHandshakeTimeout is the maximum time for the TLS handshake.
	DefaultTLSHandshakeTimeout = 10 * time.Second
	// DefaultResponseHeader is how long to wait for response headers.
	DefaultResponseHeader = 15 * time.Second
	// DefaultIdleConnTimeout is how long idle connections stay pooled.
	DefaultIdleConnTimeout = 90 * time.Second
	// DefaultMaxIdleConnsPerHost is the per-host idle connection limit.
	DefaultMaxIdleConnsPerHost = 4
)

// NewTransport creates an http.Transport with explicit timeouts.
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultDialTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: DefaultResponseHeader,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
		ForceAttemptHTTP2:     true,
	}
}

// NewClient returns a client with the shared transport, the given overall
// timeout and a User-Agent naming this build.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base:      NewTransport(),
			userAgent: UserAgent(),
		},
	}
}

// UserAgent returns the User-Agent sent on outbound requests.
func UserAgent() string {
	return version.UserAgent()
}

// userAgentTransport sets the User-Agent header when the caller did not.
type userAgentTransport struct {
	// base performs the actual round trip.
	base http.RoundTripper
	// userAgent is the header value.
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}

	cloned := req.Clone(req.Context())
	cloned.Header.Set("User-Agent", t.userAgent)

	return t.base.RoundTrip(cloned)
}
