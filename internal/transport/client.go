// Package transport builds the outbound HTTP clients roster uses to talk
// to backing services.
package transport

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// New returns an http.Client whose requests are traced at debug level.
// A zero timeout selects DefaultHTTPTimeout.
func New(timeout time.Duration, logger *zerolog.Logger) *http.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTracingTransport(http.DefaultTransport, logger),
	}
}

// TracingTransport logs each round trip.
type TracingTransport struct {
	base   http.RoundTripper
	logger *zerolog.Logger
}

// NewTracingTransport wraps base; a nil base uses http.DefaultTransport.
func NewTracingTransport(base http.RoundTripper, logger *zerolog.Logger) *TracingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &TracingTransport{base: base, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *TracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	event := t.logger.Debug()
	if err != nil {
		event = t.logger.Warn().Err(err)
	}
	event = event.
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Dur("duration_ms", time.Since(start))
	if resp != nil {
		event = event.Int("status", resp.StatusCode)
	}
	event.Msg("Outbound request")

	return resp, err
}
