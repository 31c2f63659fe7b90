package api

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
)

type TransportOptions struct {
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
	// Breaker enables the fail-fast transport when non-nil.
	Breaker *circuitbreaker.Settings
}

// NewHTTPClient builds the client used by Client: otelhttp tracing outermost,
// then the optional circuit breaker, then the default transport.
func NewHTTPClient(opts TransportOptions) *http.Client {
	var rt http.RoundTripper = http.DefaultTransport
	if opts.Breaker != nil {
		rt = circuitbreaker.NewTransport(rt, *opts.Breaker)
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: otelhttp.NewTransport(rt),
	}
}
