// Package circuitbreaker wraps an http.RoundTripper so that repeated transport
// failures make further requests fail fast until a cooldown has elapsed.
package circuitbreaker

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrOpen is returned (wrapped) while the breaker rejects requests.
var ErrOpen = errors.New("circuit breaker is open")

type Settings struct {
	Name string
	// ConsecutiveFailures trips the breaker. Zero means 5.
	ConsecutiveFailures uint32
	// Cooldown is how long the breaker stays open. Zero means 30s.
	Cooldown time.Duration
	Logger   *slog.Logger
}

// Transport only counts transport errors as failures; any HTTP response,
// whatever its status, is a success from the breaker's point of view.
type Transport struct {
	base http.RoundTripper
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

func NewTransport(base http.RoundTripper, s Settings) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.Cooldown == 0 {
		s.Cooldown = 30 * time.Second
	}
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}

	threshold := s.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &Transport{base: base, cb: cb}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.cb.Execute(func() (*http.Response, error) {
		return t.base.RoundTrip(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrOpen, err.Error())
	}
	return resp, err
}

// State is the breaker state name: "closed", "half-open" or "open".
func (t *Transport) State() string {
	return t.cb.State().String()
}
