package circuitbreaker

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransport_OpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	base := roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})
	tr := NewTransport(base, Settings{Name: "test", ConsecutiveFailures: 2, Cooldown: time.Minute})
	req := httptest.NewRequest(http.MethodGet, "http://example.invalid/", nil)

	for i := 0; i < 2; i++ {
		_, err := tr.RoundTrip(req)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrOpen)
	}
	assert.Equal(t, "open", tr.State())

	_, err := tr.RoundTrip(req)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 2, calls, "open breaker must not reach the base transport")
}

func TestTransport_HTTPErrorsAreNotFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewTransport(nil, Settings{Name: "test", ConsecutiveFailures: 1})
	client := &http.Client{Transport: tr}

	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	assert.Equal(t, "closed", tr.State())
}
