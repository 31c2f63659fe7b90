package backend

import (
	"net/http"
	"sync"
	"time"
)

type fault struct {
	status int
	body   string
}

// faults holds per-route failure injection and hit counters.
type faults struct {
	mu      sync.Mutex
	failing map[string]fault
	delays  map[string]time.Duration
	counts  map[string]int
}

func newFaults() *faults {
	return &faults{
		failing: make(map[string]fault),
		delays:  make(map[string]time.Duration),
		counts:  make(map[string]int),
	}
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (f *faults) fail(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[routeKey(method, path)] = fault{status: status, body: body}
}

func (f *faults) delay(method, path string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[routeKey(method, path)] = d
}

func (f *faults) heal(method, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failing, routeKey(method, path))
	delete(f.delays, routeKey(method, path))
}

func (f *faults) hits(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[routeKey(method, path)]
}

func (f *faults) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r.Method, r.URL.Path)

		f.mu.Lock()
		f.counts[key]++
		ft, failing := f.failing[key]
		d := f.delays[key]
		f.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			w.WriteHeader(ft.status)
			_, _ = w.Write([]byte(ft.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}
