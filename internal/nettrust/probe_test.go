package nettrust

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProbeFor(t *testing.T, handler http.HandlerFunc) *HTTPProbe {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPProbe(srv.URL, 2*time.Second, discardLogger())
}

func TestHTTPProbe_DetectsProxyAndHosting(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		untrusted bool
	}{
		{"proxy flagged", `{"proxy":true,"hosting":false}`, true},
		{"hosting flagged", `{"proxy":false,"hosting":true}`, true},
		{"clean address", `{"proxy":false,"hosting":false}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			probe := newProbeFor(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "proxy,hosting", r.URL.Query().Get("fields"))
				_, _ = w.Write([]byte(tc.body))
			})
			assert.Equal(t, tc.untrusted, probe.IsUntrusted(context.Background(), "203.0.113.9"))
		})
	}
}

func TestHTTPProbe_FailsOpen(t *testing.T) {
	t.Run("malformed response", func(t *testing.T) {
		probe := newProbeFor(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		})
		assert.False(t, probe.IsUntrusted(context.Background(), "203.0.113.9"))
	})

	t.Run("error status", func(t *testing.T) {
		probe := newProbeFor(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		assert.False(t, probe.IsUntrusted(context.Background(), "203.0.113.9"))
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"proxy":true,"hosting":true}`))
		}))
		t.Cleanup(srv.Close)

		probe := NewHTTPProbe(srv.URL, time.Millisecond, discardLogger())
		assert.False(t, probe.IsUntrusted(context.Background(), "203.0.113.9"))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		probe := NewHTTPProbe("http://127.0.0.1:1", 100*time.Millisecond, discardLogger())
		assert.False(t, probe.IsUntrusted(context.Background(), "203.0.113.9"))
	})
}

func TestHTTPProbe_EmptyAddressIsTrusted(t *testing.T) {
	probe := NewHTTPProbe("http://127.0.0.1:1", time.Second, discardLogger())
	assert.False(t, probe.IsUntrusted(context.Background(), ""))
}

func TestHTTPProbe_CollapsesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	probe := newProbeFor(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"proxy":true,"hosting":false}`))
	})

	const n = 8
	var wg sync.WaitGroup
	results := make([]bool, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = probe.IsUntrusted(context.Background(), "198.51.100.7")
		}()
	}
	// Give the goroutines a moment to pile onto the singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.True(t, r)
	}
}
