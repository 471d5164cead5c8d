package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBreaker(t *testing.T, cooldown time.Duration) *Breaker {
	t.Helper()
	cfg := DefaultBreakerConfig(t.Name())
	cfg.MinRequests = 3
	cfg.Cooldown = cooldown
	return NewBreaker(New(fastRetryConfig(0)), cfg, testLogger())
}

func get(t *testing.T, d Doer, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return d.Do(context.Background(), req)
}

// statusServer answers every request with the current status and counts hits.
func statusServer(t *testing.T, status *atomic.Int32, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"error":"Database connection failed"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBreaker_PassesThrough5xxBody(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := statusServer(t, &status, &hits)
	b := testBreaker(t, time.Minute)

	resp, err := get(t, b, srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Database connection failed")
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OpensAndStopsCalling(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusBadGateway)
	srv := statusServer(t, &status, &hits)
	b := testBreaker(t, time.Minute)

	for range 3 {
		resp, err := get(t, b, srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.Equal(t, gobreaker.StateOpen, b.State())

	for range 4 {
		_, err := get(t, b, srv.URL)
		assert.ErrorIs(t, err, ErrCircuitOpen)
	}
	assert.EqualValues(t, 3, hits.Load())
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := statusServer(t, &status, &hits)
	b := testBreaker(t, time.Minute)

	for range 10 {
		resp, err := get(t, b, srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_RecoversAfterCooldown(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := statusServer(t, &status, &hits)
	b := testBreaker(t, 100*time.Millisecond)

	for range 3 {
		resp, _ := get(t, b, srv.URL)
		if resp != nil {
			resp.Body.Close()
		}
	}
	require.Equal(t, gobreaker.StateOpen, b.State())

	status.Store(http.StatusOK)
	time.Sleep(150 * time.Millisecond)

	resp, err := get(t, b, srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_CancelledCallerIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	b := testBreaker(t, time.Minute)

	for range 5 {
		ctx, cancel := context.WithCancel(context.Background())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
		require.NoError(t, err)
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err = b.Do(ctx, req)
		assert.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestDefaultBreakerConfig(t *testing.T) {
	cfg := DefaultBreakerConfig("storefront-api")
	assert.Equal(t, "storefront-api", cfg.Name)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.Equal(t, 0.5, cfg.FailureRatio)
	assert.Equal(t, 15*time.Second, cfg.Cooldown)
}
