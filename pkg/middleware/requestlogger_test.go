package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinloleng/ecommerce/pkg/logger"
)

func newTestLogger(w *bytes.Buffer) *slog.Logger {
	return logger.NewWithWriter("test-svc", "info", w)
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var out map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestRequestLogger_EnrichesWithCorrelationAndShopper(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf)

	chain := RequestLogging(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(
		Shopper(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).InfoContext(r.Context(), "handler log")
		}))),
	)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Correlation-ID", "corr-9")
	req.Header.Set(HeaderUserID, "12")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	out := lastLine(t, &buf)
	assert.Equal(t, "corr-9", out["correlation_id"])
	assert.Equal(t, float64(12), out["user_id"])
	assert.Equal(t, "corr-9", rec.Header().Get("X-Correlation-ID"))
}

func TestRequestLogger_NoShopper_OmitsUserID(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("anonymous")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products", nil))

	out := lastLine(t, &buf)
	_, ok := out["user_id"]
	assert.False(t, ok)
}

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogging(newTestLogger(&buf))(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/storefront/cart", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
	out := lastLine(t, &buf)
	assert.Equal(t, "INFO", out["level"])
	assert.Equal(t, float64(200), out["status"])
}

func TestRequestLogging_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/storefront/cart", nil))

	assert.Equal(t, "ERROR", lastLine(t, &buf)["level"])
}

func TestRequestLogging_SkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogging(newTestLogger(&buf))(okHandler)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Zero(t, buf.Len())
}

func TestRecovery_Returns500Envelope(t *testing.T) {
	var buf bytes.Buffer
	handler := Recovery(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("selection out of sync")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.Contains(t, buf.String(), "panic recovered")
}
