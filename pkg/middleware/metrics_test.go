package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric extracts the metric whose labels include all of labels.
func collectMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		match := true
		for k, v := range labels {
			found := false
			for _, lp := range d.GetLabel() {
				if lp.GetName() == k && lp.GetValue() == v {
					found = true
					break
				}
			}
			if !found {
				match = false
				break
			}
		}
		if match {
			return d
		}
	}
	return nil
}

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-route-svc"))
	r.Put("/cart/items/{itemID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/cart/items/"+id, nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
	}

	labels := map[string]string{"service": "metrics-route-svc", "method": "PUT", "path": "/cart/items/{itemID}", "status": "409"}
	m := collectMetric(t, httpRequestsTotal, labels)
	require.NotNil(t, m)
	assert.Equal(t, float64(3), m.GetCounter().GetValue())

	h := collectMetric(t, httpRequestDuration, labels)
	require.NotNil(t, h)
	assert.Equal(t, uint64(3), h.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_DefaultStatusIs200(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-default-svc"))
	r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products", nil))

	m := collectMetric(t, httpRequestsTotal, map[string]string{"service": "metrics-default-svc", "status": "200"})
	require.NotNil(t, m)
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	var during float64
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-inflight-svc"))
	r.Get("/cart", func(w http.ResponseWriter, r *http.Request) {
		during = collectMetric(t, httpRequestsInFlight, map[string]string{"service": "metrics-inflight-svc"}).GetGauge().GetValue()
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart", nil))

	after := collectMetric(t, httpRequestsInFlight, map[string]string{"service": "metrics-inflight-svc"})
	assert.Equal(t, float64(1), during)
	assert.Equal(t, float64(0), after.GetGauge().GetValue())
}
