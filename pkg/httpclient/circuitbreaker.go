package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig controls when a Breaker opens and how it probes for recovery.
type BreakerConfig struct {
	// Name labels the breaker in logs and metrics.
	Name string

	// Probes is how many requests may run while half-open.
	Probes uint32

	// Window clears the failure counts while closed. Zero never clears them.
	Window time.Duration

	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration

	// FailureRatio of failed to total requests opens the breaker once
	// MinRequests have been seen in the window.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns the breaker settings used for the storefront API.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		Probes:       1,
		Window:       time.Minute,
		Cooldown:     15 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrCircuitOpen is returned without contacting the upstream while the breaker
// is open or its half-open probes are all in flight.
var ErrCircuitOpen = gobreaker.ErrOpenState

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_api_breaker_state",
			Help: "Breaker state per upstream (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	breakerRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_breaker_rejected_total",
			Help: "Requests refused because the breaker was open",
		},
		[]string{"name"},
	)
)

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// upstreamFailure carries a 5xx response through the breaker so it counts as a
// failure while the caller still gets the body with the API's message.
type upstreamFailure struct {
	resp *http.Response
}

func (e *upstreamFailure) Error() string {
	return fmt.Sprintf("upstream answered %d", e.resp.StatusCode)
}

// Breaker is a Doer that stops calling a failing upstream for a while.
// Transport errors and 5xx answers count as failures; 4xx answers do not.
type Breaker struct {
	next Doer
	cb   *gobreaker.CircuitBreaker[*http.Response]
	name string
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Doer, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.Probes,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		// A shopper who gave up says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream breaker changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Breaker{next: next, cb: cb, name: cfg.Name}
}

// Do sends req unless the breaker is open. A 5xx response is still returned
// to the caller with its body intact.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &upstreamFailure{resp: resp}
		}
		return resp, nil
	})

	var uf *upstreamFailure
	switch {
	case errors.As(err, &uf):
		return uf.resp, nil
	case errors.Is(err, gobreaker.ErrOpenState):
		breakerRejected.WithLabelValues(b.name).Inc()
		return nil, err
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		breakerRejected.WithLabelValues(b.name).Inc()
		return nil, fmt.Errorf("%w: recovery probe in flight", ErrCircuitOpen)
	case err != nil:
		return nil, err
	}
	return resp, nil
}

// State reports the breaker's current state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
