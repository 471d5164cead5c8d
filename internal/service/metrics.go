package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	staleResponsesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_stale_responses_discarded_total",
		Help: "Cart responses dropped because a newer response was already applied.",
	})

	cartResyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_resyncs_total",
		Help: "Forced cart reloads after a failed or rejected mutation.",
	}, []string{"operation"})

	degradedViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_degraded_views_total",
		Help: "Cart views served from the last known snapshot because the API failed.",
	})

	cartMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"operation", "result"})

	ordersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Orders placed through checkout by payment method.",
	}, []string{"payment_method"})
)

// Mutation results.
const (
	resultOK       = "ok"
	resultInvalid  = "invalid"
	resultRejected = "rejected"
	resultFailed   = "failed"
	resultBusy     = "busy"
	resultDeclined = "declined"
)
