package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_published_total",
			Help: "Events handed to Kafka, by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	publishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_event_publish_duration_seconds",
			Help:    "Time spent writing one event to Kafka",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"topic"},
	)
)
