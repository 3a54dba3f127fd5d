package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReconcilerMetrics counts reconciliation and push-delivery events
type ReconcilerMetrics struct {
	Deliveries     *prometheus.CounterVec
	DeliveryMisses prometheus.Counter
	StaleSinks     prometheus.Counter
	Duplicates     prometheus.Counter
	Conflicts      prometheus.Counter
}

// NewReconcilerMetrics registers the reconciler counters on a registry;
// pass nil to use the default prometheus registerer.
func NewReconcilerMetrics(reg prometheus.Registerer) *ReconcilerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paybridge",
		Subsystem: "reconciler",
		Name:      "outcome_deliveries_total",
		Help:      "Outcomes delivered to a waiting client.",
	}, []string{"outcome"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paybridge",
		Subsystem: "reconciler",
		Name:      "delivery_misses_total",
		Help:      "Outcomes dropped because no waiter was registered.",
	})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paybridge",
		Subsystem: "reconciler",
		Name:      "stale_sinks_total",
		Help:      "Pushes that hit an already-disconnected sink.",
	})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paybridge",
		Subsystem: "reconciler",
		Name:      "duplicate_notifications_total",
		Help:      "Repeat notifications for an already-resolved order.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paybridge",
		Subsystem: "reconciler",
		Name:      "conflicting_notifications_total",
		Help:      "Notifications contradicting a recorded terminal outcome.",
	})

	reg.MustRegister(deliveries, misses, stale, duplicates, conflicts)
	return &ReconcilerMetrics{
		Deliveries:     deliveries,
		DeliveryMisses: misses,
		StaleSinks:     stale,
		Duplicates:     duplicates,
		Conflicts:      conflicts,
	}
}

// Handler exposes the prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
