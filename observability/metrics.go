// Package observability hosts the service's Prometheus instrumentation.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the counters and histograms recorded per accrual cycle.
type Metrics struct {
	Events            *prometheus.CounterVec
	ResolverFallbacks prometheus.Counter
	Deposits          *prometheus.CounterVec
	CycleDuration     prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsReg  *Metrics
)

// AccrualMetrics returns the lazily-initialised metrics registered against the
// default Prometheus registry.
func AccrualMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsReg = &Metrics{
			Events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "procredit",
				Name:      "events_total",
				Help:      "Order events processed, labelled by terminal outcome.",
			}, []string{"outcome"}),
			ResolverFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "procredit",
				Name:      "resolver_fallback_total",
				Help:      "Resolutions that fell through to the exhaustive scan.",
			}),
			Deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "procredit",
				Name:      "deposits_total",
				Help:      "Ledger deposit attempts, labelled by outcome.",
			}, []string{"outcome"}),
			CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "procredit",
				Name:      "cycle_duration_seconds",
				Help:      "Wall time of a full accrual cycle.",
				Buckets:   prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(
			metricsReg.Events,
			metricsReg.ResolverFallbacks,
			metricsReg.Deposits,
			metricsReg.CycleDuration,
		)
	})
	return metricsReg
}
