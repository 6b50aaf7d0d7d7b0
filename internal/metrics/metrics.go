// Package metrics defines the Prometheus instrumentation for the engine,
// the sweeper, and the publication path.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "hotaru"

// Metrics holds all collectors, registered on an explicit registry so tests
// can use an isolated one.
type Metrics struct {
	VotesProcessed  *prometheus.CounterVec
	RotationsTotal  prometheus.Counter
	ArchivesTotal   prometheus.Counter
	PublishFailures prometheus.Counter

	SweepDuration  prometheus.Histogram
	SweepErrors    prometheus.Counter
	TenantsTracked prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VotesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_processed_total",
			Help:      "Total number of vote submissions, by result.",
		}, []string{"result"}),
		RotationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "period_rotations_total",
			Help:      "Total number of period rotations.",
		}),
		ArchivesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Total number of archive entries written.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Total number of failed best-effort publications.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of full maintenance sweeps in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		SweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_errors_total",
			Help:      "Total number of per-tenant maintenance failures.",
		}),
		TenantsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tenants_tracked",
			Help:      "Number of tenants seen by the last maintenance sweep.",
		}),
	}

	reg.MustRegister(
		m.VotesProcessed, m.RotationsTotal, m.ArchivesTotal, m.PublishFailures,
		m.SweepDuration, m.SweepErrors, m.TenantsTracked,
	)
	return m
}
