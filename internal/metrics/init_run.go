package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsync_runs_total",
			Help: "Total number of load runs",
		},
		[]string{"status"}, // succeeded, failed
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netsync_run_duration_seconds",
			Help:    "Duration of load runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	r.LastRunTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsync_last_run_timestamp_seconds",
			Help: "Unix time of the last completed load run",
		},
	)
}

func (r *Registry) initGraphMetrics() {
	r.NodesLoaded = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netsync_nodes_loaded",
			Help: "Number of nodes in the last loaded graph",
		},
		[]string{"kind"},
	)

	r.DevicesInput = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsync_devices_input",
			Help: "Number of device records returned by the controller in the last run",
		},
	)

	r.QuarantinedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsync_devices_quarantined_total",
			Help: "Total number of device records quarantined",
		},
		[]string{"reason"},
	)

	r.ExcludedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netsync_devices_excluded_total",
			Help: "Total number of device records excluded by vendor policy",
		},
	)
}
