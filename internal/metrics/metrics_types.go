package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the metrics of load runs
type Registry struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	LastRunTimestamp prometheus.Gauge

	NodesLoaded      *prometheus.GaugeVec
	DevicesInput     prometheus.Gauge
	QuarantinedTotal *prometheus.CounterVec
	ExcludedTotal    prometheus.Counter
}
