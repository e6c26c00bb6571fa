package metrics

import (
	"time"
)

// RecordRun records the outcome and duration of a load run
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
	r.LastRunTimestamp.SetToCurrentTime()
}

// SetNodeCount sets the node count for a kind
func (r *Registry) SetNodeCount(kind string, count int) {
	r.NodesLoaded.WithLabelValues(kind).Set(float64(count))
}

// RecordDevices records device accounting for a run
func (r *Registry) RecordDevices(input, excluded int, quarantined map[string]int) {
	r.DevicesInput.Set(float64(input))
	r.ExcludedTotal.Add(float64(excluded))
	for reason, count := range quarantined {
		r.QuarantinedTotal.WithLabelValues(reason).Add(float64(count))
	}
}
