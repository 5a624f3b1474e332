// Package metrics records run statistics in a private Prometheus registry
// that can be exported as a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Directive outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeAborted = "aborted"
)

// Recorder is safe to use as a nil pointer, in which case it records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	directivesTotal *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	variablesSet    prometheus.Counter
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		directivesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cienv_directives_total",
				Help: "Directives processed, by terminal outcome",
			},
			[]string{"outcome"},
		),
		resolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cienv_resolve_duration_seconds",
				Help:    "Duration of source resolution in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"kind"},
		),
		variablesSet: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cienv_variables_set_total",
				Help: "Environment variables set",
			},
		),
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordOutcome counts one directive outcome.
func (r *Recorder) RecordOutcome(outcome string) {
	if r == nil {
		return
	}
	r.directivesTotal.WithLabelValues(outcome).Inc()
}

// ObserveResolve records how long resolving a source of kind took.
func (r *Recorder) ObserveResolve(kind string, d time.Duration) {
	if r == nil {
		return
	}
	r.resolveDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordVariableSet counts one injected variable.
func (r *Recorder) RecordVariableSet() {
	if r == nil {
		return
	}
	r.variablesSet.Inc()
}

// WriteTextfile writes the registry to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
