// Package metrics records pipeline step timings and asset outcomes in a
// private Prometheus registry.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roxy"

// Asset outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder holds the collectors for one process. Safe for concurrent use.
type Recorder struct {
	registry     *prometheus.Registry
	stepDuration *prometheus.HistogramVec
	stepErrors   *prometheus.CounterVec
	assets       *prometheus.CounterVec
	outputBytes  prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "duration_seconds",
				Help:      "Time spent in one pipeline step.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"step"},
		),
		stepErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "errors_total",
				Help:      "Pipeline step failures.",
			},
			[]string{"step"},
		),
		assets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assets_total",
				Help:      "Processed assets by outcome.",
			},
			[]string{"outcome"},
		),
		outputBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "output_bytes_total",
				Help:      "Bytes written by successful runs.",
			},
		),
	}
	r.registry.MustRegister(r.stepDuration, r.stepErrors, r.assets, r.outputBytes)
	return r
}

// ObserveStep records one step call. Unnamed steps are labeled "unnamed".
func (r *Recorder) ObserveStep(step string, elapsed time.Duration, err error) {
	if step == "" {
		step = "unnamed"
	}
	r.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
	if err != nil {
		r.stepErrors.WithLabelValues(step).Inc()
	}
}

// ObserveAsset records the outcome of one asset and, on success, its size.
func (r *Recorder) ObserveAsset(err error, size int) {
	if err != nil {
		r.assets.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	r.assets.WithLabelValues(OutcomeSuccess).Inc()
	r.outputBytes.Add(float64(size))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics: empty textfile path")
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: writing %s: %w", path, err)
	}
	return nil
}
