// Package metrics provides the Prometheus-backed implementation of the
// core metrics sink.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/acadterm/timetabler/core/metrics"
)

// PromSink records scheduling outcomes in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	softScore *prometheus.HistogramVec
	unplaced  prometheus.Gauge
	hardViols prometheus.Gauge
}

// defaultNamespace prefixes every metric unless the sink settings
// override it.
const defaultNamespace = "timetabler"

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The HTTP endpoint is served separately by the engine.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return newPromSink(prometheus.DefaultRegisterer, "")
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	return newPromSink(reg, "")
}

func newPromSink(reg prometheus.Registerer, namespace string) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Total number of finished candidate runs",
	}, []string{"status"})
	softScore := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_soft_score",
		Help:      "Soft score distribution of finished runs",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"status"})
	unplaced := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unplaced_sessions",
		Help:      "Unplaced session occurrences in the winning schedule",
	})
	hardViols := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hard_violations",
		Help:      "Hard violations found by the validator in the winning schedule",
	})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(softScore); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			softScore = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(unplaced); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			unplaced = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(hardViols); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			hardViols = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, softScore: softScore, unplaced: unplaced, hardViols: hardViols}, nil
}

// RecordRunResult increments the run counter and observes the soft score
// for each result.
func (s *PromSink) RecordRunResult(results []coremetrics.RunResult) error {
	for _, r := range results {
		s.runs.WithLabelValues(r.Status.String()).Inc()
		s.softScore.WithLabelValues(r.Status.String()).Observe(r.SoftScore)
	}
	return nil
}

// RecordValidation sets the winning-schedule gauges.
func (s *PromSink) RecordValidation(ev coremetrics.ValidationEvent) error {
	s.unplaced.Set(float64(ev.Unplaced))
	s.hardViols.Set(float64(ev.HardViolations))
	return nil
}
