package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acadterm/timetabler/core/factory"
	coremetrics "github.com/acadterm/timetabler/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Namespace string `json:"namespace"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return newPromSink(prometheus.DefaultRegisterer, c.Namespace)
	})
}
