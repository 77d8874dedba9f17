package refine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var refineAccepted prometheus.Counter

func init() {
	refineAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetabler_refine_moves_accepted_total",
		Help: "Number of annealing moves accepted during refinement",
	})
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers refiner metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used. Already registered
// collectors are reused.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(refineAccepted); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}
