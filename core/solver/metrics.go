package solver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	solverPlacements prometheus.Counter
	solverBacktracks prometheus.Counter
	solverRuns       *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Counter, *prometheus.CounterVec) {
	placements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetabler_placements_total",
		Help: "Number of session occurrences committed during search",
	})
	backtracks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetabler_backtracks_total",
		Help: "Number of commitments undone during search",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetabler_solver_runs_total",
		Help: "Number of finished solver runs by outcome",
	}, []string{"status"})
	return placements, backtracks, runs
}

func init() {
	solverPlacements, solverBacktracks, solverRuns = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers solver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used. Already registered
// collectors are reused.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{solverPlacements, solverBacktracks, solverRuns} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
