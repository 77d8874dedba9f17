package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRunResult forwards the results to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordRunResult(results []RunResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordRunResult(results); err != nil {
			return err
		}
	}
	return nil
}

// RecordRefineOutcome forwards refinement outcomes when supported by the sink.
func (m *MultiSink) RecordRefineOutcome(out RefineOutcome) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RefineRecorder); ok {
			if err := rec.RecordRefineOutcome(out); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordValidation forwards validation verdicts when supported by the sink.
func (m *MultiSink) RecordValidation(ev ValidationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ValidationRecorder); ok {
			if err := rec.RecordValidation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
