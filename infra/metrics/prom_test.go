package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/acadterm/timetabler/core/factory"
	coremetrics "github.com/acadterm/timetabler/core/metrics"
	"github.com/acadterm/timetabler/core/model"
)

func TestPromSinkRecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	err = sink.RecordRunResult([]coremetrics.RunResult{
		{RunID: "a", Status: model.StatusComplete, SoftScore: 12},
		{RunID: "b", Status: model.StatusPartial, SoftScore: 40},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	ps := sink.(*PromSink)
	if got := testutil.ToFloat64(ps.runs.WithLabelValues("complete")); got != 1 {
		t.Fatalf("complete runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ps.runs.WithLabelValues("partial")); got != 1 {
		t.Fatalf("partial runs = %v, want 1", got)
	}
}

func TestPromSinkRecordsValidation(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	rec := sink.(coremetrics.ValidationRecorder)
	if err := rec.RecordValidation(coremetrics.ValidationEvent{Unplaced: 3, HardViolations: 0}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := testutil.ToFloat64(sink.(*PromSink).unplaced); got != 3 {
		t.Fatalf("unplaced gauge = %v, want 3", got)
	}
}

func TestPromSinkNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := newPromSink(reg, "qa")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordRunResult([]coremetrics.RunResult{{RunID: "a", Status: model.StatusComplete, SoftScore: 1}}); err != nil {
		t.Fatalf("record: %v", err)
	}

	fams, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range fams {
		if f.GetName() == "qa_runs_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("runs counter must carry the configured namespace")
	}
}

func TestSinkFactoryDecodesNamespace(t *testing.T) {
	sink, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "prometheus",
		Conf: map[string]any{"namespace": "qa_factory"},
	}})
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if _, ok := sink.(*PromSink); !ok {
		t.Fatalf("sink = %T, want *PromSink", sink)
	}
}

func TestSinkFactoryRejectsBadSettings(t *testing.T) {
	_, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "prometheus",
		Conf: map[string]any{"namespace": []string{"a", "b"}},
	}})
	if err == nil {
		t.Fatal("non-string namespace must be rejected")
	}
}

func TestPromSinkReregistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second registration must reuse collectors: %v", err)
	}
}
