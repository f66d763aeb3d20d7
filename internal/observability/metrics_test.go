package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveGrading("single", "graded", time.Second)
	m.IncAggregateConflict("grading.claim")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.ObserveGrading("batch", "graded", 2*time.Second)
	m.ObserveGrading("batch", "graded", 3*time.Second)
	m.ObserveAggregateOperation("grading.commit", "success", 10*time.Millisecond)
	m.IncAggregateConflict("grading.claim")

	if got := m.GradingOutcomes("batch", "graded"); got != 2 {
		t.Fatalf("want 2 graded outcomes got %v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`nbg_grading_outcomes_total{mode="batch",outcome="graded"} 2`,
		`nbg_grading_duration_seconds_count{mode="batch",outcome="graded"} 2`,
		`nbg_aggregate_conflicts_total{op="grading.claim"} 1`,
		`le="+Inf"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("unexpected labels %s", got)
	}
	if withLe("", "1") != `{le="1"}` {
		t.Fatalf("unexpected le labels")
	}
}
