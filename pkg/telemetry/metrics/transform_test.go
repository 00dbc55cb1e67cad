package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"remold-hq/remold/pkg/engine"
	"remold-hq/remold/pkg/rules"
)

func newTestMetrics() *TransformMetrics {
	return NewTransformMetrics(Config{Namespace: "test", Subsystem: "engine"}, prometheus.NewRegistry())
}

func TestRecordPhase(t *testing.T) {
	tm := newTestMetrics()

	tm.RecordPhase(engine.PhaseResult{
		Phase:    rules.PhaseCollection,
		Entries:  10,
		Modified: 3,
		Duration: 5 * time.Millisecond,
	})
	tm.RecordPhase(engine.PhaseResult{
		Phase:    rules.PhaseCollection,
		Entries:  10,
		Modified: 0,
		Duration: time.Millisecond,
	})

	phase := string(rules.PhaseCollection)
	if got := testutil.ToFloat64(tm.entriesProcessed.WithLabelValues(phase)); got != 20 {
		t.Errorf("entries processed = %v, want 20", got)
	}
	if got := testutil.ToFloat64(tm.entriesModified.WithLabelValues(phase)); got != 3 {
		t.Errorf("entries modified = %v, want 3", got)
	}
	if got := testutil.CollectAndCount(tm.phaseDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestObserveChange(t *testing.T) {
	tm := newTestMetrics()

	tm.ObserveChange(engine.Change{Phase: rules.PhaseCollection, Field: "title", Op: engine.OpAssign})
	tm.ObserveChange(engine.Change{Phase: rules.PhaseCollection, Field: "junk", Op: engine.OpRemove})
	tm.ObserveChange(engine.Change{Phase: rules.PhaseFiltering, Field: "junk", Op: engine.OpRemove})

	phase := string(rules.PhaseCollection)
	if got := testutil.ToFloat64(tm.fieldChanges.WithLabelValues(phase, "assign")); got != 1 {
		t.Errorf("assign changes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tm.fieldChanges.WithLabelValues(phase, "remove")); got != 1 {
		t.Errorf("remove changes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tm.fieldChanges.WithLabelValues(string(rules.PhaseFiltering), "remove")); got != 1 {
		t.Errorf("filtering remove changes = %v, want 1", got)
	}
}

func TestEmitDiagnostic(t *testing.T) {
	tm := newTestMetrics()

	tm.Emit(engine.Diagnostic{Phase: rules.PhaseCollection, Field: "title", Source: "title", Op: "extract"})
	tm.Emit(engine.Diagnostic{Phase: rules.PhaseCollection, Field: "title", Source: "title", Op: "extract"})
	tm.Emit(engine.Diagnostic{Phase: rules.PhaseCollection, Field: "other", Source: "desc", Op: "replace"})

	phase := string(rules.PhaseCollection)
	if got := testutil.ToFloat64(tm.missingSource.WithLabelValues(phase, "extract")); got != 2 {
		t.Errorf("missing source extract = %v, want 2", got)
	}
	if got := testutil.ToFloat64(tm.missingSource.WithLabelValues(phase, "replace")); got != 1 {
		t.Errorf("missing source replace = %v, want 1", got)
	}
}

func TestMetricsAsEngineHooks(t *testing.T) {
	tm := newTestMetrics()

	rs := []rules.Rule{
		{Fields: []rules.FieldRule{
			{Field: "title", Body: rules.Body{Extract: `\[\d\d\d\d\](.*)`}},
			{Field: "year", Body: rules.Body{From: "missing", Extract: `(\d{4})`}},
		}},
	}
	eng, err := engine.New(rs, engine.Options{
		Observer:    tm,
		Diagnostics: tm,
	})
	if err != nil {
		t.Fatalf("engine creation failed: %v", err)
	}

	res := eng.RunPhaseResult(rules.PhaseCollection, []engine.Entry{
		engine.MapEntry{"title": "[1999]Some Show"},
	})
	tm.RecordPhase(res)

	phase := string(rules.PhaseCollection)
	if got := testutil.ToFloat64(tm.fieldChanges.WithLabelValues(phase, "assign")); got != 1 {
		t.Errorf("assign changes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tm.missingSource.WithLabelValues(phase, "extract")); got != 1 {
		t.Errorf("missing source = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tm.entriesModified.WithLabelValues(phase)); got != 1 {
		t.Errorf("entries modified = %v, want 1", got)
	}
}
