// Package metrics exposes Prometheus collectors for the transformation
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"remold-hq/remold/pkg/engine"
)

// Config controls metric naming.
type Config struct {
	// Namespace is the metric namespace (default "remold").
	Namespace string
	// Subsystem is the metric subsystem (default "engine").
	Subsystem string
}

// TransformMetrics tracks transformation engine activity.
//
// Metrics:
//   - remold_engine_entries_processed_total: entries handled per phase
//   - remold_engine_entries_modified_total: entries changed per phase
//   - remold_engine_field_changes_total: field mutations by phase and op
//   - remold_engine_missing_source_total: missing-source diagnostics by phase and op
//   - remold_engine_phase_duration_seconds: phase dispatch duration
type TransformMetrics struct {
	entriesProcessed *prometheus.CounterVec
	entriesModified  *prometheus.CounterVec
	fieldChanges     *prometheus.CounterVec
	missingSource    *prometheus.CounterVec
	phaseDuration    *prometheus.HistogramVec
}

// NewTransformMetrics creates and registers the engine metrics with the
// provided registry.
func NewTransformMetrics(cfg Config, registry *prometheus.Registry) *TransformMetrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "remold"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "engine"
	}

	tm := &TransformMetrics{
		entriesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "entries_processed_total",
				Help:      "Total number of entries handled per phase",
			},
			[]string{"phase"},
		),

		entriesModified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "entries_modified_total",
				Help:      "Total number of entries modified per phase",
			},
			[]string{"phase"},
		),

		fieldChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "field_changes_total",
				Help:      "Total number of field mutations by phase and operation",
			},
			[]string{"phase", "op"},
		),

		missingSource: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "missing_source_total",
				Help:      "Total number of missing-source diagnostics by phase and operation",
			},
			[]string{"phase", "op"},
		),

		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "phase_duration_seconds",
				Help:      "Duration of one phase dispatch in seconds",
				// Evaluation is regex work over in-memory strings; sub-second.
				Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12),
			},
			[]string{"phase"},
		),
	}

	registry.MustRegister(
		tm.entriesProcessed,
		tm.entriesModified,
		tm.fieldChanges,
		tm.missingSource,
		tm.phaseDuration,
	)

	return tm
}

// RecordPhase records one phase dispatch.
func (tm *TransformMetrics) RecordPhase(res engine.PhaseResult) {
	phase := string(res.Phase)
	tm.entriesProcessed.WithLabelValues(phase).Add(float64(res.Entries))
	tm.entriesModified.WithLabelValues(phase).Add(float64(res.Modified))
	tm.phaseDuration.WithLabelValues(phase).Observe(res.Duration.Seconds())
}

// ObserveChange implements engine.ChangeObserver.
func (tm *TransformMetrics) ObserveChange(c engine.Change) {
	tm.fieldChanges.WithLabelValues(string(c.Phase), string(c.Op)).Inc()
}

// Emit implements engine.DiagnosticSink, counting missing-source conditions.
func (tm *TransformMetrics) Emit(d engine.Diagnostic) {
	tm.missingSource.WithLabelValues(string(d.Phase), d.Op).Inc()
}
