//go:build integration

package test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"remold-hq/remold/pkg/audit"
	"remold-hq/remold/pkg/audit/recorder"
	"remold-hq/remold/pkg/audit/retention"
	"remold-hq/remold/pkg/audit/storage"
	"remold-hq/remold/pkg/engine"
	"remold-hq/remold/pkg/engine/source"
	"remold-hq/remold/pkg/rules"
)

// TestPipelineEndToEnd loads rules from disk, runs all three phases over a
// batch of entries with the SQLite audit trail attached, and verifies the
// recorded changes.
func TestPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	rulesFile := filepath.Join(tmpDir, "rules.yaml")
	writeTestFile(t, rulesFile, `
- year:
    from: title
    extract: '\[(\d\d\d\d)\]'
  title:
    extract: '\[\d\d\d\d\](.*)'
- scratch:
    phase: filtering
    remove: true
- description:
    phase: post-filter-modification
    replace:
      regexp: '\s+'
      format: ' '
`)

	src := source.NewFileSource(rulesFile, logger)
	rs, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
		Path:         filepath.Join(tmpDir, "audit.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		WALMode:      true,
		BusyTimeout:  time.Second,
	}, logger)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	defer store.Close()

	rec := recorder.NewRecorder(store, recorder.DefaultConfig(), logger)

	eng, err := engine.New(rs, engine.Options{
		Logger:        logger,
		Observer:      rec,
		EntryKeyField: "title",
	})
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	entries := []engine.Entry{
		engine.MapEntry{
			"title":       "[1999]Some Show",
			"scratch":     "tmp",
			"description": "too   many    spaces",
		},
	}

	for _, phase := range rules.Phases {
		eng.RunPhase(phase, entries)
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("close recorder: %v", err)
	}

	// Transformed entry
	e := entries[0].(engine.MapEntry)
	if e["title"] != "Some Show" {
		t.Errorf("title = %q, want Some Show", e["title"])
	}
	if e["year"] != "1999" {
		t.Errorf("year = %q, want 1999", e["year"])
	}
	if _, ok := e["scratch"]; ok {
		t.Error("scratch should be removed")
	}
	if e["description"] != "too many spaces" {
		t.Errorf("description = %q", e["description"])
	}

	// Audit trail: year assign, title assign, scratch remove,
	// description assign.
	records, err := store.Query(ctx, &audit.Query{RunID: rec.RunID()})
	if err != nil {
		t.Fatalf("query audit: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 audit records, got %d", len(records))
	}

	removes, err := store.Query(ctx, &audit.Query{Op: "remove"})
	if err != nil {
		t.Fatalf("query audit: %v", err)
	}
	if len(removes) != 1 || removes[0].Field != "scratch" {
		t.Errorf("unexpected remove records: %+v", removes)
	}

	// Count-capped pruning keeps only the newest record.
	pruner := retention.NewPruner(store, &retention.Config{MaxRecords: 1}, logger)
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 3 {
		t.Errorf("pruned %d records, want 3", deleted)
	}
}

// TestPipelineHotReload verifies that a rules file edit reaches a watching
// engine.
func TestPipelineHotReload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rulesFile := filepath.Join(tmpDir, "rules.yaml")
	writeTestFile(t, rulesFile, "- title:\n    remove: true\n")

	src := source.NewFileSource(rulesFile, logger)
	rs, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	eng, err := engine.New(rs, engine.Options{Logger: logger})
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	events, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	writeTestFile(t, rulesFile, "- junk:\n    remove: true\n")

	select {
	case ev := <-events:
		if ev.Err != nil {
			t.Fatalf("watch error: %v", ev.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rules change event")
	}

	rs, err = src.Load(ctx)
	if err != nil {
		t.Fatalf("reload rules: %v", err)
	}
	if err := eng.Reload(rs); err != nil {
		t.Fatalf("reload engine: %v", err)
	}

	entry := engine.MapEntry{"title": "keep", "junk": "drop"}
	eng.RunPhase(rules.PhaseCollection, []engine.Entry{entry})

	if _, ok := entry["junk"]; ok {
		t.Error("junk should be removed by the reloaded rules")
	}
	if _, ok := entry["title"]; !ok {
		t.Error("title should survive under the reloaded rules")
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
