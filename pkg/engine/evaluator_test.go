package engine

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"remold-hq/remold/pkg/rules"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func compileField(t *testing.T, field string, body rules.Body) []Job {
	t.Helper()
	set, err := CompileJobs([]rules.Rule{{Fields: []rules.FieldRule{{Field: field, Body: body}}}})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return set.Jobs(body.EffectivePhase())
}

func TestProcessExtract(t *testing.T) {
	tests := []struct {
		name      string
		body      rules.Body
		entry     MapEntry
		wantEntry MapEntry
		wantMod   bool
	}{
		{
			name:      "extract capture group",
			body:      rules.Body{Extract: `\[\d\d\d\d\](.*)`},
			entry:     MapEntry{"title": "[1999]Some Show"},
			wantEntry: MapEntry{"title": "Some Show"},
			wantMod:   true,
		},
		{
			name:      "extract is case-insensitive",
			body:      rules.Body{Extract: `series (\d+)`},
			entry:     MapEntry{"title": "My SERIES 42"},
			wantEntry: MapEntry{"title": "42"},
			wantMod:   true,
		},
		{
			name:      "no match leaves value untouched",
			body:      rules.Body{Extract: `\[\d\d\d\d\](.*)`},
			entry:     MapEntry{"title": "Some Show"},
			wantEntry: MapEntry{"title": "Some Show"},
			wantMod:   false,
		},
		{
			name:      "multiple groups joined with default separator",
			body:      rules.Body{Extract: `(\w+)\.(\w+)`},
			entry:     MapEntry{"title": "show.name"},
			wantEntry: MapEntry{"title": "show name"},
			wantMod:   true,
		},
		{
			name: "explicit separator",
			body: rules.Body{
				Extract:   `(\w+)\.(\w+)`,
				Separator: strPtr("-"),
			},
			entry:     MapEntry{"title": "show.name"},
			wantEntry: MapEntry{"title": "show-name"},
			wantMod:   true,
		},
		{
			name:      "non-participating group is skipped",
			body:      rules.Body{Extract: `(\d+)|(\w+)`},
			entry:     MapEntry{"title": "show"},
			wantEntry: MapEntry{"title": "show"},
			wantMod:   false, // same value reassigned to same field
		},
		{
			name:      "result is whitespace trimmed",
			body:      rules.Body{Extract: `\[\d\d\d\d\](.*)`},
			entry:     MapEntry{"title": "[2001]  padded  "},
			wantEntry: MapEntry{"title": "padded"},
			wantMod:   true,
		},
		{
			name:      "extract from another field",
			body:      rules.Body{From: "title", Extract: `(\d{4})`},
			entry:     MapEntry{"title": "Show 2017 x264"},
			wantEntry: MapEntry{"title": "Show 2017 x264", "year": "2017"},
			wantMod:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := "title"
			if tt.body.From != "" {
				field = "year"
			}
			jobs := compileField(t, field, tt.body)
			ev := NewEvaluator(discardLogger(), nil, nil, "")

			got := ev.Process(rules.PhaseCollection, tt.entry, jobs)

			if got != tt.wantMod {
				t.Errorf("modified = %v, want %v", got, tt.wantMod)
			}
			if !reflect.DeepEqual(tt.entry, tt.wantEntry) {
				t.Errorf("entry = %v, want %v", tt.entry, tt.wantEntry)
			}
		})
	}
}

func TestProcessReplace(t *testing.T) {
	tests := []struct {
		name      string
		body      rules.Body
		entry     MapEntry
		wantEntry MapEntry
		wantMod   bool
	}{
		{
			name: "collapse whitespace",
			body: rules.Body{Replace: &rules.ReplaceSpec{Regexp: `\s+`, Format: " "}},
			entry: MapEntry{
				"title": "a   b",
			},
			wantEntry: MapEntry{"title": "a b"},
			wantMod:   true,
		},
		{
			name:      "replaces every match",
			body:      rules.Body{Replace: &rules.ReplaceSpec{Regexp: `_`, Format: " "}},
			entry:     MapEntry{"title": "a_b_c"},
			wantEntry: MapEntry{"title": "a b c"},
			wantMod:   true,
		},
		{
			name:      "empty format deletes matches",
			body:      rules.Body{Replace: &rules.ReplaceSpec{Regexp: `\[.*?\]`, Format: ""}},
			entry:     MapEntry{"title": "[tag] Show"},
			wantEntry: MapEntry{"title": "Show"},
			wantMod:   true,
		},
		{
			name:      "group reference in format",
			body:      rules.Body{Replace: &rules.ReplaceSpec{Regexp: `(\d+)x(\d+)`, Format: "S${1}E${2}"}},
			entry:     MapEntry{"title": "Show 3x07"},
			wantEntry: MapEntry{"title": "Show S3E07"},
			wantMod:   true,
		},
		{
			name:      "no match is idempotent",
			body:      rules.Body{Replace: &rules.ReplaceSpec{Regexp: `_`, Format: " "}},
			entry:     MapEntry{"title": "clean"},
			wantEntry: MapEntry{"title": "clean"},
			wantMod:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := compileField(t, "title", tt.body)
			ev := NewEvaluator(discardLogger(), nil, nil, "")

			got := ev.Process(rules.PhaseCollection, tt.entry, jobs)

			if got != tt.wantMod {
				t.Errorf("modified = %v, want %v", got, tt.wantMod)
			}
			if !reflect.DeepEqual(tt.entry, tt.wantEntry) {
				t.Errorf("entry = %v, want %v", tt.entry, tt.wantEntry)
			}
		})
	}
}

func TestProcessRemove(t *testing.T) {
	jobs := compileField(t, "junk", rules.Body{Remove: true})
	ev := NewEvaluator(discardLogger(), nil, nil, "")

	entry := MapEntry{"junk": "x", "title": "keep"}
	if !ev.Process(rules.PhaseCollection, entry, jobs) {
		t.Error("removing an existing field should count as modified")
	}
	if _, ok := entry["junk"]; ok {
		t.Error("field should be deleted")
	}
	if entry["title"] != "keep" {
		t.Error("unrelated field should be untouched")
	}

	// Removing an absent field is not a modification.
	if ev.Process(rules.PhaseCollection, entry, jobs) {
		t.Error("removing an absent field should not count as modified")
	}
}

func TestProcessRemoveIsTerminal(t *testing.T) {
	// remove combined with extract: the field is deleted, extract never runs.
	jobs := compileField(t, "title", rules.Body{Remove: true, Extract: `(.*)`})
	ev := NewEvaluator(discardLogger(), nil, nil, "")

	entry := MapEntry{"title": "Some Show"}
	ev.Process(rules.PhaseCollection, entry, jobs)

	if _, ok := entry["title"]; ok {
		t.Error("field should be deleted, not reassigned by extract")
	}
}

func TestProcessMissingSource(t *testing.T) {
	tests := []struct {
		name  string
		body  rules.Body
		entry MapEntry
	}{
		{
			name:  "extract with absent source",
			body:  rules.Body{Extract: `(.*)`},
			entry: MapEntry{},
		},
		{
			name:  "extract with empty source",
			body:  rules.Body{Extract: `(.*)`},
			entry: MapEntry{"title": ""},
		},
		{
			name:  "replace with absent source",
			body:  rules.Body{Replace: &rules.ReplaceSpec{Regexp: `_`, Format: " "}},
			entry: MapEntry{},
		},
		{
			name:  "replace with absent from field",
			body:  rules.Body{From: "description", Replace: &rules.ReplaceSpec{Regexp: `_`, Format: " "}},
			entry: MapEntry{"title": "keep"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags []Diagnostic
			sink := SinkFunc(func(d Diagnostic) { diags = append(diags, d) })

			jobs := compileField(t, "title", tt.body)
			ev := NewEvaluator(discardLogger(), sink, nil, "")

			before := MapEntry{}
			for k, v := range tt.entry {
				before[k] = v
			}

			if ev.Process(rules.PhaseCollection, tt.entry, jobs) {
				t.Error("missing source should not modify the entry")
			}
			if !reflect.DeepEqual(tt.entry, before) {
				t.Errorf("entry changed: %v, want %v", tt.entry, before)
			}
			if len(diags) != 1 {
				t.Fatalf("expected 1 diagnostic, got %d", len(diags))
			}
			if diags[0].Field != "title" {
				t.Errorf("diagnostic field = %q, want title", diags[0].Field)
			}
		})
	}
}

func TestProcessRenameAlwaysModifies(t *testing.T) {
	// A bare from copies the source verbatim and always counts as a change,
	// even when source and destination values already agree.
	jobs := compileField(t, "copy", rules.Body{From: "title"})
	ev := NewEvaluator(discardLogger(), nil, nil, "")

	entry := MapEntry{"title": "Show", "copy": "Show"}
	if !ev.Process(rules.PhaseCollection, entry, jobs) {
		t.Error("cross-field assignment should always count as modified")
	}
	if entry["copy"] != "Show" {
		t.Errorf("copy = %q, want Show", entry["copy"])
	}

	// A missing source still assigns: the destination becomes empty.
	entry2 := MapEntry{}
	if !ev.Process(rules.PhaseCollection, entry2, jobs) {
		t.Error("assignment of a missing source should count as modified")
	}
	if v, ok := entry2["copy"]; !ok || v != "" {
		t.Errorf("copy = %q (present=%v), want empty present", v, ok)
	}
}

func TestProcessExtractBeforeReplace(t *testing.T) {
	jobs := compileField(t, "title", rules.Body{
		Extract: `\[\d\d\d\d\](.*)`,
		Replace: &rules.ReplaceSpec{Regexp: `_`, Format: " "},
	})
	ev := NewEvaluator(discardLogger(), nil, nil, "")

	entry := MapEntry{"title": "[1999]Some_Show"}
	ev.Process(rules.PhaseCollection, entry, jobs)

	if entry["title"] != "Some Show" {
		t.Errorf("title = %q, want %q", entry["title"], "Some Show")
	}
}

func TestProcessRuleOrderWithinPhase(t *testing.T) {
	// The second rule reads what the first wrote.
	set, err := CompileJobs([]rules.Rule{
		{Fields: []rules.FieldRule{{Field: "base", Body: rules.Body{From: "title", Extract: `(\w+)`}}}},
		{Fields: []rules.FieldRule{{Field: "upper", Body: rules.Body{From: "base"}}}},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	ev := NewEvaluator(discardLogger(), nil, nil, "")
	entry := MapEntry{"title": "show more"}
	ev.Process(rules.PhaseCollection, entry, set.Jobs(rules.PhaseCollection))

	if entry["upper"] != "show" {
		t.Errorf("upper = %q, want show (rules must run in declared order)", entry["upper"])
	}
}

func TestProcessIdempotentReassignment(t *testing.T) {
	jobs := compileField(t, "title", rules.Body{Replace: &rules.ReplaceSpec{Regexp: `\s+`, Format: " "}})
	ev := NewEvaluator(discardLogger(), nil, nil, "")

	entry := MapEntry{"title": "a   b"}
	if !ev.Process(rules.PhaseCollection, entry, jobs) {
		t.Fatal("first pass should modify")
	}
	if ev.Process(rules.PhaseCollection, entry, jobs) {
		t.Error("second pass should be a no-op")
	}
	if entry["title"] != "a b" {
		t.Errorf("title = %q, want %q", entry["title"], "a b")
	}
}

func TestProcessChangeNotifications(t *testing.T) {
	var changes []Change
	obs := ObserverFunc(func(c Change) { changes = append(changes, c) })

	set, err := CompileJobs([]rules.Rule{
		{Fields: []rules.FieldRule{{Field: "junk", Body: rules.Body{Remove: true}}}},
		{Fields: []rules.FieldRule{{Field: "title", Body: rules.Body{Replace: &rules.ReplaceSpec{Regexp: `_`, Format: " "}}}}},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	ev := NewEvaluator(discardLogger(), nil, obs, "title")
	entry := MapEntry{"junk": "x", "title": "a_b"}
	ev.Process(rules.PhaseCollection, entry, set.Jobs(rules.PhaseCollection))

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	if changes[0].Op != OpRemove || changes[0].Field != "junk" || changes[0].Old != "x" {
		t.Errorf("unexpected remove change: %+v", changes[0])
	}
	if changes[1].Op != OpAssign || changes[1].New != "a b" || changes[1].Old != "a_b" {
		t.Errorf("unexpected assign change: %+v", changes[1])
	}
	// Entry key is read before any job runs.
	for _, c := range changes {
		if c.EntryKey != "a_b" {
			t.Errorf("entry key = %q, want a_b", c.EntryKey)
		}
	}
}

func strPtr(s string) *string { return &s }
