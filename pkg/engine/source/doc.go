// Package source provides rule sources for the transformation engine.
//
// A rule source loads a rule list and optionally watches it for changes.
// This package provides file-based and in-memory implementations.
//
// # File source
//
// The file source loads rules from a YAML file or directory and watches for
// changes with fsnotify, debounced so editor save storms trigger one reload:
//
//	src := source.NewFileSource("rules.yaml", logger)
//	rs, err := src.Load(ctx)
//
//	events, err := src.Watch(ctx)
//	for range events {
//	    rs, err := src.Load(ctx)
//	    // hand rs to engine.Reload
//	}
//
// # In-memory source
//
// The in-memory source serves a fixed rule list, mainly for tests:
//
//	src := source.NewMemorySource(rs)
package source
