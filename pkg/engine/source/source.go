package source

import (
	"context"

	"remold-hq/remold/pkg/rules"
)

// Event signals that the rule source changed and should be reloaded.
type Event struct {
	// Path is the file that changed, when known.
	Path string

	// Err is set when the watcher itself failed; the source keeps watching
	// after recoverable errors.
	Err error
}

// Source loads rules and optionally watches them for changes.
type Source interface {
	// Load loads and validates the full rule list.
	Load(ctx context.Context) ([]rules.Rule, error)

	// Watch emits an event whenever the rules change. The channel is closed
	// when the context is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)
}
