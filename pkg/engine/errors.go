package engine

import "errors"

// ErrBadPattern indicates a rule pattern failed to compile. This is a
// configuration-time failure: it can only surface from New or Reload, never
// from evaluation.
var ErrBadPattern = errors.New("bad rule pattern")
