package store

import "errors"

// ErrNotFound is returned, wrapped with context, when a lookup by ID
// finds no row, matching the teacher's ent.IsNotFound(err) + sentinel
// re-wrap convention in pkg/services.
var ErrNotFound = errors.New("store: not found")
