package core

import "errors"

// ErrNotFound is returned by storage lookups for missing rows.
var ErrNotFound = errors.New("not found")
