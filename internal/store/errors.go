package store

import "errors"

// ErrNotFound is returned when a point lookup finds no record.
var ErrNotFound = errors.New("not found")
