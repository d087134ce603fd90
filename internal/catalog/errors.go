package catalog

import "errors"

// ErrNotFound is returned when a content item does not exist.
var ErrNotFound = errors.New("content not found")
