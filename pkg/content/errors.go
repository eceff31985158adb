package content

import "errors"

var (
	// ErrUnknownKind is returned when a kind has no table of its own.
	ErrUnknownKind = errors.New("unknown content kind")
	// ErrNotFound is returned when an id does not exist in its table.
	ErrNotFound = errors.New("content not found")
	// ErrExists is returned when an id is already taken.
	ErrExists = errors.New("content already exists")
)
