package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrUnknownKind    = errors.New("unknown entity kind")
)
