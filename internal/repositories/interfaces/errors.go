package interfaces

import "errors"

// Storage-level sentinel errors. Mongo implementations translate driver
// errors into these so services stay store-agnostic.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)
