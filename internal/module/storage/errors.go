package storage

import "errors"

// Storage module errors.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrIncompleteConfig = errors.New("incomplete storage configuration")
)
