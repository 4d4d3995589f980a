package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrInvalidConfig indicates an unusable database or identity configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound indicates a required row or file was not found
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedType indicates a content item of a kind no mapper handles
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrSiblingMissing indicates a translation whose primary-language root
	// has not been synced yet
	ErrSiblingMissing = errors.New("primary-language sibling not found")

	// ErrConnection indicates the store could not be reached
	ErrConnection = errors.New("store connection failed")
)
