package room

import "errors"

var (
	// ErrNotFound means the addressed room does not exist.
	ErrNotFound = errors.New("room not found")
	// ErrValidation means the request was rejected before any state access.
	ErrValidation = errors.New("invalid request")
	// ErrAllocationExhausted means no free room code was found within the retry bound.
	ErrAllocationExhausted = errors.New("could not allocate a room code")
)
