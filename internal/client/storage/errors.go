package storage

import "errors"

// Common client storage errors
var (
	// ErrSessionNotFound indicates that nobody is signed in
	ErrSessionNotFound = errors.New("session not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
