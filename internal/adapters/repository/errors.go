package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("analysis record not found")
	ErrAlreadyExists = errors.New("analysis record already exists")
	ErrInvalidRecord = errors.New("invalid analysis record")
	ErrClosed        = errors.New("store closed")
	ErrUnavailable   = errors.New("store unavailable")
	ErrTimeout       = errors.New("store write timed out")
)
