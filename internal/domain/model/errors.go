package model

import "errors"

// Lookup errors shared by the service and its transports.
var (
	ErrAnalysisNotFound       = errors.New("analysis not found")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
