package service

import "github.com/okian/vrai/internal/domain/model"

// Sentinel kinds returned by the service.
var (
	ErrNotFound               = model.ErrAnalysisNotFound
	ErrPersistenceUnavailable = model.ErrPersistenceUnavailable
)
