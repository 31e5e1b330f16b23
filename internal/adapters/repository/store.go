// Package repository persists analysis records.
package repository

import (
	"context"

	"github.com/okian/vrai/internal/domain/model"
)

// Store provides write-once access to analysis records.
type Store interface {
	// Save stores rec under rec.ID and returns the id it was stored under.
	// Returns ErrAlreadyExists if a record with that id exists.
	Save(ctx context.Context, rec model.AnalysisRecord) (string, error)

	// Get returns the record stored under id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.AnalysisRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Close releases the underlying database.
	Close() error
}
