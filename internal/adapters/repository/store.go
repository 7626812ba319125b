// Package repository persists evaluation records.
package repository

import (
	"context"

	"github.com/okian/mdpsurvey/internal/domain/model"
)

// Store provides durable access to the evaluation records.
type Store interface {
	// List returns every record in insertion order. The slice is a copy.
	List(ctx context.Context) ([]model.Record, error)

	// Get returns the record with id.
	// Returns ErrNotFound if no record has that id.
	Get(ctx context.Context, id string) (model.Record, error)

	// Append assigns an id and timestamp to rec, persists it and returns the
	// stored record. On a write failure nothing is stored and ErrStorage is returned.
	Append(ctx context.Context, rec model.Record) (model.Record, error)

	// Delete removes the record with id.
	// Returns ErrNotFound if no record has that id.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
