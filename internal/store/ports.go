// Package store defines the boundary to per-user record storage.
package store

import (
	"context"
	"errors"

	"finsight/internal/core"
)

// ErrNotFound is returned when updating a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Ports for record storage. Every call is scoped to one user; a user never
// sees another user's records.
type (
	RecordWriter interface {
		// Create stores r, assigning an ID and, when r.Date is zero, the
		// current time.
		Create(ctx context.Context, userID string, r core.Record) (core.Record, error)
	}

	RecordReader interface {
		// ListAll returns every record of kind, newest first.
		ListAll(ctx context.Context, userID string, kind core.Kind) ([]core.Record, error)
	}

	RecordUpdater interface {
		// Update merges patch into the record and stamps UpdatedAt.
		// A missing record yields ErrNotFound.
		Update(ctx context.Context, userID string, kind core.Kind, id string, patch core.RecordPatch) (core.Record, error)
	}

	RecordDeleter interface {
		// Delete removes the record. Deleting a missing record is not an error.
		Delete(ctx context.Context, userID string, kind core.Kind, id string) error
	}

	RecordStore interface {
		RecordWriter
		RecordReader
		RecordUpdater
		RecordDeleter
	}
)
