// Package repository defines storage interfaces implemented by the postgres package.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/avelichko/ssi-sim/internal/model"
)

// ConnectionRepository persists pairing records.
type ConnectionRepository interface {
	// Insert stores a new invitation record and returns the store-assigned id.
	// Returns errs.ErrAlreadyExists when the invite code collides with an
	// open invitation.
	Insert(ctx context.Context, c model.Connection) (uuid.UUID, error)

	// FindByCode returns the newest connection holding the invite code,
	// or errs.ErrNotFound.
	FindByCode(ctx context.Context, code string) (*model.Connection, error)

	// MarkConnected assigns connectionID and flips status to connected.
	// Repeating the call with the same connectionID is a no-op update.
	MarkConnected(ctx context.Context, id uuid.UUID, connectionID string) error

	// List returns up to limit connections, newest first by creation time.
	List(ctx context.Context, limit int) ([]model.Connection, error)
}
