package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/avelichko/ssi-sim/internal/model"
)

// CredentialRepository persists issued credentials with sealed claims.
type CredentialRepository interface {
	// Insert stores a new credential and returns the store-assigned id.
	Insert(ctx context.Context, c model.Credential) (uuid.UUID, error)

	// Get returns a credential by id, or errs.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*model.Credential, error)

	// SetStatus transitions a credential from one status to another.
	// Returns errs.ErrNotFound for an unknown id and errs.ErrStateConflict
	// when the credential is not in the expected prior status.
	SetStatus(ctx context.Context, id uuid.UUID, from, to string) error

	// List returns up to limit credentials, newest first by creation time.
	List(ctx context.Context, limit int) ([]model.Credential, error)
}
