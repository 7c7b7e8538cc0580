package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/avelichko/ssi-sim/internal/model"
)

// ProofRepository persists proof requests and their presentations.
type ProofRepository interface {
	// InsertRequest stores a new proof request and returns the store-assigned id.
	InsertRequest(ctx context.Context, pr model.ProofRequest) (uuid.UUID, error)

	// SetRequestStatus transitions a proof request from one status to another,
	// with the same error semantics as CredentialRepository.SetStatus.
	SetRequestStatus(ctx context.Context, id uuid.UUID, from, to string) error

	// Present atomically transitions the proof request requested->presented and
	// stores the presentation, so two concurrent presents cannot both succeed.
	Present(ctx context.Context, proofRequestID uuid.UUID, p model.Presentation) (uuid.UUID, error)

	// ListRequests returns up to limit proof requests, newest first.
	ListRequests(ctx context.Context, limit int) ([]model.ProofRequest, error)

	// ListPresentations returns up to limit presentations, newest first.
	ListPresentations(ctx context.Context, limit int) ([]model.Presentation, error)
}
