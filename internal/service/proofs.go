package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/avelichko/ssi-sim/internal/crypto/envelope"
	"github.com/avelichko/ssi-sim/internal/errs"
	"github.com/avelichko/ssi-sim/internal/model"
	"github.com/avelichko/ssi-sim/internal/repository"
)

// ProofService implements the requested -> declined|presented lifecycle.
type ProofService interface {
	// SendRequest persists a verifier's ask in state requested. A nil request
	// body gets the default ask shape.
	SendRequest(ctx context.Context, connectionID string, req *model.ProofRequestBody) (string, error)
	// Decline transitions a requested proof request to declined.
	Decline(ctx context.Context, proofRequestID string) error
	// Present opens the credential's sealed claims, records a presentation with
	// the revealed plaintext, and transitions the request to presented. The
	// returned flag is always true on success: the ask and predicates are not
	// checked against the revealed claims.
	Present(ctx context.Context, proofRequestID, credentialID string) (bool, error)
	// ListRequests returns the newest proof requests, creation time descending.
	ListRequests(ctx context.Context) ([]model.ProofRequest, error)
	// ListPresentations returns the newest presentations, creation time descending.
	ListPresentations(ctx context.Context) ([]model.Presentation, error)
}

type ProofServiceImpl struct {
	repo      repository.ProofRepository
	creds     repository.CredentialRepository
	codec     *envelope.Codec
	listLimit int
}

// NewProofService constructs ProofService over the proof and credential stores.
func NewProofService(
	repo repository.ProofRepository,
	creds repository.CredentialRepository,
	codec *envelope.Codec,
) *ProofServiceImpl {
	return &ProofServiceImpl{repo: repo, creds: creds, codec: codec, listLimit: defaultListLimit}
}

// SendRequest persists the ask verbatim. The connection id is not checked
// against the connections collection.
func (s *ProofServiceImpl) SendRequest(ctx context.Context, connectionID string, req *model.ProofRequestBody) (string, error) {
	connectionID = strings.TrimSpace(connectionID)
	if connectionID == "" {
		return "", fmt.Errorf("%w: connectionId is required", errs.ErrValidation)
	}

	body := model.DefaultProofRequest()
	if req != nil {
		body = *req
	}

	id, err := s.repo.InsertRequest(ctx, model.ProofRequest{
		ConnectionID: connectionID,
		Request:      body,
		Status:       model.ProofRequested,
	})
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Decline transitions a requested proof request to declined.
func (s *ProofServiceImpl) Decline(ctx context.Context, proofRequestID string) error {
	id, err := parseID("proofRequestId", proofRequestID)
	if err != nil {
		return err
	}
	return s.repo.SetRequestStatus(ctx, id, model.ProofRequested, model.ProofDeclined)
}

// Present loads and opens the credential, then stores the presentation and
// transitions the proof request in one store transaction.
func (s *ProofServiceImpl) Present(ctx context.Context, proofRequestID, credentialID string) (bool, error) {
	prID, err := parseID("proofRequestId", proofRequestID)
	if err != nil {
		return false, err
	}
	credID, err := parseID("credentialId", credentialID)
	if err != nil {
		return false, err
	}

	cred, err := s.creds.Get(ctx, credID)
	if err != nil {
		return false, err
	}
	revealed, err := s.codec.Open(cred.Claims)
	if err != nil {
		return false, err
	}

	_, err = s.repo.Present(ctx, prID, model.Presentation{
		ProofRequestID: prID.String(),
		CredentialID:   credID.String(),
		Revealed:       revealed,
		Status:         model.PresPresented,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListRequests returns the newest proof requests, creation time descending.
func (s *ProofServiceImpl) ListRequests(ctx context.Context) ([]model.ProofRequest, error) {
	return s.repo.ListRequests(ctx, s.listLimit)
}

// ListPresentations returns the newest presentations, creation time descending.
func (s *ProofServiceImpl) ListPresentations(ctx context.Context) ([]model.Presentation, error) {
	return s.repo.ListPresentations(ctx, s.listLimit)
}
