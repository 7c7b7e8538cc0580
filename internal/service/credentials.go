package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avelichko/ssi-sim/internal/crypto/envelope"
	"github.com/avelichko/ssi-sim/internal/errs"
	"github.com/avelichko/ssi-sim/internal/model"
	"github.com/avelichko/ssi-sim/internal/repository"
)

// CredentialService implements the offered -> accepted|rejected lifecycle.
type CredentialService interface {
	// Issue seals the claims and stores a new credential in state offered.
	Issue(ctx context.Context, connectionID string, claims model.Claims) (string, error)
	// Accept transitions an offered credential to accepted.
	Accept(ctx context.Context, credentialID string) error
	// Reject transitions an offered credential to rejected.
	Reject(ctx context.Context, credentialID string) error
	// List returns the newest credentials, creation time descending.
	List(ctx context.Context) ([]model.Credential, error)
}

type CredentialServiceImpl struct {
	repo      repository.CredentialRepository
	codec     *envelope.Codec
	listLimit int
}

// NewCredentialService constructs CredentialService around the sealing codec.
func NewCredentialService(repo repository.CredentialRepository, codec *envelope.Codec) *CredentialServiceImpl {
	return &CredentialServiceImpl{repo: repo, codec: codec, listLimit: defaultListLimit}
}

// credentialType derives the type from the distinguished department claim.
func credentialType(claims model.Claims) string {
	if v, ok := claims["department"].(string); ok {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return model.CredentialTypeUnknown
}

// Issue seals the claims before they cross the persistence boundary; plaintext
// claims never reach the store. The connection id is not checked against the
// connections collection.
func (s *CredentialServiceImpl) Issue(ctx context.Context, connectionID string, claims model.Claims) (string, error) {
	connectionID = strings.TrimSpace(connectionID)
	if connectionID == "" {
		return "", fmt.Errorf("%w: connectionId is required", errs.ErrValidation)
	}
	if claims == nil {
		claims = model.Claims{}
	}

	env, err := s.codec.Seal(claims)
	if err != nil {
		return "", err
	}
	doc, err := json.Marshal(env)
	if err != nil {
		return "", err
	}

	id, err := s.repo.Insert(ctx, model.Credential{
		ConnectionID: connectionID,
		Type:         credentialType(claims),
		Status:       model.CredOffered,
		Claims:       doc,
	})
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Accept transitions an offered credential to accepted.
func (s *CredentialServiceImpl) Accept(ctx context.Context, credentialID string) error {
	id, err := parseID("credentialId", credentialID)
	if err != nil {
		return err
	}
	return s.repo.SetStatus(ctx, id, model.CredOffered, model.CredAccepted)
}

// Reject transitions an offered credential to rejected.
func (s *CredentialServiceImpl) Reject(ctx context.Context, credentialID string) error {
	id, err := parseID("credentialId", credentialID)
	if err != nil {
		return err
	}
	return s.repo.SetStatus(ctx, id, model.CredOffered, model.CredRejected)
}

// List returns the newest credentials, creation time descending.
func (s *CredentialServiceImpl) List(ctx context.Context) ([]model.Credential, error) {
	return s.repo.List(ctx, s.listLimit)
}
