// Package service implements the connection, credential and proof state machines.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avelichko/ssi-sim/internal/errs"
	"github.com/avelichko/ssi-sim/internal/ident"
	"github.com/avelichko/ssi-sim/internal/limiter"
	"github.com/avelichko/ssi-sim/internal/model"
	"github.com/avelichko/ssi-sim/internal/repository"
)

// Listing size for all collections, newest first.
const defaultListLimit = 50

// codeRetries bounds the check-and-retry loop on invite code collisions.
const codeRetries = 5

// ConnectionService manages invite-code pairing.
type ConnectionService interface {
	// CreateInvitation persists a new invitation and returns its invite code.
	CreateInvitation(ctx context.Context, label, alias string) (string, error)
	// ReceiveInvitation redeems an invite code and returns the connection id.
	// Redeeming the same code again returns the same id (tolerates client retries).
	ReceiveInvitation(ctx context.Context, inviteCode, callerIP string) (string, error)
	// List returns the newest connections, creation time descending.
	List(ctx context.Context) ([]model.Connection, error)
}

type ConnectionServiceImpl struct {
	repo      repository.ConnectionRepository
	lim       limiter.Limiter // nil disables redemption rate limiting
	codeLen   int
	listLimit int
}

// NewConnectionService constructs ConnectionService with the invite code length.
func NewConnectionService(repo repository.ConnectionRepository, lim limiter.Limiter, codeLen int) *ConnectionServiceImpl {
	if codeLen <= 0 {
		codeLen = ident.DefaultCodeLen
	}
	return &ConnectionServiceImpl{repo: repo, lim: lim, codeLen: codeLen, listLimit: defaultListLimit}
}

// CreateInvitation generates a code and persists the connection in state
// invitation-created. Collisions with open invitations are retried with a
// fresh code.
func (s *ConnectionServiceImpl) CreateInvitation(ctx context.Context, label, alias string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "holder"
	}
	alias = strings.TrimSpace(alias)
	if alias == "" {
		alias = "holder"
	}

	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := ident.InviteCode(s.codeLen)
		if err != nil {
			return "", err
		}
		_, err = s.repo.Insert(ctx, model.Connection{
			InvitationID: ident.Opaque(),
			InviteCode:   code,
			Label:        label,
			Alias:        alias,
			Status:       model.ConnInvitationCreated,
		})
		if errors.Is(err, errs.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", fmt.Errorf("invite code space exhausted after %d attempts", codeRetries)
}

// ReceiveInvitation looks the code up and transitions the connection to
// connected, fixing its connection id on first redemption.
func (s *ConnectionServiceImpl) ReceiveInvitation(ctx context.Context, inviteCode, callerIP string) (string, error) {
	code := strings.TrimSpace(inviteCode)
	if code == "" {
		return "", fmt.Errorf("%w: inviteCode is required", errs.ErrValidation)
	}

	var ipHash []byte
	if s.lim != nil {
		ipHash = limiter.HashIP(callerIP)
		ok, retryAfter, err := s.lim.Allow(ctx, ipHash)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retryAfter.Round(time.Second))
		}
	}

	conn, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) && s.lim != nil {
			_, _, _ = s.lim.Failure(ctx, ipHash)
		}
		return "", err
	}

	connectionID := conn.ConnectionID
	if connectionID == "" {
		connectionID = ident.Opaque()
	}
	if err := s.repo.MarkConnected(ctx, conn.ID, connectionID); err != nil {
		return "", err
	}
	if s.lim != nil {
		_ = s.lim.Success(ctx, ipHash)
	}
	return connectionID, nil
}

// List returns the newest connections, creation time descending.
func (s *ConnectionServiceImpl) List(ctx context.Context) ([]model.Connection, error) {
	return s.repo.List(ctx, s.listLimit)
}
