package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/avelichko/ssi-sim/internal/errs"
	"github.com/avelichko/ssi-sim/internal/model"
)

// maxBody bounds request bodies; claims and asks are small JSON objects.
const maxBody = 2 << 20

// --- request/response bodies ---

type createInvitationRequest struct {
	Label string `json:"label"`
	Alias string `json:"alias"`
}

type createInvitationResponse struct {
	InviteCode string `json:"inviteCode"`
}

type receiveInvitationRequest struct {
	InviteCode string `json:"inviteCode"`
}

type receiveInvitationResponse struct {
	OK           bool   `json:"ok"`
	ConnectionID string `json:"connectionId"`
}

type issueCredentialRequest struct {
	ConnectionID string       `json:"connectionId"`
	Claims       model.Claims `json:"claims"`
}

type issueCredentialResponse struct {
	OK           bool   `json:"ok"`
	CredentialID string `json:"credentialId"`
}

type credentialActionRequest struct {
	CredentialID string `json:"credentialId"`
}

type sendProofRequestRequest struct {
	ConnectionID string                  `json:"connectionId"`
	Request      *model.ProofRequestBody `json:"request"`
}

type sendProofRequestResponse struct {
	OK             bool   `json:"ok"`
	ProofRequestID string `json:"proofRequestId"`
}

type proofActionRequest struct {
	ProofRequestID string `json:"proofRequestId"`
}

type presentProofRequest struct {
	ProofRequestID string `json:"proofRequestId"`
	CredentialID   string `json:"credentialId"`
}

type presentProofResponse struct {
	OK       bool `json:"ok"`
	Verified bool `json:"verified"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type healthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

type itemsResponse struct {
	Items any `json:"items"`
}

// --- list item representations ---

type connectionItem struct {
	ID           string `json:"id"`
	InvitationID string `json:"invitationId"`
	InviteCode   string `json:"inviteCode"`
	Label        string `json:"label"`
	Alias        string `json:"alias"`
	Status       string `json:"status"`
	ConnectionID string `json:"connectionId,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type credentialItem struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connectionId"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Claims       json.RawMessage `json:"claims"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

type proofRequestItem struct {
	ID           string                 `json:"id"`
	ConnectionID string                 `json:"connectionId"`
	Request      model.ProofRequestBody `json:"request"`
	Status       string                 `json:"status"`
	CreatedAt    string                 `json:"createdAt"`
	UpdatedAt    string                 `json:"updatedAt"`
}

type presentationItem struct {
	ID             string       `json:"id"`
	ProofRequestID string       `json:"proofRequestId"`
	CredentialID   string       `json:"credentialId"`
	Revealed       model.Claims `json:"revealed"`
	Status         string       `json:"status"`
	CreatedAt      string       `json:"createdAt"`
}

func isoTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func toConnectionItem(c model.Connection) connectionItem {
	return connectionItem{
		ID:           c.ID.String(),
		InvitationID: c.InvitationID,
		InviteCode:   c.InviteCode,
		Label:        c.Label,
		Alias:        c.Alias,
		Status:       c.Status,
		ConnectionID: c.ConnectionID,
		CreatedAt:    isoTime(c.CreatedAt),
		UpdatedAt:    isoTime(c.UpdatedAt),
	}
}

func toCredentialItem(c model.Credential) credentialItem {
	return credentialItem{
		ID:           c.ID.String(),
		ConnectionID: c.ConnectionID,
		Type:         c.Type,
		Status:       c.Status,
		Claims:       c.Claims,
		CreatedAt:    isoTime(c.CreatedAt),
		UpdatedAt:    isoTime(c.UpdatedAt),
	}
}

func toProofRequestItem(pr model.ProofRequest) proofRequestItem {
	return proofRequestItem{
		ID:           pr.ID.String(),
		ConnectionID: pr.ConnectionID,
		Request:      pr.Request,
		Status:       pr.Status,
		CreatedAt:    isoTime(pr.CreatedAt),
		UpdatedAt:    isoTime(pr.UpdatedAt),
	}
}

func toPresentationItem(p model.Presentation) presentationItem {
	return presentationItem{
		ID:             p.ID.String(),
		ProofRequestID: p.ProofRequestID,
		CredentialID:   p.CredentialID,
		Revealed:       p.Revealed,
		Status:         p.Status,
		CreatedAt:      isoTime(p.CreatedAt),
	}
}

// --- helpers ---

// decodeJSON reads a bounded JSON body into dst. An empty body is tolerated;
// the zero value of dst then stands for "no fields supplied".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// validID reports whether raw is a well-formed external identifier.
func validID(raw string) bool {
	_, err := uuid.FromString(raw)
	return err == nil
}

// domainError maps a service error to an HTTP status and body. notFoundMsg
// customizes the 404 body per endpoint.
func (s *Server) domainError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), errs.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, errs.ErrStateConflict):
		writeError(w, http.StatusConflict, "already in a terminal state")
	case errors.Is(err, errs.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many attempts")
	case errors.Is(err, errs.ErrDecryption):
		writeError(w, http.StatusInternalServerError, "decryption failed")
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// --- handlers ---

// Root serves the service banner.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("SSI exchange API running"))
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, Time: isoTime(time.Now())})
}

// CreateInvitation generates an invite code for a holder to redeem.
func (s *Server) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req createInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code, err := s.conns.CreateInvitation(r.Context(), req.Label, req.Alias)
	if err != nil {
		s.domainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, createInvitationResponse{InviteCode: code})
}

// ReceiveInvitation redeems an invite code.
func (s *Server) ReceiveInvitation(w http.ResponseWriter, r *http.Request) {
	var req receiveInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.InviteCode) == "" {
		writeError(w, http.StatusBadRequest, "inviteCode is required")
		return
	}
	connectionID, err := s.conns.ReceiveInvitation(r.Context(), req.InviteCode, remoteIP(r))
	if err != nil {
		s.domainError(w, err, "Invalid invite code")
		return
	}
	writeJSON(w, http.StatusOK, receiveInvitationResponse{OK: true, ConnectionID: connectionID})
}

// IssueCredential seals the claims and stores an offered credential.
func (s *Server) IssueCredential(w http.ResponseWriter, r *http.Request) {
	var req issueCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ConnectionID) == "" {
		writeError(w, http.StatusBadRequest, "connectionId is required")
		return
	}
	credentialID, err := s.creds.Issue(r.Context(), req.ConnectionID, req.Claims)
	if err != nil {
		s.domainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, issueCredentialResponse{OK: true, CredentialID: credentialID})
}

// credentialAction validates the body shared by accept and reject.
func (s *Server) credentialAction(w http.ResponseWriter, r *http.Request, do func() error) {
	if err := do(); err != nil {
		s.domainError(w, err, "Credential not found")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// AcceptCredential transitions an offered credential to accepted.
func (s *Server) AcceptCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CredentialID) == "" {
		writeError(w, http.StatusBadRequest, "credentialId is required")
		return
	}
	if !validID(strings.TrimSpace(req.CredentialID)) {
		writeError(w, http.StatusBadRequest, "Invalid credentialId")
		return
	}
	s.credentialAction(w, r, func() error {
		return s.creds.Accept(r.Context(), req.CredentialID)
	})
}

// RejectCredential transitions an offered credential to rejected.
func (s *Server) RejectCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CredentialID) == "" {
		writeError(w, http.StatusBadRequest, "credentialId is required")
		return
	}
	if !validID(strings.TrimSpace(req.CredentialID)) {
		writeError(w, http.StatusBadRequest, "Invalid credentialId")
		return
	}
	s.credentialAction(w, r, func() error {
		return s.creds.Reject(r.Context(), req.CredentialID)
	})
}

// SendProofRequest stores a verifier's ask in state requested.
func (s *Server) SendProofRequest(w http.ResponseWriter, r *http.Request) {
	var req sendProofRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ConnectionID) == "" {
		writeError(w, http.StatusBadRequest, "connectionId is required")
		return
	}
	proofRequestID, err := s.proofs.SendRequest(r.Context(), req.ConnectionID, req.Request)
	if err != nil {
		s.domainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, sendProofRequestResponse{OK: true, ProofRequestID: proofRequestID})
}

// DeclineProofRequest transitions a requested proof request to declined.
func (s *Server) DeclineProofRequest(w http.ResponseWriter, r *http.Request) {
	var req proofActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProofRequestID) == "" {
		writeError(w, http.StatusBadRequest, "proofRequestId is required")
		return
	}
	if !validID(strings.TrimSpace(req.ProofRequestID)) {
		writeError(w, http.StatusBadRequest, "Invalid proofRequestId")
		return
	}
	if err := s.proofs.Decline(r.Context(), req.ProofRequestID); err != nil {
		s.domainError(w, err, "Proof request not found")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// PresentProof reveals the credential's claims against a proof request.
func (s *Server) PresentProof(w http.ResponseWriter, r *http.Request) {
	var req presentProofRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProofRequestID) == "" {
		writeError(w, http.StatusBadRequest, "proofRequestId is required")
		return
	}
	if strings.TrimSpace(req.CredentialID) == "" {
		writeError(w, http.StatusBadRequest, "credentialId is required")
		return
	}
	if !validID(strings.TrimSpace(req.ProofRequestID)) {
		writeError(w, http.StatusBadRequest, "Invalid proofRequestId")
		return
	}
	if !validID(strings.TrimSpace(req.CredentialID)) {
		writeError(w, http.StatusBadRequest, "Invalid credentialId")
		return
	}
	verified, err := s.proofs.Present(r.Context(), req.ProofRequestID, req.CredentialID)
	if err != nil {
		s.domainError(w, err, "Credential not found")
		return
	}
	writeJSON(w, http.StatusOK, presentProofResponse{OK: true, Verified: verified})
}

// ListConnections returns the newest 50 connections.
func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	out, err := s.conns.List(r.Context())
	if err != nil {
		s.domainError(w, err, "not found")
		return
	}
	items := make([]connectionItem, 0, len(out))
	for _, c := range out {
		items = append(items, toConnectionItem(c))
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

// ListCredentials returns the newest 50 credentials.
func (s *Server) ListCredentials(w http.ResponseWriter, r *http.Request) {
	out, err := s.creds.List(r.Context())
	if err != nil {
		s.domainError(w, err, "not found")
		return
	}
	items := make([]credentialItem, 0, len(out))
	for _, c := range out {
		items = append(items, toCredentialItem(c))
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

// ListProofRequests returns the newest 50 proof requests.
func (s *Server) ListProofRequests(w http.ResponseWriter, r *http.Request) {
	out, err := s.proofs.ListRequests(r.Context())
	if err != nil {
		s.domainError(w, err, "not found")
		return
	}
	items := make([]proofRequestItem, 0, len(out))
	for _, pr := range out {
		items = append(items, toProofRequestItem(pr))
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

// ListPresentations returns the newest 50 presentations.
func (s *Server) ListPresentations(w http.ResponseWriter, r *http.Request) {
	out, err := s.proofs.ListPresentations(r.Context())
	if err != nil {
		s.domainError(w, err, "not found")
		return
	}
	items := make([]presentationItem, 0, len(out))
	for _, p := range out {
		items = append(items, toPresentationItem(p))
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}
