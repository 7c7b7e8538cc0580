// Package httpapi exposes the SSI exchange REST API polled by the front-ends.
package httpapi

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/avelichko/ssi-sim/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	conns  service.ConnectionService
	creds  service.CredentialService
	proofs service.ProofService
	log    *zap.Logger
}

// New constructs a Server with injected services.
func New(
	conns service.ConnectionService,
	creds service.CredentialService,
	proofs service.ProofService,
	log *zap.Logger,
) *Server {
	return &Server{conns: conns, creds: creds, proofs: proofs, log: log}
}

// Handler returns the routed handler wrapped with recovery, logging and CORS.
// The front-ends are served from other origins and poll these endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.Root)
	mux.HandleFunc("GET /api/health", s.Health)

	mux.HandleFunc("POST /api/issuer/create-invitation", s.CreateInvitation)
	mux.HandleFunc("POST /api/issuer/issue-credential", s.IssueCredential)

	mux.HandleFunc("POST /api/holder/receive-invitation", s.ReceiveInvitation)
	mux.HandleFunc("POST /api/holder/accept-credential", s.AcceptCredential)
	mux.HandleFunc("POST /api/holder/reject-credential", s.RejectCredential)
	mux.HandleFunc("POST /api/holder/decline-proof-request", s.DeclineProofRequest)
	mux.HandleFunc("POST /api/holder/present-proof", s.PresentProof)

	mux.HandleFunc("POST /api/verifier/send-proof-request", s.SendProofRequest)

	mux.HandleFunc("GET /api/connections", s.ListConnections)
	mux.HandleFunc("GET /api/credentials", s.ListCredentials)
	mux.HandleFunc("GET /api/proof-requests", s.ListProofRequests)
	mux.HandleFunc("GET /api/presentations", s.ListPresentations)

	// Recovery innermost so panics are caught before the request log line.
	var h http.Handler = mux
	h = Recovery(s.log, h)
	h = Logging(s.log, h)
	h = cors.AllowAll().Handler(h)
	return h
}
