// Package model defines domain entities used by services and repositories.
package model

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Connection statuses.
const (
	ConnInvitationCreated = "invitation-created"
	ConnConnected         = "connected"
)

// Credential statuses. Offered is the initial state; accepted/rejected are terminal.
const (
	CredOffered  = "offered"
	CredAccepted = "accepted"
	CredRejected = "rejected"
)

// Proof request statuses. Requested is the initial state; declined/presented are terminal.
const (
	ProofRequested = "requested"
	ProofDeclined  = "declined"
	ProofPresented = "presented"
)

// PresPresented is the only status a presentation ever holds.
const PresPresented = "presented"

// CredentialTypeUnknown is used when the issuer supplies no department claim.
const CredentialTypeUnknown = "UnknownCredential"

// Claims is a flat mapping of claim names to primitive values.
type Claims map[string]any

// Connection is a pairing record between an issuer/verifier and a holder.
// ConnectionID is empty until a holder redeems the invite code and is
// immutable afterwards.
type Connection struct {
	ID           uuid.UUID // store-assigned PK
	InvitationID string
	InviteCode   string
	Label        string
	Alias        string
	Status       string
	ConnectionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credential is an issued bundle of claims with an acceptance lifecycle.
// Claims holds the stored document verbatim: an encrypted envelope for
// records written by this server, possibly plaintext for legacy records.
type Credential struct {
	ID           uuid.UUID // store-assigned PK
	ConnectionID string
	Type         string
	Status       string
	Claims       json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Predicate is a single constraint inside a proof request.
type Predicate struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// ProofRequestBody is a verifier's self-describing ask: attribute names to
// reveal plus predicate constraints.
type ProofRequestBody struct {
	Ask        []string    `json:"ask"`
	Predicates []Predicate `json:"predicates"`
}

// DefaultProofRequest is the ask used when a verifier omits the request body.
func DefaultProofRequest() ProofRequestBody {
	return ProofRequestBody{
		Ask:        []string{"name", "department"},
		Predicates: []Predicate{{Field: "age", Op: ">=", Value: 20}},
	}
}

// ProofRequest is a verifier's ask bound to a connection.
type ProofRequest struct {
	ID           uuid.UUID // store-assigned PK
	ConnectionID string
	Request      ProofRequestBody
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Presentation is the holder's response to a proof request. It is created at
// most once per successful present and never mutated; Revealed is the only
// place decrypted claims leave the envelope.
type Presentation struct {
	ID             uuid.UUID // store-assigned PK
	ProofRequestID string
	CredentialID   string
	Revealed       Claims
	Status         string
	CreatedAt      time.Time
}
