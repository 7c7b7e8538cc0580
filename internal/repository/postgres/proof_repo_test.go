package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/ssi-sim/internal/errs"
	"github.com/avelichko/ssi-sim/internal/model"
)

func TestProofRepo_InsertRequest_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProofRepo(db)

	id := uuid.Must(uuid.NewV4())
	req := model.DefaultProofRequest()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO proof_requests \(connection_id, request, status\)`).
		WithArgs("conn-1", body, model.ProofRequested).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

	got, err := r.InsertRequest(context.Background(), model.ProofRequest{
		ConnectionID: "conn-1",
		Request:      req,
		Status:       model.ProofRequested,
	})
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestProofRepo_SetRequestStatus_Decline_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProofRepo(db)

	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE proof_requests SET status=\$3, updated_at=now\(\)`).
		WithArgs(id, model.ProofRequested, model.ProofDeclined).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.SetRequestStatus(context.Background(), id, model.ProofRequested, model.ProofDeclined))
}

func TestProofRepo_SetRequestStatus_Terminal(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProofRepo(db)

	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE proof_requests SET status=\$3, updated_at=now\(\)`).
		WithArgs(id, model.ProofRequested, model.ProofDeclined).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT status FROM proof_requests WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(model.ProofPresented))

	err := r.SetRequestStatus(context.Background(), id, model.ProofRequested, model.ProofDeclined)
	require.ErrorIs(t, err, errs.ErrStateConflict)
}

func TestProofRepo_Present_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProofRepo(db)

	prID := uuid.Must(uuid.NewV4())
	presID := uuid.Must(uuid.NewV4())
	revealed := model.Claims{"name": "Ari"}
	revealedDoc, err := json.Marshal(revealed)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE proof_requests SET status=\$2, updated_at=now\(\)`).
		WithArgs(prID, model.ProofPresented, model.ProofRequested).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO proof_presentations \(proof_request_id, credential_id, revealed, status\)`).
		WithArgs(prID.String(), "cred-1", revealedDoc, model.PresPresented).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(presID))
	mock.ExpectCommit()

	got, err := r.Present(context.Background(), prID, model.Presentation{
		ProofRequestID: prID.String(),
		CredentialID:   "cred-1",
		Revealed:       revealed,
		Status:         model.PresPresented,
	})
	require.NoError(t, err)
	require.Equal(t, presID, got)
}

func TestProofRepo_Present_AlreadyPresented(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProofRepo(db)

	prID := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE proof_requests SET status=\$2, updated_at=now\(\)`).
		WithArgs(prID, model.ProofPresented, model.ProofRequested).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT status FROM proof_requests WHERE id=\$1`).
		WithArgs(prID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(model.ProofPresented))
	mock.ExpectRollback()

	_, err := r.Present(context.Background(), prID, model.Presentation{
		ProofRequestID: prID.String(),
		CredentialID:   "cred-1",
		Revealed:       model.Claims{},
		Status:         model.PresPresented,
	})
	require.ErrorIs(t, err, errs.ErrStateConflict)
}

func TestProofRepo_Present_RequestGone(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProofRepo(db)

	prID := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE proof_requests SET status=\$2, updated_at=now\(\)`).
		WithArgs(prID, model.ProofPresented, model.ProofRequested).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT status FROM proof_requests WHERE id=\$1`).
		WithArgs(prID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.Present(context.Background(), prID, model.Presentation{
		ProofRequestID: prID.String(),
		CredentialID:   "cred-1",
		Revealed:       model.Claims{},
		Status:         model.PresPresented,
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProofRepo_ListRequests_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProofRepo(db)

	id := uuid.Must(uuid.NewV4())
	body, err := json.Marshal(model.DefaultProofRequest())
	require.NoError(t, err)
	now := time.Now()

	mock.ExpectQuery(`FROM proof_requests`).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "connection_id", "request", "status", "created_at", "updated_at",
		}).AddRow(id, "conn-1", body, model.ProofRequested, now, now))

	out, err := r.ListRequests(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, []string{"name", "department"}, out[0].Request.Ask)
}

func TestProofRepo_ListPresentations_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProofRepo(db)

	id := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`FROM proof_presentations`).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "proof_request_id", "credential_id", "revealed", "status", "created_at",
		}).AddRow(id, "pr-1", "cred-1", []byte(`{"name":"Ari"}`), model.PresPresented, now))

	out, err := r.ListPresentations(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Ari", out[0].Revealed["name"])
}
