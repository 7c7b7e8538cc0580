package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/avelichko/ssi-sim/internal/errs"
	"github.com/avelichko/ssi-sim/internal/model"
)

// ProofRepo implements ProofRepository using PostgreSQL.
type ProofRepo struct{ db *DB }

// NewProofRepo constructs a proof repository.
func NewProofRepo(db *DB) *ProofRepo { return &ProofRepo{db: db} }

// InsertRequest stores a new proof request and returns its store-assigned id.
func (r *ProofRepo) InsertRequest(ctx context.Context, pr model.ProofRequest) (uuid.UUID, error) {
	body, err := json.Marshal(pr.Request)
	if err != nil {
		return uuid.Nil, err
	}
	const q = `
INSERT INTO proof_requests (connection_id, request, status)
VALUES ($1,$2,$3)
RETURNING id`
	var id uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, pr.ConnectionID, body, pr.Status).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// SetRequestStatus transitions a proof request with a prior-status precondition.
func (r *ProofRepo) SetRequestStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	const upd = `
UPDATE proof_requests SET status=$3, updated_at=now()
WHERE id=$1 AND status=$2`
	tag, err := r.db.Pool.Exec(ctx, upd, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const probe = `SELECT status FROM proof_requests WHERE id=$1`
	var cur string
	if err := r.db.Pool.QueryRow(ctx, probe, id).Scan(&cur); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	return errs.ErrStateConflict
}

// Present transitions the proof request requested->presented and stores the
// presentation in one transaction. The status precondition makes present
// exactly-once: a second call loses the conditional update and rolls back.
func (r *ProofRepo) Present(
	ctx context.Context, proofRequestID uuid.UUID, p model.Presentation,
) (id uuid.UUID, err error) {
	revealed, err := json.Marshal(p.Revealed)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const upd = `
UPDATE proof_requests SET status=$2, updated_at=now()
WHERE id=$1 AND status=$3`
	tag, err := tx.Exec(ctx, upd, proofRequestID, model.ProofPresented, model.ProofRequested)
	if err != nil {
		return uuid.Nil, err
	}
	if tag.RowsAffected() == 0 {
		const probe = `SELECT status FROM proof_requests WHERE id=$1`
		var cur string
		if scanErr := tx.QueryRow(ctx, probe, proofRequestID).Scan(&cur); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				err = errs.ErrNotFound
				return uuid.Nil, err
			}
			err = scanErr
			return uuid.Nil, err
		}
		err = errs.ErrStateConflict
		return uuid.Nil, err
	}

	const ins = `
INSERT INTO proof_presentations (proof_request_id, credential_id, revealed, status)
VALUES ($1,$2,$3,$4)
RETURNING id`
	if err = tx.QueryRow(ctx, ins, p.ProofRequestID, p.CredentialID, revealed, p.Status).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ListRequests returns up to limit proof requests, newest first.
func (r *ProofRepo) ListRequests(ctx context.Context, limit int) ([]model.ProofRequest, error) {
	const q = `
SELECT id, connection_id, request, status, created_at, updated_at
FROM proof_requests
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProofRequest
	for rows.Next() {
		var (
			pr   model.ProofRequest
			body []byte
		)
		if err = rows.Scan(&pr.ID, &pr.ConnectionID, &body, &pr.Status,
			&pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(body, &pr.Request); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// ListPresentations returns up to limit presentations, newest first.
func (r *ProofRepo) ListPresentations(ctx context.Context, limit int) ([]model.Presentation, error) {
	const q = `
SELECT id, proof_request_id, credential_id, revealed, status, created_at
FROM proof_presentations
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Presentation
	for rows.Next() {
		var (
			p        model.Presentation
			revealed []byte
		)
		if err = rows.Scan(&p.ID, &p.ProofRequestID, &p.CredentialID, &revealed,
			&p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(revealed, &p.Revealed); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
