package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/avelichko/ssi-sim/internal/errs"
	"github.com/avelichko/ssi-sim/internal/model"
)

// CredentialRepo implements CredentialRepository using PostgreSQL.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

// Insert stores a new credential and returns its store-assigned id.
func (r *CredentialRepo) Insert(ctx context.Context, c model.Credential) (uuid.UUID, error) {
	const q = `
INSERT INTO credentials (connection_id, type, status, claims)
VALUES ($1,$2,$3,$4)
RETURNING id`
	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx, q, c.ConnectionID, c.Type, c.Status, []byte(c.Claims)).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Get returns a single credential by id.
func (r *CredentialRepo) Get(ctx context.Context, id uuid.UUID) (*model.Credential, error) {
	const q = `
SELECT id, connection_id, type, status, claims, created_at, updated_at
FROM credentials WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var (
		c      model.Credential
		claims []byte
	)
	err := row.Scan(&c.ID, &c.ConnectionID, &c.Type, &c.Status, &claims, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	c.Claims = claims
	return &c, nil
}

// SetStatus transitions a credential from one status to another. The prior
// status is a precondition so terminal states stay terminal.
func (r *CredentialRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	const upd = `
UPDATE credentials SET status=$3, updated_at=now()
WHERE id=$1 AND status=$2`
	tag, err := r.db.Pool.Exec(ctx, upd, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: distinguish a missing record from a terminal-state record.
	const probe = `SELECT status FROM credentials WHERE id=$1`
	var cur string
	if err := r.db.Pool.QueryRow(ctx, probe, id).Scan(&cur); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	return errs.ErrStateConflict
}

// List returns up to limit credentials, newest first by creation time.
func (r *CredentialRepo) List(ctx context.Context, limit int) ([]model.Credential, error) {
	const q = `
SELECT id, connection_id, type, status, claims, created_at, updated_at
FROM credentials
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Credential
	for rows.Next() {
		var (
			c      model.Credential
			claims []byte
		)
		if err = rows.Scan(&c.ID, &c.ConnectionID, &c.Type, &c.Status, &claims,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Claims = claims
		out = append(out, c)
	}
	return out, rows.Err()
}
