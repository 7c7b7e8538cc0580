package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/avelichko/ssi-sim/internal/errs"
	"github.com/avelichko/ssi-sim/internal/model"
)

// ConnectionRepo implements ConnectionRepository using PostgreSQL.
type ConnectionRepo struct{ db *DB }

// NewConnectionRepo constructs a connection repository.
func NewConnectionRepo(db *DB) *ConnectionRepo { return &ConnectionRepo{db: db} }

// Insert stores a new invitation record and returns its store-assigned id.
func (r *ConnectionRepo) Insert(ctx context.Context, c model.Connection) (uuid.UUID, error) {
	const q = `
INSERT INTO connections (invitation_id, invite_code, label, alias, status, connection_id)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`
	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx, q,
		c.InvitationID, c.InviteCode, c.Label, c.Alias, c.Status, c.ConnectionID,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, errs.ErrAlreadyExists
		}
		return uuid.Nil, err
	}
	return id, nil
}

// FindByCode returns the newest connection holding the invite code.
func (r *ConnectionRepo) FindByCode(ctx context.Context, code string) (*model.Connection, error) {
	const q = `
SELECT id, invitation_id, invite_code, label, alias, status, connection_id, created_at, updated_at
FROM connections
WHERE invite_code=$1
ORDER BY created_at DESC
LIMIT 1`
	row := r.db.Pool.QueryRow(ctx, q, code)
	var c model.Connection
	err := row.Scan(&c.ID, &c.InvitationID, &c.InviteCode, &c.Label, &c.Alias,
		&c.Status, &c.ConnectionID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// MarkConnected assigns connectionID and flips status to connected.
func (r *ConnectionRepo) MarkConnected(ctx context.Context, id uuid.UUID, connectionID string) error {
	const q = `
UPDATE connections SET connection_id=$2, status=$3, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, connectionID, model.ConnConnected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// List returns up to limit connections, newest first by creation time.
func (r *ConnectionRepo) List(ctx context.Context, limit int) ([]model.Connection, error) {
	const q = `
SELECT id, invitation_id, invite_code, label, alias, status, connection_id, created_at, updated_at
FROM connections
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Connection
	for rows.Next() {
		var c model.Connection
		if err = rows.Scan(&c.ID, &c.InvitationID, &c.InviteCode, &c.Label, &c.Alias,
			&c.Status, &c.ConnectionID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
