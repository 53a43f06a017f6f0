package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists and validates lab portal refresh tokens. Only the
// SHA-256 of the token value ever touches the database.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh inserts a refresh token hash row for a lab.
func (r *TokenRepo) StoreRefresh(ctx context.Context, labID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (registration_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		labID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the lab id if a non-revoked, non-expired token
// with this hash exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		labID     uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT registration_id, expires_at, revoked_at FROM refresh_tokens
		 WHERE token_hash = ? LIMIT 1`, tokenHash).
		Scan(&labID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid {
		return 0, sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return labID, nil
}

// RevokeByHash marks a single token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = ? AND revoked_at IS NULL`,
		tokenHash)
	return err
}

// RevokeAllForLab revokes every active token the lab holds.
func (r *TokenRepo) RevokeAllForLab(ctx context.Context, labID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE registration_id = ? AND revoked_at IS NULL`,
		labID)
	return err
}
