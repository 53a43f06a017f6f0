package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
)

// ErrOtpNotFound is returned when no usable code exists for the number.
var ErrOtpNotFound = errors.New("otp not found or expired")

// OtpRepo stores one-time login codes. Issuing a new code replaces any
// previous one for the same number, so at most one code per number is
// valid at a time.
type OtpRepo struct {
	db *sql.DB
}

// NewOtpRepo returns an OtpRepo bound to the given database.
func NewOtpRepo(db *sql.DB) *OtpRepo { return &OtpRepo{db: db} }

// Save records a fresh code for the mobile number, discarding older ones.
func (r *OtpRepo) Save(ctx context.Context, mobile, code string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE mobile = ?`, mobile); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_codes (mobile, code) VALUES (?, ?)`, mobile, code)
	return err
}

// Latest returns the newest code for the number that was created within
// the given window. Expired or missing codes read as ErrOtpNotFound.
func (r *OtpRepo) Latest(ctx context.Context, mobile string, ttl time.Duration) (model.OtpCode, error) {
	var o model.OtpCode
	err := r.db.QueryRowContext(ctx,
		`SELECT id, mobile, code, created_at FROM otp_codes
		 WHERE mobile = ? AND created_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		mobile, time.Now().Add(-ttl)).
		Scan(&o.ID, &o.Mobile, &o.Code, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return model.OtpCode{}, ErrOtpNotFound
	}
	if err != nil {
		return model.OtpCode{}, err
	}
	return o, nil
}

// Consume deletes a verified code so it cannot be replayed.
func (r *OtpRepo) Consume(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE id = ?`, id)
	return err
}
