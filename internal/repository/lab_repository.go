package repository

import (
	"context"
	"database/sql"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
)

// LabRepo reads registered labs. Registration itself happens through the
// legacy admin panel, so this service only authenticates and displays
// labs that already exist.
type LabRepo struct {
	db *sql.DB
}

// NewLabRepo returns a LabRepo bound to the given database.
func NewLabRepo(db *sql.DB) *LabRepo { return &LabRepo{db: db} }

const labColumns = `id, lab_name, owner_name, phone, email, password_hash,
	full_address, area_name, city, is_active, is_deleted, created_at, updated_at`

func scanLab(row *sql.Row) (model.Lab, error) {
	var l model.Lab
	var email, address, area, city sql.NullString
	err := row.Scan(&l.ID, &l.LabName, &l.OwnerName, &l.Phone, &email, &l.PasswordHash,
		&address, &area, &city, &l.IsActive, &l.IsDeleted, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Lab{}, ErrLabNotFound
	}
	if err != nil {
		return model.Lab{}, err
	}
	l.Email = email.String
	l.FullAddress = address.String
	l.AreaName = area.String
	l.City = city.String
	return l, nil
}

// GetByID loads a lab by primary key. Soft-deleted labs read as not
// found; inactive labs are returned so callers can report 403 instead
// of 404.
func (r *LabRepo) GetByID(ctx context.Context, id uint64) (model.Lab, error) {
	return scanLab(r.db.QueryRowContext(ctx,
		`SELECT `+labColumns+` FROM registrations WHERE id = ? AND is_deleted = 0`, id))
}

// GetByPhone loads a lab by its login phone number.
func (r *LabRepo) GetByPhone(ctx context.Context, phone string) (model.Lab, error) {
	return scanLab(r.db.QueryRowContext(ctx,
		`SELECT `+labColumns+` FROM registrations WHERE phone = ? AND is_deleted = 0`, phone))
}

// UpdatePassword replaces the stored password hash.
func (r *LabRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET password_hash = ? WHERE id = ? AND is_deleted = 0`, hash, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
