package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
)

// ErrPatientNotFound is returned when no patient matches the lookup.
var ErrPatientNotFound = errors.New("patient not found")

// PatientRepo manages patient accounts. Patients are created implicitly
// on their first successful OTP verification, so there is no separate
// registration call.
type PatientRepo struct {
	db *sql.DB
}

// NewPatientRepo returns a PatientRepo bound to the given database.
func NewPatientRepo(db *sql.DB) *PatientRepo { return &PatientRepo{db: db} }

// GetByID loads a patient by primary key.
func (r *PatientRepo) GetByID(ctx context.Context, id uint64) (model.Patient, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

// GetByMobile loads a patient by mobile number.
func (r *PatientRepo) GetByMobile(ctx context.Context, mobile string) (model.Patient, error) {
	return r.get(ctx, `WHERE mobile = ?`, mobile)
}

func (r *PatientRepo) get(ctx context.Context, where string, arg any) (model.Patient, error) {
	var p model.Patient
	var name, email, gender sql.NullString
	var age sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, mobile, name, email, age, gender, is_active, created_at, updated_at
		 FROM patients `+where, arg).
		Scan(&p.ID, &p.Mobile, &name, &email, &age, &gender, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Patient{}, ErrPatientNotFound
	}
	if err != nil {
		return model.Patient{}, err
	}
	p.Name = name.String
	p.Email = email.String
	p.Age = uint8(age.Int64)
	p.Gender = gender.String
	return p, nil
}

// EnsureByMobile returns the patient for the mobile number, creating the
// account if it does not exist yet.
func (r *PatientRepo) EnsureByMobile(ctx context.Context, mobile string) (model.Patient, error) {
	p, err := r.GetByMobile(ctx, mobile)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return model.Patient{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO patients (mobile) VALUES (?)`, mobile)
	if err != nil {
		if isDuplicateKey(err) {
			return r.GetByMobile(ctx, mobile)
		}
		return model.Patient{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Patient{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// UpdateProfile overwrites the patient's editable profile fields.
func (r *PatientRepo) UpdateProfile(ctx context.Context, p model.Patient) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE patients SET name = ?, email = ?, age = ?, gender = ? WHERE id = ?`,
		p.Name, p.Email, p.Age, p.Gender, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}
