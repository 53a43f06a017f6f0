package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
)

// PricingRepo manages a lab's test pricing entries. The booking flow
// only reads pricing (see BookingStore); everything here serves the lab
// portal's pricing screens and the public catalog.
type PricingRepo struct {
	db *sql.DB
}

// NewPricingRepo returns a PricingRepo bound to the given database.
func NewPricingRepo(db *sql.DB) *PricingRepo { return &PricingRepo{db: db} }

// PricingFilter narrows List results. String fields are matched exactly;
// Status filters on the is_active flag when set. Search matches test
// titles case-insensitively.
type PricingFilter struct {
	Status        *bool
	Price         string
	DiscountPrice string
	Search        string
}

// ParsePricingFilter converts raw query parameters into a PricingFilter.
// Coercion of the loosely-typed status parameter happens only here.
func ParsePricingFilter(status, price, discountPrice, search string) PricingFilter {
	f := PricingFilter{
		Price:         strings.TrimSpace(price),
		DiscountPrice: strings.TrimSpace(discountPrice),
		Search:        strings.TrimSpace(search),
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "true", "1":
		v := true
		f.Status = &v
	case "false", "0":
		v := false
		f.Status = &v
	}
	return f
}

// PricingDetail is a pricing entry joined with its test title for
// display in the lab portal and the patient catalog.
type PricingDetail struct {
	ID            uint64 `json:"id"`
	LabID         uint64 `json:"lab_id"`
	LabName       string `json:"lab_name"`
	TestID        uint64 `json:"test_id"`
	TestTitle     string `json:"test_title"`
	Price         string `json:"price"`
	DiscountPrice string `json:"discount_price,omitempty"`
	IsActive      bool   `json:"is_active"`
}

// Add inserts a pricing entry for one lab and test. ErrDuplicatePricing
// is returned when the lab already has a non-deleted entry for the test.
func (r *PricingRepo) Add(ctx context.Context, p *model.LabTestPricing) error {
	var exists uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM lab_test_pricings
		 WHERE registration_id = ? AND test_id = ? AND is_deleted = 0 LIMIT 1`,
		p.LabID, p.TestID).Scan(&exists)
	switch {
	case err == nil:
		return ErrDuplicatePricing
	case err != sql.ErrNoRows:
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO lab_test_pricings (registration_id, test_id, price, discount_price, added_by, is_active)
		 VALUES (?,?,?,?,?,?)`,
		p.LabID, p.TestID, p.Price, nullable(p.DiscountPrice), p.AddedBy, p.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID loads one non-deleted pricing entry.
func (r *PricingRepo) GetByID(ctx context.Context, id uint64) (model.LabTestPricing, error) {
	var p model.LabTestPricing
	var discount sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, registration_id, test_id, price, discount_price, added_by, is_active, is_deleted, created_at, updated_at
		 FROM lab_test_pricings WHERE id = ? AND is_deleted = 0`, id).
		Scan(&p.ID, &p.LabID, &p.TestID, &p.Price, &discount, &p.AddedBy, &p.IsActive, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.LabTestPricing{}, ErrPricingNotFound
	}
	if discount.Valid {
		p.DiscountPrice = discount.String
	}
	return p, err
}

// ListForLab returns a lab's non-deleted pricing entries with test
// titles, narrowed by the filter.
func (r *PricingRepo) ListForLab(ctx context.Context, labID uint64, f PricingFilter) ([]PricingDetail, error) {
	q := `SELECT p.id, p.registration_id, l.lab_name, p.test_id, t.title, p.price, COALESCE(p.discount_price, ''), p.is_active
		  FROM lab_test_pricings p
		  JOIN test_services t ON t.id = p.test_id
		  JOIN registrations l ON l.id = p.registration_id
		  WHERE p.registration_id = ? AND p.is_deleted = 0`
	args := []any{labID}
	if f.Status != nil {
		q += ` AND p.is_active = ?`
		args = append(args, *f.Status)
	}
	if f.Price != "" {
		q += ` AND p.price = ?`
		args = append(args, f.Price)
	}
	if f.DiscountPrice != "" {
		q += ` AND p.discount_price = ?`
		args = append(args, f.DiscountPrice)
	}
	if f.Search != "" {
		q += ` AND t.title LIKE ?`
		args = append(args, "%"+f.Search+"%")
	}
	q += ` ORDER BY p.created_at DESC`
	return r.queryDetails(ctx, q, args...)
}

// ListForPatients returns every active, non-deleted pricing entry across
// labs for the public catalog, newest first. Only active labs appear.
func (r *PricingRepo) ListForPatients(ctx context.Context) ([]PricingDetail, error) {
	const q = `SELECT p.id, p.registration_id, l.lab_name, p.test_id, t.title, p.price, COALESCE(p.discount_price, ''), p.is_active
			   FROM lab_test_pricings p
			   JOIN test_services t ON t.id = p.test_id AND t.is_active = 1
			   JOIN registrations l ON l.id = p.registration_id AND l.is_active = 1 AND l.is_deleted = 0
			   WHERE p.is_active = 1 AND p.is_deleted = 0
			   ORDER BY p.created_at DESC`
	return r.queryDetails(ctx, q)
}

func (r *PricingRepo) queryDetails(ctx context.Context, q string, args ...any) ([]PricingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PricingDetail, 0)
	for rows.Next() {
		var d PricingDetail
		if err := rows.Scan(&d.ID, &d.LabID, &d.LabName, &d.TestID, &d.TestTitle, &d.Price, &d.DiscountPrice, &d.IsActive); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a lab's own entry. Ownership is
// enforced by the WHERE clause; a non-matching pair yields
// ErrPricingNotFound.
func (r *PricingRepo) Update(ctx context.Context, labID, id uint64, price, discountPrice string, active bool) error {
	if err := r.pricingExists(ctx, labID, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE lab_test_pricings SET price = ?, discount_price = ?, is_active = ?
		 WHERE id = ? AND registration_id = ? AND is_deleted = 0`,
		price, nullable(discountPrice), active, id, labID)
	return err
}

// SoftDelete marks a lab's own entry as deleted.
func (r *PricingRepo) SoftDelete(ctx context.Context, labID, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lab_test_pricings SET is_deleted = 1
		 WHERE id = ? AND registration_id = ? AND is_deleted = 0`, id, labID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPricingNotFound
	}
	return nil
}

func (r *PricingRepo) pricingExists(ctx context.Context, labID, id uint64) error {
	var found uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM lab_test_pricings WHERE id = ? AND registration_id = ? AND is_deleted = 0`,
		id, labID).Scan(&found)
	if err == sql.ErrNoRows {
		return ErrPricingNotFound
	}
	return err
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
