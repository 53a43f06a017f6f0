package repository

import (
	"context"
	"database/sql"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
)

// SlotRepo provides CRUD operations for lab slots. The booked flag is
// only ever flipped by the booking workflow (see BookingStore); the
// methods here cover the lab portal's slot management and the public
// availability listing.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, registration_id, date, start_time, end_time, is_booked, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }, s *model.LabSlot) error {
	return row.Scan(&s.ID, &s.LabID, &s.Date, &s.StartTime, &s.EndTime, &s.IsBooked, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID loads one slot. ErrSlotNotFound is returned when the id does
// not exist.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.LabSlot, error) {
	var s model.LabSlot
	err := scanSlot(r.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM lab_slots WHERE id = ?`, id), &s)
	if err == sql.ErrNoRows {
		return model.LabSlot{}, ErrSlotNotFound
	}
	return s, err
}

// FindForDate returns every slot of a lab on one date ordered by start
// time. Booked slots are included; callers filter as needed so that the
// patient app can grey out taken windows.
func (r *SlotRepo) FindForDate(ctx context.Context, labID uint64, date string) ([]model.LabSlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM lab_slots
		 WHERE registration_id = ? AND date = ?
		 ORDER BY start_time`, labID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

// FindForLab returns all slots of a lab, optionally restricted to one
// date, ordered by date then start time. This backs the lab portal's
// slot overview.
func (r *SlotRepo) FindForLab(ctx context.Context, labID uint64, date string) ([]model.LabSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM lab_slots WHERE registration_id = ?`
	args := []any{labID}
	if date != "" {
		q += ` AND date = ?`
		args = append(args, date)
	}
	q += ` ORDER BY date, start_time`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func collectSlots(rows *sql.Rows) ([]model.LabSlot, error) {
	slots := make([]model.LabSlot, 0)
	for rows.Next() {
		var s model.LabSlot
		if err := scanSlot(rows, &s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Generate inserts the given windows for one lab and date, skipping
// windows that already exist (same lab, date and start time). It
// returns the resulting set of slots for the date, existing ones
// included, so the caller can echo back the day's schedule.
func (r *SlotRepo) Generate(ctx context.Context, labID uint64, date string, windows []model.SlotWindow) ([]model.LabSlot, error) {
	for _, w := range windows {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO lab_slots (registration_id, date, start_time, end_time) VALUES (?,?,?,?)`,
			labID, date, w.StartTime, w.EndTime)
		if err != nil && !isDuplicateKey(err) {
			return nil, err
		}
	}
	return r.FindForDate(ctx, labID, date)
}

// Release idempotently clears the booked flag. ErrSlotNotFound is
// returned when the slot does not exist; callers treat that as
// non-fatal and log it.
func (r *SlotRepo) Release(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lab_slots SET is_booked = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero affected rows both for a missing slot and
		// for an already-free one; distinguish with a lookup.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an unbooked slot. ErrSlotBooked is returned when the
// slot still carries an active booking; ErrSlotNotFound when the id
// does not exist.
func (r *SlotRepo) Delete(ctx context.Context, id uint64) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.IsBooked {
		return ErrSlotBooked
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM lab_slots WHERE id = ? AND is_booked = 0`, id)
	if err != nil {
		return err
	}
	// A booking can land between the read above and the delete; the
	// guard then matches nothing.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSlotBooked
	}
	return nil
}
