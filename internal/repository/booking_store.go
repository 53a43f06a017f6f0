package repository

import (
	"context"
	"database/sql"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
)

// BookingStore is the SQL side of the booking orchestrator. Every write
// that has to be atomic (reserving the slot, fixing the amount, inserting
// the ledger row) happens through a BookingTx so it lives in one database
// transaction.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore returns a BookingStore bound to the given database.
func NewBookingStore(db *sql.DB) *BookingStore { return &BookingStore{db: db} }

// Begin opens a booking transaction.
func (s *BookingStore) Begin(ctx context.Context) (*BookingTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &BookingTx{tx: tx}, nil
}

// ReleaseSlot frees a slot outside any booking transaction. Used after a
// cancellation has committed and by the queue consumer retrying releases.
func (s *BookingStore) ReleaseSlot(ctx context.Context, slotID uint64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE lab_slots SET is_booked = 0 WHERE id = ?`, slotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var id uint64
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM lab_slots WHERE id = ?`, slotID).Scan(&id)
		if err == sql.ErrNoRows {
			return ErrSlotNotFound
		}
		return err
	}
	return nil
}

// BookingTx wraps a *sql.Tx with the statements the booking flow needs.
type BookingTx struct {
	tx *sql.Tx
}

// SlotForUpdate loads a slot under a row lock. Concurrent bookings for
// the same slot serialize here.
func (t *BookingTx) SlotForUpdate(ctx context.Context, slotID uint64) (model.LabSlot, error) {
	var s model.LabSlot
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, registration_id, date, start_time, end_time, is_booked
		 FROM lab_slots WHERE id = ? FOR UPDATE`, slotID).
		Scan(&s.ID, &s.LabID, &s.Date, &s.StartTime, &s.EndTime, &s.IsBooked)
	if err == sql.ErrNoRows {
		return model.LabSlot{}, ErrSlotNotFound
	}
	if err != nil {
		return model.LabSlot{}, err
	}
	return s, nil
}

// ReserveSlot flips the slot to booked. The is_booked guard in the WHERE
// clause makes the reservation conditional even if a caller skipped the
// row lock: zero affected rows means someone else holds the slot.
func (t *BookingTx) ReserveSlot(ctx context.Context, slotID uint64) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE lab_slots SET is_booked = 1 WHERE id = ? AND is_booked = 0`, slotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotBooked
	}
	return nil
}

// Pricing loads an active pricing row inside the transaction so the
// amount the booking records reflects the price at booking time.
func (t *BookingTx) Pricing(ctx context.Context, pricingID uint64) (model.LabTestPricing, error) {
	var p model.LabTestPricing
	var discount sql.NullString
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, registration_id, test_id, price, discount_price, is_active
		 FROM lab_test_pricings WHERE id = ? AND is_deleted = 0`, pricingID).
		Scan(&p.ID, &p.LabID, &p.TestID, &p.Price, &discount, &p.IsActive)
	if err == sql.ErrNoRows {
		return model.LabTestPricing{}, ErrPricingNotFound
	}
	if err != nil {
		return model.LabTestPricing{}, err
	}
	if discount.Valid {
		p.DiscountPrice = discount.String
	}
	return p, nil
}

// InsertBooking writes the ledger row and fills in the generated id.
// A collision on the unique booking code surfaces as ErrDuplicateCode so
// the caller can retry with a fresh code.
func (t *BookingTx) InsertBooking(ctx context.Context, b *model.TestBooking) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO test_bookings
			(booking_code, patient_id, lab_test_pricing_id, registration_id,
			 booking_date, slot_id, amount, payment_status, booking_status,
			 report_status, payment_mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BookingCode, b.PatientID, b.PricingID, b.LabID,
		b.BookingDate, b.SlotID, b.Amount, string(b.PaymentStatus),
		string(b.BookingStatus), string(b.ReportStatus), string(b.PaymentMode))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateCode
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// BookingForLab loads a booking and checks it belongs to the lab. A
// booking owned by a different lab reads as not found so the portal
// cannot probe other labs' ledgers.
func (t *BookingTx) BookingForLab(ctx context.Context, bookingID, labID uint64) (model.TestBooking, error) {
	var b model.TestBooking
	var reportFile sql.NullString
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, booking_code, patient_id, lab_test_pricing_id, registration_id,
				booking_date, slot_id, amount, payment_status, booking_status,
				report_status, payment_mode, report_file
		 FROM test_bookings WHERE id = ? AND registration_id = ? FOR UPDATE`,
		bookingID, labID).
		Scan(&b.ID, &b.BookingCode, &b.PatientID, &b.PricingID, &b.LabID,
			&b.BookingDate, &b.SlotID, &b.Amount, &b.PaymentStatus, &b.BookingStatus,
			&b.ReportStatus, &b.PaymentMode, &reportFile)
	if err == sql.ErrNoRows {
		return model.TestBooking{}, ErrBookingNotFound
	}
	if err != nil {
		return model.TestBooking{}, err
	}
	if reportFile.Valid {
		b.ReportFile = reportFile.String
	}
	return b, nil
}

// UpdateBookingStatus persists a status change already validated by the
// caller.
func (t *BookingTx) UpdateBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE test_bookings SET booking_status = ? WHERE id = ?`,
		string(status), bookingID)
	return err
}

// AttachReport records the uploaded report file and moves the report and
// booking to their terminal states.
func (t *BookingTx) AttachReport(ctx context.Context, bookingID uint64, reportFile string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE test_bookings
		 SET report_file = ?, report_status = ?, booking_status = ?
		 WHERE id = ?`,
		reportFile, string(model.ReportUploaded), string(model.BookingCompleted), bookingID)
	return err
}

// Commit commits the transaction.
func (t *BookingTx) Commit() error { return t.tx.Commit() }

// Rollback rolls the transaction back. Safe to defer after Commit.
func (t *BookingTx) Rollback() error { return t.tx.Rollback() }
