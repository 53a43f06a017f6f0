package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
)

// BookingRepo serves the read side of the booking ledger: the patient's
// booking history and the lab portal's filtered booking list. Writes go
// through BookingStore so they stay inside the booking transaction.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingFilter narrows FindByLab results. Zero values mean "no
// constraint". Code is matched as a case-insensitive substring of the
// booking code, mirroring the search box in the lab portal.
type BookingFilter struct {
	Status model.BookingStatus
	Code   string
	Date   string
}

// ParseBookingFilter converts raw query parameters into a BookingFilter.
// An unknown status string is rejected so that typos do not silently
// return an unfiltered list.
func ParseBookingFilter(status, code, date string) (BookingFilter, error) {
	f := BookingFilter{
		Code: strings.TrimSpace(code),
		Date: strings.TrimSpace(date),
	}
	if s := strings.TrimSpace(status); s != "" {
		parsed, err := model.ParseBookingStatus(s)
		if err != nil {
			return BookingFilter{}, err
		}
		f.Status = parsed
	}
	return f, nil
}

// BookingDetail is a booking joined with the display fields both booking
// screens need: the lab's identity, the test title and the slot window.
type BookingDetail struct {
	ID            uint64  `json:"id"`
	BookingCode   string  `json:"booking_code"`
	PatientID     uint64  `json:"patient_id"`
	PatientName   string  `json:"patient_name,omitempty"`
	PatientMobile string  `json:"patient_mobile,omitempty"`
	PricingID     uint64  `json:"lab_test_pricing_id"`
	LabID         uint64  `json:"lab_id"`
	LabName       string  `json:"lab_name"`
	LabCity       string  `json:"lab_city,omitempty"`
	TestTitle     string  `json:"test_title"`
	BookingDate   string  `json:"booking_date"`
	SlotID        uint64  `json:"slot_id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"payment_status"`
	BookingStatus string  `json:"booking_status"`
	ReportStatus  string  `json:"report_status"`
	PaymentMode   string  `json:"payment_mode"`
	ReportFile    string  `json:"report_file,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

const bookingDetailSelect = `
	SELECT b.id, b.booking_code, b.patient_id, COALESCE(pt.name, ''), pt.mobile,
		   b.lab_test_pricing_id, b.registration_id, l.lab_name, COALESCE(l.city, ''), t.title,
		   b.booking_date, b.slot_id, s.start_time, s.end_time,
		   b.amount, b.payment_status, b.booking_status, b.report_status, b.payment_mode,
		   b.report_file, b.created_at
	FROM test_bookings b
	JOIN patients pt ON pt.id = b.patient_id
	JOIN registrations l ON l.id = b.registration_id
	JOIN lab_test_pricings p ON p.id = b.lab_test_pricing_id
	JOIN test_services t ON t.id = p.test_id
	JOIN lab_slots s ON s.id = b.slot_id`

// FindByPatient returns a patient's bookings newest first.
func (r *BookingRepo) FindByPatient(ctx context.Context, patientID uint64) ([]BookingDetail, error) {
	return r.queryDetails(ctx,
		bookingDetailSelect+` WHERE b.patient_id = ? ORDER BY b.created_at DESC`, patientID)
}

// FindByLab returns a lab's bookings newest first, narrowed by the
// filter.
func (r *BookingRepo) FindByLab(ctx context.Context, labID uint64, f BookingFilter) ([]BookingDetail, error) {
	q := bookingDetailSelect + ` WHERE b.registration_id = ?`
	args := []any{labID}
	if f.Status != "" {
		q += ` AND b.booking_status = ?`
		args = append(args, string(f.Status))
	}
	if f.Code != "" {
		q += ` AND b.booking_code LIKE ?`
		args = append(args, "%"+f.Code+"%")
	}
	if f.Date != "" {
		q += ` AND b.booking_date = ?`
		args = append(args, f.Date)
	}
	q += ` ORDER BY b.created_at DESC`
	return r.queryDetails(ctx, q, args...)
}

// GetDetail loads one booking with its joined display fields.
// ErrBookingNotFound is returned when the id does not exist.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (BookingDetail, error) {
	rows, err := r.queryDetails(ctx, bookingDetailSelect+` WHERE b.id = ?`, id)
	if err != nil {
		return BookingDetail{}, err
	}
	if len(rows) == 0 {
		return BookingDetail{}, ErrBookingNotFound
	}
	return rows[0], nil
}

func (r *BookingRepo) queryDetails(ctx context.Context, q string, args ...any) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var reportFile sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(
			&d.ID, &d.BookingCode, &d.PatientID, &d.PatientName, &d.PatientMobile,
			&d.PricingID, &d.LabID, &d.LabName, &d.LabCity, &d.TestTitle,
			&d.BookingDate, &d.SlotID, &d.StartTime, &d.EndTime,
			&d.Amount, &d.PaymentStatus, &d.BookingStatus, &d.ReportStatus, &d.PaymentMode,
			&reportFile, &createdAt,
		); err != nil {
			return nil, err
		}
		if reportFile.Valid {
			d.ReportFile = reportFile.String
		}
		if createdAt.Valid {
			d.CreatedAt = createdAt.Time.UTC().Format("2006-01-02 15:04:05")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
