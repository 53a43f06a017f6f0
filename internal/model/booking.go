package model

import (
	"errors"
	"fmt"
	"time"
)

// PaymentStatus tracks whether the booking amount has been collected.
type PaymentStatus string

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

// ReportStatus tracks the lab report attached to a booking.
type ReportStatus string

// PaymentMode is how the patient chose to pay.
type PaymentMode string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"

	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCompleted BookingStatus = "Completed"
	BookingCancelled BookingStatus = "Cancelled"

	ReportPending    ReportStatus = "Pending"
	ReportProcessing ReportStatus = "Processing"
	ReportUploaded   ReportStatus = "Uploaded"
	ReportNA         ReportStatus = "NA"

	PayOnline           PaymentMode = "Online"
	PayCashOnCollection PaymentMode = "Cash on Collection"
)

// ErrInvalidTransition is returned when a requested booking status change
// does not match an edge of the lifecycle graph below.
var ErrInvalidTransition = errors.New("invalid booking status transition")

// bookingTransitions is the full lifecycle graph. Completed and Cancelled
// are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// CanTransitionTo reports whether moving from s to next is a valid edge.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseBookingStatus validates a client-supplied status string.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return BookingStatus(s), nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// ParsePaymentMode validates a client-supplied payment mode, defaulting
// to cash on collection when the field is omitted.
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch PaymentMode(s) {
	case PayOnline, PayCashOnCollection:
		return PaymentMode(s), nil
	case "":
		return PayCashOnCollection, nil
	}
	return "", fmt.Errorf("unknown payment mode %q", s)
}

// TestBooking is a patient's reservation of one lab slot against one
// pricing entry. LabID is denormalized from the pricing entry and
// BookingDate is copied from the slot at creation time; both are fixed
// thereafter, as is Amount.
type TestBooking struct {
	ID            uint64        // test_bookings.id
	BookingCode   string        // test_bookings.booking_code (unique, "BKyymmNNNN")
	PatientID     uint64        // test_bookings.patient_id
	PricingID     uint64        // test_bookings.lab_test_pricing_id
	LabID         uint64        // test_bookings.registration_id
	BookingDate   string        // test_bookings.booking_date (copied from the slot)
	SlotID        uint64        // test_bookings.slot_id
	Amount        float64       // test_bookings.amount (fixed at creation)
	PaymentStatus PaymentStatus // test_bookings.payment_status
	BookingStatus BookingStatus // test_bookings.booking_status
	ReportStatus  ReportStatus  // test_bookings.report_status
	PaymentMode   PaymentMode   // test_bookings.payment_mode
	ReportFile    string        // test_bookings.report_file ("" until uploaded)
	CreatedAt     time.Time     // test_bookings.created_at
	UpdatedAt     time.Time     // test_bookings.updated_at
}
