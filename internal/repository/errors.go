// Package repository implements data access over MySQL. Sentinel errors
// declared here let handlers and the booking service distinguish failure
// modes without inspecting driver error strings; the HTTP layer maps
// them onto status codes (404 for the NotFound family, 409/400 for the
// conflict family).
package repository

import (
	"errors"
	"strings"
)

// ErrSlotNotFound is returned when a slot id does not exist.
var ErrSlotNotFound = errors.New("slot not found")

// ErrSlotBooked is returned when an operation requires an unbooked slot:
// reserving a slot whose booked flag is already set, or deleting a slot
// that still carries an active booking.
var ErrSlotBooked = errors.New("slot already booked")

// ErrPricingNotFound is returned when a pricing entry is missing or
// soft-deleted.
var ErrPricingNotFound = errors.New("lab test pricing not found")

// ErrDuplicatePricing is returned when a lab already prices the same test.
var ErrDuplicatePricing = errors.New("pricing for this test already exists")

// ErrBookingNotFound is returned when no booking matches the given id,
// or when the lab scoping the query does not own it. The two cases are
// deliberately indistinguishable to callers.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateCode is returned when inserting a booking hits the unique
// index on booking_code. The booking service regenerates the code and
// retries.
var ErrDuplicateCode = errors.New("booking code already exists")

// ErrLabNotFound is returned when a lab id or phone has no matching row.
var ErrLabNotFound = errors.New("lab not found")

// isDuplicateKey reports whether err is a MySQL 1062 unique-constraint
// violation.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
