package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPrice is returned when neither the discount price nor the
// base price of a pricing entry parses as a non-negative number.
var ErrInvalidPrice = errors.New("pricing entry has no valid price")

// LabTestPricing is a lab's advertised price for one test from the
// shared catalog. Price values are stored as free-form strings because
// they are entered by lab staff through the admin panel; EffectiveAmount
// is the single place where they are parsed into numbers.
//
// IsActive is the business switch (labs can pause a test without losing
// it) while IsDeleted is the lifecycle flag; the two are intentionally
// separate columns.
type LabTestPricing struct {
	ID            uint64    // lab_test_pricings.id
	LabID         uint64    // lab_test_pricings.registration_id
	TestID        uint64    // lab_test_pricings.test_id
	Price         string    // lab_test_pricings.price
	DiscountPrice string    // lab_test_pricings.discount_price ("" when absent)
	AddedBy       uint64    // lab_test_pricings.added_by
	IsActive      bool      // lab_test_pricings.is_active
	IsDeleted     bool      // lab_test_pricings.is_deleted
	CreatedAt     time.Time // lab_test_pricings.created_at
	UpdatedAt     time.Time // lab_test_pricings.updated_at
}

// EffectiveAmount returns the amount a booking against this entry is
// charged: the discount price when present and valid, otherwise the base
// price. ErrInvalidPrice is returned when neither field parses as a
// non-negative number.
func (p LabTestPricing) EffectiveAmount() (float64, error) {
	if v, ok := parseAmount(p.DiscountPrice); ok {
		return v, nil
	}
	if v, ok := parseAmount(p.Price); ok {
		return v, nil
	}
	return 0, ErrInvalidPrice
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// TestService is one entry of the shared test catalog maintained by the
// platform admin. The booking flow only ever reads it.
type TestService struct {
	ID          uint64    // test_services.id
	Title       string    // test_services.title
	Description string    // test_services.description
	IsActive    bool      // test_services.is_active
	CreatedAt   time.Time // test_services.created_at
}
