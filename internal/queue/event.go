// Package queue defines the message payloads exchanged over the broker
// and the background consumers that process them.
package queue

// BookingConfirmedEvent is published after a booking transaction commits.
// It carries enough detail for downstream consumers to log or notify
// without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64  `json:"booking_id"`
	BookingCode string  `json:"booking_code"`
	PatientID   uint64  `json:"patient_id"`
	LabID       uint64  `json:"lab_id"`
	BookingDate string  `json:"booking_date"`
	SlotID      uint64  `json:"slot_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Amount      float64 `json:"amount"`
	PaymentMode string  `json:"payment_mode"`
	ConfirmedAt string  `json:"confirmed_at"`
}

// SlotReleaseEvent is published when a cancelled booking's slot could not
// be released inline. The consumer retries the release until it sticks,
// which makes the release at-least-once.
type SlotReleaseEvent struct {
	SlotID      uint64 `json:"slot_id"`
	BookingID   uint64 `json:"booking_id"`
	RequestedAt string `json:"requested_at"`
}
