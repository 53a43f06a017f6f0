package model

import "time"

// LabSlot is a bookable time window offered by a lab on a given date.
// Dates are stored as "YYYY-MM-DD" strings and times as "HH:MM" so that
// they sort lexicographically, matching how the lab portal filters them.
//
// Fields:
//  ID        – primary key identifier.
//  LabID     – owning lab (registrations.id).
//  Date      – calendar day in "YYYY-MM-DD" form.
//  StartTime – window start in "HH:MM" form.
//  EndTime   – window end in "HH:MM" form.
//  IsBooked  – true while exactly one active booking references the slot.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type LabSlot struct {
	ID        uint64    // lab_slots.id
	LabID     uint64    // lab_slots.registration_id
	Date      string    // lab_slots.date
	StartTime string    // lab_slots.start_time
	EndTime   string    // lab_slots.end_time
	IsBooked  bool      // lab_slots.is_booked
	CreatedAt time.Time // lab_slots.created_at
	UpdatedAt time.Time // lab_slots.updated_at
}

// SlotWindow is the client-supplied shape used when a lab generates a
// batch of slots for one date.
type SlotWindow struct {
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
}
