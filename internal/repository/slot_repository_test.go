package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var slotRows = []string{"id", "registration_id", "date", "start_time", "end_time", "is_booked", "created_at", "updated_at"}

func freeSlotRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(slotRows).
		AddRow(1, 1, "2026-09-15", "09:00", "09:30", false, now, now)
}

func TestDeleteRemovesFreeSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM lab_slots WHERE id`).WillReturnRows(freeSlotRow())
	mock.ExpectExec(`DELETE FROM lab_slots WHERE id = \? AND is_booked = 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewSlotRepo(db).Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeleteLosesRaceToBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// The slot reads as free, then a booking lands before the guarded
	// delete runs, so the delete matches nothing.
	mock.ExpectQuery(`SELECT (.+) FROM lab_slots WHERE id`).WillReturnRows(freeSlotRow())
	mock.ExpectExec(`DELETE FROM lab_slots WHERE id = \? AND is_booked = 0`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewSlotRepo(db).Delete(context.Background(), 1); !errors.Is(err, ErrSlotBooked) {
		t.Fatalf("expected ErrSlotBooked, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
