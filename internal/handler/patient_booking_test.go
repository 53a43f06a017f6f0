package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/middleware"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/storage"
)

type fakeSlotLister struct {
	slots []model.LabSlot
}

func (f fakeSlotLister) FindForDate(ctx context.Context, labID uint64, date string) ([]model.LabSlot, error) {
	return f.slots, nil
}

type fakeBookingReader struct {
	detail repository.BookingDetail
}

func (f fakeBookingReader) FindByPatient(ctx context.Context, patientID uint64) ([]repository.BookingDetail, error) {
	return []repository.BookingDetail{f.detail}, nil
}

func (f fakeBookingReader) GetDetail(ctx context.Context, id uint64) (repository.BookingDetail, error) {
	if id != f.detail.ID {
		return repository.BookingDetail{}, repository.ErrBookingNotFound
	}
	return f.detail, nil
}

func TestListSlotsEndpoint(t *testing.T) {
	h := &PatientBookingHandler{Slots: fakeSlotLister{slots: []model.LabSlot{
		{ID: 10, LabID: 1, Date: "2026-09-15", StartTime: "09:00", EndTime: "09:30"},
		{ID: 11, LabID: 1, Date: "2026-09-15", StartTime: "09:30", EndTime: "10:00", IsBooked: true},
	}}}

	c, rec := bookingContext(t, http.MethodGet, "")
	c.QueryParams().Set("labId", "1")
	c.QueryParams().Set("date", "2026-09-15")
	if err := h.ListSlots(c); err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := envelope(t, rec)
	if body["count"].(float64) != 2 {
		t.Fatalf("expected both windows, got %v", body)
	}

	// Missing labId never reaches the repository.
	c2, rec2 := bookingContext(t, http.MethodGet, "")
	if err := (&PatientBookingHandler{}).ListSlots(c2); err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec2.Code)
	}
}

func TestBookTestValidationKeepsEnvelope(t *testing.T) {
	h := &PatientBookingHandler{}
	c, rec := bookingContext(t, http.MethodPost, `{}`)
	c.Set(middleware.CtxPatientID, uint64(7))
	if err := h.BookTest(c); err != nil {
		t.Fatalf("BookTest: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := envelope(t, rec)
	if body["success"] != false {
		t.Fatalf("validation failure must carry the envelope, got %s", rec.Body.String())
	}
	if body["message"] == "" {
		t.Fatal("expected a validation message")
	}
}

func TestDownloadReportEndpoint(t *testing.T) {
	store, err := storage.NewReportStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewReportStore: %v", err)
	}
	rel, err := store.Save(strings.NewReader("%PDF-1.4 result"), "cbc.pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	h := &PatientBookingHandler{
		Bookings: fakeBookingReader{detail: repository.BookingDetail{ID: 5, PatientID: 7, ReportFile: rel}},
		Reports:  store,
	}

	c, rec := bookingContext(t, http.MethodGet, "")
	c.SetParamNames("bookingId")
	c.SetParamValues("5")
	c.Set(middleware.CtxPatientID, uint64(7))
	if err := h.DownloadReport(c); err != nil {
		t.Fatalf("DownloadReport: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatalf("expected file content, got %q", rec.Body.String())
	}

	// Another patient's booking reads as not found.
	c2, rec2 := bookingContext(t, http.MethodGet, "")
	c2.SetParamNames("bookingId")
	c2.SetParamValues("5")
	c2.Set(middleware.CtxPatientID, uint64(8))
	if err := h.DownloadReport(c2); err != nil {
		t.Fatalf("DownloadReport: %v", err)
	}
	if rec2.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign booking, got %d", rec2.Code)
	}
}
