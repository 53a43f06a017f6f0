package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/service"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/storage"
)

// SlotLister serves the public availability listing.
type SlotLister interface {
	FindForDate(ctx context.Context, labID uint64, date string) ([]model.LabSlot, error)
}

// BookingReader serves the patient's booking history and single-booking
// lookups.
type BookingReader interface {
	FindByPatient(ctx context.Context, patientID uint64) ([]repository.BookingDetail, error)
	GetDetail(ctx context.Context, id uint64) (repository.BookingDetail, error)
}

// PatientBookingHandler exposes the patient side of booking: browsing
// the catalog, picking a slot, booking, listing past bookings and
// downloading finished reports.
type PatientBookingHandler struct {
	Pricings *repository.PricingRepo
	Slots    SlotLister
	Bookings BookingReader
	Reports  *storage.ReportStore
	Booker   *service.BookingService
}

// AllTests handles GET /api/patient/all-tests: the active catalog across
// every lab.
func (h *PatientBookingHandler) AllTests(c echo.Context) error {
	items, err := h.Pricings.ListForPatients(c.Request().Context())
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not load tests")
	}
	return respondList(c, http.StatusOK, "tests fetched", items)
}

// slotView is the wire shape for slot listings.
type slotView struct {
	ID        uint64 `json:"id"`
	LabID     uint64 `json:"lab_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsBooked  bool   `json:"is_booked"`
}

func slotViews(slots []model.LabSlot) []slotView {
	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotView{
			ID: s.ID, LabID: s.LabID, Date: s.Date,
			StartTime: s.StartTime, EndTime: s.EndTime, IsBooked: s.IsBooked,
		})
	}
	return out
}

// ListSlots handles GET /api/patient/slots?labId=&date=. It returns the
// lab's full day including booked windows so the app can grey them out.
func (h *PatientBookingHandler) ListSlots(c echo.Context) error {
	lab, err := queryID(c, "labId")
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid labId")
	}
	date := c.QueryParam("date")
	if date == "" {
		return respondErr(c, http.StatusBadRequest, "date is required")
	}
	slots, err := h.Slots.FindForDate(c.Request().Context(), lab, date)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not load slots")
	}
	return respondList(c, http.StatusOK, "slots fetched", slotViews(slots))
}

type bookTestRequest struct {
	PricingID   uint64 `json:"lab_test_pricing_id" validate:"required,gt=0"`
	SlotID      uint64 `json:"slot_id" validate:"required,gt=0"`
	PaymentMode string `json:"payment_mode"`
}

// BookTest handles POST /api/patient/book-test: the atomic booking
// operation. Losing a race for the slot comes back as 409.
func (h *PatientBookingHandler) BookTest(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	var req bookTestRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}
	mode, err := model.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid payment mode")
	}

	booking, err := h.Booker.Book(c.Request().Context(), service.BookRequest{
		PatientID:   pid,
		PricingID:   req.PricingID,
		SlotID:      req.SlotID,
		PaymentMode: mode,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotNotFound):
			return respondErr(c, http.StatusNotFound, "slot not found")
		case errors.Is(err, repository.ErrSlotBooked):
			return respondErr(c, http.StatusConflict, "slot is already booked")
		case errors.Is(err, repository.ErrPricingNotFound):
			return respondErr(c, http.StatusNotFound, "test pricing not found")
		case errors.Is(err, service.ErrPricingInactive):
			return respondErr(c, http.StatusBadRequest, "test is not available right now")
		case errors.Is(err, service.ErrSlotLabMismatch):
			return respondErr(c, http.StatusBadRequest, "slot does not belong to this lab")
		case errors.Is(err, model.ErrInvalidPrice):
			return respondErr(c, http.StatusBadRequest, "test has no valid price")
		default:
			return respondErr(c, http.StatusInternalServerError, "could not create booking")
		}
	}

	return respondOK(c, http.StatusCreated, "test booked successfully", echo.Map{
		"booking_id":     booking.ID,
		"booking_code":   booking.BookingCode,
		"booking_date":   booking.BookingDate,
		"slot_id":        booking.SlotID,
		"amount":         booking.Amount,
		"payment_status": booking.PaymentStatus,
		"booking_status": booking.BookingStatus,
		"payment_mode":   booking.PaymentMode,
	})
}

// MyBookings handles GET /api/patient/my-bookings, newest first.
func (h *PatientBookingHandler) MyBookings(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	items, err := h.Bookings.FindByPatient(c.Request().Context(), pid)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not load bookings")
	}
	return respondList(c, http.StatusOK, "bookings fetched", items)
}

// DownloadReport handles GET /api/patient/report/:bookingId. Another
// patient's booking reads as not found, never as forbidden, so booking
// ids cannot be enumerated.
func (h *PatientBookingHandler) DownloadReport(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	bid, err := pathID(c, "bookingId")
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid booking id")
	}

	detail, err := h.Bookings.GetDetail(c.Request().Context(), bid)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return respondErr(c, http.StatusNotFound, "booking not found")
		}
		return respondErr(c, http.StatusInternalServerError, "could not load booking")
	}
	if detail.PatientID != pid {
		return respondErr(c, http.StatusNotFound, "booking not found")
	}
	if detail.ReportFile == "" {
		return respondErr(c, http.StatusNotFound, "report is not available yet")
	}

	f, err := h.Reports.Open(detail.ReportFile)
	if err != nil {
		return respondErr(c, http.StatusNotFound, "report file not found")
	}
	defer f.Close()

	ctype := mime.TypeByExtension(filepath.Ext(detail.ReportFile))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	return c.Stream(http.StatusOK, ctype, f)
}
