package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/service"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/storage"
)

// LabBookingHandler exposes the lab side of the booking lifecycle:
// listing, status changes and report upload.
type LabBookingHandler struct {
	Bookings *repository.BookingRepo
	Booker   *service.BookingService
	Reports  *storage.ReportStore
}

// MyBookings handles GET /api/pathology/my-bookings with optional
// status, bookingId and date filters. bookingId carries the booking
// code search text, matching the lab portal's existing query string.
func (h *LabBookingHandler) MyBookings(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	f, err := repository.ParseBookingFilter(
		c.QueryParam("status"),
		c.QueryParam("bookingId"),
		c.QueryParam("date"),
	)
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid status filter")
	}
	items, err := h.Bookings.FindByLab(c.Request().Context(), lid, f)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not load bookings")
	}
	return respondList(c, http.StatusOK, "bookings fetched", items)
}

type updateStatusRequest struct {
	BookingStatus string `json:"bookingStatus" validate:"required"`
}

// UpdateBookingStatus handles PATCH /api/pathology/update-booking-status/:bookingId.
// Only transitions allowed by the booking lifecycle succeed; cancelling
// frees the slot.
func (h *LabBookingHandler) UpdateBookingStatus(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	bid, err := pathID(c, "bookingId")
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid booking id")
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}
	next, err := model.ParseBookingStatus(req.BookingStatus)
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "unknown booking status")
	}

	booking, err := h.Booker.UpdateStatus(c.Request().Context(), lid, bid, next)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return respondErr(c, http.StatusNotFound, "booking not found")
		case errors.Is(err, model.ErrInvalidTransition):
			return respondErr(c, http.StatusBadRequest, "status change is not allowed")
		default:
			return respondErr(c, http.StatusInternalServerError, "could not update booking")
		}
	}
	return respondOK(c, http.StatusOK, "booking status updated", echo.Map{
		"booking_id":     booking.ID,
		"booking_code":   booking.BookingCode,
		"booking_status": booking.BookingStatus,
	})
}

// UploadReport handles POST /api/pathology/upload-report/:bookingId with
// a multipart "testReport" file. A successful upload completes the
// booking.
func (h *LabBookingHandler) UploadReport(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	bid, err := pathID(c, "bookingId")
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid booking id")
	}

	fh, err := c.FormFile("testReport")
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "testReport file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "could not read uploaded file")
	}
	defer src.Close()

	stored, err := h.Reports.Save(src, fh.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedReport) {
			return respondErr(c, http.StatusBadRequest, "unsupported report file type")
		}
		return respondErr(c, http.StatusInternalServerError, "could not store report")
	}

	booking, err := h.Booker.UploadReport(c.Request().Context(), lid, bid, stored)
	if err != nil {
		// The booking keeps no reference to the file when the attach
		// fails, so drop it from disk too.
		_ = h.Reports.Remove(stored)
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return respondErr(c, http.StatusNotFound, "booking not found")
		case errors.Is(err, model.ErrInvalidTransition):
			return respondErr(c, http.StatusBadRequest, "booking cannot receive a report in its current status")
		default:
			return respondErr(c, http.StatusInternalServerError, "could not attach report")
		}
	}
	return respondOK(c, http.StatusOK, "report uploaded", echo.Map{
		"booking_id":     booking.ID,
		"booking_code":   booking.BookingCode,
		"report_file":    booking.ReportFile,
		"report_status":  booking.ReportStatus,
		"booking_status": booking.BookingStatus,
	})
}
