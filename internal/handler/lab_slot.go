package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
)

// LabSlotHandler manages a lab's slot inventory.
type LabSlotHandler struct {
	Slots *repository.SlotRepo
}

type generateSlotsRequest struct {
	Date  string             `json:"date" validate:"required,len=10"`
	Slots []model.SlotWindow `json:"slots" validate:"required,min=1,dive"`
}

// GenerateSlots handles POST /api/pathology/generate-slots. Windows that
// already exist for the date are skipped, so regenerating a day is safe
// and never unbooks anything.
func (h *LabSlotHandler) GenerateSlots(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	var req generateSlotsRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}
	for _, w := range req.Slots {
		if w.StartTime >= w.EndTime {
			return respondErr(c, http.StatusBadRequest, "slot start time must be before end time")
		}
	}

	slots, err := h.Slots.Generate(c.Request().Context(), lid, req.Date, req.Slots)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not generate slots")
	}
	return respondList(c, http.StatusCreated, "slots generated", slotViews(slots))
}

// GetSlots handles GET /api/pathology/get-slots?date=. Without a date it
// returns the lab's whole inventory.
func (h *LabSlotHandler) GetSlots(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	slots, err := h.Slots.FindForLab(c.Request().Context(), lid, c.QueryParam("date"))
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not load slots")
	}
	return respondList(c, http.StatusOK, "slots fetched", slotViews(slots))
}

// DeleteSlot handles DELETE /api/pathology/delete-slot/:id. Booked slots
// cannot be deleted; the booking has to be cancelled first.
func (h *LabSlotHandler) DeleteSlot(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid slot id")
	}

	ctx := c.Request().Context()
	slot, err := h.Slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return respondErr(c, http.StatusNotFound, "slot not found")
		}
		return respondErr(c, http.StatusInternalServerError, "could not load slot")
	}
	if slot.LabID != lid {
		return respondErr(c, http.StatusNotFound, "slot not found")
	}

	if err := h.Slots.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotNotFound):
			return respondErr(c, http.StatusNotFound, "slot not found")
		case errors.Is(err, repository.ErrSlotBooked):
			return respondErr(c, http.StatusConflict, "slot has an active booking")
		default:
			return respondErr(c, http.StatusInternalServerError, "could not delete slot")
		}
	}
	return respondOK(c, http.StatusOK, "slot deleted", nil)
}
