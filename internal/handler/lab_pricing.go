package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
)

// LabPricingHandler manages a lab's test pricing entries.
type LabPricingHandler struct {
	Pricings *repository.PricingRepo
}

type addPricingRequest struct {
	TestID        uint64 `json:"test_id" validate:"required,gt=0"`
	Price         string `json:"price" validate:"required"`
	DiscountPrice string `json:"discount_price"`
	IsActive      *bool  `json:"is_active"`
}

// AddPricing handles POST /api/pathology/test-pricing. One lab can price
// a given catalog test once; duplicates come back as 409.
func (h *LabPricingHandler) AddPricing(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	var req addPricingRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := model.LabTestPricing{
		LabID:         lid,
		TestID:        req.TestID,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		AddedBy:       lid,
		IsActive:      active,
	}
	if _, err := p.EffectiveAmount(); err != nil {
		return respondErr(c, http.StatusBadRequest, "price is not a valid amount")
	}

	if err := h.Pricings.Add(c.Request().Context(), &p); err != nil {
		if errors.Is(err, repository.ErrDuplicatePricing) {
			return respondErr(c, http.StatusConflict, "pricing for this test already exists")
		}
		return respondErr(c, http.StatusInternalServerError, "could not add pricing")
	}
	return respondOK(c, http.StatusCreated, "pricing added", echo.Map{"id": p.ID})
}

// ListPricing handles GET /api/pathology/test-pricing with optional
// status, price, discountPrice and search query filters.
func (h *LabPricingHandler) ListPricing(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	f := repository.ParsePricingFilter(
		c.QueryParam("status"),
		c.QueryParam("price"),
		c.QueryParam("discountPrice"),
		c.QueryParam("search"),
	)
	items, err := h.Pricings.ListForLab(c.Request().Context(), lid, f)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not load pricing")
	}
	return respondList(c, http.StatusOK, "pricing fetched", items)
}

type updatePricingRequest struct {
	Price         string `json:"price" validate:"required"`
	DiscountPrice string `json:"discount_price"`
	IsActive      *bool  `json:"is_active" validate:"required"`
}

// UpdatePricing handles PUT /api/pathology/test-pricing/:id.
func (h *LabPricingHandler) UpdatePricing(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid pricing id")
	}
	var req updatePricingRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}

	check := model.LabTestPricing{Price: req.Price, DiscountPrice: req.DiscountPrice}
	if _, err := check.EffectiveAmount(); err != nil {
		return respondErr(c, http.StatusBadRequest, "price is not a valid amount")
	}

	err = h.Pricings.Update(c.Request().Context(), lid, id, req.Price, req.DiscountPrice, *req.IsActive)
	if err != nil {
		if errors.Is(err, repository.ErrPricingNotFound) {
			return respondErr(c, http.StatusNotFound, "pricing not found")
		}
		return respondErr(c, http.StatusInternalServerError, "could not update pricing")
	}
	return respondOK(c, http.StatusOK, "pricing updated", nil)
}

// DeletePricing handles DELETE /api/pathology/test-pricing/:id. This is
// a soft delete; existing bookings keep their amounts.
func (h *LabPricingHandler) DeletePricing(c echo.Context) error {
	lid, err := labID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid pricing id")
	}
	if err := h.Pricings.SoftDelete(c.Request().Context(), lid, id); err != nil {
		if errors.Is(err, repository.ErrPricingNotFound) {
			return respondErr(c, http.StatusNotFound, "pricing not found")
		}
		return respondErr(c, http.StatusInternalServerError, "could not delete pricing")
	}
	return respondOK(c, http.StatusOK, "pricing deleted", nil)
}
