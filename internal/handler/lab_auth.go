package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/middleware"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/utils"
)

// LabAuthHandler implements phone and password login for the lab portal
// plus refresh token rotation. Lab accounts are created by the admin
// panel, never through this API.
type LabAuthHandler struct {
	Labs           *repository.LabRepo
	Tokens         *repository.TokenRepo
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

type labLoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/pathology/login. A deactivated account gets
// 403 so the portal can show a distinct message.
func (h *LabAuthHandler) Login(c echo.Context) error {
	var req labLoginRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	lab, err := h.Labs.GetByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrLabNotFound) {
			return respondErr(c, http.StatusUnauthorized, "invalid phone or password")
		}
		return respondErr(c, http.StatusInternalServerError, "could not load account")
	}
	if !utils.VerifyPassword(lab.PasswordHash, req.Password) {
		return respondErr(c, http.StatusUnauthorized, "invalid phone or password")
	}
	if !lab.IsActive {
		return respondErr(c, http.StatusForbidden, "account is deactivated")
	}

	access, err := utils.NewAccessToken(h.JWTSecret, lab.ID, utils.RoleLab, h.AccessTTLMin)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not issue token")
	}
	refresh, err := utils.NewRefreshToken(h.RefreshTTLDays)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not issue token")
	}
	if err := h.Tokens.StoreRefresh(ctx, lab.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not store token")
	}

	return respondOK(c, http.StatusOK, "login successful", echo.Map{
		"token":         access.Token,
		"expires_at":    access.Exp.Format(time.RFC3339),
		"refresh_token": refresh.Raw,
		"lab":           labView(lab),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh handles POST /api/pathology/refresh. The presented token is
// revoked and a new pair is issued, so each refresh token works once.
func (h *LabAuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(req.RefreshToken)
	labIDv, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return respondErr(c, http.StatusUnauthorized, "invalid refresh token")
		}
		return respondErr(c, http.StatusInternalServerError, "could not validate token")
	}
	lab, err := h.Labs.GetByID(ctx, labIDv)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "invalid refresh token")
	}
	if !lab.IsActive {
		return respondErr(c, http.StatusForbidden, "account is deactivated")
	}

	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not rotate token")
	}
	access, err := utils.NewAccessToken(h.JWTSecret, lab.ID, utils.RoleLab, h.AccessTTLMin)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not issue token")
	}
	refresh, err := utils.NewRefreshToken(h.RefreshTTLDays)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not issue token")
	}
	if err := h.Tokens.StoreRefresh(ctx, lab.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not store token")
	}

	return respondOK(c, http.StatusOK, "token refreshed", echo.Map{
		"token":         access.Token,
		"expires_at":    access.Exp.Format(time.RFC3339),
		"refresh_token": refresh.Raw,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ChangePassword handles PUT /api/pathology/change-password. Every
// refresh token the lab holds is revoked afterwards, so other sessions
// have to log in again with the new password.
func (h *LabAuthHandler) ChangePassword(c echo.Context) error {
	lab, ok := c.Get(middleware.CtxLab).(model.Lab)
	if !ok {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}
	if !utils.VerifyPassword(lab.PasswordHash, req.OldPassword) {
		return respondErr(c, http.StatusUnauthorized, "old password is incorrect")
	}

	hash, err := utils.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not update password")
	}
	ctx := c.Request().Context()
	if err := h.Labs.UpdatePassword(ctx, lab.ID, hash); err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not update password")
	}
	if err := h.Tokens.RevokeAllForLab(ctx, lab.ID); err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not revoke sessions")
	}
	return respondOK(c, http.StatusOK, "password changed", nil)
}

// Profile handles GET /api/pathology/profile. The auth middleware has
// already loaded the lab.
func (h *LabAuthHandler) Profile(c echo.Context) error {
	lab, ok := c.Get(middleware.CtxLab).(model.Lab)
	if !ok {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	return respondOK(c, http.StatusOK, "profile fetched", labView(lab))
}

func labView(l model.Lab) echo.Map {
	return echo.Map{
		"id":           l.ID,
		"lab_name":     l.LabName,
		"owner_name":   l.OwnerName,
		"phone":        l.Phone,
		"email":        l.Email,
		"full_address": l.FullAddress,
		"area_name":    l.AreaName,
		"city":         l.City,
		"is_active":    l.IsActive,
	}
}
