// Package middleware holds the HTTP middleware: JWT auth for both kinds
// of principal, the Redis response cache and the Redis rate limiter.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/utils"
)

// Context keys set by the auth middleware.
const (
	CtxPatientID = "patient_id"
	CtxLabID     = "lab_id"
	CtxLab       = "lab"
)

// parseClaims validates a Bearer token and returns its claims, or nil if
// the token is missing or invalid.
func parseClaims(c echo.Context, secret string) jwt.MapClaims {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}

// subjectID extracts the numeric sub claim. MapClaims decodes JSON
// numbers as float64.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	f, ok := claims["sub"].(float64)
	if !ok || f < 0 {
		return 0, false
	}
	return uint64(f), true
}

// PatientAuth validates a patient access token and puts the patient id
// in the request context.
func PatientAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := parseClaims(c, secret)
			if claims == nil || claims["role"] != utils.RolePatient {
				return unauthorized(c)
			}
			id, ok := subjectID(claims)
			if !ok {
				return unauthorized(c)
			}
			c.Set(CtxPatientID, id)
			return next(c)
		}
	}
}

// LabLoader loads a lab account for the auth check.
type LabLoader interface {
	GetByID(ctx context.Context, id uint64) (model.Lab, error)
}

// LabAuth validates a lab access token, loads the lab and rejects
// deactivated accounts with 403. A token can outlive an admin
// deactivation, so the flag has to be checked per request.
func LabAuth(secret string, labs LabLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := parseClaims(c, secret)
			if claims == nil || claims["role"] != utils.RoleLab {
				return unauthorized(c)
			}
			id, ok := subjectID(claims)
			if !ok {
				return unauthorized(c)
			}
			lab, err := labs.GetByID(c.Request().Context(), id)
			if err != nil {
				if err == repository.ErrLabNotFound {
					return unauthorized(c)
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"success": false, "message": "could not verify account",
				})
			}
			if !lab.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "message": "account is deactivated",
				})
			}
			c.Set(CtxLabID, lab.ID)
			c.Set(CtxLab, lab)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false, "message": "unauthorized",
	})
}
