// Package router wires the HTTP surface: the public health check, the
// patient API under /api/patient and the lab portal under
// /api/pathology.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/handler"
)

// New builds the Echo instance with the shared middleware stack. Rate
// limiting is not global; each route group attaches it where it can key
// on the authenticated caller.
func New() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())

	e.GET("/healthz", handler.Health)
	return e
}
