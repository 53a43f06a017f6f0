package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/middleware"
)

var errNoSubject = errors.New("no authenticated subject in context")

// patientID extracts the patient id the auth middleware stored.
func patientID(c echo.Context) (uint64, error) {
	if v, ok := c.Get(middleware.CtxPatientID).(uint64); ok && v > 0 {
		return v, nil
	}
	return 0, errNoSubject
}

// labID extracts the lab id the auth middleware stored.
func labID(c echo.Context) (uint64, error) {
	if v, ok := c.Get(middleware.CtxLabID).(uint64); ok && v > 0 {
		return v, nil
	}
	return 0, errNoSubject
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return parseID(c.Param(name), name)
}

// queryID parses a positive numeric query parameter.
func queryID(c echo.Context, name string) (uint64, error) {
	return parseID(c.QueryParam(name), name)
}

func parseID(raw, name string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
