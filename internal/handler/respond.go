// Package handler implements the HTTP endpoints for both panels: the
// patient app and the pathology lab portal.
package handler

import "github.com/labstack/echo/v4"

// Every response uses the same envelope: {"success": bool, "message":
// string, ...}. List responses additionally carry a count.

func respondOK(c echo.Context, status int, message string, data any) error {
	body := echo.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func respondList[T any](c echo.Context, status int, message string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(status, echo.Map{
		"success": true,
		"message": message,
		"count":   len(items),
		"data":    items,
	})
}

func respondErr(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}
