package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/config"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/handler"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/middleware"
)

// RegisterPathology mounts the lab portal API. Every route except login
// and refresh runs behind LabAuth, which also rejects deactivated
// accounts. Login and refresh are rate limited per IP, the rest per
// lab.
func RegisterPathology(e *echo.Echo, auth *handler.LabAuthHandler, slots *handler.LabSlotHandler, pricing *handler.LabPricingHandler, bookings *handler.LabBookingHandler, jwtSecret string, labs middleware.LabLoader, rdb *redis.Client) {
	g := e.Group("/api/pathology")
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g.POST("/login", auth.Login, rl)
	g.POST("/refresh", auth.Refresh, rl)

	l := g.Group("", middleware.LabAuth(jwtSecret, labs), rl)
	l.GET("/profile", auth.Profile)
	l.PUT("/change-password", auth.ChangePassword)

	l.POST("/generate-slots", slots.GenerateSlots)
	l.GET("/get-slots", slots.GetSlots)
	l.DELETE("/delete-slot/:id", slots.DeleteSlot)

	l.POST("/test-pricing", pricing.AddPricing)
	l.GET("/test-pricing", pricing.ListPricing)
	l.PUT("/test-pricing/:id", pricing.UpdatePricing)
	l.DELETE("/test-pricing/:id", pricing.DeletePricing)

	l.GET("/my-bookings", bookings.MyBookings)
	l.PATCH("/update-booking-status/:bookingId", bookings.UpdateBookingStatus)
	l.POST("/upload-report/:bookingId", bookings.UploadReport)
}
