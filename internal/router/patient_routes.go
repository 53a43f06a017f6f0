package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/config"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/handler"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/middleware"
)

// RegisterPatient mounts the patient API. The catalog and slot listings
// are public and sit behind the response cache; everything else needs a
// patient token. The OTP endpoints are rate limited per IP, the
// authenticated group per patient.
func RegisterPatient(e *echo.Echo, auth *handler.PatientAuthHandler, booking *handler.PatientBookingHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/api/patient")
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g.POST("/send-otp", auth.SendOtp, rl)
	g.POST("/verify-otp", auth.VerifyOtp, rl)

	cached := g.Group("", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	cached.GET("/all-tests", booking.AllTests)
	cached.GET("/slots", booking.ListSlots)

	p := g.Group("", middleware.PatientAuth(jwtSecret), rl)
	p.GET("/profile", auth.Profile)
	p.PUT("/update-profile", auth.UpdateProfile)
	p.POST("/book-test", booking.BookTest)
	p.GET("/my-bookings", booking.MyBookings)
	p.GET("/report/:bookingId", booking.DownloadReport)
}
