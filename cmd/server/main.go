package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/config"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/database"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/handler"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/queue"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/router"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/service"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unreachable, cache and rate limiting disabled")
	}

	reports, err := storage.NewReportStore(cfg.ReportsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ReportsDir).Msg("report storage init failed")
	}

	patients := repository.NewPatientRepo(db)
	otps := repository.NewOtpRepo(db)
	labs := repository.NewLabRepo(db)
	tokens := repository.NewTokenRepo(db)
	slots := repository.NewSlotRepo(db)
	pricings := repository.NewPricingRepo(db)
	bookings := repository.NewBookingRepo(db)
	bookingStore := repository.NewBookingStore(db)

	var pub service.EventPublisher
	if cfg.RabbitURL != "" {
		pub = queue.NewPublisher(cfg.RabbitURL, log)
		queue.NewConsumer(cfg.RabbitURL, bookingStore, log).Start()
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, broker events disabled")
	}

	booker := service.NewBookingService(service.NewStore(bookingStore), service.NewCodeGenerator(), pub, log)

	patientAuth := &handler.PatientAuthHandler{
		Patients:     patients,
		Otps:         otps,
		JWTSecret:    cfg.JWTSecret,
		AccessTTLMin: cfg.AccessTTLMin,
		OtpTTL:       time.Duration(cfg.OtpTTLMin) * time.Minute,
		EchoOtp:      cfg.Env != "prod",
	}
	patientBooking := &handler.PatientBookingHandler{
		Pricings: pricings,
		Slots:    slots,
		Bookings: bookings,
		Reports:  reports,
		Booker:   booker,
	}
	labAuth := &handler.LabAuthHandler{
		Labs:           labs,
		Tokens:         tokens,
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}
	labSlots := &handler.LabSlotHandler{Slots: slots}
	labPricing := &handler.LabPricingHandler{Pricings: pricings}
	labBookings := &handler.LabBookingHandler{
		Bookings: bookings,
		Booker:   booker,
		Reports:  reports,
	}

	e := router.New()
	router.RegisterPatient(e, patientAuth, patientBooking, cfg.JWTSecret, rdb)
	router.RegisterPathology(e, labAuth, labSlots, labPricing, labBookings, cfg.JWTSecret, labs, rdb)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
