// Package service holds the booking orchestrator: the one place where a
// slot reservation, a price lookup and a ledger insert happen inside a
// single database transaction.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/queue"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
)

var (
	// ErrPricingInactive is returned when a patient books against a
	// pricing the lab has switched off.
	ErrPricingInactive = errors.New("test pricing is not active")
	// ErrSlotLabMismatch is returned when the slot and the pricing
	// belong to different labs.
	ErrSlotLabMismatch = errors.New("slot does not belong to the selected lab")
	// ErrCodeGeneration is returned when no unique booking code could be
	// produced within the retry budget.
	ErrCodeGeneration = errors.New("could not generate a unique booking code")
)

// codeAttempts bounds the retry loop on booking code collisions.
const codeAttempts = 5

// Tx is one booking transaction. All methods run against the same
// underlying database transaction until Commit or Rollback.
type Tx interface {
	SlotForUpdate(ctx context.Context, slotID uint64) (model.LabSlot, error)
	ReserveSlot(ctx context.Context, slotID uint64) error
	Pricing(ctx context.Context, pricingID uint64) (model.LabTestPricing, error)
	InsertBooking(ctx context.Context, b *model.TestBooking) error
	BookingForLab(ctx context.Context, bookingID, labID uint64) (model.TestBooking, error)
	UpdateBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) error
	AttachReport(ctx context.Context, bookingID uint64, reportFile string) error
	Commit() error
	Rollback() error
}

// Store opens booking transactions and performs the out-of-transaction
// slot release used after cancellations.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	ReleaseSlot(ctx context.Context, slotID uint64) error
}

// EventPublisher pushes domain events to the broker. Implementations are
// best effort; the booking flow never fails because a publish did.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	SlotReleaseRequested(ctx context.Context, ev queue.SlotReleaseEvent) error
}

type sqlStore struct{ inner *repository.BookingStore }

// NewStore adapts the SQL booking store to the Store interface.
func NewStore(s *repository.BookingStore) Store { return sqlStore{inner: s} }

func (s sqlStore) Begin(ctx context.Context) (Tx, error)            { return s.inner.Begin(ctx) }
func (s sqlStore) ReleaseSlot(ctx context.Context, id uint64) error { return s.inner.ReleaseSlot(ctx, id) }

// BookingService owns the booking lifecycle: creation, status changes
// and report delivery.
type BookingService struct {
	store Store
	codes CodeGenerator
	pub   EventPublisher
	log   zerolog.Logger
	now   func() time.Time
}

// NewBookingService wires the orchestrator. pub may be nil when no
// broker is configured; events are then skipped.
func NewBookingService(store Store, codes CodeGenerator, pub EventPublisher, log zerolog.Logger) *BookingService {
	return &BookingService{
		store: store,
		codes: codes,
		pub:   pub,
		log:   log.With().Str("component", "booking-service").Logger(),
		now:   time.Now,
	}
}

// BookRequest is the validated input for Book.
type BookRequest struct {
	PatientID   uint64
	PricingID   uint64
	SlotID      uint64
	PaymentMode model.PaymentMode
}

// Book atomically reserves the slot, fixes the amount from the pricing
// at booking time and writes the ledger row. Exactly one of any set of
// concurrent calls for the same slot succeeds; the rest observe
// repository.ErrSlotBooked.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (model.TestBooking, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return model.TestBooking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slot, err := tx.SlotForUpdate(ctx, req.SlotID)
	if err != nil {
		return model.TestBooking{}, err
	}
	if slot.IsBooked {
		return model.TestBooking{}, repository.ErrSlotBooked
	}

	pricing, err := tx.Pricing(ctx, req.PricingID)
	if err != nil {
		return model.TestBooking{}, err
	}
	if !pricing.IsActive {
		return model.TestBooking{}, ErrPricingInactive
	}
	if slot.LabID != pricing.LabID {
		return model.TestBooking{}, ErrSlotLabMismatch
	}

	amount, err := pricing.EffectiveAmount()
	if err != nil {
		return model.TestBooking{}, err
	}

	if err := tx.ReserveSlot(ctx, req.SlotID); err != nil {
		return model.TestBooking{}, err
	}

	booking := model.TestBooking{
		PatientID:     req.PatientID,
		PricingID:     pricing.ID,
		LabID:         pricing.LabID,
		BookingDate:   slot.Date,
		SlotID:        slot.ID,
		Amount:        amount,
		PaymentStatus: paymentStatusFor(req.PaymentMode),
		BookingStatus: model.BookingConfirmed,
		ReportStatus:  model.ReportPending,
		PaymentMode:   req.PaymentMode,
	}
	if err := s.insertWithFreshCode(ctx, tx, &booking); err != nil {
		return model.TestBooking{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.TestBooking{}, err
	}
	committed = true

	s.publishConfirmed(ctx, booking, slot)
	return booking, nil
}

// insertWithFreshCode retries the ledger insert with a new code until it
// lands or the attempt budget runs out.
func (s *BookingService) insertWithFreshCode(ctx context.Context, tx Tx, b *model.TestBooking) error {
	for i := 0; i < codeAttempts; i++ {
		code, err := s.codes.Next(s.now())
		if err != nil {
			return err
		}
		b.BookingCode = code
		err = tx.InsertBooking(ctx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return err
		}
		s.log.Warn().Str("booking_code", code).Msg("booking code collision, retrying")
	}
	return ErrCodeGeneration
}

// UpdateStatus applies a lab-requested status change after validating it
// against the booking state machine. Cancelling releases the slot; if
// the inline release fails the release is queued for retry.
func (s *BookingService) UpdateStatus(ctx context.Context, labID, bookingID uint64, next model.BookingStatus) (model.TestBooking, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return model.TestBooking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := tx.BookingForLab(ctx, bookingID, labID)
	if err != nil {
		return model.TestBooking{}, err
	}
	if !booking.BookingStatus.CanTransitionTo(next) {
		return model.TestBooking{}, model.ErrInvalidTransition
	}
	if err := tx.UpdateBookingStatus(ctx, bookingID, next); err != nil {
		return model.TestBooking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.TestBooking{}, err
	}
	committed = true
	booking.BookingStatus = next

	if next == model.BookingCancelled {
		s.releaseSlot(ctx, booking)
	}
	return booking, nil
}

// UploadReport attaches a stored report file to the booking and moves it
// to its terminal state.
func (s *BookingService) UploadReport(ctx context.Context, labID, bookingID uint64, reportFile string) (model.TestBooking, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return model.TestBooking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := tx.BookingForLab(ctx, bookingID, labID)
	if err != nil {
		return model.TestBooking{}, err
	}
	if !booking.BookingStatus.CanTransitionTo(model.BookingCompleted) {
		return model.TestBooking{}, model.ErrInvalidTransition
	}
	if err := tx.AttachReport(ctx, bookingID, reportFile); err != nil {
		return model.TestBooking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.TestBooking{}, err
	}
	committed = true

	booking.ReportFile = reportFile
	booking.ReportStatus = model.ReportUploaded
	booking.BookingStatus = model.BookingCompleted
	return booking, nil
}

// releaseSlot tries the inline release and falls back to the durable
// queue so a cancelled booking can never strand its slot.
func (s *BookingService) releaseSlot(ctx context.Context, booking model.TestBooking) {
	err := s.store.ReleaseSlot(ctx, booking.SlotID)
	if err == nil {
		return
	}
	s.log.Error().Err(err).
		Uint64("slot_id", booking.SlotID).
		Uint64("booking_id", booking.ID).
		Msg("inline slot release failed, queueing retry")
	if s.pub == nil {
		return
	}
	ev := queue.SlotReleaseEvent{
		SlotID:      booking.SlotID,
		BookingID:   booking.ID,
		RequestedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.pub.SlotReleaseRequested(ctx, ev); err != nil {
		s.log.Error().Err(err).Uint64("slot_id", booking.SlotID).Msg("slot release enqueue failed")
	}
}

func (s *BookingService) publishConfirmed(ctx context.Context, booking model.TestBooking, slot model.LabSlot) {
	if s.pub == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		PatientID:   booking.PatientID,
		LabID:       booking.LabID,
		BookingDate: booking.BookingDate,
		SlotID:      slot.ID,
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		Amount:      booking.Amount,
		PaymentMode: string(booking.PaymentMode),
		ConfirmedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.pub.BookingConfirmed(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("booking_code", booking.BookingCode).Msg("booking confirmed publish failed")
	}
}

// paymentStatusFor maps the payment mode to the initial payment status:
// online payments are captured up front, everything else is collected
// later.
func paymentStatusFor(mode model.PaymentMode) model.PaymentStatus {
	if mode == model.PayOnline {
		return model.PaymentPaid
	}
	return model.PaymentPending
}
