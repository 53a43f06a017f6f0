package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/queue"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
)

// memStore is an in-memory Store. Each transaction holds the store lock
// from Begin to Commit/Rollback, which mirrors the row locking the SQL
// implementation gets from SELECT ... FOR UPDATE.
type memStore struct {
	mu         sync.Mutex
	slots      map[uint64]model.LabSlot
	pricings   map[uint64]model.LabTestPricing
	bookings   map[uint64]model.TestBooking
	codes      map[string]bool
	nextID     uint64
	releaseErr error
	released   []uint64
}

func newMemStore() *memStore {
	return &memStore{
		slots:    map[uint64]model.LabSlot{},
		pricings: map[uint64]model.LabTestPricing{},
		bookings: map[uint64]model.TestBooking{},
		codes:    map[string]bool{},
		nextID:   1,
	}
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{store: s}, nil
}

func (s *memStore) ReleaseSlot(ctx context.Context, slotID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.releaseErr != nil {
		return s.releaseErr
	}
	slot, ok := s.slots[slotID]
	if !ok {
		return repository.ErrSlotNotFound
	}
	slot.IsBooked = false
	s.slots[slotID] = slot
	s.released = append(s.released, slotID)
	return nil
}

// memTx stages writes and applies them on Commit.
type memTx struct {
	store    *memStore
	done     bool
	reserved uint64
	inserted *model.TestBooking
	statusOf uint64
	status   model.BookingStatus
	reportOf uint64
	report   string
}

func (t *memTx) SlotForUpdate(ctx context.Context, slotID uint64) (model.LabSlot, error) {
	slot, ok := t.store.slots[slotID]
	if !ok {
		return model.LabSlot{}, repository.ErrSlotNotFound
	}
	return slot, nil
}

func (t *memTx) ReserveSlot(ctx context.Context, slotID uint64) error {
	slot, ok := t.store.slots[slotID]
	if !ok {
		return repository.ErrSlotNotFound
	}
	if slot.IsBooked {
		return repository.ErrSlotBooked
	}
	t.reserved = slotID
	return nil
}

func (t *memTx) Pricing(ctx context.Context, pricingID uint64) (model.LabTestPricing, error) {
	p, ok := t.store.pricings[pricingID]
	if !ok || p.IsDeleted {
		return model.LabTestPricing{}, repository.ErrPricingNotFound
	}
	return p, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *model.TestBooking) error {
	if t.store.codes[b.BookingCode] {
		return repository.ErrDuplicateCode
	}
	b.ID = t.store.nextID
	t.store.nextID++
	cp := *b
	t.inserted = &cp
	return nil
}

func (t *memTx) BookingForLab(ctx context.Context, bookingID, labID uint64) (model.TestBooking, error) {
	b, ok := t.store.bookings[bookingID]
	if !ok || b.LabID != labID {
		return model.TestBooking{}, repository.ErrBookingNotFound
	}
	return b, nil
}

func (t *memTx) UpdateBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) error {
	t.statusOf = bookingID
	t.status = status
	return nil
}

func (t *memTx) AttachReport(ctx context.Context, bookingID uint64, reportFile string) error {
	t.reportOf = bookingID
	t.report = reportFile
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("already finished")
	}
	t.done = true
	if t.reserved != 0 {
		slot := t.store.slots[t.reserved]
		slot.IsBooked = true
		t.store.slots[t.reserved] = slot
	}
	if t.inserted != nil {
		t.store.bookings[t.inserted.ID] = *t.inserted
		t.store.codes[t.inserted.BookingCode] = true
	}
	if t.statusOf != 0 {
		b := t.store.bookings[t.statusOf]
		b.BookingStatus = t.status
		t.store.bookings[t.statusOf] = b
	}
	if t.reportOf != 0 {
		b := t.store.bookings[t.reportOf]
		b.ReportFile = t.report
		b.ReportStatus = model.ReportUploaded
		b.BookingStatus = model.BookingCompleted
		t.store.bookings[t.reportOf] = b
	}
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

// memPublisher records events instead of talking to a broker.
type memPublisher struct {
	mu        sync.Mutex
	confirmed []queue.BookingConfirmedEvent
	releases  []queue.SlotReleaseEvent
}

func (p *memPublisher) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, ev)
	return nil
}

func (p *memPublisher) SlotReleaseRequested(ctx context.Context, ev queue.SlotReleaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases = append(p.releases, ev)
	return nil
}

// seqCodes hands out a fixed sequence of codes, repeating the last one.
type seqCodes struct {
	mu    sync.Mutex
	codes []string
	i     int
}

func (g *seqCodes) Next(now time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.i < len(g.codes)-1 {
		g.i++
		return g.codes[g.i-1], nil
	}
	return g.codes[len(g.codes)-1], nil
}

func testService(store *memStore, codes CodeGenerator, pub EventPublisher) *BookingService {
	if codes == nil {
		codes = NewCodeGenerator()
	}
	return NewBookingService(store, codes, pub, zerolog.Nop())
}

func seedSlotAndPricing(store *memStore) {
	store.slots[10] = model.LabSlot{ID: 10, LabID: 1, Date: "2026-09-15", StartTime: "09:00", EndTime: "09:30"}
	store.pricings[20] = model.LabTestPricing{ID: 20, LabID: 1, TestID: 3, Price: "500", DiscountPrice: "399", IsActive: true}
}

func TestBookFixesAmountAndStatuses(t *testing.T) {
	store := newMemStore()
	seedSlotAndPricing(store)
	pub := &memPublisher{}
	svc := testService(store, nil, pub)

	b, err := svc.Book(context.Background(), BookRequest{
		PatientID: 7, PricingID: 20, SlotID: 10, PaymentMode: model.PayOnline,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b.Amount != 399 {
		t.Errorf("expected discounted amount 399, got %v", b.Amount)
	}
	if b.PaymentStatus != model.PaymentPaid {
		t.Errorf("online booking should start Paid, got %s", b.PaymentStatus)
	}
	if b.BookingStatus != model.BookingConfirmed || b.ReportStatus != model.ReportPending {
		t.Errorf("unexpected initial statuses: %s / %s", b.BookingStatus, b.ReportStatus)
	}
	if b.BookingDate != "2026-09-15" {
		t.Errorf("booking date should come from the slot, got %q", b.BookingDate)
	}
	if ok, _ := regexp.MatchString(`^BK\d{8}$`, b.BookingCode); !ok {
		t.Errorf("unexpected booking code %q", b.BookingCode)
	}
	if !store.slots[10].IsBooked {
		t.Error("slot should be booked after commit")
	}
	if len(pub.confirmed) != 1 {
		t.Errorf("expected one confirmed event, got %d", len(pub.confirmed))
	}
}

func TestBookCashStartsPending(t *testing.T) {
	store := newMemStore()
	seedSlotAndPricing(store)
	svc := testService(store, nil, nil)

	b, err := svc.Book(context.Background(), BookRequest{
		PatientID: 7, PricingID: 20, SlotID: 10, PaymentMode: model.PayCashOnCollection,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b.PaymentStatus != model.PaymentPending {
		t.Errorf("cash booking should start Pending, got %s", b.PaymentStatus)
	}
}

func TestBookRejectsTakenSlot(t *testing.T) {
	store := newMemStore()
	seedSlotAndPricing(store)
	svc := testService(store, nil, nil)
	req := BookRequest{PatientID: 7, PricingID: 20, SlotID: 10, PaymentMode: model.PayOnline}

	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := svc.Book(context.Background(), req); !errors.Is(err, repository.ErrSlotBooked) {
		t.Fatalf("expected ErrSlotBooked, got %v", err)
	}
}

func TestBookConcurrentExactlyOneWins(t *testing.T) {
	store := newMemStore()
	seedSlotAndPricing(store)
	svc := testService(store, nil, nil)

	const n = 25
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), BookRequest{
				PatientID: uint64(100 + i), PricingID: 20, SlotID: 10,
				PaymentMode: model.PayCashOnCollection,
			})
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrSlotBooked):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if conflicts != n-1 {
		t.Fatalf("expected %d conflicts, got %d", n-1, conflicts)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("expected one booking row, got %d", len(store.bookings))
	}
}

func TestBookFailuresLeaveNothingBehind(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*memStore)
		request BookRequest
		want    error
	}{
		{
			name:    "inactive pricing",
			mutate:  func(s *memStore) { p := s.pricings[20]; p.IsActive = false; s.pricings[20] = p },
			request: BookRequest{PatientID: 7, PricingID: 20, SlotID: 10},
			want:    ErrPricingInactive,
		},
		{
			name:    "unparseable price",
			mutate:  func(s *memStore) { p := s.pricings[20]; p.Price, p.DiscountPrice = "call us", ""; s.pricings[20] = p },
			request: BookRequest{PatientID: 7, PricingID: 20, SlotID: 10},
			want:    model.ErrInvalidPrice,
		},
		{
			name: "lab mismatch",
			mutate: func(s *memStore) {
				s.pricings[21] = model.LabTestPricing{ID: 21, LabID: 2, TestID: 4, Price: "100", IsActive: true}
			},
			request: BookRequest{PatientID: 7, PricingID: 21, SlotID: 10},
			want:    ErrSlotLabMismatch,
		},
		{
			name:    "missing pricing",
			mutate:  func(s *memStore) {},
			request: BookRequest{PatientID: 7, PricingID: 99, SlotID: 10},
			want:    repository.ErrPricingNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			seedSlotAndPricing(store)
			tc.mutate(store)
			svc := testService(store, nil, nil)

			if _, err := svc.Book(context.Background(), tc.request); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if store.slots[10].IsBooked {
				t.Error("slot must stay free after a failed booking")
			}
			if len(store.bookings) != 0 {
				t.Errorf("no booking row expected, got %d", len(store.bookings))
			}
		})
	}
}

func TestBookRetriesCodeCollision(t *testing.T) {
	store := newMemStore()
	seedSlotAndPricing(store)
	store.codes["BK26090001"] = true
	gen := &seqCodes{codes: []string{"BK26090001", "BK26090002"}}
	svc := testService(store, gen, nil)

	b, err := svc.Book(context.Background(), BookRequest{PatientID: 7, PricingID: 20, SlotID: 10})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b.BookingCode != "BK26090002" {
		t.Fatalf("expected retried code, got %q", b.BookingCode)
	}
}

func TestBookGivesUpAfterCodeAttempts(t *testing.T) {
	store := newMemStore()
	seedSlotAndPricing(store)
	store.codes["BK26090001"] = true
	gen := &seqCodes{codes: []string{"BK26090001"}}
	svc := testService(store, gen, nil)

	if _, err := svc.Book(context.Background(), BookRequest{PatientID: 7, PricingID: 20, SlotID: 10}); !errors.Is(err, ErrCodeGeneration) {
		t.Fatalf("expected ErrCodeGeneration, got %v", err)
	}
	if store.slots[10].IsBooked {
		t.Error("slot must stay free when code generation fails")
	}
}

func seedConfirmedBooking(store *memStore) {
	seedSlotAndPricing(store)
	slot := store.slots[10]
	slot.IsBooked = true
	store.slots[10] = slot
	store.bookings[5] = model.TestBooking{
		ID: 5, BookingCode: "BK26090042", PatientID: 7, PricingID: 20, LabID: 1,
		BookingDate: "2026-09-15", SlotID: 10, Amount: 399,
		PaymentStatus: model.PaymentPending, BookingStatus: model.BookingConfirmed,
		ReportStatus: model.ReportPending, PaymentMode: model.PayCashOnCollection,
	}
	store.codes["BK26090042"] = true
}

func TestCancelReleasesSlot(t *testing.T) {
	store := newMemStore()
	seedConfirmedBooking(store)
	svc := testService(store, nil, nil)

	b, err := svc.UpdateStatus(context.Background(), 1, 5, model.BookingCancelled)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if b.BookingStatus != model.BookingCancelled {
		t.Fatalf("expected Cancelled, got %s", b.BookingStatus)
	}
	if store.slots[10].IsBooked {
		t.Error("slot should be free after cancellation")
	}
}

func TestCancelQueuesReleaseWhenInlineFails(t *testing.T) {
	store := newMemStore()
	seedConfirmedBooking(store)
	store.releaseErr = errors.New("connection reset")
	pub := &memPublisher{}
	svc := testService(store, nil, pub)

	if _, err := svc.UpdateStatus(context.Background(), 1, 5, model.BookingCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(pub.releases) != 1 || pub.releases[0].SlotID != 10 {
		t.Fatalf("expected one queued release for slot 10, got %+v", pub.releases)
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	store := newMemStore()
	seedConfirmedBooking(store)
	b := store.bookings[5]
	b.BookingStatus = model.BookingCompleted
	store.bookings[5] = b
	svc := testService(store, nil, nil)

	if _, err := svc.UpdateStatus(context.Background(), 1, 5, model.BookingCancelled); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateStatusHidesOtherLabsBookings(t *testing.T) {
	store := newMemStore()
	seedConfirmedBooking(store)
	svc := testService(store, nil, nil)

	if _, err := svc.UpdateStatus(context.Background(), 2, 5, model.BookingCancelled); !errors.Is(err, repository.ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound for foreign lab, got %v", err)
	}
}

func TestUploadReportCompletesBooking(t *testing.T) {
	store := newMemStore()
	seedConfirmedBooking(store)
	svc := testService(store, nil, nil)

	b, err := svc.UploadReport(context.Background(), 1, 5, "uploads/reports/abc.pdf")
	if err != nil {
		t.Fatalf("UploadReport: %v", err)
	}
	if b.BookingStatus != model.BookingCompleted || b.ReportStatus != model.ReportUploaded {
		t.Fatalf("unexpected statuses after upload: %s / %s", b.BookingStatus, b.ReportStatus)
	}
	stored := store.bookings[5]
	if stored.ReportFile != "uploads/reports/abc.pdf" {
		t.Fatalf("report file not persisted: %q", stored.ReportFile)
	}
}

func TestUploadReportRejectsCancelledBooking(t *testing.T) {
	store := newMemStore()
	seedConfirmedBooking(store)
	b := store.bookings[5]
	b.BookingStatus = model.BookingCancelled
	store.bookings[5] = b
	svc := testService(store, nil, nil)

	if _, err := svc.UploadReport(context.Background(), 1, 5, "uploads/reports/abc.pdf"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
