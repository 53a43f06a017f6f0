package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/middleware"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/service"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/storage"
)

func uploadContext(t *testing.T, filename string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("testReport", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4 report")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	e := echo.New()
	e.Validator = NewRequestValidator()
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestUploadReportFailureLeavesNoFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	reports, err := storage.NewReportStore(dir)
	if err != nil {
		t.Fatalf("NewReportStore: %v", err)
	}

	store := newStubStore()
	store.bookings[5] = model.TestBooking{
		ID: 5, BookingCode: "BK26090042", PatientID: 7, PricingID: 20, LabID: 1,
		SlotID: 10, BookingStatus: model.BookingCancelled,
	}
	h := &LabBookingHandler{
		Booker:  service.NewBookingService(store, service.NewCodeGenerator(), nil, zerolog.Nop()),
		Reports: reports,
	}

	c, rec := uploadContext(t, "result.pdf")
	c.SetParamNames("bookingId")
	c.SetParamValues("5")
	c.Set(middleware.CtxLabID, uint64(1))
	if err := h.UploadReport(c); err != nil {
		t.Fatalf("UploadReport: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a cancelled booking, got %d: %s", rec.Code, rec.Body.String())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected upload left %d file(s) behind", len(entries))
	}
}
