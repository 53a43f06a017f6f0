package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/handler"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
)

type routeLabs struct{}

func (routeLabs) GetByID(ctx context.Context, id uint64) (model.Lab, error) {
	return model.Lab{}, nil
}

// testServer mounts the full route table with empty handlers. Requests
// stop at auth or parameter validation, which is enough to pin down
// method and path registrations.
func testServer() http.Handler {
	e := New()
	RegisterPatient(e, &handler.PatientAuthHandler{}, &handler.PatientBookingHandler{}, "secret", nil)
	RegisterPathology(e, &handler.LabAuthHandler{}, &handler.LabSlotHandler{}, &handler.LabPricingHandler{}, &handler.LabBookingHandler{}, "secret", routeLabs{}, nil)
	return e
}

func TestRouteTable(t *testing.T) {
	srv := testServer()

	cases := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK},
		{"public slot listing", http.MethodGet, "/api/patient/slots", http.StatusBadRequest},
		{"report download needs patient token", http.MethodGet, "/api/patient/report/5", http.StatusUnauthorized},
		{"status update is PATCH", http.MethodPatch, "/api/pathology/update-booking-status/5", http.StatusUnauthorized},
		{"status update rejects PUT", http.MethodPut, "/api/pathology/update-booking-status/5", http.StatusMethodNotAllowed},
		{"change password needs lab token", http.MethodPut, "/api/pathology/change-password", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
