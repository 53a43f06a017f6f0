package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/utils"
)

const testSecret = "test-secret"

type fakeLabs struct {
	labs map[uint64]model.Lab
}

func (f *fakeLabs) GetByID(ctx context.Context, id uint64) (model.Lab, error) {
	lab, ok := f.labs[id]
	if !ok {
		return model.Lab{}, repository.ErrLabNotFound
	}
	return lab, nil
}

func invoke(mw echo.MiddlewareFunc, token string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "through")
	})
	_ = handler(c)
	return rec, c
}

func patientToken(t *testing.T, id uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, id, utils.RolePatient, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return tok.Token
}

func labToken(t *testing.T, id uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, id, utils.RoleLab, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return tok.Token
}

func TestPatientAuthAcceptsValidToken(t *testing.T) {
	rec, c := invoke(PatientAuth(testSecret), patientToken(t, 42))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got, _ := c.Get(CtxPatientID).(uint64); got != 42 {
		t.Fatalf("expected patient_id 42 in context, got %v", c.Get(CtxPatientID))
	}
}

func TestPatientAuthRejectsMissingAndBadTokens(t *testing.T) {
	for name, token := range map[string]string{
		"missing": "",
		"garbage": "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			rec, _ := invoke(PatientAuth(testSecret), token)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestPatientAuthRejectsLabToken(t *testing.T) {
	rec, _ := invoke(PatientAuth(testSecret), labToken(t, 1))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong role, got %d", rec.Code)
	}
}

func TestLabAuthLoadsActiveLab(t *testing.T) {
	labs := &fakeLabs{labs: map[uint64]model.Lab{
		1: {ID: 1, LabName: "City Diagnostics", IsActive: true},
	}}
	rec, c := invoke(LabAuth(testSecret, labs), labToken(t, 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got, _ := c.Get(CtxLabID).(uint64); got != 1 {
		t.Fatalf("expected lab_id 1 in context, got %v", c.Get(CtxLabID))
	}
}

func TestLabAuthForbidsDeactivatedLab(t *testing.T) {
	labs := &fakeLabs{labs: map[uint64]model.Lab{
		1: {ID: 1, LabName: "City Diagnostics", IsActive: false},
	}}
	rec, _ := invoke(LabAuth(testSecret, labs), labToken(t, 1))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated lab, got %d", rec.Code)
	}
}

func TestLabAuthRejectsUnknownLab(t *testing.T) {
	labs := &fakeLabs{labs: map[uint64]model.Lab{}}
	rec, _ := invoke(LabAuth(testSecret, labs), labToken(t, 9))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown lab, got %d", rec.Code)
	}
}

func TestLabAuthRejectsPatientToken(t *testing.T) {
	labs := &fakeLabs{labs: map[uint64]model.Lab{
		1: {ID: 1, IsActive: true},
	}}
	rec, _ := invoke(LabAuth(testSecret, labs), patientToken(t, 1))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong role, got %d", rec.Code)
	}
}
