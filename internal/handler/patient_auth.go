package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/model"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/utils"
)

// PatientAuthHandler implements OTP login and the patient profile.
// There is no password flow for patients; a verified mobile number is
// the account.
type PatientAuthHandler struct {
	Patients     *repository.PatientRepo
	Otps         *repository.OtpRepo
	JWTSecret    string
	AccessTTLMin int
	OtpTTL       time.Duration
	// EchoOtp returns the generated code in the response body. Only for
	// non-prod environments without an SMS gateway.
	EchoOtp bool
}

type sendOtpRequest struct {
	Mobile string `json:"mobile" validate:"required"`
}

// SendOtp handles POST /api/patient/send-otp. It issues a fresh four
// digit code for the mobile number, replacing any earlier one.
func (h *PatientAuthHandler) SendOtp(c echo.Context) error {
	var req sendOtpRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}
	if !utils.ValidMobile(req.Mobile) {
		return respondErr(c, http.StatusBadRequest, "invalid mobile number")
	}

	code, err := utils.NewOtp()
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not generate otp")
	}
	if err := h.Otps.Save(c.Request().Context(), req.Mobile, code); err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not store otp")
	}

	data := echo.Map{"mobile": req.Mobile}
	if h.EchoOtp {
		data["otp"] = code
	}
	return respondOK(c, http.StatusOK, "OTP sent successfully", data)
}

type verifyOtpRequest struct {
	Mobile string `json:"mobile" validate:"required"`
	Otp    string `json:"otp" validate:"required,len=4"`
}

// VerifyOtp handles POST /api/patient/verify-otp. On the first
// successful verification for a number the patient account is created.
func (h *PatientAuthHandler) VerifyOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}
	if !utils.ValidMobile(req.Mobile) {
		return respondErr(c, http.StatusBadRequest, "invalid mobile number")
	}

	ctx := c.Request().Context()
	stored, err := h.Otps.Latest(ctx, req.Mobile, h.OtpTTL)
	if err != nil {
		if errors.Is(err, repository.ErrOtpNotFound) {
			return respondErr(c, http.StatusUnauthorized, "invalid or expired OTP")
		}
		return respondErr(c, http.StatusInternalServerError, "could not verify otp")
	}
	if stored.Code != req.Otp {
		return respondErr(c, http.StatusUnauthorized, "invalid or expired OTP")
	}
	_ = h.Otps.Consume(ctx, stored.ID)

	patient, err := h.Patients.EnsureByMobile(ctx, req.Mobile)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not load account")
	}
	if !patient.IsActive {
		return respondErr(c, http.StatusForbidden, "account is deactivated")
	}

	access, err := utils.NewAccessToken(h.JWTSecret, patient.ID, utils.RolePatient, h.AccessTTLMin)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not issue token")
	}
	return respondOK(c, http.StatusOK, "login successful", echo.Map{
		"token":      access.Token,
		"expires_at": access.Exp.Format(time.RFC3339),
		"patient":    patientView(patient),
	})
}

// Profile handles GET /api/patient/profile.
func (h *PatientAuthHandler) Profile(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	patient, err := h.Patients.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPatientNotFound) {
			return respondErr(c, http.StatusNotFound, "patient not found")
		}
		return respondErr(c, http.StatusInternalServerError, "could not load profile")
	}
	return respondOK(c, http.StatusOK, "profile fetched", patientView(patient))
}

type updateProfileRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=100"`
	Email  string `json:"email" validate:"omitempty,email"`
	Age    uint8  `json:"age" validate:"omitempty,gt=0,lte=120"`
	Gender string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
}

// UpdateProfile handles PUT /api/patient/update-profile.
func (h *PatientAuthHandler) UpdateProfile(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, "unauthorized")
	}
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	patient, err := h.Patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPatientNotFound) {
			return respondErr(c, http.StatusNotFound, "patient not found")
		}
		return respondErr(c, http.StatusInternalServerError, "could not load profile")
	}
	patient.Name = req.Name
	patient.Email = req.Email
	patient.Age = req.Age
	patient.Gender = req.Gender
	if err := h.Patients.UpdateProfile(ctx, patient); err != nil {
		return respondErr(c, http.StatusInternalServerError, "could not update profile")
	}
	return respondOK(c, http.StatusOK, "profile updated", patientView(patient))
}

func patientView(p model.Patient) echo.Map {
	return echo.Map{
		"id":     p.ID,
		"mobile": p.Mobile,
		"name":   p.Name,
		"email":  p.Email,
		"age":    p.Age,
		"gender": p.Gender,
	}
}
