package handler

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into Echo so handlers
// can call c.Validate on bound request structs.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator returns a validator for request structs.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator. Handlers turn a failure into a
// 400 inside the usual response envelope.
func (v *RequestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
