package model

import "time"

// Patient is a marketplace end user. Accounts are created implicitly on
// the first successful OTP verification, so only the mobile number is
// guaranteed to be present.
type Patient struct {
	ID        uint64    // patients.id
	Mobile    string    // patients.mobile (unique)
	Name      string    // patients.name
	Email     string    // patients.email
	Age       uint8     // patients.age (0 when unknown)
	Gender    string    // patients.gender
	IsActive  bool      // patients.is_active
	CreatedAt time.Time // patients.created_at
	UpdatedAt time.Time // patients.updated_at
}

// OtpCode is a one-time login code for a mobile number. Only the latest
// code per number is honoured and codes expire after a few minutes.
type OtpCode struct {
	ID        uint64    // otp_codes.id
	Mobile    string    // otp_codes.mobile
	Code      string    // otp_codes.code
	CreatedAt time.Time // otp_codes.created_at
}
