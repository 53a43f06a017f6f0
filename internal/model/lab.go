package model

import "time"

// Lab is a registered pathology lab (the `registrations` table keeps the
// name used by the legacy admin panel). IsActive is the admin-controlled
// business switch; IsDeleted is the soft-delete lifecycle flag. A lab
// can be inactive without being deleted, and queries must treat the two
// independently.
type Lab struct {
	ID           uint64    // registrations.id
	LabName      string    // registrations.lab_name
	OwnerName    string    // registrations.owner_name
	Phone        string    // registrations.phone (unique, login identifier)
	Email        string    // registrations.email
	PasswordHash string    // registrations.password_hash
	FullAddress  string    // registrations.full_address
	AreaName     string    // registrations.area_name
	City         string    // registrations.city
	IsActive     bool      // registrations.is_active
	IsDeleted    bool      // registrations.is_deleted
	CreatedAt    time.Time // registrations.created_at
	UpdatedAt    time.Time // registrations.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table used by the
// lab portal. Only the SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	LabID     uint64     // refresh_tokens.registration_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
