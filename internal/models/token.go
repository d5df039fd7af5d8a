package models

import "time"

// RefreshToken is an opaque, high-entropy, persisted, revocable token
// (spec §3). Revocation is monotonic: once revoked, never un-revoked.
type RefreshToken struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	IsRevoked bool      `json:"is_revoked" db:"is_revoked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AccessClaims is the JWT claim set for access tokens (spec §6): subject
// is the user's email, type is always "access".
type AccessClaims struct {
	Subject string `json:"sub"`
	Type    string `json:"type"`
}
