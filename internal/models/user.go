package models

import "time"

// UserRole mirrors auth-service/app/models/user.py's UserRole enum. The
// original system displays these as Portuguese role names; we keep the
// exact values since they round-trip through JWT claims and stored rows.
type UserRole string

const (
	RoleBusinessAnalyst UserRole = "Analista de negócios"
	RoleCreativeAnalyst UserRole = "Analista de criação"
	RoleCampaignAnalyst UserRole = "Analista de campanhas"
	RoleMarketingManager UserRole = "Gestor de marketing"
)

// User is the identity record (spec §3).
type User struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	FullName       string    `json:"full_name,omitempty" db:"full_name"`
	Role           UserRole  `json:"role" db:"role"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	IsSuperuser    bool      `json:"is_superuser" db:"is_superuser"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// LoginAudit records every login attempt, success or failure. Grounded on
// auth-service/app/models/login_audit.py.
type LoginAudit struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id,omitempty" db:"user_id"`
	Email          string    `json:"email" db:"email"`
	IPAddress      string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent      string    `json:"user_agent,omitempty" db:"user_agent"`
	Success        bool      `json:"success" db:"success"`
	FailureReason  string    `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
