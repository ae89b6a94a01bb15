package auth

import "time"

// Operator represents a staff account allowed to write to the ledger.
type Operator struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a bearer token issued at login.
type Session struct {
	Token      string    `json:"token"`
	OperatorID int64     `json:"operator_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}
