package domain

import (
	"time"

	"github.com/google/uuid"
)

// CodePurpose tags why a one-time code was issued.
type CodePurpose string

const (
	CodePurposeRegistration CodePurpose = "registration"
	CodePurposeLogin        CodePurpose = "login"
)

// PendingCode is the one-time code currently outstanding for an account.
// The value is stored as plain text.
type PendingCode struct {
	Value     string
	Purpose   CodePurpose
	ExpiresAt time.Time
}

// Expired reports whether the code expired before now.
func (c *PendingCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Account represents a farmer's account.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Code         *PendingCode
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPendingCode returns true if a non-empty code is outstanding.
func (a *Account) HasPendingCode() bool {
	return a.Code != nil && a.Code.Value != ""
}

// SetCode replaces the outstanding code.
func (a *Account) SetCode(value string, purpose CodePurpose, expiresAt time.Time) {
	a.Code = &PendingCode{Value: value, Purpose: purpose, ExpiresAt: expiresAt}
}

// MarkVerified flips the verified flag and clears the outstanding code.
func (a *Account) MarkVerified() {
	a.Verified = true
	a.Code = nil
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	if a.Code != nil {
		code := *a.Code
		c.Code = &code
	}
	return &c
}

// Session is a signed, time-bound credential issued after OTP verification.
type Session struct {
	Token     string
	AccountID uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}
