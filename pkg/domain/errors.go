package domain

import "errors"

// Account errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidPassword = errors.New("invalid password")
)

// One-time code errors
var (
	ErrNoPendingCode = errors.New("no pending code for account")
	ErrInvalidCode   = errors.New("invalid code")
	ErrCodeExpired   = errors.New("code expired")
)

// Session errors
var (
	ErrInvalidToken = errors.New("invalid token")
)

// Validation errors
var (
	ErrMissingFields = errors.New("required fields missing")
	ErrInvalidEmail  = errors.New("invalid email address")
)
