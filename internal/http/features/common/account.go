package common

import (
	"time"

	"github.com/tendant/krishi-auth/pkg/domain"
)

// StepVerifyOTP tells clients to collect a one-time code next.
const StepVerifyOTP = "verifyOtp"

// AccountSummary is the account as shown right after register or login.
type AccountSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionAccount is the account returned alongside a new session.
type SessionAccount struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

// AccountView is the full public view of an account. It never carries the
// password hash or the pending code.
type AccountView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PendingResponse answers register and login.
type PendingResponse struct {
	Message string         `json:"message"`
	Step    string         `json:"step"`
	User    AccountSummary `json:"user"`
}

// MessageResponse is a bare {"message": ...} body.
type MessageResponse struct {
	Message string `json:"message"`
}

func NewAccountSummary(a *domain.Account) AccountSummary {
	return AccountSummary{ID: a.ID.String(), Name: a.Name, Email: a.Email}
}

func NewSessionAccount(a *domain.Account) SessionAccount {
	return SessionAccount{ID: a.ID.String(), Name: a.Name, Email: a.Email, IsVerified: a.Verified}
}

func NewAccountView(a *domain.Account) AccountView {
	return AccountView{
		ID:         a.ID.String(),
		Name:       a.Name,
		Email:      a.Email,
		IsVerified: a.Verified,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
