package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tendant/krishi-auth/pkg/domain"
)

// VerificationConfig holds configuration for the verification service.
type VerificationConfig struct {
	// EnforceExpiry rejects codes past their recorded expiry. Off by default:
	// historically a code stayed valid until it was overwritten.
	EnforceExpiry bool
	// StrictEmailValidation must match the credential service so codes are
	// looked up under the address they were issued to.
	StrictEmailValidation bool
	Now                   func() time.Time
}

// VerificationService checks submitted one-time codes.
type VerificationService struct {
	config   VerificationConfig
	accounts AccountStore
}

// NewVerificationService creates a new verification service.
func NewVerificationService(config VerificationConfig, accounts AccountStore) *VerificationService {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &VerificationService{
		config:   config,
		accounts: accounts,
	}
}

// Verify checks code against the account's pending code. On a match the account
// is marked verified, the code is cleared and the updated account is returned.
// On any failure the stored account is left untouched.
func (s *VerificationService) Verify(ctx context.Context, email, code string) (*domain.Account, error) {
	if email == "" || code == "" {
		return nil, domain.ErrMissingFields
	}
	if s.config.StrictEmailValidation {
		email = NormalizeEmail(email)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if !account.HasPendingCode() {
		return nil, domain.ErrNoPendingCode
	}

	if !wellFormedCode(code) || !constantTimeCompare([]byte(account.Code.Value), []byte(code)) {
		return nil, domain.ErrInvalidCode
	}

	if s.config.EnforceExpiry && account.Code.Expired(s.config.Now()) {
		return nil, domain.ErrCodeExpired
	}

	account.MarkVerified()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	return account, nil
}
