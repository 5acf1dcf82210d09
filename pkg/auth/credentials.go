package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/krishi-auth/pkg/domain"
)

// DefaultCodeTTL is how far ahead a one-time code's expiry is recorded.
const DefaultCodeTTL = time.Hour

// CredentialConfig holds configuration for the credential service.
type CredentialConfig struct {
	CodeTTL               time.Duration
	StrictEmailValidation bool
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// CredentialService creates accounts, checks passwords and issues one-time codes.
type CredentialService struct {
	config   CredentialConfig
	accounts AccountStore
	hasher   PasswordHasher
	sender   CodeSender
	logger   *slog.Logger
}

// NewCredentialService creates a new credential service.
func NewCredentialService(
	config CredentialConfig,
	accounts AccountStore,
	hasher PasswordHasher,
	sender CodeSender,
	logger *slog.Logger,
) *CredentialService {
	if config.CodeTTL == 0 {
		config.CodeTTL = DefaultCodeTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialService{
		config:   config,
		accounts: accounts,
		hasher:   hasher,
		sender:   sender,
		logger:   logger,
	}
}

// Register creates an unverified account and mails it a registration code.
//
// The account is persisted before the code is sent. A delivery failure is
// returned to the caller but the account row stays; Resend recovers it.
func (s *CredentialService) Register(ctx context.Context, name, email, password string) (*domain.Account, error) {
	name = SanitizeName(name)
	if name == "" || email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	if s.config.StrictEmailValidation {
		email = NormalizeEmail(email)
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	_, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return nil, domain.ErrAccountExists
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	now := s.config.Now()
	account := &domain.Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	account.SetCode(code, domain.CodePurposeRegistration, now.Add(s.config.CodeTTL))

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account registered", "account_id", account.ID)

	if err := s.send(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// Login checks the password and, on success, replaces the pending code with a
// fresh login code. It never issues a session.
func (s *CredentialService) Login(ctx context.Context, email, password string) (*domain.Account, error) {
	if email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}
	if s.config.StrictEmailValidation {
		email = NormalizeEmail(email)
	}

	account, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	if !VerifyPassword(password, account.PasswordHash) {
		return nil, domain.ErrInvalidPassword
	}

	if err := s.issue(ctx, account, domain.CodePurposeLogin); err != nil {
		return nil, err
	}

	return account, nil
}

// Resend replaces the pending code with a fresh one of the same purpose and sends it.
// Accounts without a pending code get a registration code when unverified and a
// login code otherwise.
func (s *CredentialService) Resend(ctx context.Context, email string) (*domain.Account, error) {
	if email == "" {
		return nil, domain.ErrMissingFields
	}
	if s.config.StrictEmailValidation {
		email = NormalizeEmail(email)
	}

	account, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	purpose := domain.CodePurposeLogin
	switch {
	case account.HasPendingCode() && account.Code.Purpose != "":
		purpose = account.Code.Purpose
	case !account.Verified:
		purpose = domain.CodePurposeRegistration
	}

	if err := s.issue(ctx, account, purpose); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *CredentialService) lookup(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return account, nil
}

// issue overwrites the account's pending code, persists it and sends it.
func (s *CredentialService) issue(ctx context.Context, account *domain.Account, purpose domain.CodePurpose) error {
	code, err := GenerateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if account.HasPendingCode() && account.Code.Purpose != purpose {
		s.logger.Warn("replacing pending code",
			"account_id", account.ID,
			"old_purpose", account.Code.Purpose,
			"new_purpose", purpose,
		)
	}

	account.SetCode(code, purpose, s.config.Now().Add(s.config.CodeTTL))
	if err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	return s.send(ctx, account)
}

func (s *CredentialService) send(ctx context.Context, account *domain.Account) error {
	if err := s.sender.SendCode(ctx, account.Email, account.Code.Value, account.Code.Purpose); err != nil {
		s.logger.Error("failed to send code", "error", err, "account_id", account.ID, "purpose", account.Code.Purpose)
		return fmt.Errorf("failed to send code: %w", err)
	}
	s.logger.Info("code sent", "account_id", account.ID, "purpose", account.Code.Purpose)
	return nil
}
