package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tendant/krishi-auth/pkg/domain"
	"github.com/tendant/krishi-auth/pkg/repository"
	"golang.org/x/crypto/bcrypt"
)

type sentCode struct {
	To      string
	Code    string
	Purpose domain.CodePurpose
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (f *fakeSender) SendCode(_ context.Context, to, code string, purpose domain.CodePurpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentCode{To: to, Code: code, Purpose: purpose})
	return nil
}

func (f *fakeSender) last() sentCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentCode{}
	}
	return f.sent[len(f.sent)-1]
}

var errMailDown = errors.New("smtp: connection refused")

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store        *repository.MemoryAccounts
	sender       *fakeSender
	clock        *fixedClock
	credentials  *CredentialService
	verification *VerificationService
	sessions     *SessionService
}

func newTestEnv(enforceExpiry bool) *testEnv {
	sender := &fakeSender{}
	clock := &fixedClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	store := repository.NewMemoryAccounts(repository.WithClock(clock.Now))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		store:  store,
		sender: sender,
		clock:  clock,
		credentials: NewCredentialService(
			CredentialConfig{Now: clock.Now},
			store,
			BcryptHasher{Cost: bcrypt.MinCost},
			sender,
			logger,
		),
		verification: NewVerificationService(VerificationConfig{EnforceExpiry: enforceExpiry, Now: clock.Now}, store),
		sessions: NewSessionService(SessionConfig{
			JWTSecret: []byte("test-secret"),
			Issuer:    "krishi-auth",
			Now:       clock.Now,
		}, store),
	}
}

// strictEmail turns on address normalization in every service that looks
// accounts up by email.
func (e *testEnv) strictEmail() *testEnv {
	e.credentials.config.StrictEmailValidation = true
	e.verification.config.StrictEmailValidation = true
	return e
}
