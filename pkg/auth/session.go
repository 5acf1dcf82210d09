package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/krishi-auth/pkg/domain"
)

// DefaultSessionTTL is the lifetime of a session token.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionConfig holds session configuration.
type SessionConfig struct {
	TTL       time.Duration
	JWTSecret []byte
	Issuer    string
	Now       func() time.Time
}

// SessionService issues and resolves signed session tokens.
// Sessions are stateless: there is no server-side revocation.
type SessionService struct {
	config   SessionConfig
	accounts AccountStore
}

// NewSessionService creates a new session service.
func NewSessionService(config SessionConfig, accounts AccountStore) *SessionService {
	if config.TTL == 0 {
		config.TTL = DefaultSessionTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &SessionService{
		config:   config,
		accounts: accounts,
	}
}

// TTL returns the session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.config.TTL
}

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"id"`
}

// Issue signs a session token for a verified account.
func (s *SessionService) Issue(account *domain.Account) (*domain.Session, error) {
	now := s.config.Now()
	expiresAt := now.Add(s.config.TTL)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		AccountID: account.ID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		Token:     signed,
		AccountID: account.ID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken validates the signature and expiry of a token and returns the
// account ID it carries.
func (s *SessionService) ParseToken(tokenString string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.config.Now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.config.JWTSecret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, domain.ErrInvalidToken
	}

	id, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}

// SessionStatus is the outcome of resolving a session token.
type SessionStatus int

const (
	// SessionMissing means no token was presented.
	SessionMissing SessionStatus = iota
	// SessionInvalid means the token failed signature or expiry checks.
	SessionInvalid
	// SessionAccountMissing means the token was valid but its account is gone.
	SessionAccountMissing
	// SessionValid means the token resolved to an account.
	SessionValid
)

// SessionResult is what Resolve found. Err is set for failures other than a
// missing token or unknown account, e.g. a store outage.
type SessionResult struct {
	Status  SessionStatus
	Account *domain.Account
	Err     error
}

// Valid reports whether the session resolved to an account.
func (r SessionResult) Valid() bool {
	return r.Status == SessionValid
}

// Resolve turns a presented token into an account. Callers decide how to treat
// each failure status.
func (s *SessionService) Resolve(ctx context.Context, tokenString string) SessionResult {
	if tokenString == "" {
		return SessionResult{Status: SessionMissing}
	}

	id, err := s.ParseToken(tokenString)
	if err != nil {
		return SessionResult{Status: SessionInvalid, Err: err}
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return SessionResult{Status: SessionAccountMissing, Err: err}
		}
		return SessionResult{Status: SessionInvalid, Err: err}
	}

	return SessionResult{Status: SessionValid, Account: account}
}
