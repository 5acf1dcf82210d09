// Package idm embeds the Krishi Rakshak account service into another
// application: email + password registration and login, each confirmed with a
// six-digit code sent by email, ending in a signed session token.
//
// Setup:
//
//  1. Open a Postgres connection (lib/pq or pgx stdlib)
//  2. Create an IDM instance and mount its router
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/krishi?sslmode=disable")
//
//	accounts, err := idm.New(idm.Config{
//	    DB:          db,
//	    AutoMigrate: true,
//	    JWTSecret:   "your-secret-key-at-least-32-chars",
//	    Sender:      mySMTPSender,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/api", accounts.Router())
//	r.With(accounts.AuthMiddleware()).Get("/dashboard", dashboard)
//	http.ListenAndServe(":8000", r)
package idm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/krishi-auth/internal/config"
	httpserver "github.com/tendant/krishi-auth/internal/http"
	"github.com/tendant/krishi-auth/internal/http/middleware"
	"github.com/tendant/krishi-auth/internal/httputil"
	"github.com/tendant/krishi-auth/internal/notification"
	"github.com/tendant/krishi-auth/pkg/auth"
	"github.com/tendant/krishi-auth/pkg/repository"
)

// Config holds the configuration for the IDM library.
type Config struct {
	// DB is the database connection. Either DB or Store is required.
	DB *sql.DB

	// AutoMigrate applies the embedded schema to DB before use.
	AutoMigrate bool

	// Store overrides the account store, e.g. repository.NewMemoryAccounts() in tests.
	Store auth.AccountStore

	// JWTSecret is the secret key for signing JWT tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in JWT tokens (default: "krishi-auth").
	JWTIssuer string

	// SessionTTL is the lifetime of session tokens and cookies (default: 7 days).
	SessionTTL time.Duration

	// CodeTTL is the recorded lifetime of one-time codes (default: 1 hour).
	CodeTTL time.Duration

	// EnforceCodeExpiry rejects codes older than CodeTTL.
	EnforceCodeExpiry bool

	// Sender delivers one-time codes (default: log them, development only).
	Sender auth.CodeSender

	// SecureCookies sets the Secure flag on the session cookie.
	SecureCookies bool

	// ExposeInternalErrors includes raw error text in 500 responses.
	ExposeInternalErrors bool

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// IDM is the main identity management instance.
type IDM struct {
	config              Config
	accounts            auth.AccountStore
	credentialService   *auth.CredentialService
	verificationService *auth.VerificationService
	sessionService      *auth.SessionService
}

// New creates a new IDM instance with the given configuration.
// With a DB and no AutoMigrate, it fails if the accounts table is missing.
func New(cfg Config) (*IDM, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	accounts := cfg.Store
	if accounts == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if cfg.AutoMigrate {
			if err := repository.Migrate(ctx, cfg.DB); err != nil {
				return nil, fmt.Errorf("idm: %w", err)
			}
		} else if err := validateSchema(ctx, cfg.DB); err != nil {
			return nil, err
		}
		accounts = repository.NewAccountsRepository(cfg.DB)
	}

	hasher, err := auth.NewPasswordHasher(auth.HasherBcrypt, auth.DefaultBcryptCost)
	if err != nil {
		return nil, err
	}

	return &IDM{
		config:   cfg,
		accounts: accounts,
		credentialService: auth.NewCredentialService(auth.CredentialConfig{
			CodeTTL: cfg.CodeTTL,
		}, accounts, hasher, cfg.Sender, cfg.Logger),
		verificationService: auth.NewVerificationService(auth.VerificationConfig{
			EnforceExpiry: cfg.EnforceCodeExpiry,
		}, accounts),
		sessionService: auth.NewSessionService(auth.SessionConfig{
			TTL:       cfg.SessionTTL,
			JWTSecret: []byte(cfg.JWTSecret),
			Issuer:    cfg.JWTIssuer,
		}, accounts),
	}, nil
}

// Router returns a chi router with all account routes.
// Mount this on your main router:
//
//	r := chi.NewRouter()
//	r.Mount("/api", accounts.Router())
//
// Routes:
//
//	POST /register     - Create an account and mail a registration code
//	POST /login        - Check the password and mail a login code
//	POST /verify-otp   - Exchange a code for a session
//	POST /otp/resend   - Mail a fresh code
//	POST /logout       - Clear the session cookie
//	GET  /check        - Report whether the caller is logged in
//	GET  /getme        - Current account (protected)
func (i *IDM) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logging(i.config.Logger))
	r.Use(middleware.Recover(i.config.Logger))

	httpserver.MountAPI(r, httpserver.RouterConfig{
		Logger:               i.config.Logger,
		CredentialService:    i.credentialService,
		VerificationService:  i.verificationService,
		SessionService:       i.sessionService,
		RateLimitConfig:      config.RateLimitConfig{Enabled: false},
		CookieSecure:         i.config.SecureCookies,
		ExposeInternalErrors: i.config.ExposeInternalErrors,
	})

	return r
}

// SessionService returns the session service for advanced usage.
func (i *IDM) SessionService() *auth.SessionService {
	return i.sessionService
}

// AuthMiddleware returns middleware that rejects requests without a valid session.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(accounts.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (i *IDM) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.RequireSession(i.sessionService)
}

// OptionalAuthMiddleware attaches the account when a valid session is
// presented and never rejects.
func (i *IDM) OptionalAuthMiddleware() func(http.Handler) http.Handler {
	return middleware.OptionalSession(i.sessionService)
}

// Account represents basic account info returned by GetAccount.
type Account struct {
	ID         string
	Name       string
	Email      string
	IsVerified bool
}

// GetAccount returns the account attached by AuthMiddleware or
// OptionalAuthMiddleware:
//
//	account, ok := idm.GetAccount(r)
func GetAccount(r *http.Request) (*Account, bool) {
	a, ok := middleware.AccountFrom(r.Context())
	if !ok {
		return nil, false
	}
	return &Account{
		ID:         a.ID.String(),
		Name:       a.Name,
		Email:      a.Email,
		IsVerified: a.Verified,
	}, true
}

// HealthHandler returns a simple health check handler.
func (i *IDM) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Routes registers all account routes on an http.ServeMux with the given prefix:
//
//	mux := http.NewServeMux()
//	accounts.Routes(mux, "/api")
func (i *IDM) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, i.Router()))
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil && cfg.Store == nil {
		return errors.New("idm: DB or Store is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("idm: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("idm: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "krishi-auth"
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = auth.DefaultSessionTTL
	}
	if cfg.CodeTTL == 0 {
		cfg.CodeTTL = auth.DefaultCodeTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	if cfg.Sender == nil {
		cfg.Sender = notification.NewLogSender(cfg.Logger)
	}
}

// validateSchema checks that the accounts table exists.
func validateSchema(ctx context.Context, db *sql.DB) error {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	`

	var name string
	err := db.QueryRowContext(ctx, query, "accounts").Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("idm: missing table 'accounts' - set AutoMigrate or run migrations first")
	}
	if err != nil {
		return fmt.Errorf("idm: failed to check schema: %w", err)
	}

	return nil
}
