package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/krishi-auth/internal/config"
	"github.com/tendant/krishi-auth/internal/http/features/me"
	"github.com/tendant/krishi-auth/internal/http/features/otp"
	"github.com/tendant/krishi-auth/internal/http/features/password"
	"github.com/tendant/krishi-auth/internal/http/features/session"
	"github.com/tendant/krishi-auth/internal/http/middleware"
	"github.com/tendant/krishi-auth/internal/httputil"
	"github.com/tendant/krishi-auth/pkg/auth"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger               *slog.Logger
	CredentialService    *auth.CredentialService
	VerificationService  *auth.VerificationService
	SessionService       *auth.SessionService
	APIPrefix            string
	CORSAllowedOrigins   []string
	RateLimitConfig      config.RateLimitConfig
	SecurityHeaders      config.SecurityHeadersConfig
	MaxRequestBodySize   int64
	CookieSecure         bool // Whether to use Secure flag on cookies (should be true for HTTPS)
	ExposeInternalErrors bool
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recover(cfg.Logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.APIPrefix == "" || cfg.APIPrefix == "/" {
		MountAPI(r, cfg)
	} else {
		r.Route(cfg.APIPrefix, func(r chi.Router) {
			MountAPI(r, cfg)
		})
	}

	return r
}

// MountAPI registers the account endpoints on r without any global middleware.
func MountAPI(r chi.Router, cfg RouterConfig) {
	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)
	cookieConfig := httputil.DefaultCookieConfig(cfg.CookieSecure)

	passwordHandler := password.NewHandler(cfg.Logger, cfg.CredentialService, cfg.ExposeInternalErrors)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitAuth])
		passwordHandler.RegisterRoutes(r)
	})

	otpHandler := otp.NewHandler(
		cfg.Logger,
		cfg.VerificationService,
		cfg.CredentialService,
		cfg.SessionService,
		cookieConfig,
		cfg.ExposeInternalErrors,
	)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitVerify])
		otpHandler.RegisterRoutes(r)
	})

	sessionHandler := session.NewHandler(cookieConfig)
	sessionHandler.RegisterRoutes(r, middleware.OptionalSession(cfg.SessionService))

	meHandler := me.NewHandler()
	r.With(middleware.RequireSession(cfg.SessionService)).Get("/getme", meHandler.GetMe)
}
