package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/krishi-auth/internal/config"
	httpserver "github.com/tendant/krishi-auth/internal/http"
	"github.com/tendant/krishi-auth/internal/notification"
	"github.com/tendant/krishi-auth/pkg/auth"
	"github.com/tendant/krishi-auth/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize account store
	var accounts auth.AccountStore
	switch cfg.Store {
	case config.StoreMemory:
		accounts = repository.NewMemoryAccounts()
		logger.Warn("using in-memory account store; accounts are lost on restart")
	default:
		db, err := connectDB(cfg)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("connected to database", "driver", cfg.DBDriver)

		if cfg.DBAutoMigrate {
			if err := repository.Migrate(context.Background(), db); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
		}
		accounts = repository.NewAccountsRepository(db)
	}

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		logger.Error("invalid password hasher", "error", err)
		os.Exit(1)
	}

	// Initialize code delivery
	var sender auth.CodeSender
	if cfg.HasSMTP() {
		sender = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			CodeTTL:  cfg.OTP.TTL,
		})
		logger.Info("email service enabled")
	} else {
		sender = notification.NewLogSender(logger)
		logger.Warn("SMTP not configured; one-time codes will be logged")
	}

	// Initialize services
	credentialService := auth.NewCredentialService(auth.CredentialConfig{
		CodeTTL:               cfg.OTP.TTL,
		StrictEmailValidation: cfg.Validation.StrictEmail,
	}, accounts, hasher, sender, logger)

	verificationService := auth.NewVerificationService(auth.VerificationConfig{
		EnforceExpiry:         cfg.OTP.EnforceExpiry,
		StrictEmailValidation: cfg.Validation.StrictEmail,
	}, accounts)

	sessionService := auth.NewSessionService(auth.SessionConfig{
		TTL:       cfg.SessionTTL,
		JWTSecret: []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
	}, accounts)

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:               logger,
		CredentialService:    credentialService,
		VerificationService:  verificationService,
		SessionService:       sessionService,
		APIPrefix:            cfg.APIPrefix,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		RateLimitConfig:      cfg.RateLimit,
		SecurityHeaders:      cfg.SecurityHeaders,
		MaxRequestBodySize:   cfg.MaxRequestBodySize,
		CookieSecure:         cfg.IsProduction(),
		ExposeInternalErrors: cfg.ExposeInternalErrors,
	})

	// Create HTTP server
	addr := cfg.ListenAddr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr, "api_prefix", cfg.APIPrefix)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return repository.NewDB(ctx, repository.Config{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
}
