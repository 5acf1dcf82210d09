package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported account stores.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// EnvProduction is the APP_ENV value that turns on secure cookies.
const EnvProduction = "production"

// DefaultCORSOrigins are the web front-ends allowed to call the API.
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"https://sih-sigma-dun.vercel.app",
}

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int
	AppEnv     string
	APIPrefix  string

	// Database
	Store         string
	DBDriver      string
	DBHost        string
	DBPort        int
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBAutoMigrate bool

	// JWT
	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	// Passwords
	PasswordHasher string
	BcryptCost     int

	// SMTP (optional; codes are logged when unset)
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	CORSAllowedOrigins   []string
	ExposeInternalErrors bool
	MaxRequestBodySize   int64

	OTP             OTPConfig
	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	Validation      ValidationConfig
}

// OTPConfig controls one-time code issuance and checking.
type OTPConfig struct {
	TTL           time.Duration
	EnforceExpiry bool
}

// RateLimitConfig holds rate limiting settings per endpoint group.
type RateLimitConfig struct {
	Enabled bool

	AuthRequests int
	AuthWindow   time.Duration

	VerifyRequests int
	VerifyWindow   time.Duration
}

// SecurityHeadersConfig holds the values of OWASP response headers.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
	CacheControl       string
}

// ValidationConfig holds input validation settings.
type ValidationConfig struct {
	StrictEmail bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8000),
		AppEnv:     getEnv("APP_ENV", "development"),
		APIPrefix:  getEnv("API_PREFIX", "/api"),

		// Database defaults
		Store:         getEnv("STORE", StorePostgres),
		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnvInt("DB_PORT", 5432),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "krishi"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),

		// JWT defaults
		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "krishi-auth"),
		SessionTTL: getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		PasswordHasher: getEnv("PASSWORD_HASHER", "bcrypt"),
		BcryptCost:     getEnvInt("BCRYPT_COST", 10),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Krishi Rakshak"),

		CORSAllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", DefaultCORSOrigins),
		ExposeInternalErrors: getEnvBool("EXPOSE_INTERNAL_ERRORS", true),
		MaxRequestBodySize:   int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)),

		OTP: OTPConfig{
			TTL:           getEnvDuration("OTP_TTL", time.Hour),
			EnforceExpiry: getEnvBool("OTP_ENFORCE_EXPIRY", false),
		},

		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", false),
			AuthRequests:   getEnvInt("RATE_LIMIT_AUTH_REQUESTS", 10),
			AuthWindow:     getEnvDuration("RATE_LIMIT_AUTH_WINDOW", time.Minute),
			VerifyRequests: getEnvInt("RATE_LIMIT_VERIFY_REQUESTS", 10),
			VerifyWindow:   getEnvDuration("RATE_LIMIT_VERIFY_WINDOW", time.Minute),
		},

		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_CSP", "default-src 'none'; frame-ancestors 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HSTS_MAX_AGE", 0),
			FrameOptions:       getEnv("SECURITY_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: getEnv("SECURITY_CONTENT_TYPE_OPTIONS", "nosniff"),
			XSSProtection:      getEnv("SECURITY_XSS_PROTECTION", "1; mode=block"),
			ReferrerPolicy:     getEnv("SECURITY_REFERRER_POLICY", "strict-origin-when-cross-origin"),
			PermissionsPolicy:  getEnv("SECURITY_PERMISSIONS_POLICY", "geolocation=(), microphone=(), camera=()"),
			CacheControl:       getEnv("SECURITY_CACHE_CONTROL", "no-store"),
		},

		Validation: ValidationConfig{
			StrictEmail: getEnvBool("VALIDATION_STRICT_EMAIL", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	switch c.DBDriver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be \"postgres\" or \"pgx\", got %q", c.DBDriver)
	}
	switch c.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("PASSWORD_HASHER must be \"bcrypt\" or \"argon2id\", got %q", c.PasswordHasher)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with /")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// HasSMTP returns true if an SMTP relay is configured.
func (c *Config) HasSMTP() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerAddr, c.ServerPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList reads a comma separated list, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
