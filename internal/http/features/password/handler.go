package password

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/krishi-auth/internal/http/features/common"
	"github.com/tendant/krishi-auth/internal/httputil"
	"github.com/tendant/krishi-auth/pkg/auth"
	"github.com/tendant/krishi-auth/pkg/domain"
)

// Handler handles password authentication endpoints. Neither endpoint issues a
// session; both end by mailing a one-time code.
type Handler struct {
	logger               *slog.Logger
	credentials          *auth.CredentialService
	exposeInternalErrors bool
}

// NewHandler creates a new password handler.
func NewHandler(logger *slog.Logger, credentials *auth.CredentialService, exposeInternalErrors bool) *Handler {
	return &Handler{
		logger:               logger,
		credentials:          credentials,
		exposeInternalErrors: exposeInternalErrors,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles account registration.
// POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.credentials.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			httputil.Error(w, http.StatusBadRequest, "Name, email and password are required")
		case errors.Is(err, domain.ErrInvalidEmail):
			httputil.Error(w, http.StatusBadRequest, "Invalid email address")
		case errors.Is(err, domain.ErrAccountExists):
			httputil.Error(w, http.StatusBadRequest, "User already exists")
		default:
			h.logger.Error("registration failed", "error", err)
			httputil.InternalError(w, "Error registering user", err, h.exposeInternalErrors)
		}
		return
	}

	httputil.JSON(w, http.StatusCreated, common.PendingResponse{
		Message: "User created. OTP sent for verification",
		Step:    common.StepVerifyOTP,
		User:    common.NewAccountSummary(account),
	})
}

// Login checks the password and mails a login code.
// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.credentials.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			httputil.Error(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, domain.ErrAccountNotFound):
			httputil.Error(w, http.StatusBadRequest, "User not found")
		case errors.Is(err, domain.ErrInvalidPassword):
			httputil.Error(w, http.StatusBadRequest, "Invalid password")
		default:
			h.logger.Error("login failed", "error", err)
			httputil.InternalError(w, "Login failed", err, h.exposeInternalErrors)
		}
		return
	}

	httputil.JSON(w, http.StatusOK, common.PendingResponse{
		Message: "OTP sent for login verification",
		Step:    common.StepVerifyOTP,
		User:    common.NewAccountSummary(account),
	})
}
