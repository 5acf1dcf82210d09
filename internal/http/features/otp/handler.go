package otp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tendant/krishi-auth/internal/http/features/common"
	"github.com/tendant/krishi-auth/internal/httputil"
	"github.com/tendant/krishi-auth/pkg/auth"
	"github.com/tendant/krishi-auth/pkg/domain"
)

type Handler struct {
	logger               *slog.Logger
	verification         *auth.VerificationService
	credentials          *auth.CredentialService
	sessions             *auth.SessionService
	cookieConfig         httputil.CookieConfig
	exposeInternalErrors bool
}

func NewHandler(
	logger *slog.Logger,
	verification *auth.VerificationService,
	credentials *auth.CredentialService,
	sessions *auth.SessionService,
	cookieConfig httputil.CookieConfig,
	exposeInternalErrors bool,
) *Handler {
	return &Handler{
		logger:               logger,
		verification:         verification,
		credentials:          credentials,
		sessions:             sessions,
		cookieConfig:         cookieConfig,
		exposeInternalErrors: exposeInternalErrors,
	}
}

// Code is a one-time code as submitted by clients, either a JSON string or a
// JSON number. Numbers keep their literal digits.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("otp must be a string or number")
		}
		*c = Code(n.String())
	}
	return nil
}

type VerifyRequest struct {
	Email string `json:"email"`
	OTP   Code   `json:"otp"`
}

type ResendRequest struct {
	Email string `json:"email"`
}

// VerifyResponse carries the new session token for non-browser clients.
type VerifyResponse struct {
	Message string                `json:"message"`
	Token   string                `json:"token"`
	User    common.SessionAccount `json:"user"`
}

// Verify checks a one-time code and, on success, starts a session.
// POST /verify-otp
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.verification.Verify(r.Context(), req.Email, string(req.OTP))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			httputil.Error(w, http.StatusBadRequest, "Email and OTP are required")
		case errors.Is(err, domain.ErrAccountNotFound):
			httputil.Error(w, http.StatusNotFound, "User not found")
		case errors.Is(err, domain.ErrNoPendingCode):
			httputil.Error(w, http.StatusBadRequest, "No OTP found for this user")
		case errors.Is(err, domain.ErrInvalidCode):
			httputil.Error(w, http.StatusBadRequest, "Invalid OTP")
		case errors.Is(err, domain.ErrCodeExpired):
			httputil.Error(w, http.StatusBadRequest, "OTP expired")
		default:
			h.logger.Error("code verification failed", "error", err)
			httputil.InternalError(w, "Server error", err, h.exposeInternalErrors)
		}
		return
	}

	session, err := h.sessions.Issue(account)
	if err != nil {
		h.logger.Error("failed to issue session", "error", err, "account_id", account.ID)
		httputil.InternalError(w, "Server error", err, h.exposeInternalErrors)
		return
	}

	httputil.SetSessionCookie(w, session.Token, h.sessions.TTL(), h.cookieConfig)
	h.logger.Info("session issued", "account_id", account.ID)

	httputil.JSON(w, http.StatusOK, VerifyResponse{
		Message: "Authentication successful",
		Token:   session.Token,
		User:    common.NewSessionAccount(account),
	})
}

// Resend mails a fresh code to an account awaiting one.
// POST /otp/resend
func (h *Handler) Resend(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if _, err := h.credentials.Resend(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			httputil.Error(w, http.StatusBadRequest, "Email is required")
		case errors.Is(err, domain.ErrAccountNotFound):
			httputil.Error(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("code resend failed", "error", err)
			httputil.InternalError(w, "Failed to send verification code", err, h.exposeInternalErrors)
		}
		return
	}

	httputil.JSON(w, http.StatusOK, common.MessageResponse{
		Message: "Verification code sent successfully to your email",
	})
}
