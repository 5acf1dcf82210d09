package me

import (
	"net/http"

	"github.com/tendant/krishi-auth/internal/http/features/common"
	"github.com/tendant/krishi-auth/internal/http/middleware"
	"github.com/tendant/krishi-auth/internal/httputil"
)

// Handler handles account profile endpoints.
type Handler struct{}

// NewHandler creates a new me handler.
func NewHandler() *Handler {
	return &Handler{}
}

// MeResponse wraps the current account.
type MeResponse struct {
	Success bool               `json:"success"`
	User    common.AccountView `json:"user"`
}

// GetMe returns the current account's profile.
// GET /getme
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFrom(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	httputil.JSON(w, http.StatusOK, MeResponse{
		Success: true,
		User:    common.NewAccountView(account),
	})
}
