package otp

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers code verification routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/verify-otp", h.Verify)
	r.Post("/otp/resend", h.Resend)
}
