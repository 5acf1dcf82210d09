package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session routes. optional must attach the account
// when one is presented without rejecting anonymous callers.
func (h *Handler) RegisterRoutes(r chi.Router, optional func(http.Handler) http.Handler) {
	r.Post("/logout", h.Logout)
	r.With(optional).Get("/check", h.Check)
}
