package password

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers password authentication routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
}
