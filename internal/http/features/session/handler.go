package session

import (
	"net/http"

	"github.com/tendant/krishi-auth/internal/http/features/common"
	"github.com/tendant/krishi-auth/internal/http/middleware"
	"github.com/tendant/krishi-auth/internal/httputil"
)

// Handler handles session endpoints.
type Handler struct {
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new session handler.
func NewHandler(cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		cookieConfig: cookieConfig,
	}
}

// CheckResponse reports whether the caller holds a valid session.
type CheckResponse struct {
	LoggedIn bool                `json:"loggedIn"`
	User     *common.AccountView `json:"user,omitempty"`
}

// Logout clears the session cookie. Tokens are not revoked server side; a
// bearer token stays usable until it expires.
// POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.ClearSessionCookie(w, h.cookieConfig)
	httputil.JSON(w, http.StatusOK, common.MessageResponse{Message: "Logout successful"})
}

// Check always answers 200. It must run behind middleware.OptionalSession.
// GET /check
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFrom(r.Context())
	if !ok {
		httputil.JSON(w, http.StatusOK, CheckResponse{LoggedIn: false})
		return
	}

	view := common.NewAccountView(account)
	httputil.JSON(w, http.StatusOK, CheckResponse{LoggedIn: true, User: &view})
}
