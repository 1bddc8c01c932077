package http

import (
	"net/http"

	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

type UserHandler struct {
	sessions *services.SessionService
	cookies  CookieConfig
}

func NewUserHandler(sessions *services.SessionService, cookies CookieConfig) *UserHandler {
	return &UserHandler{
		sessions: sessions,
		cookies:  cookies,
	}
}

// GetMe returns the signed in user. A token the backend rejects clears the
// cookies.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Resolve(r.Context(), newCookieStore(w, r, h.cookies))
	if err != nil {
		writeError(w, err)
		return
	}
	if !session.Authenticated() {
		writeError(w, domain.ErrNotAuthenticated)
		return
	}
	writeOK(w, http.StatusOK, session.User)
}
