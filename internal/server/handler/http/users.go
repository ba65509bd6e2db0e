package http

import (
	"encoding/json"
	"net/http"

	"github.com/andeansoft/cotizador/internal/models"
	"github.com/andeansoft/cotizador/internal/server/store"
)

// UserStore defines the profile operations required by the user handlers.
type UserStore interface {
	userDirectory
	UpdateProfile(id int, upd models.ProfileUpdate) (*store.User, error)
}

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	Store UserStore
}

// Me handles GET /users/me/.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u.Profile)
}

// UpdateProfile handles PUT /profile/: a partial merge into the caller's
// profile, returning the full updated profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	var upd models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	updated, err := h.Store.UpdateProfile(u.ID, upd)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, updated.Profile)
}
