package http

import (
	"encoding/json"
	"net/http"

	"github.com/andeansoft/cotizador/internal/models"
	"github.com/andeansoft/cotizador/internal/server/store"
)

// AdminStore defines the account-management operations required by the
// admin handlers.
type AdminStore interface {
	userDirectory
	Users() []store.User
	UserByID(id int) (*store.User, error)
	CotizacionesByOwner(ownerID int) []models.Cotizacion
	UpdateUserStatus(id int, active bool, reason string) (*store.User, error)
	DeleteUser(id int) error
}

// AdminHandler serves the admin user-management endpoints. Every operation
// requires an admin account.
type AdminHandler struct {
	Store AdminStore
}

// requireAdmin resolves the caller and rejects non-admin accounts.
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return nil, false
	}
	if !u.IsAdmin {
		writeDetail(w, http.StatusForbidden, "The user doesn't have enough privileges")
		return nil, false
	}
	return u, true
}

// adminView reduces an account to the admin listing shape.
func adminView(u store.User) models.AdminUserView {
	return models.AdminUserView{
		ID:                 u.ID,
		Email:              u.Email,
		IsActive:           u.IsActive,
		IsAdmin:            u.IsAdmin,
		DeactivationReason: u.DeactivationReason,
	}
}

// ListUsers handles GET /admin/users/.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	users := h.Store.Users()
	out := make([]models.AdminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, adminView(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetUser handles GET /admin/users/{user_id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id, ok := idParam(w, r, "user_id")
	if !ok {
		return
	}
	u, err := h.Store.UserByID(id)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u.Profile)
}

// UserCotizaciones handles GET /admin/users/{user_id}/cotizaciones.
func (h *AdminHandler) UserCotizaciones(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id, ok := idParam(w, r, "user_id")
	if !ok {
		return
	}
	if _, err := h.Store.UserByID(id); err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	cots := h.Store.CotizacionesByOwner(id)
	if cots == nil {
		cots = []models.Cotizacion{}
	}
	writeJSON(w, http.StatusOK, cots)
}

// UpdateUserStatus handles PUT /admin/users/{user_id}/status: deactivation
// with a recorded reason, or reactivation which clears it.
func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "user_id")
	if !ok {
		return
	}
	var upd models.UserStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if id == admin.ID && !upd.IsActive {
		writeDetail(w, http.StatusBadRequest, "Un administrador no puede desactivarse a sí mismo")
		return
	}
	u, err := h.Store.UpdateUserStatus(id, upd.IsActive, upd.DeactivationReason)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, adminView(*u))
}

// DeleteUser handles DELETE /admin/users/{user_id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "user_id")
	if !ok {
		return
	}
	if id == admin.ID {
		writeDetail(w, http.StatusBadRequest, "Un administrador no puede eliminarse a sí mismo")
		return
	}
	if err := h.Store.DeleteUser(id); err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
