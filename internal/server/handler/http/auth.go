package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/andeansoft/cotizador/internal/middleware"
	"github.com/andeansoft/cotizador/internal/server/auth"
	"github.com/andeansoft/cotizador/internal/server/store"
)

// AuthStore defines the account operations required by the auth handlers.
type AuthStore interface {
	// UserByEmail looks an account up by login email.
	UserByEmail(email string) (*store.User, error)
	// CreateUser registers a new active account.
	CreateUser(email, passwordHash string, isAdmin bool) (*store.User, error)
}

// AuthHandler serves login and registration.
type AuthHandler struct {
	// Store performs the account lookups.
	Store AuthStore
	// JWT issues access tokens on successful login.
	JWT *auth.JWTManager
}

// Token handles POST /token: the form-encoded credential exchange. The
// username field carries the email, as in the real backend's OAuth2 form.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form body")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	u, err := h.Store.UserByEmail(email)
	if err != nil || auth.CheckPassword(password, u.PasswordHash) != nil {
		writeDetail(w, http.StatusUnauthorized, "Email o contraseña incorrectos.")
		return
	}
	if !u.IsActive {
		reason := u.DeactivationReason
		if reason == "" {
			reason = "Contacte al administrador."
		}
		writeDetail(w, http.StatusUnauthorized, "Su cuenta ha sido desactivada. Motivo: "+reason)
		return
	}

	token, err := h.JWT.GenerateToken(u.Email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// registerRequest is the JSON payload for POST /users/.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /users/: account creation with the backend's
// validation shape (422 array for field errors, 400 for duplicates).
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeValidation(w, fieldError("email", "value is not a valid email address"))
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeValidation(w, fieldError("password", "String should have at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	u, err := h.Store.CreateUser(req.Email, hash, false)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, u.Profile)
}

// userDirectory is the minimal lookup every authenticated handler needs.
type userDirectory interface {
	UserByEmail(email string) (*store.User, error)
}

// currentUser resolves the request's authenticated account. Answers the
// canonical 401 body itself when resolution fails.
func currentUser(w http.ResponseWriter, r *http.Request, st userDirectory) (*store.User, bool) {
	email := middleware.GetUserFromContext(r.Context())
	if email == "" {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return nil, false
	}
	u, err := st.UserByEmail(email)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return nil, false
	}
	return u, true
}
