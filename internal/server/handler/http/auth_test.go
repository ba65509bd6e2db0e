package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andeansoft/cotizador/internal/server/auth"
	"github.com/andeansoft/cotizador/internal/server/store"
)

func testJWT() *auth.JWTManager {
	return auth.NewJWTManager("test-secret", time.Hour)
}

// seedUser creates an account directly in the store.
func seedUser(t *testing.T, m *store.Memory, email, password string, isAdmin bool) *store.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	u, err := m.CreateUser(email, hash, isAdmin)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func decodeDetail(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("body %q is not a string-detail error: %v", body, err)
	}
	return out.Detail
}

func TestAuthHandler_Token(t *testing.T) {
	m := store.NewMemory()
	seedUser(t, m, "a@b.com", "password1", false)
	inactive := seedUser(t, m, "off@b.com", "password1", false)
	if _, err := m.UpdateUserStatus(inactive.ID, false, "morosidad"); err != nil {
		t.Fatal(err)
	}
	noReason := seedUser(t, m, "off2@b.com", "password1", false)
	if _, err := m.UpdateUserStatus(noReason.ID, false, ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		username       string
		password       string
		expectedCode   int
		expectedDetail string
	}{
		{
			name:           "unknown email",
			username:       "nobody@b.com",
			password:       "password1",
			expectedCode:   http.StatusUnauthorized,
			expectedDetail: "Email o contraseña incorrectos.",
		},
		{
			name:           "wrong password",
			username:       "a@b.com",
			password:       "wrongpass",
			expectedCode:   http.StatusUnauthorized,
			expectedDetail: "Email o contraseña incorrectos.",
		},
		{
			name:           "deactivated account carries the reason",
			username:       "off@b.com",
			password:       "password1",
			expectedCode:   http.StatusUnauthorized,
			expectedDetail: "Su cuenta ha sido desactivada. Motivo: morosidad",
		},
		{
			name:           "deactivated account without reason gets the default",
			username:       "off2@b.com",
			password:       "password1",
			expectedCode:   http.StatusUnauthorized,
			expectedDetail: "Su cuenta ha sido desactivada. Motivo: Contacte al administrador.",
		},
		{
			name:         "valid credentials",
			username:     "a@b.com",
			password:     "password1",
			expectedCode: http.StatusOK,
		},
	}

	h := &AuthHandler{Store: m, JWT: testJWT()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			form.Set("username", tt.username)
			form.Set("password", tt.password)
			req := httptest.NewRequest("POST", "/token", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			h.Token(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("status = %d, want %d (%s)", res.StatusCode, tt.expectedCode, rec.Body.String())
			}
			if tt.expectedCode != http.StatusOK {
				if got := decodeDetail(t, rec.Body.Bytes()); got != tt.expectedDetail {
					t.Errorf("detail = %q, want %q", got, tt.expectedDetail)
				}
				return
			}

			var tok struct {
				AccessToken string `json:"access_token"`
				TokenType   string `json:"token_type"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
				t.Fatal(err)
			}
			if tok.TokenType != "bearer" || tok.AccessToken == "" {
				t.Errorf("unexpected token response %+v", tok)
			}
		})
	}
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode int
	}{
		{
			name:         "invalid JSON",
			body:         `not a json`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "invalid email",
			body:         `{"email": "not-an-email", "password": "password1"}`,
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "short password",
			body:         `{"email": "a@b.com", "password": "corta"}`,
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "success",
			body:         `{"email": "a@b.com", "password": "password1"}`,
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AuthHandler{Store: store.NewMemory(), JWT: testJWT()}
			req := httptest.NewRequest("POST", "/users/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Register(rec, req)
			if rec.Code != tt.expectedCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.expectedCode, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_RegisterDuplicateEmail(t *testing.T) {
	m := store.NewMemory()
	seedUser(t, m, "a@b.com", "password1", false)
	h := &AuthHandler{Store: m, JWT: testJWT()}

	req := httptest.NewRequest("POST", "/users/",
		strings.NewReader(`{"email": "a@b.com", "password": "password1"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeDetail(t, rec.Body.Bytes()); got != "Email already registered" {
		t.Errorf("detail = %q", got)
	}
}

func TestAuthHandler_RegisterValidationShape(t *testing.T) {
	h := &AuthHandler{Store: store.NewMemory(), JWT: testJWT()}
	req := httptest.NewRequest("POST", "/users/",
		strings.NewReader(`{"email": "a@b.com", "password": "corta"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	var out struct {
		Detail []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("not a validation body: %v", err)
	}
	if len(out.Detail) != 1 {
		t.Fatalf("got %d entries", len(out.Detail))
	}
	if out.Detail[0].Msg != "String should have at least 8 characters" {
		t.Errorf("msg = %q", out.Detail[0].Msg)
	}
	if len(out.Detail[0].Loc) != 2 || out.Detail[0].Loc[1] != "password" {
		t.Errorf("loc = %v", out.Detail[0].Loc)
	}
}
