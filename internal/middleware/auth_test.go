package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andeansoft/cotizador/internal/server/auth"
)

func protectedEcho(t *testing.T, m *auth.JWTManager) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetUserFromContext(r.Context())))
	})
	return BearerAuth(m)(next)
}

func TestBearerAuth_ValidToken(t *testing.T) {
	m := auth.NewJWTManager("test-secret", time.Hour)
	token, err := m.GenerateToken("a@b.com")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/users/me/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedEcho(t, m).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "a@b.com" {
		t.Errorf("context email = %q, want a@b.com", rec.Body.String())
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	m := auth.NewJWTManager("test-secret", time.Hour)
	expired, err := auth.NewJWTManager("test-secret", -time.Minute).GenerateToken("a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := auth.NewJWTManager("other-secret", time.Hour).GenerateToken("a@b.com")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "foreign signature", header: "Bearer " + foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/users/me/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protectedEcho(t, m).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Could not validate credentials") {
				t.Errorf("body = %s", rec.Body.String())
			}
			if rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Errorf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestGetUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := GetUserFromContext(req.Context()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
