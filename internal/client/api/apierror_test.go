package api

import (
	"testing"
)

func TestNormalizeErrorBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "string detail",
			body: `{"detail": "Email o contraseña incorrectos."}`,
			want: "Email o contraseña incorrectos.",
		},
		{
			name: "validation array single entry",
			body: `{"detail": [{"loc": ["body", "nombre_cliente"], "msg": "Field required", "type": "missing"}]}`,
			want: "nombre_cliente: Field required",
		},
		{
			name: "validation array multiple entries",
			body: `{"detail": [{"loc": ["body", "nombre_cliente"], "msg": "Field required"}, {"loc": ["body", "productos", 0, "unidades"], "msg": "Input should be a valid integer"}]}`,
			want: "unidades: Input should be a valid integer",
		},
		{
			name: "integer loc segment",
			body: `{"detail": [{"loc": ["body", "productos", 2], "msg": "Invalid"}]}`,
			want: "2: Invalid",
		},
		{
			name: "empty loc falls back to generic field",
			body: `{"detail": [{"loc": [], "msg": "Invalid"}]}`,
			want: "campo: Invalid",
		},
		{
			name: "null detail",
			body: `{"detail": null}`,
			want: FallbackErrorMessage,
		},
		{
			name: "empty string detail",
			body: `{"detail": ""}`,
			want: FallbackErrorMessage,
		},
		{
			name: "missing detail",
			body: `{"error": "boom"}`,
			want: FallbackErrorMessage,
		},
		{
			name: "numeric detail",
			body: `{"detail": 42}`,
			want: FallbackErrorMessage,
		},
		{
			name: "empty validation array",
			body: `{"detail": []}`,
			want: FallbackErrorMessage,
		},
		{
			name: "not JSON at all",
			body: `<html>502 Bad Gateway</html>`,
			want: FallbackErrorMessage,
		},
		{
			name: "empty body",
			body: ``,
			want: FallbackErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeErrorBody([]byte(tt.body))
			if got != tt.want {
				t.Errorf("NormalizeErrorBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeErrorBody_MultipleEntriesJoined(t *testing.T) {
	body := `{"detail": [{"loc": ["body", "email"], "msg": "value is not a valid email address"}, {"loc": ["body", "password"], "msg": "String should have at least 8 characters"}]}`
	got := NormalizeErrorBody([]byte(body))
	want := "email: value is not a valid email address; password: String should have at least 8 characters"
	if got != want {
		t.Errorf("NormalizeErrorBody() = %q, want %q", got, want)
	}
}

func TestError_Unauthorized(t *testing.T) {
	if !(&Error{Status: 401, Message: "x"}).Unauthorized() {
		t.Error("401 should report Unauthorized")
	}
	if (&Error{Status: 403, Message: "x"}).Unauthorized() {
		t.Error("403 should not report Unauthorized")
	}
	if (&Error{Message: "x"}).Unauthorized() {
		t.Error("transport failure should not report Unauthorized")
	}
}
