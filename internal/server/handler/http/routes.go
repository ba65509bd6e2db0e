package http

import (
	"net/http"

	"github.com/andeansoft/cotizador/internal/middleware"
	"github.com/andeansoft/cotizador/internal/server/auth"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs and returns an HTTP handler that serves the stub
// invoicing API. Request logging applies everywhere; bearer-token
// authentication applies to everything except login and registration.
//
// Routes:
//
//	POST /token                              → authHandler.Token (public)
//	POST /users/                             → authHandler.Register (public)
//	GET  /users/me/                          → userHandler.Me
//	PUT  /profile/                           → userHandler.UpdateProfile
//	GET/POST /cotizaciones/                  → cotHandler.List / Create
//	GET/PUT/DELETE /cotizaciones/{id}        → cotHandler.Get / Update / Delete
//	POST /cotizaciones/{id}/facturar         → cotHandler.Facturar
//	GET  /cotizaciones/{id}/pdf              → cotHandler.PDF
//	POST /facturacion/{doc_type}             → cotHandler.Descargar
//	GET  /admin/users/                       → adminHandler.ListUsers
//	GET  /admin/users/{id}                   → adminHandler.GetUser
//	GET  /admin/users/{id}/cotizaciones      → adminHandler.UserCotizaciones
//	PUT  /admin/users/{id}/status            → adminHandler.UpdateUserStatus
//	DELETE /admin/users/{id}                 → adminHandler.DeleteUser
func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	cotHandler *CotizacionHandler,
	adminHandler *AdminHandler,
	jwt *auth.JWTManager,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Public endpoints
	r.Post("/token", authHandler.Token)
	r.Post("/users/", authHandler.Register)

	// Protected group: requires a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(jwt))

		r.Get("/users/me/", userHandler.Me)
		r.Put("/profile/", userHandler.UpdateProfile)

		r.Route("/cotizaciones", func(r chi.Router) {
			r.Get("/", cotHandler.List)
			r.Post("/", cotHandler.Create)
			r.Get("/{cotizacion_id}", cotHandler.Get)
			r.Put("/{cotizacion_id}", cotHandler.Update)
			r.Delete("/{cotizacion_id}", cotHandler.Delete)
			r.Post("/{cotizacion_id}/facturar", cotHandler.Facturar)
			r.Get("/{cotizacion_id}/pdf", cotHandler.PDF)
		})

		r.Post("/facturacion/{doc_type}", cotHandler.Descargar)

		r.Route("/admin/users", func(r chi.Router) {
			r.Get("/", adminHandler.ListUsers)
			r.Get("/{user_id}", adminHandler.GetUser)
			r.Get("/{user_id}/cotizaciones", adminHandler.UserCotizaciones)
			r.Put("/{user_id}/status", adminHandler.UpdateUserStatus)
			r.Delete("/{user_id}", adminHandler.DeleteUser)
		})
	})

	return r
}
