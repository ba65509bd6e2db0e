// Package main starts the local stub of the invoicing API: an in-memory
// server with the same routes, auth scheme, and error shapes as the real
// backend, so the client runs without external services.
package main

import (
	"cmp"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/andeansoft/cotizador/internal/config"
	"github.com/andeansoft/cotizador/internal/logger"
	"github.com/andeansoft/cotizador/internal/models"
	"github.com/andeansoft/cotizador/internal/server/auth"
	"github.com/andeansoft/cotizador/internal/server/handler/http"
	"github.com/andeansoft/cotizador/internal/server/store"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// seed populates the store with a demo admin, a demo user, and a couple of
// quotations so the client has something to show on first run.
func seed(m *store.Memory, log *zap.Logger) {
	adminHash, err := auth.HashPassword("admin12345")
	if err != nil {
		log.Fatal("failed to hash seed password", zap.Error(err))
	}
	userHash, err := auth.HashPassword("demo12345")
	if err != nil {
		log.Fatal("failed to hash seed password", zap.Error(err))
	}

	if _, err := m.CreateUser("admin@cotizador.pe", adminHash, true); err != nil {
		log.Fatal("failed to seed admin", zap.Error(err))
	}
	demo, err := m.CreateUser("demo@cotizador.pe", userHash, false)
	if err != nil {
		log.Fatal("failed to seed user", zap.Error(err))
	}

	m.CreateCotizacion(demo.ID, models.CotizacionCreate{
		NombreCliente:    "Acme SAC",
		DireccionCliente: "Av. Arequipa 1234, Lima",
		TipoDocumento:    "RUC",
		NroDocumento:     "20123456789",
		Moneda:           "SOLES",
		MontoTotal:       250,
		Productos: []models.Producto{
			{Descripcion: "Servicio de instalación", Unidades: 1, PrecioUnitario: 150, Total: 150},
			{Descripcion: "Cable UTP (metros)", Unidades: 50, PrecioUnitario: 2, Total: 100},
		},
	})
	m.CreateCotizacion(demo.ID, models.CotizacionCreate{
		NombreCliente:    "Comercial Andina EIRL",
		DireccionCliente: "Jr. Unión 456, Cusco",
		TipoDocumento:    "RUC",
		NroDocumento:     "20987654321",
		Moneda:           "DOLARES",
		MontoTotal:       80,
		Productos: []models.Producto{
			{Descripcion: "Mantenimiento mensual", Unidades: 1, PrecioUnitario: 80, Total: 80},
		},
	})
}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init("info"); err != nil {
		panic(err)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	// In-memory data layer with demo accounts.
	mem := store.NewMemory()
	seed(mem, zapLogger)

	// Token issuing for /token.
	jwtManager := auth.NewJWTManager(options.JWTSecret, 8*time.Hour)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{Store: mem, JWT: jwtManager}
	userHandler := &http.UserHandler{Store: mem}
	cotHandler := &http.CotizacionHandler{Store: mem}
	adminHandler := &http.AdminHandler{Store: mem}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, userHandler, cotHandler, adminHandler, jwtManager, zapLogger)

	zapLogger.Info("starting stub API server",
		zap.String("addr", options.Addr),
		zap.String("admin", "admin@cotizador.pe"),
		zap.String("user", "demo@cotizador.pe"))
	server := &nethttp.Server{Addr: options.Addr, Handler: router}
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
}
