// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables, and
// an optional .env file.
package config

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// APIBaseURL is the base URL of the remote invoicing API.
	APIBaseURL string

	// Addr defines the stub server's listening address (ip:port).
	Addr string

	// StatePath is the path to the local bolt database holding the auth
	// token and UI preferences.
	StatePath string

	// JWTSecret signs tokens issued by the stub server.
	JWTSecret string

	// DownloadDir is where the client saves PDF/XML/CDR downloads.
	DownloadDir string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.APIBaseURL, "api", "http://127.0.0.1:8000", "base URL of the invoicing API")
	flag.StringVar(&options.Addr, "a", "localhost:8000", "run stub server on ip:port")
	flag.StringVar(&options.StatePath, "state", "cotizador.db", "path to local state database")
	flag.StringVar(&options.JWTSecret, "secret", "dev-secret-key", "JWT signing secret for the stub server")
	flag.StringVar(&options.DownloadDir, "downloads", ".", "directory for downloaded documents")
}

// Parse parses the command-line flags, an optional .env file, and
// environment variables to set configuration values. Environment variables
// take precedence over flags. It returns a pointer to the Options struct
// containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Missing .env is fine; explicit settings win over it anyway.
	_ = godotenv.Load()

	options.APIBaseURL = getEnv("COTIZADOR_API_URL", options.APIBaseURL)
	options.Addr = getEnv("SERVER_ADDRESS", options.Addr)
	options.StatePath = getEnv("COTIZADOR_STATE", options.StatePath)
	options.JWTSecret = getEnv("JWT_SECRET", options.JWTSecret)
	options.DownloadDir = getEnv("COTIZADOR_DOWNLOADS", options.DownloadDir)

	return options
}

// getEnv returns the environment value for key, or fallback when unset.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
