package server

import "time"

// Config holds server configuration.
type Config struct {
	// Listener
	Addr string

	// DrainTimeout bounds graceful shutdown and every request.
	DrainTimeout time.Duration

	// SPA assets
	DistDir       string
	BootstrapFile string

	// CORS is enabled when origins are listed.
	CORSOrigins []string

	// TypedErrors maps error kinds to distinct status codes instead of 500.
	TypedErrors bool

	CompressionLevel  int
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              "localhost:8080",
		DrainTimeout:      30 * time.Second,
		DistDir:           "dist",
		BootstrapFile:     "dist/index.html",
		CompressionLevel:  5,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
