// Package application defines the seam between the roster CLI commands
// and the process-wide App that owns configuration and logging.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/roster/internal/config"
)

// Application is what a command needs from the running CLI.
type Application interface {
	// Logger returns the logger configured from the global flags.
	Logger() *zerolog.Logger

	// Env returns the environment lookup used to load service settings.
	Env() *config.Env

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
