// Package app provides the application context and dependency management
// for the roster CLI. It centralizes the global flags, the environment the
// service settings are read from, and the process logger.
package app

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/roster/internal/cmd/application"
	"github.com/agentstation/roster/internal/config"
	"github.com/agentstation/roster/pkg/logging"
)

// App represents the roster application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	env    *config.Env
	logger *zerolog.Logger
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
// .env files are loaded before the environment is read.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	app.config = LoadConfig()
	app.env = config.NewEnv()

	logger := NewLogger(app.config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the CLI configuration.
func (a *App) Config() *Config {
	return a.config
}

// Env returns the environment service settings are loaded from.
func (a *App) Env() *config.Env {
	return a.env
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) error {
		a.config = cfg
		return nil
	}
}

// WithEnv sets the environment lookup (useful for testing).
func WithEnv(env *config.Env) Option {
	return func(a *App) error {
		a.env = env
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		logging.SetDefault(*logger)
		return nil
	}
}
