package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/roster/internal/config"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	env := config.NewEnv()
//	env.Set(config.AppServerURL, "127.0.0.1:0")
//	mock := &application.Mock{
//	    EnvFunc: func() *config.Env { return env },
//	}
//	cmd := serve.NewCommand(mock)
type Mock struct {
	LoggerFunc  func() *zerolog.Logger
	EnvFunc     func() *config.Env
	VersionFunc func() string
	CommitFunc  func() string
	DateFunc    func() string
	BuiltByFunc func() string
}

var _ Application = (*Mock)(nil)

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// Env returns the mock environment or one backed by the process.
func (m *Mock) Env() *config.Env {
	if m.EnvFunc != nil {
		return m.EnvFunc()
	}
	return config.NewEnv()
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
