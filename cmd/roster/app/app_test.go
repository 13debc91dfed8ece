package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/roster/internal/config"
)

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
	if app.Env() == nil {
		t.Error("Env() returned nil")
	}
}

// TestApp_Options verifies functional options.
func TestApp_Options(t *testing.T) {
	env := config.NewEnv()
	env.Set(config.AppServerURL, "127.0.0.1:1234")
	logger := zerolog.Nop()

	app, err := New("dev", "", "", "", WithEnv(env), WithLogger(&logger), WithConfig(&Config{Quiet: true}))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Env() != env {
		t.Error("WithEnv not applied")
	}
	if app.Logger() != &logger {
		t.Error("WithLogger not applied")
	}
	if !app.Config().Quiet {
		t.Error("WithConfig not applied")
	}
}

// TestExecute_Version runs the version subcommand end to end.
func TestExecute_Version(t *testing.T) {
	app, err := New("9.9.9", "deadbeef", "today", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--log-level", "warn"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !strings.Contains(out.String(), "roster version 9.9.9") {
		t.Errorf("unexpected output: %s", out.String())
	}
	if app.Config().LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", app.Config().LogLevel)
	}
}

// TestExecute_UnknownCommand verifies unknown commands are errors.
func TestExecute_UnknownCommand(t *testing.T) {
	app, err := New("dev", "", "", "")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := app.Execute(context.Background(), []string{"nope"}); err == nil {
		t.Error("expected error for unknown command")
	}
}
