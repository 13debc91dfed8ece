// Package server composes the roster HTTP surface: the player API, the
// search endpoint and the single-page application fallback, all behind
// one listener with compression, tracing and graceful shutdown.
//
// The architecture follows the pattern: CLI → AppState → Server → Router → Handlers
//
// Usage:
//
//	srv := server.New(state, cfg, logger)
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
//
// Run returns once ctx is canceled and in-flight requests have drained,
// or immediately if the listen address cannot be bound.
package server

//go:generate gomarkdoc --output README.md .
