package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/roster/internal/players"
	"github.com/agentstation/roster/internal/server/cache"
	"github.com/agentstation/roster/internal/server/handlers"
	"github.com/agentstation/roster/pkg/errors"
)

// Phase is a stage of the server lifecycle.
type Phase int32

// Lifecycle phases, in order.
const (
	PhaseUninitialized Phase = iota
	PhaseRoutesRegistered
	PhaseListening
	PhaseDraining
	PhaseStopped
)

var phaseNames = [...]string{"uninitialized", "routes_registered", "listening", "draining", "stopped"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int32(p))
	}
	return phaseNames[p]
}

// Indexer receives stored players for background search indexing.
type Indexer interface {
	Enqueue(p players.Player)
	Stop(ctx context.Context) error
}

// AppState is shared by every request handler for the life of the server.
type AppState struct {
	Players players.Repository
	Search  handlers.Searcher
	Indexer Indexer
	Cache   *cache.Cache
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	state   AppState
	config  Config
	logger  *zerolog.Logger
	handler http.Handler
	phase   atomic.Int32

	mu   sync.Mutex
	addr net.Addr
}

// New creates a server and registers its routes.
func New(state AppState, cfg Config, logger *zerolog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaults.DrainTimeout
	}
	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = defaults.CompressionLevel
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = defaults.IdleTimeout
	}
	if state.Cache == nil {
		state.Cache = cache.New(5*time.Minute, 10*time.Minute)
	}
	if state.Indexer == nil {
		state.Indexer = discardIndexer{}
	}

	s := &Server{
		state:  state,
		config: cfg,
		logger: logger,
	}
	s.handler = s.setupRouter()
	s.phase.Store(int32(PhaseRoutesRegistered))

	logger.Debug().
		Str("dist_dir", cfg.DistDir).
		Str("bootstrap", cfg.BootstrapFile).
		Bool("typed_errors", cfg.TypedErrors).
		Msg("Routes registered")
	return s
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Phase reports the current lifecycle phase.
func (s *Server) Phase() Phase {
	return Phase(s.phase.Load())
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run binds Config.Addr and serves until ctx is canceled. A bind failure
// is returned before any request is accepted.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return errors.WrapResource("bind", "listener", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then drains
// in-flight requests for at most Config.DrainTimeout before closing what
// remains. The indexer is stopped within the same budget.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	s.phase.Store(int32(PhaseListening))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Dur("drain_timeout", s.config.DrainTimeout).
		Msg("HTTP server listening")

	select {
	case err := <-serveErr:
		s.phase.Store(int32(PhaseStopped))
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.phase.Store(int32(PhaseDraining))
	s.logger.Info().Msg("Shutdown signal received, draining connections")

	// The parent context is already canceled.
	drainCtx, cancel := context.WithTimeout(context.Background(), s.config.DrainTimeout)
	defer cancel()

	if err := httpServer.Shutdown(drainCtx); err != nil {
		s.logger.Warn().
			Err(err).
			Dur("drain_timeout", s.config.DrainTimeout).
			Msg("Drain timed out, closing remaining connections")
		_ = httpServer.Close()
	}
	<-serveErr

	if err := s.state.Indexer.Stop(drainCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Search indexer did not finish before the drain deadline")
	}

	s.phase.Store(int32(PhaseStopped))
	s.logger.Info().Int("cached_players", s.state.Cache.ItemCount()).Msg("Server stopped gracefully")
	return nil
}

type discardIndexer struct{}

func (discardIndexer) Enqueue(players.Player)     {}
func (discardIndexer) Stop(context.Context) error { return nil }
