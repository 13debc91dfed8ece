package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agentstation/roster/internal/server/handlers"
	"github.com/agentstation/roster/internal/server/middleware"
	"github.com/agentstation/roster/internal/server/response"
)

// API paths.
const (
	HealthPath  = "/health"
	PlayersPath = "/api/players"
	PlayerPath  = PlayersPath + "/{id}"
	SearchPath  = "/api/search/{term}"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()
	s.applyMiddleware(r)

	writeError := response.InternalError
	if s.config.TypedErrors {
		writeError = response.ErrorFromType
	}
	h := handlers.New(
		s.state.Players,
		s.state.Search,
		s.state.Indexer,
		s.state.Cache,
		writeError,
		s.logger,
	)

	s.registerRoutes(r, h)
	return r
}

// registerRoutes registers all HTTP routes. Anything the API does not
// match falls through to the single-page application.
func (s *Server) registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.NotFound(newSPAHandler(s.config.DistDir, s.config.BootstrapFile).ServeHTTP)

	r.Get(HealthPath, h.HandleHealth)

	r.Get(PlayersPath, h.HandleListPlayers)
	r.Put(PlayersPath, h.HandleAddPlayer)
	r.Get(PlayerPath, h.HandleGetPlayer)
	r.Post(SearchPath, h.HandleSearchPlayers)
}

// applyMiddleware installs the middleware chain, outermost first.
func (s *Server) applyMiddleware(r chi.Router) {
	r.Use(middleware.Recovery(s.logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(s.logger))

	if len(s.config.CORSOrigins) > 0 {
		corsConfig := middleware.DefaultCORSConfig()
		corsConfig.AllowedOrigins = s.config.CORSOrigins
		r.Use(middleware.CORS(corsConfig))
	}

	r.Use(middleware.Decompress)
	r.Use(middleware.Compress(s.config.CompressionLevel))
	r.Use(chimw.Timeout(s.config.DrainTimeout))
}
