// Package handlers provides HTTP request handlers for the roster API.
package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/roster/internal/players"
	"github.com/agentstation/roster/internal/server/cache"
	"github.com/agentstation/roster/internal/server/response"
)

// Searcher queries the player search index.
type Searcher interface {
	Search(ctx context.Context, term string) ([]players.Player, error)
}

// Enqueuer schedules a stored player for background indexing.
type Enqueuer interface {
	Enqueue(p players.Player)
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	repo       players.Repository
	search     Searcher
	indexer    Enqueuer
	cache      *cache.Cache
	writeError response.ErrorWriter
	logger     *zerolog.Logger
}

// New creates a new Handlers instance. A nil writeError selects
// response.InternalError.
func New(
	repo players.Repository,
	search Searcher,
	indexer Enqueuer,
	cache *cache.Cache,
	writeError response.ErrorWriter,
	logger *zerolog.Logger,
) *Handlers {
	if writeError == nil {
		writeError = response.InternalError
	}
	return &Handlers{
		repo:       repo,
		search:     search,
		indexer:    indexer,
		cache:      cache,
		writeError: writeError,
		logger:     logger,
	}
}
