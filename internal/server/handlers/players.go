package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agentstation/roster/internal/players"
	"github.com/agentstation/roster/internal/server/response"
	"github.com/agentstation/roster/pkg/errors"
	"github.com/agentstation/roster/pkg/logging"
)

// HandleListPlayers handles GET /api/players.
func (h *Handlers) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.fail(w, r, "list players", err)
		return
	}
	response.OK(w, list)
}

// HandleGetPlayer handles GET /api/players/{id}.
func (h *Handlers) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.fail(w, r, "get player", errors.NewValidationError("id", raw, "must be a UUID"))
		return
	}

	// Players are immutable once stored.
	if cached, found := h.cache.Player(id.String()); found {
		response.OK(w, cached)
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get player", err)
		return
	}
	h.cache.PutPlayer(p)
	response.OK(w, p)
}

// HandleAddPlayer handles PUT /api/players. The stored player is queued
// for indexing; the response does not wait for it.
func (h *Handlers) HandleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var p players.Player
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		response.Error(w, http.StatusBadRequest, fmt.Errorf("invalid player body: %w", err))
		return
	}

	stored, err := h.repo.Insert(r.Context(), p)
	if err != nil {
		h.fail(w, r, "add player", err)
		return
	}

	h.cache.PutPlayer(stored)
	h.indexer.Enqueue(stored)

	logging.FromContext(logging.WithPlayer(r.Context(), stored.Key())).Info().
		Str("username", stored.Username).
		Msg("Player added")

	response.Created(w, stored)
}

// HandleSearchPlayers handles POST /api/search/{term}. Search failures are
// reported as-is; there is no database fallback.
func (h *Handlers) HandleSearchPlayers(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	// chi matches on the raw path when the request carries escapes.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(term); err == nil {
			term = unescaped
		}
	}

	hits, err := h.search.Search(r.Context(), term)
	if err != nil {
		h.fail(w, r, "search players", err)
		return
	}
	response.OK(w, hits)
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.FromContext(logging.WithOperation(r.Context(), op)).Error().
		Err(err).
		Msg("Request failed")
	h.writeError(w, err)
}
