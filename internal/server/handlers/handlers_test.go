package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/roster/internal/players"
	"github.com/agentstation/roster/internal/server/cache"
	"github.com/agentstation/roster/internal/server/response"
	"github.com/agentstation/roster/pkg/errors"
	"github.com/agentstation/roster/pkg/logging"
)

type fakeRepo struct {
	mu      sync.Mutex
	players []players.Player
	gets    int
	err     error
}

func (f *fakeRepo) List(context.Context) ([]players.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append(make([]players.Player, 0, len(f.players)), f.players...), nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (players.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return players.Player{}, f.err
	}
	for _, p := range f.players {
		if *p.ID == id {
			return p, nil
		}
	}
	return players.Player{}, errors.NewNotFoundError("player", id.String())
}

func (f *fakeRepo) Insert(_ context.Context, p players.Player) (players.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return players.Player{}, f.err
	}
	if p.Name == "" || p.Username == "" {
		return players.Player{}, errors.NewValidationError("username", p.Username, "is required")
	}
	for _, existing := range f.players {
		if existing.Username == p.Username {
			return players.Player{}, errors.NewConflictError("player", "username", p.Username, nil)
		}
	}
	id := uuid.New()
	p.ID = &id
	f.players = append(f.players, p)
	return p, nil
}

type fakeSearch struct {
	hits []players.Player
	term string
	err  error
}

func (f *fakeSearch) Search(_ context.Context, term string) ([]players.Player, error) {
	f.term = term
	if f.err != nil {
		return nil, f.err
	}
	out := make([]players.Player, 0)
	for _, p := range f.hits {
		if strings.Contains(p.Username, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeIndexer struct {
	mu     sync.Mutex
	queued []players.Player
}

func (f *fakeIndexer) Enqueue(p players.Player) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, p)
}

type fixture struct {
	repo    *fakeRepo
	search  *fakeSearch
	indexer *fakeIndexer
	cache   *cache.Cache
	router  http.Handler
}

func newFixture(t *testing.T, writeError response.ErrorWriter) *fixture {
	t.Helper()
	f := &fixture{
		repo:    &fakeRepo{},
		search:  &fakeSearch{},
		indexer: &fakeIndexer{},
		cache:   cache.New(time.Minute, time.Minute),
	}
	h := New(f.repo, f.search, f.indexer, f.cache, writeError, logging.NewNopLogger())

	r := chi.NewRouter()
	r.Get("/health", h.HandleHealth)
	r.Get("/api/players", h.HandleListPlayers)
	r.Put("/api/players", h.HandleAddPlayer)
	r.Get("/api/players/{id}", h.HandleGetPlayer)
	r.Post("/api/search/{term}", h.HandleSearchPlayers)
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestHandleListPlayers(t *testing.T) {
	f := newFixture(t, nil)

	t.Run("empty", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/players", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "[]", w.Body.String())
	})

	t.Run("after insert", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, f.do(http.MethodPut, "/api/players",
			`{"number":24,"name":"Kobe Bryant","username":"kobe"}`).Code)

		w := f.do(http.MethodGet, "/api/players", "")
		var list []players.Player
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "kobe", list[0].Username)
	})

	t.Run("storage failure", func(t *testing.T) {
		f.repo.err = errors.NewPoolExhaustedError(5, "1s")
		defer func() { f.repo.err = nil }()

		w := f.do(http.MethodGet, "/api/players", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var msg string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
		assert.NotEmpty(t, msg)
	})
}

func TestHandleAddPlayer(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPut, "/api/players",
		`{"id":"00000000-0000-0000-0000-000000000000","number":23,"name":"LeBron James","username":"lebron","email":"lbj@lakers.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created players.Player
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.ID)
	assert.NotEqual(t, uuid.Nil, *created.ID)
	assert.Equal(t, int32(23), created.Number)
	assert.Equal(t, "lebron", created.Username)

	t.Run("cached and queued for indexing", func(t *testing.T) {
		_, found := f.cache.Player(created.ID.String())
		assert.True(t, found)
		require.Len(t, f.indexer.queued, 1)
		assert.Equal(t, created.ID, f.indexer.queued[0].ID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := f.do(http.MethodPut, "/api/players", `{"number":6,"name":"Other","username":"lebron"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Len(t, f.indexer.queued, 1)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := f.do(http.MethodPut, "/api/players", `{"number":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGetPlayer(t *testing.T) {
	f := newFixture(t, nil)
	// Stored behind the handlers' back so the first read misses the cache.
	created, err := f.repo.Insert(context.Background(), players.Player{Number: 3, Name: "Anthony Davis", Username: "ad"})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/players/"+created.ID.String(), "")
		require.Equal(t, http.StatusOK, w.Code)

		var got players.Player
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, created, got)
		assert.Equal(t, 1, f.repo.gets)
	})

	t.Run("served from cache", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/players/"+created.ID.String(), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, f.repo.gets)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/players/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/players/not-a-uuid", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandlersTagRequestLogger(t *testing.T) {
	f := newFixture(t, nil)
	tl := logging.NewTestLogger(t)
	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(logging.WithLogger(req.Context(), tl.Logger))
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w
	}

	w := send(http.MethodPut, "/api/players", `{"number":0,"name":"Russell Westbrook","username":"russ"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created players.Player
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, tl.Contains(`"player_id":"`+created.ID.String()+`"`))

	f.repo.err = assert.AnError
	w = send(http.MethodGet, "/api/players", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, tl.Contains(`"operation":"list players"`))
}

func TestHandleSearchPlayers(t *testing.T) {
	f := newFixture(t, nil)
	kobe, lebron := uuid.New(), uuid.New()
	f.search.hits = []players.Player{
		{ID: &kobe, Number: 24, Name: "Kobe Bryant", Username: "kobe"},
		{ID: &lebron, Number: 23, Name: "LeBron James", Username: "lebron"},
	}

	t.Run("single hit", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/search/kobe", "")
		require.Equal(t, http.StatusOK, w.Code)

		var hits []players.Player
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
		require.Len(t, hits, 1)
		assert.Equal(t, "kobe", hits[0].Username)
	})

	t.Run("no hits", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/search/shaq", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})

	t.Run("escaped term", func(t *testing.T) {
		f.do(http.MethodPost, "/api/search/le%20bron", "")
		assert.Equal(t, "le bron", f.search.term)
	})

	t.Run("search failure", func(t *testing.T) {
		f.search.err = errors.NewAPIError("meilisearch", http.StatusBadGateway, "upstream down")
		defer func() { f.search.err = nil }()

		w := f.do(http.MethodPost, "/api/search/kobe", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTypedErrors(t *testing.T) {
	f := newFixture(t, response.ErrorFromType)
	require.Equal(t, http.StatusCreated, f.do(http.MethodPut, "/api/players",
		`{"number":24,"name":"Kobe Bryant","username":"kobe"}`).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing name", http.MethodPut, "/api/players", `{"number":1,"username":"x"}`, http.StatusBadRequest},
		{"duplicate", http.MethodPut, "/api/players", `{"number":1,"name":"K","username":"kobe"}`, http.StatusConflict},
		{"unknown id", http.MethodGet, "/api/players/" + uuid.NewString(), "", http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/players/nope", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	t.Run("pool exhausted", func(t *testing.T) {
		f.repo.err = errors.NewPoolExhaustedError(5, "1s")
		defer func() { f.repo.err = nil }()
		assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/api/players", "").Code)
	})
}
