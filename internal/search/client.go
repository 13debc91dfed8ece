// Package search keeps a text-search index of players and queries it.
//
// The index is a secondary store: writes land in PostgreSQL first and are
// pushed here afterwards, so results are eventually consistent with the
// database. Client wraps a Backend (Meilisearch in production) and an
// Indexer pushes new players in the background.
package search

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/agentstation/roster/internal/players"
	"github.com/agentstation/roster/pkg/errors"
	"github.com/agentstation/roster/pkg/logging"
)

// Defaults used when waiting on index tasks.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultTaskTimeout  = 30 * time.Second
	DefaultIndex        = "players"

	primaryKey = "id"
)

// TaskStatus is the lifecycle state of an asynchronous index task.
type TaskStatus string

// Task states reported by the search server.
const (
	TaskEnqueued   TaskStatus = "enqueued"
	TaskProcessing TaskStatus = "processing"
	TaskSucceeded  TaskStatus = "succeeded"
	TaskFailed     TaskStatus = "failed"
	TaskCanceled   TaskStatus = "canceled"
)

// Done reports whether the task has reached a terminal state.
func (s TaskStatus) Done() bool {
	return s == TaskSucceeded || s == TaskFailed || s == TaskCanceled
}

// TaskHandle identifies an index task accepted by the search server.
type TaskHandle struct {
	UID   int64
	Index string
}

// Backend is the raw search server API.
type Backend interface {
	Search(ctx context.Context, index, term string) ([]json.RawMessage, error)
	AddDocuments(ctx context.Context, index string, docs any, primaryKey string) (TaskHandle, error)
	TaskStatus(ctx context.Context, uid int64) (TaskStatus, error)
}

// Config holds search server connection settings.
type Config struct {
	URL    string
	APIKey string
	Index  string

	// HTTPClient is optional; the SDK default is used when nil.
	HTTPClient *http.Client
}

// Client searches and updates the player index.
type Client struct {
	backend Backend
	index   string
}

// NewClient connects to the Meilisearch server described by cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.NewConfigError("SEARCH_SERVER_URL", "search server URL is empty", errors.ErrMissingConfig)
	}
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError("SEARCH_MASTER_KEY", "search API key is empty", errors.ErrMissingConfig)
	}
	return NewClientWithBackend(newMeiliBackend(cfg.URL, cfg.APIKey, cfg.HTTPClient), cfg.Index), nil
}

// NewClientWithBackend returns a Client over an arbitrary backend.
func NewClientWithBackend(backend Backend, index string) *Client {
	if index == "" {
		index = DefaultIndex
	}
	return &Client{backend: backend, index: index}
}

// Index returns the default player index name.
func (c *Client) Index() string {
	return c.index
}

// Search returns the players in the default index matching term.
func (c *Client) Search(ctx context.Context, term string) ([]players.Player, error) {
	return c.SearchIndex(ctx, c.index, term)
}

// SearchIndex returns the players in index matching term. A hit that does
// not decode into a complete player fails the whole search.
func (c *Client) SearchIndex(ctx context.Context, index, term string) ([]players.Player, error) {
	ctx = logging.WithIndex(ctx, index)
	hits, err := c.backend.Search(ctx, index, term)
	if err != nil {
		return nil, errors.WrapResource("search", "index", index, err)
	}

	out := make([]players.Player, 0, len(hits))
	for _, hit := range hits {
		var p players.Player
		if err := json.Unmarshal(hit, &p); err != nil {
			return nil, errors.WrapParse("json", index, err)
		}
		if p.ID == nil || p.Name == "" || p.Username == "" {
			return nil, errors.NewParseError("document", index, "hit is missing id, name or username: "+string(hit), nil)
		}
		out = append(out, p)
	}

	logging.FromContext(ctx).Debug().
		Str("term", term).
		Int("hits", len(out)).
		Msg("Search completed")
	return out, nil
}

// Upsert adds or replaces p in the default index.
func (c *Client) Upsert(ctx context.Context, p players.Player) (TaskHandle, error) {
	return c.UpsertIndex(ctx, c.index, p)
}

// UpsertIndex adds or replaces p in index, keyed by id.
func (c *Client) UpsertIndex(ctx context.Context, index string, p players.Player) (TaskHandle, error) {
	if p.ID == nil {
		return TaskHandle{}, errors.NewValidationError("id", nil, "player must be stored before it is indexed")
	}
	handle, err := c.backend.AddDocuments(ctx, index, []players.Player{p}, primaryKey)
	if err != nil {
		return TaskHandle{}, errors.WrapResource("index", "player", p.Key(), err)
	}
	return handle, nil
}

// WaitForTask polls the task every interval until it finishes or timeout
// elapses. Zero values fall back to DefaultPollInterval and DefaultTaskTimeout.
func (c *Client) WaitForTask(ctx context.Context, handle TaskHandle, interval, timeout time.Duration) (TaskStatus, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.backend.TaskStatus(ctx, handle.UID)
		if err != nil {
			return "", errors.WrapResource("get", "task", formatUID(handle.UID), err)
		}
		if status.Done() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-deadline.C:
			return status, errors.NewTimeoutError("wait_for_task", timeout.String(),
				"task "+formatUID(handle.UID)+" is still "+string(status))
		case <-ticker.C:
		}
	}
}

func formatUID(uid int64) string {
	return strconv.FormatInt(uid, 10)
}
