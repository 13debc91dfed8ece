package search

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/meilisearch/meilisearch-go"

	"github.com/agentstation/roster/pkg/errors"
)

const serviceName = "meilisearch"

// meiliBackend talks to a Meilisearch server.
type meiliBackend struct {
	client meilisearch.ServiceManager
}

func newMeiliBackend(url, apiKey string, httpClient *http.Client) *meiliBackend {
	opts := []meilisearch.Option{meilisearch.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, meilisearch.WithCustomClient(httpClient))
	}
	return &meiliBackend{client: meilisearch.New(url, opts...)}
}

func (m *meiliBackend) Search(ctx context.Context, index, term string) ([]json.RawMessage, error) {
	resp, err := m.client.Index(index).SearchWithContext(ctx, term, &meilisearch.SearchRequest{})
	if err != nil {
		return nil, apiError(err)
	}

	// Hits are re-encoded so each document can be decoded strictly.
	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, errors.WrapParse("json", index, err)
	}
	var hits []json.RawMessage
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, errors.WrapParse("json", index, err)
	}
	return hits, nil
}

func (m *meiliBackend) AddDocuments(ctx context.Context, index string, docs any, primaryKey string) (TaskHandle, error) {
	info, err := m.client.Index(index).AddDocumentsWithContext(ctx, docs, primaryKey)
	if err != nil {
		return TaskHandle{}, apiError(err)
	}
	return TaskHandle{UID: info.TaskUID, Index: index}, nil
}

func (m *meiliBackend) TaskStatus(ctx context.Context, uid int64) (TaskStatus, error) {
	task, err := m.client.GetTaskWithContext(ctx, uid)
	if err != nil {
		return "", apiError(err)
	}
	return TaskStatus(task.Status), nil
}

func apiError(err error) error {
	var merr *meilisearch.Error
	if stderrors.As(err, &merr) {
		return errors.WrapAPI(serviceName, merr.StatusCode, err)
	}
	return errors.WrapAPI(serviceName, 0, err)
}
