package handlers

import (
	"net/http"

	"github.com/agentstation/roster/internal/server/response"
)

// HandleHealth handles GET /health. It is a liveness probe and touches
// neither the database nor the search server.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]string{"status": "healthy"})
}
