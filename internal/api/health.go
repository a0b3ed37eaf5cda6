package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /health: a shallow liveness probe reporting service
// identity and time. Dependency connectivity is checked by /readyz, not here.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
