package api

import (
	"net/http"

	"github.com/Priya8975/appointment-notifier/internal/domain"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version"`
	Connection domain.ConnectionState `json:"connection"`
}

type connectionStater interface {
	ConnectionState() domain.ConnectionState
}

// HealthHandler reports the process as healthy; a degraded push channel is
// reported but does not fail the check.
func HealthHandler(s connectionStater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{
			Status:     "healthy",
			Version:    "1.0.0",
			Connection: s.ConnectionState(),
		})
	}
}
