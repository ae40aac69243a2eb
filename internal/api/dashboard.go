package api

import (
	"net/http"

	"github.com/Priya8975/appointment-notifier/internal/session"
)

type clientCounter interface {
	ClientCount() int
}

type DashboardHandler struct {
	session *session.Session
	hub     clientCounter
}

func NewDashboardHandler(s *session.Session, hub clientCounter) *DashboardHandler {
	return &DashboardHandler{session: s, hub: hub}
}

// Connection returns the push subscription and degradation status.
func (h *DashboardHandler) Connection(w http.ResponseWriter, r *http.Request) {
	type connectionResponse struct {
		session.Status
		UIClients int `json:"ui_clients"`
	}

	respondJSON(w, http.StatusOK, connectionResponse{
		Status:    h.session.Status(),
		UIClients: h.hub.ClientCount(),
	})
}
