package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/session"
)

type SessionHandler struct {
	session *session.Session
	logger  *slog.Logger
}

func NewSessionHandler(s *session.Session, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{session: s, logger: logger}
}

type startSessionRequest struct {
	OfficeID   string `json:"office_id"`
	Credential string `json:"credential"`
}

type startSessionResponse struct {
	HandleID  string           `json:"handle_id"`
	OfficeID  string           `json:"office_id"`
	Lifecycle domain.Lifecycle `json:"lifecycle"`
}

// Start opens or replaces the push subscription.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	handle, err := h.session.Start(domain.Subject{
		OfficeID:   req.OfficeID,
		Credential: req.Credential,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSubjectInvalid) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to start session", "error", err, "office_id", req.OfficeID)
		respondError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	respondJSON(w, http.StatusOK, startSessionResponse{
		HandleID:  handle.ID,
		OfficeID:  handle.Subject.OfficeID,
		Lifecycle: handle.State(),
	})
}

// End is logout.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	h.session.End()
	w.WriteHeader(http.StatusNoContent)
}
