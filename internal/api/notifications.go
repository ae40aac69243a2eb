package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/session"
)

type NotificationHandler struct {
	session *session.Session
}

func NewNotificationHandler(s *session.Session) *NotificationHandler {
	return &NotificationHandler{session: s}
}

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.session.Notifications()
	unread := 0
	for _, n := range list {
		if !n.IsRead {
			unread++
		}
	}
	respondJSON(w, http.StatusOK, notificationsResponse{
		Notifications: list,
		UnreadCount:   unread,
	})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{"unread_count": h.session.UnreadCount()})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.session.MarkRead(id) {
		respondError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{"marked": h.session.MarkAllRead()})
}
