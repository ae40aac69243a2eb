package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Priya8975/appointment-notifier/internal/session"
	ws "github.com/Priya8975/appointment-notifier/internal/websocket"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(sess *session.Session, hub *ws.Hub, limiter *RateLimiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// CORS for the UI
	r.Use(corsMiddleware)

	notifHandler := NewNotificationHandler(sess)
	sessionHandler := NewSessionHandler(sess, logger)
	dashHandler := NewDashboardHandler(sess, hub)

	// WebSocket endpoint
	r.Get("/ws", hub.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler(sess))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notifHandler.List)
			r.Get("/unread-count", notifHandler.UnreadCount)
			r.Post("/read-all", notifHandler.MarkAllRead)
			r.Post("/{id}/read", notifHandler.MarkRead)
		})

		r.Get("/connection", dashHandler.Connection)

		r.Route("/session", func(r chi.Router) {
			r.With(limiter.Middleware).Put("/", sessionHandler.Start)
			r.Delete("/", sessionHandler.End)
		})
	})

	return r
}

// corsMiddleware adds CORS headers for UI development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
