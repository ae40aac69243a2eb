package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Priya8975/appointment-notifier/internal/bridge"
	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/engine"
	"github.com/Priya8975/appointment-notifier/internal/notification"
	"github.com/Priya8975/appointment-notifier/internal/subscription"
)

// Config wires a Session to its collaborators.
type Config struct {
	Transport       subscription.Transport
	Bridge          bridge.Bridge
	Publisher       engine.Publisher
	Logger          *slog.Logger
	PollingInterval time.Duration
	NotificationCap int
}

// Session owns everything tied to one signed-in user: the notification log,
// the degradation controller and the push subscription. Ending the session
// releases all of it.
type Session struct {
	store       *notification.Store
	degradation *engine.Degradation
	pipeline    *engine.Pipeline
	manager     *subscription.Manager
	publisher   engine.Publisher
	logger      *slog.Logger
}

// Status combines the subscription and degradation snapshots.
type Status struct {
	subscription.Status
	Degradation engine.DegradationState `json:"degradation"`
	Unread      int                     `json:"unread_count"`
}

func New(cfg Config) (*Session, error) {
	if cfg.Bridge == nil {
		return nil, fmt.Errorf("bridge is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = engine.NopPublisher
	}

	store := notification.NewStore(cfg.NotificationCap)
	degradation := engine.NewDegradation(cfg.Bridge, cfg.Publisher, cfg.PollingInterval, cfg.Logger)
	pipeline := engine.NewPipeline(store, cfg.Bridge, cfg.Publisher, cfg.Logger)

	manager, err := subscription.NewManager(subscription.Options{
		Transport: cfg.Transport,
		Frames:    pipeline,
		Degrader:  degradation,
		Publisher: cfg.Publisher,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating subscription manager: %w", err)
	}

	return &Session{
		store:       store,
		degradation: degradation,
		pipeline:    pipeline,
		manager:     manager,
		publisher:   cfg.Publisher,
		logger:      cfg.Logger,
	}, nil
}

// Start opens the push subscription for subject, replacing any previous one.
func (s *Session) Start(subject domain.Subject) (*subscription.Handle, error) {
	return s.manager.Open(subject)
}

// End is logout: the subscription closes, polling stops and the log is
// cleared.
func (s *Session) End() {
	s.manager.Shutdown()
	dropped := s.store.Len()
	s.store.Reset()
	s.logger.Info("session ended", "notifications_dropped", dropped)
}

// Close is service teardown. The log is left intact.
func (s *Session) Close() {
	s.manager.Shutdown()
}

func (s *Session) Notifications() []domain.Notification {
	return s.store.List()
}

func (s *Session) UnreadCount() int {
	return s.store.UnreadCount()
}

// MarkRead flags one notification as read. It returns false for unknown ids.
func (s *Session) MarkRead(id string) bool {
	if !s.store.MarkRead(id) {
		return false
	}
	s.publishRead([]string{id})
	return true
}

// MarkAllRead flags every notification as read and returns how many changed.
func (s *Session) MarkAllRead() int {
	n := s.store.MarkAllRead()
	if n > 0 {
		s.publishRead(nil)
	}
	return n
}

func (s *Session) Manager() *subscription.Manager {
	return s.manager
}

func (s *Session) ConnectionState() domain.ConnectionState {
	return s.manager.State()
}

func (s *Session) Status() Status {
	return Status{
		Status:      s.manager.Status(),
		Degradation: s.degradation.State(),
		Unread:      s.store.UnreadCount(),
	}
}

func (s *Session) publishRead(ids []string) {
	s.publisher.Publish(engine.EventNotificationsRead, map[string]any{
		"ids":          ids,
		"all":          ids == nil,
		"unread_count": s.store.UnreadCount(),
	})
}
