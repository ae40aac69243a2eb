package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Priya8975/appointment-notifier/internal/auth"
	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/engine"
)

const defaultQueueSize = 64

// Options configures a Manager.
type Options struct {
	Transport Transport
	Frames    FrameHandler
	Degrader  Degrader
	Publisher engine.Publisher
	Logger    *slog.Logger
	Now       func() time.Time
	QueueSize int
}

// Manager keeps at most one live push connection for its consumer. Opening
// the same subject again is a no-op while connecting or open; a different
// subject tears the previous connection down before dialing.
type Manager struct {
	transport Transport
	frames    FrameHandler
	degrader  Degrader
	publisher engine.Publisher
	logger    *slog.Logger
	now       func() time.Time
	queueSize int

	mu      sync.Mutex
	current *subscription
}

// Handle identifies one Open call's subscription.
type Handle struct {
	ID      string
	Subject domain.Subject
	sub     *subscription
}

// State returns the lifecycle of the subscription behind h.
func (h *Handle) State() domain.Lifecycle {
	if h == nil || h.sub == nil {
		return domain.LifecycleIdle
	}
	return h.sub.lifecycle()
}

// Status is the manager snapshot served to the UI.
type Status struct {
	State     domain.ConnectionState `json:"state"`
	Lifecycle domain.Lifecycle       `json:"lifecycle"`
	HandleID  string                 `json:"handle_id,omitempty"`
	OfficeID  string                 `json:"office_id,omitempty"`
	OpenedAt  string                 `json:"opened_at,omitempty"`
	LastError string                 `json:"last_error,omitempty"`
	Frames    int64                  `json:"frames"`
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if opts.Frames == nil {
		return nil, fmt.Errorf("frame handler is required")
	}
	if opts.Degrader == nil {
		return nil, fmt.Errorf("degrader is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Publisher == nil {
		opts.Publisher = engine.NopPublisher
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return &Manager{
		transport: opts.Transport,
		frames:    opts.Frames,
		degrader:  opts.Degrader,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		now:       opts.Now,
		queueSize: opts.QueueSize,
	}, nil
}

// Open starts a subscription for subject without waiting for the connection.
// An invalid subject closes any previous subscription and returns an error
// matching domain.ErrSubjectInvalid; nothing is started in that case.
func (m *Manager) Open(subject domain.Subject) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := auth.ValidateSubject(subject, m.now()); err != nil {
		if m.current != nil {
			m.teardownLocked()
		}
		m.logger.Warn("refusing push subscription",
			"office_id", subject.OfficeID,
			"error", err,
		)
		return nil, err
	}

	if cur := m.current; cur != nil {
		if cur.subject.Equal(subject) {
			switch cur.lifecycle() {
			case domain.LifecycleConnecting, domain.LifecycleOpen:
				return m.handle(cur), nil
			}
			// Same subject after a failure: replace the connection but keep
			// polling until the new one is open.
			cur.close()
			m.current = nil
		} else {
			m.teardownLocked()
		}
	}

	sub := m.newSubscription(subject)
	m.current = sub
	sub.start(m.transport)

	m.logger.Info("push subscription started",
		"handle_id", sub.id,
		"office_id", subject.OfficeID,
	)
	return m.handle(sub), nil
}

// Close tears down the subscription behind h synchronously and stops any
// polling. A handle that is no longer current is ignored.
func (m *Manager) Close(h *Handle) {
	if h == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.id != h.ID {
		return
	}
	m.teardownLocked()
}

// Shutdown closes whatever is open. Used on logout and process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.teardownLocked()
	}
	m.degrader.Stop()
}

// Current returns the handle of the active subscription, or nil.
func (m *Manager) Current() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.handle(m.current)
}

// State derives the externally visible connection state.
func (m *Manager) State() domain.ConnectionState {
	if m.degrader.Degraded() {
		return domain.Polling
	}

	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur != nil && cur.lifecycle() == domain.LifecycleOpen {
		return domain.Connected
	}
	return domain.Disconnected
}

func (m *Manager) Status() Status {
	st := Status{
		State:     m.State(),
		Lifecycle: domain.LifecycleIdle,
	}

	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur == nil {
		return st
	}

	cur.mu.Lock()
	defer cur.mu.Unlock()
	st.Lifecycle = cur.state
	st.HandleID = cur.id
	st.OfficeID = cur.subject.OfficeID
	st.Frames = cur.received
	if !cur.openedAt.IsZero() {
		st.OpenedAt = cur.openedAt.Format(time.RFC3339)
	}
	if cur.lastErr != nil {
		st.LastError = cur.lastErr.Error()
	}
	return st
}

func (m *Manager) teardownLocked() {
	cur := m.current
	m.current = nil
	cur.close()
	m.degrader.Stop()

	m.logger.Info("push subscription closed",
		"handle_id", cur.id,
		"office_id", cur.subject.OfficeID,
	)
	cur.publishState(domain.LifecycleClosed)
}

func (m *Manager) newSubscription(subject domain.Subject) *subscription {
	ctx, cancel := context.WithCancel(context.Background())
	return &subscription{
		id:        uuid.NewString(),
		subject:   subject,
		frames:    m.frames,
		degrader:  m.degrader,
		publisher: m.publisher,
		logger:    m.logger,
		ctx:       ctx,
		cancel:    cancel,
		queue:     make(chan transportEvent, m.queueSize),
		state:     domain.LifecycleConnecting,
	}
}

func (m *Manager) handle(sub *subscription) *Handle {
	return &Handle{ID: sub.id, Subject: sub.subject, sub: sub}
}
