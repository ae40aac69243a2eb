package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Priya8975/appointment-notifier/internal/bridge"
	"github.com/Priya8975/appointment-notifier/internal/domain"
)

// Degradation states.
const (
	StateLive     = "live"
	StateDegraded = "degraded"
)

// DefaultPollingInterval is used while the push channel is down.
const DefaultPollingInterval = 30 * time.Second

// Degradation switches a subject to timed polling when its push channel fails.
// State transitions: live → degraded → live
//
// - Live: push delivers events, no poller runs.
// - Degraded: a poller signals the cache bridge every interval so consumers
// refetch. Missed notifications are not replayed.
//
// At most one poller exists at a time. It is acquired on entering degraded
// and released exactly once on Resume or Stop.
type Degradation struct {
	bridge    bridge.Bridge
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration

	mu     sync.Mutex
	poller *poller
	scope  domain.Scope
	since  time.Time
	ticks  int64
}

// DegradationState is the snapshot returned to the status endpoint.
type DegradationState struct {
	State           string `json:"state"`
	OfficeID        string `json:"office_id,omitempty"`
	Since           string `json:"since,omitempty"`
	PollingInterval string `json:"polling_interval"`
	Polls           int64  `json:"polls"`
}

func NewDegradation(b bridge.Bridge, publisher Publisher, interval time.Duration, logger *slog.Logger) *Degradation {
	if interval <= 0 {
		interval = DefaultPollingInterval
	}
	if publisher == nil {
		publisher = NopPublisher
	}
	return &Degradation{
		bridge:    b,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
	}
}

// Enter moves to degraded for scope and starts polling. It returns false if
// already degraded; the warning is surfaced only on the transition.
func (d *Degradation) Enter(scope domain.Scope) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.poller != nil {
		return false
	}

	d.scope = scope
	d.since = time.Now()
	d.ticks = 0
	d.poller = d.acquirePoller(scope)

	d.logger.Warn("push channel degraded, polling for changes",
		"office_id", scope.OfficeID,
		"polling_interval", d.interval.String(),
	)
	d.publisher.Publish(EventDegraded, domain.Warning{
		OfficeID: scope.OfficeID,
		Message:  "Live updates are unavailable. Refreshing periodically.",
		Since:    d.since,
	})
	return true
}

// Resume leaves degraded after push is live again. It reports whether a
// poller was released.
func (d *Degradation) Resume() bool {
	p, scope := d.detach()
	if p == nil {
		return false
	}
	p.release()

	d.logger.Info("push channel resumed", "office_id", scope.OfficeID)
	d.publisher.Publish(EventResumed, map[string]string{"office_id": scope.OfficeID})
	return true
}

// Stop releases the poller without announcing a resumption. Used on subject
// change and teardown.
func (d *Degradation) Stop() {
	if p, _ := d.detach(); p != nil {
		p.release()
	}
}

func (d *Degradation) Degraded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.poller != nil
}

func (d *Degradation) State() DegradationState {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := DegradationState{
		State:           StateLive,
		PollingInterval: d.interval.String(),
	}
	if d.poller != nil {
		st.State = StateDegraded
		st.OfficeID = d.scope.OfficeID
		st.Since = d.since.Format(time.RFC3339)
		st.Polls = d.ticks
	}
	return st
}

func (d *Degradation) detach() (*poller, domain.Scope) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, scope := d.poller, d.scope
	d.poller = nil
	d.scope = domain.Scope{}
	return p, scope
}

// poller is the scoped polling resource. release cancels it and waits for
// the ticking goroutine, so no signal fires after release returns.
type poller struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (d *Degradation) acquirePoller(scope domain.Scope) *poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &poller{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.poll(ctx, scope)
			}
		}
	}()
	return p
}

func (d *Degradation) poll(ctx context.Context, scope domain.Scope) {
	d.mu.Lock()
	d.ticks++
	d.mu.Unlock()

	if err := d.bridge.Signal(ctx, scope); err != nil && ctx.Err() == nil {
		d.logger.Error("polling refresh failed",
			"error", err,
			"office_id", scope.OfficeID,
		)
	}
}

func (p *poller) release() {
	p.once.Do(func() {
		p.cancel()
		<-p.done
	})
}
