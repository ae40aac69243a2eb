package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/engine"
)

type eventKind int

const (
	evConnected eventKind = iota
	evFrame
	evError
	evClosed
)

// transportEvent is one entry of the per-subscription queue.
type transportEvent struct {
	kind  eventKind
	frame []byte
	err   error
}

// subscription is a single connection attempt for one subject. All transport
// events go through queue and are drained by one goroutine in order.
type subscription struct {
	id        string
	subject   domain.Subject
	frames    FrameHandler
	degrader  Degrader
	publisher engine.Publisher
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan transportEvent
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    domain.Lifecycle
	conn     Conn
	closed   bool
	lastErr  error
	openedAt time.Time
	received int64
}

func (s *subscription) start(transport Transport) {
	s.wg.Add(2)
	go s.loop()
	go s.connect(transport)
}

// connect dials and then pumps frames into the queue until the connection
// fails or the subscription is closed.
func (s *subscription) connect(transport Transport) {
	defer s.wg.Done()

	conn, err := transport.Dial(s.ctx, s.subject)
	if err != nil {
		s.post(transportEvent{kind: evError, err: &domain.TransportError{Op: "dial", Err: err}})
		return
	}
	if !s.attach(conn) {
		conn.Close()
		return
	}
	if !s.post(transportEvent{kind: evConnected}) {
		return
	}

	for {
		frame, err := conn.ReadFrame(s.ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.post(transportEvent{kind: evClosed, err: &domain.TransportError{Op: "read", Err: err}})
			} else {
				s.post(transportEvent{kind: evError, err: &domain.TransportError{Op: "read", Err: err}})
			}
			return
		}
		if !s.post(transportEvent{kind: evFrame, frame: frame}) {
			return
		}
	}
}

// post enqueues ev. It reports false once the subscription is closed.
func (s *subscription) post(ev transportEvent) bool {
	select {
	case s.queue <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *subscription) attach(conn Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

func (s *subscription) loop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.queue:
			s.dispatch(ev)
		}
	}
}

func (s *subscription) dispatch(ev transportEvent) {
	s.mu.Lock()
	if s.closed || s.state == domain.LifecycleErrored {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	switch ev.kind {
	case evConnected:
		s.setState(domain.LifecycleOpen, nil)
		s.logger.Info("push connection open",
			"handle_id", s.id,
			"office_id", s.subject.OfficeID,
		)
		s.degrader.Resume()
		s.publishState(domain.LifecycleOpen)

	case evFrame:
		s.mu.Lock()
		s.received++
		s.mu.Unlock()
		s.frames.HandleFrame(s.ctx, s.subject, ev.frame)

	case evError, evClosed:
		s.setState(domain.LifecycleErrored, ev.err)
		s.closeConn()
		msg := "push connection failed"
		if ev.kind == evClosed {
			msg = "push connection closed by server"
		}
		s.logger.Warn(msg,
			"handle_id", s.id,
			"office_id", s.subject.OfficeID,
			"error", ev.err,
		)
		// No retry here: polling takes over until the next explicit Open.
		s.degrader.Enter(domain.OfficeAppointments(s.subject.OfficeID))
		s.publishState(domain.LifecycleErrored)
	}
}

func (s *subscription) setState(state domain.Lifecycle, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if state == domain.LifecycleOpen {
		s.openedAt = time.Now()
	}
	if err != nil {
		s.lastErr = err
	}
}

func (s *subscription) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// close releases the transport and waits for every goroutine of the
// subscription to exit. No frame is dispatched after close returns.
func (s *subscription) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = domain.LifecycleClosed
	s.mu.Unlock()

	s.cancel()
	s.closeConn()
	s.wg.Wait()
}

func (s *subscription) lifecycle() domain.Lifecycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *subscription) publishState(state domain.Lifecycle) {
	s.publisher.Publish(engine.EventConnectionState, map[string]string{
		"handle_id": s.id,
		"office_id": s.subject.OfficeID,
		"lifecycle": string(state),
	})
}
