package session_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Priya8975/appointment-notifier/internal/bridge"
	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/engine"
	"github.com/Priya8975/appointment-notifier/internal/session"
	"github.com/Priya8975/appointment-notifier/internal/testutil"
)

const frameTemplate = `{"event":"new_appointment","data":{"appointment":{"id":"%s","status":"PENDING","appointment_date":"2024-05-01","time_slotted":"09:00","purpose":"Passport renewal","created_at":"2024-05-01T08:00:00Z","office_id":"o1"},"citizen":{"firstname":"Amina","lastname":"Yusuf"}}}`

var subject = domain.Subject{OfficeID: "o1", Credential: "token-1"}

type signals struct {
	mu    sync.Mutex
	count int
}

func (s *signals) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

type events struct {
	mu    sync.Mutex
	types []string
}

func (e *events) Publish(eventType string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types = append(e.types, eventType)
}

func (e *events) Count(eventType string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, t := range e.types {
		if t == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	session   *session.Session
	transport *testutil.Transport
	signals   *signals
	events    *events
}

func setup(t *testing.T, capacity int) *fixture {
	t.Helper()
	f := &fixture{
		transport: testutil.NewTransport(),
		signals:   &signals{},
		events:    &events{},
	}
	s, err := session.New(session.Config{
		Transport: f.transport,
		Bridge: bridge.Func(func(ctx context.Context, scope domain.Scope) error {
			f.signals.mu.Lock()
			defer f.signals.mu.Unlock()
			f.signals.count++
			return nil
		}),
		Publisher:       f.events,
		Logger:          slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		PollingInterval: 20 * time.Millisecond,
		NotificationCap: capacity,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	f.session = s
	t.Cleanup(s.Close)
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew_RequiresBridge(t *testing.T) {
	_, err := session.New(session.Config{Transport: testutil.NewTransport()})
	if err == nil {
		t.Fatal("expected error without a bridge")
	}
}

func TestSession_FramesReachNotifications(t *testing.T) {
	f := setup(t, 100)

	h, err := f.session.Start(subject)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn := f.transport.NextConn(2 * time.Second)
	if conn == nil {
		t.Fatal("no connection dialed")
	}
	waitFor(t, "open", func() bool { return h.State() == domain.LifecycleOpen })

	conn.Send(fmt.Sprintf(frameTemplate, "a1"))
	conn.Send(fmt.Sprintf(frameTemplate, "a2"))
	conn.Send(fmt.Sprintf(frameTemplate, "a1"))

	waitFor(t, "signals", func() bool { return f.signals.Count() == 3 })

	list := f.session.Notifications()
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].ID != "notif-a2" || list[1].ID != "notif-a1" {
		t.Errorf("order = [%s %s], want newest first", list[0].ID, list[1].ID)
	}
	if list[0].AppointmentDate != "2024-05-01T09:00:00" {
		t.Errorf("AppointmentDate = %q", list[0].AppointmentDate)
	}
	if f.session.UnreadCount() != 2 {
		t.Errorf("UnreadCount = %d, want 2", f.session.UnreadCount())
	}
	if f.session.ConnectionState() != domain.Connected {
		t.Errorf("state = %s, want connected", f.session.ConnectionState())
	}
}

func TestSession_CapacityBoundsLog(t *testing.T) {
	f := setup(t, 3)

	if _, err := f.session.Start(subject); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn := f.transport.NextConn(2 * time.Second)
	if conn == nil {
		t.Fatal("no connection dialed")
	}
	for i := 0; i < 5; i++ {
		conn.Send(fmt.Sprintf(frameTemplate, fmt.Sprintf("a%d", i)))
	}
	waitFor(t, "signals", func() bool { return f.signals.Count() == 5 })

	list := f.session.Notifications()
	if len(list) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(list))
	}
	if list[2].ID != "notif-a2" {
		t.Errorf("oldest kept = %s, want notif-a2", list[2].ID)
	}
}

func TestSession_MarkReadPublishes(t *testing.T) {
	f := setup(t, 100)

	if _, err := f.session.Start(subject); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn := f.transport.NextConn(2 * time.Second)
	if conn == nil {
		t.Fatal("no connection dialed")
	}
	conn.Send(fmt.Sprintf(frameTemplate, "a1"))
	conn.Send(fmt.Sprintf(frameTemplate, "a2"))
	waitFor(t, "notifications", func() bool { return len(f.session.Notifications()) == 2 })

	if f.session.MarkRead("notif-missing") {
		t.Error("MarkRead of unknown id should return false")
	}
	if !f.session.MarkRead("notif-a1") {
		t.Error("MarkRead of known id should return true")
	}
	if f.session.UnreadCount() != 1 {
		t.Errorf("UnreadCount = %d, want 1", f.session.UnreadCount())
	}
	if n := f.session.MarkAllRead(); n != 1 {
		t.Errorf("MarkAllRead = %d, want 1", n)
	}
	if n := f.session.MarkAllRead(); n != 0 {
		t.Errorf("second MarkAllRead = %d, want 0", n)
	}
	if got := f.events.Count(engine.EventNotificationsRead); got != 2 {
		t.Errorf("read events = %d, want 2", got)
	}
}

func TestSession_EndClearsEverything(t *testing.T) {
	f := setup(t, 100)

	if _, err := f.session.Start(subject); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn := f.transport.NextConn(2 * time.Second)
	if conn == nil {
		t.Fatal("no connection dialed")
	}
	conn.Send(fmt.Sprintf(frameTemplate, "a1"))
	waitFor(t, "notification", func() bool { return len(f.session.Notifications()) == 1 })

	conn.Fail(errors.New("connection reset"))
	waitFor(t, "polling", func() bool { return f.session.ConnectionState() == domain.Polling })

	f.session.End()

	if len(f.session.Notifications()) != 0 {
		t.Error("notifications should be cleared on End")
	}
	if f.session.ConnectionState() != domain.Disconnected {
		t.Errorf("state = %s, want disconnected", f.session.ConnectionState())
	}
	if f.transport.Live() != 0 {
		t.Errorf("live connections = %d, want 0", f.transport.Live())
	}

	after := f.signals.Count()
	time.Sleep(100 * time.Millisecond)
	if f.signals.Count() != after {
		t.Error("polling continued after End")
	}
}

func TestSession_StatusIncludesDegradation(t *testing.T) {
	f := setup(t, 100)

	st := f.session.Status()
	if st.State != domain.Disconnected || st.Lifecycle != domain.LifecycleIdle {
		t.Errorf("initial status = %+v", st)
	}
	if st.Degradation.State != engine.StateLive {
		t.Errorf("degradation = %s, want live", st.Degradation.State)
	}

	if _, err := f.session.Start(subject); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn := f.transport.NextConn(2 * time.Second)
	if conn == nil {
		t.Fatal("no connection dialed")
	}
	conn.Fail(errors.New("boom"))
	waitFor(t, "degraded", func() bool { return f.session.Status().Degradation.State == engine.StateDegraded })

	st = f.session.Status()
	if st.State != domain.Polling {
		t.Errorf("state = %s, want polling", st.State)
	}
	if st.Degradation.OfficeID != "o1" {
		t.Errorf("degraded office = %q, want o1", st.Degradation.OfficeID)
	}
	if st.LastError == "" {
		t.Error("last error should be reported")
	}
}

func TestSession_InvalidSubject(t *testing.T) {
	f := setup(t, 100)

	_, err := f.session.Start(domain.Subject{OfficeID: "o1"})
	if !errors.Is(err, domain.ErrSubjectInvalid) {
		t.Fatalf("err = %v, want ErrSubjectInvalid", err)
	}
	if f.transport.Dials() != 0 {
		t.Errorf("dials = %d, want 0", f.transport.Dials())
	}
}
