// Package testutil provides in-memory doubles shared by package tests.
package testutil

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/subscription"
)

// Transport is an in-memory push transport that counts dials and records
// the order of dial and close calls.
type Transport struct {
	mu      sync.Mutex
	conns   []*Conn
	log     []string
	dialErr error
	gate    chan struct{}
	dialed  chan *Conn
}

func NewTransport() *Transport {
	return &Transport{dialed: make(chan *Conn, 64)}
}

// FailDials makes every following Dial return err. Pass nil to restore.
func (t *Transport) FailDials(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dialErr = err
}

// HoldDials makes Dial block until ReleaseDials or ctx cancellation.
func (t *Transport) HoldDials() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gate = make(chan struct{})
}

func (t *Transport) ReleaseDials() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gate != nil {
		close(t.gate)
		t.gate = nil
	}
}

func (t *Transport) Dial(ctx context.Context, subject domain.Subject) (subscription.Conn, error) {
	t.mu.Lock()
	t.log = append(t.log, "dial:"+subject.OfficeID)
	gate, dialErr := t.gate, t.dialErr
	t.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if dialErr != nil {
		return nil, dialErr
	}

	c := &Conn{
		Subject:   subject,
		transport: t,
		frames:    make(chan []byte, 256),
		errs:      make(chan error, 1),
		closed:    make(chan struct{}),
	}
	t.mu.Lock()
	t.conns = append(t.conns, c)
	t.mu.Unlock()
	t.dialed <- c
	return c, nil
}

// Dials returns how many times Dial was called.
func (t *Transport) Dials() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, entry := range t.log {
		if len(entry) > 5 && entry[:5] == "dial:" {
			n++
		}
	}
	return n
}

// Live returns how many connections are open.
func (t *Transport) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.conns {
		if !c.Closed() {
			n++
		}
	}
	return n
}

// Log returns the ordered dial/close history.
func (t *Transport) Log() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.log))
	copy(out, t.log)
	return out
}

// NextConn waits for the next successful dial.
func (t *Transport) NextConn(timeout time.Duration) *Conn {
	select {
	case c := <-t.dialed:
		return c
	case <-time.After(timeout):
		return nil
	}
}

func (t *Transport) record(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, entry)
}

// Conn is one in-memory connection.
type Conn struct {
	Subject   domain.Subject
	transport *Transport
	frames    chan []byte
	errs      chan error
	closed    chan struct{}
	once      sync.Once
}

func (c *Conn) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case <-c.closed:
		return nil, net.ErrClosed
	default:
	}
	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.errs:
		return nil, err
	case <-c.closed:
		return nil, net.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) Close() error {
	c.once.Do(func() {
		c.transport.record("close:" + c.Subject.OfficeID)
		close(c.closed)
	})
	return nil
}

func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Send delivers a frame from the server.
func (c *Conn) Send(frame string) {
	c.frames <- []byte(frame)
}

// Fail makes the next read return err.
func (c *Conn) Fail(err error) {
	c.errs <- err
}

// Hangup simulates the server closing the stream.
func (c *Conn) Hangup() {
	c.errs <- io.EOF
}
