// Package subscription owns the push connection of one consumer.
package subscription

import (
	"context"

	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/engine"
)

// Transport opens push connections. Dial must honour ctx cancellation.
type Transport interface {
	Dial(ctx context.Context, subject domain.Subject) (Conn, error)
}

// Conn is one live push connection. ReadFrame returns io.EOF when the server
// closes the stream and must unblock once Close is called. Close must be safe
// to call more than once.
type Conn interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}

// FrameHandler processes one frame to completion.
type FrameHandler interface {
	HandleFrame(ctx context.Context, subject domain.Subject, frame []byte) engine.Outcome
}

// Degrader is the polling fallback driven by transport failures.
type Degrader interface {
	Enter(scope domain.Scope) bool
	Resume() bool
	Stop()
	Degraded() bool
}
