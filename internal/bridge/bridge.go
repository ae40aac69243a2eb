// Package bridge tells cached read-models that they are stale.
package bridge

import (
	"context"
	"log/slog"

	"github.com/Priya8975/appointment-notifier/internal/domain"
)

// Bridge marks the cached queries named by scope as stale. It is called from
// the live event path and from the polling fallback with the same scopes.
type Bridge interface {
	Signal(ctx context.Context, scope domain.Scope) error
}

// Func adapts an ordinary function to Bridge.
type Func func(ctx context.Context, scope domain.Scope) error

func (f Func) Signal(ctx context.Context, scope domain.Scope) error {
	return f(ctx, scope)
}

// Log only records the signal. It is used when no cache backend is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (b *Log) Signal(ctx context.Context, scope domain.Scope) error {
	b.logger.Info("cache invalidation signalled",
		"kind", scope.Kind,
		"office_id", scope.OfficeID,
	)
	return nil
}
