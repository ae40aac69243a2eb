package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/Priya8975/appointment-notifier/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recordingBridge counts every signal it receives.
type recordingBridge struct {
	mu      sync.Mutex
	scopes  []domain.Scope
	failing bool
}

func (b *recordingBridge) Signal(ctx context.Context, scope domain.Scope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return errors.New("cache unavailable")
	}
	b.scopes = append(b.scopes, scope)
	return nil
}

func (b *recordingBridge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.scopes)
}

func (b *recordingBridge) Last() domain.Scope {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.scopes) == 0 {
		return domain.Scope{}
	}
	return b.scopes[len(b.scopes)-1]
}

type publishedEvent struct {
	Type string
	Data any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
}

func (p *recordingPublisher) Count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
