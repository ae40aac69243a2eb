// Package notification keeps the session's bounded notification log.
package notification

import (
	"sync"

	"github.com/Priya8975/appointment-notifier/internal/domain"
)

// DefaultCap bounds the log of a long-lived session.
const DefaultCap = 100

// Store is an ordered, deduplicated, bounded notification log. Items are kept
// in insertion order and evicted strictly from the oldest end once the cap is
// exceeded; read state does not protect an item from eviction.
type Store struct {
	mu    sync.RWMutex
	cap   int
	items []domain.Notification
	ids   map[string]struct{}
}

// NewStore creates a store holding at most capacity notifications.
// A non-positive capacity falls back to DefaultCap.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Store{
		cap:   capacity,
		items: make([]domain.Notification, 0, capacity),
		ids:   make(map[string]struct{}, capacity),
	}
}

// Append inserts n unless a notification with the same id is already held.
// It returns false, without mutating anything, for a duplicate.
func (s *Store) Append(n domain.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[n.ID]; ok {
		return false
	}

	s.items = append(s.items, n)
	s.ids[n.ID] = struct{}{}

	for len(s.items) > s.cap {
		delete(s.ids, s.items[0].ID)
		s.items[0] = domain.Notification{}
		s.items = s.items[1:]
	}
	return true
}

// MarkRead flags the notification as read. It reports whether id was found.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsRead = true
			return true
		}
	}
	return false
}

// MarkAllRead flags every held notification as read and returns how many
// changed.
func (s *Store) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for i := range s.items {
		if !s.items[i].IsRead {
			s.items[i].IsRead = true
			marked++
		}
	}
	return marked
}

// List returns a copy of the log, newest first.
func (s *Store) List() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Notification, len(s.items))
	for i, n := range s.items {
		out[len(s.items)-1-i] = n
	}
	return out
}

func (s *Store) Get(id string) (domain.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Notification{}, false
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Cap() int {
	return s.cap
}

// Reset drops every notification. Used when the session ends.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]domain.Notification, 0, s.cap)
	s.ids = make(map[string]struct{}, s.cap)
}
