// Package notice stores one-shot messages shown to a browser session after a
// user action, the portal's equivalent of a blocking alert.
package notice

import (
	"context"
	"sync"
	"time"
)

// Level selects how a notice is styled.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a message waiting to be shown once.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }
func Error(msg string) Notice   { return Notice{Level: LevelError, Message: msg} }

// Store keeps pending notices per session. Pop returns and removes them in
// the order they were pushed.
type Store interface {
	Push(ctx context.Context, sessionID string, n Notice) error
	Pop(ctx context.Context, sessionID string) ([]Notice, error)
}

// MemoryStore is an in-process Store. Notices older than the TTL are dropped.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	pending map[string]*entry
}

type entry struct {
	notices []Notice
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string]*entry),
	}
}

func (s *MemoryStore) Push(_ context.Context, sessionID string, n Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[sessionID]
	if !ok || s.expired(e) {
		e = &entry{}
		s.pending[sessionID] = e
	}
	e.notices = append(e.notices, n)
	e.expires = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, sessionID string) ([]Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[sessionID]
	if !ok {
		return nil, nil
	}
	delete(s.pending, sessionID)
	if s.expired(e) {
		return nil, nil
	}
	return e.notices, nil
}

// Sweep drops expired entries of sessions that never came back.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.pending {
		if s.expired(e) {
			delete(s.pending, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done. A non-positive interval
// sweeps once a minute.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *MemoryStore) expired(e *entry) bool {
	return s.ttl > 0 && s.now().After(e.expires)
}
