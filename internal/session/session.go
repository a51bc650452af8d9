// Package session keeps one set of page states per browser.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MuhammadMagdy7/money-transfer/internal/activity"
	"github.com/MuhammadMagdy7/money-transfer/internal/pages"
	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

// Session is the page state of one browser. Pages are independent of each
// other and each guards its own state. Every account a browser opens gets its
// own detail page, so tabs showing different accounts do not interfere.
type Session struct {
	ID       string
	Upload   *pages.UploadPage
	Accounts *pages.AccountsPage

	newDetail func() *pages.DetailPage
	lastSeen  time.Time // guarded by Manager.mu

	mu      sync.Mutex
	details map[string]*pages.DetailPage
}

// Detail returns the detail page for account id, creating it on first use.
func (s *Session) Detail(id string) *pages.DetailPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.details[id]
	if !ok {
		d = s.newDetail()
		s.details[id] = d
	}
	return d
}

// Manager creates sessions on demand and evicts idle ones.
type Manager struct {
	api         pages.Backend
	recorder    activity.Recorder
	searchQuiet time.Duration
	ttl         time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(api pages.Backend, recorder activity.Recorder, searchQuiet, ttl time.Duration) *Manager {
	if recorder == nil {
		recorder = activity.Discard
	}
	return &Manager{
		api:         api,
		recorder:    recorder,
		searchQuiet: searchQuiet,
		ttl:         ttl,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Get returns the live session for id, creating a fresh one under a new id
// when id is unknown or expired. created reports whether the caller must hand
// the new id to the browser.
func (m *Manager) Get(id string) (s *Session, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if s, ok := m.sessions[id]; ok {
		if !m.expired(s, now) {
			s.lastSeen = now
			return s, false
		}
		delete(m.sessions, id)
	}

	s = m.newSession(uuid.NewString(), now)
	m.sessions[s.ID] = s
	telemetry.ActiveSessions.Set(float64(len(m.sessions)))
	return s, true
}

func (m *Manager) newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		Upload:   pages.NewUploadPage(m.api, m.recorder, id),
		Accounts: pages.NewAccountsPage(m.api, m.recorder, id),
		newDetail: func() *pages.DetailPage {
			return pages.NewDetailPage(m.api, m.recorder, id, m.searchQuiet)
		},
		details:  make(map[string]*pages.DetailPage),
		lastSeen: now,
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	telemetry.ActiveSessions.Set(float64(len(m.sessions)))
	return removed
}

// Run sweeps every interval until ctx is done. A non-positive interval
// sweeps once a minute.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
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
			if n := m.Sweep(); n > 0 {
				slog.Info("Evicted idle sessions", "count", n)
			}
		}
	}
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.lastSeen) > m.ttl
}
