package server

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/ladderpulse/pkg/middleware"
)

// SessionManager tracks the connected sessions.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64

	logger *slog.Logger
}

// NewSessionManager creates an empty manager.
func NewSessionManager(logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Add registers s. A session already registered under the same id, an
// older connection of the same browser tab, is closed.
func (m *SessionManager) Add(s *Session) {
	m.mu.Lock()
	old := m.sessions[s.ID]
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if old != nil {
		m.logger.Info("session replaced", "session_id", s.ID)
		old.Close()
	}

	s.onClose = m.remove
	m.totalCreated.Add(1)
	middleware.RecordSessionCreate()
}

func (m *SessionManager) remove(s *Session) {
	m.mu.Lock()
	if m.sessions[s.ID] == s {
		delete(m.sessions, s.ID)
	}
	m.mu.Unlock()

	m.totalClosed.Add(1)
	middleware.RecordSessionDestroy()
}

// Get returns the session with the given id.
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns the number of connected sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stats returns lifetime counters.
func (m *SessionManager) Stats() (created, closed uint64) {
	return m.totalCreated.Load(), m.totalClosed.Load()
}

// CloseAll closes every session.
func (m *SessionManager) CloseAll() {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}
}
