package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles race session lifecycle. Sessions live in memory; with a
// persistence backend every save is written through, expired sessions are
// evicted to the backend and reloaded on the next Get.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	logger      zerolog.Logger
	mu          sync.RWMutex
}

// NewManager creates a new in-memory session manager
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		logger:   logger,
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
		logger:      logger,
	}
}

// Create registers a session for race. An empty id generates one.
func (m *Manager) Create(id, trackName string, race *engine.GameEngine, drivers []service.StrategyRequest) (*service.Session, error) {
	if race == nil {
		return nil, fmt.Errorf("race cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	} else if !validSessionID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		TrackName:      trackName,
		Engine:         race,
		Drivers:        drivers,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[strings.ToLower(id)] = session

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(Snapshot(session)); err != nil {
			// Log error but don't fail the creation
			m.logger.Warn().Err(err).Str("session", id).Msg("failed to persist session")
		}
	}

	return session, nil
}

// Get retrieves a session by ID (case-insensitive). Sessions evicted to the
// persistence backend are restored.
func (m *Manager) Get(id string) (*service.Session, error) {
	key := strings.ToLower(id)

	m.mu.RLock()
	session, exists := m.sessions[key]
	m.mu.RUnlock()
	if exists {
		return session, nil
	}

	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	data, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}
	restored, err := Restore(data)
	if err != nil {
		return nil, fmt.Errorf("failed to restore persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have restored it first
	if session, exists := m.sessions[key]; exists {
		return session, nil
	}
	m.sessions[key] = restored
	m.logger.Debug().Str("session", id).Msg("session restored")
	return restored, nil
}

// List returns all sessions held in memory
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete removes a session from memory and from persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	_, inMemory := m.sessions[key]
	delete(m.sessions, key)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// Save writes a session to persistence. The caller holds the session lock.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		m.mu.RUnlock()
		return ErrSessionNotFound
	}
	data := Snapshot(session)
	m.mu.RUnlock()

	return m.persistence.Save(data)
}

// CleanupExpired removes sessions that haven't been accessed within maxAge
// from memory. With persistence they are saved first and stay loadable.
// Returns the number of evicted sessions.
func (m *Manager) CleanupExpired(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, session := range m.sessions {
		if !session.LastAccessedAt.Before(cutoff) {
			continue
		}
		// Skip sessions with a turn in progress
		if !session.TryLock() {
			continue
		}
		if m.persistence != nil {
			if err := m.persistence.Save(Snapshot(session)); err != nil {
				session.Unlock()
				m.logger.Warn().Err(err).Str("session", session.ID).Msg("failed to persist expired session")
				continue
			}
		}
		session.Unlock()
		delete(m.sessions, key)
		removed++
	}

	if removed > 0 {
		m.logger.Info().Int("sessions", removed).Msg("evicted expired sessions")
	}
	return removed
}

// RunCleanup evicts expired sessions every interval until stop is closed.
func (m *Manager) RunCleanup(interval, maxAge time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupExpired(maxAge)
		case <-stop:
			return
		}
	}
}

// Purge deletes every persisted session. Races only live for one run of the
// server, so the store is purged at startup.
func (m *Manager) Purge() error {
	if m.persistence == nil {
		return nil
	}
	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}
	for _, id := range ids {
		if err := m.persistence.Delete(id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("failed to delete persisted session %s: %w", id, err)
		}
	}
	if len(ids) > 0 {
		m.logger.Info().Int("sessions", len(ids)).Msg("purged persisted sessions")
	}
	return nil
}

// Count returns the number of sessions in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	sessions := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	errorCount := 0
	for _, session := range sessions {
		session.Lock()
		data := Snapshot(session)
		session.Unlock()
		if err := m.persistence.Save(data); err != nil {
			m.logger.Warn().Err(err).Str("session", session.ID).Msg("failed to save session")
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}
	return nil
}

// generateSessionID generates a random 4-character session ID that is not in
// use. The caller holds the write lock.
func (m *Manager) generateSessionID() string {
	for {
		// 2 random bytes give 4 hex characters
		bytes := make([]byte, 2)
		_, _ = rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) && (m.persistence == nil || !m.persistence.Exists(id)) {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}

func validSessionID(id string) bool {
	if len(id) == 0 || len(id) > 16 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
