package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/service"
	"github.com/wricardo/racetrack/game/strategy"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session snapshot to storage
	Save(data *PersistedSessionData) error

	// Load retrieves a session snapshot from storage by ID
	Load(id string) (*PersistedSessionData, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions
type PersistedSessionData struct {
	ID             string                    `json:"id"`
	TrackName      string                    `json:"track_name"`
	CreatedAt      time.Time                 `json:"created_at"`
	LastAccessedAt time.Time                 `json:"last_accessed_at"`
	Race           *engine.RaceState         `json:"race"`
	Strategies     []strategy.Spec           `json:"strategies"`
	Drivers        []service.StrategyRequest `json:"drivers"`
}

// Snapshot captures a session. The caller must hold the session lock or
// otherwise keep turns from running.
func Snapshot(sess *service.Session) *PersistedSessionData {
	strategies := sess.Strategies()
	specs := make([]strategy.Spec, len(strategies))
	for i, st := range strategies {
		if st != nil {
			specs[i] = st.Snapshot()
		}
	}
	return &PersistedSessionData{
		ID:             sess.ID,
		TrackName:      sess.TrackName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Race:           sess.State(),
		Strategies:     specs,
		Drivers:        sess.Drivers,
	}
}

// Restore rebuilds a session, its race and every car's strategy from a
// snapshot.
func Restore(data *PersistedSessionData) (*service.Session, error) {
	if data == nil || data.Race == nil {
		return nil, fmt.Errorf("session snapshot has no race")
	}
	race, err := engine.RestoreEngine(data.Race)
	if err != nil {
		return nil, fmt.Errorf("failed to restore race: %w", err)
	}

	track := race.Track()
	for i, spec := range data.Strategies {
		if spec.Kind == "" {
			continue
		}
		car, err := track.Car(i)
		if err != nil {
			return nil, err
		}
		st, err := strategy.FromSpec(spec, track, car)
		if err != nil {
			return nil, fmt.Errorf("failed to restore strategy of car %c: %w", car.ID(), err)
		}
		if err := race.SetCarMoveStrategy(i, st); err != nil {
			return nil, err
		}
	}

	return &service.Session{
		ID:             data.ID,
		TrackName:      data.TrackName,
		Engine:         race,
		Drivers:        data.Drivers,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// MemoryPersistence keeps encoded snapshots in a map. Snapshots are copied on
// the way in and out.
type MemoryPersistence struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryPersistence creates an empty in-memory store
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{data: make(map[string][]byte)}
}

func (mp *MemoryPersistence) Save(data *PersistedSessionData) error {
	if data == nil {
		return fmt.Errorf("session cannot be nil")
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.data[strings.ToLower(data.ID)] = encoded
	return nil
}

func (mp *MemoryPersistence) Load(id string) (*PersistedSessionData, error) {
	mp.mu.RLock()
	encoded, ok := mp.data[strings.ToLower(id)]
	mp.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var data PersistedSessionData
	if err := json.Unmarshal(encoded, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}

func (mp *MemoryPersistence) Delete(id string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	key := strings.ToLower(id)
	if _, ok := mp.data[key]; !ok {
		return ErrSessionNotFound
	}
	delete(mp.data, key)
	return nil
}

func (mp *MemoryPersistence) ListAll() ([]string, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	ids := make([]string, 0, len(mp.data))
	for id := range mp.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (mp *MemoryPersistence) Exists(id string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	_, ok := mp.data[strings.ToLower(id)]
	return ok
}
