package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/strategy"
)

// RaceService defines all race-related operations
type RaceService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Race Operations
	Turn(ctx context.Context, sessionID string, direction *engine.Direction) (*TurnResponse, error)
	AutoPlay(ctx context.Context, sessionID string, maxTurns int) (*AutoPlayResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.RaceState, error)
	PlanPath(ctx context.Context, sessionID string, carIndex int) (*PathResponse, error)

	// Race State
	GetRaceState(ctx context.Context, sessionID string) (*engine.RaceState, error)
	GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Tracks
	ListTracks(ctx context.Context) ([]*TrackInfo, error)
	GetTrack(ctx context.Context, name string) (*TrackInfo, error)
	SaveTrack(ctx context.Context, name string, rows []string) (*TrackInfo, error)

	// OnTurn registers a listener called after every executed turn.
	OnTurn(listener TurnListener)
}

// TurnListener is notified with the executed turn and the race state after it.
type TurnListener func(sessionID string, turn engine.TurnResult, state *engine.RaceState)

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, trackName string, race *engine.GameEngine, drivers []StrategyRequest) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// TrackCatalog loads tracks, move lists and path files by name
type TrackCatalog interface {
	LoadTrack(name string) (*engine.Track, error)
	ListTracks() ([]*TrackInfo, error)
	SaveTrack(name string, rows []string) error
	LoadMoveList(name string) ([]engine.Direction, error)
	LoadPath(name string) ([]engine.Vector, error)
}

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrRaceFinished        = errors.New("race is already finished")
	ErrDirectionRequired   = errors.New("the current car is user driven and needs a direction")
	ErrDirectionNotAllowed = errors.New("the current car drives itself and takes no direction")
	ErrInvalidRequest      = errors.New("invalid request")
)

// Session represents an active race session. Turns on a session are
// serialised with its mutex.
type Session struct {
	sync.Mutex

	ID        string
	TrackName string
	Engine    *engine.GameEngine
	// Drivers holds one resolved request per car, used to rebuild the
	// strategies on reset.
	Drivers        []StrategyRequest
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Strategies returns the strategy of every car, nil for cars driven by
// something else.
func (s *Session) Strategies() []strategy.Strategy {
	cars := s.Engine.Track().Cars()
	out := make([]strategy.Strategy, len(cars))
	for i, car := range cars {
		if st, ok := car.Strategy().(strategy.Strategy); ok {
			out[i] = st
		}
	}
	return out
}

// State returns the race snapshot with each car's strategy kind filled in.
func (s *Session) State() *engine.RaceState {
	state := s.Engine.GetState()
	for i, st := range s.Strategies() {
		if st != nil && i < len(state.Cars) {
			state.Cars[i].Strategy = string(st.Kind())
		}
	}
	return state
}
