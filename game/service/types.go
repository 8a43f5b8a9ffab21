package service

import (
	"time"

	"github.com/wricardo/racetrack/game/engine"
)

// SessionInfo provides information about a race session
type SessionInfo struct {
	ID             string            `json:"id"`
	TrackName      string            `json:"track_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Drivers        []StrategyRequest `json:"drivers"`
	RaceState      *engine.RaceState `json:"race_state"`
}

// CreateSessionRequest describes a new race. Either Track names a catalog
// track or Layout carries the rows inline. Strategies are keyed by car id;
// cars without an entry are user driven.
type CreateSessionRequest struct {
	Track      string                     `json:"track,omitempty"`
	Layout     []string                   `json:"layout,omitempty"`
	Strategies map[string]StrategyRequest `json:"strategies,omitempty"`
}

// StrategyRequest selects how a car is driven. MoveList and Path name catalog
// files; Moves and Waypoints carry the same data inline.
type StrategyRequest struct {
	Kind      string          `json:"kind"`
	MoveList  string          `json:"move_list,omitempty"`
	Path      string          `json:"path,omitempty"`
	Moves     []string        `json:"moves,omitempty"`
	Waypoints []engine.Vector `json:"waypoints,omitempty"`
}

// TurnResponse contains the result of a single turn
type TurnResponse struct {
	Turn       engine.TurnResult `json:"turn"`
	State      *engine.RaceState `json:"state"`
	Message    string            `json:"message"`
	Draw       bool              `json:"draw"`
	Statistics string            `json:"statistics,omitempty"`
}

// Reasons an autoplay run stopped.
const (
	StopFinished = "finished"
	StopDraw     = "draw"
	StopUserTurn = "user_turn"
	StopMaxTurns = "max_turns"
)

// Autoplay limits.
const (
	DefaultAutoPlayTurns = 500
	MaxAutoPlayTurns     = 10000
)

// AutoPlayResult contains the turns played by strategies until the race
// needs outside input or ends
type AutoPlayResult struct {
	TurnsPlayed int                 `json:"turns_played"`
	Turns       []engine.TurnResult `json:"turns"`
	StopReason  string              `json:"stop_reason"`
	State       *engine.RaceState   `json:"state"`
	Winner      int                 `json:"winner"`
	WinnerID    string              `json:"winner_id,omitempty"`
	Statistics  string              `json:"statistics,omitempty"`
	Draw        bool                `json:"draw"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []engine.TurnResult `json:"turns"`
	TotalTurns  int                 `json:"total_turns"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// TrackInfo provides information about a track
type TrackInfo struct {
	Name        string   `json:"name"`
	Filename    string   `json:"filename,omitempty"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Cars        []string `json:"cars"`
	FinishCells int      `json:"finish_cells"`
	Rows        []string `json:"rows,omitempty"`
}

// PathResponse is the planned route of a car
type PathResponse struct {
	SessionID string          `json:"session_id"`
	CarIndex  int             `json:"car_index"`
	CarID     string          `json:"car_id"`
	Start     engine.Vector   `json:"start"`
	Path      []engine.Vector `json:"path"`
	RawLength int             `json:"raw_length"`
}

// DescribeTrack summarises a track under the given name.
func DescribeTrack(name string, track *engine.Track) *TrackInfo {
	cars := track.Cars()
	ids := make([]string, len(cars))
	for i, car := range cars {
		ids[i] = string(car.ID())
	}
	return &TrackInfo{
		Name:        name,
		Width:       track.Width(),
		Height:      track.Height(),
		Cars:        ids,
		FinishCells: len(engine.FinishCells(track)),
	}
}
