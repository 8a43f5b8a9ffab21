package engine

import (
	"errors"
	"fmt"
)

// SpaceKind classifies a track cell. The value is the character used for the
// cell in track files.
type SpaceKind rune

const (
	Wall        SpaceKind = '#'
	Open        SpaceKind = ' '
	FinishUp    SpaceKind = '^'
	FinishDown  SpaceKind = 'v'
	FinishLeft  SpaceKind = '<'
	FinishRight SpaceKind = '>'

	// CrashIndicator marks a cell holding only crashed cars.
	CrashIndicator = 'X'

	MinCars  = 2
	MaxCars  = 9
	NoWinner = -1
)

// SpaceKindForChar maps a track file character to its kind. The second
// result is false for characters that are not terrain.
func SpaceKindForChar(c rune) (SpaceKind, bool) {
	switch k := SpaceKind(c); k {
	case Wall, Open, FinishUp, FinishDown, FinishLeft, FinishRight:
		return k, true
	}
	return 0, false
}

// Char returns the track file character of the kind.
func (k SpaceKind) Char() rune {
	return rune(k)
}

// IsFinish reports whether k is one of the four finish line kinds.
func (k SpaceKind) IsFinish() bool {
	switch k {
	case FinishUp, FinishDown, FinishLeft, FinishRight:
		return true
	}
	return false
}

func (k SpaceKind) String() string {
	switch k {
	case Wall:
		return "wall"
	case Open:
		return "open"
	case FinishUp:
		return "finish_up"
	case FinishDown:
		return "finish_down"
	case FinishLeft:
		return "finish_left"
	case FinishRight:
		return "finish_right"
	}
	return fmt.Sprintf("SpaceKind(%q)", rune(k))
}

// CarStatus is the lifecycle state of a car. Crashed is terminal.
type CarStatus string

const (
	StatusActive    CarStatus = "active"
	StatusPenalized CarStatus = "penalized"
	StatusCrashed   CarStatus = "crashed"
)

// Outcome summarises what a single turn did to the acting car.
type Outcome string

const (
	OutcomeMoved          Outcome = "moved"
	OutcomeCrashed        Outcome = "crashed"
	OutcomePenalized      Outcome = "penalized"
	OutcomePenaltyCleared Outcome = "penalty_cleared"
	OutcomeWon            Outcome = "won"
	OutcomeIgnored        Outcome = "ignored"
)

// TurnResult records a single executed turn.
type TurnResult struct {
	TurnNumber   int       `json:"turn_number"`
	CarIndex     int       `json:"car_index"`
	CarID        string    `json:"car_id"`
	Acceleration Direction `json:"acceleration"`
	From         Vector    `json:"from"`
	To           Vector    `json:"to"`
	Velocity     Vector    `json:"velocity"`
	Outcome      Outcome   `json:"outcome"`
	// Winner is the race winner after the turn, NoWinner if undecided. It can
	// differ from CarIndex when the last opponent crashed.
	Winner    int   `json:"winner"`
	Timestamp int64 `json:"timestamp"`
}

// CarState is the serialisable view of a car.
type CarState struct {
	Index    int       `json:"index"`
	ID       string    `json:"id"`
	Position Vector    `json:"position"`
	Velocity Vector    `json:"velocity"`
	Status   CarStatus `json:"status"`
	Strategy string    `json:"strategy,omitempty"`
}

// RaceState is a snapshot of a race. Layout holds the rows as loaded, Grid
// the current rendering with cars and crash markers.
type RaceState struct {
	Layout     []string     `json:"layout"`
	Grid       []string     `json:"grid"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Cars       []CarState   `json:"cars"`
	CurrentCar int          `json:"current_car"`
	Winner     int          `json:"winner"`
	WinnerID   string       `json:"winner_id,omitempty"`
	Finished   bool         `json:"finished"`
	TotalTurns int          `json:"total_turns"`
	History    []TurnResult `json:"history"`
}

var (
	ErrInvalidTrack       = errors.New("invalid track")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrCarIndexOutOfRange = errors.New("car index out of range")
	ErrNilStrategy        = errors.New("move strategy cannot be nil")
	ErrNoActiveCar        = errors.New("no active car left")
	ErrUnknownSpaceKind   = errors.New("unknown space kind")
)

// TrackFormatError describes why a track description could not be loaded.
type TrackFormatError struct {
	Msg string
}

func (e *TrackFormatError) Error() string {
	return e.Msg
}

func (e *TrackFormatError) Unwrap() error {
	return ErrInvalidTrack
}

func trackFormatErrorf(format string, args ...any) error {
	return &TrackFormatError{Msg: fmt.Sprintf(format, args...)}
}

func carIndexError(index int) error {
	return fmt.Errorf("%w: no car with index %d", ErrCarIndexOutOfRange, index)
}
