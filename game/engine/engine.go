package engine

import "fmt"

// Engine provides the main interface for race operations
type Engine interface {
	// Race state
	Track() *Track
	GetState() *RaceState
	Winner() int
	IsFinished() bool

	// Cars
	CarCount() int
	CurrentCarIndex() int
	CarID(index int) (rune, error)
	CarPosition(index int) (Vector, error)
	CarVelocity(index int) (Vector, error)
	CarStatus(index int) (CarStatus, error)
	SetCarMoveStrategy(index int, s MoveStrategy) error
	CarMoveStrategy(index int) (MoveStrategy, error)

	// Turns
	DoCarTurn(d Direction) (TurnResult, error)
	SwitchToNextActiveCar() error

	// History
	GetTurnHistory() []TurnResult
	GetLastTurn() *TurnResult
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialise turns.
type GameEngine struct {
	track      *Track
	current    int
	winner     int
	totalTurns int
	history    []TurnResult
}

// NewEngine creates a race on the given track. The first car starts.
func NewEngine(track *Track) (*GameEngine, error) {
	if track == nil {
		return nil, fmt.Errorf("%w: track cannot be nil", ErrInvalidTrack)
	}
	if n := track.CarCount(); n < MinCars || n > MaxCars {
		return nil, trackFormatErrorf("Track contains %d cars, a race needs between %d and %d.", n, MinCars, MaxCars)
	}
	return &GameEngine{
		track:  track,
		winner: NoWinner,
	}, nil
}

// RestoreEngine rebuilds a race from a snapshot taken with GetState.
// Strategies are not part of the snapshot and must be set again.
func RestoreEngine(state *RaceState) (*GameEngine, error) {
	if state == nil {
		return nil, fmt.Errorf("state cannot be nil")
	}
	track, err := ParseTrack(state.Layout)
	if err != nil {
		return nil, fmt.Errorf("failed to restore track: %w", err)
	}
	if len(state.Cars) != track.CarCount() {
		return nil, fmt.Errorf("snapshot has %d cars, track has %d", len(state.Cars), track.CarCount())
	}
	for i, cs := range state.Cars {
		car := track.cars[i]
		if cs.ID != string(car.id) {
			return nil, fmt.Errorf("snapshot car %d is %q, track car is %q", i, cs.ID, string(car.id))
		}
		car.position = cs.Position
		car.velocity = cs.Velocity
		switch cs.Status {
		case StatusActive, StatusPenalized, StatusCrashed:
			car.status = cs.Status
		default:
			return nil, fmt.Errorf("snapshot car %d has unknown status %q", i, cs.Status)
		}
	}

	e, err := NewEngine(track)
	if err != nil {
		return nil, err
	}
	if state.CurrentCar < 0 || state.CurrentCar >= track.CarCount() {
		return nil, carIndexError(state.CurrentCar)
	}
	if state.Winner != NoWinner && (state.Winner < 0 || state.Winner >= track.CarCount()) {
		return nil, carIndexError(state.Winner)
	}
	e.current = state.CurrentCar
	e.winner = state.Winner
	e.totalTurns = state.TotalTurns
	e.history = append([]TurnResult(nil), state.History...)
	return e, nil
}

func (e *GameEngine) Track() *Track { return e.track }

// Winner returns the index of the winning car or NoWinner.
func (e *GameEngine) Winner() int { return e.winner }

// IsFinished reports whether the race has a winner or no car can move.
func (e *GameEngine) IsFinished() bool {
	return e.winner != NoWinner || e.activeCarCount() == 0
}

func (e *GameEngine) CarCount() int        { return e.track.CarCount() }
func (e *GameEngine) CurrentCarIndex() int { return e.current }

func (e *GameEngine) CarID(index int) (rune, error) {
	car, err := e.track.Car(index)
	if err != nil {
		return 0, err
	}
	return car.ID(), nil
}

func (e *GameEngine) CarPosition(index int) (Vector, error) {
	car, err := e.track.Car(index)
	if err != nil {
		return Vector{}, err
	}
	return car.Position(), nil
}

func (e *GameEngine) CarVelocity(index int) (Vector, error) {
	car, err := e.track.Car(index)
	if err != nil {
		return Vector{}, err
	}
	return car.Velocity(), nil
}

func (e *GameEngine) CarStatus(index int) (CarStatus, error) {
	car, err := e.track.Car(index)
	if err != nil {
		return "", err
	}
	return car.Status(), nil
}

// SetCarMoveStrategy assigns the strategy that drives the car at index.
func (e *GameEngine) SetCarMoveStrategy(index int, s MoveStrategy) error {
	if s == nil {
		return ErrNilStrategy
	}
	car, err := e.track.Car(index)
	if err != nil {
		return err
	}
	car.strategy = s
	return nil
}

func (e *GameEngine) CarMoveStrategy(index int) (MoveStrategy, error) {
	car, err := e.track.Car(index)
	if err != nil {
		return nil, err
	}
	return car.strategy, nil
}

// CurrentCar returns the car whose turn it is.
func (e *GameEngine) CurrentCar() *Car {
	return e.track.cars[e.current]
}

// SwitchToNextActiveCar hands the turn to the next car that has not crashed.
// The current car is picked again only if it is the last one still racing.
func (e *GameEngine) SwitchToNextActiveCar() error {
	n := e.track.CarCount()
	for step := 1; step <= n; step++ {
		idx := (e.current + step) % n
		if !e.track.cars[idx].IsCrashed() {
			e.current = idx
			return nil
		}
	}
	return ErrNoActiveCar
}

// GetState returns a snapshot of the race.
func (e *GameEngine) GetState() *RaceState {
	cars := make([]CarState, len(e.track.cars))
	for i, c := range e.track.cars {
		cars[i] = c.state(i)
	}
	state := &RaceState{
		Layout:     e.track.Layout(),
		Grid:       e.track.Rows(),
		Width:      e.track.Width(),
		Height:     e.track.Height(),
		Cars:       cars,
		CurrentCar: e.current,
		Winner:     e.winner,
		Finished:   e.IsFinished(),
		TotalTurns: e.totalTurns,
		History:    e.GetTurnHistory(),
	}
	if e.winner != NoWinner {
		state.WinnerID = string(e.track.cars[e.winner].id)
	}
	return state
}

// GetTurnHistory returns every executed turn in order.
func (e *GameEngine) GetTurnHistory() []TurnResult {
	return append([]TurnResult(nil), e.history...)
}

// GetLastTurn returns the most recent turn, or nil if none was played.
func (e *GameEngine) GetLastTurn() *TurnResult {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

func (e *GameEngine) activeCarCount() int {
	count := 0
	for _, c := range e.track.cars {
		if !c.IsCrashed() {
			count++
		}
	}
	return count
}
