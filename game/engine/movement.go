package engine

import (
	"fmt"
	"time"
)

// DoCarTurn accelerates the current car by d and moves it along the
// rasterised line to its next position. Walls and other cars crash it, a
// finish cell penalizes, redeems or wins depending on the crossing direction.
//
// Turns of a crashed car or after the race is decided change nothing and
// report OutcomeIgnored.
func (e *GameEngine) DoCarTurn(d Direction) (TurnResult, error) {
	if !d.Valid() {
		return TurnResult{}, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}

	car := e.track.cars[e.current]
	result := TurnResult{
		CarIndex:     e.current,
		CarID:        string(car.id),
		Acceleration: d,
		From:         car.position,
		Outcome:      OutcomeIgnored,
	}
	if car.IsCrashed() || e.winner != NoWinner {
		result.To = car.position
		result.Velocity = car.velocity
		result.Winner = e.winner
		return result, nil
	}

	car.accelerate(d)
	next := car.NextPosition()
	path := PassedPositions(car.position, next)[1:]

	outcome, stopped, err := e.walk(car, path)
	if err != nil {
		return TurnResult{}, err
	}
	if !stopped {
		car.moveTo(next)
	}
	if outcome == OutcomeCrashed {
		e.declareLastCarStanding()
	}

	e.totalTurns++
	result.TurnNumber = e.totalTurns
	result.To = car.position
	result.Velocity = car.velocity
	result.Outcome = outcome
	result.Winner = e.winner
	result.Timestamp = time.Now().Unix()
	e.history = append(e.history, result)
	return result, nil
}

// walk evaluates every cell the car passes. stopped is true when the car
// ended its move early on a crash or win cell.
func (e *GameEngine) walk(car *Car, path []Vector) (Outcome, bool, error) {
	outcome := OutcomeMoved
	for _, p := range path {
		kind := e.track.SpaceKindAt(p)
		switch {
		case kind == Wall:
			car.crash(p)
			return OutcomeCrashed, true, nil

		case kind == Open:
			if e.track.IsOccupied(p, car) {
				car.crash(p)
				return OutcomeCrashed, true, nil
			}

		case kind.IsFinish():
			if e.track.IsOccupied(p, car) {
				car.crash(p)
				return OutcomeCrashed, true, nil
			}
			switch {
			case Penalized(kind, car.velocity):
				car.penalize()
				outcome = OutcomePenalized
			case CrossedCorrectly(kind, car.velocity) && car.IsPenalized():
				car.clearPenalty()
				outcome = OutcomePenaltyCleared
			case CrossedCorrectly(kind, car.velocity):
				car.moveTo(p)
				e.winner = e.current
				return OutcomeWon, true, nil
			}

		default:
			return "", false, fmt.Errorf("%w %q at %s", ErrUnknownSpaceKind, rune(kind), p)
		}
	}
	return outcome, false, nil
}

// declareLastCarStanding makes the only car still racing the winner.
func (e *GameEngine) declareLastCarStanding() {
	if e.activeCarCount() != 1 {
		return
	}
	for i, c := range e.track.cars {
		if !c.IsCrashed() {
			e.current = i
			e.winner = i
			return
		}
	}
}
