package strategy

import (
	"fmt"
	"strings"

	"github.com/wricardo/racetrack/game/engine"
)

// Kind names one of the supported ways a car can be driven.
type Kind string

const (
	KindDoNotMove    Kind = "do-not-move"
	KindUser         Kind = "user"
	KindMoveList     Kind = "move-list"
	KindPathFollower Kind = "path-follower"
	KindPathFinder   Kind = "path-finder"
)

// StatisticsFormat is reported by strategies that count their turns.
const StatisticsFormat = "Car won after %d turns."

// Kinds lists every strategy kind.
func Kinds() []Kind {
	return []Kind{KindDoNotMove, KindUser, KindMoveList, KindPathFollower, KindPathFinder}
}

// ParseKind accepts kind names case-insensitively with '_' or '-'.
func ParseKind(name string) (Kind, error) {
	normalized := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-"))
	for _, k := range Kinds() {
		if k == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Strategy drives a single car.
type Strategy interface {
	engine.MoveStrategy
	Kind() Kind
	// Statistics describes the strategy's run once its car has won. Empty for
	// strategies that keep no statistics.
	Statistics() string
	// Snapshot captures the remaining state so FromSpec can rebuild it.
	Snapshot() Spec
}

// Spec is the serialisable form of a strategy.
type Spec struct {
	Kind      Kind               `json:"kind"`
	Moves     []engine.Direction `json:"moves,omitempty"`
	Waypoints []engine.Vector    `json:"waypoints,omitempty"`
	Route     []engine.Vector    `json:"route,omitempty"`
	Turns     int                `json:"turns,omitempty"`
}

// FromSpec rebuilds a strategy for car. A path-finder spec without waypoints
// plans a fresh route on track.
func FromSpec(spec Spec, track *engine.Track, car *engine.Car) (Strategy, error) {
	switch spec.Kind {
	case KindDoNotMove:
		return DoNotMove{}, nil
	case KindUser:
		u := NewUser()
		for _, d := range spec.Moves {
			u.Push(d)
		}
		return u, nil
	case KindMoveList:
		m := NewMoveList(spec.Moves)
		m.turns = spec.Turns
		return m, nil
	case KindPathFollower:
		f := NewPathFollower(spec.Waypoints)
		f.turns = spec.Turns
		return f, nil
	case KindPathFinder:
		if spec.Waypoints == nil && spec.Turns == 0 {
			return NewPathFinder(track, car)
		}
		f := newFollower(KindPathFinder, spec.Waypoints)
		f.turns = spec.Turns
		route := spec.Route
		if route == nil {
			route = spec.Waypoints
		}
		return &PathFinder{PathFollower: f, path: append([]engine.Vector(nil), route...)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
}

// IsDraw reports whether no car still racing on track can ever move: every
// non-crashed car is driven by DoNotMove.
func IsDraw(track *engine.Track) bool {
	racing := 0
	for _, car := range track.Cars() {
		if car.IsCrashed() {
			continue
		}
		racing++
		s, ok := car.Strategy().(Strategy)
		if !ok || s.Kind() != KindDoNotMove {
			return false
		}
	}
	return racing > 0
}

// DoNotMove never accelerates.
type DoNotMove struct{}

func (DoNotMove) NextMove(*engine.Car) engine.Direction { return engine.None }
func (DoNotMove) Kind() Kind                             { return KindDoNotMove }
func (DoNotMove) Statistics() string                     { return "" }
func (DoNotMove) Snapshot() Spec                         { return Spec{Kind: KindDoNotMove} }
