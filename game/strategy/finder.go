package strategy

import (
	"fmt"

	"github.com/wricardo/racetrack/game/engine"
)

// PathFinder plans a route from the car's position to the finish and drives
// it with a PathFollower.
type PathFinder struct {
	*PathFollower
	path []engine.Vector
}

// NewPathFinder plans the route for car on track. It fails with ErrNoPath
// when the finish cannot be reached.
func NewPathFinder(track *engine.Track, car *engine.Car) (*PathFinder, error) {
	path, err := Plan(track, car.Position())
	if err != nil {
		return nil, fmt.Errorf("car %c: %w", car.ID(), err)
	}
	return &PathFinder{
		PathFollower: newFollower(KindPathFinder, path),
		path:         path,
	}, nil
}

// Path returns the complete planned route, including waypoints already
// passed.
func (f *PathFinder) Path() []engine.Vector {
	return append([]engine.Vector(nil), f.path...)
}

func (f *PathFinder) Snapshot() Spec {
	spec := f.PathFollower.Snapshot()
	spec.Route = f.Path()
	return spec
}
