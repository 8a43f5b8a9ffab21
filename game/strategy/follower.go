package strategy

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/wricardo/racetrack/game/engine"
)

// PathFollower steers a car through a list of waypoints. It is a greedy
// controller: every turn it accelerates toward the next waypoint, braking
// early when the car is fast.
type PathFollower struct {
	kind      Kind
	waypoints []engine.Vector
	turns     int
}

func NewPathFollower(waypoints []engine.Vector) *PathFollower {
	return newFollower(KindPathFollower, waypoints)
}

func newFollower(kind Kind, waypoints []engine.Vector) *PathFollower {
	return &PathFollower{
		kind:      kind,
		waypoints: append([]engine.Vector(nil), waypoints...),
	}
}

func (f *PathFollower) NextMove(car *engine.Car) engine.Direction {
	f.turns++
	pos := car.Position()
	if len(f.waypoints) > 0 && f.waypoints[0] == pos {
		f.waypoints = f.waypoints[1:]
	}
	if len(f.waypoints) == 0 {
		return engine.None
	}

	delta := f.waypoints[0].Sub(pos)
	velocity := car.Velocity()
	adjusted := engine.Vector{X: anticipate(velocity.X), Y: anticipate(velocity.Y)}
	return engine.DirectionOf(delta.X-adjusted.X, delta.Y-adjusted.Y)
}

// anticipate doubles speeds above one cell per turn; a fast car needs
// several turns to brake.
func anticipate(v int) int {
	if v > 1 || v < -1 {
		return 2 * v
	}
	return v
}

func (f *PathFollower) Kind() Kind { return f.kind }

func (f *PathFollower) Statistics() string {
	return fmt.Sprintf(StatisticsFormat, f.turns)
}

// Waypoints returns the waypoints still ahead of the car.
func (f *PathFollower) Waypoints() []engine.Vector {
	return append([]engine.Vector(nil), f.waypoints...)
}

func (f *PathFollower) Snapshot() Spec {
	return Spec{Kind: f.kind, Waypoints: f.Waypoints(), Turns: f.turns}
}

var waypointPattern = regexp.MustCompile(`^\(X:\s*(-?\d+),\s*Y:\s*(-?\d+)\)$`)

// ParsePathFile reads one waypoint per line in the form "(X:5, Y:-15)".
// Blank lines are skipped.
func ParsePathFile(r io.Reader) ([]engine.Vector, error) {
	var waypoints []engine.Vector
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		m := waypointPattern.FindStringSubmatch(text)
		if m == nil {
			return nil, ErrInvalidPathFile
		}
		x, errX := strconv.Atoi(m[1])
		y, errY := strconv.Atoi(m[2])
		if errX != nil || errY != nil {
			return nil, ErrInvalidPathFile
		}
		waypoints = append(waypoints, engine.Vector{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read path file: %w", err)
	}
	return waypoints, nil
}

// WritePathFile writes waypoints in the format ParsePathFile reads.
func WritePathFile(w io.Writer, waypoints []engine.Vector) error {
	for _, p := range waypoints {
		if _, err := fmt.Fprintln(w, p.String()); err != nil {
			return err
		}
	}
	return nil
}
