package engine

import (
	"fmt"
	"strings"
)

// Vector is an integer 2D vector used for positions, velocities and
// accelerations. Y grows downward.
type Vector struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

// Dot returns the scalar product of v and o.
func (v Vector) Dot(o Vector) int {
	return v.X*o.X + v.Y*o.Y
}

// String formats the vector the way path files store waypoints.
func (v Vector) String() string {
	return fmt.Sprintf("(X:%d, Y:%d)", v.X, v.Y)
}

// Direction is one of the nine accelerations a car may apply in a turn.
type Direction int

const (
	DownLeft Direction = iota
	Down
	DownRight
	Left
	None
	Right
	UpLeft
	Up
	UpRight
)

var directionVectors = [...]Vector{
	DownLeft:  {X: -1, Y: 1},
	Down:      {X: 0, Y: 1},
	DownRight: {X: 1, Y: 1},
	Left:      {X: -1, Y: 0},
	None:      {X: 0, Y: 0},
	Right:     {X: 1, Y: 0},
	UpLeft:    {X: -1, Y: -1},
	Up:        {X: 0, Y: -1},
	UpRight:   {X: 1, Y: -1},
}

var directionNames = [...]string{
	DownLeft:  "DOWN_LEFT",
	Down:      "DOWN",
	DownRight: "DOWN_RIGHT",
	Left:      "LEFT",
	None:      "NONE",
	Right:     "RIGHT",
	UpLeft:    "UP_LEFT",
	Up:        "UP",
	UpRight:   "UP_RIGHT",
}

// Directions lists all accelerations in their canonical order.
func Directions() []Direction {
	return []Direction{DownLeft, Down, DownRight, Left, None, Right, UpLeft, Up, UpRight}
}

// Valid reports whether d is one of the nine known directions.
func (d Direction) Valid() bool {
	return d >= DownLeft && d <= UpRight
}

// Vector returns the acceleration vector of d.
func (d Direction) Vector() Vector {
	if !d.Valid() {
		return Vector{}
	}
	return directionVectors[d]
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts any name ParseDirection accepts.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses a direction name such as "UP_LEFT". Matching is
// case-insensitive and accepts '-' or ' ' in place of '_'.
func ParseDirection(name string) (Direction, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for i, n := range directionNames {
		if n == normalized {
			return Direction(i), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidDirection, name)
}

// DirectionOf returns the direction whose components are the signs of x and y.
func DirectionOf(x, y int) Direction {
	want := Vector{X: sign(x), Y: sign(y)}
	for i, v := range directionVectors {
		if v == want {
			return Direction(i)
		}
	}
	return None
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
