package strategy

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/wricardo/racetrack/game/engine"
)

// User replays accelerations supplied from outside, one per turn. With
// nothing queued the car keeps its velocity.
type User struct {
	queue []engine.Direction
}

func NewUser() *User {
	return &User{}
}

// Push queues the acceleration for the car's next turn.
func (u *User) Push(d engine.Direction) {
	u.queue = append(u.queue, d)
}

// Pending returns how many accelerations are queued.
func (u *User) Pending() int {
	return len(u.queue)
}

func (u *User) NextMove(*engine.Car) engine.Direction {
	if len(u.queue) == 0 {
		return engine.None
	}
	d := u.queue[0]
	u.queue = u.queue[1:]
	return d
}

func (u *User) Kind() Kind         { return KindUser }
func (u *User) Statistics() string { return "" }

func (u *User) Snapshot() Spec {
	return Spec{Kind: KindUser, Moves: append([]engine.Direction(nil), u.queue...)}
}

// MoveList plays a prerecorded list of accelerations and then stops
// accelerating.
type MoveList struct {
	moves []engine.Direction
	next  int
	turns int
}

func NewMoveList(moves []engine.Direction) *MoveList {
	return &MoveList{moves: append([]engine.Direction(nil), moves...)}
}

func (m *MoveList) NextMove(*engine.Car) engine.Direction {
	m.turns++
	if m.next >= len(m.moves) {
		return engine.None
	}
	d := m.moves[m.next]
	m.next++
	return d
}

func (m *MoveList) Kind() Kind { return KindMoveList }

func (m *MoveList) Statistics() string {
	return fmt.Sprintf(StatisticsFormat, m.turns)
}

// Remaining returns the moves not played yet.
func (m *MoveList) Remaining() []engine.Direction {
	return append([]engine.Direction(nil), m.moves[m.next:]...)
}

func (m *MoveList) Snapshot() Spec {
	return Spec{Kind: KindMoveList, Moves: m.Remaining(), Turns: m.turns}
}

// ParseMoveList reads one direction name per line. Blank lines are skipped.
func ParseMoveList(r io.Reader) ([]engine.Direction, error) {
	var moves []engine.Direction
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		d, err := engine.ParseDirection(text)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid move %q on line %d", ErrInvalidMoveList, text, line)
		}
		moves = append(moves, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read move list: %w", err)
	}
	return moves, nil
}
