package strategy

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/racetrack/game/engine"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"do-not-move", KindDoNotMove},
		{"DO_NOT_MOVE", KindDoNotMove},
		{"user", KindUser},
		{" Move_List ", KindMoveList},
		{"PATH_FOLLOWER", KindPathFollower},
		{"path-finder", KindPathFinder},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("teleport")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDoNotMove(t *testing.T) {
	car := engine.NewCar('a', engine.Vector{X: 1, Y: 1}, engine.Vector{X: 2, Y: 0})
	s := DoNotMove{}
	for i := 0; i < 3; i++ {
		assert.Equal(t, engine.None, s.NextMove(car))
	}
	assert.Equal(t, KindDoNotMove, s.Kind())
	assert.Empty(t, s.Statistics())
}

func TestUser(t *testing.T) {
	u := NewUser()
	assert.Equal(t, engine.None, u.NextMove(nil), "nothing queued")

	u.Push(engine.Up)
	u.Push(engine.DownLeft)
	assert.Equal(t, 2, u.Pending())
	assert.Equal(t, Spec{Kind: KindUser, Moves: []engine.Direction{engine.Up, engine.DownLeft}}, u.Snapshot())

	assert.Equal(t, engine.Up, u.NextMove(nil))
	assert.Equal(t, engine.DownLeft, u.NextMove(nil))
	assert.Equal(t, engine.None, u.NextMove(nil))
	assert.Equal(t, 0, u.Pending())
}

func TestMoveList(t *testing.T) {
	all := engine.Directions()
	m := NewMoveList(all)
	assert.Equal(t, fmt.Sprintf(StatisticsFormat, 0), m.Statistics())

	for _, want := range all {
		assert.Equal(t, want, m.NextMove(nil))
	}
	for i := 0; i < 2; i++ {
		assert.Equal(t, engine.None, m.NextMove(nil), "exhausted lists stop accelerating")
	}
	assert.Equal(t, "Car won after 11 turns.", m.Statistics())
	assert.Empty(t, m.Remaining())
}

func TestParseMoveList(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		moves, err := ParseMoveList(strings.NewReader("DOWN_LEFT\nup\n\nNONE\n  RIGHT  \n"))
		require.NoError(t, err)
		assert.Equal(t, []engine.Direction{engine.DownLeft, engine.Up, engine.None, engine.Right}, moves)
	})

	t.Run("empty lines only", func(t *testing.T) {
		moves, err := ParseMoveList(strings.NewReader("DOWN_LEFT\n\n\n"))
		require.NoError(t, err)

		m := NewMoveList(moves)
		assert.Equal(t, engine.DownLeft, m.NextMove(nil))
		assert.Equal(t, engine.None, m.NextMove(nil))
		assert.Equal(t, engine.None, m.NextMove(nil))
	})

	t.Run("empty file", func(t *testing.T) {
		moves, err := ParseMoveList(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, moves)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseMoveList(strings.NewReader("UP\nFORWARD\n"))
		assert.ErrorIs(t, err, ErrInvalidMoveList)
		assert.Contains(t, err.Error(), `"FORWARD" on line 2`)
	})
}

func TestPathFollower_NextMove(t *testing.T) {
	tests := []struct {
		name      string
		position  engine.Vector
		velocity  engine.Vector
		waypoints []engine.Vector
		want      engine.Direction
	}{
		{
			name:      "accelerate toward the waypoint",
			position:  engine.Vector{X: 2, Y: 4},
			waypoints: []engine.Vector{{X: 9, Y: 6}},
			want:      engine.DownRight,
		},
		{
			name:      "reached waypoints are dropped",
			position:  engine.Vector{X: 2, Y: 4},
			waypoints: []engine.Vector{{X: 2, Y: 4}, {X: 2, Y: 1}},
			want:      engine.Up,
		},
		{
			name:      "slow car keeps accelerating",
			position:  engine.Vector{X: 3, Y: 5},
			velocity:  engine.Vector{X: 1, Y: 1},
			waypoints: []engine.Vector{{X: 9, Y: 6}},
			want:      engine.Right,
		},
		{
			name:      "fast car coasts",
			position:  engine.Vector{X: 5, Y: 4},
			velocity:  engine.Vector{X: 2, Y: 0},
			waypoints: []engine.Vector{{X: 9, Y: 4}},
			want:      engine.None,
		},
		{
			name:      "fast car brakes early",
			position:  engine.Vector{X: 7, Y: 4},
			velocity:  engine.Vector{X: 2, Y: 0},
			waypoints: []engine.Vector{{X: 9, Y: 4}},
			want:      engine.Left,
		},
		{
			name:      "vertical speed is anticipated too",
			position:  engine.Vector{X: 4, Y: 2},
			velocity:  engine.Vector{X: 0, Y: -3},
			waypoints: []engine.Vector{{X: 5, Y: -3}},
			want:      engine.DownRight,
		},
		{
			name:      "last waypoint reached",
			position:  engine.Vector{X: 9, Y: 4},
			velocity:  engine.Vector{X: 1, Y: 0},
			waypoints: []engine.Vector{{X: 9, Y: 4}},
			want:      engine.None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			car := engine.NewCar('a', tt.position, tt.velocity)
			f := NewPathFollower(tt.waypoints)
			assert.Equal(t, tt.want, f.NextMove(car))
		})
	}
}

func TestPathFollower_EmptyQueueStaysIdle(t *testing.T) {
	car := engine.NewCar('a', engine.Vector{X: 1, Y: 1}, engine.Vector{X: -2, Y: 3})
	f := NewPathFollower(nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, engine.None, f.NextMove(car))
	}
	assert.Equal(t, "Car won after 5 turns.", f.Statistics())
	assert.Equal(t, KindPathFollower, f.Kind())
}

func TestParsePathFile(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		waypoints, err := ParsePathFile(strings.NewReader("(X:5, Y:-15)\n\n(X:12, Y:3)\n(X:-1,Y:0)\n"))
		require.NoError(t, err)
		assert.Equal(t, []engine.Vector{{X: 5, Y: -15}, {X: 12, Y: 3}, {X: -1, Y: 0}}, waypoints)
	})

	t.Run("empty", func(t *testing.T) {
		waypoints, err := ParsePathFile(strings.NewReader("\n\n"))
		require.NoError(t, err)
		assert.Empty(t, waypoints)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, content := range []string{"(5, 15)\n", "(X:5, Y:15\n", "UP\n", "(X:a, Y:1)\n"} {
			_, err := ParsePathFile(strings.NewReader(content))
			require.Error(t, err, content)
			assert.True(t, errors.Is(err, ErrInvalidPathFile))
			assert.Equal(t, "path file lines must be vectors such as (X:5, Y:-15)", err.Error())
		}
	})

	t.Run("written files parse back", func(t *testing.T) {
		want := []engine.Vector{{X: 2, Y: 4}, {X: 9, Y: -6}}
		var buf bytes.Buffer
		require.NoError(t, WritePathFile(&buf, want))
		assert.Equal(t, "(X:2, Y:4)\n(X:9, Y:-6)\n", buf.String())

		got, err := ParsePathFile(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestFromSpec(t *testing.T) {
	track := createOpenTrack(t)
	car := carAt(t, track, 1)

	tests := []struct {
		name string
		spec Spec
		kind Kind
	}{
		{"do not move", Spec{Kind: KindDoNotMove}, KindDoNotMove},
		{"user", Spec{Kind: KindUser, Moves: []engine.Direction{engine.Up}}, KindUser},
		{"move list", Spec{Kind: KindMoveList, Moves: []engine.Direction{engine.Left}, Turns: 4}, KindMoveList},
		{"path follower", Spec{Kind: KindPathFollower, Waypoints: []engine.Vector{{X: 3, Y: 3}}}, KindPathFollower},
		{"fresh path finder", Spec{Kind: KindPathFinder}, KindPathFinder},
		{"resumed path finder", Spec{
			Kind:      KindPathFinder,
			Waypoints: []engine.Vector{{X: 9, Y: 4}},
			Route:     []engine.Vector{{X: 2, Y: 4}, {X: 9, Y: 4}},
			Turns:     2,
		}, KindPathFinder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromSpec(tt.spec, track, car)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.Kind())

			if tt.spec.Kind != KindPathFinder || tt.spec.Waypoints != nil {
				assert.Equal(t, tt.spec, s.Snapshot())
			}
		})
	}

	_, err := FromSpec(Spec{Kind: "warp"}, track, car)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestMoveListSnapshotResumes(t *testing.T) {
	m := NewMoveList([]engine.Direction{engine.Up, engine.Left, engine.Down})
	m.NextMove(nil)

	restored, err := FromSpec(m.Snapshot(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.Left, restored.NextMove(nil))
	assert.Equal(t, engine.Down, restored.NextMove(nil))
	assert.Equal(t, "Car won after 3 turns.", restored.Statistics())
}

func TestPathFinderSnapshotKeepsRoute(t *testing.T) {
	track := createOpenTrack(t)
	car := carAt(t, track, 1)
	finder, err := NewPathFinder(track, car)
	require.NoError(t, err)
	route := finder.Path()
	require.Len(t, route, 2)

	// The first move passes the start waypoint.
	finder.NextMove(car)
	spec := finder.Snapshot()
	assert.Equal(t, route[1:], spec.Waypoints)
	assert.Equal(t, route, spec.Route)

	restored, err := FromSpec(spec, track, car)
	require.NoError(t, err)
	resumed, ok := restored.(*PathFinder)
	require.True(t, ok)
	assert.Equal(t, route, resumed.Path())
	assert.Equal(t, route[1:], resumed.Waypoints())
	assert.Equal(t, spec, resumed.Snapshot())
}

func TestIsDraw(t *testing.T) {
	track := createOpenTrack(t)
	race, err := engine.NewEngine(track)
	require.NoError(t, err)

	assert.False(t, IsDraw(track), "cars without strategy can still be driven")

	require.NoError(t, race.SetCarMoveStrategy(0, DoNotMove{}))
	require.NoError(t, race.SetCarMoveStrategy(1, DoNotMove{}))
	assert.True(t, IsDraw(track))

	require.NoError(t, race.SetCarMoveStrategy(1, NewUser()))
	assert.False(t, IsDraw(track))
}

func TestPathFinderWinsRace(t *testing.T) {
	track := createOpenTrack(t)
	race, err := engine.NewEngine(track)
	require.NoError(t, err)

	finder, err := NewPathFinder(track, carAt(t, track, 1))
	require.NoError(t, err)
	assert.Len(t, finder.Path(), 2)

	require.NoError(t, race.SetCarMoveStrategy(0, DoNotMove{}))
	require.NoError(t, race.SetCarMoveStrategy(1, finder))

	for turn := 0; turn < 40 && race.Winner() == engine.NoWinner; turn++ {
		car := race.CurrentCar()
		_, err := race.DoCarTurn(car.Strategy().NextMove(car))
		require.NoError(t, err)
		if race.Winner() == engine.NoWinner {
			require.NoError(t, race.SwitchToNextActiveCar())
		}
	}

	require.Equal(t, 1, race.Winner())
	status, _ := race.CarStatus(1)
	assert.Equal(t, engine.StatusActive, status)
	assert.Contains(t, finder.Statistics(), "Car won after")
	assert.Equal(t, KindPathFinder, finder.Snapshot().Kind)
}
