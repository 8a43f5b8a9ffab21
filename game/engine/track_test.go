package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTrack(t *testing.T, rows ...string) *Track {
	t.Helper()
	track, err := ParseTrack(rows)
	require.NoError(t, err)
	return track
}

func TestParseTrack(t *testing.T) {
	track := createTestTrack(t,
		"##########",
		"#a   >   #",
		"",
		"#  b >   #",
		"##########",
	)

	assert.Equal(t, 10, track.Width())
	assert.Equal(t, 4, track.Height(), "empty lines are skipped")
	require.Equal(t, 2, track.CarCount())

	a, err := track.Car(0)
	require.NoError(t, err)
	assert.Equal(t, 'a', a.ID())
	assert.Equal(t, Vector{X: 1, Y: 1}, a.Position())
	assert.Equal(t, Vector{}, a.Velocity())
	assert.Equal(t, StatusActive, a.Status())

	b, err := track.Car(1)
	require.NoError(t, err)
	assert.Equal(t, 'b', b.ID())
	assert.Equal(t, Vector{X: 3, Y: 2}, b.Position())

	assert.Equal(t, Open, track.SpaceKindAt(a.Position()), "car start cells are open track")
	assert.Equal(t, FinishRight, track.SpaceKindAt(Vector{X: 5, Y: 1}))
	assert.Equal(t, Wall, track.SpaceKindAt(Vector{X: 0, Y: 0}))
	assert.Equal(t, 2, CountSpaceKind(track, FinishRight))

	_, err = track.Car(2)
	assert.ErrorIs(t, err, ErrCarIndexOutOfRange)
	assert.Contains(t, err.Error(), "car index out of range: no car with index 2")
	_, err = track.Car(-1)
	assert.ErrorIs(t, err, ErrCarIndexOutOfRange)
}

func TestParseTrack_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rows    []string
		message string
	}{
		{
			name:    "no rows",
			rows:    []string{"", ""},
			message: "Track File contains no specified Track.",
		},
		{
			name:    "uneven rows",
			rows:    []string{"#####", "#ab#", "#####"},
			message: "Not all track lines possess the same length. Unable to create track.",
		},
		{
			name:    "too many cars",
			rows:    []string{"############", "#abcdefghij#", "############"},
			message: "Track contains 10 cars, the allowed maximum is 9.",
		},
		{
			name:    "single car",
			rows:    []string{"#####", "#a >#", "#####"},
			message: "Track File contains not enough cars. Please specify a minimum of 2 cars in the file.",
		},
		{
			name:    "duplicate car",
			rows:    []string{"######", "#a a>#", "######"},
			message: "Car with character a exists multiple times in Track File. Every car needs to have a unique character.",
		},
		{
			name:    "crash marker as car",
			rows:    []string{"######", "#aX >#", "######"},
			message: "Character X is reserved and cannot be used as a car.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTrack(tt.rows)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTrack)

			var formatErr *TrackFormatError
			require.True(t, errors.As(err, &formatErr))
			assert.Equal(t, tt.message, formatErr.Msg)
		})
	}
}

func TestLoadTrackFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oval.txt")
	content := "#######\r\n#a  > #\r\n\r\n#b  > #\r\n#######\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	track, err := LoadTrackFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, track.Width())
	assert.Equal(t, 4, track.Height())
	assert.Equal(t, 2, track.CarCount())

	_, err = LoadTrackFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestSpaceKindAtOutOfBounds(t *testing.T) {
	track := createTestTrack(t,
		"     ",
		" a b ",
		"     ",
	)

	outside := []Vector{
		{X: -1, Y: 0}, {X: 0, Y: -1}, {X: 5, Y: 1}, {X: 2, Y: 3},
		{X: -100, Y: -100}, {X: 1000, Y: 2},
	}
	for _, p := range outside {
		assert.Equal(t, Wall, track.SpaceKindAt(p), "position %s", p)
		assert.False(t, track.InBounds(p))
	}
	assert.Equal(t, Open, track.SpaceKindAt(Vector{X: 0, Y: 0}))
	assert.True(t, track.IsNearWall(Vector{X: 0, Y: 0}), "the outside counts as wall")
	assert.False(t, track.IsNearWall(Vector{X: 2, Y: 1}))
}

func TestCharAt(t *testing.T) {
	track := createTestTrack(t,
		"#######",
		"#a b c#",
		"#######",
	)
	a, _ := track.Car(0)
	b, _ := track.Car(1)
	c, _ := track.Car(2)

	assert.Equal(t, 'a', track.CharAt(1, 1))
	assert.Equal(t, ' ', track.CharAt(1, 2))
	assert.Equal(t, '#', track.CharAt(0, 0))

	a.crash(b.Position())
	assert.Equal(t, 'b', track.CharAt(1, 3), "a live car is shown over a crashed one")
	assert.Equal(t, ' ', track.CharAt(1, 1))

	c.crash(Vector{X: 6, Y: 1})
	assert.Equal(t, CrashIndicator, track.CharAt(1, 6))

	assert.Equal(t, "#######\n#  b  X\n#######\n", track.String())
	assert.Equal(t, []string{"#######", "#a b c#", "#######"}, track.Layout())
}

func TestIsOccupied(t *testing.T) {
	track := createTestTrack(t,
		"######",
		"#a  b#",
		"######",
	)
	a, _ := track.Car(0)

	assert.True(t, track.IsOccupied(Vector{X: 4, Y: 1}, a))
	assert.False(t, track.IsOccupied(Vector{X: 1, Y: 1}, a), "a car does not block itself")
	assert.True(t, track.IsOccupied(Vector{X: 1, Y: 1}, nil))
	assert.False(t, track.IsOccupied(Vector{X: 2, Y: 1}, nil))
}

func TestFindNearestFinish(t *testing.T) {
	track := createTestTrack(t,
		"#########",
		"#a   ^  #",
		"#    ^ b#",
		"#########",
	)

	pos, dist, ok := FindNearestFinish(track, Vector{X: 1, Y: 1})
	require.True(t, ok)
	assert.Equal(t, Vector{X: 5, Y: 1}, pos)
	assert.Equal(t, 4, dist)
	assert.Len(t, FinishCells(track), 2)

	noFinish := createTestTrack(t, strings.Repeat("#", 4), "#ab#", strings.Repeat("#", 4))
	_, _, ok = FindNearestFinish(noFinish, Vector{X: 1, Y: 1})
	assert.False(t, ok)
}
