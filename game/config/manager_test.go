package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/strategy"
)

var testTrackRows = []string{
	"##########",
	"#  a  >  #",
	"#  b  >  #",
	"##########",
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// createTestCatalog lays out tracks, moves and follower directories.
func createTestCatalog(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	tracks := filepath.Join(root, "tracks")
	moves := filepath.Join(root, "moves")
	paths := filepath.Join(root, "follower")

	writeFile(t, tracks, "straight.txt", strings.Join(testTrackRows, "\n")+"\n")
	writeFile(t, tracks, "spaced.txt", "\n#####\n\n#a b#\n#>>>#\n#####\n\n")
	writeFile(t, tracks, "broken.txt", "#####\n#a#\n")
	writeFile(t, tracks, "README.md", "not a track")
	writeFile(t, moves, "dash.txt", "RIGHT\nright\n\nNONE\n")
	writeFile(t, moves, "bad.txt", "RIGHT\nJUMP\n")
	writeFile(t, paths, "line.txt", "(X:4, Y:1)\n(X:6, Y:1)\n")

	m, err := NewManager(tracks, moves, paths)
	require.NoError(t, err)
	return m, root
}

func TestNewManager(t *testing.T) {
	_, err := NewManager("/non/existent/path", "", "")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = NewManager(file, "", "")
	assert.Error(t, err, "tracks must be a directory")
}

func TestManager_LoadTrack(t *testing.T) {
	m, _ := createTestCatalog(t)

	tests := []struct {
		name    string
		track   string
		cars    int
		wantErr error
	}{
		{"by name", "straight", 2, nil},
		{"with extension", "straight.txt", 2, nil},
		{"empty lines skipped", "spaced", 2, nil},
		{"invalid file", "broken", 0, engine.ErrInvalidTrack},
		{"missing", "nope", 0, ErrTrackNotFound},
		{"path escape", "../tracks/straight", 0, ErrInvalidName},
		{"empty name", "", 0, ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, err := m.LoadTrack(tt.track)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cars, track.CarCount())
		})
	}
}

func TestManager_LoadTrackReturnsFreshCars(t *testing.T) {
	m, _ := createTestCatalog(t)

	first, err := m.LoadTrack("straight")
	require.NoError(t, err)
	race, err := engine.NewEngine(first)
	require.NoError(t, err)
	require.NoError(t, race.SetCarMoveStrategy(0, strategy.DoNotMove{}))
	_, err = race.DoCarTurn(engine.Right)
	require.NoError(t, err)

	second, err := m.LoadTrack("straight")
	require.NoError(t, err)
	car, err := second.Car(0)
	require.NoError(t, err)
	assert.Equal(t, engine.Vector{X: 3, Y: 1}, car.Position())
	assert.Nil(t, car.Strategy())
}

func TestManager_ListTracks(t *testing.T) {
	m, _ := createTestCatalog(t)

	tracks, err := m.ListTracks()
	require.NoError(t, err)
	require.Len(t, tracks, 2, "broken tracks and other files are skipped")

	assert.Equal(t, "spaced", tracks[0].Name)
	assert.Equal(t, "straight", tracks[1].Name)
	assert.Equal(t, "straight.txt", tracks[1].Filename)
	assert.Equal(t, 10, tracks[1].Width)
	assert.Equal(t, 4, tracks[1].Height)
	assert.Equal(t, []string{"a", "b"}, tracks[1].Cars)
	assert.Equal(t, 2, tracks[1].FinishCells)
}

func TestManager_SaveTrack(t *testing.T) {
	m, root := createTestCatalog(t)

	rows := []string{"#####", "#a b#", "#vvv#", "#####"}
	require.NoError(t, m.SaveTrack("down", rows))

	content, err := os.ReadFile(filepath.Join(root, "tracks", "down.txt"))
	require.NoError(t, err)
	assert.Equal(t, "#####\n#a b#\n#vvv#\n#####\n", string(content))

	track, err := m.LoadTrack("down")
	require.NoError(t, err)
	assert.Equal(t, rows, track.Layout())

	// Invalid tracks are never written
	err = m.SaveTrack("bad", []string{"#a#"})
	assert.ErrorIs(t, err, engine.ErrInvalidTrack)
	_, err = os.Stat(filepath.Join(root, "tracks", "bad.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, m.SaveTrack("a/b", rows), ErrInvalidName)
}

func TestManager_CachingBehavior(t *testing.T) {
	m, root := createTestCatalog(t)

	_, err := m.LoadTrack("straight")
	require.NoError(t, err)

	// Later edits on disk are not seen until the cache is refreshed
	writeFile(t, filepath.Join(root, "tracks"), "straight.txt", "#####\n#a b#\n#<<<#\n#####\n")
	track, err := m.LoadTrack("straight")
	require.NoError(t, err)
	assert.Equal(t, testTrackRows, track.Layout())

	m.RefreshCache()
	track, err = m.LoadTrack("straight")
	require.NoError(t, err)
	assert.Equal(t, 5, track.Width())
}

func TestManager_LoadMoveList(t *testing.T) {
	m, _ := createTestCatalog(t)

	moves, err := m.LoadMoveList("dash")
	require.NoError(t, err)
	assert.Equal(t, []engine.Direction{engine.Right, engine.Right, engine.None}, moves)

	_, err = m.LoadMoveList("bad")
	assert.ErrorIs(t, err, strategy.ErrInvalidMoveList)

	_, err = m.LoadMoveList("nope")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestManager_LoadPath(t *testing.T) {
	m, _ := createTestCatalog(t)

	path, err := m.LoadPath("line")
	require.NoError(t, err)
	assert.Equal(t, []engine.Vector{{X: 4, Y: 1}, {X: 6, Y: 1}}, path)

	_, err = m.LoadPath("nope")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m, _ := createTestCatalog(t)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "straight"
			if i%2 == 0 {
				name = "spaced"
			}
			if _, err := m.LoadTrack(name); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error during concurrent access: %v", err)
	}
	assert.Len(t, m.tracks, 2)
}
