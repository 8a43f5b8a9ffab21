package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/service"
	"github.com/wricardo/racetrack/game/strategy"
)

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrFileNotFound  = errors.New("file not found")
	ErrInvalidName   = errors.New("invalid name")
)

const fileExt = ".txt"

// Manager is the catalog of track, move list and path files. Track rows are
// cached after the first read.
type Manager struct {
	tracksDir string
	movesDir  string
	pathsDir  string
	tracks    map[string][]string
	mu        sync.RWMutex
}

// NewManager creates a catalog over the given directories. The tracks
// directory must exist; the others are only read when a file is requested.
func NewManager(tracksDir, movesDir, pathsDir string) (*Manager, error) {
	if info, err := os.Stat(tracksDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("tracks directory does not exist: %s", tracksDir)
	}
	return &Manager{
		tracksDir: tracksDir,
		movesDir:  movesDir,
		pathsDir:  pathsDir,
		tracks:    make(map[string][]string),
	}, nil
}

// TracksDir returns the directory tracks are read from
func (m *Manager) TracksDir() string {
	return m.tracksDir
}

// LoadTrack returns a fresh track for name. Every call builds new cars, so
// races never share state.
func (m *Manager) LoadTrack(name string) (*engine.Track, error) {
	rows, err := m.trackRows(name)
	if err != nil {
		return nil, err
	}
	return engine.ParseTrack(rows)
}

func (m *Manager) trackRows(name string) ([]string, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	// Check cache first
	if rows, exists := m.tracks[name]; exists {
		m.mu.RUnlock()
		return rows, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rows, exists := m.tracks[name]; exists {
		return rows, nil
	}

	file, err := os.Open(filepath.Join(m.tracksDir, name+fileExt))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, name)
		}
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}
	defer file.Close()

	track, err := engine.LoadTrack(file)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", name, err)
	}
	rows := track.Layout()
	m.tracks[name] = rows
	return rows, nil
}

// ListTracks describes every valid track in the catalog, sorted by name.
// Files that do not parse are skipped.
func (m *Manager) ListTracks() ([]*service.TrackInfo, error) {
	entries, err := os.ReadDir(m.tracksDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracks directory: %w", err)
	}

	var tracks []*service.TrackInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), fileExt)
		track, err := m.LoadTrack(name)
		if err != nil {
			// Skip invalid tracks
			continue
		}
		info := service.DescribeTrack(name, track)
		info.Filename = entry.Name()
		tracks = append(tracks, info)
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Name < tracks[j].Name })
	return tracks, nil
}

// SaveTrack validates rows and writes them as a track file
func (m *Manager) SaveTrack(name string, rows []string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	track, err := engine.ParseTrack(rows)
	if err != nil {
		return err
	}

	content := strings.Join(track.Layout(), "\n") + "\n"
	if err := os.WriteFile(filepath.Join(m.tracksDir, name+fileExt), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write track file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.tracks[name] = track.Layout()
	m.mu.Unlock()
	return nil
}

// LoadMoveList reads a move list file from the moves directory
func (m *Manager) LoadMoveList(name string) ([]engine.Direction, error) {
	file, err := m.open(m.movesDir, name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return strategy.ParseMoveList(file)
}

// LoadPath reads a path follower file from the paths directory
func (m *Manager) LoadPath(name string) ([]engine.Vector, error) {
	file, err := m.open(m.pathsDir, name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return strategy.ParsePathFile(file)
}

func (m *Manager) open(dir, name string) (*os.File, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, name+fileExt))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return file, nil
}

// RefreshCache drops all cached tracks
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = make(map[string][]string)
}

// cleanName strips the file extension and rejects names that would leave
// the catalog directory.
func cleanName(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), fileExt)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}
