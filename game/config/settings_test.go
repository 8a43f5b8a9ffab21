package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, ":8080", s.Server.Addr())
	assert.Equal(t, "./tracks", s.Tracks.Dir)
	assert.Equal(t, "./moves", s.Moves.Dir)
	assert.Equal(t, "./follower", s.Paths.Dir)
	assert.Equal(t, "memory", s.Store.Driver)
	assert.Equal(t, "./sessions", s.Store.Dir)
	assert.Equal(t, 30*time.Minute, s.Session.TTL)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "console", s.Log.Format)
	assert.Empty(t, s.Ngrok.Domain)
}

func TestLoadSettings_File(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"server": {"host": "127.0.0.1", "port": 9090},
		"tracks": {"dir": "/srv/tracks"},
		"store": {"driver": "sqlite", "dsn": "races.db"},
		"session": {"ttl": "5m"},
		"log": {"level": "debug", "format": "json"}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "racetrack.json"), []byte(content), 0644))

	s, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", s.Server.Addr())
	assert.Equal(t, "/srv/tracks", s.Tracks.Dir)
	assert.Equal(t, "./moves", s.Moves.Dir)
	assert.Equal(t, "sqlite", s.Store.Driver)
	assert.Equal(t, "races.db", s.Store.DSN)
	assert.Equal(t, 5*time.Minute, s.Session.TTL)
	assert.Equal(t, "json", s.Log.Format)
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("RACETRACK_SERVER_PORT", "7070")
	t.Setenv("RACETRACK_STORE_DRIVER", "file")
	t.Setenv("RACETRACK_NGROK_DOMAIN", "race.ngrok.app")

	s, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7070, s.Server.Port)
	assert.Equal(t, "file", s.Store.Driver)
	assert.Equal(t, "race.ngrok.app", s.Ngrok.Domain)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown store", `{"store": {"driver": "redis"}}`},
		{"unknown log format", `{"log": {"format": "xml"}}`},
		{"bad port", `{"server": {"port": 70000}}`},
		{"malformed json", `{"server": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "racetrack.json"), []byte(tt.content), 0644))
			_, err := LoadSettings(dir)
			assert.Error(t, err)
		})
	}
}
