package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SettingsFile is the settings file name looked up without extension in the
// working directory and ./configs.
const SettingsFile = "racetrack"

// EnvPrefix prefixes environment overrides, e.g. RACETRACK_SERVER_PORT.
const EnvPrefix = "RACETRACK"

// Settings is the runtime configuration of the racetrack binary
type Settings struct {
	Server  ServerSettings  `mapstructure:"server"`
	Tracks  DirSettings     `mapstructure:"tracks"`
	Moves   DirSettings     `mapstructure:"moves"`
	Paths   DirSettings     `mapstructure:"paths"`
	Store   StoreSettings   `mapstructure:"store"`
	Session SessionSettings `mapstructure:"session"`
	Log     LogSettings     `mapstructure:"log"`
	Ngrok   NgrokSettings   `mapstructure:"ngrok"`
}

type ServerSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DirSettings struct {
	Dir string `mapstructure:"dir"`
}

// StoreSettings selects the session store: memory, file, sqlite or postgres.
type StoreSettings struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Dir    string `mapstructure:"dir"`
}

type SessionSettings struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NgrokSettings struct {
	Domain string `mapstructure:"domain"`
}

// Addr returns the listen address
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("tracks.dir", "./tracks")
	v.SetDefault("moves.dir", "./moves")
	v.SetDefault("paths.dir", "./follower")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.dir", "./sessions")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("ngrok.domain", "")
}

// LoadSettings reads defaults, the optional racetrack.json settings file from
// the given directories (the working directory and ./configs when none are
// given) and RACETRACK_ environment overrides.
func LoadSettings(dirs ...string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(SettingsFile)
	v.SetConfigType("json")
	if len(dirs) == 0 {
		dirs = []string{".", "./configs"}
	}
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// The settings file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the values that have a closed set of options
func (s *Settings) Validate() error {
	switch s.Store.Driver {
	case "memory", "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q, use memory, file, sqlite or postgres", s.Store.Driver)
	}
	switch s.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q, use console or json", s.Log.Format)
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", s.Server.Port)
	}
	return nil
}
