// Command racetrack runs vector racetrack races.
//
// Commands:
//  1. "serve" – runs the HTTP server exposing the REST API, WebSocket spectators and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – races locally in the terminal, prompting for user driven cars
//  4. "plan" – prints the planned path of a car as a path follower file
//
// Settings come from defaults, an optional racetrack.json, RACETRACK_*
// environment variables and finally the command flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/racetrack/game/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Racetrack"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", envErr)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "racetrack",
		Usage:   "vector racetrack races with path planning",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Usage: "directory holding racetrack.json (default: . and ./configs)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "console or json",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			playCommand(),
			planCommand(),
		},
	}
}

// loadSettings reads settings and applies the global flags
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	var dirs []string
	if dir := cmd.String("config-dir"); dir != "" {
		dirs = append(dirs, dir)
	}
	settings, err := config.LoadSettings(dirs...)
	if err != nil {
		return nil, err
	}
	if level := cmd.String("log-level"); level != "" {
		settings.Log.Level = level
	}
	if format := cmd.String("log-format"); format != "" {
		settings.Log.Format = format
	}
	return settings, settings.Validate()
}

// newLogger builds the process logger. Logs always go to stderr so the MCP
// stdio transport keeps stdout to itself.
func newLogger(s config.LogSettings) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(s.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", s.Level, err)
	}

	var logger zerolog.Logger
	if s.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}
