// Command validate checks the track files in a directory (../tracks by
// default). It checks:
//   - The track parses: equal row lengths, unique car characters, 2 to 9 cars
//   - Presence of at least one finish cell
//   - Connectivity: every car has a route to the finish it may cross
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/strategy"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateTrack loads and validates a single track file
func validateTrack(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	track, err := engine.LoadTrackFile(filePath)
	if err != nil {
		result.Valid = false
		var formatErr *engine.TrackFormatError
		if errors.As(err, &formatErr) {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid track: %s", formatErr.Msg))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		}
		return result
	}

	finishCells := len(engine.FinishCells(track))
	if finishCells == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Must have at least 1 finish cell (^, v, < or >)")
		return result
	}

	routes := validateRoutes(track)
	if !routes.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, routes.Errors...)

	if result.Valid {
		var ids []string
		for _, car := range track.Cars() {
			ids = append(ids, string(car.ID()))
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", track.Width(), track.Height()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Cars: %s", strings.Join(ids, " ")))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Finish cells: %d", finishCells))
	}
	return result
}

// validateRoutes ensures every car can reach a finish cell it is allowed to
// cross, using the path finder's search.
func validateRoutes(track *engine.Track) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	var stuck []string
	for _, car := range track.Cars() {
		if _, err := strategy.FindPath(track, car.Position()); err != nil {
			stuck = append(stuck, fmt.Sprintf("Car %c at %s: %v", car.ID(), car.Position(), err))
		}
	}

	if len(stuck) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: %d/%d cars have no route to the finish", len(stuck), track.CarCount()))
		for _, s := range stuck {
			result.Errors = append(result.Errors, fmt.Sprintf("Unreachable: %s", s))
		}
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: All %d cars can reach the finish", track.CarCount()))
	}
	return result
}

// validateDir validates every *.txt track in dir and prints a concise report.
// It reports whether all tracks are valid.
func validateDir(dir string) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return false, fmt.Errorf("error finding track files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no track files found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateTrack(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}
	return allValid, nil
}

// main validates the tracks directory given as argument, exiting with
// non-zero status if any track is invalid.
func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "check racetrack track files",
		ArgsUsage: "[tracks-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "../tracks"
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}

			allValid, err := validateDir(dir)
			if err != nil {
				return err
			}

			fmt.Printf("\n%s\n", strings.Repeat("=", 40))
			if !allValid {
				return errors.New("some tracks have errors")
			}
			fmt.Println("✅ All tracks are valid!")
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}
