// Command analyze prints quick, human-readable heuristics about the track
// files in a directory (./tracks by default). It summarizes dimensions, cars,
// finish cells per crossing direction and, per car, the distance to the
// nearest finish and the length of the path finder's route before and after
// smoothing.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/strategy"
)

// CarAnalysis holds the route heuristics of one car.
type CarAnalysis struct {
	ID             rune
	Start          engine.Vector
	NearestFinish  int
	PathLength     int
	Waypoints      int
	Unreachable    bool
	UnreachableErr string
}

// TrackAnalysis is the analysis of one track file.
type TrackAnalysis struct {
	Name        string
	Width       int
	Height      int
	OpenCells   int
	NearWall    int
	FinishCells map[engine.SpaceKind]int
	Cars        []CarAnalysis
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "print heuristics about racetrack track files",
		ArgsUsage: "[tracks-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "tracks"
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}
			files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
			if err != nil {
				return err
			}
			for _, file := range files {
				fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
				analysis, err := analyzeTrack(file)
				if err != nil {
					fmt.Printf("Error loading track: %v\n", err)
					continue
				}
				printAnalysis(os.Stdout, analysis)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func analyzeTrack(path string) (*TrackAnalysis, error) {
	track, err := engine.LoadTrackFile(path)
	if err != nil {
		return nil, err
	}

	analysis := &TrackAnalysis{
		Name:        filepath.Base(path),
		Width:       track.Width(),
		Height:      track.Height(),
		OpenCells:   engine.CountSpaceKind(track, engine.Open),
		FinishCells: make(map[engine.SpaceKind]int),
	}

	for y := 0; y < track.Height(); y++ {
		for x := 0; x < track.Width(); x++ {
			p := engine.Vector{X: x, Y: y}
			if track.SpaceKindAt(p) != engine.Wall && track.IsNearWall(p) {
				analysis.NearWall++
			}
		}
	}
	for _, kind := range []engine.SpaceKind{engine.FinishUp, engine.FinishDown, engine.FinishLeft, engine.FinishRight} {
		if n := engine.CountSpaceKind(track, kind); n > 0 {
			analysis.FinishCells[kind] = n
		}
	}

	for _, car := range track.Cars() {
		analysis.Cars = append(analysis.Cars, analyzeCar(track, car))
	}
	return analysis, nil
}

func analyzeCar(track *engine.Track, car *engine.Car) CarAnalysis {
	result := CarAnalysis{ID: car.ID(), Start: car.Position(), NearestFinish: -1}
	if _, distance, ok := engine.FindNearestFinish(track, car.Position()); ok {
		result.NearestFinish = distance
	}

	raw, err := strategy.FindPath(track, car.Position())
	if err != nil {
		result.Unreachable = true
		result.UnreachableErr = err.Error()
		return result
	}
	result.PathLength = len(raw)
	result.Waypoints = len(strategy.SmoothPath(track, raw))
	return result
}

func printAnalysis(w io.Writer, a *TrackAnalysis) {
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Open Cells: %d (%d next to a wall)\n", a.OpenCells, a.NearWall)

	total := 0
	for _, n := range a.FinishCells {
		total += n
	}
	fmt.Fprintf(w, "Finish Cells: %d\n", total)
	for _, kind := range []engine.SpaceKind{engine.FinishUp, engine.FinishDown, engine.FinishLeft, engine.FinishRight} {
		if n, ok := a.FinishCells[kind]; ok {
			fmt.Fprintf(w, "   '%c' %s: %d\n", kind.Char(), kind, n)
		}
	}
	fmt.Fprintf(w, "Cars: %d\n", len(a.Cars))

	unreachable := 0
	for _, car := range a.Cars {
		if car.Unreachable {
			unreachable++
			fmt.Fprintf(w, "   Car %c at %s: ⚠️  no route (%s)\n", car.ID, car.Start, car.UnreachableErr)
			continue
		}
		fmt.Fprintf(w, "   Car %c at %s: nearest finish %d cells, route %d cells, %d waypoints\n",
			car.ID, car.Start, car.NearestFinish, car.PathLength, car.Waypoints)
	}

	if unreachable > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d cars cannot reach the finish!\n", unreachable)
	} else {
		fmt.Fprintf(w, "✅ All cars can reach the finish\n")
	}
}
