package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/strategy"
)

const defaultPlayTurns = 500

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "race locally in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "track", Usage: "track file", Required: true},
			&cli.StringSliceFlag{Name: "strategy", Usage: "driver of a car as id=kind[:file], repeatable; cars default to user"},
			&cli.IntFlag{Name: "max-turns", Value: defaultPlayTurns, Usage: "stop after this many turns"},
			&cli.BoolFlag{Name: "quiet", Usage: "only print the result"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			track, err := engine.LoadTrackFile(cmd.String("track"))
			if err != nil {
				return err
			}
			race, err := newLocalRace(track, cmd.StringSlice("strategy"))
			if err != nil {
				return err
			}
			p := &player{
				race:     race,
				in:       bufio.NewScanner(os.Stdin),
				out:      os.Stdout,
				quiet:    cmd.Bool("quiet"),
				maxTurns: int(cmd.Int("max-turns")),
			}
			return p.play(ctx)
		},
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "print the smoothed path of a car as a path follower file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "track", Usage: "track file", Required: true},
			&cli.IntFlag{Name: "car", Usage: "car index"},
			&cli.StringFlag{Name: "out", Usage: "write the path to this file instead of stdout"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			track, err := engine.LoadTrackFile(cmd.String("track"))
			if err != nil {
				return err
			}

			var out io.Writer = os.Stdout
			if name := cmd.String("out"); name != "" {
				f, err := os.Create(name)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return planRoute(out, track, int(cmd.Int("car")))
		},
	}
}

// planRoute writes the smoothed route of car index on track
func planRoute(w io.Writer, track *engine.Track, index int) error {
	car, err := track.Car(index)
	if err != nil {
		return err
	}
	route, err := strategy.Plan(track, car.Position())
	if err != nil {
		return fmt.Errorf("car %c: %w", car.ID(), err)
	}
	return strategy.WritePathFile(w, route)
}

// parseDriver splits "id=kind[:file]"
func parseDriver(value string) (id rune, kind strategy.Kind, file string, err error) {
	name, driver, ok := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !ok || len([]rune(name)) != 1 {
		return 0, "", "", fmt.Errorf("invalid strategy %q, expected id=kind[:file]", value)
	}
	kindName, file, _ := strings.Cut(driver, ":")
	kind, err = strategy.ParseKind(kindName)
	if err != nil {
		return 0, "", "", err
	}
	return []rune(name)[0], kind, strings.TrimSpace(file), nil
}

// driverSpec builds the strategy spec of a driver, reading its move or path file
func driverSpec(kind strategy.Kind, file string) (strategy.Spec, error) {
	spec := strategy.Spec{Kind: kind}
	if kind != strategy.KindMoveList && kind != strategy.KindPathFollower {
		return spec, nil
	}
	if file == "" {
		return spec, fmt.Errorf("strategy %s needs a file", kind)
	}
	f, err := os.Open(file)
	if err != nil {
		return spec, err
	}
	defer f.Close()

	if kind == strategy.KindMoveList {
		spec.Moves, err = strategy.ParseMoveList(f)
	} else {
		spec.Waypoints, err = strategy.ParsePathFile(f)
	}
	return spec, err
}

// newLocalRace sets up a race on track with the given "id=kind[:file]"
// drivers. Cars not named are driven by the user.
func newLocalRace(track *engine.Track, drivers []string) (*engine.GameEngine, error) {
	specs := make(map[rune]strategy.Spec)
	for _, value := range drivers {
		id, kind, file, err := parseDriver(value)
		if err != nil {
			return nil, err
		}
		spec, err := driverSpec(kind, file)
		if err != nil {
			return nil, fmt.Errorf("car %c: %w", id, err)
		}
		specs[id] = spec
	}

	race, err := engine.NewEngine(track)
	if err != nil {
		return nil, err
	}
	for i, car := range track.Cars() {
		spec, ok := specs[car.ID()]
		if !ok {
			spec = strategy.Spec{Kind: strategy.KindUser}
		}
		delete(specs, car.ID())

		s, err := strategy.FromSpec(spec, track, car)
		if err != nil {
			return nil, fmt.Errorf("car %c: %w", car.ID(), err)
		}
		if err := race.SetCarMoveStrategy(i, s); err != nil {
			return nil, err
		}
	}
	for id := range specs {
		return nil, fmt.Errorf("track has no car %c", id)
	}
	return race, nil
}

// player runs a local race, asking for the accelerations of user cars
type player struct {
	race     *engine.GameEngine
	in       *bufio.Scanner
	out      io.Writer
	quiet    bool
	maxTurns int
}

func (p *player) play(ctx context.Context) error {
	track := p.race.Track()
	if !p.quiet {
		fmt.Fprintln(p.out, track)
	}

	for turns := 0; turns < p.maxTurns; turns++ {
		if p.race.IsFinished() {
			break
		}
		if strategy.IsDraw(track) {
			fmt.Fprintln(p.out, "Draw: no car can move anymore.")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		car := p.race.CurrentCar()
		if user, ok := car.Strategy().(*strategy.User); ok && user.Pending() == 0 {
			d, err := p.ask(car)
			if err != nil {
				return err
			}
			user.Push(d)
		}

		turn, err := p.race.DoCarTurn(car.Strategy().NextMove(car))
		if err != nil {
			return err
		}
		if !p.quiet {
			fmt.Fprintf(p.out, "Turn %d: car %s %s at %s, velocity %s\n", turn.TurnNumber, turn.CarID, turn.Outcome, turn.To, turn.Velocity)
			fmt.Fprintln(p.out, track)
		}

		if p.race.Winner() != engine.NoWinner {
			break
		}
		if err := p.race.SwitchToNextActiveCar(); errors.Is(err, engine.ErrNoActiveCar) {
			fmt.Fprintln(p.out, "All cars crashed.")
			return nil
		} else if err != nil {
			return err
		}
	}

	winner := p.race.Winner()
	if winner == engine.NoWinner {
		fmt.Fprintf(p.out, "No winner after %d turns.\n", p.maxTurns)
		return nil
	}
	car, err := track.Car(winner)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Car %c (index %d) wins!\n", car.ID(), winner)
	if s, ok := car.Strategy().(strategy.Strategy); ok && s.Statistics() != "" {
		fmt.Fprintln(p.out, s.Statistics())
	}
	return nil
}

// ask reads an acceleration for car, repeating until a valid direction is given
func (p *player) ask(car *engine.Car) (engine.Direction, error) {
	for {
		fmt.Fprintf(p.out, "Car %c at %s, velocity %s. Acceleration (UP, DOWN_LEFT, NONE, ...): ",
			car.ID(), car.Position(), car.Velocity())
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return engine.None, err
			}
			return engine.None, io.ErrUnexpectedEOF
		}
		d, err := engine.ParseDirection(p.in.Text())
		if err == nil {
			return d, nil
		}
		fmt.Fprintln(p.out, err)
	}
}
