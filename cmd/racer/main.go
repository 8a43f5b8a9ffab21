// Command racer drives one car of a race remotely through the REST API. It
// asks the server for the car's planned route and steers along it with a
// path follower, while the server's strategies drive the other cars. Crashed
// attempts reset the race and try again.
package main

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/service"
	"github.com/wricardo/racetrack/game/strategy"
)

// raceResult summarises a racer run
type raceResult struct {
	SessionID  string
	Attempts   int
	Turns      int
	Won        bool
	WinnerID   string
	Statistics string
}

type racer struct {
	client      *Client
	logger      zerolog.Logger
	carID       string
	opponents   string
	maxTurns    int
	maxAttempts int
	delay       time.Duration
}

// start creates the session and returns the index of the raced car
func (r *racer) start(ctx context.Context, trackName string) (int, error) {
	track, err := r.client.GetTrack(ctx, trackName)
	if err != nil {
		return 0, err
	}

	strategies := make(map[string]service.StrategyRequest)
	index := -1
	for i, id := range track.Cars {
		if id == r.carID {
			index = i
			continue
		}
		strategies[id] = service.StrategyRequest{Kind: r.opponents}
	}
	if index < 0 {
		return 0, fmt.Errorf("track %s has no car %s", trackName, r.carID)
	}

	if _, err := r.client.CreateSession(ctx, trackName, strategies); err != nil {
		return 0, err
	}
	return index, nil
}

func (r *racer) run(ctx context.Context, trackName string) (*raceResult, error) {
	index, err := r.start(ctx, trackName)
	if err != nil {
		return nil, err
	}
	result := &raceResult{SessionID: r.client.sessionID}
	r.logger.Info().Str("session", result.SessionID).Str("car", r.carID).Int("index", index).Msg("session created")

	route, err := r.client.PlanPath(ctx, index)
	if err != nil {
		return nil, err
	}
	r.logger.Info().Int("waypoints", len(route.Path)).Int("cells", route.RawLength).Msg("route planned")

	for result.Attempts < r.maxAttempts {
		result.Attempts++
		state, err := r.client.Reset(ctx)
		if err != nil {
			return nil, err
		}

		r.logger.Info().Int("attempt", result.Attempts).Msg("starting attempt")
		follower := strategy.NewPathFollower(route.Path)
		turns, state, err := r.drive(ctx, index, follower, state)
		if err != nil {
			return nil, err
		}
		result.Turns = turns

		if state.Finished {
			result.WinnerID = state.WinnerID
			if state.Winner == index {
				result.Won = true
				result.Statistics = follower.Statistics()
				return result, nil
			}
			r.logger.Info().Int("attempt", result.Attempts).Str("winner", state.WinnerID).Msg("race lost")
			continue
		}
		r.logger.Info().Int("attempt", result.Attempts).Int("turns", turns).
			Str("status", string(state.Cars[index].Status)).Msg("attempt failed")
	}
	return result, nil
}

// drive alternates server autoplay with the racer's own turns until the race
// ends, the raced car crashes or maxTurns own turns were played.
func (r *racer) drive(ctx context.Context, index int, follower *strategy.PathFollower, state *engine.RaceState) (int, *engine.RaceState, error) {
	turns := 0
	for turns < r.maxTurns && !state.Finished {
		auto, err := r.client.AutoPlay(ctx, 0)
		if err != nil {
			return turns, state, err
		}
		state = auto.State
		if auto.StopReason != service.StopUserTurn {
			break
		}

		me := state.Cars[index]
		id, _ := utf8.DecodeRuneInString(me.ID)
		d := follower.NextMove(engine.NewCar(id, me.Position, me.Velocity))

		resp, err := r.client.Turn(ctx, d)
		if err != nil {
			return turns, state, err
		}
		turns++
		state = resp.State

		r.logger.Debug().Int("turn", resp.Turn.TurnNumber).Str("acceleration", d.String()).
			Stringer("position", resp.Turn.To).Str("outcome", string(resp.Turn.Outcome)).Msg(resp.Message)
		if resp.Turn.Outcome == engine.OutcomeCrashed || resp.Draw {
			break
		}

		if r.delay > 0 {
			time.Sleep(r.delay)
		}
	}
	return turns, state, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "racer",
		Usage: "drive a car remotely along its planned route",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "racetrack server URL"},
			&cli.StringFlag{Name: "track", Required: true, Usage: "catalog track name"},
			&cli.StringFlag{Name: "car", Value: "a", Usage: "id of the car to drive"},
			&cli.StringFlag{Name: "opponents", Value: string(strategy.KindPathFinder), Usage: "strategy kind of the other cars"},
			&cli.IntFlag{Name: "max-turns", Value: 500, Usage: "maximum own turns per attempt"},
			&cli.IntFlag{Name: "max-attempts", Value: 10, Usage: "maximum attempts before giving up"},
			&cli.DurationFlag{Name: "delay", Usage: "delay between own turns"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("v") {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()

			r := &racer{
				client:      NewClient(cmd.String("url")),
				logger:      logger,
				carID:       cmd.String("car"),
				opponents:   cmd.String("opponents"),
				maxTurns:    int(cmd.Int("max-turns")),
				maxAttempts: int(cmd.Int("max-attempts")),
				delay:       cmd.Duration("delay"),
			}
			result, err := r.run(ctx, cmd.String("track"))
			if err != nil {
				return err
			}

			if !result.Won {
				return fmt.Errorf("failed to win after %d attempts (session %s)", result.Attempts, result.SessionID)
			}
			logger.Info().Str("session", result.SessionID).Int("attempt", result.Attempts).
				Int("turns", result.Turns).Msg("🎉 victory! " + result.Statistics)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
