package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/wricardo/racetrack/game/engine"
)

const instrumentationName = "github.com/wricardo/racetrack/game/service"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type raceMetrics struct {
	turns      metric.Int64Counter
	crashes    metric.Int64Counter
	wins       metric.Int64Counter
	pathLength metric.Int64Histogram
}

func newRaceMetrics(m metric.Meter) (*raceMetrics, error) {
	var (
		rm  raceMetrics
		err error
	)
	rm.turns, err = m.Int64Counter(
		"racetrack.turns",
		metric.WithDescription("Total turns executed"),
	)
	if err != nil {
		return nil, err
	}
	rm.crashes, err = m.Int64Counter(
		"racetrack.crashes",
		metric.WithDescription("Total cars crashed"),
	)
	if err != nil {
		return nil, err
	}
	rm.wins, err = m.Int64Counter(
		"racetrack.wins",
		metric.WithDescription("Total races won"),
	)
	if err != nil {
		return nil, err
	}
	rm.pathLength, err = m.Int64Histogram(
		"racetrack.path.length",
		metric.WithDescription("Waypoints in planned paths"),
	)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func noopRaceMetrics() *raceMetrics {
	rm, _ := newRaceMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	return rm
}

func (rm *raceMetrics) recordTurn(ctx context.Context, turn engine.TurnResult) {
	rm.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(turn.Outcome))))
	if turn.Outcome == engine.OutcomeCrashed {
		rm.crashes.Add(ctx, 1)
	}
	// A crash can decide the race for the last car standing.
	if turn.Winner != engine.NoWinner {
		rm.wins.Add(ctx, 1)
	}
}

func (rm *raceMetrics) recordPath(ctx context.Context, waypoints int) {
	rm.pathLength.Record(ctx, int64(waypoints))
}
