package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/strategy"
)

// raceServiceImpl implements the RaceService interface
type raceServiceImpl struct {
	sessions  SessionManager
	tracks    TrackCatalog
	logger    zerolog.Logger
	metrics   *raceMetrics
	mu        sync.RWMutex
	listeners []TurnListener
}

// NewRaceService creates a new race service instance
func NewRaceService(sessions SessionManager, tracks TrackCatalog, logger zerolog.Logger) RaceService {
	rm, err := newRaceMetrics(meter())
	if err != nil {
		logger.Warn().Err(err).Msg("metrics disabled")
		rm = noopRaceMetrics()
	}
	return &raceServiceImpl{
		sessions: sessions,
		tracks:   tracks,
		logger:   logger,
		metrics:  rm,
	}
}

func (s *raceServiceImpl) OnTurn(listener TurnListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// CreateSession creates a new race session
func (s *raceServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trackName := req.Track
	var track *engine.Track
	var err error
	switch {
	case len(req.Layout) > 0:
		track, err = engine.ParseTrack(req.Layout)
		if trackName == "" {
			trackName = "custom"
		}
	case req.Track != "":
		track, err = s.tracks.LoadTrack(req.Track)
		if err != nil && !errors.Is(err, engine.ErrInvalidTrack) {
			return nil, s.trackNotFound(req.Track, err)
		}
	default:
		return nil, fmt.Errorf("%w: a track name or layout is required", ErrInvalidRequest)
	}
	if err != nil {
		return nil, err
	}

	drivers, err := resolveDrivers(track, req.Strategies)
	if err != nil {
		return nil, err
	}
	race, err := s.buildRace(track, drivers)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", trackName, race, drivers)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().
		Str("session", sess.ID).
		Str("track", trackName).
		Int("cars", track.CarCount()).
		Msg("race created")

	return sessionInfo(sess), nil
}

// trackNotFound lists the available tracks in the error, like the catalog
// listing endpoint would.
func (s *raceServiceImpl) trackNotFound(name string, err error) error {
	available, listErr := s.tracks.ListTracks()
	if listErr == nil && len(available) > 0 {
		names := make([]string, 0, len(available))
		for _, t := range available {
			names = append(names, t.Name)
		}
		return fmt.Errorf("track '%s' not found. Available tracks: %v: %w", name, names, err)
	}
	return fmt.Errorf("failed to load track %s: %w", name, err)
}

// resolveDrivers returns one request per car. Unknown car ids are rejected and
// missing entries default to user driven cars.
func resolveDrivers(track *engine.Track, requested map[string]StrategyRequest) ([]StrategyRequest, error) {
	cars := track.Cars()
	known := make(map[string]int, len(cars))
	for i, car := range cars {
		known[string(car.ID())] = i
	}
	for id := range requested {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%w: track has no car %q", ErrInvalidRequest, id)
		}
	}

	drivers := make([]StrategyRequest, len(cars))
	for i, car := range cars {
		req, ok := requested[string(car.ID())]
		if !ok || req.Kind == "" {
			req.Kind = string(strategy.KindUser)
		}
		kind, err := strategy.ParseKind(req.Kind)
		if err != nil {
			return nil, fmt.Errorf("car %c: %w", car.ID(), err)
		}
		req.Kind = string(kind)
		drivers[i] = req
	}
	return drivers, nil
}

// buildRace starts a race on track and attaches a strategy to every car.
func (s *raceServiceImpl) buildRace(track *engine.Track, drivers []StrategyRequest) (*engine.GameEngine, error) {
	race, err := engine.NewEngine(track)
	if err != nil {
		return nil, err
	}
	for i, car := range track.Cars() {
		st, err := s.buildStrategy(drivers[i], track, car)
		if err != nil {
			return nil, err
		}
		if err := race.SetCarMoveStrategy(i, st); err != nil {
			return nil, err
		}
	}
	return race, nil
}

func (s *raceServiceImpl) buildStrategy(req StrategyRequest, track *engine.Track, car *engine.Car) (strategy.Strategy, error) {
	kind, err := strategy.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	spec := strategy.Spec{Kind: kind}

	switch kind {
	case strategy.KindMoveList:
		switch {
		case req.MoveList != "":
			spec.Moves, err = s.tracks.LoadMoveList(req.MoveList)
			if err != nil {
				return nil, fmt.Errorf("car %c: %w", car.ID(), err)
			}
		default:
			for _, name := range req.Moves {
				d, err := engine.ParseDirection(name)
				if err != nil {
					return nil, fmt.Errorf("car %c: %w: %w", car.ID(), strategy.ErrInvalidMoveList, err)
				}
				spec.Moves = append(spec.Moves, d)
			}
		}
	case strategy.KindPathFollower:
		spec.Waypoints = req.Waypoints
		if req.Path != "" {
			spec.Waypoints, err = s.tracks.LoadPath(req.Path)
			if err != nil {
				return nil, fmt.Errorf("car %c: %w", car.ID(), err)
			}
		}
	}
	return strategy.FromSpec(spec, track, car)
}

// GetSession retrieves session information
func (s *raceServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *raceServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		result = append(result, sessionInfo(sess))
		sess.Unlock()
	}
	return result, nil
}

// DeleteSession removes a session
func (s *raceServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.logger.Info().Str("session", sessionID).Msg("race deleted")
	return nil
}

// session looks a session up and marks it as accessed.
func (s *raceServiceImpl) session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := s.sessions.UpdateLastAccessed(id); err != nil {
		s.logger.Debug().Err(err).Str("session", id).Msg("failed to update last access")
	}
	return sess, nil
}

// Turn executes the current car's turn. User driven cars need a direction,
// every other car must not get one.
func (s *raceServiceImpl) Turn(ctx context.Context, sessionID string, direction *engine.Direction) (*TurnResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	if sess.Engine.IsFinished() {
		sess.Unlock()
		return nil, ErrRaceFinished
	}

	car := sess.Engine.CurrentCar()
	user, isUser := car.Strategy().(*strategy.User)
	switch {
	case isUser && direction == nil:
		sess.Unlock()
		return nil, ErrDirectionRequired
	case isUser:
		if !direction.Valid() {
			sess.Unlock()
			return nil, fmt.Errorf("%w: %d", engine.ErrInvalidDirection, int(*direction))
		}
		user.Push(*direction)
	case direction != nil:
		sess.Unlock()
		return nil, ErrDirectionNotAllowed
	}

	turn, err := s.playTurn(ctx, sess)
	if err != nil {
		sess.Unlock()
		return nil, err
	}
	state := sess.State()
	resp := &TurnResponse{
		Turn:       turn,
		State:      state,
		Message:    turnMessage(turn),
		Draw:       !state.Finished && strategy.IsDraw(sess.Engine.Track()),
		Statistics: winnerStatistics(sess),
	}
	s.save(sess.ID)
	sess.Unlock()

	s.notify(sess.ID, turn, state)
	return resp, nil
}

// playTurn runs one turn of the current car with its own strategy and hands
// the turn to the next car. The caller holds the session lock.
func (s *raceServiceImpl) playTurn(ctx context.Context, sess *Session) (engine.TurnResult, error) {
	race := sess.Engine
	car := race.CurrentCar()
	if car.Strategy() == nil {
		return engine.TurnResult{}, fmt.Errorf("car %c: %w", car.ID(), engine.ErrNilStrategy)
	}

	turn, err := race.DoCarTurn(car.Strategy().NextMove(car))
	if err != nil {
		return engine.TurnResult{}, err
	}
	if race.Winner() == engine.NoWinner {
		if err := race.SwitchToNextActiveCar(); err != nil && !errors.Is(err, engine.ErrNoActiveCar) {
			return turn, err
		}
	}

	s.metrics.recordTurn(ctx, turn)
	event := s.logger.Debug()
	if turn.Outcome == engine.OutcomeCrashed || turn.Winner != engine.NoWinner {
		event = s.logger.Info()
	}
	event.
		Str("session", sess.ID).
		Int("turn", turn.TurnNumber).
		Str("car", turn.CarID).
		Str("outcome", string(turn.Outcome)).
		Stringer("position", turn.To).
		Msg("turn played")
	return turn, nil
}

func (s *raceServiceImpl) save(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("failed to persist session")
	}
}

func (s *raceServiceImpl) notify(sessionID string, turn engine.TurnResult, state *engine.RaceState) {
	s.mu.RLock()
	listeners := append([]TurnListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(sessionID, turn, state)
	}
}

// AutoPlay runs strategy driven turns until the race is decided, is a draw,
// waits for a user car or maxTurns were played. Cancelling ctx stops the run
// between turns.
func (s *raceServiceImpl) AutoPlay(ctx context.Context, sessionID string, maxTurns int) (*AutoPlayResult, error) {
	if maxTurns <= 0 {
		maxTurns = DefaultAutoPlayTurns
	}
	if maxTurns > MaxAutoPlayTurns {
		maxTurns = MaxAutoPlayTurns
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	if sess.Engine.IsFinished() {
		sess.Unlock()
		return nil, ErrRaceFinished
	}

	type played struct {
		turn  engine.TurnResult
		state *engine.RaceState
	}
	var events []played
	result := &AutoPlayResult{Turns: []engine.TurnResult{}, StopReason: StopMaxTurns}
	track := sess.Engine.Track()

	for result.TurnsPlayed < maxTurns {
		if sess.Engine.IsFinished() {
			result.StopReason = StopFinished
			break
		}
		if strategy.IsDraw(track) {
			result.StopReason = StopDraw
			result.Draw = true
			break
		}
		if _, ok := sess.Engine.CurrentCar().Strategy().(*strategy.User); ok {
			result.StopReason = StopUserTurn
			break
		}
		if err := ctx.Err(); err != nil {
			s.save(sess.ID)
			sess.Unlock()
			return nil, err
		}

		turn, err := s.playTurn(ctx, sess)
		if err != nil {
			s.save(sess.ID)
			sess.Unlock()
			return nil, err
		}
		result.TurnsPlayed++
		result.Turns = append(result.Turns, turn)
		events = append(events, played{turn: turn, state: sess.State()})
	}
	if result.StopReason == StopMaxTurns && sess.Engine.IsFinished() {
		result.StopReason = StopFinished
	}

	result.State = sess.State()
	result.Winner = result.State.Winner
	result.WinnerID = result.State.WinnerID
	result.Statistics = winnerStatistics(sess)
	s.save(sess.ID)
	sess.Unlock()

	s.logger.Info().
		Str("session", sess.ID).
		Int("turns", result.TurnsPlayed).
		Str("stop_reason", result.StopReason).
		Msg("autoplay stopped")

	for _, ev := range events {
		s.notify(sess.ID, ev.turn, ev.state)
	}
	return result, nil
}

// Reset restarts the race on the original track with freshly built
// strategies
func (s *raceServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.RaceState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	track, err := engine.ParseTrack(sess.Engine.Track().Layout())
	if err != nil {
		return nil, err
	}
	race, err := s.buildRace(track, sess.Drivers)
	if err != nil {
		return nil, err
	}
	sess.Engine = race
	s.save(sess.ID)

	s.logger.Info().Str("session", sess.ID).Msg("race reset")
	return sess.State(), nil
}

// GetRaceState retrieves the current race state
func (s *raceServiceImpl) GetRaceState(ctx context.Context, sessionID string) (*engine.RaceState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.State(), nil
}

// GetTurnHistory returns paginated turn history
func (s *raceServiceImpl) GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	history := sess.Engine.GetTurnHistory()
	sess.Unlock()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	opts.Order = strings.ToLower(opts.Order)
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	turns := []engine.TurnResult{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			turns = append(turns, history[i])
		}
	} else if start < total {
		turns = append(turns, history[start:end]...)
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// PlanPath plans the smoothed route of a car from its current position. The
// race is not changed.
func (s *raceServiceImpl) PlanPath(ctx context.Context, sessionID string, carIndex int) (*PathResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	track := sess.Engine.Track()
	car, err := track.Car(carIndex)
	if err != nil {
		return nil, err
	}
	raw, err := strategy.FindPath(track, car.Position())
	if err != nil {
		return nil, fmt.Errorf("car %c: %w", car.ID(), err)
	}
	path := strategy.SmoothPath(track, raw)
	s.metrics.recordPath(ctx, len(path))

	return &PathResponse{
		SessionID: sess.ID,
		CarIndex:  carIndex,
		CarID:     string(car.ID()),
		Start:     car.Position(),
		Path:      path,
		RawLength: len(raw),
	}, nil
}

// ListTracks returns the tracks of the catalog
func (s *raceServiceImpl) ListTracks(ctx context.Context) ([]*TrackInfo, error) {
	return s.tracks.ListTracks()
}

// GetTrack describes a catalog track including its rows
func (s *raceServiceImpl) GetTrack(ctx context.Context, name string) (*TrackInfo, error) {
	track, err := s.tracks.LoadTrack(name)
	if err != nil {
		return nil, err
	}
	info := DescribeTrack(name, track)
	info.Rows = track.Layout()
	return info, nil
}

// SaveTrack validates rows and stores them in the catalog
func (s *raceServiceImpl) SaveTrack(ctx context.Context, name string, rows []string) (*TrackInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: track name is required", ErrInvalidRequest)
	}
	track, err := engine.ParseTrack(rows)
	if err != nil {
		return nil, err
	}
	if err := s.tracks.SaveTrack(name, rows); err != nil {
		return nil, err
	}
	s.logger.Info().Str("track", name).Msg("track saved")

	info := DescribeTrack(name, track)
	info.Rows = track.Layout()
	return info, nil
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		TrackName:      sess.TrackName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Drivers:        sess.Drivers,
		RaceState:      sess.State(),
	}
}

// winnerStatistics returns the statistics of the winning car's strategy.
func winnerStatistics(sess *Session) string {
	winner := sess.Engine.Winner()
	if winner == engine.NoWinner {
		return ""
	}
	st := sess.Strategies()[winner]
	if st == nil {
		return ""
	}
	return st.Statistics()
}

func turnMessage(turn engine.TurnResult) string {
	switch turn.Outcome {
	case engine.OutcomeCrashed:
		msg := fmt.Sprintf("Car %s crashed at %s.", turn.CarID, turn.To)
		if turn.Winner != engine.NoWinner {
			msg += fmt.Sprintf(" Car with index %d is the last car standing and wins.", turn.Winner)
		}
		return msg
	case engine.OutcomeWon:
		return fmt.Sprintf("Car %s crossed the finish line and wins!", turn.CarID)
	case engine.OutcomePenalized:
		return fmt.Sprintf("Car %s crossed the finish line the wrong way and is penalized.", turn.CarID)
	case engine.OutcomePenaltyCleared:
		return fmt.Sprintf("Car %s recrossed the finish line and is racing again.", turn.CarID)
	case engine.OutcomeIgnored:
		return fmt.Sprintf("Car %s did not move.", turn.CarID)
	}
	return fmt.Sprintf("Car %s moved to %s.", turn.CarID, turn.To)
}
