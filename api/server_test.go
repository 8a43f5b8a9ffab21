package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/racetrack/game/config"
	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/service"
	"github.com/wricardo/racetrack/game/session"
	"github.com/wricardo/racetrack/game/strategy"
	"github.com/wricardo/racetrack/transport/websocket"
)

// MockRaceService implements service.RaceService for testing
type MockRaceService struct {
	CreateSessionFunc  func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error)
	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc  func(ctx context.Context, sessionID string) error
	TurnFunc           func(ctx context.Context, sessionID string, direction *engine.Direction) (*service.TurnResponse, error)
	AutoPlayFunc       func(ctx context.Context, sessionID string, maxTurns int) (*service.AutoPlayResult, error)
	ResetFunc          func(ctx context.Context, sessionID string) (*engine.RaceState, error)
	PlanPathFunc       func(ctx context.Context, sessionID string, carIndex int) (*service.PathResponse, error)
	GetRaceStateFunc   func(ctx context.Context, sessionID string) (*engine.RaceState, error)
	GetTurnHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	ListTracksFunc     func(ctx context.Context) ([]*service.TrackInfo, error)
	GetTrackFunc       func(ctx context.Context, name string) (*service.TrackInfo, error)
	SaveTrackFunc      func(ctx context.Context, name string, rows []string) (*service.TrackInfo, error)
}

func (m *MockRaceService) CreateSession(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return &service.SessionInfo{ID: "ab12", TrackName: req.Track, CreatedAt: time.Now()}, nil
}

func (m *MockRaceService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, TrackName: "oval", CreatedAt: time.Now()}, nil
}

func (m *MockRaceService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockRaceService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockRaceService) Turn(ctx context.Context, sessionID string, direction *engine.Direction) (*service.TurnResponse, error) {
	if m.TurnFunc != nil {
		return m.TurnFunc(ctx, sessionID, direction)
	}
	return &service.TurnResponse{State: &engine.RaceState{}}, nil
}

func (m *MockRaceService) AutoPlay(ctx context.Context, sessionID string, maxTurns int) (*service.AutoPlayResult, error) {
	if m.AutoPlayFunc != nil {
		return m.AutoPlayFunc(ctx, sessionID, maxTurns)
	}
	return &service.AutoPlayResult{StopReason: service.StopMaxTurns}, nil
}

func (m *MockRaceService) Reset(ctx context.Context, sessionID string) (*engine.RaceState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.RaceState{Winner: engine.NoWinner}, nil
}

func (m *MockRaceService) PlanPath(ctx context.Context, sessionID string, carIndex int) (*service.PathResponse, error) {
	if m.PlanPathFunc != nil {
		return m.PlanPathFunc(ctx, sessionID, carIndex)
	}
	return &service.PathResponse{SessionID: sessionID, CarIndex: carIndex}, nil
}

func (m *MockRaceService) GetRaceState(ctx context.Context, sessionID string) (*engine.RaceState, error) {
	if m.GetRaceStateFunc != nil {
		return m.GetRaceStateFunc(ctx, sessionID)
	}
	return &engine.RaceState{Winner: engine.NoWinner}, nil
}

func (m *MockRaceService) GetTurnHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetTurnHistoryFunc != nil {
		return m.GetTurnHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Turns:      []engine.TurnResult{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockRaceService) ListTracks(ctx context.Context) ([]*service.TrackInfo, error) {
	if m.ListTracksFunc != nil {
		return m.ListTracksFunc(ctx)
	}
	return []*service.TrackInfo{}, nil
}

func (m *MockRaceService) GetTrack(ctx context.Context, name string) (*service.TrackInfo, error) {
	if m.GetTrackFunc != nil {
		return m.GetTrackFunc(ctx, name)
	}
	return &service.TrackInfo{Name: name}, nil
}

func (m *MockRaceService) SaveTrack(ctx context.Context, name string, rows []string) (*service.TrackInfo, error) {
	if m.SaveTrackFunc != nil {
		return m.SaveTrackFunc(ctx, name, rows)
	}
	return &service.TrackInfo{Name: name, Rows: rows}, nil
}

func (m *MockRaceService) OnTurn(listener service.TurnListener) {}

// Test helpers
func setupTestServer(t *testing.T, raceService service.RaceService) *Server {
	t.Helper()
	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return NewServer(raceService, hub, zerolog.Nop())
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest(method, path, body))
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*testing.T, *MockRaceService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:        "catalog track with strategies",
			requestBody: map[string]interface{}{"track": "oval", "strategies": map[string]interface{}{"a": map[string]string{"kind": "path-finder"}}},
			setupMock: func(t *testing.T, m *MockRaceService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					assert.Equal(t, "oval", req.Track)
					assert.Equal(t, "path-finder", req.Strategies["a"].Kind)
					return &service.SessionInfo{ID: "ab12", TrackName: req.Track}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "inline layout",
			requestBody: map[string]interface{}{"layout": []string{"#####", "#a b#", "#####"}},
			setupMock: func(t *testing.T, m *MockRaceService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					assert.Len(t, req.Layout, 3)
					return &service.SessionInfo{ID: "ab12", TrackName: "custom"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "unknown track",
			requestBody: map[string]string{"track": "nope"},
			setupMock: func(t *testing.T, m *MockRaceService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("track 'nope' not found: %w", config.ErrTrackNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "track 'nope' not found: track not found",
		},
		{
			name:        "invalid layout",
			requestBody: map[string]interface{}{"layout": []string{"#a#"}},
			setupMock: func(t *testing.T, m *MockRaceService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: need at least two cars", engine.ErrInvalidTrack)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "unknown strategy",
			requestBody: map[string]interface{}{"track": "oval"},
			setupMock: func(t *testing.T, m *MockRaceService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("car a: %w", strategy.ErrUnknownKind)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "service error",
			requestBody: nil,
			setupMock: func(t *testing.T, m *MockRaceService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, errors.New("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockRaceService{}
			if tt.setupMock != nil {
				tt.setupMock(t, mockService)
			}

			w := serve(t, setupTestServer(t, mockService), "POST", "/api/sessions", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				var resp map[string]string
				parseResponse(t, w, &resp)
				assert.Equal(t, tt.expectedError, resp["error"])
			}
		})
	}
}

func TestCreateSession_InvalidBody(t *testing.T) {
	server := setupTestServer(t, &MockRaceService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "s1", TrackName: "oval", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-1 * time.Hour)},
			{ID: "s2", TrackName: "Sprint", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-3 * time.Hour)},
			{ID: "s3", TrackName: "oval", CreatedAt: now.Add(-1 * time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
		}
	}
	mock := &MockRaceService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return sessions(), nil
		},
	}
	server := setupTestServer(t, mock)

	tests := []struct {
		name  string
		query string
		want  []string
		total int
	}{
		{"default is most recently accessed first", "", []string{"s1", "s3", "s2"}, 3},
		{"by creation ascending", "?sort=created&order=asc", []string{"s1", "s2", "s3"}, 3},
		{"limited", "?sort=created&limit=2", []string{"s3", "s2"}, 3},
		{"filtered by track", "?track=OVAL", []string{"s1", "s3"}, 2},
		{"invalid limit is ignored", "?limit=abc", []string{"s1", "s3", "s2"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, server, "GET", "/api/sessions"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			ids := make([]string, len(resp.Sessions))
			for i, s := range resp.Sessions {
				ids[i] = s.ID
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), resp.Count)
			assert.Equal(t, tt.total, resp.Total)
		})
	}
}

func TestSessionNotFound(t *testing.T) {
	notFound := fmt.Errorf("%w: ffff", service.ErrSessionNotFound)
	mock := &MockRaceService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) { return nil, notFound },
		DeleteSessionFunc: func(ctx context.Context, id string) error {
			return notFound
		},
		GetRaceStateFunc: func(ctx context.Context, id string) (*engine.RaceState, error) { return nil, notFound },
		TurnFunc: func(ctx context.Context, id string, d *engine.Direction) (*service.TurnResponse, error) {
			return nil, notFound
		},
		AutoPlayFunc: func(ctx context.Context, id string, n int) (*service.AutoPlayResult, error) { return nil, notFound },
		ResetFunc:    func(ctx context.Context, id string) (*engine.RaceState, error) { return nil, notFound },
		GetTurnHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			return nil, notFound
		},
		PlanPathFunc: func(ctx context.Context, id string, i int) (*service.PathResponse, error) { return nil, notFound },
	}
	server := setupTestServer(t, mock)

	requests := []struct{ method, path string }{
		{"GET", "/api/sessions/ffff"},
		{"DELETE", "/api/sessions/ffff"},
		{"GET", "/api/sessions/ffff/state"},
		{"POST", "/api/sessions/ffff/turn"},
		{"POST", "/api/sessions/ffff/autoplay"},
		{"POST", "/api/sessions/ffff/reset"},
		{"GET", "/api/sessions/ffff/history"},
		{"GET", "/api/sessions/ffff/cars/0/path"},
	}
	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := serve(t, server, r.method, r.path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)

			var resp map[string]string
			parseResponse(t, w, &resp)
			assert.Equal(t, "session not found: ffff", resp["error"])
		})
	}
}

func TestTurn(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		err            error
		wantDirection  *engine.Direction
		expectedStatus int
	}{
		{
			name:           "user car with direction",
			body:           map[string]string{"direction": "up_right"},
			wantDirection:  directionPtr(engine.UpRight),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "strategy car without body",
			body:           nil,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown direction",
			body:           map[string]string{"direction": "SIDEWAYS"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "direction required",
			err:            service.ErrDirectionRequired,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "direction not allowed",
			body:           map[string]string{"direction": "UP"},
			wantDirection:  directionPtr(engine.Up),
			err:            service.ErrDirectionNotAllowed,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "race finished",
			err:            service.ErrRaceFinished,
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mock := &MockRaceService{
				TurnFunc: func(ctx context.Context, id string, direction *engine.Direction) (*service.TurnResponse, error) {
					called = true
					assert.Equal(t, "ab12", id)
					assert.Equal(t, tt.wantDirection, direction)
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.TurnResponse{
						Turn:    engine.TurnResult{TurnNumber: 1, CarID: "a", Outcome: engine.OutcomeMoved},
						State:   &engine.RaceState{Winner: engine.NoWinner},
						Message: "Car a moved to (X:3, Y:4).",
					}, nil
				},
			}

			w := serve(t, setupTestServer(t, mock), "POST", "/api/sessions/ab12/turn", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.expectedStatus == http.StatusOK {
				var resp service.TurnResponse
				parseResponse(t, w, &resp)
				assert.Equal(t, "Car a moved to (X:3, Y:4).", resp.Message)
			}
			if tt.body != nil && tt.wantDirection == nil {
				assert.False(t, called, "invalid directions never reach the service")
			}
		})
	}
}

func directionPtr(d engine.Direction) *engine.Direction {
	return &d
}

func TestAutoPlay(t *testing.T) {
	var gotTurns int
	mock := &MockRaceService{
		AutoPlayFunc: func(ctx context.Context, id string, maxTurns int) (*service.AutoPlayResult, error) {
			gotTurns = maxTurns
			return &service.AutoPlayResult{TurnsPlayed: 12, StopReason: service.StopFinished, Winner: 1, WinnerID: "a"}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := serve(t, server, "POST", "/api/sessions/ab12/autoplay", map[string]int{"max_turns": 50})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, gotTurns)

	var resp service.AutoPlayResult
	parseResponse(t, w, &resp)
	assert.Equal(t, service.StopFinished, resp.StopReason)
	assert.Equal(t, "a", resp.WinnerID)

	w = serve(t, server, "POST", "/api/sessions/ab12/autoplay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, gotTurns, "the service applies the default")

	w = serve(t, server, "POST", "/api/sessions/ab12/autoplay", map[string]int{"max_turns": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReset(t *testing.T) {
	mock := &MockRaceService{
		ResetFunc: func(ctx context.Context, id string) (*engine.RaceState, error) {
			return &engine.RaceState{Width: 12, Height: 9, Winner: engine.NoWinner}, nil
		},
	}

	w := serve(t, setupTestServer(t, mock), "POST", "/api/sessions/ab12/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message string            `json:"message"`
		State   *engine.RaceState `json:"state"`
	}
	parseResponse(t, w, &resp)
	assert.Equal(t, "Race reset successfully", resp.Message)
	assert.Equal(t, 12, resp.State.Width)
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"invalid values fall back", "?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mock := &MockRaceService{
				GetTurnHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Turns: []engine.TurnResult{}, Page: opts.Page, PageSize: opts.Limit}, nil
				},
			}

			w := serve(t, setupTestServer(t, mock), "GET", "/api/sessions/ab12/history"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanPath(t *testing.T) {
	tests := []struct {
		name           string
		index          string
		err            error
		expectedStatus int
	}{
		{"planned", "1", nil, http.StatusOK},
		{"not a number", "first", nil, http.StatusBadRequest},
		{"out of range", "7", engine.ErrCarIndexOutOfRange, http.StatusBadRequest},
		{"no route", "0", fmt.Errorf("car b: %w", strategy.ErrNoPath), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockRaceService{
				PlanPathFunc: func(ctx context.Context, id string, index int) (*service.PathResponse, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.PathResponse{
						SessionID: id,
						CarIndex:  index,
						CarID:     "a",
						Path:      []engine.Vector{{X: 2, Y: 4}, {X: 9, Y: 4}},
						RawLength: 8,
					}, nil
				},
			}

			w := serve(t, setupTestServer(t, mock), "GET", "/api/sessions/ab12/cars/"+tt.index+"/path", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp service.PathResponse
				parseResponse(t, w, &resp)
				assert.Equal(t, 1, resp.CarIndex)
				assert.Len(t, resp.Path, 2)
			}
		})
	}
}

func TestTracks(t *testing.T) {
	mock := &MockRaceService{
		ListTracksFunc: func(ctx context.Context) ([]*service.TrackInfo, error) {
			return []*service.TrackInfo{{Name: "oval"}, {Name: "sprint"}}, nil
		},
		GetTrackFunc: func(ctx context.Context, name string) (*service.TrackInfo, error) {
			if name != "oval" {
				return nil, fmt.Errorf("%w: %s", config.ErrTrackNotFound, name)
			}
			return &service.TrackInfo{Name: name, Rows: []string{"#####"}}, nil
		},
		SaveTrackFunc: func(ctx context.Context, name string, rows []string) (*service.TrackInfo, error) {
			if name == "../x" {
				return nil, config.ErrInvalidName
			}
			return &service.TrackInfo{Name: name, Rows: rows}, nil
		},
	}
	server := setupTestServer(t, mock)

	t.Run("list", func(t *testing.T) {
		w := serve(t, server, "GET", "/api/tracks", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Count  int                  `json:"count"`
			Tracks []*service.TrackInfo `json:"tracks"`
		}
		parseResponse(t, w, &resp)
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("get strips extension", func(t *testing.T) {
		w := serve(t, server, "GET", "/api/tracks/oval.txt", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("get unknown", func(t *testing.T) {
		w := serve(t, server, "GET", "/api/tracks/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("create", func(t *testing.T) {
		w := serve(t, server, "POST", "/api/tracks", map[string]interface{}{"name": "tiny", "rows": []string{"#####", "#a b#", "#####"}})
		require.Equal(t, http.StatusCreated, w.Code)
		var resp service.TrackInfo
		parseResponse(t, w, &resp)
		assert.Equal(t, "tiny", resp.Name)
	})

	t.Run("create without name", func(t *testing.T) {
		w := serve(t, server, "POST", "/api/tracks", map[string]interface{}{"rows": []string{"#"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create with invalid name", func(t *testing.T) {
		w := serve(t, server, "POST", "/api/tracks", map[string]interface{}{"name": "../x", "rows": []string{"#"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthAndWebSocketParams(t *testing.T) {
	server := setupTestServer(t, &MockRaceService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
	})

	w := serve(t, server, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = serve(t, server, "GET", "/ws", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, server, "GET", "/ws?session=ffff", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// A race over HTTP with the real catalog, session manager and service.
func TestRaceEndToEnd(t *testing.T) {
	tracksDir := t.TempDir()
	rows := "############\n" +
		"#b       > #\n" +
		"#        > #\n" +
		"#        > #\n" +
		"# a      > #\n" +
		"#        > #\n" +
		"#        > #\n" +
		"#        > #\n" +
		"############\n"
	require.NoError(t, os.WriteFile(filepath.Join(tracksDir, "open.txt"), []byte(rows), 0644))

	catalog, err := config.NewManager(tracksDir, t.TempDir(), t.TempDir())
	require.NoError(t, err)
	raceService := service.NewRaceService(session.NewManager(zerolog.Nop()), catalog, zerolog.Nop())
	server := setupTestServer(t, raceService)

	w := serve(t, server, "POST", "/api/sessions", map[string]interface{}{
		"track": "open",
		"strategies": map[string]interface{}{
			"a": map[string]string{"kind": "path-finder"},
			"b": map[string]string{"kind": "do-not-move"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created service.SessionInfo
	parseResponse(t, w, &created)
	require.NotEmpty(t, created.ID)

	w = serve(t, server, "GET", "/api/sessions/"+strings.ToUpper(created.ID)+"/cars/1/path", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var path service.PathResponse
	parseResponse(t, w, &path)
	assert.Equal(t, "a", path.CarID)
	assert.Len(t, path.Path, 2)

	w = serve(t, server, "POST", "/api/sessions/"+created.ID+"/turn", map[string]string{"direction": "UP"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "strategy cars take no direction")

	w = serve(t, server, "POST", "/api/sessions/"+created.ID+"/autoplay", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result service.AutoPlayResult
	parseResponse(t, w, &result)
	assert.Equal(t, service.StopFinished, result.StopReason)
	assert.Equal(t, 1, result.Winner)
	assert.Equal(t, "a", result.WinnerID)

	w = serve(t, server, "POST", "/api/sessions/"+created.ID+"/turn", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(t, server, "GET", "/api/sessions/"+created.ID+"/history?order=asc&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	assert.Equal(t, result.TurnsPlayed, history.TotalTurns)
	require.Len(t, history.Turns, 1)
	assert.Equal(t, 1, history.Turns[0].TurnNumber)

	w = serve(t, server, "POST", "/api/sessions/"+created.ID+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, server, "DELETE", "/api/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = serve(t, server, "GET", "/api/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
