package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/wricardo/racetrack/game/config"
	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/service"
	"github.com/wricardo/racetrack/game/strategy"
	"github.com/wricardo/racetrack/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.RaceService
	hub     *websocket.Hub
	router  *mux.Router
	logger  zerolog.Logger
}

// NewServer creates a new API server. hub may be nil when no spectators are
// served.
func NewServer(raceService service.RaceService, hub *websocket.Hub, logger zerolog.Logger) *Server {
	s := &Server{
		service: raceService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Tracks
	api.HandleFunc("/tracks", s.handleListTracks).Methods("GET")
	api.HandleFunc("/tracks", s.handleCreateTrack).Methods("POST")
	api.HandleFunc("/tracks/{name}", s.handleGetTrack).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Race operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetRaceState).Methods("GET")
	api.HandleFunc("/sessions/{id}/turn", s.handleTurn).Methods("POST")
	api.HandleFunc("/sessions/{id}/autoplay", s.handleAutoPlay).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/cars/{index}/path", s.handlePlanPath).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.Use(corsMiddleware)
}

// corsMiddleware lets browser spectators on other origins call the API
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to HTTP status codes
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, config.ErrTrackNotFound),
		errors.Is(err, config.ErrFileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrRaceFinished):
		status = http.StatusConflict
	case errors.Is(err, strategy.ErrNoPath):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrDirectionRequired),
		errors.Is(err, service.ErrDirectionNotAllowed),
		errors.Is(err, engine.ErrInvalidTrack),
		errors.Is(err, engine.ErrInvalidDirection),
		errors.Is(err, engine.ErrCarIndexOutOfRange),
		errors.Is(err, strategy.ErrUnknownKind),
		errors.Is(err, strategy.ErrInvalidMoveList),
		errors.Is(err, strategy.ErrInvalidPathFile),
		errors.Is(err, config.ErrInvalidName):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	respondError(w, status, err.Error())
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Track Handlers

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(tracks),
		"tracks": tracks,
	})
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".txt")

	track, err := s.service.GetTrack(r.Context(), name)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, track)
}

func (s *Server) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string   `json:"name"`
		Rows []string `json:"rows"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Track name is required")
		return
	}

	track, err := s.service.SaveTrack(r.Context(), req.Name, req.Rows)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, track)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if trackName := query.Get("track"); trackName != "" {
		filtered := make([]*service.SessionInfo, 0, len(sessions))
		for _, session := range sessions {
			if strings.EqualFold(session.TrackName, trackName) {
				filtered = append(filtered, session)
			}
		}
		sessions = filtered
	}
	total := len(sessions)

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else { // "accessed"
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj) // desc
	})

	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Race Operation Handlers

func (s *Server) handleGetRaceState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetRaceState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var direction *engine.Direction
	if req.Direction != "" {
		d, err := engine.ParseDirection(req.Direction)
		if err != nil {
			s.respondServiceError(w, err)
			return
		}
		direction = &d
	}

	result, err := s.service.Turn(r.Context(), mux.Vars(r)["id"], direction)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAutoPlay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MaxTurns int `json:"max_turns,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.MaxTurns < 0 {
		respondError(w, http.StatusBadRequest, "max_turns must not be negative")
		return
	}

	result, err := s.service.AutoPlay(r.Context(), mux.Vars(r)["id"], req.MaxTurns)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	// Spectators only hear about turns from the service
	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Race reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetTurnHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handlePlanPath(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Car index must be a number")
		return
	}

	path, err := s.service.PlanPath(r.Context(), vars["id"], index)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, path)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "spectating is disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
