package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Racetrack",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Racetrack - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Cars race on a grid track. Each turn the current car changes its velocity by
at most one in each axis and then moves by its velocity. The first car to
cross a finish line in its direction wins.

AVAILABLE TOOLS:
- list_tracks: List available tracks
- create_session: Start a race on a track with a strategy per car
- list_sessions / get_session: Inspect races
- race_state: Current grid, cars and winner
- turn: Play the current car's turn (user cars need a direction)
- autoplay: Let strategy driven cars play until a user car is up or the race ends
- reset_race: Restart the race
- turn_history: Past turns
- plan_path: Planned route of a car to the finish
- describe_cell: What occupies a cell of the track
- race_rules: Full rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_tracks",
		Description: "List the tracks races can be started on",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListTracks)

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a race on a catalog track. Cars without a strategy are driven by you with the turn tool.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"track": map[string]interface{}{
					"type":        "string",
					"description": "Name of the track",
				},
				"strategies": map[string]interface{}{
					"type":        "object",
					"description": `Strategy per car id, e.g. {"a": "path-finder", "b": "move-list:oval_b"}. Kinds: user, do-not-move, move-list:<file>, path-follower:<file>, path-finder`,
					"additionalProperties": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"track"},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active races",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific race session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Race operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_state",
		Description: "Get the current race state with the grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRaceState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn",
		Description: "Play the current car's turn. Give a direction only when the current car is user driven.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        directionNames(),
					"description": "Acceleration for a user driven car",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this acceleration (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "autoplay",
		Description: "Play strategy driven turns until the race ends, is a draw, a user car is up or max_turns were played",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"max_turns": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Turn limit (default %d, max %d)", service.DefaultAutoPlayTurns, service.MaxAutoPlayTurns),
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAutoPlay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_race",
		Description: "Restart the race from the starting grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the turn history of a race",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest (asc) or most recent (desc) first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTurnHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "plan_path",
		Description: "Plan the route of a car from its current position to the finish. The race is not changed.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"car_index": map[string]interface{}{
					"type":        "integer",
					"description": "Index of the car (row-major order on the track)",
				},
			},
			Required: []string{"session_id", "car_index"},
		},
	}, c.handlePlanPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get what occupies a specific cell of the track (wall, track, finish line and its direction, car)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column, 0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row, 0-based, grows downward)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_rules",
		Description: "Get the complete race rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRaceRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func directionNames() []string {
	dirs := engine.Directions()
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = d.String()
	}
	return names
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func intArgument(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// parseStrategy turns "move-list:file" into a strategy request
func parseStrategy(value string) service.StrategyRequest {
	kind, file, _ := strings.Cut(strings.TrimSpace(value), ":")
	req := service.StrategyRequest{Kind: kind}
	switch strings.ReplaceAll(strings.ToLower(kind), "_", "-") {
	case "move-list":
		req.MoveList = file
	case "path-follower":
		req.Path = file
	}
	return req
}

// Tool handlers

func (c *Client) handleListTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count  int                  `json:"count"`
		Tracks []*service.TrackInfo `json:"tracks"`
	}
	if err := c.apiCall(ctx, "GET", "/api/tracks", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Available Tracks (%d):\n\n", response.Count))
	for _, t := range response.Tracks {
		result.WriteString(fmt.Sprintf("• %s\n  Grid: %dx%d, Cars: %s, Finish cells: %d\n\n",
			t.Name, t.Width, t.Height, strings.Join(t.Cars, " "), t.FinishCells))
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	track, _ := args["track"].(string)

	body := service.CreateSessionRequest{Track: track}
	if raw, ok := args["strategies"].(map[string]interface{}); ok {
		body.Strategies = make(map[string]service.StrategyRequest, len(raw))
		for id, v := range raw {
			if s, ok := v.(string); ok {
				body.Strategies[id] = parseStrategy(s)
			}
		}
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Created race\n" + formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Active Races (%d):\n\n", response.Count))
	for _, s := range response.Sessions {
		status := "racing"
		if s.RaceState != nil && s.RaceState.Finished {
			status = "won by car " + s.RaceState.WinnerID
		}
		result.WriteString(fmt.Sprintf("- %s (Track: %s, %s, Created: %s)\n",
			s.ID, s.TrackName, status, s.CreatedAt.Format("15:04:05")))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleRaceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.RaceState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRaceState(&state)), nil
}

func (c *Client) handleTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/turn")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	body := map[string]interface{}{}
	if direction, _ := args["direction"].(string); direction != "" {
		body["direction"] = direction
	}

	var result service.TurnResponse
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTurnResponse(&result)), nil
}

func (c *Client) handleAutoPlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/autoplay")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{}
	if maxTurns, ok := intArgument(args, "max_turns"); ok {
		body["max_turns"] = maxTurns
	}

	var result service.AutoPlayResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAutoPlayResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.RaceState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatRaceState(response.State))), nil
}

func (c *Client) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page, ok := intArgument(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArgument(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handlePlanPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	index, ok := intArgument(args, "car_index")
	if !ok {
		return mcp.NewToolResultError("car_index is required"), nil
	}
	path, err := sessionPath(args, fmt.Sprintf("/cars/%d/path", index))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var plan service.PathResponse
	if err := c.apiCall(ctx, "GET", path, nil, &plan); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPath(&plan)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, okX := intArgument(args, "x")
	y, okY := intArgument(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required"), nil
	}

	var state engine.RaceState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if y < 0 || y >= len(state.Grid) || x < 0 || x >= len(state.Grid[y]) {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are outside the %dx%d track",
			x, y, state.Width, state.Height)), nil
	}

	return mcp.NewToolResultText(describeCell(&state, x, y)), nil
}

func (c *Client) handleRaceRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(raceRules), nil
}

const raceRules = `Racetrack - Complete Rules

OBJECTIVE:
Be the first car to cross a finish line in the direction it points.

TRACK LEGEND:
• # - Wall (crashing into it ends your race)
• space - Track
• ^ v < > - Finish line, crossed upward, downward, leftward or rightward
• a, b, ... - Cars, numbered in row-major order starting at index 0
• X - A crashed car

COORDINATES:
x grows to the right, y grows downward. (X:0, Y:0) is the top-left cell.

TURNS:
• Cars play in turn order; crashed cars are skipped
• On its turn a car picks one of nine accelerations:
  UP_LEFT    UP    UP_RIGHT
  LEFT       NONE  RIGHT
  DOWN_LEFT  DOWN  DOWN_RIGHT
• The acceleration is added to the velocity, then the car moves by its velocity
• Every cell on the straight line from the old to the new position is checked

CRASHES:
• Passing through a wall or another car crashes the car where it stands
• Leaving the track crashes the car
• When only one car is left standing it wins

FINISH LINES:
• Crossing a finish line in its direction wins the race
• Crossing it the wrong way penalizes the car; it must cross back to clear the penalty
• Moving along the line sideways does neither

STRATEGIES:
• user - you choose the acceleration with the turn tool
• do-not-move - never accelerates
• move-list - replays a list of accelerations from a file
• path-follower - steers through waypoints from a file
• path-finder - plans its own route to the finish and follows it
A race where every remaining car is do-not-move is a draw.

TIPS:
• plan_path shows the route the path finder would take from any car
• Speed is hard to lose: brake early before corners
• autoplay runs every strategy car until it is your turn`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Session: %s\nTrack: %s\nCreated: %s\n",
		session.ID, session.TrackName, session.CreatedAt.Format("2006-01-02 15:04:05")))
	for i, d := range session.Drivers {
		result.WriteString(fmt.Sprintf("Car %d: %s\n", i, d.Kind))
	}
	result.WriteString("\n")
	result.WriteString(formatRaceState(session.RaceState))
	return result.String()
}

func formatRaceState(state *engine.RaceState) string {
	if state == nil {
		return "No race state available"
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Turns played: %d | Track: %dx%d\n", state.TotalTurns, state.Width, state.Height))
	if state.Finished {
		result.WriteString(fmt.Sprintf("🏁 Car %s (index %d) won the race!\n", state.WinnerID, state.Winner))
	} else if state.CurrentCar >= 0 && state.CurrentCar < len(state.Cars) {
		current := state.Cars[state.CurrentCar]
		result.WriteString(fmt.Sprintf("Current car: %s (index %d, %s)\n", current.ID, current.Index, current.Strategy))
	}
	result.WriteString("\n")

	for _, row := range state.Grid {
		result.WriteString(row + "\n")
	}
	result.WriteString("\nCars:\n")
	for _, car := range state.Cars {
		result.WriteString(fmt.Sprintf("  %d %s at %s velocity %s %s", car.Index, car.ID, car.Position, car.Velocity, car.Status))
		if car.Strategy != "" {
			result.WriteString(" [" + car.Strategy + "]")
		}
		result.WriteString("\n")
	}
	return result.String()
}

func formatTurn(turn engine.TurnResult) string {
	return fmt.Sprintf("#%d car %s %s %s -> %s velocity %s: %s",
		turn.TurnNumber, turn.CarID, turn.Acceleration, turn.From, turn.To, turn.Velocity, turn.Outcome)
}

func formatTurnResponse(resp *service.TurnResponse) string {
	var result strings.Builder
	result.WriteString(resp.Message + "\n")
	result.WriteString(formatTurn(resp.Turn) + "\n")
	if resp.Draw {
		result.WriteString("🤝 The race is a draw: no remaining car will move.\n")
	}
	if resp.Statistics != "" {
		result.WriteString(resp.Statistics + "\n")
	}
	result.WriteString("\n")
	result.WriteString(formatRaceState(resp.State))
	return result.String()
}

func formatAutoPlayResult(res *service.AutoPlayResult) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Played %d turns, stopped: %s\n", res.TurnsPlayed, res.StopReason))
	for _, turn := range res.Turns {
		result.WriteString("  " + formatTurn(turn) + "\n")
	}
	switch {
	case res.WinnerID != "":
		result.WriteString(fmt.Sprintf("🏁 Car %s wins.\n", res.WinnerID))
	case res.Draw:
		result.WriteString("🤝 The race is a draw.\n")
	case res.StopReason == service.StopUserTurn:
		result.WriteString("It is a user car's turn: call turn with a direction.\n")
	}
	if res.Statistics != "" {
		result.WriteString(res.Statistics + "\n")
	}
	result.WriteString("\n")
	result.WriteString(formatRaceState(res.State))
	return result.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Turn History (Page %d/%d, Total: %d turns)\n\n",
		history.Page, history.TotalPages, history.TotalTurns))
	for _, turn := range history.Turns {
		result.WriteString(formatTurn(turn) + "\n")
	}
	if history.HasNext {
		result.WriteString("\nMore turns on the next page.\n")
	}
	return result.String()
}

func formatPath(plan *service.PathResponse) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Planned route of car %s (index %d) from %s, %d cells before smoothing:\n",
		plan.CarID, plan.CarIndex, plan.Start, plan.RawLength))
	for _, p := range plan.Path {
		result.WriteString(p.String() + "\n")
	}
	return result.String()
}

func describeCell(state *engine.RaceState, x, y int) string {
	char := state.Grid[y][x]
	var description string
	switch char {
	case '#':
		description = "Wall - impassable, entering it crashes the car"
	case ' ':
		description = "Track - free to drive"
	case '^':
		description = "Finish line crossed upward (y decreasing)"
	case 'v':
		description = "Finish line crossed downward (y increasing)"
	case '<':
		description = "Finish line crossed leftward (x decreasing)"
	case '>':
		description = "Finish line crossed rightward (x increasing)"
	case 'X':
		description = "A crashed car - impassable"
	default:
		description = fmt.Sprintf("Car %c", char)
		for _, car := range state.Cars {
			if car.ID == string(char) {
				description = fmt.Sprintf("Car %s (index %d, %s) with velocity %s", car.ID, car.Index, car.Status, car.Velocity)
			}
		}
	}
	return fmt.Sprintf("Cell (X:%d, Y:%d): '%c'\n%s", x, y, char, description)
}
