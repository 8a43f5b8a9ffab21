package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wricardo/racetrack/game/engine"
	"github.com/wricardo/racetrack/game/service"
)

// Client talks to the racetrack REST API for a single session.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do sends body as JSON and decodes the response into result
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// GetTrack describes a catalog track
func (c *Client) GetTrack(ctx context.Context, name string) (*service.TrackInfo, error) {
	var track service.TrackInfo
	if err := c.do(ctx, http.MethodGet, "/api/tracks/"+name, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// CreateSession starts a race; the car ids missing from strategies are user driven
func (c *Client) CreateSession(ctx context.Context, track string, strategies map[string]service.StrategyRequest) (*engine.RaceState, error) {
	var session service.SessionInfo
	req := service.CreateSessionRequest{Track: track, Strategies: strategies}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return session.RaceState, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.RaceState, error) {
	var state engine.RaceState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Turn plays the current car, which must be user driven, with d
func (c *Client) Turn(ctx context.Context, d engine.Direction) (*service.TurnResponse, error) {
	var resp service.TurnResponse
	req := map[string]string{"direction": d.String()}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/turn"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AutoPlay lets the server drive strategy cars until a user car is up
func (c *Client) AutoPlay(ctx context.Context, maxTurns int) (*service.AutoPlayResult, error) {
	var result service.AutoPlayResult
	req := map[string]int{"max_turns": maxTurns}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/autoplay"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type ResetResponse struct {
	Message string            `json:"message"`
	State   *engine.RaceState `json:"state"`
}

func (c *Client) Reset(ctx context.Context) (*engine.RaceState, error) {
	var resp ResetResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// PlanPath asks the server for the smoothed route of car index
func (c *Client) PlanPath(ctx context.Context, index int) (*service.PathResponse, error) {
	var path service.PathResponse
	if err := c.do(ctx, http.MethodGet, c.sessionPath(fmt.Sprintf("/cars/%d/path", index)), nil, &path); err != nil {
		return nil, err
	}
	return &path, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}
