// Package service provides the business logic layer for racetrack.
//
// The service package implements:
//   - Multi-session race management
//   - Strategy resolution for every car of a race
//   - Turn processing, autoplay and path planning
//   - Turn history tracking
//
// Core Interfaces:
//
// RaceService is the main service interface providing high-level race operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// TrackCatalog loads tracks, move lists and path files by name.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the race engine. Each session owns its own engine instance and a mutex that
// serialises its turns, so independent races run concurrently.
//
// Usage:
//
//	sessionMgr := session.NewManager(session.NewMemoryPersistence(), logger)
//	catalog := config.NewManager("tracks", "moves", "paths")
//	raceService := service.NewRaceService(sessionMgr, catalog, logger)
//
//	info, err := raceService.CreateSession(ctx, service.CreateSessionRequest{
//		Track:      "oval",
//		Strategies: map[string]service.StrategyRequest{"b": {Kind: "path-finder"}},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	dir := engine.UpRight
//	resp, err := raceService.Turn(ctx, info.ID, &dir)
//
// Metrics:
//
// Turns, crashes, wins and planned path lengths are recorded with the global
// OpenTelemetry meter provider.
package service
