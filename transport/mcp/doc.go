// Package mcp exposes races to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool calls the REST API and renders the
// response as text. Tools:
//   - list_tracks: tracks of the catalog
//   - create_session: start a race, strategies given as "kind[:file]" per car
//   - list_sessions, get_session: inspect races
//   - race_state: grid, cars and winner
//   - turn: play the current car's turn
//   - autoplay: run strategy driven cars until a user car is up
//   - reset_race: restart a race
//   - turn_history: paginated past turns
//   - plan_path: the path finder's route for a car
//   - describe_cell: what occupies one cell
//   - race_rules: the complete rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
