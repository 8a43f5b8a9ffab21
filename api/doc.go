// Package api provides the HTTP REST API of the racetrack server.
//
// Endpoints:
//
// Tracks:
//   - GET  /api/tracks - List catalog tracks
//   - POST /api/tracks - Store a track: {"name": "oval", "rows": ["#####", ...]}
//   - GET  /api/tracks/{name} - Describe a track including its rows
//
// Sessions:
//   - POST   /api/sessions - Create a race
//   - GET    /api/sessions - List races (?sort=created|accessed&order=asc|desc&limit=N&track=name)
//   - GET    /api/sessions/{id} - Get a race
//   - DELETE /api/sessions/{id} - Delete a race
//
// Racing:
//   - GET  /api/sessions/{id}/state - Current race state
//   - POST /api/sessions/{id}/turn - Play the current car's turn
//   - POST /api/sessions/{id}/autoplay - Play strategy driven turns
//   - POST /api/sessions/{id}/reset - Restart the race
//   - GET  /api/sessions/{id}/history - Turn history (?page=1&limit=20&order=desc)
//   - GET  /api/sessions/{id}/cars/{index}/path - Plan a car's route
//
// Other:
//   - GET /ws?session={id} - Spectate a race over WebSocket
//   - GET /health
//
// A race is created from a catalog track or an inline layout. Cars without a
// strategy are user driven:
//
//	{
//	  "track": "oval",
//	  "strategies": {
//	    "a": {"kind": "path-finder"},
//	    "b": {"kind": "move-list", "move_list": "oval_b"},
//	    "c": {"kind": "path-follower", "waypoints": [{"x": 5, "y": 2}]}
//	  }
//	}
//
// Turns of user cars carry the acceleration, turns of other cars must not:
//
//	{"direction": "UP_RIGHT"}
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status code: 404 for unknown
// sessions or tracks, 400 for invalid input, 409 for turns on a finished race
// and 422 when no route to the finish exists.
//
//	{"error": "error message"}
package api
