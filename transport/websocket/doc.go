// Package websocket streams race updates to spectators.
//
// A central Hub owns every connection. Each client gets a read and a write
// goroutine; registration, removal and fan-out happen on the Run goroutine so
// the session map is never shared.
//
// Clients subscribe to one session with GET /ws?session=<id>. They receive a
// JSON message per event:
//
//	{"session_id": "ab12", "event": "turn", "turn": {...}, "state": {...}}
//
// Events are "turn" after every played turn and "state_update" when a race is
// reset. Input from clients is read only to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	raceService.OnTurn(hub.OnTurn)
//
// Broadcasting never blocks the caller: when the hub falls behind, messages
// are dropped and logged.
package websocket
