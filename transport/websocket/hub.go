package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wricardo/racetrack/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Messages queued for the hub before broadcasts are dropped.
	broadcastBuffer = 256
)

// Events sent to spectators.
const (
	EventTurn  = "turn"
	EventState = "state_update"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is what spectators of a race receive
type Message struct {
	SessionID string             `json:"session_id"`
	Event     string             `json:"event"`
	Turn      *engine.TurnResult `json:"turn,omitempty"`
	State     *engine.RaceState  `json:"state,omitempty"`
	Data      interface{}        `json:"data,omitempty"`
}

// Client is a single spectator connection
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the spectators of every session and fans race updates out to
// them. All bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients by lowercase session ID
	sessions map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger zerolog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's event loop and returns when ctx is done, closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			close(h.done)
			for _, clients := range h.sessions {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to a session
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: strings.ToLower(sessionID),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// OnTurn broadcasts a played turn with the state it produced. Its signature
// matches service.TurnListener.
func (h *Hub) OnTurn(sessionID string, turn engine.TurnResult, state *engine.RaceState) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     EventTurn,
		Turn:      &turn,
		State:     state,
	})
}

// BroadcastToSession sends the current race state to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, state *engine.RaceState) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     EventState,
		State:     state,
	})
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

// enqueue never blocks the caller; a full queue drops the message.
func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Str("session", message.SessionID).Str("event", message.Event).Msg("broadcast queue full, message dropped")
	}
}

func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	h.logger.Debug().Str("session", client.sessionID).Int("clients", len(h.sessions[client.sessionID])).Msg("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	h.logger.Debug().Str("session", client.sessionID).Int("clients", len(clients)).Msg("client unregistered")
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.sessions[strings.ToLower(message.SessionID)]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow client
			h.unregisterClient(client)
		}
	}
}

// readPump discards client input and keeps the read deadline fresh
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("session", c.sessionID).Msg("websocket closed")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per message; spectators parse each frame as JSON
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
