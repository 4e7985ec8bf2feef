// Package websocket streams live check results to the dashboard.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"dealerwatch/internal/logging"
	"dealerwatch/internal/models"
)

// Message is the wire envelope for every hub message.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client is one connected dashboard session.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	send chan []byte
}

// Hub maintains connected clients and fans out check results as they land.
type Hub struct {
	clients        map[*Client]bool
	broadcast      chan []byte
	register       chan *Client
	unregister     chan *Client
	mu             sync.RWMutex
	jwtSecret      string
	allowedOrigins []string
	log            *zap.SugaredLogger
}

// NewHub creates the hub; Run must be started in its own goroutine.
func NewHub(jwtSecret string, allowedOrigins []string) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		broadcast:      make(chan []byte, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		jwtSecret:      jwtSecret,
		allowedOrigins: allowedOrigins,
		log:            logging.Named("websocket"),
	}
}

// Run services registration and broadcast until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Infow("client connected", "client", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Infow("client disconnected", "client", client.id)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than stall the fleet.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishResult pushes a freshly saved check result to every dashboard.
func (h *Hub) PublishResult(result *models.CheckResult) {
	h.Broadcast("result", result)
}

// Broadcast sends a typed message to all connected clients.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		h.log.Errorw("broadcast payload encode failed", "type", msgType, "error", err)
		return
	}
	msgJSON, err := json.Marshal(Message{Type: msgType, Payload: payloadJSON})
	if err != nil {
		h.log.Errorw("broadcast envelope encode failed", "type", msgType, "error", err)
		return
	}

	select {
	case h.broadcast <- msgJSON:
	default:
		h.log.Warnw("broadcast queue full, dropping message", "type", msgType)
	}
}

// HandleWebSocket upgrades an authenticated request to a hub session. The
// token rides the query string because browsers cannot set headers on
// WebSocket upgrades.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	username := h.authenticate(token)
	if username == "" {
		h.log.Warnw("connection rejected: no valid authentication", "remote", r.RemoteAddr)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	origins := h.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		h.log.Warnw("upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   "user:" + username,
		conn: conn,
		hub:  h,
		send: make(chan []byte, 256),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// authenticate returns the token's subject, or "" when the token is missing,
// forged, or expired. Only HS256 is accepted.
func (h *Hub) authenticate(token string) string {
	if token == "" {
		return ""
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		if t.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing algorithm: %v", t.Method.Alg())
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return ""
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()
	for {
		_, raw, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != websocket.StatusNoStatusRcvd {
				c.hub.log.Warnw("unexpected read error", "client", c.id, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.log.Warnw("unparseable client message", "client", c.id, "error", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ctx := context.Background()
	for message := range c.send {
		if err := c.conn.Write(ctx, websocket.MessageText, message); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != websocket.StatusNoStatusRcvd {
				c.hub.log.Warnw("unexpected write error", "client", c.id, "error", err)
			}
			return
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		response, _ := json.Marshal(Message{Type: "pong", Payload: json.RawMessage(`{}`)})
		c.send <- response
	default:
		c.hub.log.Debugw("ignoring unknown message type", "client", c.id, "type", msg.Type)
	}
}
