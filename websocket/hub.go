package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"opsecho/models"
	"opsecho/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

// envelope carries an encoded message together with its topic
type envelope struct {
	topic   string
	payload []byte
}

// Client represents a websocket client connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	subscribed map[string]bool // Topics the client is subscribed to
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub accepting connections from allowedOrigins.
// An empty list or "*" accepts any origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		logger:     logger,
		broadcast:  make(chan envelope, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:     originChecker(allowedOrigins),
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// Run starts the hub and stops it when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			h.logger.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("client registered", zap.String("client_id", client.id), zap.Int("total_clients", total))

			// Send welcome message
			welcome := models.WebSocketMessage{
				Type:      "connection",
				Data:      map[string]string{"status": "connected", "client_id": client.id},
				Timestamp: time.Now(),
			}
			if msg, err := json.Marshal(welcome); err == nil {
				h.deliver(client, msg)
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("client unregistered", zap.String("client_id", client.id), zap.Int("total_clients", len(h.clients)))
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				if client.wants(message.topic) {
					targets = append(targets, client)
				}
			}
			h.mutex.RUnlock()
			for _, client := range targets {
				h.deliver(client, message.payload)
			}
		}
	}
}

// deliver queues msg for client, dropping the client when its buffer is full
func (h *Hub) deliver(client *Client, msg []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- msg:
	default:
		close(client.send)
		delete(h.clients, client)
		h.logger.Warn("client too slow, disconnecting", zap.String("client_id", client.id))
	}
}

// Broadcast sends a typed message to every client subscribed to messageType
func (h *Hub) Broadcast(messageType string, data interface{}) {
	message := models.WebSocketMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now(),
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to encode websocket message", zap.String("type", messageType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- envelope{topic: messageType, payload: msgBytes}:
	default:
		h.logger.Warn("broadcast channel full, dropping message", zap.String("type", messageType))
	}
}

// BroadcastAlert broadcasts an alert to all connected clients
func (h *Hub) BroadcastAlert(alert *models.Alert) {
	h.Broadcast(models.MessageSystemAlert, alert)
}

// stateChange is the summary pushed after every store update
type stateChange struct {
	Action     string     `json:"action"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
}

// ForwardChanges relays store changes to clients until ctx is cancelled.
// Entity updates are sent with their payload, everything else as a state_changed summary.
// Telemetry updates are skipped because the ingestor broadcasts them itself.
func (h *Hub) ForwardChanges(ctx context.Context, changes <-chan store.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			h.forward(change)
		}
	}
}

func (h *Hub) forward(change store.Change) {
	switch a := change.Action.(type) {
	case store.UpdateTelemetryChannel:
		return
	case store.AddIncident:
		h.Broadcast(models.MessageIncidentUpdate, a.Incident)
	case store.UpdateIncident:
		h.Broadcast(models.MessageIncidentUpdate, a.Incident)
	case store.TransitionIncident:
		for _, incident := range change.State.Incidents {
			if incident.ID == a.ID {
				h.Broadcast(models.MessageIncidentUpdate, incident)
				return
			}
		}
	case store.UpdateHuman:
		h.Broadcast(models.MessageHumanLocation, a.Human)
	case store.UpdateMachine:
		h.Broadcast(models.MessageMachineStatus, a.Machine)
	case store.AddChatMessage:
		h.Broadcast(models.MessageChatMessage, a.Message)
	default:
		h.Broadcast(models.MessageStateChanged, stateChange{
			Action:     change.Action.Type(),
			LastUpdate: change.State.LastUpdate,
		})
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connections
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		id:         uuid.NewString(),
		subscribed: make(map[string]bool),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start goroutines for this client
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			break
		}

		// Handle client messages (subscriptions, etc.)
		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn("websocket write error", zap.String("client_id", c.id), zap.Error(err))
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

// handleMessage processes messages received from the client
func (c *Client) handleMessage(message []byte) {
	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.logger.Debug("failed to unmarshal client message", zap.String("client_id", c.id), zap.Error(err))
		return
	}

	switch msg.Type {
	case "subscribe", "unsubscribe":
		var topics struct {
			Topics []string `json:"topics"`
		}
		if err := json.Unmarshal(msg.Data, &topics); err != nil {
			return
		}
		if msg.Type == "subscribe" {
			c.subscribe(topics.Topics)
		} else {
			c.unsubscribe(topics.Topics)
		}

	case "ping":
		pong := models.WebSocketMessage{
			Type:      "pong",
			Data:      map[string]string{"client_id": c.id},
			Timestamp: time.Now(),
		}
		if pongBytes, err := json.Marshal(pong); err == nil {
			c.hub.deliver(c, pongBytes)
		}

	default:
		c.hub.logger.Debug("unknown client message type", zap.String("client_id", c.id), zap.String("type", msg.Type))
	}
}

// subscribe adds topics to client subscription
func (c *Client) subscribe(topics []string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, topic := range topics {
		c.subscribed[topic] = true
	}
	c.hub.logger.Debug("client subscribed", zap.String("client_id", c.id), zap.Strings("topics", topics))
}

// unsubscribe removes topics from client subscription
func (c *Client) unsubscribe(topics []string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, topic := range topics {
		delete(c.subscribed, topic)
	}
	c.hub.logger.Debug("client unsubscribed", zap.String("client_id", c.id), zap.Strings("topics", topics))
}

// wants reports whether the client should receive messages of topic.
// A client without subscriptions receives everything.
func (c *Client) wants(topic string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.subscribed) == 0 || c.subscribed[topic]
}
