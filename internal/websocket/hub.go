package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// HubConfig tunes the per-connection pumps.
type HubConfig struct {
	// Capacity of each client's outbound queue
	SendBufferSize int
	// Maximum inbound frame size allowed from peer
	MaxMessageSize int64
	// Time allowed to write a message to the peer
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer
	PongWait time.Duration
	// Deadline for relaying one inbound frame
	HandlerTimeout time.Duration
	// Extra origins accepted by the upgrader
	AllowedOrigins []string
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBufferSize: 256,
		MaxMessageSize: 4096,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		HandlerTimeout: 5 * time.Second,
	}
}

// Send pings to peer with this period. Must be less than PongWait.
func (c HubConfig) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

func (c HubConfig) withDefaults() HubConfig {
	d := DefaultHubConfig()
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = d.SendBufferSize
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = d.HandlerTimeout
	}
	return c
}

// Hub owns the lifecycle of websocket clients. Connects and disconnects are
// serialized through a single goroutine so presence transitions are applied
// in the order they happened.
type Hub struct {
	presence *Presence
	typing   *Typing
	upgrader *websocket.Upgrader
	cfg      HubConfig

	// Registered clients, owned by Run
	clients map[*Client]struct{}

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	logger *slog.Logger
}

func NewHub(presence *Presence, typing *Typing, logger *slog.Logger, cfg HubConfig) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		presence:   presence,
		typing:     typing,
		upgrader:   NewUpgrader(cfg.AllowedOrigins),
		cfg:        cfg,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub shutting down", "clients", len(h.clients))
			for client := range h.clients {
				client.close()
			}
			return
		}
	}
}

// Stop closes every client and waits for Run to return.
func (h *Hub) Stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		h.logger.Warn("Timeout waiting for hub to stop")
	}
}

func (h *Hub) registerClient(client *Client) {
	if err := h.presence.Connect(client.userID, client); err != nil {
		h.logger.Error("Failed to register client", "clientID", client.id, "userID", client.userID, "error", err)
		client.close()
		return
	}
	h.clients[client] = struct{}{}

	h.logger.Info("Client registered", "clientID", client.id, "userID", client.userID)
}

func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.presence.Disconnect(client.userID, client.id)

	h.logger.Info("Client unregistered", "clientID", client.id, "userID", client.userID)
}

// ServeWS upgrades the request and attaches the connection to userID, which
// the caller has already authenticated.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", "userID", userID, "error", err)
		return
	}

	client := NewClient(h, conn, userID)
	h.logger.Debug("New WebSocket connection established", "clientID", client.id, "userID", client.userID)

	// Send register request to hub with timeout
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		conn.Close()
		return
	case <-time.After(5 * time.Second):
		h.logger.Error("Timeout sending registration request", "clientID", client.id, "userID", client.userID)
		conn.Close()
		return
	}

	client.wg.Add(2)
	go client.writePump()
	go client.readPump()
}
