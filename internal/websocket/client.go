package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrClientDisconnected = errors.New("client disconnected")
	ErrSendBufferFull     = errors.New("send buffer full")
)

// Client is one websocket connection bound to an authenticated user.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn

	// Outbound frames in push order. Never closed; writePump stops on ctx.
	send chan []byte

	// Connection state management
	ctx    context.Context
	cancel context.CancelFunc
	closed int32

	wg sync.WaitGroup
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)

	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.cfg.SendBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() string {
	return c.userID
}

// Send queues one frame without blocking. A client that cannot keep up is
// closed and reported as gone.
func (c *Client) Send(data []byte) error {
	if c.isClosed() {
		return ErrClientDisconnected
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientDisconnected
	default:
		c.hub.logger.Warn("Send buffer full, closing client", "clientID", c.id, "userID", c.userID)
		c.close()
		return ErrSendBufferFull
	}
}

// isClosed returns true if the client is closed
func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// close marks the client as closed, stops writePump and unblocks readPump.
func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
		c.conn.Close()
		c.hub.logger.Debug("Client marked as closed", "clientID", c.id, "userID", c.userID)
	}
}

func (c *Client) readPump() {
	defer c.wg.Done()
	defer func() {
		c.close()

		select {
		case c.hub.unregister <- c:
			c.hub.logger.Debug("Client unregister request sent", "clientID", c.id, "userID", c.userID)
		case <-c.hub.ctx.Done():
		case <-time.After(5 * time.Second):
			c.hub.logger.Warn("Timeout sending unregister request", "clientID", c.id, "userID", c.userID)
		}
	}()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && !c.isClosed() {
				c.hub.logger.Error("WebSocket error", "clientID", c.id, "userID", c.userID, "error", err)
			} else {
				c.hub.logger.Debug("WebSocket connection closed", "clientID", c.id, "userID", c.userID, "error", err)
			}
			return
		}

		c.handleFrame(data)
	}
}

// handleFrame runs on the read goroutine so a client's frames are relayed in
// the order they were read.
func (c *Client) handleFrame(data []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.hub.logger.Debug("Failed to unmarshal frame", "clientID", c.id, "userID", c.userID, "error", err)
		c.sendError("INVALID_MESSAGE", "Invalid message format")
		return
	}
	if !frame.Event.IsInbound() {
		c.sendError("UNSUPPORTED_EVENT", "Unsupported event: "+frame.Event.String())
		return
	}

	switch frame.Event {
	case EventJoinRoom:
		return
	case EventTyping, EventStopTyping:
		var req TypingRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			c.sendError("INVALID_MESSAGE", "Invalid typing payload")
			return
		}

		// The actor is always the authenticated user; only display fields
		// come from the client.
		actor := UserSummary{ID: c.userID}
		if req.User != nil {
			actor = *req.User
			actor.ID = c.userID
		}

		ctx, cancel := context.WithTimeout(c.ctx, c.hub.cfg.HandlerTimeout)
		defer cancel()

		var err error
		if frame.Event == EventTyping {
			err = c.hub.typing.StartTyping(ctx, req.ConversationID, actor)
		} else {
			err = c.hub.typing.StopTyping(ctx, req.ConversationID, actor)
		}
		switch {
		case errors.Is(err, ErrInvalidTypingEvent):
			c.sendError("INVALID_TYPING", err.Error())
		case err != nil:
			c.hub.logger.Error("Failed to relay typing", "event", frame.Event, "conversationID", req.ConversationID, "userID", c.userID, "error", err)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		c.wg.Done()
		c.hub.logger.Debug("WritePump finished", "clientID", c.id, "userID", c.userID)
	}()

	writeWait := c.hub.cfg.WriteWait
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("Error writing message", "clientID", c.id, "userID", c.userID, "error", err)
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.logger.Debug("Error sending ping", "clientID", c.id, "userID", c.userID, "error", err)
				c.close()
				return
			}

		case <-c.ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Client) sendError(code, message string) {
	data, err := NewEvent(EventError, ErrorData{Code: code, Message: message}).Encode()
	if err != nil {
		return
	}
	c.Send(data)
}
