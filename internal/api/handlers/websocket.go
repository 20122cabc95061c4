package handlers

import (
	"log/slog"

	"chat-realtime/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	server SocketServer
	logger *slog.Logger
}

func NewWSHandler(server SocketServer, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{server: server, logger: logger}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Establish a WebSocket connection for realtime events. The token may be passed as a query parameter since browsers cannot set headers on the handshake.
// @Tags websocket
// @Param token query string false "JWT access token"
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Failure 401 {object} models.ErrorResponse "Missing or invalid token"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	userID := middleware.GetUserID(c)
	h.logger.Debug("WebSocket connection request", "userID", userID, "remoteAddr", c.Request.RemoteAddr)
	h.server.ServeWS(c.Writer, c.Request, userID)
}
