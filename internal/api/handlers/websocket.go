package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/websocket"
)

// WebSocketHandler upgrades authenticated connections into the hub.
type WebSocketHandler struct {
	hub    *websocket.Hub
	router websocket.Router
	logger *zap.Logger
}

func NewWebSocketHandler(hub *websocket.Hub, router websocket.Router, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		router: router,
		logger: logger,
	}
}

// HandleWebSocket is the websocket upgrade endpoint.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	playerID, exists := c.Get("playerId")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	username, _ := c.Get("username")

	websocket.ServeWs(h.hub, h.router, c.Writer, c.Request,
		playerID.(string), username.(string), h.logger)
}
