package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/ws"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Router dispatches validated inbound events.
type Router interface {
	HandleEvent(client *Client, event *ws.ClientEvent)
}

// Client is one authenticated websocket connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan *ws.ServerEvent
	playerID string
	username string
	router   Router
	replaced bool
	logger   *zap.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, playerID, username string, router Router, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan *ws.ServerEvent, 256),
		playerID: playerID,
		username: username,
		router:   router,
		logger:   logger,
	}
}

// PlayerID returns the authenticated identity behind the connection.
func (c *Client) PlayerID() string {
	return c.playerID
}

// Username returns the display name carried by the token.
func (c *Client) Username() string {
	return c.username
}

// Send queues an event for this connection only.
func (c *Client) Send(event *ws.ServerEvent) {
	c.hub.SendToPlayer(c.playerID, event)
}

// readPump reads, validates, and dispatches inbound frames. Malformed or
// unknown frames earn an error frame back; they never reach a room.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error",
					zap.String("playerId", c.playerID),
					zap.Error(err))
			}
			break
		}

		event, err := ws.DecodeClientEvent(data)
		if err != nil {
			c.Send(ws.NewErrorEvent("invalid_event", err.Error()))
			continue
		}

		c.router.HandleEvent(c, event)
	}
}

// writePump drains the send channel to the peer and keeps the ping/pong
// heartbeat alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				c.logger.Error("Failed to marshal event",
					zap.String("playerId", c.playerID),
					zap.Error(err))
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("Failed to write event",
					zap.String("playerId", c.playerID),
					zap.Error(err))
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

// ServeWs upgrades the connection and starts the client pumps.
func ServeWs(hub *Hub, router Router, w http.ResponseWriter, r *http.Request, playerID, username string, logger *zap.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := NewClient(hub, conn, playerID, username, router, logger)
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
