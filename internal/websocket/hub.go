package websocket

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/ws"
)

// Hub tracks one connection per identity and the room membership used
// for fan-out. It satisfies the game package's Broadcaster.
type Hub struct {
	// identity -> connection; a new connection replaces the old one
	clients map[string]*Client
	// roomID -> member identities (players and spectators)
	rooms map[string]map[string]bool
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// onDisconnect fires after a connection is gone for good (not
	// replaced). The server wires it to queue removal and the room
	// grace-timer path.
	onDisconnect func(playerID string)

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// OnDisconnect sets the handler invoked when an identity's connection
// drops without replacement. Must be called before Run.
func (h *Hub) OnDisconnect(fn func(playerID string)) {
	h.onDisconnect = fn
}

// Run processes connection registration. Fan-out does not pass through
// here; senders push directly into per-client channels so room events
// keep their order.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if old, exists := h.clients[client.playerID]; exists {
		old.replaced = true
		close(old.send)
		h.logger.Info("Replaced existing connection",
			zap.String("playerId", client.playerID))
	}
	h.clients[client.playerID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Client registered",
		zap.String("playerId", client.playerID),
		zap.Int("totalClients", total))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	current, exists := h.clients[client.playerID]
	if !exists || current != client {
		// Already replaced by a newer connection.
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.playerID)
	if !client.replaced {
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Client unregistered",
		zap.String("playerId", client.playerID),
		zap.Int("totalClients", total))

	if h.onDisconnect != nil {
		h.onDisconnect(client.playerID)
	}
}

// AddToRoom subscribes an identity to a room's events.
func (h *Hub) AddToRoom(roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]bool)
		h.rooms[roomID] = members
	}
	members[playerID] = true
}

// RemoveFromRoom unsubscribes an identity from a room.
func (h *Hub) RemoveFromRoom(roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[roomID]; ok {
		delete(members, playerID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// CloseRoom drops the whole membership set.
func (h *Hub) CloseRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// BroadcastToRoom delivers an event to every member of a room. Calls for
// one room are serialized by the room's own lock, so each member's
// channel sees room events in emission order.
func (h *Hub) BroadcastToRoom(roomID string, event *ws.ServerEvent) {
	// Sends stay under the read lock: a send channel is only closed
	// under the write lock, so no send can race the close.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for playerID := range h.rooms[roomID] {
		if client, ok := h.clients[playerID]; ok {
			h.deliverLocked(client, event)
		}
	}
}

// SendToPlayer delivers an event to a single identity, silently dropping
// it when the player is offline.
func (h *Hub) SendToPlayer(playerID string, event *ws.ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[playerID]; ok {
		h.deliverLocked(client, event)
	}
}

func (h *Hub) deliverLocked(client *Client, event *ws.ServerEvent) {
	select {
	case client.send <- event:
	default:
		// A reader this far behind is beyond saving; drop the
		// connection and let the reconnect path recover.
		h.logger.Warn("Client send channel full, disconnecting",
			zap.String("playerId", client.playerID))
		go func() {
			h.unregister <- client
		}()
	}
}

// ConnectedCount reports the number of live connections.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
