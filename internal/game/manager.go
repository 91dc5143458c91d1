package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/ws"
)

// RatingEngine is the slice of the rating service the manager needs to
// settle finished matches and seed rematch rooms.
type RatingEngine interface {
	ApplyMatchResult(roomID, playerAID, playerBID string, winnerID *string, finishedAt time.Time) (*models.MatchRatingResult, error)
	GetOrCreate(playerID string) (*models.RatingRecord, error)
}

// RoomSaver persists room documents.
type RoomSaver interface {
	Save(doc *models.RoomDoc) error
}

const (
	persistQueueSize    = 256
	persistSaveAttempts = 3

	// Finished rooms stay resident for the rematch window, then get
	// swept.
	finishedRoomRetention = 5 * time.Minute
	cleanupInterval       = time.Minute

	settlementRetryDelay = 5 * time.Second
)

// Manager owns every live room: creation from matchmaking, rematch
// spawning, disconnect routing, the finish pipeline, and background
// persistence of room documents.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	byPlayer map[string]string

	broadcaster Broadcaster
	ratings     RatingEngine
	store       RoomSaver
	filter      *ChatFilter
	timings     Timings
	logger      *zap.Logger

	persistCh        chan *models.RoomDoc
	stopChan         chan struct{}
	wg               sync.WaitGroup
	running          bool
	settleRetryDelay time.Duration
}

func NewManager(broadcaster Broadcaster, ratings RatingEngine, store RoomSaver, filter *ChatFilter, timings Timings, logger *zap.Logger) *Manager {
	return &Manager{
		rooms:            make(map[string]*Room),
		byPlayer:         make(map[string]string),
		broadcaster:      broadcaster,
		ratings:          ratings,
		store:            store,
		filter:           filter,
		timings:          timings,
		logger:           logger,
		persistCh:        make(chan *models.RoomDoc, persistQueueSize),
		stopChan:         make(chan struct{}),
		settleRetryDelay: settlementRetryDelay,
	}
}

// Start launches the persistence worker and the finished-room sweeper.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.wg.Add(2)
	go m.persistLoop()
	go m.cleanupLoop()

	m.logger.Info("Room manager started")
}

// Stop drains the workers.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)
	m.wg.Wait()

	m.logger.Info("Room manager stopped")
}

// CreateRoom builds a room for two matched players, registers both on
// the hub, and tells each of them where to go.
func (m *Manager) CreateRoom(matchType models.MatchType, p1, p2 PlayerInfo) (*Room, error) {
	roomID := uuid.New().String()

	room := NewRoom(roomID, matchType, p1, p2, m.timings, m.broadcaster, m.filter, m.logger)
	room.onFinish = m.handleFinish
	room.onMutate = m.enqueuePersist
	room.onRematch = m.spawnRematch

	m.mu.Lock()
	m.rooms[roomID] = room
	m.byPlayer[p1.ID] = roomID
	m.byPlayer[p2.ID] = roomID
	m.mu.Unlock()

	m.broadcaster.AddToRoom(roomID, p1.ID)
	m.broadcaster.AddToRoom(roomID, p2.ID)

	for _, pair := range [][2]PlayerInfo{{p1, p2}, {p2, p1}} {
		me, opponent := pair[0], pair[1]
		m.broadcaster.SendToPlayer(me.ID, ws.NewEvent(ws.EvMatchFound, map[string]interface{}{
			"roomId":    roomID,
			"matchType": matchType.Name,
			"boardSize": matchType.BoardSize,
			"opponent": map[string]interface{}{
				"playerId": opponent.ID,
				"username": opponent.Username,
				"rating":   opponent.Rating,
			},
		}))
	}

	m.logger.Info("Room created",
		zap.String("roomId", roomID),
		zap.String("matchType", matchType.Name),
		zap.String("player1", p1.ID),
		zap.String("player2", p2.ID))

	m.enqueuePersist(room.Doc())
	return room, nil
}

// Room returns a live room by id.
func (m *Manager) Room(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RoomForPlayer returns the room the player currently occupies a slot in.
func (m *Manager) RoomForPlayer(playerID string) (*Room, bool) {
	m.mu.RLock()
	roomID, ok := m.byPlayer[playerID]
	if !ok {
		m.mu.RUnlock()
		return nil, false
	}
	room := m.rooms[roomID]
	m.mu.RUnlock()

	if room == nil {
		return nil, false
	}
	return room, true
}

// HasActiveRoom reports whether the player holds a slot in a non-terminal
// room. Queue admission uses this to reject double-booking.
func (m *Manager) HasActiveRoom(playerID string) bool {
	room, ok := m.RoomForPlayer(playerID)
	return ok && !room.Status().Terminal()
}

// HandleDisconnect routes a dropped connection to the player's room, if
// any. Spectated rooms are found by scanning; spectating is rare enough
// that no reverse index is kept for it.
func (m *Manager) HandleDisconnect(playerID string) {
	if room, ok := m.RoomForPlayer(playerID); ok {
		room.HandleDisconnect(playerID)
		return
	}

	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.RUnlock()

	for _, room := range rooms {
		room.HandleDisconnect(playerID)
	}
}

// handleFinish is the terminal pipeline: settle ratings (when the match
// actually finished), persist the final document, and broadcast the
// outcome. Runs outside the room lock.
func (m *Manager) handleFinish(room *Room, winnerID *string, reason *models.FinishReason) {
	doc := room.Doc()
	players := room.PlayerIDs()

	var ratings *models.MatchRatingResult
	if doc.Status == models.RoomStatusFinished && doc.FinishedAt != nil {
		var err error
		ratings, err = m.ratings.ApplyMatchResult(room.ID, players[0], players[1], winnerID, *doc.FinishedAt)
		if err != nil {
			// The match result stands and is broadcast without deltas; the
			// settlement keeps retrying in the background until it lands.
			m.logger.Error("Rating settlement failed, retrying in background",
				zap.String("roomId", room.ID),
				zap.Error(err))
			m.retrySettlement(room.ID, players, winnerID, *doc.FinishedAt)
		}
	}

	payload := map[string]interface{}{
		"roomId":     room.ID,
		"status":     doc.Status,
		"winnerId":   winnerID,
		"durationMs": doc.Duration().Milliseconds(),
	}
	if reason != nil {
		payload["reason"] = *reason
	}
	if ratings != nil {
		payload["ratings"] = ratings
	}
	m.broadcaster.BroadcastToRoom(room.ID, ws.NewEvent(ws.EvGameFinished, payload))

	m.mu.Lock()
	for _, playerID := range players {
		if m.byPlayer[playerID] == room.ID {
			delete(m.byPlayer, playerID)
		}
	}
	m.mu.Unlock()

	m.enqueuePersist(doc)
}

// retrySettlement re-runs the whole settlement until it succeeds. The
// repository transaction is all-or-nothing, so repeating it never
// half-applies; only the rating write is outstanding, the outcome is
// already final.
func (m *Manager) retrySettlement(roomID string, players [2]string, winnerID *string, finishedAt time.Time) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.logger.Error("Rating settlement dropped, manager stopped",
			zap.String("roomId", roomID))
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		for attempt := 1; ; attempt++ {
			select {
			case <-time.After(m.settleRetryDelay):
			case <-m.stopChan:
				m.logger.Error("Rating settlement unapplied at shutdown, reconcile from the room document",
					zap.String("roomId", roomID))
				return
			}

			if _, err := m.ratings.ApplyMatchResult(roomID, players[0], players[1], winnerID, finishedAt); err != nil {
				m.logger.Warn("Rating settlement retry failed",
					zap.String("roomId", roomID),
					zap.Int("attempt", attempt),
					zap.Error(err))
				continue
			}

			m.logger.Info("Rating settlement recovered",
				zap.String("roomId", roomID),
				zap.Int("attempts", attempt))
			return
		}
	}()
}

// spawnRematch creates a fresh room for the same pair with reset boards
// and current ratings, links it from the old room, and moves the players
// over. Spectators do not migrate.
func (m *Manager) spawnRematch(old *Room) {
	players := old.PlayerIDs()

	infos := make([]PlayerInfo, 2)
	for i, playerID := range players {
		record, err := m.ratings.GetOrCreate(playerID)
		if err != nil {
			m.logger.Error("Rematch aborted, rating lookup failed",
				zap.String("roomId", old.ID),
				zap.String("playerId", playerID),
				zap.Error(err))
			old.rematchFailed()
			return
		}
		infos[i] = PlayerInfo{ID: playerID, Username: old.slots[i].Username, Rating: record.Rating}
	}

	newRoom, err := m.CreateRoom(old.MatchType, infos[0], infos[1])
	if err != nil {
		m.logger.Error("Rematch room creation failed",
			zap.String("roomId", old.ID),
			zap.Error(err))
		old.rematchFailed()
		return
	}

	old.SetRematchRoom(newRoom.ID)
	m.broadcaster.BroadcastToRoom(old.ID, ws.NewEvent(ws.EvRematchAccepted, map[string]interface{}{
		"roomId":    old.ID,
		"newRoomId": newRoom.ID,
	}))

	m.logger.Info("Rematch room spawned",
		zap.String("oldRoomId", old.ID),
		zap.String("newRoomId", newRoom.ID))
}

// enqueuePersist hands a snapshot to the persistence worker. A full
// queue drops the snapshot; a later mutation or the finish pipeline will
// enqueue a fresher one.
func (m *Manager) enqueuePersist(doc *models.RoomDoc) {
	select {
	case m.persistCh <- doc:
	default:
		m.logger.Warn("Persist queue full, dropping room snapshot",
			zap.String("roomId", doc.ID))
	}
}

func (m *Manager) persistLoop() {
	defer m.wg.Done()

	for {
		select {
		case doc := <-m.persistCh:
			m.saveWithRetry(doc)
		case <-m.stopChan:
			// Drain what is already queued before exiting.
			for {
				select {
				case doc := <-m.persistCh:
					m.saveWithRetry(doc)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) saveWithRetry(doc *models.RoomDoc) {
	if m.store == nil {
		return
	}

	var err error
	for attempt := 1; attempt <= persistSaveAttempts; attempt++ {
		if err = m.store.Save(doc); err == nil {
			return
		}
		m.logger.Warn("Room save attempt failed",
			zap.String("roomId", doc.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	m.logger.Error("Room save failed after retries",
		zap.String("roomId", doc.ID),
		zap.Error(err))
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepFinishedRooms()
		case <-m.stopChan:
			return
		}
	}
}

// sweepFinishedRooms evicts terminal rooms past the rematch window.
func (m *Manager) sweepFinishedRooms() {
	cutoff := time.Now().Add(-finishedRoomRetention)

	m.mu.Lock()
	var evicted []string
	for id, room := range m.rooms {
		doc := room.Doc()
		if doc.Status.Terminal() && doc.FinishedAt != nil && doc.FinishedAt.Before(cutoff) {
			delete(m.rooms, id)
			evicted = append(evicted, id)
		}
	}
	m.mu.Unlock()

	for _, id := range evicted {
		m.broadcaster.CloseRoom(id)
	}

	if len(evicted) > 0 {
		m.logger.Info("Swept finished rooms", zap.Int("count", len(evicted)))
	}
}
