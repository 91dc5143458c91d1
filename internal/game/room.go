package game

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/ws"
)

// Broadcaster delivers events to room members and individual players.
// Implemented by the websocket hub.
type Broadcaster interface {
	BroadcastToRoom(roomID string, event *ws.ServerEvent)
	SendToPlayer(playerID string, event *ws.ServerEvent)
	AddToRoom(roomID, playerID string)
	RemoveFromRoom(roomID, playerID string)
	CloseRoom(roomID string)
}

// PlayerInfo identifies one matched player entering a room.
type PlayerInfo struct {
	ID       string
	Username string
	Rating   int
}

// Slot is one player's live state inside a room. It is mutated only
// under the owning room's lock.
type Slot struct {
	PlayerID         string
	Username         string
	RatingAtStart    int
	Ready            bool
	Connected        bool
	Board            *Board
	MovesCount       int
	LastMoveAt       *time.Time
	RematchRequested bool
	drawOffered      bool
	clockDeadline    *time.Time
	disconnectSeq    int
}

// Timings collects the room's scheduled delays.
type Timings struct {
	ReadyStartDelay time.Duration // ready -> in-progress
	WaitingTimeout  time.Duration // waiting/ready rooms that never start
	GracePeriod     time.Duration // disconnect -> persistent disconnect
	ForfeitWindow   time.Duration // persistent disconnect -> forfeit
}

// DefaultTimings mirrors the product defaults.
func DefaultTimings() Timings {
	return Timings{
		ReadyStartDelay: 3 * time.Second,
		WaitingTimeout:  60 * time.Second,
		GracePeriod:     5 * time.Second,
		ForfeitWindow:   30 * time.Second,
	}
}

// Room is the authoritative state machine for one match. Every public
// method serializes through the room mutex; timers re-enter through the
// same lock and no-op when the state they were scheduled for is gone.
type Room struct {
	ID        string
	MatchType models.MatchType

	mu              sync.Mutex
	status          models.RoomStatus
	slots           [2]*Slot
	moves           []models.MoveRecord
	spectators      map[string]bool
	chat            []models.ChatMessage
	allowSpectators bool
	winnerID        *string
	reason          *models.FinishReason
	rematchRoomID   *string
	rematchSpawning bool
	createdAt       time.Time
	startedAt       *time.Time
	finishedAt      *time.Time

	timings     Timings
	waitTimer   *time.Timer
	readyTimer  *time.Timer
	graceTimers map[string]*time.Timer
	forfeits    map[string]*time.Timer
	clocks      map[string]*time.Timer

	broadcaster Broadcaster
	filter      *ChatFilter
	logger      *zap.Logger

	// onFinish runs once, outside the lock, after any terminal
	// transition. onMutate receives a snapshot after every accepted
	// state change. onRematch fires when both slots request a rematch.
	onFinish  func(r *Room, winnerID *string, reason *models.FinishReason)
	onMutate  func(doc *models.RoomDoc)
	onRematch func(r *Room)
}

func NewRoom(id string, matchType models.MatchType, p1, p2 PlayerInfo, timings Timings, broadcaster Broadcaster, filter *ChatFilter, logger *zap.Logger) *Room {
	r := &Room{
		ID:        id,
		MatchType: matchType,
		status:    models.RoomStatusWaiting,
		// Both players hold live hub connections when matchmaking pairs
		// them; slots start connected so a drop before any join_room still
		// runs the grace and forfeit path.
		slots: [2]*Slot{
			{PlayerID: p1.ID, Username: p1.Username, RatingAtStart: p1.Rating, Connected: true, Board: NewBoard(matchType.BoardSize)},
			{PlayerID: p2.ID, Username: p2.Username, RatingAtStart: p2.Rating, Connected: true, Board: NewBoard(matchType.BoardSize)},
		},
		spectators:      make(map[string]bool),
		allowSpectators: true,
		createdAt:       time.Now(),
		timings:         timings,
		graceTimers:     make(map[string]*time.Timer),
		forfeits:        make(map[string]*time.Timer),
		clocks:          make(map[string]*time.Timer),
		broadcaster:     broadcaster,
		filter:          filter,
		logger:          logger,
	}

	r.waitTimer = time.AfterFunc(timings.WaitingTimeout, r.waitingTimedOut)

	return r
}

func (r *Room) slotFor(playerID string) *Slot {
	for _, s := range r.slots {
		if s.PlayerID == playerID {
			return s
		}
	}
	return nil
}

func (r *Room) opponentOf(playerID string) *Slot {
	for _, s := range r.slots {
		if s.PlayerID != playerID {
			return s
		}
	}
	return nil
}

// Status returns the current lifecycle state.
func (r *Room) Status() models.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// IsParticipant reports whether the identity owns a player slot.
func (r *Room) IsParticipant(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotFor(playerID) != nil
}

// Join binds a player's connection to the room and returns a snapshot
// for the room_joined reply.
func (r *Room) Join(playerID string) (*models.RoomDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slotFor(playerID)
	if slot == nil {
		return nil, ErrNotASlotOwner
	}

	slot.Connected = true
	doc := r.docLocked()
	r.persistLocked()
	return doc, nil
}

// Ready marks a slot ready. When both slots are ready the room moves to
// ready and schedules the automatic start.
func (r *Room) Ready(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusWaiting && r.status != models.RoomStatusReady {
		return ErrNotInProgress
	}

	slot := r.slotFor(playerID)
	if slot == nil {
		return ErrNotASlotOwner
	}
	if slot.Ready {
		return nil
	}

	slot.Ready = true
	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvPlayerReady, map[string]interface{}{
		"playerId": playerID,
	}))

	if r.slots[0].Ready && r.slots[1].Ready && r.status == models.RoomStatusWaiting {
		r.status = models.RoomStatusReady
		// Short delay before the clocks start so a distracted player
		// cannot stall the opponent indefinitely.
		r.readyTimer = time.AfterFunc(r.timings.ReadyStartDelay, r.autoStart)
	}

	r.persistLocked()
	return nil
}

func (r *Room) autoStart() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusReady {
		return
	}

	now := time.Now()
	r.status = models.RoomStatusInProgress
	r.startedAt = &now

	if r.waitTimer != nil {
		r.waitTimer.Stop()
	}

	if r.MatchType.TimeLimit != nil {
		limit := *r.MatchType.TimeLimit
		for _, slot := range r.slots {
			deadline := now.Add(limit)
			slot.clockDeadline = &deadline
			playerID := slot.PlayerID
			r.clocks[playerID] = time.AfterFunc(limit, func() {
				r.clockExpired(playerID)
			})
		}
	}

	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvGameStarted, map[string]interface{}{
		"roomId":      r.ID,
		"startedAt":   now,
		"boardSize":   r.MatchType.BoardSize,
		"timeLimitMs": r.MatchType.TimeLimitMs(),
	}))

	r.logger.Info("Game started",
		zap.String("roomId", r.ID),
		zap.String("matchType", r.MatchType.Name))

	r.persistLocked()
}

func (r *Room) waitingTimedOut() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusWaiting && r.status != models.RoomStatusReady {
		return
	}
	r.abandonLocked()
}

func (r *Room) clockExpired(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusInProgress {
		return
	}

	opponent := r.opponentOf(playerID)
	winner := opponent.PlayerID
	reason := models.FinishTime
	r.finishLocked(&winner, &reason)
}

// MakeMove validates a queen placement on the mover's own board. Invalid
// moves are reported only to the mover and change nothing.
func (r *Room) MakeMove(playerID string, row, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusInProgress {
		return ErrNotInProgress
	}

	slot := r.slotFor(playerID)
	if slot == nil {
		return ErrNotASlotOwner
	}

	if err := slot.Board.Place(row, col); err != nil {
		return err
	}

	now := time.Now()
	slot.MovesCount++
	slot.LastMoveAt = &now
	r.moves = append(r.moves, models.MoveRecord{
		Seq:      len(r.moves) + 1,
		PlayerID: playerID,
		Row:      row,
		Col:      col,
		PlayedAt: now,
	})

	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvMoveMade, map[string]interface{}{
		"playerId":     playerID,
		"row":          row,
		"col":          col,
		"queensPlaced": slot.Board.Queens(),
	}))

	if slot.Board.Complete() {
		winner := playerID
		reason := models.FinishCompletion
		r.finishLocked(&winner, &reason)
		return nil
	}

	r.persistLocked()
	return nil
}

// Resign ends the match in the opponent's favor.
func (r *Room) Resign(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusInProgress {
		return ErrNotInProgress
	}

	slot := r.slotFor(playerID)
	if slot == nil {
		return ErrNotASlotOwner
	}

	winner := r.opponentOf(playerID).PlayerID
	reason := models.FinishResignation
	r.finishLocked(&winner, &reason)
	return nil
}

// OfferDraw records a pending draw offer and notifies the room.
func (r *Room) OfferDraw(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusInProgress {
		return ErrNotInProgress
	}

	slot := r.slotFor(playerID)
	if slot == nil {
		return ErrNotASlotOwner
	}
	if slot.drawOffered {
		return nil
	}

	slot.drawOffered = true
	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvDrawOffered, map[string]interface{}{
		"playerId": playerID,
	}))
	return nil
}

// AcceptDraw finishes the match with no winner when the opponent has a
// pending offer.
func (r *Room) AcceptDraw(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusInProgress {
		return ErrNotInProgress
	}

	slot := r.slotFor(playerID)
	if slot == nil {
		return ErrNotASlotOwner
	}
	if !r.opponentOf(playerID).drawOffered {
		return ErrNoDrawOffer
	}

	reason := models.FinishDrawAgreement
	r.finishLocked(nil, &reason)
	return nil
}

// RejectDraw clears the pending offer.
func (r *Room) RejectDraw(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusInProgress {
		return ErrNotInProgress
	}

	slot := r.slotFor(playerID)
	if slot == nil {
		return ErrNotASlotOwner
	}

	opponent := r.opponentOf(playerID)
	if !opponent.drawOffered {
		return ErrNoDrawOffer
	}

	opponent.drawOffered = false
	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvDrawRejected, map[string]interface{}{
		"playerId": playerID,
	}))
	return nil
}

// SendChat filters, stores, and broadcasts a chat message. The chat log
// keeps the most recent entries only.
func (r *Room) SendChat(playerID, username, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	isSpectator := r.spectators[playerID]
	if !isSpectator && r.slotFor(playerID) == nil {
		return ErrNotASlotOwner
	}

	message := models.ChatMessage{
		PlayerID:    playerID,
		Username:    username,
		Text:        r.filter.Clean(text),
		IsSpectator: isSpectator,
		SentAt:      time.Now(),
	}

	r.chat = append(r.chat, message)
	if len(r.chat) > models.ChatLogSize {
		r.chat = r.chat[len(r.chat)-models.ChatLogSize:]
	}

	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvChatMessage, message))
	r.persistLocked()
	return nil
}

// AddSpectator admits a read-only viewer. Spectators never gain write
// access to gameplay operations.
func (r *Room) AddSpectator(playerID string) (*models.RoomDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.allowSpectators {
		return nil, ErrSpectatingDisabled
	}
	if r.slotFor(playerID) != nil {
		return nil, ErrAlreadyInRoom
	}

	r.spectators[playerID] = true
	r.broadcaster.AddToRoom(r.ID, playerID)
	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvSpectatorJoined, map[string]interface{}{
		"playerId": playerID,
		"count":    len(r.spectators),
	}))

	doc := r.docLocked()
	r.persistLocked()
	return doc, nil
}

// RemoveSpectator drops a viewer.
func (r *Room) RemoveSpectator(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.spectators[playerID] {
		return
	}

	delete(r.spectators, playerID)
	r.broadcaster.RemoveFromRoom(r.ID, playerID)
	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvSpectatorLeft, map[string]interface{}{
		"playerId": playerID,
		"count":    len(r.spectators),
	}))
	r.persistLocked()
}

// RequestRematch flags one side; when both sides have requested, a new
// room is spawned by the manager and this room keeps only a pointer.
func (r *Room) RequestRematch(playerID string) error {
	r.mu.Lock()

	if r.status != models.RoomStatusFinished {
		r.mu.Unlock()
		return ErrNotFinished
	}

	slot := r.slotFor(playerID)
	if slot == nil {
		r.mu.Unlock()
		return ErrNotASlotOwner
	}

	slot.RematchRequested = true
	// The spawning flag is claimed under the lock so a duplicate request
	// arriving while the new room is still being built cannot fire the
	// handshake twice.
	spawn := r.slots[0].RematchRequested && r.slots[1].RematchRequested &&
		r.rematchRoomID == nil && !r.rematchSpawning
	if spawn {
		r.rematchSpawning = true
	}

	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvRematchRequested, map[string]interface{}{
		"playerId": playerID,
	}))
	r.mu.Unlock()

	if spawn && r.onRematch != nil {
		r.onRematch(r)
	}
	return nil
}

// rematchFailed reopens the handshake after a spawn attempt aborted.
func (r *Room) rematchFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rematchSpawning = false
	r.slots[0].RematchRequested = false
	r.slots[1].RematchRequested = false
}

// RejectRematch clears both flags and notifies the room.
func (r *Room) RejectRematch(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusFinished {
		return ErrNotFinished
	}
	if r.slotFor(playerID) == nil {
		return ErrNotASlotOwner
	}

	r.slots[0].RematchRequested = false
	r.slots[1].RematchRequested = false

	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvRematchRejected, map[string]interface{}{
		"playerId": playerID,
	}))
	return nil
}

// SetRematchRoom records the back-pointer once the rematch room exists.
func (r *Room) SetRematchRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rematchRoomID = &roomID
	r.persistLocked()
}

// HandleDisconnect starts the grace timer for a dropped player. The
// match is not lost yet; a resume within the grace period cancels
// everything.
func (r *Room) HandleDisconnect(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slotFor(playerID)
	if slot == nil {
		// Spectators just leave.
		if r.spectators[playerID] {
			delete(r.spectators, playerID)
			r.broadcaster.RemoveFromRoom(r.ID, playerID)
			r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvSpectatorLeft, map[string]interface{}{
				"playerId": playerID,
				"count":    len(r.spectators),
			}))
		}
		return
	}

	if r.status.Terminal() || !slot.Connected {
		return
	}

	slot.Connected = false
	slot.disconnectSeq++
	seq := slot.disconnectSeq

	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvPlayerDisconnected, map[string]interface{}{
		"playerId":      playerID,
		"gracePeriodMs": r.timings.GracePeriod.Milliseconds(),
	}))

	r.graceTimers[playerID] = time.AfterFunc(r.timings.GracePeriod, func() {
		r.graceLapsed(playerID, seq)
	})

	r.logger.Info("Player disconnected, grace timer started",
		zap.String("roomId", r.ID),
		zap.String("playerId", playerID))

	r.persistLocked()
}

func (r *Room) graceLapsed(playerID string, seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slotFor(playerID)
	if slot == nil || slot.Connected || slot.disconnectSeq != seq || r.status.Terminal() {
		return
	}

	// Persistently disconnected: the opponent sees a waiting notice and
	// the auto-forfeit countdown begins.
	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvPlayerDisconnected, map[string]interface{}{
		"playerId":        playerID,
		"persistent":      true,
		"forfeitWindowMs": r.timings.ForfeitWindow.Milliseconds(),
	}))

	r.forfeits[playerID] = time.AfterFunc(r.timings.ForfeitWindow, func() {
		r.forfeitFired(playerID, seq)
	})
}

func (r *Room) forfeitFired(playerID string, seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slotFor(playerID)
	if slot == nil || slot.Connected || slot.disconnectSeq != seq || r.status.Terminal() {
		return
	}

	if r.status == models.RoomStatusInProgress {
		winner := r.opponentOf(playerID).PlayerID
		reason := models.FinishDisconnect
		r.finishLocked(&winner, &reason)
		return
	}

	// Never reached in-progress.
	r.abandonLocked()
}

// Resume revalidates slot ownership and rebinds a reconnecting player.
// Allowed at any point before the forfeit resolves the match; both
// pending timers are cancelled.
func (r *Room) Resume(playerID string) (*models.RoomDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slotFor(playerID)
	if slot == nil {
		return nil, ErrReconnectionDenied
	}
	if r.status.Terminal() {
		return nil, ErrReconnectionDenied
	}

	slot.Connected = true
	slot.disconnectSeq++

	if t := r.graceTimers[playerID]; t != nil {
		t.Stop()
		delete(r.graceTimers, playerID)
	}
	if t := r.forfeits[playerID]; t != nil {
		t.Stop()
		delete(r.forfeits, playerID)
	}

	r.broadcaster.BroadcastToRoom(r.ID, ws.NewEvent(ws.EvPlayerReconnected, map[string]interface{}{
		"playerId": playerID,
	}))

	r.logger.Info("Player resumed",
		zap.String("roomId", r.ID),
		zap.String("playerId", playerID))

	doc := r.docLocked()
	r.persistLocked()
	return doc, nil
}

// finishLocked performs the single idempotent terminal transition. Only
// the first trigger wins; later triggers see a terminal status and
// return before reaching here.
func (r *Room) finishLocked(winnerID *string, reason *models.FinishReason) {
	if r.status.Terminal() {
		return
	}

	now := time.Now()
	r.status = models.RoomStatusFinished
	r.winnerID = winnerID
	r.reason = reason
	r.finishedAt = &now

	r.cancelTimersLocked()

	r.logger.Info("Match finished",
		zap.String("roomId", r.ID),
		zap.Stringp("winnerId", winnerID),
		zap.String("reason", string(*reason)))

	if r.onFinish != nil {
		// Rating update and final persistence do I/O; run outside the
		// room lock.
		go r.onFinish(r, winnerID, reason)
	}
}

func (r *Room) abandonLocked() {
	if r.status.Terminal() {
		return
	}

	now := time.Now()
	r.status = models.RoomStatusAbandoned
	r.finishedAt = &now
	r.cancelTimersLocked()

	r.logger.Info("Room abandoned", zap.String("roomId", r.ID))

	if r.onFinish != nil {
		go r.onFinish(r, nil, nil)
	}
}

func (r *Room) cancelTimersLocked() {
	if r.waitTimer != nil {
		r.waitTimer.Stop()
	}
	if r.readyTimer != nil {
		r.readyTimer.Stop()
	}
	for _, t := range r.graceTimers {
		t.Stop()
	}
	for _, t := range r.forfeits {
		t.Stop()
	}
	for _, t := range r.clocks {
		t.Stop()
	}
}

// Doc snapshots the room as its persisted document.
func (r *Room) Doc() *models.RoomDoc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docLocked()
}

func (r *Room) docLocked() *models.RoomDoc {
	doc := &models.RoomDoc{
		ID:              r.ID,
		MatchType:       r.MatchType.Name,
		BoardSize:       r.MatchType.BoardSize,
		TimeLimit:       r.MatchType.TimeLimitMs(),
		Status:          r.status,
		Moves:           append([]models.MoveRecord(nil), r.moves...),
		Chat:            append([]models.ChatMessage(nil), r.chat...),
		AllowSpectators: r.allowSpectators,
		WinnerID:        r.winnerID,
		Reason:          r.reason,
		RematchRoomID:   r.rematchRoomID,
		CreatedAt:       r.createdAt,
		StartedAt:       r.startedAt,
		FinishedAt:      r.finishedAt,
	}

	for id := range r.spectators {
		doc.Spectators = append(doc.Spectators, id)
	}

	now := time.Now()
	for i, slot := range r.slots {
		slotDoc := models.PlayerSlotDoc{
			PlayerID:           slot.PlayerID,
			Username:           slot.Username,
			RatingAtMatchStart: slot.RatingAtStart,
			IsReady:            slot.Ready,
			IsConnected:        slot.Connected,
			Board:              slot.Board.Grid(),
			QueensPlaced:       slot.Board.Queens(),
			MovesCount:         slot.MovesCount,
			LastMoveAt:         slot.LastMoveAt,
		}
		if slot.clockDeadline != nil {
			remaining := slot.clockDeadline.Sub(now).Milliseconds()
			if remaining < 0 {
				remaining = 0
			}
			slotDoc.TimeRemaining = &remaining
		}
		doc.Players[i] = slotDoc
	}

	return doc
}

func (r *Room) persistLocked() {
	if r.onMutate != nil {
		r.onMutate(r.docLocked())
	}
}

// PlayerIDs returns both slot owners.
func (r *Room) PlayerIDs() [2]string {
	return [2]string{r.slots[0].PlayerID, r.slots[1].PlayerID}
}
