package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/ws"
)

type stubRatings struct {
	mu       sync.Mutex
	applied  []string
	rating   int
	failures int
	err      error
}

func (s *stubRatings) ApplyMatchResult(roomID, playerAID, playerBID string, winnerID *string, finishedAt time.Time) (*models.MatchRatingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("ratings unavailable")
	}
	if s.err != nil {
		return nil, s.err
	}
	s.applied = append(s.applied, roomID)
	return &models.MatchRatingResult{
		RoomID:  roomID,
		PlayerA: models.AppliedRating{PlayerID: playerAID, Delta: 12},
		PlayerB: models.AppliedRating{PlayerID: playerBID, Delta: -12},
	}, nil
}

func (s *stubRatings) GetOrCreate(playerID string) (*models.RatingRecord, error) {
	rating := s.rating
	if rating == 0 {
		rating = models.DefaultRating
	}
	return &models.RatingRecord{PlayerID: playerID, Rating: rating}, nil
}

func (s *stubRatings) appliedRooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.applied...)
}

type stubStore struct {
	mu       sync.Mutex
	saves    []*models.RoomDoc
	failures int
}

func (s *stubStore) Save(doc *models.RoomDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("store unavailable")
	}
	s.saves = append(s.saves, doc)
	return nil
}

func (s *stubStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func newTestManager(t *testing.T) (*Manager, *stubBroadcaster, *stubRatings, *stubStore) {
	t.Helper()
	b := &stubBroadcaster{}
	ratings := &stubRatings{}
	store := &stubStore{}
	m := NewManager(b, ratings, store, NewChatFilter(nil), testTimings(), zap.NewNop())
	m.Start()
	t.Cleanup(m.Stop)
	return m, b, ratings, store
}

func createTestRoom(t *testing.T, m *Manager) *Room {
	t.Helper()
	room, err := m.CreateRoom(models.MatchTypes["standard"],
		PlayerInfo{ID: "p1", Username: "alice", Rating: 1200},
		PlayerInfo{ID: "p2", Username: "bob", Rating: 1250})
	if err != nil {
		t.Fatal(err)
	}
	return room
}

func TestManager_CreateRoom(t *testing.T) {
	m, b, _, _ := newTestManager(t)

	room := createTestRoom(t, m)

	got, err := m.Room(room.ID)
	if err != nil || got != room {
		t.Fatalf("Room(%s) = %v, %v", room.ID, got, err)
	}
	if _, err := m.Room("nope"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("unknown room error = %v", err)
	}

	for _, playerID := range []string{"p1", "p2"} {
		if !m.HasActiveRoom(playerID) {
			t.Errorf("HasActiveRoom(%s) = false", playerID)
		}
	}

	var matchFound int
	for _, typ := range b.types() {
		if typ == ws.EvMatchFound {
			matchFound++
		}
	}
	if matchFound != 2 {
		t.Errorf("match_found sent %d times, want 2", matchFound)
	}
}

func TestManager_FinishPipeline(t *testing.T) {
	m, b, ratings, _ := newTestManager(t)
	room := createTestRoom(t, m)
	startRoom(t, room)

	if err := room.Resign("p2"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(ratings.appliedRooms()) == 1 },
		"ratings never settled")
	waitFor(t, func() bool { return b.has(ws.EvGameFinished) },
		"game_finished never broadcast")
	waitFor(t, func() bool { return !m.HasActiveRoom("p1") && !m.HasActiveRoom("p2") },
		"players never unmapped after finish")

	// The finished room stays resident for the rematch window.
	if _, err := m.Room(room.ID); err != nil {
		t.Errorf("finished room evicted early: %v", err)
	}
}

func TestManager_AbandonedRoomSkipsRatings(t *testing.T) {
	b := &stubBroadcaster{}
	ratings := &stubRatings{}
	store := &stubStore{}
	timings := testTimings()
	timings.WaitingTimeout = 15 * time.Millisecond
	m := NewManager(b, ratings, store, NewChatFilter(nil), timings, zap.NewNop())
	m.Start()
	t.Cleanup(m.Stop)

	room := createTestRoom(t, m)

	waitFor(t, func() bool { return room.Status() == models.RoomStatusAbandoned },
		"room never abandoned")
	waitFor(t, func() bool { return b.has(ws.EvGameFinished) },
		"abandoned outcome never broadcast")

	if got := ratings.appliedRooms(); len(got) != 0 {
		t.Errorf("abandoned room settled ratings: %v", got)
	}
}

func TestManager_RatingFailureDoesNotBlockOutcome(t *testing.T) {
	m, b, ratings, _ := newTestManager(t)
	ratings.err = errors.New("db down")

	room := createTestRoom(t, m)
	startRoom(t, room)

	if err := room.Resign("p1"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return b.has(ws.EvGameFinished) },
		"game_finished never broadcast despite rating failure")
}

func TestManager_SettlementRetriedInBackground(t *testing.T) {
	m, b, ratings, _ := newTestManager(t)
	m.settleRetryDelay = 5 * time.Millisecond
	ratings.mu.Lock()
	ratings.failures = 2
	ratings.mu.Unlock()

	room := createTestRoom(t, m)
	startRoom(t, room)
	if err := room.Resign("p2"); err != nil {
		t.Fatal(err)
	}

	// The outcome is broadcast right away; the settlement lands once the
	// rating engine recovers.
	waitFor(t, func() bool { return b.has(ws.EvGameFinished) },
		"game_finished never broadcast")
	waitFor(t, func() bool { return len(ratings.appliedRooms()) == 1 },
		"settlement never recovered after transient failures")
}

func TestManager_Rematch(t *testing.T) {
	m, b, ratings, _ := newTestManager(t)
	ratings.rating = 1333

	room := createTestRoom(t, m)
	startRoom(t, room)
	if err := room.Resign("p2"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return b.has(ws.EvGameFinished) }, "finish never completed")

	if err := room.RequestRematch("p1"); err != nil {
		t.Fatal(err)
	}
	if err := room.RequestRematch("p2"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return b.has(ws.EvRematchAccepted) },
		"rematch_accepted never broadcast")
	waitFor(t, func() bool { return m.HasActiveRoom("p1") },
		"players never mapped to the rematch room")

	newRoom, ok := m.RoomForPlayer("p1")
	if !ok || newRoom.ID == room.ID {
		t.Fatal("rematch did not produce a new room")
	}
	if newRoom.Status() != models.RoomStatusWaiting {
		t.Errorf("rematch room status = %s", newRoom.Status())
	}

	newDoc := newRoom.Doc()
	for _, slot := range newDoc.Players {
		if slot.RatingAtMatchStart != 1333 {
			t.Errorf("rematch slot rating = %d, want current 1333", slot.RatingAtMatchStart)
		}
		if slot.QueensPlaced != 0 {
			t.Error("rematch board not reset")
		}
	}

	oldDoc := room.Doc()
	if oldDoc.RematchRoomID == nil || *oldDoc.RematchRoomID != newRoom.ID {
		t.Error("old room missing rematch back-pointer")
	}
}

func TestManager_DisconnectRouting(t *testing.T) {
	m, b, _, _ := newTestManager(t)
	room := createTestRoom(t, m)
	startRoom(t, room)

	m.HandleDisconnect("p2")
	waitFor(t, func() bool { return b.has(ws.EvPlayerDisconnected) },
		"disconnect never reached the room")

	// Unknown identities route nowhere and panic nothing.
	m.HandleDisconnect("nobody")
}

func TestManager_PersistenceRetries(t *testing.T) {
	m, _, _, store := newTestManager(t)
	store.mu.Lock()
	store.failures = 2
	store.mu.Unlock()

	createTestRoom(t, m)

	waitFor(t, func() bool { return store.saveCount() >= 1 },
		"room document never persisted despite retries")
}
