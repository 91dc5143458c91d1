package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/game"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/ws"
)

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToRoom(roomID string, event *ws.ServerEvent) {}
func (noopBroadcaster) SendToPlayer(playerID string, event *ws.ServerEvent)  {}
func (noopBroadcaster) AddToRoom(roomID, playerID string)                    {}
func (noopBroadcaster) RemoveFromRoom(roomID, playerID string)               {}
func (noopBroadcaster) CloseRoom(roomID string)                              {}

type stubCreator struct {
	mu      sync.Mutex
	created [][2]game.PlayerInfo
	active  map[string]bool
	err     error
}

func (c *stubCreator) CreateRoom(matchType models.MatchType, p1, p2 game.PlayerInfo) (*game.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.created = append(c.created, [2]game.PlayerInfo{p1, p2})
	return game.NewRoom("test-room", matchType, p1, p2,
		game.DefaultTimings(), noopBroadcaster{}, game.NewChatFilter(nil), zap.NewNop()), nil
}

func (c *stubCreator) HasActiveRoom(playerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[playerID]
}

func (c *stubCreator) pairs() [][2]game.PlayerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][2]game.PlayerInfo(nil), c.created...)
}

type fixedRatings struct {
	ratings map[string]int
}

func (f *fixedRatings) GetOrCreate(playerID string) (*models.RatingRecord, error) {
	rating, ok := f.ratings[playerID]
	if !ok {
		rating = models.DefaultRating
	}
	return &models.RatingRecord{PlayerID: playerID, Rating: rating}, nil
}

func newTestQueue(ratings map[string]int) (*QueueService, *stubCreator) {
	creator := &stubCreator{active: make(map[string]bool)}
	config := QueueConfig{
		SweepInterval: time.Hour, // sweeps driven manually
		ToleranceBase: 200,
		WidenPerSec:   10,
		MaxWait:       2 * time.Minute,
	}
	return NewQueueService(creator, &fixedRatings{ratings: ratings}, config, zap.NewNop()), creator
}

func TestQueueService_EnqueueValidation(t *testing.T) {
	s, creator := newTestQueue(nil)

	if _, err := s.Enqueue("p1", "alice", "bogus"); !errors.Is(err, ErrUnknownMatchType) {
		t.Errorf("unknown match type error = %v", err)
	}

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Enqueue("p1", "alice", "standard"); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("double enqueue error = %v", err)
	}
	if _, err := s.Enqueue("p1", "alice", "blitz"); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("cross-queue enqueue error = %v", err)
	}

	creator.mu.Lock()
	creator.active["busy"] = true
	creator.mu.Unlock()
	if _, err := s.Enqueue("busy", "bob", "standard"); !errors.Is(err, game.ErrAlreadyInRoom) {
		t.Errorf("active-room enqueue error = %v", err)
	}
}

func TestQueueService_ImmediateMatchWithinWindow(t *testing.T) {
	s, creator := newTestQueue(map[string]int{"p1": 1200, "p2": 1350})

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Enqueue("p2", "bob", "standard"); err != nil {
		t.Fatal(err)
	}

	pairs := creator.pairs()
	if len(pairs) != 1 {
		t.Fatalf("created %d rooms, want 1", len(pairs))
	}

	for _, playerID := range []string{"p1", "p2"} {
		if _, err := s.StatusFor(playerID); !errors.Is(err, ErrNotInQueue) {
			t.Errorf("%s still queued after match", playerID)
		}
	}
}

func TestQueueService_SeparateQueuesPerMatchType(t *testing.T) {
	s, creator := newTestQueue(map[string]int{"p1": 1200, "p2": 1200})

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Enqueue("p2", "bob", "blitz"); err != nil {
		t.Fatal(err)
	}

	if len(creator.pairs()) != 0 {
		t.Error("players in different queues were matched")
	}
}

func TestQueueService_WindowWidensOverTime(t *testing.T) {
	s, creator := newTestQueue(map[string]int{"p1": 1200, "p2": 1600})

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Enqueue("p2", "bob", "standard"); err != nil {
		t.Fatal(err)
	}
	if len(creator.pairs()) != 0 {
		t.Fatal("400-point gap matched inside the base window")
	}

	// After 25 seconds both windows reach 200 + 250 = 450 >= 400.
	s.mu.Lock()
	for _, entry := range s.queues["standard"] {
		entry.QueuedAt = entry.QueuedAt.Add(-25 * time.Second)
	}
	s.mu.Unlock()

	s.Sweep()
	if len(creator.pairs()) != 1 {
		t.Error("widened windows did not produce a match")
	}
}

func TestQueueService_ForcedMatchAfterMaxWait(t *testing.T) {
	s, creator := newTestQueue(map[string]int{"p1": 1200, "p2": 2400})

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Enqueue("p2", "bob", "standard"); err != nil {
		t.Fatal(err)
	}
	if len(creator.pairs()) != 0 {
		t.Fatal("huge gap matched before max wait")
	}

	s.mu.Lock()
	s.queues["standard"][0].QueuedAt = time.Now().Add(-3 * time.Minute)
	s.mu.Unlock()

	s.Sweep()
	if len(creator.pairs()) != 1 {
		t.Error("entry past max wait was not force-matched")
	}
}

func TestQueueService_ForcedMatchAtQueueTail(t *testing.T) {
	s, creator := newTestQueue(map[string]int{"p1": 1200, "p2": 2400})

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Enqueue("p2", "bob", "standard"); err != nil {
		t.Fatal(err)
	}

	// The overdue entry sits at the tail, as it would after a re-queue.
	s.mu.Lock()
	s.queues["standard"][1].QueuedAt = time.Now().Add(-3 * time.Minute)
	s.mu.Unlock()

	s.Sweep()
	if len(creator.pairs()) != 1 {
		t.Error("overdue entry at the queue tail was not force-matched")
	}
}

func TestQueueService_ClosestRatingWins(t *testing.T) {
	s, creator := newTestQueue(map[string]int{"seeker": 1200, "near": 1290, "far": 1390})

	for _, p := range []struct{ id, name string }{
		{"seeker", "alice"}, {"near", "bob"}, {"far", "carol"},
	} {
		if _, err := s.Enqueue(p.id, p.name, "standard"); err != nil {
			t.Fatal(err)
		}
	}

	pairs := creator.pairs()
	if len(pairs) != 1 {
		t.Fatalf("created %d rooms, want 1", len(pairs))
	}
	ids := []string{pairs[0][0].ID, pairs[0][1].ID}
	for _, id := range ids {
		if id == "far" {
			t.Errorf("seeker paired with the farther opponent: %v", ids)
		}
	}
}

func TestQueueService_Dequeue(t *testing.T) {
	s, _ := newTestQueue(map[string]int{"p1": 1200})

	if err := s.Dequeue("p1"); !errors.Is(err, ErrNotInQueue) {
		t.Errorf("dequeue before enqueue error = %v", err)
	}

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}
	if err := s.Dequeue("p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StatusFor("p1"); !errors.Is(err, ErrNotInQueue) {
		t.Error("player still visible after dequeue")
	}

	// Leaving frees the slot for a fresh join.
	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Errorf("re-enqueue after dequeue failed: %v", err)
	}
}

func TestQueueService_StatusReportsWindow(t *testing.T) {
	s, _ := newTestQueue(map[string]int{"p1": 1200})

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}

	status, err := s.StatusFor("p1")
	if err != nil {
		t.Fatal(err)
	}
	if status.Position != 1 || status.QueueDepth != 1 {
		t.Errorf("position/depth = %d/%d", status.Position, status.QueueDepth)
	}
	if status.CurrentWindow < 200 {
		t.Errorf("window = %d, want >= base 200", status.CurrentWindow)
	}
}

func TestQueueService_RequeueOnRoomFailure(t *testing.T) {
	s, creator := newTestQueue(map[string]int{"p1": 1200, "p2": 1250})
	creator.mu.Lock()
	creator.err = errors.New("manager down")
	creator.mu.Unlock()

	if _, err := s.Enqueue("p1", "alice", "standard"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Enqueue("p2", "bob", "standard"); err != nil {
		t.Fatal(err)
	}

	// Creation failed; both players must be back in the queue.
	for _, playerID := range []string{"p1", "p2"} {
		if _, err := s.StatusFor(playerID); err != nil {
			t.Errorf("%s lost from queue after room failure: %v", playerID, err)
		}
	}

	creator.mu.Lock()
	creator.err = nil
	creator.mu.Unlock()

	s.Sweep()
	if len(creator.pairs()) != 1 {
		t.Error("recovered pair never matched")
	}
}
