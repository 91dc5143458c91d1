package websocket

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/ws"
)

func newHubForTest(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	go hub.Run()
	return hub
}

func registerTestClient(t *testing.T, hub *Hub, playerID string) *Client {
	t.Helper()
	client := NewClient(hub, nil, playerID, playerID, nil, zap.NewNop())
	hub.register <- client

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		registered := hub.clients[playerID] == client
		hub.mu.RUnlock()
		if registered {
			return client
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("client %s never registered", playerID)
	return nil
}

func TestHub_RoomBroadcastOrder(t *testing.T) {
	hub := newHubForTest(t)

	c1 := registerTestClient(t, hub, "p1")
	c2 := registerTestClient(t, hub, "p2")
	outsider := registerTestClient(t, hub, "p3")

	hub.AddToRoom("room-1", "p1")
	hub.AddToRoom("room-1", "p2")

	for i, kind := range []string{"a", "b", "c"} {
		hub.BroadcastToRoom("room-1", ws.NewEvent(kind, i))
	}

	for _, client := range []*Client{c1, c2} {
		for _, want := range []string{"a", "b", "c"} {
			select {
			case got := <-client.send:
				if got.Type != want {
					t.Errorf("%s received %q, want %q", client.playerID, got.Type, want)
				}
			case <-time.After(time.Second):
				t.Fatalf("%s never received %q", client.playerID, want)
			}
		}
	}

	select {
	case got := <-outsider.send:
		t.Errorf("non-member received room event %q", got.Type)
	default:
	}
}

func TestHub_SendToPlayer(t *testing.T) {
	hub := newHubForTest(t)
	c1 := registerTestClient(t, hub, "p1")

	hub.SendToPlayer("p1", ws.NewEvent("hello", nil))
	// Offline players are silently skipped.
	hub.SendToPlayer("ghost", ws.NewEvent("hello", nil))

	select {
	case got := <-c1.send:
		if got.Type != "hello" {
			t.Errorf("received %q", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestHub_ReplacementConnection(t *testing.T) {
	hub := newHubForTest(t)

	old := registerTestClient(t, hub, "p1")
	fresh := registerTestClient(t, hub, "p1")

	// The old connection's channel is closed on replacement.
	select {
	case _, ok := <-old.send:
		if ok {
			t.Error("old connection received an event after replacement")
		}
	case <-time.After(time.Second):
		t.Fatal("old send channel never closed")
	}

	hub.SendToPlayer("p1", ws.NewEvent("hello", nil))
	select {
	case got := <-fresh.send:
		if got.Type != "hello" {
			t.Errorf("received %q", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("fresh connection never received the event")
	}

	if hub.ConnectedCount() != 1 {
		t.Errorf("connected count = %d, want 1", hub.ConnectedCount())
	}
}

func TestHub_UnregisterFiresDisconnectHook(t *testing.T) {
	hub := NewHub(zap.NewNop())
	gone := make(chan string, 1)
	hub.OnDisconnect(func(playerID string) { gone <- playerID })
	go hub.Run()

	client := registerTestClient(t, hub, "p1")
	hub.unregister <- client

	select {
	case playerID := <-gone:
		if playerID != "p1" {
			t.Errorf("disconnect hook got %q", playerID)
		}
	case <-time.After(time.Second):
		t.Fatal("disconnect hook never fired")
	}

	// A replaced connection must not fire the hook: the identity is
	// still online.
	c1 := registerTestClient(t, hub, "p2")
	registerTestClient(t, hub, "p2")
	hub.unregister <- c1

	select {
	case playerID := <-gone:
		t.Errorf("hook fired %q for a replaced connection", playerID)
	case <-time.After(50 * time.Millisecond):
	}
}
