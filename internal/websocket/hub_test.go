package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dukerupert/larder/internal/metrics"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func subscribe(h *Hub, userID string) *subscriber {
	s := newSubscriber(userID)
	h.add(s)
	return s
}

func receive(t *testing.T, s *subscriber) Message {
	t.Helper()
	select {
	case data := <-s.outbox:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func assertNoMessage(t *testing.T, s *subscriber) {
	t.Helper()
	select {
	case data := <-s.outbox:
		t.Errorf("unexpected message: %s", data)
	default:
	}
}

func TestAddRemove(t *testing.T) {
	hub := testHub()

	alice := subscribe(hub, "alice")
	aliceTab := subscribe(hub, "alice")
	bob := subscribe(hub, "bob")

	if got := hub.ClientCount(); got != 3 {
		t.Fatalf("expected 3 clients, got %d", got)
	}

	hub.remove(alice)
	hub.remove(alice)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients after duplicate remove, got %d", got)
	}
	if _, open := <-alice.outbox; open {
		t.Error("outbox should be closed after remove")
	}

	hub.remove(aliceTab)
	hub.remove(bob)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
	if len(hub.byUser) != 0 {
		t.Errorf("empty user sets should be pruned, have %d", len(hub.byUser))
	}
}

func TestContributionChangedReachesEveryone(t *testing.T) {
	hub := testHub()
	alice := subscribe(hub, "alice")
	bob := subscribe(hub, "bob")

	hub.ContributionChanged("claimed", "c-1")

	for _, s := range []*subscriber{alice, bob} {
		got := receive(t, s)
		want := Message{Type: "contribution_claimed", Entity: EntityContribution, Action: "claimed", ID: "c-1"}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	}
}

func TestPantryChangedOnlyReachesOwner(t *testing.T) {
	hub := testHub()
	aliceTab1 := subscribe(hub, "alice")
	aliceTab2 := subscribe(hub, "alice")
	bob := subscribe(hub, "bob")

	hub.PantryChanged("alice", "updated", "p-1")

	for _, s := range []*subscriber{aliceTab1, aliceTab2} {
		got := receive(t, s)
		if got.Type != "pantry_item_updated" || got.ID != "p-1" {
			t.Errorf("got %+v", got)
		}
	}
	assertNoMessage(t, bob)

	if n := hub.SendToUser("carol", changed(EntityPantryItem, "deleted", "p-9")); n != 0 {
		t.Errorf("delivered to %d subscribers of an absent user", n)
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	if n := testHub().Broadcast(changed(EntityContribution, "stopped", "c-1")); n != 0 {
		t.Errorf("delivered = %d", n)
	}
}

func TestFullOutboxDrops(t *testing.T) {
	hub := testHub()
	s := subscribe(hub, "alice")
	defer hub.remove(s)

	before := testutil.ToFloat64(metrics.LiveDropped)

	for i := 0; i < outboxSize; i++ {
		if n := hub.Broadcast(changed(EntityContribution, "created", "")); n != 1 {
			t.Fatalf("message %d not queued", i)
		}
	}
	if n := hub.Broadcast(changed(EntityContribution, "created", "")); n != 0 {
		t.Errorf("full outbox accepted a message")
	}
	if got := testutil.ToFloat64(metrics.LiveDropped) - before; got != 1 {
		t.Errorf("dropped counter moved by %v", got)
	}
	if len(s.outbox) != outboxSize {
		t.Errorf("expected %d queued, got %d", outboxSize, len(s.outbox))
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := testHub()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := subscribe(hub, "alice")
			hub.ContributionChanged("edited", "c-1")
			hub.PantryChanged("alice", "created", "p-1")
			hub.remove(s)
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
