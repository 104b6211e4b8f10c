package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func subscribe(hub *Hub, rooms ...string) *Client {
	c := &Client{hub: hub, send: make(chan []byte, sendBuffer), rooms: rooms}
	hub.register <- c
	return c
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected event: %s", raw)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishToUserReachesOnlyThatRoom(t *testing.T) {
	hub := startHub(t)
	alice := subscribe(hub, UserRoom("alice"))
	bob := subscribe(hub, UserRoom("bob"))

	hub.PublishToUser("alice", NewEvent(EventTransactionAdded, map[string]any{"id": "t1"}))

	e := receive(t, alice)
	if e.Name != EventTransactionAdded {
		t.Fatalf("event = %q, want %q", e.Name, EventTransactionAdded)
	}
	expectSilence(t, bob)
}

func TestAdminRoomReceivesFraudAlerts(t *testing.T) {
	hub := startHub(t)
	admin := subscribe(hub, UserRoom("carol"), AdminRoom)
	user := subscribe(hub, UserRoom("dave"))

	hub.PublishToAdmins(NewEvent(EventFraudAlert, map[string]any{"severity": "high"}))

	e := receive(t, admin)
	if e.Name != EventFraudAlert {
		t.Fatalf("event = %q, want %q", e.Name, EventFraudAlert)
	}
	expectSilence(t, user)
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := &Client{hub: hub, send: make(chan []byte), rooms: []string{UserRoom("eve")}}
	hub.register <- slow

	// Nobody reads slow.send, so the first delivery attempt drops the client.
	hub.PublishToUser("eve", NewEvent(EventBudgetAlert, nil))

	select {
	case _, ok := <-slow.send:
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for drop")
	}
}
