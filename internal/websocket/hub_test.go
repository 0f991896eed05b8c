package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func testClient(hub *Hub, storeID string) *Client {
	return &Client{hub: hub, storeID: storeID, send: make(chan []byte, sendBufferSize)}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := testClient(hub, "store-1")

	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Errorf("count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("count = %d, want 0", hub.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("expected send channel closed after unregister")
	}
}

func TestHubBroadcastScopedToStore(t *testing.T) {
	hub := NewHub(slog.Default())
	watching := testClient(hub, "store-1")
	other := testClient(hub, "store-2")
	hub.Register(watching)
	hub.Register(other)

	hub.Broadcast(NewMessage("list_entry", "created", "entry-1", "store-1", nil))

	select {
	case data := <-watching.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "list_entry_created" {
			t.Errorf("type = %q, want list_entry_created", msg.Type)
		}
		if msg.StoreID != "store-1" {
			t.Errorf("store_id = %q, want store-1", msg.StoreID)
		}
	default:
		t.Fatal("watching client received nothing")
	}

	select {
	case <-other.send:
		t.Fatal("client watching another store received the message")
	default:
	}
}

func TestHubBroadcastUnscopedReachesAll(t *testing.T) {
	hub := NewHub(slog.Default())
	a := testClient(hub, "store-1")
	b := testClient(hub, "store-2")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(Message{Type: "ping"})

	for _, c := range []*Client{a, b} {
		select {
		case <-c.send:
		default:
			t.Fatal("expected unscoped broadcast to reach every client")
		}
	}
}

func TestHubBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(slog.Default())
	c := &Client{hub: hub, storeID: "store-1", send: make(chan []byte)}
	hub.Register(c)

	// Unbuffered channel with no reader: broadcast must not block.
	done := make(chan struct{})
	go func() {
		hub.Broadcast(NewMessage("list_entry", "created", "entry-1", "store-1", nil))
		close(done)
	}()
	<-done
}
