package websocket

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(id string, buffer int) *Client {
	return &Client{
		id:     id,
		send:   make(chan []byte, buffer),
		logger: zerolog.Nop(),
	}
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	client := testClient("viewer-1", 1)
	hub.register <- client
	waitForCount(t, hub, 1)

	hub.unregister <- client
	waitForCount(t, hub, 0)

	// The send channel is closed on unregister.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("send channel was not closed")
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	first := testClient("viewer-1", 4)
	second := testClient("viewer-2", 4)
	hub.register <- first
	hub.register <- second
	waitForCount(t, hub, 2)

	hub.Broadcast([]byte(`{"type":"load_progress"}`))

	for _, client := range []*Client{first, second} {
		select {
		case message := <-client.send:
			if string(message) != `{"type":"load_progress"}` {
				t.Errorf("client %s got unexpected message: %s", client.id, message)
			}
		case <-time.After(time.Second):
			t.Errorf("client %s did not receive the broadcast", client.id)
		}
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	slow := testClient("slow", 1)
	hub.register <- slow
	waitForCount(t, hub, 1)

	// The first message fills the buffer; the second forces the drop.
	hub.Broadcast([]byte("one"))
	hub.Broadcast([]byte("two"))
	waitForCount(t, hub, 0)
}
