package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Belloabraham121/warpscan/internal/models"
	"github.com/Belloabraham121/warpscan/pkg/logger"
)

func testHub(buffer int) *Hub {
	return NewHub(buffer, logger.New("error", false, "", "text"))
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func recvFrame(t *testing.T, ch <-chan []byte) frame {
	t.Helper()
	select {
	case data := <-ch:
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("bad frame %s: %v", data, err)
		}
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return frame{}
}

func TestPublishReachesAllClients(t *testing.T) {
	hub := testHub(8)

	ch1, cleanup1 := hub.Subscribe()
	defer cleanup1()
	ch2, cleanup2 := hub.Subscribe()
	defer cleanup2()

	hub.Publish(models.NewBlockEvent{Number: 42, Hash: "0xabc"})

	for _, ch := range []<-chan []byte{ch1, ch2} {
		env := recvFrame(t, ch)
		if env.Type != "new_block" {
			t.Fatalf("got type %q, want new_block", env.Type)
		}
	}
}

func TestSubscribeReplaysRecentFrames(t *testing.T) {
	hub := testHub(8)

	hub.Publish(models.NewBlockEvent{Number: 1})
	hub.Publish(models.NewBlockEvent{Number: 2})

	ch, cleanup := hub.Subscribe()
	defer cleanup()

	for i := 0; i < 2; i++ {
		if env := recvFrame(t, ch); env.Type != "new_block" {
			t.Fatalf("got type %q, want new_block", env.Type)
		}
	}
}

func TestReplayBufferBounded(t *testing.T) {
	hub := testHub(2)

	for i := 0; i < 5; i++ {
		hub.Publish(models.NewBlockEvent{Number: uint64(i)})
	}

	ch, cleanup := hub.Subscribe()
	defer cleanup()

	var frames int
	for {
		select {
		case <-ch:
			frames++
		case <-time.After(50 * time.Millisecond):
			if frames != 2 {
				t.Fatalf("got %d replayed frames, want 2", frames)
			}
			return
		}
	}
}

func TestCleanupRemovesClient(t *testing.T) {
	hub := testHub(8)

	_, cleanup := hub.Subscribe()
	if hub.ClientCount() != 1 {
		t.Fatalf("got %d clients, want 1", hub.ClientCount())
	}

	cleanup()
	cleanup() // safe to call twice

	if hub.ClientCount() != 0 {
		t.Fatalf("got %d clients, want 0", hub.ClientCount())
	}
}

func TestRunPumpsUntilStreamCloses(t *testing.T) {
	hub := testHub(8)
	events := make(chan models.Event, 1)

	done := make(chan struct{})
	go func() {
		hub.Run(context.Background(), events)
		close(done)
	}()

	ch, cleanup := hub.Subscribe()
	defer cleanup()

	events <- models.SubscriptionErrorEvent{ID: "x", Message: "gone"}
	if env := recvFrame(t, ch); env.Type != "subscription_error" {
		t.Fatalf("got type %q, want subscription_error", env.Type)
	}

	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after stream close")
	}
}
