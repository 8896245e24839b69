package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Belloabraham121/warpscan/internal/models"
	"github.com/Belloabraham121/warpscan/internal/stream"
	"github.com/Belloabraham121/warpscan/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newStreamTestServer(t *testing.T) (*stream.Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := stream.NewHub(8, logger.New("error", false, "", "text"))
	h := NewStreamHandler(hub, nil)

	router := gin.New()
	router.GET("/ws", h.HandleWebSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return hub, server
}

func waitForClients(t *testing.T, hub *stream.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("got %d clients, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandleWebSocketDeliversEvents(t *testing.T) {
	hub, server := newStreamTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	hub.Publish(models.NewBlockEvent{Number: 7, Hash: "0xabc"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !strings.Contains(string(data), "new_block") {
		t.Fatalf("got frame %s, want new_block event", data)
	}
}

func TestHandleWebSocketClientDisconnectCleansUp(t *testing.T) {
	hub, server := newStreamTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	waitForClients(t, hub, 1)

	// Closing the connection must release the subscription promptly, without
	// waiting for the next outbound write to fail.
	conn.Close()
	waitForClients(t, hub, 0)
}
