package handler

import (
	"net/http"
	"time"

	"github.com/Belloabraham121/warpscan/internal/stream"
	"github.com/Belloabraham121/warpscan/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamHandler serves the real-time event stream and manages the
// subscriptions feeding it.
type StreamHandler struct {
	hub     *stream.Hub
	manager *subscription.Manager
}

func NewStreamHandler(hub *stream.Hub, manager *subscription.Manager) *StreamHandler {
	return &StreamHandler{hub: hub, manager: manager}
}

// HandleWebSocket streams JSON event frames to the client until it
// disconnects.
func (h *StreamHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to upgrade connection"})
		return
	}
	defer conn.Close()

	clientChan, cleanup := h.hub.Subscribe()
	defer cleanup()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Reader loop: delivers pongs to the handler above and unblocks on
	// disconnect. Inbound frames are discarded; the stream is one-way.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readerDone:
			return
		case data, ok := <-clientChan:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SubscribeBlocks starts (or restarts) the new-block subscription under the
// given id.
func (h *StreamHandler) SubscribeBlocks(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.SubscribeToBlocks(id); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "type": "blocks"})
}

// SubscribeAddress starts (or restarts) an address activity subscription.
func (h *StreamHandler) SubscribeAddress(c *gin.Context) {
	id := c.Param("id")
	address := c.Query("address")
	if err := h.manager.SubscribeToAddress(id, address); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "type": "address", "address": address})
}

// Unsubscribe stops the subscription under id. Unknown ids are a no-op.
func (h *StreamHandler) Unsubscribe(c *gin.Context) {
	h.manager.Unsubscribe(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": "unsubscribed"})
}

// ListSubscriptions reports the active subscription ids.
func (h *StreamHandler) ListSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"subscriptions": h.manager.ActiveIDs(),
		"clients":       h.hub.ClientCount(),
	})
}
