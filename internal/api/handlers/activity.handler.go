package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

const (
	tailBlock = 2 * time.Second
	tailBatch = 64
)

// ActivityHandler serves the live tail of the agent-activity stream, over
// SSE and over WebSocket. Tails are live-only: each connection starts at the
// stream tail and sees notices published after it attached.
type ActivityHandler struct {
	client streams.Client
	logger logger.Logger
}

func NewActivityHandler(client streams.Client, log logger.Logger) *ActivityHandler {
	return &ActivityHandler{client: client, logger: log}
}

// TailSSE handles GET /api/agent-activity. The first frame is a synthetic
// "connected" notice so clients can confirm the tail is attached before any
// agent speaks.
func (h *ActivityHandler) TailSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "streaming unsupported"})
		return
	}

	connected := models.ActivityEvent{
		Agent:     "system",
		Action:    "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	writeSSE(c, connected)
	flusher.Flush()

	ctx := c.Request.Context()
	lastID := "$"
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		events, nextID, err := h.client.Read(ctx, streams.StreamAgentActivity, lastID, tailBlock, tailBatch)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.Warn("Activity tail read failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		lastID = nextID

		for _, msg := range events {
			writeSSE(c, streams.ParseActivity(msg))
		}
		if len(events) > 0 {
			flusher.Flush()
		}
	}
}

func writeSSE(c *gin.Context, ev models.ActivityEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	c.Writer.WriteString("data: ")
	c.Writer.Write(payload)
	c.Writer.WriteString("\n\n")
}

var activityUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 << 10,
	WriteBufferSize: 32 << 10,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// TailWS handles GET /api/v1/ws/activity (upgrades to WS). Same live-only
// semantics as the SSE tail.
func (h *ActivityHandler) TailWS(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.JSON(http.StatusUpgradeRequired, gin.H{
			"status": "error",
			"error":  "WebSocket upgrade required",
		})
		return
	}

	conn, err := activityUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connected := models.ActivityEvent{
		Agent:     "system",
		Action:    "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := conn.WriteJSON(connected); err != nil {
		return
	}

	// Surface client disconnects; inbound frames are ignored.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	lastID := "$"
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		default:
		}

		events, nextID, err := h.client.Read(ctx, streams.StreamAgentActivity, lastID, tailBlock, tailBatch)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.Warn("Activity tail read failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		lastID = nextID

		for _, msg := range events {
			if err := conn.WriteJSON(streams.ParseActivity(msg)); err != nil {
				return
			}
		}
	}
}
