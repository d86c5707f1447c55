package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// tailClient serves one scripted batch from Read, then cancels the request
// context so the tail loop exits.
type tailClient struct {
	fakeClient
	batch  []streams.Message
	cancel context.CancelFunc
	served bool
}

func (c *tailClient) Read(ctx context.Context, stream, lastID string, block time.Duration, count int64) ([]streams.Message, string, error) {
	if c.served {
		c.cancel()
		return nil, lastID, nil
	}
	c.served = true
	defer c.cancel()
	return c.batch, "1-0", nil
}

func TestTailSSE_ConnectedFrameThenEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	client := &tailClient{
		batch: []streams.Message{{
			ID: "1-0",
			Values: map[string]interface{}{
				"agent":     "TriageAgent",
				"action":    "Analyzing incident inc_1 on /api/pay",
				"timestamp": "2026-01-01T00:00:00Z",
			},
		}},
		cancel: cancel,
	}
	client.appended = map[string][]map[string]interface{}{}

	h := NewActivityHandler(client, logger.New("error"))
	r := gin.New()
	r.GET("/api/agent-activity", h.TailSSE)

	req := httptest.NewRequest(http.MethodGet, "/api/agent-activity", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	require.GreaterOrEqual(t, len(frames), 2)
	assert.Contains(t, frames[0], `"action":"connected"`)
	assert.Contains(t, frames[0], `"agent":"system"`)
	assert.Contains(t, frames[1], "TriageAgent")
	assert.Contains(t, frames[1], "Analyzing incident inc_1 on /api/pay")
	for _, frame := range frames {
		assert.True(t, strings.HasPrefix(frame, "data: "), frame)
	}
}

func TestTailWS_RequiresUpgrade(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewActivityHandler(newFakeClient(), logger.New("error"))
	r := gin.New()
	r.GET("/api/v1/ws/activity", h.TailWS)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ws/activity", nil))
	assert.Equal(t, http.StatusUpgradeRequired, w.Code)
}
