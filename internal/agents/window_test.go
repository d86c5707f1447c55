package agents

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashlens/crashlens-core/internal/models"
)

func incidentAt(id, endpoint, message string) models.Incident {
	return models.Incident{
		IncidentID:   id,
		Endpoint:     endpoint,
		StatusCode:   500,
		ErrorMessage: message,
		Timestamp:    time.Now(),
	}
}

func TestWindow_GroupsBelowThresholdNotReturned(t *testing.T) {
	w := NewWindow(60*time.Second, 5)
	for i := 0; i < 4; i++ {
		w.Add(incidentAt(fmt.Sprintf("inc_%d", i), "/api/pay", "Cannot read property id of undefined"))
	}
	assert.Empty(t, w.Groups())
	assert.Equal(t, 4, w.Size())
}

func TestWindow_GroupTriggersAtThreshold(t *testing.T) {
	w := NewWindow(60*time.Second, 5)
	for i := 0; i < 5; i++ {
		w.Add(incidentAt(fmt.Sprintf("inc_%d", i), "/api/pay", "Cannot read property id of undefined"))
	}
	// An unrelated endpoint below threshold must not appear.
	w.Add(incidentAt("inc_other", "/api/login", "Invalid token"))

	groups := w.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, 5, len(groups[0].Incidents))
	assert.Equal(t, "/api/pay:cannot read property id of", groups[0].Key)
	assert.False(t, groups[0].LastSeen.Before(groups[0].FirstSeen))
}

func TestWindow_GroupBoundsUseIncidentTimestamps(t *testing.T) {
	w := NewWindow(60*time.Second, 3)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		inc := incidentAt(fmt.Sprintf("inc_%d", i), "/api/pay", "timeout calling payment provider")
		inc.Timestamp = first.Add(time.Duration(i) * time.Minute)
		w.Add(inc)
	}

	groups := w.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, first, groups[0].FirstSeen, "first member's own timestamp, not arrival time")
	assert.Equal(t, first.Add(2*time.Minute), groups[0].LastSeen, "last member's own timestamp, not arrival time")
}

func TestWindow_GroupBoundsFollowArrivalOrderNotChronology(t *testing.T) {
	// Client-supplied timestamps can lag arrival; the bounds still come from
	// the first and last arrivals, so LastSeen may precede FirstSeen.
	w := NewWindow(60*time.Second, 2)
	late := incidentAt("late", "/api/pay", "timeout calling payment provider")
	late.Timestamp = time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)
	early := incidentAt("early", "/api/pay", "timeout calling payment provider")
	early.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	w.Add(late)
	w.Add(early)

	groups := w.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, late.Timestamp, groups[0].FirstSeen)
	assert.Equal(t, early.Timestamp, groups[0].LastSeen)
}

func TestWindow_SimilarityIgnoresMessageTail(t *testing.T) {
	w := NewWindow(60*time.Second, 3)
	w.Add(incidentAt("a", "/api/pay", "Cannot read property ID of undefined at index 4"))
	w.Add(incidentAt("b", "/api/pay", "cannot read property id of NULL somewhere else"))
	w.Add(incidentAt("c", "/api/pay", "CANNOT READ PROPERTY id OF whatever"))

	groups := w.Groups()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Incidents, 3)
}

func TestWindow_DifferentEndpointsDoNotMerge(t *testing.T) {
	w := NewWindow(60*time.Second, 3)
	w.Add(incidentAt("a", "/api/pay", "database connection lost"))
	w.Add(incidentAt("b", "/api/pay", "database connection lost"))
	w.Add(incidentAt("c", "/api/cart", "database connection lost"))
	assert.Empty(t, w.Groups())
}

func TestWindow_EvictionByArrivalTime(t *testing.T) {
	now := time.Now()
	w := NewWindow(60*time.Second, 2)
	w.now = func() time.Time { return now }
	w.Add(incidentAt("old", "/api/pay", "timeout calling payment provider"))

	// Just inside the window: entry survives.
	w.now = func() time.Time { return now.Add(59 * time.Second) }
	w.Add(incidentAt("fresh", "/api/pay", "timeout calling payment provider"))
	require.Len(t, w.Groups(), 1)

	// Past the boundary: the old entry expires and the group collapses.
	w.now = func() time.Time { return now.Add(61 * time.Second) }
	assert.Empty(t, w.Groups())
	assert.Equal(t, 1, w.Size())
}

func TestWindow_RemoveGroupKeepsLaterArrivals(t *testing.T) {
	w := NewWindow(60*time.Second, 3)
	for i := 0; i < 3; i++ {
		w.Add(incidentAt(fmt.Sprintf("inc_%d", i), "/api/pay", "timeout calling payment provider"))
	}
	groups := w.Groups()
	require.Len(t, groups, 1)

	// A similar incident arrives between the partition and the removal.
	w.Add(incidentAt("late", "/api/pay", "timeout calling payment provider"))
	w.RemoveGroup(groups[0])

	assert.Equal(t, 1, w.Size())
	assert.Empty(t, w.Groups(), "late arrival alone must not retrigger")
}

func TestWindow_FailedGroupStaysIntact(t *testing.T) {
	w := NewWindow(60*time.Second, 5)
	for i := 0; i < 5; i++ {
		w.Add(incidentAt(fmt.Sprintf("inc_%d", i), "/api/pay", "Cannot read property id of undefined"))
	}
	// No RemoveGroup call: a second partition sees the same group again.
	first := w.Groups()
	second := w.Groups()
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Key, second[0].Key)
	assert.Len(t, second[0].Incidents, 5)
}

func TestSimilarityKey_ShortMessages(t *testing.T) {
	inc := incidentAt("a", "/api/pay", "boom")
	assert.Equal(t, "/api/pay:boom", similarityKey(inc))
}
