package agents

import (
	"strings"
	"sync"
	"time"

	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/internal/monitoring"
)

const similarityWords = 5

// entry is an incident admitted to the window, stamped with its arrival time.
// Arrival time drives eviction; the incidents' own timestamps supply the
// firstSeen/lastSeen bounds of a detected group.
type entry struct {
	incident   models.Incident
	receivedAt time.Time
}

// Group is a set of similar incidents that crossed the detection threshold.
type Group struct {
	Key       string
	Incidents []models.Incident
	FirstSeen time.Time
	LastSeen  time.Time
}

// Window is the sliding window the pattern stage inspects. Incidents older
// than the window span are evicted from the front on every Add and Groups
// call; entries are kept in arrival order.
type Window struct {
	mu        sync.Mutex
	entries   []entry
	span      time.Duration
	threshold int
	now       func() time.Time
}

func NewWindow(span time.Duration, threshold int) *Window {
	return &Window{
		span:      span,
		threshold: threshold,
		now:       time.Now,
	}
}

// Add admits an incident, stamping it with the current time.
func (w *Window) Add(inc models.Incident) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(w.now())
	w.entries = append(w.entries, entry{incident: inc, receivedAt: w.now()})
	monitoring.SetWindowSize(len(w.entries))
}

// Groups evicts expired entries, then partitions the survivors by similarity
// key and returns every group at or above the threshold. Incidents within a
// group keep arrival order; FirstSeen/LastSeen carry the timestamps of the
// group's extreme members, so they may run backwards when client-supplied
// timestamps lag arrival.
func (w *Window) Groups() []Group {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(w.now())
	monitoring.SetWindowSize(len(w.entries))

	byKey := make(map[string][]entry)
	var order []string
	for _, e := range w.entries {
		k := similarityKey(e.incident)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], e)
	}

	var groups []Group
	for _, k := range order {
		members := byKey[k]
		if len(members) < w.threshold {
			continue
		}
		g := Group{
			Key:       k,
			Incidents: make([]models.Incident, len(members)),
			FirstSeen: members[0].incident.Timestamp,
			LastSeen:  members[len(members)-1].incident.Timestamp,
		}
		for i, e := range members {
			g.Incidents[i] = e.incident
		}
		groups = append(groups, g)
	}
	return groups
}

// RemoveGroup deletes the given incidents from the window by incident id.
// Called after a group has been reported; incidents that arrived since the
// partition are untouched.
func (w *Window) RemoveGroup(g Group) {
	ids := make(map[string]struct{}, len(g.Incidents))
	for _, inc := range g.Incidents {
		ids[inc.IncidentID] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.entries[:0]
	for _, e := range w.entries {
		if _, drop := ids[e.incident.IncidentID]; !drop {
			kept = append(kept, e)
		}
	}
	w.entries = kept
	monitoring.SetWindowSize(len(w.entries))
}

// Size returns the current number of windowed incidents.
func (w *Window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// evict drops entries that fell out of the window span. Entries are in
// arrival order, so only the front can expire. Caller holds the lock.
func (w *Window) evict(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.entries) && w.entries[i].receivedAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}
}

// similarityKey buckets incidents by endpoint plus the first few lowercased
// words of the error message, so messages differing only in ids or values
// past the prefix land in the same bucket.
func similarityKey(inc models.Incident) string {
	words := strings.Fields(strings.ToLower(inc.ErrorMessage))
	if len(words) > similarityWords {
		words = words[:similarityWords]
	}
	return inc.Endpoint + ":" + strings.Join(words, " ")
}
