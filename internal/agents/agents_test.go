package agents

import (
	"context"
	"sync"
	"time"

	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// recordingClient captures appended entries per stream and can fail on demand.
type recordingClient struct {
	mu        sync.Mutex
	appended  map[string][]map[string]interface{}
	appendErr error
}

func newRecordingClient() *recordingClient {
	return &recordingClient{appended: make(map[string][]map[string]interface{})}
}

func (c *recordingClient) Append(ctx context.Context, stream string, values map[string]interface{}) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appendErr != nil {
		return "", c.appendErr
	}
	c.appended[stream] = append(c.appended[stream], values)
	return "0-0", nil
}

func (c *recordingClient) EnsureGroup(ctx context.Context, stream, group string) error { return nil }

func (c *recordingClient) ReadGroup(ctx context.Context, args streams.ReadArgs) ([]streams.Message, error) {
	return nil, nil
}

func (c *recordingClient) Ack(ctx context.Context, stream, group, id string) error { return nil }

func (c *recordingClient) Read(ctx context.Context, stream, lastID string, block time.Duration, count int64) ([]streams.Message, string, error) {
	return nil, lastID, nil
}

func (c *recordingClient) HealthCheck(ctx context.Context) error { return nil }
func (c *recordingClient) Close() error                          { return nil }

func (c *recordingClient) entries(stream string) []map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appended[stream]
}

// fakeStore records persisted documents and can fail on demand.
type fakeStore struct {
	mu          sync.Mutex
	incidents   []*models.EnrichedIncident
	patterns    []*models.Pattern
	resolutions []*models.Resolution
	createErr   error
}

func (s *fakeStore) CreateIncident(ctx context.Context, inc *models.EnrichedIncident) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.incidents = append(s.incidents, inc)
	return inc.IncidentID, nil
}

func (s *fakeStore) CreatePattern(ctx context.Context, p *models.Pattern) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.patterns = append(s.patterns, p)
	return p.PatternID, nil
}

func (s *fakeStore) CreateResolution(ctx context.Context, res *models.Resolution) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.resolutions = append(s.resolutions, res)
	return res.ResolutionID, nil
}

// fakeNotifier records notices without a broadcast goroutine.
type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *fakeNotifier) Notice(agent, action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, agent+": "+action)
}

func incidentMessage(id, endpoint, message string, status int) streams.Message {
	return streams.Message{
		ID: "1-0",
		Values: streams.IncidentValues(models.Incident{
			IncidentID:   id,
			Endpoint:     endpoint,
			StatusCode:   status,
			ErrorMessage: message,
			Timestamp:    time.Now().UTC(),
		}),
	}
}
