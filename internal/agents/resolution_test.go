package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashlens/crashlens-core/internal/judge"
	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

func analyzedMessage(id, severity, message string) streams.Message {
	return streams.Message{
		ID: "1-0",
		Values: streams.AnalyzedValues(models.EnrichedIncident{
			Incident: models.Incident{
				IncidentID:   id,
				Endpoint:     "/api/pay",
				StatusCode:   500,
				ErrorMessage: message,
				Timestamp:    time.Now().UTC(),
			},
			Severity:  severity,
			RootCause: "Database connection issue",
		}),
	}
}

func newResolutionUnderTest(store *fakeStore, client *recordingClient) *Resolution {
	return NewResolution(judge.NewRulesProvider(), store, client, &fakeNotifier{}, logger.New("error"))
}

func TestResolution_FixesCriticalIncident(t *testing.T) {
	store := &fakeStore{}
	client := newRecordingClient()
	r := newResolutionUnderTest(store, client)

	msg := analyzedMessage("inc_1", models.SeverityCritical, "database connection lost")
	require.NoError(t, r.Handle(context.Background(), msg))

	require.Len(t, store.resolutions, 1)
	res := store.resolutions[0]
	assert.Contains(t, res.ResolutionID, "res_")
	assert.Equal(t, "inc_1", res.IncidentID)
	assert.Equal(t, AgentResolution, res.GeneratedBy)
	assert.NotEmpty(t, res.CodePatch)

	emitted := client.entries(streams.StreamFixProposed)
	require.Len(t, emitted, 1)
	assert.Equal(t, "inc_1", emitted[0]["incident_id"])
	assert.Equal(t, res.ResolutionID, emitted[0]["resolution_id"])
}

func TestResolution_SeverityGate(t *testing.T) {
	for _, severity := range []string{models.SeverityMedium, models.SeverityLow} {
		store := &fakeStore{}
		client := newRecordingClient()
		r := newResolutionUnderTest(store, client)

		msg := analyzedMessage("inc_2", severity, "resource not found")
		require.NoError(t, r.Handle(context.Background(), msg), severity)
		assert.Empty(t, store.resolutions, severity)
		assert.Empty(t, client.entries(streams.StreamFixProposed), severity)
	}
}

func TestResolution_PersistFailurePropagates(t *testing.T) {
	store := &fakeStore{createErr: errors.New("store down")}
	client := newRecordingClient()
	r := newResolutionUnderTest(store, client)

	msg := analyzedMessage("inc_3", models.SeverityHigh, "timeout calling provider")
	require.Error(t, r.Handle(context.Background(), msg))
	assert.Empty(t, client.entries(streams.StreamFixProposed))
}

func TestResolution_MalformedMessageAcked(t *testing.T) {
	r := newResolutionUnderTest(&fakeStore{}, newRecordingClient())
	msg := streams.Message{ID: "9-0", Values: map[string]interface{}{"incident_id": "inc_4"}}
	require.NoError(t, r.Handle(context.Background(), msg))
}
