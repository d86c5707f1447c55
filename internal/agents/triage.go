package agents

import (
	"context"
	"fmt"

	"github.com/crashlens/crashlens-core/internal/judge"
	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// Triage analyzes each raw incident, persists the enriched record and emits
// an incident-analyzed event for the resolution stage.
type Triage struct {
	judge  judge.Provider
	store  IncidentStore
	client streams.Client
	notify Notifier
	logger logger.Logger
}

func NewTriage(j judge.Provider, store IncidentStore, client streams.Client, notify Notifier, log logger.Logger) *Triage {
	return &Triage{judge: j, store: store, client: client, notify: notify, logger: log}
}

// Handle is the stage handler for the incidents stream. Persist and emit
// failures propagate so the message stays unacknowledged and is retried;
// judgment itself never fails (the provider degrades to rules internally).
func (t *Triage) Handle(ctx context.Context, msg streams.Message) error {
	inc, err := streams.ParseIncident(msg)
	if err != nil {
		// Malformed entries can never succeed; report and acknowledge.
		t.logger.Warn("Dropping malformed incident", "message_id", msg.ID, "error", err)
		return nil
	}

	t.notify.Notice(AgentTriage, fmt.Sprintf("Analyzing incident %s on %s", inc.IncidentID, inc.Endpoint))

	analysis := t.judge.AnalyzeIncident(ctx, inc)
	enriched := models.EnrichedIncident{
		Incident:     inc,
		Severity:     analysis.Severity,
		RootCause:    analysis.RootCause,
		SuggestedFix: analysis.SuggestedFix,
		AnalyzedBy:   AgentTriage,
	}

	if _, err := t.store.CreateIncident(ctx, &enriched); err != nil {
		return fmt.Errorf("persisting incident %s: %w", inc.IncidentID, err)
	}

	if _, err := t.client.Append(ctx, streams.StreamIncidentAnalyzed, streams.AnalyzedValues(enriched)); err != nil {
		return fmt.Errorf("emitting analyzed event for %s: %w", inc.IncidentID, err)
	}

	t.notify.Notice(AgentTriage, fmt.Sprintf("Incident %s triaged as %s: %s", inc.IncidentID, enriched.Severity, enriched.RootCause))
	t.logger.Info("Incident triaged",
		"incident_id", inc.IncidentID, "endpoint", inc.Endpoint, "severity", enriched.Severity)
	return nil
}
