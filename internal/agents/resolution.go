package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crashlens/crashlens-core/internal/judge"
	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// Resolution generates code fixes for analyzed incidents severe enough to
// warrant one: only Critical and High incidents pass the gate, the rest are
// acknowledged untouched.
type Resolution struct {
	judge  judge.Provider
	store  ResolutionStore
	client streams.Client
	notify Notifier
	logger logger.Logger
}

func NewResolution(j judge.Provider, store ResolutionStore, client streams.Client, notify Notifier, log logger.Logger) *Resolution {
	return &Resolution{judge: j, store: store, client: client, notify: notify, logger: log}
}

// Handle is the stage handler for the incident-analyzed stream.
func (r *Resolution) Handle(ctx context.Context, msg streams.Message) error {
	enriched, err := streams.ParseAnalyzed(msg)
	if err != nil {
		r.logger.Warn("Dropping malformed analyzed event", "message_id", msg.ID, "error", err)
		return nil
	}

	if !models.IsFixable(enriched.Severity) {
		r.logger.Debug("Incident below fix threshold, skipping",
			"incident_id", enriched.IncidentID, "severity", enriched.Severity)
		return nil
	}

	r.notify.Notice(AgentResolution, fmt.Sprintf("Generating fix for %s incident %s", enriched.Severity, enriched.IncidentID))

	fix := r.judge.GenerateFix(ctx, enriched)
	resolution := models.Resolution{
		ResolutionID: "res_" + uuid.NewString(),
		IncidentID:   enriched.IncidentID,
		CodePatch:    fix.CodePatch,
		Language:     fix.Language,
		Explanation:  fix.Explanation,
		GeneratedBy:  AgentResolution,
		Timestamp:    time.Now().UTC(),
	}

	if _, err := r.store.CreateResolution(ctx, &resolution); err != nil {
		return fmt.Errorf("persisting resolution for %s: %w", enriched.IncidentID, err)
	}
	if _, err := r.client.Append(ctx, streams.StreamFixProposed, streams.FixValues(resolution)); err != nil {
		return fmt.Errorf("emitting fix for %s: %w", enriched.IncidentID, err)
	}

	r.notify.Notice(AgentResolution, fmt.Sprintf("Fix %s proposed for incident %s", resolution.ResolutionID, enriched.IncidentID))
	r.logger.Info("Fix proposed",
		"resolution_id", resolution.ResolutionID, "incident_id", enriched.IncidentID, "language", resolution.Language)
	return nil
}
