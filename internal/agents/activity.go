// Package agents holds the pipeline stages: triage, pattern detection and
// resolution, plus the activity broadcast they all report through.
package agents

import (
	"context"
	"time"

	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/internal/monitoring"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// Agent names used in activity notices and persisted records.
const (
	AgentTriage     = "TriageAgent"
	AgentPattern    = "PatternAgent"
	AgentResolution = "ResolutionAgent"
)

const activityBuffer = 256

// ActivityPublisher broadcasts short progress notices to the agent-activity
// stream. Publishing is fire-and-forget: a notice never blocks a stage and a
// broadcast failure never fails the operation that produced it. When the
// buffer is full the notice is dropped and counted.
type ActivityPublisher struct {
	client streams.Client
	logger logger.Logger
	events chan models.ActivityEvent
}

func NewActivityPublisher(client streams.Client, log logger.Logger) *ActivityPublisher {
	return &ActivityPublisher{
		client: client,
		logger: log,
		events: make(chan models.ActivityEvent, activityBuffer),
	}
}

// Run forwards buffered notices to the stream until ctx is cancelled.
func (p *ActivityPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if _, err := p.client.Append(ctx, streams.StreamAgentActivity, streams.ActivityValues(ev)); err != nil {
				p.logger.Warn("Activity broadcast failed", "agent", ev.Agent, "error", err)
			}
		}
	}
}

// Notice enqueues a progress notice. Never blocks.
func (p *ActivityPublisher) Notice(agent, action string) {
	ev := models.ActivityEvent{
		Agent:     agent,
		Action:    action,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	select {
	case p.events <- ev:
	default:
		monitoring.RecordActivityDropped()
		p.logger.Warn("Activity buffer full, notice dropped", "agent", agent)
	}
}
