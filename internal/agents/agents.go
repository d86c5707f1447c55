package agents

import (
	"context"

	"github.com/crashlens/crashlens-core/internal/models"
)

// Notifier is the activity broadcast surface the stages depend on.
// *ActivityPublisher satisfies it.
type Notifier interface {
	Notice(agent, action string)
}

// IncidentStore persists triaged incidents.
type IncidentStore interface {
	CreateIncident(ctx context.Context, inc *models.EnrichedIncident) (string, error)
}

// PatternStore persists detected patterns.
type PatternStore interface {
	CreatePattern(ctx context.Context, p *models.Pattern) (string, error)
}

// ResolutionStore persists generated fixes.
type ResolutionStore interface {
	CreateResolution(ctx context.Context, res *models.Resolution) (string, error)
}
