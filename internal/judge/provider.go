// Package judge converts unstructured crash data into structured judgments:
// a severity/root-cause/fix triage for single incidents, a systemic analysis
// for incident groups, and concrete code fixes. The hosted-model provider
// recovers from every failure with deterministic rules, so a judgment call
// never returns an error and never stalls the pipeline beyond its timeout.
package judge

import (
	"context"

	"github.com/crashlens/crashlens-core/internal/models"
)

// IncidentAnalysis is the triage judgment for a single incident.
type IncidentAnalysis struct {
	Severity     string `json:"severity"`
	RootCause    string `json:"rootCause"`
	SuggestedFix string `json:"suggestedFix"`
}

// PatternAnalysis is the judgment for a group of similar incidents.
type PatternAnalysis struct {
	PatternType       string   `json:"patternType"`
	AffectedEndpoints []string `json:"affectedEndpoints"`
	LikelyRootCause   string   `json:"likelyRootCause"`
}

// CodeFix is a generated code-level fix for an analyzed incident.
type CodeFix struct {
	CodePatch   string `json:"codePatch"`
	Language    string `json:"language"`
	Explanation string `json:"explanation"`
}

// Provider produces domain judgments. Implementations must degrade to a
// rule-based judgment on any provider failure rather than surfacing an error.
type Provider interface {
	AnalyzeIncident(ctx context.Context, inc models.Incident) IncidentAnalysis
	AnalyzePattern(ctx context.Context, group []models.Incident) PatternAnalysis
	GenerateFix(ctx context.Context, enriched models.EnrichedIncident) CodeFix
}

// RulesProvider is a Provider that always uses the deterministic rules. Used
// when no hosted model is configured, and by the ingress fallback path.
type RulesProvider struct{}

func NewRulesProvider() *RulesProvider { return &RulesProvider{} }

func (*RulesProvider) AnalyzeIncident(_ context.Context, inc models.Incident) IncidentAnalysis {
	return fallbackIncidentAnalysis(inc)
}

func (*RulesProvider) AnalyzePattern(_ context.Context, group []models.Incident) PatternAnalysis {
	return fallbackPatternAnalysis(group)
}

func (*RulesProvider) GenerateFix(_ context.Context, enriched models.EnrichedIncident) CodeFix {
	return fallbackCodeFix(enriched)
}
