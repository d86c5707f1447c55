package judge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashlens/crashlens-core/internal/models"
)

func TestFallbackIncidentAnalysis_StatusCodeBaseline(t *testing.T) {
	tests := []struct {
		name     string
		incident models.Incident
		severity string
	}{
		{"server error", models.Incident{StatusCode: 503, ErrorMessage: "internal failure"}, models.SeverityHigh},
		{"not found", models.Incident{StatusCode: 404, ErrorMessage: "no such route"}, models.SeverityLow},
		{"unauthorized", models.Incident{StatusCode: 401, ErrorMessage: "token expired at gateway"}, models.SeverityMedium},
		{"forbidden", models.Incident{StatusCode: 403, ErrorMessage: "access denied for role"}, models.SeverityMedium},
		{"unclassified", models.Incident{StatusCode: 422, ErrorMessage: "validation failed"}, models.SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := fallbackIncidentAnalysis(tt.incident)
			assert.Equal(t, tt.severity, analysis.Severity)
			assert.NotEmpty(t, analysis.RootCause)
			assert.NotEmpty(t, analysis.SuggestedFix)
		})
	}
}

func TestFallbackIncidentAnalysis_KeywordsOverrideStatus(t *testing.T) {
	// 404 alone would be Low; the null-reference keyword wins.
	analysis := fallbackIncidentAnalysis(models.Incident{
		StatusCode:   404,
		ErrorMessage: "Cannot read property 'id' of undefined",
	})
	assert.Equal(t, models.SeverityHigh, analysis.Severity)
	assert.Equal(t, "Null pointer or undefined reference", analysis.RootCause)

	analysis = fallbackIncidentAnalysis(models.Incident{
		StatusCode:   503,
		ErrorMessage: "upstream request TIMEOUT after 30s",
	})
	assert.Equal(t, models.SeverityHigh, analysis.Severity)
	assert.Equal(t, "Request timeout", analysis.RootCause)

	analysis = fallbackIncidentAnalysis(models.Incident{
		StatusCode:   500,
		ErrorMessage: "database connection pool exhausted",
	})
	assert.Equal(t, models.SeverityCritical, analysis.Severity)
	assert.Equal(t, "Database connection issue", analysis.RootCause)
}

func TestFallbackPatternAnalysis(t *testing.T) {
	group := []models.Incident{
		{Endpoint: "/api/pay", ErrorMessage: "Cannot read property id of undefined"},
		{Endpoint: "/api/pay", ErrorMessage: "Cannot read property id of undefined"},
		{Endpoint: "/api/cart", ErrorMessage: "Cannot read property id of undefined"},
	}

	analysis := fallbackPatternAnalysis(group)
	assert.Equal(t, "Repeated errors: cannot read property", analysis.PatternType)
	assert.Equal(t, []string{"/api/pay", "/api/cart"}, analysis.AffectedEndpoints)
	assert.Contains(t, analysis.LikelyRootCause, "2 endpoint(s)")
}

func TestFallbackPatternAnalysis_EmptyGroup(t *testing.T) {
	analysis := fallbackPatternAnalysis(nil)
	assert.Equal(t, "Repeated errors: ", analysis.PatternType)
	assert.Empty(t, analysis.AffectedEndpoints)
}

func TestFallbackCodeFix_KeywordSelection(t *testing.T) {
	fix := fallbackCodeFix(models.EnrichedIncident{
		Incident: models.Incident{ErrorMessage: "Cannot read property id of undefined"},
	})
	assert.Contains(t, fix.CodePatch, "null check")
	assert.Equal(t, "JavaScript", fix.Language)

	fix = fallbackCodeFix(models.EnrichedIncident{
		Incident: models.Incident{ErrorMessage: "query timeout exceeded"},
	})
	assert.Contains(t, fix.CodePatch, "timeout")

	fix = fallbackCodeFix(models.EnrichedIncident{
		Incident: models.Incident{ErrorMessage: "connection reset by peer"},
	})
	assert.Contains(t, fix.CodePatch, "retry")

	fix = fallbackCodeFix(models.EnrichedIncident{
		Incident: models.Incident{ErrorMessage: "something else entirely"},
	})
	assert.Contains(t, fix.CodePatch, "error handling")
	assert.Contains(t, fix.Explanation, "Manual review")
}

func TestRulesProvider_NeverFails(t *testing.T) {
	p := NewRulesProvider()
	ctx := context.Background()

	analysis := p.AnalyzeIncident(ctx, models.Incident{StatusCode: 500, ErrorMessage: "boom"})
	require.True(t, models.IsValidSeverity(analysis.Severity))

	pattern := p.AnalyzePattern(ctx, []models.Incident{{Endpoint: "/api/pay", ErrorMessage: "boom"}})
	assert.NotEmpty(t, pattern.PatternType)

	fix := p.GenerateFix(ctx, models.EnrichedIncident{})
	assert.NotEmpty(t, fix.CodePatch)
}
