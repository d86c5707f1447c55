package judge

import (
	"fmt"
	"strings"

	"github.com/crashlens/crashlens-core/internal/models"
)

// Deterministic rule-based judgments. These back the hosted-model provider
// on any failure and serve as the sole judgment source in rules-only mode.
// Status-code thresholds set a baseline; keyword matches on the error text
// override it because they identify the failure more precisely.

func fallbackIncidentAnalysis(inc models.Incident) IncidentAnalysis {
	analysis := IncidentAnalysis{
		Severity:     models.SeverityMedium,
		RootCause:    "Unable to perform model analysis",
		SuggestedFix: "Review error logs and stack trace manually",
	}

	switch {
	case inc.StatusCode >= 500:
		analysis.Severity = models.SeverityHigh
		analysis.RootCause = "Server error occurred"
		analysis.SuggestedFix = "Check server logs and error handling"
	case inc.StatusCode == 404:
		analysis.Severity = models.SeverityLow
		analysis.RootCause = "Resource not found"
		analysis.SuggestedFix = "Verify endpoint exists and routing is correct"
	case inc.StatusCode == 401 || inc.StatusCode == 403:
		analysis.Severity = models.SeverityMedium
		analysis.RootCause = "Authentication or authorization failure"
		analysis.SuggestedFix = "Check authentication tokens and permissions"
	}

	errLower := strings.ToLower(inc.ErrorMessage)
	switch {
	case strings.Contains(errLower, "cannot read property") || strings.Contains(errLower, "undefined"):
		analysis.Severity = models.SeverityHigh
		analysis.RootCause = "Null pointer or undefined reference"
		analysis.SuggestedFix = "Add null checks before accessing properties"
	case strings.Contains(errLower, "timeout"):
		analysis.Severity = models.SeverityHigh
		analysis.RootCause = "Request timeout"
		analysis.SuggestedFix = "Optimize query performance or increase timeout limits"
	case strings.Contains(errLower, "database") || strings.Contains(errLower, "connection"):
		analysis.Severity = models.SeverityCritical
		analysis.RootCause = "Database connection issue"
		analysis.SuggestedFix = "Check database connectivity and connection pool settings"
	}

	return analysis
}

func fallbackPatternAnalysis(group []models.Incident) PatternAnalysis {
	endpoints := uniqueEndpoints(group)

	commonWords := ""
	if len(group) > 0 {
		var words []string
		for _, w := range strings.Fields(strings.ToLower(group[0].ErrorMessage)) {
			if len(w) > 3 {
				words = append(words, w)
			}
			if len(words) == 3 {
				break
			}
		}
		commonWords = strings.Join(words, " ")
	}

	return PatternAnalysis{
		PatternType:       fmt.Sprintf("Repeated errors: %s", commonWords),
		AffectedEndpoints: endpoints,
		LikelyRootCause: fmt.Sprintf(
			"Multiple similar errors detected across %d endpoint(s). Manual investigation recommended.",
			len(endpoints)),
	}
}

func fallbackCodeFix(enriched models.EnrichedIncident) CodeFix {
	fix := CodeFix{
		CodePatch:   "// Add appropriate error handling and null checks\n",
		Language:    "JavaScript",
		Explanation: "Generic fix suggestion. Manual review required.",
	}

	errLower := strings.ToLower(enriched.ErrorMessage)
	switch {
	case strings.Contains(errLower, "cannot read property") || strings.Contains(errLower, "undefined"):
		fix.CodePatch = `// Add null check before accessing properties
if (object && object.property) {
  // Safe to access object.property
} else {
  // Handle null/undefined case
  throw new Error('Required object is null or undefined');
}`
		fix.Explanation = "Add null checks before accessing object properties to prevent undefined reference errors."
	case strings.Contains(errLower, "timeout"):
		fix.CodePatch = `// Increase timeout or optimize query
const result = await operation({ timeout: 30000 }); // Increase timeout
// OR optimize the underlying operation`
		fix.Explanation = "Increase timeout limits or optimize the operation to complete faster."
	case strings.Contains(errLower, "database") || strings.Contains(errLower, "connection"):
		fix.CodePatch = `// Add connection retry logic
const maxRetries = 3;
for (let i = 0; i < maxRetries; i++) {
  try {
    await database.connect();
    break;
  } catch (error) {
    if (i === maxRetries - 1) throw error;
    await sleep(1000 * (i + 1));
  }
}`
		fix.Explanation = "Add retry logic for database connections to handle transient connection failures."
	}

	return fix
}

func uniqueEndpoints(group []models.Incident) []string {
	seen := make(map[string]struct{}, len(group))
	var endpoints []string
	for _, inc := range group {
		if _, ok := seen[inc.Endpoint]; ok {
			continue
		}
		seen[inc.Endpoint] = struct{}{}
		endpoints = append(endpoints, inc.Endpoint)
	}
	return endpoints
}
