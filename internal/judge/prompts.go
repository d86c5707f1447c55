package judge

import (
	"fmt"
	"strings"

	"github.com/crashlens/crashlens-core/internal/models"
)

const (
	triageSystemPrompt = "You are an expert at analyzing software crashes and providing structured technical analysis. Always respond with valid JSON only."

	patternSystemPrompt = "You are an expert at detecting patterns in software crashes and identifying systemic issues. Always respond with valid JSON only."

	fixSystemPrompt = "You are an expert at generating code fixes for software crashes. Always respond with valid JSON only."
)

func incidentPrompt(inc models.Incident) string {
	stackTrace := inc.StackTrace
	if stackTrace == "" {
		stackTrace = "Not provided"
	}
	requestBody := inc.RequestBody
	if requestBody == "" {
		requestBody = "Not provided"
	}

	return fmt.Sprintf(`You are a crash analysis expert. Analyze this API crash and provide a structured response.

Endpoint: %s
Status Code: %d
Error Message: %s
Stack Trace: %s
Request Context: %s

Provide your analysis in the following JSON format:
{
  "severity": "Critical|High|Medium|Low",
  "rootCause": "Brief explanation of what went wrong",
  "suggestedFix": "Specific code change or configuration fix"
}

Rules:
- Severity levels: Critical (system down), High (major feature broken), Medium (degraded functionality), Low (minor issue)
- Root cause should be 1-2 sentences explaining the technical issue
- Suggested fix should be actionable and specific

Respond ONLY with valid JSON, no additional text.`,
		inc.Endpoint, inc.StatusCode, inc.ErrorMessage, stackTrace, requestBody)
}

func patternPrompt(group []models.Incident) string {
	summaries := make([]string, 0, len(group))
	for i, inc := range group {
		summaries = append(summaries, fmt.Sprintf(`Incident %d:
  Endpoint: %s
  Status: %d
  Error: %s
  Time: %s`, i+1, inc.Endpoint, inc.StatusCode, inc.ErrorMessage, inc.Timestamp.Format("2006-01-02T15:04:05Z07:00")))
	}

	return fmt.Sprintf(`You are a pattern detection expert. Analyze these similar crashes that occurred within a short time window and identify the common pattern.

%s

Provide your analysis in the following JSON format:
{
  "patternType": "Brief description of the common issue",
  "affectedEndpoints": ["list", "of", "affected", "endpoints"],
  "likelyRootCause": "Explanation of the systemic issue causing this pattern"
}

Rules:
- Pattern type should be a concise description (e.g., "Repeated null pointer in authentication")
- List all unique endpoints affected
- Root cause should explain the systemic issue, not just individual errors

Respond ONLY with valid JSON, no additional text.`, strings.Join(summaries, "\n\n"))
}

func fixPrompt(enriched models.EnrichedIncident) string {
	rootCause := enriched.RootCause
	if rootCause == "" {
		rootCause = "Not provided"
	}
	suggestedFix := enriched.SuggestedFix
	if suggestedFix == "" {
		suggestedFix = "Not provided"
	}
	stackTrace := enriched.StackTrace
	if stackTrace == "" {
		stackTrace = "Not provided"
	}

	return fmt.Sprintf(`You are a code fix generator. Generate a specific code fix for this crash.

Endpoint: %s
Status Code: %d
Error Message: %s
Root Cause: %s
Suggested Fix: %s
Stack Trace: %s

Provide your fix in the following JSON format:
{
  "codePatch": "Actual code changes needed (include context and line numbers if possible)",
  "language": "Programming language (e.g., JavaScript, Python, Java)",
  "explanation": "Why this fix resolves the issue"
}

Rules:
- Provide actual, runnable code in the codePatch
- Include enough context to understand where the fix should be applied
- Be specific about what needs to change
- Explanation should be 2-3 sentences

Respond ONLY with valid JSON, no additional text.`,
		enriched.Endpoint, enriched.StatusCode, enriched.ErrorMessage, rootCause, suggestedFix, stackTrace)
}
