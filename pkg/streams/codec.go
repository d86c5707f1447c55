package streams

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crashlens/crashlens-core/internal/models"
)

// Stream messages are flat field-value maps; these helpers map the pipeline's
// typed records onto wire fields and back. All values travel as strings.

// IncidentValues flattens a raw incident for the incidents stream.
func IncidentValues(inc models.Incident) map[string]interface{} {
	return map[string]interface{}{
		"incident_id":   inc.IncidentID,
		"endpoint":      inc.Endpoint,
		"status_code":   strconv.Itoa(inc.StatusCode),
		"error_message": inc.ErrorMessage,
		"stack_trace":   inc.StackTrace,
		"request_body":  inc.RequestBody,
		"timestamp":     inc.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// ParseIncident rebuilds an incident from stream fields.
func ParseIncident(msg Message) (models.Incident, error) {
	incidentID := stringField(msg.Values, "incident_id")
	if incidentID == "" {
		return models.Incident{}, fmt.Errorf("message %s: missing incident_id", msg.ID)
	}
	endpoint := stringField(msg.Values, "endpoint")
	if endpoint == "" {
		return models.Incident{}, fmt.Errorf("message %s: missing endpoint", msg.ID)
	}
	errorMessage := stringField(msg.Values, "error_message")
	if errorMessage == "" {
		return models.Incident{}, fmt.Errorf("message %s: missing error_message", msg.ID)
	}
	statusCode, err := intField(msg.Values, "status_code")
	if err != nil {
		return models.Incident{}, fmt.Errorf("message %s: %w", msg.ID, err)
	}

	return models.Incident{
		IncidentID:   incidentID,
		Endpoint:     endpoint,
		StatusCode:   statusCode,
		ErrorMessage: errorMessage,
		StackTrace:   stringField(msg.Values, "stack_trace"),
		RequestBody:  stringField(msg.Values, "request_body"),
		Timestamp:    timeField(msg.Values, "timestamp"),
	}, nil
}

// AnalyzedValues flattens a triaged incident for the incident-analyzed
// stream. The original crash context rides along so the resolution stage can
// build a fix prompt without a store round-trip.
func AnalyzedValues(enriched models.EnrichedIncident) map[string]interface{} {
	return map[string]interface{}{
		"incident_id":   enriched.IncidentID,
		"severity":      enriched.Severity,
		"root_cause":    enriched.RootCause,
		"suggested_fix": enriched.SuggestedFix,
		"endpoint":      enriched.Endpoint,
		"status_code":   strconv.Itoa(enriched.StatusCode),
		"error_message": enriched.ErrorMessage,
		"stack_trace":   enriched.StackTrace,
		"timestamp":     enriched.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// ParseAnalyzed rebuilds an enriched incident from an incident-analyzed
// message. Only incident_id and severity are mandatory; the rest degrade to
// empty values so a fix can still be attempted from partial context.
func ParseAnalyzed(msg Message) (models.EnrichedIncident, error) {
	incidentID := stringField(msg.Values, "incident_id")
	if incidentID == "" {
		return models.EnrichedIncident{}, fmt.Errorf("message %s: missing incident_id", msg.ID)
	}
	severity := stringField(msg.Values, "severity")
	if severity == "" {
		return models.EnrichedIncident{}, fmt.Errorf("message %s: missing severity", msg.ID)
	}

	statusCode, err := intField(msg.Values, "status_code")
	if err != nil {
		statusCode = 500
	}

	return models.EnrichedIncident{
		Incident: models.Incident{
			IncidentID:   incidentID,
			Endpoint:     stringField(msg.Values, "endpoint"),
			StatusCode:   statusCode,
			ErrorMessage: stringField(msg.Values, "error_message"),
			StackTrace:   stringField(msg.Values, "stack_trace"),
			Timestamp:    timeField(msg.Values, "timestamp"),
		},
		Severity:     severity,
		RootCause:    stringField(msg.Values, "root_cause"),
		SuggestedFix: stringField(msg.Values, "suggested_fix"),
	}, nil
}

// PatternValues flattens a detected pattern for the pattern-detected stream.
func PatternValues(p models.Pattern) map[string]interface{} {
	return map[string]interface{}{
		"pattern_id":         p.PatternID,
		"pattern_type":       p.PatternType,
		"affected_endpoints": strings.Join(p.AffectedEndpoints, ","),
		"frequency":          strconv.Itoa(p.Frequency),
		"likely_root_cause":  p.LikelyRootCause,
		"timestamp":          time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// FixValues flattens a generated resolution for the fix-proposed stream.
func FixValues(res models.Resolution) map[string]interface{} {
	return map[string]interface{}{
		"incident_id":   res.IncidentID,
		"resolution_id": res.ResolutionID,
		"code_patch":    res.CodePatch,
		"language":      res.Language,
		"timestamp":     res.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// ActivityValues flattens an agent progress notice.
func ActivityValues(ev models.ActivityEvent) map[string]interface{} {
	return map[string]interface{}{
		"agent":     ev.Agent,
		"action":    ev.Action,
		"timestamp": ev.Timestamp,
	}
}

// ParseActivity rebuilds an activity notice from stream fields.
func ParseActivity(msg Message) models.ActivityEvent {
	return models.ActivityEvent{
		Agent:     stringField(msg.Values, "agent"),
		Action:    stringField(msg.Values, "action"),
		Timestamp: stringField(msg.Values, "timestamp"),
	}
}

func stringField(values map[string]interface{}, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}

func intField(values map[string]interface{}, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func timeField(values map[string]interface{}, key string) time.Time {
	raw, ok := values[key]
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, fmt.Sprint(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}
