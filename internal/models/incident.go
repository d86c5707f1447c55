package models

import "time"

// Severity levels assigned by triage analysis.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// ValidSeverities lists every severity triage may assign.
var ValidSeverities = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// IsValidSeverity reports whether s is a known severity label.
func IsValidSeverity(s string) bool {
	for _, v := range ValidSeverities {
		if s == v {
			return true
		}
	}
	return false
}

// IsFixable reports whether an incident of the given severity qualifies for
// automatic fix generation. The allow-list is fixed: only Critical and High
// incidents get a proposed code fix.
func IsFixable(severity string) bool {
	return severity == SeverityCritical || severity == SeverityHigh
}

// Incident is a raw crash report as accepted at ingress. Incidents are
// read-only once created; triage supersedes them with an EnrichedIncident
// rather than mutating in place.
type Incident struct {
	IncidentID   string    `json:"incident_id"`
	Endpoint     string    `json:"endpoint"`
	StatusCode   int       `json:"status_code"`
	ErrorMessage string    `json:"error_message"`
	StackTrace   string    `json:"stack_trace,omitempty"`
	RequestBody  string    `json:"request_body,omitempty"` // serialized JSON payload, if any
	Timestamp    time.Time `json:"timestamp"`
}

// EnrichedIncident is an Incident plus the triage judgment.
type EnrichedIncident struct {
	Incident
	Severity     string `json:"severity"`
	RootCause    string `json:"root_cause"`
	SuggestedFix string `json:"suggested_fix"`
	AnalyzedBy   string `json:"analyzed_by"`
}

// Pattern is a group of similar incidents detected within the sliding window.
// Created once per triggering group, immutable after creation.
type Pattern struct {
	PatternID         string    `json:"pattern_id"`
	PatternType       string    `json:"pattern_type"`
	AffectedEndpoints []string  `json:"affected_endpoints"`
	Frequency         int       `json:"frequency"`
	FirstSeen         time.Time `json:"first_seen"`
	LastSeen          time.Time `json:"last_seen"`
	DetectedBy        string    `json:"detected_by"`
	LikelyRootCause   string    `json:"likely_root_cause"`
}

// Resolution is a generated code fix for a fixable analyzed incident.
type Resolution struct {
	ResolutionID string    `json:"resolution_id"`
	IncidentID   string    `json:"incident_id"`
	CodePatch    string    `json:"code_patch"`
	Language     string    `json:"language"`
	Explanation  string    `json:"explanation"`
	GeneratedBy  string    `json:"generated_by"`
	Timestamp    time.Time `json:"timestamp"`
}

// ActivityEvent is a short human-readable progress notice published by an
// agent to the activity stream.
type ActivityEvent struct {
	Agent     string `json:"agent"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}
