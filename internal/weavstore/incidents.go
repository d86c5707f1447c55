package weavstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/internal/monitoring"
)

// CreateIncident persists an enriched incident and returns the Weaviate
// object id.
func (s *Store) CreateIncident(ctx context.Context, inc *models.EnrichedIncident) (string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}

	props := map[string]interface{}{
		"incidentId":   inc.IncidentID,
		"endpoint":     inc.Endpoint,
		"statusCode":   inc.StatusCode,
		"errorMessage": inc.ErrorMessage,
		"stackTrace":   inc.StackTrace,
		"requestBody":  inc.RequestBody,
		"severity":     inc.Severity,
		"rootCause":    inc.RootCause,
		"suggestedFix": inc.SuggestedFix,
		"analyzedBy":   inc.AnalyzedBy,
		"timestamp":    inc.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	objID := uuid.NewString()
	start := time.Now()
	_, err := s.client.Data().Creator().
		WithClassName(classIncident).
		WithID(objID).
		WithProperties(props).
		Do(ctx)
	monitoring.RecordWeaviateOperation("create", classIncident, time.Since(start), err == nil)
	if err != nil {
		return "", fmt.Errorf("failed to create incident: %w", err)
	}
	return objID, nil
}

// RecentIncidents returns the most recent analyzed incidents, newest first.
func (s *Store) RecentIncidents(ctx context.Context, limit int) ([]*models.EnrichedIncident, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	fields := []graphql.Field{
		{Name: "incidentId"},
		{Name: "endpoint"},
		{Name: "statusCode"},
		{Name: "errorMessage"},
		{Name: "stackTrace"},
		{Name: "requestBody"},
		{Name: "severity"},
		{Name: "rootCause"},
		{Name: "suggestedFix"},
		{Name: "analyzedBy"},
		{Name: "timestamp"},
	}
	sortBy := graphql.Sort{Path: []string{"timestamp"}, Order: graphql.Desc}

	start := time.Now()
	resp, err := s.client.GraphQL().Get().
		WithClassName(classIncident).
		WithFields(fields...).
		WithSort(sortBy).
		WithLimit(limit).
		Do(ctx)
	monitoring.RecordWeaviateOperation("list", classIncident, time.Since(start), err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}

	objects, err := getObjects(resp.Data, classIncident)
	if err != nil {
		return nil, err
	}

	out := make([]*models.EnrichedIncident, 0, len(objects))
	for _, props := range objects {
		out = append(out, &models.EnrichedIncident{
			Incident: models.Incident{
				IncidentID:   propString(props, "incidentId"),
				Endpoint:     propString(props, "endpoint"),
				StatusCode:   propInt(props, "statusCode"),
				ErrorMessage: propString(props, "errorMessage"),
				StackTrace:   propString(props, "stackTrace"),
				RequestBody:  propString(props, "requestBody"),
				Timestamp:    propTime(props, "timestamp"),
			},
			Severity:     propString(props, "severity"),
			RootCause:    propString(props, "rootCause"),
			SuggestedFix: propString(props, "suggestedFix"),
			AnalyzedBy:   propString(props, "analyzedBy"),
		})
	}
	return out, nil
}

func propTime(props map[string]interface{}, key string) time.Time {
	raw := propString(props, key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
