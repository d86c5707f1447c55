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

// CreateResolution persists a generated fix and returns the Weaviate object
// id.
func (s *Store) CreateResolution(ctx context.Context, res *models.Resolution) (string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}

	props := map[string]interface{}{
		"resolutionId": res.ResolutionID,
		"incidentId":   res.IncidentID,
		"codePatch":    res.CodePatch,
		"language":     res.Language,
		"explanation":  res.Explanation,
		"generatedBy":  res.GeneratedBy,
		"timestamp":    res.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	objID := uuid.NewString()
	start := time.Now()
	_, err := s.client.Data().Creator().
		WithClassName(classResolution).
		WithID(objID).
		WithProperties(props).
		Do(ctx)
	monitoring.RecordWeaviateOperation("create", classResolution, time.Since(start), err == nil)
	if err != nil {
		return "", fmt.Errorf("failed to create resolution: %w", err)
	}
	return objID, nil
}

// RecentResolutions returns the most recent generated fixes, newest first.
func (s *Store) RecentResolutions(ctx context.Context, limit int) ([]*models.Resolution, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	fields := []graphql.Field{
		{Name: "resolutionId"},
		{Name: "incidentId"},
		{Name: "codePatch"},
		{Name: "language"},
		{Name: "explanation"},
		{Name: "generatedBy"},
		{Name: "timestamp"},
	}
	sortBy := graphql.Sort{Path: []string{"timestamp"}, Order: graphql.Desc}

	start := time.Now()
	resp, err := s.client.GraphQL().Get().
		WithClassName(classResolution).
		WithFields(fields...).
		WithSort(sortBy).
		WithLimit(limit).
		Do(ctx)
	monitoring.RecordWeaviateOperation("list", classResolution, time.Since(start), err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}

	objects, err := getObjects(resp.Data, classResolution)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Resolution, 0, len(objects))
	for _, props := range objects {
		out = append(out, &models.Resolution{
			ResolutionID: propString(props, "resolutionId"),
			IncidentID:   propString(props, "incidentId"),
			CodePatch:    propString(props, "codePatch"),
			Language:     propString(props, "language"),
			Explanation:  propString(props, "explanation"),
			GeneratedBy:  propString(props, "generatedBy"),
			Timestamp:    propTime(props, "timestamp"),
		})
	}
	return out, nil
}
