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

// CreatePattern persists a detected pattern and returns the Weaviate object
// id. Patterns are immutable once written.
func (s *Store) CreatePattern(ctx context.Context, p *models.Pattern) (string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}

	props := map[string]interface{}{
		"patternId":         p.PatternID,
		"patternType":       p.PatternType,
		"affectedEndpoints": p.AffectedEndpoints,
		"frequency":         p.Frequency,
		"firstSeen":         p.FirstSeen.UTC().Format(time.RFC3339Nano),
		"lastSeen":          p.LastSeen.UTC().Format(time.RFC3339Nano),
		"detectedBy":        p.DetectedBy,
		"likelyRootCause":   p.LikelyRootCause,
	}

	objID := uuid.NewString()
	start := time.Now()
	_, err := s.client.Data().Creator().
		WithClassName(classPattern).
		WithID(objID).
		WithProperties(props).
		Do(ctx)
	monitoring.RecordWeaviateOperation("create", classPattern, time.Since(start), err == nil)
	if err != nil {
		return "", fmt.Errorf("failed to create pattern: %w", err)
	}
	return objID, nil
}

// TopPatterns returns the highest-frequency patterns; ties break on the most
// recently seen.
func (s *Store) TopPatterns(ctx context.Context, limit int) ([]*models.Pattern, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	fields := []graphql.Field{
		{Name: "patternId"},
		{Name: "patternType"},
		{Name: "affectedEndpoints"},
		{Name: "frequency"},
		{Name: "firstSeen"},
		{Name: "lastSeen"},
		{Name: "detectedBy"},
		{Name: "likelyRootCause"},
	}
	byFrequency := graphql.Sort{Path: []string{"frequency"}, Order: graphql.Desc}
	byLastSeen := graphql.Sort{Path: []string{"lastSeen"}, Order: graphql.Desc}

	start := time.Now()
	resp, err := s.client.GraphQL().Get().
		WithClassName(classPattern).
		WithFields(fields...).
		WithSort(byFrequency, byLastSeen).
		WithLimit(limit).
		Do(ctx)
	monitoring.RecordWeaviateOperation("list", classPattern, time.Since(start), err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}

	objects, err := getObjects(resp.Data, classPattern)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Pattern, 0, len(objects))
	for _, props := range objects {
		out = append(out, &models.Pattern{
			PatternID:         propString(props, "patternId"),
			PatternType:       propString(props, "patternType"),
			AffectedEndpoints: propStrings(props, "affectedEndpoints"),
			Frequency:         propInt(props, "frequency"),
			FirstSeen:         propTime(props, "firstSeen"),
			LastSeen:          propTime(props, "lastSeen"),
			DetectedBy:        propString(props, "detectedBy"),
			LikelyRootCause:   propString(props, "likelyRootCause"),
		})
	}
	return out, nil
}
