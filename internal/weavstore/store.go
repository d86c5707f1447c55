// Package weavstore persists crash pipeline documents (incidents, patterns,
// resolutions) in Weaviate via the official v5 client. The store is
// append-only: the pipeline creates documents and serves read queries, it
// never updates or deletes.
package weavstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	wv "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	wm "github.com/weaviate/weaviate/entities/models"

	"github.com/crashlens/crashlens-core/internal/config"
	"github.com/crashlens/crashlens-core/pkg/logger"
)

const (
	classIncident   = "Incident"
	classPattern    = "CrashPattern"
	classResolution = "Resolution"
)

var ErrWeaviateClientNil = errors.New("weaviate client is nil")

// Store wraps the weaviate v5 client for pipeline document operations. All
// access goes through the SDK, no raw HTTP/GraphQL strings.
type Store struct {
	client *wv.Client
	logger logger.Logger

	// schemaInit ensures we attempt to create the classes only once
	schemaInit sync.Once
	schemaErr  error
}

// NewStore builds a Store from configuration.
func NewStore(cfg config.WeaviateConfig, log logger.Logger) (*Store, error) {
	conf := wv.Config{Scheme: cfg.Scheme, Host: cfg.Host}
	if cfg.APIKey != "" {
		conf.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := wv.NewClient(conf)
	if err != nil {
		return nil, fmt.Errorf("weaviate client: %w", err)
	}
	return &Store{client: client, logger: log}, nil
}

// NewStoreWithClient wires an existing client; used by tests.
func NewStoreWithClient(client *wv.Client, log logger.Logger) *Store {
	return &Store{client: client, logger: log}
}

// Ready reports whether Weaviate is reachable and serving.
func (s *Store) Ready(ctx context.Context) error {
	if s.client == nil {
		return ErrWeaviateClientNil
	}
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate readiness: %w", err)
	}
	if !ready {
		return errors.New("weaviate not ready")
	}
	return nil
}

// ensureSchema creates the three pipeline classes if missing. Safe to call
// from every write path; only the first call does work.
func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaInit.Do(func() {
		s.schemaErr = s.createClasses(ctx)
		if s.schemaErr != nil && s.logger != nil {
			s.logger.Warn("weavstore: failed ensuring classes", "error", s.schemaErr)
		}
	})
	return s.schemaErr
}

func (s *Store) createClasses(ctx context.Context) error {
	if s.client == nil {
		return ErrWeaviateClientNil
	}

	classes := []*wm.Class{
		{
			Class:      classIncident,
			Vectorizer: "none",
			Properties: []*wm.Property{
				{Name: "incidentId", DataType: []string{"string"}},
				{Name: "endpoint", DataType: []string{"string"}},
				{Name: "statusCode", DataType: []string{"int"}},
				{Name: "errorMessage", DataType: []string{"text"}},
				{Name: "stackTrace", DataType: []string{"text"}},
				{Name: "requestBody", DataType: []string{"text"}}, // JSON stored as text
				{Name: "severity", DataType: []string{"string"}},
				{Name: "rootCause", DataType: []string{"text"}},
				{Name: "suggestedFix", DataType: []string{"text"}},
				{Name: "analyzedBy", DataType: []string{"string"}},
				{Name: "timestamp", DataType: []string{"date"}},
			},
		},
		{
			Class:      classPattern,
			Vectorizer: "none",
			Properties: []*wm.Property{
				{Name: "patternId", DataType: []string{"string"}},
				{Name: "patternType", DataType: []string{"string"}},
				{Name: "affectedEndpoints", DataType: []string{"string[]"}},
				{Name: "frequency", DataType: []string{"int"}},
				{Name: "firstSeen", DataType: []string{"date"}},
				{Name: "lastSeen", DataType: []string{"date"}},
				{Name: "detectedBy", DataType: []string{"string"}},
				{Name: "likelyRootCause", DataType: []string{"text"}},
			},
		},
		{
			Class:      classResolution,
			Vectorizer: "none",
			Properties: []*wm.Property{
				{Name: "resolutionId", DataType: []string{"string"}},
				{Name: "incidentId", DataType: []string{"string"}},
				{Name: "codePatch", DataType: []string{"text"}},
				{Name: "language", DataType: []string{"string"}},
				{Name: "explanation", DataType: []string{"text"}},
				{Name: "generatedBy", DataType: []string{"string"}},
				{Name: "timestamp", DataType: []string{"date"}},
			},
		},
	}

	for _, classDef := range classes {
		if err := s.client.Schema().ClassCreator().WithClass(classDef).Do(ctx); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("failed to create %s class in Weaviate: %w", classDef.Class, err)
		}
		if s.logger != nil {
			s.logger.Info("weavstore: created class in Weaviate runtime schema", "class", classDef.Class)
		}
	}
	return nil
}

// getObjects extracts the property maps of one class from a GraphQL Get
// response payload.
func getObjects(data map[string]wm.JSONObject, className string) ([]map[string]interface{}, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	raw, ok := get[className].([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if props, ok := item.(map[string]interface{}); ok {
			out = append(out, props)
		}
	}
	return out, nil
}

// Property decode helpers shared by the read queries.

func propString(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func propInt(props map[string]interface{}, key string) int {
	if v, ok := props[key].(float64); ok {
		return int(v)
	}
	return 0
}

func propStrings(props map[string]interface{}, key string) []string {
	raw, ok := props[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
