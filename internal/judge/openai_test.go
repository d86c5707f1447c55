package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openai "github.com/sashabaranov/go-openai"

	"github.com/crashlens/crashlens-core/internal/config"
	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/pkg/logger"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"severity": "High"}`, `{"severity": "High"}`},
		{"Here you go:\n```json\n{\"severity\": \"High\"}\n```", `{"severity": "High"}`},
		{`prefix {"a": {"b": 1}} suffix`, `{"a": {"b": 1}}`},
		{"no json here", ""},
		{"} inverted {", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSON(tt.in), tt.in)
	}
}

// chatServer fakes the chat-completions endpoint, answering with the given
// message content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func providerFor(t *testing.T, baseURL string) *OpenAIProvider {
	t.Helper()
	clientConfig := openai.DefaultConfig("test-key")
	clientConfig.BaseURL = baseURL
	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     "gpt-4o-mini",
		maxTokens: 800,
		timeout:   5 * time.Second,
		logger:    logger.New("error"),
	}
}

func TestOpenAIProvider_AnalyzeIncident(t *testing.T) {
	srv := chatServer(t, `{"severity": "Critical", "rootCause": "Connection pool exhausted", "suggestedFix": "Raise pool size"}`)
	defer srv.Close()

	p := providerFor(t, srv.URL+"/v1")
	analysis := p.AnalyzeIncident(context.Background(), models.Incident{
		IncidentID: "inc_1", Endpoint: "/api/pay", StatusCode: 500, ErrorMessage: "db down",
	})
	assert.Equal(t, models.SeverityCritical, analysis.Severity)
	assert.Equal(t, "Connection pool exhausted", analysis.RootCause)
	assert.Equal(t, "Raise pool size", analysis.SuggestedFix)
}

func TestOpenAIProvider_InvalidSeverityDefaultsToMedium(t *testing.T) {
	srv := chatServer(t, `{"severity": "Catastrophic", "rootCause": "x", "suggestedFix": "y"}`)
	defer srv.Close()

	p := providerFor(t, srv.URL+"/v1")
	analysis := p.AnalyzeIncident(context.Background(), models.Incident{StatusCode: 500, ErrorMessage: "boom"})
	assert.Equal(t, models.SeverityMedium, analysis.Severity)
	assert.Equal(t, "x", analysis.RootCause)
}

func TestOpenAIProvider_MissingFieldsFallsBack(t *testing.T) {
	srv := chatServer(t, `{"severity": "High"}`)
	defer srv.Close()

	p := providerFor(t, srv.URL+"/v1")
	analysis := p.AnalyzeIncident(context.Background(), models.Incident{
		StatusCode: 500, ErrorMessage: "database connection lost",
	})
	// Rule-based judgment for a database error.
	assert.Equal(t, models.SeverityCritical, analysis.Severity)
	assert.Equal(t, "Database connection issue", analysis.RootCause)
}

func TestOpenAIProvider_ProseWrappedJSONAccepted(t *testing.T) {
	srv := chatServer(t, "Sure! Here is the analysis:\n```json\n{\"severity\": \"High\", \"rootCause\": \"r\", \"suggestedFix\": \"f\"}\n```")
	defer srv.Close()

	p := providerFor(t, srv.URL+"/v1")
	analysis := p.AnalyzeIncident(context.Background(), models.Incident{StatusCode: 500, ErrorMessage: "boom"})
	assert.Equal(t, models.SeverityHigh, analysis.Severity)
	assert.Equal(t, "r", analysis.RootCause)
}

func TestOpenAIProvider_TransportErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := providerFor(t, srv.URL+"/v1")

	analysis := p.AnalyzeIncident(context.Background(), models.Incident{StatusCode: 503, ErrorMessage: "timeout upstream"})
	assert.Equal(t, models.SeverityHigh, analysis.Severity)
	assert.Equal(t, "Request timeout", analysis.RootCause)

	pattern := p.AnalyzePattern(context.Background(), []models.Incident{
		{Endpoint: "/api/pay", ErrorMessage: "timeout upstream"},
	})
	assert.Contains(t, pattern.PatternType, "Repeated errors")

	fix := p.GenerateFix(context.Background(), models.EnrichedIncident{
		Incident: models.Incident{ErrorMessage: "timeout upstream"},
		Severity: models.SeverityHigh,
	})
	assert.NotEmpty(t, fix.CodePatch)
}

func TestOpenAIProvider_AnalyzePattern(t *testing.T) {
	srv := chatServer(t, `{"patternType": "Null dereference burst", "affectedEndpoints": ["/api/pay"], "likelyRootCause": "Missing null guard"}`)
	defer srv.Close()

	p := providerFor(t, srv.URL+"/v1")
	group := make([]models.Incident, 5)
	for i := range group {
		group[i] = models.Incident{
			IncidentID:   fmt.Sprintf("inc_%d", i),
			Endpoint:     "/api/pay",
			ErrorMessage: "Cannot read property id of undefined",
		}
	}
	analysis := p.AnalyzePattern(context.Background(), group)
	assert.Equal(t, "Null dereference burst", analysis.PatternType)
	assert.Equal(t, []string{"/api/pay"}, analysis.AffectedEndpoints)
}

func TestOpenAIProvider_GenerateFix(t *testing.T) {
	srv := chatServer(t, `{"codePatch": "if (!obj) return;", "language": "JavaScript", "explanation": "Guard against null"}`)
	defer srv.Close()

	p := providerFor(t, srv.URL+"/v1")
	fix := p.GenerateFix(context.Background(), models.EnrichedIncident{
		Incident: models.Incident{IncidentID: "inc_1", ErrorMessage: "boom"},
		Severity: models.SeverityHigh,
	})
	assert.Equal(t, "if (!obj) return;", fix.CodePatch)
	assert.Equal(t, "JavaScript", fix.Language)
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(config.JudgeConfig{}, logger.New("error"))
	require.Error(t, err)
}
