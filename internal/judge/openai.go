package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/crashlens/crashlens-core/internal/config"
	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/internal/monitoring"
	"github.com/crashlens/crashlens-core/pkg/logger"
)

// OpenAIProvider implements Provider using OpenAI chat completions. Every
// call carries a caller-side timeout; a transport error, malformed response,
// or missing field falls back to the deterministic rules.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      logger.Logger
}

// NewOpenAIProvider creates a new OpenAI-backed judgment provider.
func NewOpenAIProvider(cfg config.JudgeConfig, log logger.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIProvider{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
		logger:      log,
	}, nil
}

func (p *OpenAIProvider) AnalyzeIncident(ctx context.Context, inc models.Incident) IncidentAnalysis {
	prompt := incidentPrompt(inc)

	var analysis IncidentAnalysis
	err := p.complete(ctx, "analyze_incident", triageSystemPrompt, prompt, 500, &analysis)
	if err == nil && (analysis.Severity == "" || analysis.RootCause == "" || analysis.SuggestedFix == "") {
		err = fmt.Errorf("response missing required fields")
	}
	if err != nil {
		p.logger.Warn("Incident analysis fell back to rules", "incident_id", inc.IncidentID, "error", err)
		monitoring.RecordJudgeFallback("analyze_incident")
		return fallbackIncidentAnalysis(inc)
	}

	if !models.IsValidSeverity(analysis.Severity) {
		p.logger.Warn("Invalid severity from provider, defaulting to Medium", "severity", analysis.Severity)
		analysis.Severity = models.SeverityMedium
	}

	return analysis
}

func (p *OpenAIProvider) AnalyzePattern(ctx context.Context, group []models.Incident) PatternAnalysis {
	prompt := patternPrompt(group)

	var analysis PatternAnalysis
	err := p.complete(ctx, "analyze_pattern", patternSystemPrompt, prompt, 500, &analysis)
	if err == nil && (analysis.PatternType == "" || len(analysis.AffectedEndpoints) == 0 || analysis.LikelyRootCause == "") {
		err = fmt.Errorf("response missing required fields")
	}
	if err != nil {
		p.logger.Warn("Pattern analysis fell back to rules", "group_size", len(group), "error", err)
		monitoring.RecordJudgeFallback("analyze_pattern")
		return fallbackPatternAnalysis(group)
	}

	return analysis
}

func (p *OpenAIProvider) GenerateFix(ctx context.Context, enriched models.EnrichedIncident) CodeFix {
	prompt := fixPrompt(enriched)

	var fix CodeFix
	err := p.complete(ctx, "generate_fix", fixSystemPrompt, prompt, p.maxTokens, &fix)
	if err == nil && (fix.CodePatch == "" || fix.Language == "" || fix.Explanation == "") {
		err = fmt.Errorf("response missing required fields")
	}
	if err != nil {
		p.logger.Warn("Fix generation fell back to rules", "incident_id", enriched.IncidentID, "error", err)
		monitoring.RecordJudgeFallback("generate_fix")
		return fallbackCodeFix(enriched)
	}

	return fix
}

// complete runs one chat completion and decodes the JSON object in the
// response into out. The model is instructed to answer with JSON only, but
// the decode still tolerates surrounding prose.
func (p *OpenAIProvider) complete(ctx context.Context, task, system, prompt string, maxTokens int, out interface{}) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(timeoutCtx, openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: p.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		monitoring.RecordJudgeCall(task, time.Since(start), false)
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		monitoring.RecordJudgeCall(task, time.Since(start), false)
		return fmt.Errorf("no choices in response")
	}
	monitoring.RecordJudgeCall(task, time.Since(start), true)

	raw := extractJSON(resp.Choices[0].Message.Content)
	if raw == "" {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// extractJSON returns the outermost {...} blob in s, or "" if there is none.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
