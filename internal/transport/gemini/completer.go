// Package gemini implements the keyword analyzer on the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/metrics"
)

// DefaultModel is a fast model suited to bulk keyword labeling.
const DefaultModel = "gemini-2.5-flash"

const providerName = "gemini"

// Models is the subset of the genai models service used here.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds the Gemini settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// Completer is a keyword analyzer backed by Gemini.
type Completer struct {
	models Models
	model  string
	logger *zap.Logger
}

// NewCompleter creates a Gemini API client.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewCompleterWithModels(client.Models, cfg), nil
}

// NewCompleterWithModels wraps an existing models service.
func NewCompleterWithModels(models Models, cfg *Config) *Completer {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{models: models, model: model, logger: logger}
}

// CompleteJSON asks for a JSON answer and returns its text.
func (c *Completer) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	duration := time.Since(start)

	if err != nil {
		metrics.AnalyzerRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		metrics.AnalyzerErrorsTotal.WithLabelValues(providerName, c.model, "api_error").Inc()
		return "", fmt.Errorf("gemini generate: %w: %w", domain.ErrAnalyzerFailed, err)
	}

	text := ""
	if resp != nil {
		text = resp.Text()
	}
	if text == "" {
		metrics.AnalyzerRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		metrics.AnalyzerErrorsTotal.WithLabelValues(providerName, c.model, "empty_response").Inc()
		return "", fmt.Errorf("empty gemini response: %w", domain.ErrAnalyzerFailed)
	}

	metrics.AnalyzerRequestsTotal.WithLabelValues(providerName, c.model, "success").Inc()
	metrics.AnalyzerRequestDuration.WithLabelValues(providerName, c.model).Observe(duration.Seconds())
	if u := resp.UsageMetadata; u != nil && u.TotalTokenCount > 0 {
		metrics.AnalyzerTokensTotal.WithLabelValues(providerName, c.model, "prompt").Add(float64(u.PromptTokenCount))
		metrics.AnalyzerTokensTotal.WithLabelValues(providerName, c.model, "total").Add(float64(u.TotalTokenCount))
	}
	return text, nil
}

// HealthCheck reports whether the client is usable. The Gemini API has no
// free probe endpoint, so only configuration is checked.
func (c *Completer) HealthCheck(_ context.Context) error {
	if c.models == nil {
		return fmt.Errorf("gemini client: %w", domain.ErrAnalyzerNotConfigured)
	}
	return nil
}
