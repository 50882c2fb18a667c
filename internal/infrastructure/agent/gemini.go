package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dealscout/backend/internal/domain"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiAgent runs tasks against the Gemini API
type GeminiAgent struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGeminiAgent creates a Gemini-backed agent
func NewGeminiAgent(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiAgent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.timeout()},
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiAgent{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger.Named("gemini"),
	}, nil
}

// Run executes one task. The result exposes the response text as the raw
// accessor and, when that text is valid JSON, its decoded form as structured.
func (a *GeminiAgent) Run(ctx context.Context, task domain.AgentTask) (domain.AgentResult, error) {
	prompt, err := userPrompt(task)
	if err != nil {
		return nil, err
	}

	temperature := a.temperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(task), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	}

	a.logger.Debug("running task", zap.String("task", task.Name), zap.String("model", a.model))

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), config)
	if err != nil {
		a.logger.Warn("task failed", zap.String("task", task.Name), zap.Error(err))
		return nil, fmt.Errorf("%w: gemini: %v", domain.ErrUpstreamUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: gemini returned no text", domain.ErrUpstreamUnavailable)
	}

	return wrapText(text), nil
}

// wrapText exposes model text through the wrapper accessors
func wrapText(text string) domain.WrapperResult {
	return domain.WrapperResult{
		Structured: func() (any, error) {
			if !gjson.Valid(text) {
				return nil, errors.New("response is not valid JSON")
			}
			// Kept as raw bytes so key order survives into shape normalization
			return json.RawMessage(text), nil
		},
		Raw: func() (string, error) {
			return text, nil
		},
	}
}
