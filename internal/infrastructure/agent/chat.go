package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dealscout/backend/internal/domain"
	"go.uber.org/zap"
)

// ChatAgent runs tasks against an OpenAI-compatible chat completions
// endpoint such as OpenRouter
type ChatAgent struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float32
	logger      *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewChatAgent creates a chat-completions agent
func NewChatAgent(cfg Config, logger *zap.Logger) (*ChatAgent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chat agent API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	return &ChatAgent{
		httpClient:  &http.Client{Timeout: cfg.timeout()},
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.Named("chat"),
	}, nil
}

// Run executes one task and returns the first choice as text
func (a *ChatAgent) Run(ctx context.Context, task domain.AgentTask) (domain.AgentResult, error) {
	prompt, err := userPrompt(task)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(task)},
			{Role: "user", Content: prompt},
		},
		Temperature:    a.temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "DealScout")

	a.logger.Debug("running task", zap.String("task", task.Name), zap.String("model", a.model))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Warn("task failed", zap.String("task", task.Name), zap.Error(err))
		return nil, fmt.Errorf("%w: chat: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: chat: reading body: %v", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("chat returned error status",
			zap.String("task", task.Name),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("%w: chat status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: chat: decoding response: %v", domain.ErrUpstreamUnavailable, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: chat: %s", domain.ErrUpstreamUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: chat returned no choices", domain.ErrUpstreamUnavailable)
	}

	return domain.TextResult(parsed.Choices[0].Message.Content), nil
}
