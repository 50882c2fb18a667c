// Package agent provides language-model backends that run role/goal/task
// prompts and return their output as domain.AgentResult values.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/dealscout/backend/internal/domain"
	"go.uber.org/zap"
)

// Supported providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds agent backend settings
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
}

func (c Config) timeout() time.Duration {
	if c.Timeout == 0 {
		return 60 * time.Second
	}
	return c.Timeout
}

// New creates the agent backend selected by cfg.Provider
func New(ctx context.Context, cfg Config, logger *zap.Logger) (domain.Agent, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("agent")

	switch cfg.Provider {
	case ProviderGemini, "":
		gemini, err := NewGeminiAgent(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case ProviderOpenAI:
		chat, err := NewChatAgent(cfg, logger)
		if err != nil {
			return nil, err
		}
		return chat, nil
	default:
		return nil, fmt.Errorf("unknown agent provider %q", cfg.Provider)
	}
}
