package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Firecrawl  FirecrawlConfig  `mapstructure:"firecrawl"`
	Exa        ExaConfig        `mapstructure:"exa"`
	DuckDuckGo DuckDuckGoConfig `mapstructure:"duckduckgo"`
	Agent      AgentConfig      `mapstructure:"agent"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FirecrawlConfig holds scraping service configuration
type FirecrawlConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ExaConfig holds Exa search configuration
type ExaConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	NumResults     int           `mapstructure:"num_results"`
	SimilarResults int           `mapstructure:"similar_results"`
}

// DuckDuckGoConfig holds web search configuration
type DuckDuckGoConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
}

// AgentConfig holds language-model configuration
type AgentConfig struct {
	Provider string        `mapstructure:"provider"` // "gemini" or "openai"
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds outbound requests-per-second limits
type RateLimitConfig struct {
	Firecrawl  float64 `mapstructure:"firecrawl"`
	Exa        float64 `mapstructure:"exa"`
	DuckDuckGo float64 `mapstructure:"duckduckgo"`
}

// DefaultsConfig holds values used for missing record fields
type DefaultsConfig struct {
	UnknownTitle        string `mapstructure:"unknown_title"`
	PlaceholderImageURL string `mapstructure:"placeholder_image_url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dealscout/")

	// Environment variable settings: firecrawl.api_key <- DEALSCOUT_FIRECRAWL_API_KEY
	v.SetEnvPrefix("DEALSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Keys without a meaningful default are registered empty so env vars bind.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:5174"})

	// Firecrawl defaults
	v.SetDefault("firecrawl.api_key", "")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev")
	v.SetDefault("firecrawl.timeout", "20s")

	// Exa defaults
	v.SetDefault("exa.api_key", "")
	v.SetDefault("exa.base_url", "https://api.exa.ai")
	v.SetDefault("exa.timeout", "10s")
	v.SetDefault("exa.num_results", 5)
	v.SetDefault("exa.similar_results", 10)

	// DuckDuckGo defaults
	v.SetDefault("duckduckgo.base_url", "https://html.duckduckgo.com")
	v.SetDefault("duckduckgo.timeout", "10s")
	v.SetDefault("duckduckgo.max_results", 5)

	// Agent defaults
	v.SetDefault("agent.provider", "gemini")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.model", "gemini-2.0-flash")
	v.SetDefault("agent.base_url", "")
	v.SetDefault("agent.timeout", "60s")

	// Rate limit defaults
	v.SetDefault("ratelimit.firecrawl", 2)
	v.SetDefault("ratelimit.exa", 5)
	v.SetDefault("ratelimit.duckduckgo", 1)

	// Record defaults
	v.SetDefault("defaults.unknown_title", "Unknown Product")
	v.SetDefault("defaults.placeholder_image_url", "https://via.placeholder.com/400")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Firecrawl.APIKey == "" {
		return fmt.Errorf("Firecrawl API key is required (set DEALSCOUT_FIRECRAWL_API_KEY)")
	}

	if config.Exa.APIKey == "" {
		return fmt.Errorf("Exa API key is required (set DEALSCOUT_EXA_API_KEY)")
	}

	if config.Agent.APIKey == "" {
		return fmt.Errorf("agent API key is required (set DEALSCOUT_AGENT_API_KEY)")
	}

	if config.Agent.Provider != "gemini" && config.Agent.Provider != "openai" {
		return fmt.Errorf("agent provider must be 'gemini' or 'openai', got: %s", config.Agent.Provider)
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	if config.Exa.NumResults <= 0 || config.Exa.SimilarResults <= 0 || config.DuckDuckGo.MaxResults <= 0 {
		return fmt.Errorf("result counts must be positive")
	}

	return nil
}
