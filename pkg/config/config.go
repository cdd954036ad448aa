package config

import (
	"fmt"
	"os"
	"time"

	"github.com/nexmind-one/nexmind/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all NexMind configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	DBPath    string          `yaml:"db_path"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Recharge  RechargeConfig  `yaml:"recharge"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Executor  ExecutorConfig  `yaml:"executor"`
}

// OpenAIConfig defines the upstream completion service.
type OpenAIConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	ClassifierModel string `yaml:"classifier_model"`
}

// PricingConfig controls the rate card used for cost estimates.
// Overrides merge over the embedded default table. A zero margin sells at
// cost; a negative margin selects the built-in default.
type PricingConfig struct {
	Margin    float64                     `yaml:"margin"`
	Overrides map[string]models.ModelRate `yaml:"overrides"`
}

// LedgerConfig controls the token ledger.
type LedgerConfig struct {
	FreeAllowance int64 `yaml:"free_allowance"`
}

// RechargeConfig controls how payment confirmations convert to tokens.
type RechargeConfig struct {
	TokensPerUnit float64 `yaml:"tokens_per_unit"`
}

// AuthConfig controls user identification in the HTTP layer. When disabled,
// the X-User-ID header is trusted as-is.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// CacheConfig controls the intent classification cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// RateLimitConfig controls per-IP request throttling.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ExecutorConfig controls retry behavior for upstream calls.
type ExecutorConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "nexmind.db",
		OpenAI: OpenAIConfig{
			APIKey:          os.Getenv("OPENAI_API_KEY"),
			ClassifierModel: "gpt-4o-mini",
		},
		Pricing: PricingConfig{
			Margin: 0.20,
		},
		Ledger: LedgerConfig{
			FreeAllowance: 5,
		},
		Recharge: RechargeConfig{
			TokensPerUnit: 10,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
		Executor: ExecutorConfig{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
