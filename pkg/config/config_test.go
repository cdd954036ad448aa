package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.Pricing.Margin != 0.20 {
		t.Errorf("expected 0.20 margin, got %v", cfg.Pricing.Margin)
	}
	if cfg.Ledger.FreeAllowance != 5 {
		t.Errorf("expected 5 free allowance, got %d", cfg.Ledger.FreeAllowance)
	}
	if cfg.Executor.BaseDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms base delay, got %v", cfg.Executor.BaseDelay)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test-123")

	content := `
listen: ":9090"
db_path: "test.db"
openai:
  api_key: ${TEST_OPENAI_KEY}
  classifier_model: gpt-4o-mini
pricing:
  margin: 0.25
  overrides:
    my-model:
      input: 1.5
      output: 6.0
ledger:
  free_allowance: 10
cache:
  enabled: true
  ttl: 30m
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.OpenAI.APIKey != "sk-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.OpenAI.APIKey)
	}
	if cfg.Pricing.Margin != 0.25 {
		t.Errorf("expected 0.25 margin, got %v", cfg.Pricing.Margin)
	}
	if r, ok := cfg.Pricing.Overrides["my-model"]; !ok || r.Input != 1.5 || r.Output != 6.0 {
		t.Errorf("unexpected override: %+v", cfg.Pricing.Overrides)
	}
	if cfg.Ledger.FreeAllowance != 10 {
		t.Errorf("expected 10 free allowance, got %d", cfg.Ledger.FreeAllowance)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("expected 30m TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Recharge.TokensPerUnit != 10 {
		t.Errorf("default tokens_per_unit lost on load: %v", cfg.Recharge.TokensPerUnit)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}
