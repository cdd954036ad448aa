package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexmind-one/nexmind/pkg/config"
	"github.com/nexmind-one/nexmind/pkg/executor"
	"github.com/nexmind-one/nexmind/pkg/intent"
	"github.com/nexmind-one/nexmind/pkg/ledger"
	"github.com/nexmind-one/nexmind/pkg/llm"
	"github.com/nexmind-one/nexmind/pkg/orchestrator"
	"github.com/nexmind-one/nexmind/pkg/pricing"
	"github.com/nexmind-one/nexmind/pkg/router"
	"github.com/nexmind-one/nexmind/pkg/server"
	"github.com/nexmind-one/nexmind/pkg/usage"
)

// loadConfig reads the config file, falling back to defaults when the default
// path does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the NexMind API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.OpenAI.APIKey == "" {
				return fmt.Errorf("no OpenAI API key configured (set OPENAI_API_KEY or openai.api_key)")
			}

			store, err := ledger.New(cfg.DBPath, cfg.Ledger.FreeAllowance)
			if err != nil {
				return fmt.Errorf("init ledger: %w", err)
			}
			defer func() { _ = store.Close() }()

			tracker, err := usage.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init usage tracker: %w", err)
			}
			defer func() { _ = tracker.Close() }()

			var cache *intent.Cache
			if cfg.Cache.Enabled {
				cache, err = intent.NewCache(cfg.DBPath, cfg.Cache.TTL)
				if err != nil {
					return fmt.Errorf("init intent cache: %w", err)
				}
				defer func() { _ = cache.Close() }()
			}

			client := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
			classifier := intent.New(client, cfg.OpenAI.ClassifierModel, cache)
			exec := executor.New(client, cfg.Executor.MaxAttempts, cfg.Executor.BaseDelay)
			table := pricing.NewTable(cfg.Pricing.Margin, cfg.Pricing.Overrides)

			orch := orchestrator.New(classifier, router.New(), exec, table, store, tracker, cfg.Recharge.TokensPerUnit)
			srv := server.New(cfg, orch, store)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("starting nexmind with config: %s", configPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nexmind.yaml", "path to config file")
	return cmd
}
