package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexmind-one/nexmind/pkg/models"
	"github.com/nexmind-one/nexmind/pkg/pricing"
)

func newCostCmd() *cobra.Command {
	var (
		configPath       string
		model            string
		promptTokens     int64
		completionTokens int64
		images           int64
		minutes          float64
	)

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Estimate the billed cost of a request",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			table := pricing.NewTable(cfg.Pricing.Margin, cfg.Pricing.Overrides)
			est := table.Estimate(model, models.Usage{
				PromptTokens:     promptTokens,
				CompletionTokens: completionTokens,
				TotalTokens:      promptTokens + completionTokens,
				ImagesGenerated:  images,
				AudioMinutes:     minutes,
			})

			fmt.Printf("Model:       %s\nInput cost:  $%s\nOutput cost: $%s\nTotal cost:  $%s\n",
				est.Model, est.InputCost, est.OutputCost, est.TotalCost)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nexmind.yaml", "path to config file")
	cmd.Flags().StringVar(&model, "model", "gpt-4o-mini", "model to price against")
	cmd.Flags().Int64Var(&promptTokens, "prompt-tokens", 0, "prompt token count")
	cmd.Flags().Int64Var(&completionTokens, "completion-tokens", 0, "completion token count")
	cmd.Flags().Int64Var(&images, "images", 0, "number of generated images")
	cmd.Flags().Float64Var(&minutes, "minutes", 0, "minutes of audio")
	return cmd
}
