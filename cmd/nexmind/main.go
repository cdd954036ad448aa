package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "nexmind",
		Short:   "NexMind — adaptive LLM request orchestrator",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newBalanceCmd(),
		newStatsCmd(),
		newCostCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
