package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nexmind-one/nexmind/pkg/usage"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		userID     string
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show request and token usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			tr, err := usage.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			ctx := context.Background()

			// Recent request detail view
			if recent > 0 {
				if userID == "" {
					return fmt.Errorf("--recent requires --user")
				}
				records, err := tr.Recent(ctx, userID, recent)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("No usage data found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tCATEGORY\tMODEL\tTIER\tTOKENS\tCOST\tATTEMPTS\tLATENCY")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t$%.6f\t%d\t%dms\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.Category, r.Model, r.Tier,
						r.TotalTokens, r.Cost, r.Attempts, r.LatencyMs)
				}
				return w.Flush()
			}

			// Default: usage summary
			summaries, err := tr.Summary(ctx, userID)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tMODEL\tREQUESTS\tPROMPT\tCOMPLETION\tTOTAL\tCOST")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t$%.6f\n",
					s.UserID, s.Model, s.RequestCount, s.TotalPrompt, s.TotalCompletion, s.TotalTokens, s.TotalCost)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nexmind.yaml", "path to config file")
	cmd.Flags().StringVar(&userID, "user", "", "filter by user ID")
	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent requests for a user")
	return cmd
}
