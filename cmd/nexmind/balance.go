package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nexmind-one/nexmind/pkg/ledger"
)

func newBalanceCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Manage user token balances",
	}

	showCmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := ledger.New(cfg.DBPath, cfg.Ledger.FreeAllowance)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			acct, err := store.Account(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("User:       %s\nBalance:    %d\nLast grant: %s\n",
				acct.UserID, acct.Balance, acct.LastGrantAt.Format("2006-01-02T15:04:05Z"))
			return nil
		},
	}

	creditCmd := &cobra.Command{
		Use:   "credit <user-id> <units>",
		Short: "Credit tokens to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || units <= 0 {
				return fmt.Errorf("units must be a positive integer")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := ledger.New(cfg.DBPath, cfg.Ledger.FreeAllowance)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			balance, err := store.Credit(context.Background(), args[0], units)
			if err != nil {
				return err
			}
			fmt.Printf("Credited %d tokens to %s. New balance: %d\n", units, args[0], balance)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "nexmind.yaml", "path to config file")
	cmd.AddCommand(showCmd, creditCmd)
	return cmd
}
