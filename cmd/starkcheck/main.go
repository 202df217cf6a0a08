package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NethermindEth/starkcheck/audit"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewCmd(func(cmd *cobra.Command, cfg *audit.Config) error {
		if _, err := fmt.Fprint(cmd.OutOrStdout(), greeting); err != nil {
			return err
		}
		auditor, err := audit.New(cfg)
		if err != nil {
			return err
		}
		defer auditor.Close() //nolint:errcheck

		return auditor.Run(cmd.Context())
	})

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
