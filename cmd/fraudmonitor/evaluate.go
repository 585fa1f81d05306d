package main

import (
	"context"
	"encoding/json"
	"fmt"
	"fraud_monitor/internal/domain"
	"os"

	"github.com/spf13/cobra"
)

func evaluateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [event.json]",
		Short: "Dry-run the fraud rules against one event without persisting it",
		Long: `Reads a transaction event in the API's JSON format and prints the
reasons the configured rules would flag it for. History based rules read
from the configured store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read event: %w", err)
			}
			var event domain.TransactionEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}

			a, err := opts.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background())

			reasons, err := a.Processor.Evaluate(cmd.Context(), &event)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(reasons) == 0 {
				fmt.Fprintln(out, "clean: no rules triggered")
				return nil
			}
			fmt.Fprintf(out, "fraudulent: %d rule(s) triggered\n", len(reasons))
			for _, reason := range reasons {
				fmt.Fprintf(out, "  - %s\n", reason)
			}
			return nil
		},
	}
}
