package main

import (
	"context"
	"fmt"
	"fraud_monitor/internal/domain"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func alertsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect and close fraud alerts",
	}
	cmd.AddCommand(alertsListCmd(opts))
	cmd.AddCommand(alertsCloseCmd(opts))
	return cmd
}

func alertsListCmd(opts *rootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts by status, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background())

			alerts, err := a.Alerts.ListAlerts(cmd.Context(), domain.AlertStatus(status))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTRANSACTION\tACCOUNT\tSTATUS\tCREATED\tREASONS")
			for _, alert := range alerts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					alert.ID, alert.TransactionID, alert.AccountID, alert.Status,
					alert.CreatedAt.Format(time.RFC3339), alert.Reasons)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", string(domain.AlertOpen), "Alert status to list (OPEN or CLOSED)")

	return cmd
}

func alertsCloseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close [alert-id]",
		Short: "Close an open alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background())

			alert, err := a.Alerts.CloseAlert(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "alert %s is %s (version %d)\n", alert.ID, alert.Status, alert.Version)
			return nil
		},
	}
}
