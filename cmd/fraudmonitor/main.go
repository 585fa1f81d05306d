package main

import (
	"fmt"
	"fraud_monitor/internal/app"
	"fraud_monitor/internal/config"
	"io"
	"log/slog"
	"os"
	"strings"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

const appName = "fraud_monitor"

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "fraudmonitor",
		Short:         "Rule based fraud detection for transaction events",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(evaluateCmd(opts))
	rootCmd.AddCommand(alertsCmd(opts))

	return rootCmd
}

// bootstrap loads configuration and wires the application. Logs go to w.
func (o *rootOptions) bootstrap(w io.Writer) (*app.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := setupLogger(cfg.Log, w)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return app.New(cfg, logger)
}

func setupLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With(slog.String("app", appName)), nil
}
