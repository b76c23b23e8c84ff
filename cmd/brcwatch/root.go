package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/helix-lab/helix/brcwatch/pkg/config"
	"github.com/spf13/cobra"
)

var (
	envFile   string
	logLevel  string
	logFormat string

	// Resolved in PersistentPreRunE, before any subcommand runs.
	cfg    config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brcwatch",
	Short: "Watch the transaction broadcaster's ZeroMQ feeds.",
	Long: `brcwatch subscribes to the broadcaster's publish-subscribe feeds and ` +
		`prints what it receives: the peer connection count (port 9112) and ` +
		`per-transaction success/failure counts (port 9110). It can also ` +
		`simulate the broadcaster and push raw transactions to it (port 9109).

Endpoints and options come from the environment (BRC_* variables, ` +
		`optionally loaded from a .env file) and can be overridden by flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			c.LogFormat = logFormat
		}

		l, err := config.NewLogger(os.Stderr, c.LogLevel, c.LogFormat)
		if err != nil {
			return err
		}
		slog.SetDefault(l)
		cfg, logger = c, l
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", "", "load environment variables from `FILE` (default ./.env if present)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// Execute runs the command line and returns the process exit code. SIGINT
// and SIGTERM cancel the command's context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(rootCmd.ExecuteContext(ctx))
}

// exitCode logs a failed run and maps it to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if logger != nil {
		logger.Error("brcwatch failed", "err", err)
	} else {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return 1
}
