package main

import (
	"context"

	"github.com/helix-lab/helix/brcwatch/pkg/config"
	"github.com/helix-lab/helix/brcwatch/pkg/metrics"
	"github.com/helix-lab/helix/brcwatch/pkg/monitor"
	"github.com/helix-lab/helix/brcwatch/pkg/sink"
	"github.com/helix-lab/helix/brcwatch/pkg/transport"
	"github.com/spf13/cobra"
)

var txFlags watchFlags

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"txs"},
	Short:   "Print transaction hashes with their success and failure counts.",
	Long: `Subscribes to the transaction feed and reads three messages per ` +
		`event: the transaction hash, the number of successful relays and ` +
		`the number of failures. Each is printed hex-encoded on its own line. ` +
		`Messages are grouped purely by arrival order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if txFlags.endpoint != "" {
			cfg.TxEndpoint = txFlags.endpoint
		}
		endpoint := cfg.TxEndpoint
		return runWatch(cmd, metrics.FeedTransactions, endpoint, &txFlags,
			func(ctx context.Context, src transport.FrameSource, out sink.Sink, mcfg *monitor.Config) error {
				return monitor.NewTransactionListener(endpoint, src, out, mcfg).Run(ctx)
			})
	},
}

func init() {
	rootCmd.AddCommand(transactionsCmd)
	txFlags.register(transactionsCmd, config.Default().TxEndpoint)
}
