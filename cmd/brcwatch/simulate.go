package main

import (
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/config"
	"github.com/helix-lab/helix/brcwatch/pkg/simulate"
	"github.com/helix-lab/helix/brcwatch/pkg/transport"
	"github.com/spf13/cobra"
)

var simFlags struct {
	connBind   string
	txBind     string
	interval   time.Duration
	count      int
	target     uint64
	rejections bool
	seed       int64
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish synthetic broadcaster feeds for testing the watchers.",
	Long: `Binds the connection count and transaction endpoints and publishes ` +
		`on every interval a connection count that wanders around the target ` +
		`and one transaction event (hash, successes, failures). With ` +
		`--rejections it also emits the broadcaster's two-frame rejection ` +
		`messages on the transaction endpoint.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if simFlags.connBind != "" {
			cfg.ConnBind = simFlags.connBind
		}
		if simFlags.txBind != "" {
			cfg.TxBind = simFlags.txBind
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		conns := transport.NewPublisher(ctx, cfg.ConnBind, logger)
		defer conns.Close()
		if err := conns.Listen(); err != nil {
			return err
		}
		txs := transport.NewPublisher(ctx, cfg.TxBind, logger)
		defer txs.Close()
		if err := txs.Listen(); err != nil {
			return err
		}

		return simulate.New(conns, txs, simulate.Config{
			Interval:   simFlags.interval,
			Count:      simFlags.count,
			Target:     simFlags.target,
			Rejections: simFlags.rejections,
			Seed:       simFlags.seed,
			Log:        logger,
		}).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	fl := simulateCmd.Flags()
	fl.StringVar(&simFlags.connBind, "conn-bind", "", "`ENDPOINT` to publish connection counts on (default "+config.Default().ConnBind+")")
	fl.StringVar(&simFlags.txBind, "tx-bind", "", "`ENDPOINT` to publish transactions on (default "+config.Default().TxBind+")")
	fl.DurationVar(&simFlags.interval, "interval", time.Second, "time between published events")
	fl.IntVar(&simFlags.count, "count", 0, "stop after this many events (0 runs until interrupted)")
	fl.Uint64Var(&simFlags.target, "target", config.TargetConnections, "connection count to hover around")
	fl.BoolVar(&simFlags.rejections, "rejections", false, "also publish rejection messages")
	fl.Int64Var(&simFlags.seed, "seed", 0, "random seed (0 picks one from the clock)")
}
