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

var connFlags watchFlags

var connectionsCmd = &cobra.Command{
	Use:     "connections",
	Aliases: []string{"conns"},
	Short:   "Print the broadcaster's peer connection count as it is published.",
	Long: `Subscribes to the connection count feed and prints every count, one ` +
		`per line. Each message must be an 8-byte little-endian unsigned ` +
		`integer; anything else stops the command with an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if connFlags.endpoint != "" {
			cfg.ConnEndpoint = connFlags.endpoint
		}
		endpoint := cfg.ConnEndpoint
		return runWatch(cmd, metrics.FeedConnections, endpoint, &connFlags,
			func(ctx context.Context, src transport.FrameSource, out sink.Sink, mcfg *monitor.Config) error {
				return monitor.NewConnectionMonitor(endpoint, src, out, mcfg).Run(ctx)
			})
	},
}

func init() {
	rootCmd.AddCommand(connectionsCmd)
	connFlags.register(connectionsCmd, config.Default().ConnEndpoint)
	connectionsCmd.Flags().BoolVar(&connFlags.labelled, "labelled", false,
		`print "Connections: N" instead of the bare count`)
}
