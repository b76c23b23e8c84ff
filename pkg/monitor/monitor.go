// Package monitor runs the receive loops for the broadcaster's two
// publish-subscribe feeds.
//
// Each loop blocks on its frame source, decodes, and hands the value to a
// sink. Neither returns on its own: they end when their context is
// cancelled (returning nil) or on the first receive, decode or sink error.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/metrics"
)

type Config struct {
	Log     *slog.Logger
	Metrics *metrics.Metrics

	// Clock stamps dispatched values. Defaults to time.Now.
	Clock func() time.Time
}

func (c *Config) withDefaults() Config {
	var out Config
	if c != nil {
		out = *c
	}
	if out.Log == nil {
		out.Log = slog.Default()
	}
	if out.Clock == nil {
		out.Clock = time.Now
	}
	return out
}

// stopped reports whether a receive error is just the context ending.
func stopped(ctx context.Context) bool {
	return ctx.Err() != nil
}
