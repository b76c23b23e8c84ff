package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/latency"
	"github.com/helix-lab/helix/brcwatch/pkg/metrics"
	"github.com/helix-lab/helix/brcwatch/pkg/sink"
	"github.com/helix-lab/helix/brcwatch/pkg/transport"
)

// ConnectionMonitor decodes every frame as a connection count.
type ConnectionMonitor struct {
	log      *slog.Logger
	endpoint string
	src      transport.FrameSource
	out      sink.ConnectionSink
	metrics  *metrics.Metrics
	clock    func() time.Time
}

func NewConnectionMonitor(
	endpoint string, src transport.FrameSource, out sink.ConnectionSink, cfg *Config,
) *ConnectionMonitor {
	c := cfg.withDefaults()
	return &ConnectionMonitor{
		log:      c.Log.With("feed", metrics.FeedConnections),
		endpoint: endpoint,
		src:      src,
		out:      out,
		metrics:  c.Metrics,
		clock:    c.Clock,
	}
}

// Run loops until ctx is cancelled or a fault occurs. A frame that is not
// exactly 8 bytes is a fault.
func (m *ConnectionMonitor) Run(ctx context.Context) error {
	for {
		frame, err := m.src.Next()
		if err != nil {
			if stopped(ctx) {
				return nil
			}
			return fmt.Errorf("connection monitor %s: %w", m.endpoint, err)
		}
		m.metrics.FrameReceived(metrics.FeedConnections)

		n, err := transport.DecodeConnectionCount(frame)
		if err != nil {
			m.metrics.DecodeError(metrics.FeedConnections)
			return fmt.Errorf("connection monitor %s: %w", m.endpoint, err)
		}
		m.metrics.SetConnectionCount(n)

		prof := latency.Start(metrics.FeedConnections, m.metrics)
		err = m.out.ConnectionCount(m.clock(), n)
		elapsed := prof.Stop()
		if err != nil {
			return fmt.Errorf("connection monitor %s: dispatch: %w", m.endpoint, err)
		}
		m.log.Debug("Dispatched connection count", "count", n, "took", elapsed)
	}
}
