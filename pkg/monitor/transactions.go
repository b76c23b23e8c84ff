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

var txFieldNames = [3]string{"hash", "successes", "failures"}

// TransactionListener groups frames into transaction events by position:
// hash, successes, failures. It does not check that the three frames
// belong together and never resynchronises.
type TransactionListener struct {
	log      *slog.Logger
	endpoint string
	src      transport.FrameSource
	out      sink.TransactionSink
	metrics  *metrics.Metrics
	clock    func() time.Time
}

func NewTransactionListener(
	endpoint string, src transport.FrameSource, out sink.TransactionSink, cfg *Config,
) *TransactionListener {
	c := cfg.withDefaults()
	return &TransactionListener{
		log:      c.Log.With("feed", metrics.FeedTransactions),
		endpoint: endpoint,
		src:      src,
		out:      out,
		metrics:  c.Metrics,
		clock:    c.Clock,
	}
}

// Run loops until ctx is cancelled or a fault occurs.
func (l *TransactionListener) Run(ctx context.Context) error {
	for {
		var fields [3][]byte
		for i := range fields {
			frame, err := l.src.Next()
			if err != nil {
				if stopped(ctx) {
					return nil
				}
				return fmt.Errorf("transaction listener %s: reading %s: %w",
					l.endpoint, txFieldNames[i], err)
			}
			l.metrics.FrameReceived(metrics.FeedTransactions)
			fields[i] = frame
		}
		ev := transport.TransactionEvent{
			Hash:      fields[0],
			Successes: fields[1],
			Failures:  fields[2],
		}
		l.metrics.TransactionEvent()

		prof := latency.Start(metrics.FeedTransactions, l.metrics)
		err := l.out.Transaction(l.clock(), ev)
		elapsed := prof.Stop()
		if err != nil {
			return fmt.Errorf("transaction listener %s: dispatch: %w", l.endpoint, err)
		}
		l.log.Debug("Dispatched transaction", "hash", transport.HexFrame(ev.Hash), "took", elapsed)
	}
}
