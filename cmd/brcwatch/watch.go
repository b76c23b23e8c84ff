package main

import (
	"context"
	"errors"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/httpapi"
	"github.com/helix-lab/helix/brcwatch/pkg/metrics"
	"github.com/helix-lab/helix/brcwatch/pkg/monitor"
	"github.com/helix-lab/helix/brcwatch/pkg/sink"
	"github.com/helix-lab/helix/brcwatch/pkg/state"
	"github.com/helix-lab/helix/brcwatch/pkg/transport"
	"github.com/helix-lab/helix/brcwatch/pkg/ws"
	"github.com/spf13/cobra"
)

// autoRecord is the value of a bare --record.
const autoRecord = "auto"

const shutdownTimeout = 5 * time.Second

// countLabel is the prefix --labelled puts on connection counts.
const countLabel = "Connections"

type watchFlags struct {
	endpoint string
	topic    string
	record   string
	httpAddr string
	quiet    bool
	labelled bool
}

func (f *watchFlags) register(cmd *cobra.Command, defaultEndpoint string) {
	fl := cmd.Flags()
	fl.StringVar(&f.endpoint, "endpoint", "", "publisher `ENDPOINT` to subscribe to (default "+defaultEndpoint+")")
	fl.StringVar(&f.topic, "topic", "", "subscription prefix; empty receives everything")
	fl.StringVar(&f.record, "record", "", "also record values to `PATH` (.db/.sqlite for SQLite, otherwise CSV); bare --record picks a CSV name")
	fl.Lookup("record").NoOptDefVal = autoRecord
	fl.StringVar(&f.httpAddr, "http-addr", "", "serve /metrics, /ws, /status and /healthz on `ADDR`")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "do not print values to standard output")
}

// recordPath resolves --record: "" and false mean off, autoRecord an
// auto-named CSV file.
func (f *watchFlags) recordPath(set bool) (path string, ok bool) {
	if !set {
		return "", false
	}
	if f.record == autoRecord {
		return "", true
	}
	return f.record, true
}

type loopFunc func(ctx context.Context, src transport.FrameSource, out sink.Sink, mcfg *monitor.Config) error

// runWatch wires a subscriber to the sinks selected by flags and runs loop
// until it returns.
func runWatch(cmd *cobra.Command, feed, endpoint string, f *watchFlags, loop loopFunc) (err error) {
	ctx := cmd.Context()

	if cmd.Flags().Changed("topic") {
		cfg.Topic = f.topic
	}
	if f.httpAddr != "" {
		cfg.HTTPAddr = f.httpAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m := metrics.New()

	var out sink.Fanout
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	if !f.quiet {
		p := sink.NewPrinter(cmd.OutOrStdout())
		if f.labelled {
			p.CountLabel = countLabel
		}
		out = append(out, p)
	}
	if path, ok := f.recordPath(cmd.Flags().Changed("record")); ok {
		r, err := sink.OpenRecorder(path, logger)
		if err != nil {
			return err
		}
		out = append(out, r)
	}
	if cfg.HTTPAddr != "" {
		hub := ws.NewHub(logger)
		tracker := state.NewTracker()
		out = append(out, hub, tracker)

		srv := httpapi.New(httpapi.Config{
			Addr:     cfg.HTTPAddr,
			Gatherer: m.Registry(),
			Relay:    hub,
			Status:   tracker,
			Log:      logger,
		})
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if serr := srv.Shutdown(sctx); serr != nil {
				logger.Warn("Status server shutdown", "err", serr)
			}
		}()
	}

	sub := transport.NewSubscriber(ctx, endpoint, transport.SubscriberConfig{
		Topic:     cfg.Topic,
		DialRetry: cfg.DialRetry,
		Log:       logger,
	})
	defer sub.Close()
	if err := sub.Dial(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	logger.Info("Watching", "feed", feed, "endpoint", endpoint, "topic", cfg.Topic)
	err = loop(ctx, sub, out, &monitor.Config{Log: logger, Metrics: m})
	logger.Info("Stopped", "feed", feed, "frames", sub.Frames())
	return err
}
