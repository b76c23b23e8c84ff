// Package simulate stands in for the broadcaster: it publishes connection
// counts and transaction outcomes in the broadcaster's wire formats so the
// watchers can be exercised without a live node.
package simulate

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/transport"
)

// Reasons the broadcaster attaches to rejections.
const (
	ReasonBadStream = "bad data stream"
	ReasonTimedOut  = "operation timed out"
)

// rejectEvery is how often, in events, a rejection is emitted when enabled.
const rejectEvery = 5

type ConnectionPublisher interface {
	PublishConnectionCount(n uint64) error
}

type TransactionPublisher interface {
	PublishTransaction(ev transport.TransactionEvent) error
	PublishRejection(r transport.Rejection) error
}

type Config struct {
	Interval time.Duration
	// Count stops the run after that many steps. Zero runs until cancelled.
	Count int
	// Target is the connection count the random walk hovers around.
	Target     uint64
	Rejections bool
	Seed       int64
	Log        *slog.Logger
}

type Simulator struct {
	log   *slog.Logger
	conns ConnectionPublisher
	txs   TransactionPublisher
	cfg   Config
	rng   *rand.Rand

	connections uint64
	steps       int
}

func New(conns ConnectionPublisher, txs TransactionPublisher, cfg Config) *Simulator {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Simulator{
		log:         cfg.Log,
		conns:       conns,
		txs:         txs,
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		connections: cfg.Target,
	}
}

// Run publishes one step per interval until ctx is done or Count steps
// have been published.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for s.cfg.Count == 0 || s.steps < s.cfg.Count {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Step(); err != nil {
				return err
			}
		}
	}
	s.log.Info("Simulation finished", "steps", s.steps)
	return nil
}

// Step publishes a connection count and one transaction event, and every
// rejectEvery steps a rejection when enabled.
func (s *Simulator) Step() error {
	s.steps++

	s.connections = s.walk(s.connections)
	if err := s.conns.PublishConnectionCount(s.connections); err != nil {
		return err
	}

	ev := s.transaction()
	if err := s.txs.PublishTransaction(ev); err != nil {
		return err
	}
	s.log.Debug("Published", "connections", s.connections, "hash", transport.HexFrame(ev.Hash))

	if s.cfg.Rejections && s.steps%rejectEvery == 0 {
		if err := s.txs.PublishRejection(s.rejection(ev.Hash)); err != nil {
			return err
		}
	}
	return nil
}

// walk moves n by -1, 0 or +1, never below zero.
func (s *Simulator) walk(n uint64) uint64 {
	switch s.rng.Intn(3) {
	case 0:
		if n > 0 {
			n--
		}
	case 2:
		n++
	}
	return n
}

func (s *Simulator) transaction() transport.TransactionEvent {
	hash := make([]byte, 32)
	_, _ = s.rng.Read(hash)

	// Every connected peer either took the transaction or failed to.
	succeeded := uint64(0)
	if s.connections > 0 {
		succeeded = uint64(s.rng.Int63n(int64(s.connections) + 1))
	}
	return transport.TransactionEvent{
		Hash:      hash,
		Successes: transport.EncodeConnectionCount(succeeded),
		Failures:  transport.EncodeConnectionCount(s.connections - succeeded),
	}
}

// rejection alternates between the broadcaster's two failure paths: an
// unparseable transaction reported against the null hash, and a send
// failure reported against the transaction's own hash.
func (s *Simulator) rejection(hash []byte) transport.Rejection {
	if (s.steps/rejectEvery)%2 == 1 {
		return transport.Rejection{Hash: make([]byte, 32), Reason: ReasonBadStream}
	}
	return transport.Rejection{Hash: hash, Reason: ReasonTimedOut}
}
