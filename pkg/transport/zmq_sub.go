package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
)

type SubscriberConfig struct {
	// Topic is the subscription prefix. Empty subscribes to everything.
	Topic     string
	DialRetry time.Duration
	Log       *slog.Logger
}

// Subscriber is a SUB socket that hands out received messages one frame at a
// time.
type Subscriber struct {
	ctx      context.Context
	log      *slog.Logger
	endpoint string
	topic    string
	sock     zmq4.Socket

	// Frames of the last multipart message not yet returned by Next.
	pending [][]byte

	frames uint64
}

// NewSubscriber creates a SUB socket bound to ctx: cancelling ctx closes the
// socket and unblocks Next.
func NewSubscriber(ctx context.Context, endpoint string, cfg SubscriberConfig) *Subscriber {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Subscriber{
		ctx:      ctx,
		log:      cfg.Log,
		endpoint: endpoint,
		topic:    cfg.Topic,
		sock:     zmq4.NewSub(ctx, socketOptions(cfg.Log, cfg.DialRetry)...),
	}
}

func (s *Subscriber) Endpoint() string { return s.endpoint }

// Dial connects to the publisher and subscribes to the configured topic.
// With unlimited retries the socket keeps dialing an absent publisher, so
// Dial also returns once the subscriber's context is done.
func (s *Subscriber) Dial() error {
	dialed := make(chan error, 1)
	go func() { dialed <- s.sock.Dial(s.endpoint) }()
	select {
	case err := <-dialed:
		if err != nil {
			return fmt.Errorf("dial %s: %w", s.endpoint, err)
		}
	case <-s.ctx.Done():
		return fmt.Errorf("dial %s: %w", s.endpoint, s.ctx.Err())
	}
	if err := s.sock.SetOption(zmq4.OptionSubscribe, s.topic); err != nil {
		return fmt.Errorf("subscribe %s topic %q: %w", s.endpoint, s.topic, err)
	}
	s.log.Debug("Subscribed", "endpoint", s.endpoint, "topic", s.topic)
	return nil
}

// Next blocks until a frame is available and returns it.
func (s *Subscriber) Next() ([]byte, error) {
	for len(s.pending) == 0 {
		msg, err := s.sock.Recv()
		if err != nil {
			return nil, fmt.Errorf("recv %s: %w", s.endpoint, err)
		}
		s.pending = msg.Frames
	}
	frame := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	atomic.AddUint64(&s.frames, 1)
	return frame, nil
}

// Frames returns the number of frames handed out by Next.
func (s *Subscriber) Frames() uint64 {
	return atomic.LoadUint64(&s.frames)
}

func (s *Subscriber) Close() error {
	return s.sock.Close()
}
