package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Pusher submits raw transactions to the broadcaster's PULL socket.
type Pusher struct {
	Endpoint string

	log  *slog.Logger
	sock zmq4.Socket
}

func NewPusher(ctx context.Context, endpoint string, dialRetry time.Duration, log *slog.Logger) *Pusher {
	if log == nil {
		log = slog.Default()
	}
	return &Pusher{
		Endpoint: endpoint,
		log:      log,
		sock:     zmq4.NewPush(ctx, socketOptions(log, dialRetry)...),
	}
}

func (p *Pusher) Dial() error {
	if err := p.sock.Dial(p.Endpoint); err != nil {
		return fmt.Errorf("dial %s: %w", p.Endpoint, err)
	}
	return nil
}

// PushRawTransaction sends one serialized transaction as a single frame.
func (p *Pusher) PushRawTransaction(raw []byte) error {
	if len(raw) == 0 {
		return errors.New("empty transaction")
	}
	if err := p.sock.Send(zmq4.NewMsg(raw)); err != nil {
		return fmt.Errorf("push %s: %w", p.Endpoint, err)
	}
	p.log.Info("Pushed transaction", "endpoint", p.Endpoint, "bytes", len(raw))
	return nil
}

func (p *Pusher) Close() error {
	return p.sock.Close()
}
