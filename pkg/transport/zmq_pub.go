package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/go-zeromq/zmq4"
)

// Publisher is a PUB socket that speaks the broadcaster's wire formats.
type Publisher struct {
	Endpoint string

	log  *slog.Logger
	sock zmq4.Socket
}

func NewPublisher(ctx context.Context, endpoint string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		Endpoint: endpoint,
		log:      log,
		sock:     zmq4.NewPub(ctx, socketOptions(log, 0)...),
	}
}

// Listen binds the publisher's endpoint.
func (p *Publisher) Listen() error {
	if err := p.sock.Listen(p.Endpoint); err != nil {
		return fmt.Errorf("listen %s: %w", p.Endpoint, err)
	}
	p.log.Info("Publishing", "endpoint", p.Endpoint)
	return nil
}

// Addr is the bound address, or nil before Listen.
func (p *Publisher) Addr() net.Addr {
	return p.sock.Addr()
}

func (p *Publisher) PublishConnectionCount(n uint64) error {
	return p.send(zmq4.NewMsg(EncodeConnectionCount(n)))
}

// PublishTransaction sends the event as three single-frame messages.
func (p *Publisher) PublishTransaction(ev TransactionEvent) error {
	for _, f := range ev.Fields() {
		if err := p.send(zmq4.NewMsg(f)); err != nil {
			return err
		}
	}
	return nil
}

// PublishRejection sends one two-frame message: hash, then reason.
func (p *Publisher) PublishRejection(r Rejection) error {
	return p.send(zmq4.NewMsgFrom(r.Hash, []byte(r.Reason)))
}

func (p *Publisher) send(msg zmq4.Msg) error {
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", p.Endpoint, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.sock.Close()
}
