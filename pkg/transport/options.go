package transport

import (
	"log/slog"
	"time"

	"github.com/go-zeromq/zmq4"
)

// DefaultDialRetry is the interval between dial attempts while the peer is
// not listening yet.
const DefaultDialRetry = 250 * time.Millisecond

// socketOptions keeps dialing and reconnecting forever, which is what libzmq
// does for a connect()ed socket.
func socketOptions(log *slog.Logger, retry time.Duration) []zmq4.Option {
	if retry <= 0 {
		retry = DefaultDialRetry
	}
	return []zmq4.Option{
		zmq4.WithDialerRetry(retry),
		zmq4.WithDialerMaxRetries(-1),
		zmq4.WithAutomaticReconnect(true),
		zmq4.WithLogger(slog.NewLogLogger(log.Handler(), slog.LevelDebug)),
	}
}
