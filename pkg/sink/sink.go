// Package sink defines where decoded feed values go once the receive loops
// have them: standard output, recorders on disk, and anything else that
// implements Sink.
package sink

import (
	"errors"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/transport"
)

type ConnectionSink interface {
	ConnectionCount(at time.Time, n uint64) error
}

type TransactionSink interface {
	Transaction(at time.Time, ev transport.TransactionEvent) error
}

type Sink interface {
	ConnectionSink
	TransactionSink
	Close() error
}

// Fanout hands every value to each sink in order and stops at the first
// error.
type Fanout []Sink

func (f Fanout) ConnectionCount(at time.Time, n uint64) error {
	for _, s := range f {
		if err := s.ConnectionCount(at, n); err != nil {
			return err
		}
	}
	return nil
}

func (f Fanout) Transaction(at time.Time, ev transport.TransactionEvent) error {
	for _, s := range f {
		if err := s.Transaction(at, ev); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, even after a failure, and joins the errors.
func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
