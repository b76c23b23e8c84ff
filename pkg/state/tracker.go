// Package state keeps the latest value seen on each feed.
package state

import (
	"sync"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/transport"
)

// Snapshot is a copy of the tracker's state. Zero times mean nothing has
// been seen on that feed yet.
type Snapshot struct {
	ConnectionCount uint64    `json:"connection_count"`
	ConnectionsAt   time.Time `json:"connections_at"`

	LastTransaction *TransactionView `json:"last_transaction,omitempty"`
	TransactionsAt  time.Time        `json:"transactions_at"`
	Transactions    uint64           `json:"transactions"`
}

type TransactionView struct {
	Hash      string `json:"hash"`
	Successes string `json:"successes"`
	Failures  string `json:"failures"`
}

// Tracker is a sink that remembers the most recent values.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) ConnectionCount(at time.Time, n uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.ConnectionCount = n
	t.snap.ConnectionsAt = at
	return nil
}

func (t *Tracker) Transaction(at time.Time, ev transport.TransactionEvent) error {
	h := ev.Hex()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.LastTransaction = &TransactionView{Hash: h[0], Successes: h[1], Failures: h[2]}
	t.snap.TransactionsAt = at
	t.snap.Transactions++
	return nil
}

func (t *Tracker) Close() error { return nil }

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cp := t.snap
	if cp.LastTransaction != nil {
		tx := *cp.LastTransaction
		cp.LastTransaction = &tx
	}
	return cp
}
