package simulate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/helix-lab/helix/brcwatch/internal/gtest"
	"github.com/helix-lab/helix/brcwatch/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	counts     []uint64
	txs        []transport.TransactionEvent
	rejections []transport.Rejection
	err        error
}

func (p *fakePublisher) PublishConnectionCount(n uint64) error {
	p.counts = append(p.counts, n)
	return p.err
}

func (p *fakePublisher) PublishTransaction(ev transport.TransactionEvent) error {
	p.txs = append(p.txs, ev)
	return p.err
}

func (p *fakePublisher) PublishRejection(r transport.Rejection) error {
	p.rejections = append(p.rejections, r)
	return p.err
}

func TestSimulator_steps(t *testing.T) {
	pub := &fakePublisher{}
	s := New(pub, pub, Config{Target: 40, Seed: 1, Log: gtest.NewLogger(t)})

	prev := uint64(40)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Step())

		n := pub.counts[i]
		assert.LessOrEqual(t, n, prev+1)
		assert.GreaterOrEqual(t, n+1, prev)
		prev = n

		ev := pub.txs[i]
		require.Len(t, ev.Hash, 32)
		succ, err := transport.DecodeConnectionCount(ev.Successes)
		require.NoError(t, err)
		fail, err := transport.DecodeConnectionCount(ev.Failures)
		require.NoError(t, err)
		assert.Equal(t, n, succ+fail)
	}
	assert.Empty(t, pub.rejections)
}

func TestSimulator_rejections(t *testing.T) {
	pub := &fakePublisher{}
	s := New(pub, pub, Config{Target: 3, Seed: 7, Rejections: true, Log: gtest.NewLogger(t)})

	for i := 0; i < 2*rejectEvery; i++ {
		require.NoError(t, s.Step())
	}
	require.Len(t, pub.rejections, 2)

	assert.Equal(t, ReasonBadStream, pub.rejections[0].Reason)
	assert.Equal(t, make([]byte, 32), pub.rejections[0].Hash)

	assert.Equal(t, ReasonTimedOut, pub.rejections[1].Reason)
	assert.Equal(t, pub.txs[2*rejectEvery-1].Hash, pub.rejections[1].Hash)
}

func TestSimulator_deterministicWithSeed(t *testing.T) {
	a, b := &fakePublisher{}, &fakePublisher{}
	sa := New(a, a, Config{Target: 10, Seed: 42})
	sb := New(b, b, Config{Target: 10, Seed: 42})
	for i := 0; i < 10; i++ {
		require.NoError(t, sa.Step())
		require.NoError(t, sb.Step())
	}
	assert.Equal(t, a.counts, b.counts)
	assert.Equal(t, a.txs, b.txs)
}

func TestSimulator_runStopsAfterCount(t *testing.T) {
	pub := &fakePublisher{}
	s := New(pub, pub, Config{Interval: time.Millisecond, Count: 3, Target: 5, Log: gtest.NewLogger(t)})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))
	assert.Len(t, pub.counts, 3)
	assert.Len(t, pub.txs, 3)
}

func TestSimulator_runStopsOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	s := New(pub, pub, Config{Interval: time.Hour, Log: gtest.NewLogger(t)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx))
	assert.Empty(t, pub.counts)
}

func TestSimulator_publishError(t *testing.T) {
	boom := errors.New("socket closed")
	pub := &fakePublisher{err: boom}
	s := New(pub, pub, Config{Interval: time.Millisecond, Log: gtest.NewLogger(t)})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.ErrorIs(t, s.Run(ctx), boom)
}
