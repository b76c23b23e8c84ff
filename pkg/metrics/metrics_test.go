package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.SetConnectionCount(42)
	m.FrameReceived(FeedConnections)
	m.FrameReceived(FeedTransactions)
	m.FrameReceived(FeedTransactions)
	m.TransactionEvent()
	m.DecodeError(FeedConnections)
	m.Observe(FeedTransactions, 3*time.Millisecond)

	assert.Equal(t, 42.0, testutil.ToFloat64(m.connectionCount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frames.WithLabelValues(FeedConnections)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.frames.WithLabelValues(FeedTransactions)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.txEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodeErrors.WithLabelValues(FeedConnections)))

	expected := `
# HELP brcwatch_transaction_events_total Transaction events (frame triples) received.
# TYPE brcwatch_transaction_events_total counter
brcwatch_transaction_events_total 1
`
	require.NoError(t, testutil.GatherAndCompare(
		m.Registry(), strings.NewReader(expected), "brcwatch_transaction_events_total",
	))
	assert.Equal(t, 1, testutil.CollectAndCount(m.dispatch))
}

func TestMetrics_nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetConnectionCount(1)
		m.FrameReceived(FeedConnections)
		m.TransactionEvent()
		m.DecodeError(FeedTransactions)
		m.Observe(FeedConnections, time.Second)
		_ = m.Registry()
	})
}
