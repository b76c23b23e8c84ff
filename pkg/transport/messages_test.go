package transport

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConnectionCount(t *testing.T) {
	n, err := DecodeConnectionCount([]byte{0x01, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	n, err = DecodeConnectionCount([]byte{0x28, 0x01, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, uint64(296), n)

	n, err = DecodeConnectionCount([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), n)

	assert.Equal(t, []byte{0x28, 0, 0, 0, 0, 0, 0, 0}, EncodeConnectionCount(40))
}

func TestDecodeConnectionCount_wrongSize(t *testing.T) {
	for _, frame := range [][]byte{
		nil,
		{},
		{0x01},
		{0x01, 0, 0, 0, 0, 0, 0},
		{0x01, 0, 0, 0, 0, 0, 0, 0, 0},
	} {
		n, err := DecodeConnectionCount(frame)
		require.Error(t, err, "frame % x", frame)
		assert.True(t, errors.Is(err, ErrFrameSize))
		assert.Zero(t, n)
	}
}

func TestHexFrame(t *testing.T) {
	assert.Equal(t, "ab", HexFrame([]byte{0xAB}))
	assert.Equal(t, "", HexFrame(nil))
	assert.Equal(t, "00ff10", HexFrame([]byte{0x00, 0xff, 0x10}))
}

func TestTransactionEvent_Hex(t *testing.T) {
	ev := TransactionEvent{
		Hash:      []byte{0xde, 0xad, 0xbe, 0xef},
		Successes: EncodeConnectionCount(3),
		Failures:  []byte{0xAB},
	}
	assert.Equal(t, [3]string{"deadbeef", "0300000000000000", "ab"}, ev.Hex())
	assert.Equal(t, ev.Hash, ev.Fields()[0])
	assert.Equal(t, ev.Failures, ev.Fields()[2])
}
