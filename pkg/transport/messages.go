package transport

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// ConnectionCountSize is the wire size of a connection count frame.
const ConnectionCountSize = 8

// ErrFrameSize reports a frame whose length does not match its wire format.
var ErrFrameSize = errors.New("unexpected frame size")

// DecodeConnectionCount decodes a connection count frame: exactly
// ConnectionCountSize bytes, little-endian, unsigned.
func DecodeConnectionCount(frame []byte) (uint64, error) {
	if len(frame) != ConnectionCountSize {
		return 0, fmt.Errorf("connection count: %w: got %d bytes, want %d",
			ErrFrameSize, len(frame), ConnectionCountSize)
	}
	return binary.LittleEndian.Uint64(frame), nil
}

func EncodeConnectionCount(n uint64) []byte {
	b := make([]byte, ConnectionCountSize)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

// HexFrame renders a frame as lowercase hex, byte for byte.
func HexFrame(frame []byte) string {
	return hex.EncodeToString(frame)
}

// TransactionEvent is one logical event on the transaction feed. The
// broadcaster sends its fields as three consecutive frames; nothing on the
// wire ties them together beyond arrival order.
type TransactionEvent struct {
	Hash      []byte
	Successes []byte
	Failures  []byte
}

// Fields returns the frames in wire order.
func (e TransactionEvent) Fields() [3][]byte {
	return [3][]byte{e.Hash, e.Successes, e.Failures}
}

// Hex returns the hex encoding of each field in wire order.
func (e TransactionEvent) Hex() [3]string {
	return [3]string{HexFrame(e.Hash), HexFrame(e.Successes), HexFrame(e.Failures)}
}

// Rejection is the two-frame message the broadcaster publishes when it
// refuses or fails to relay a transaction.
type Rejection struct {
	Hash   []byte
	Reason string
}

// FrameSource yields frames one at a time, blocking until one is available.
type FrameSource interface {
	Next() ([]byte, error)
}
