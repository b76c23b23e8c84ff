package sink

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/helix-lab/helix/brcwatch/internal/gtest"
	"github.com/helix-lab/helix/brcwatch/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.csv")
	r, err := NewCSVRecorder(path, gtest.NewLogger(t))
	require.NoError(t, err)

	at := time.UnixMilli(1700000000123)
	require.NoError(t, r.ConnectionCount(at, 40))
	require.NoError(t, r.Transaction(at, transport.TransactionEvent{
		Hash:      []byte{0xAB, 0xCD},
		Successes: transport.EncodeConnectionCount(2),
		Failures:  transport.EncodeConnectionCount(0),
	}))
	require.NoError(t, r.Close())
	assert.Equal(t, uint64(2), r.Rows())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"1700000000123", "connections", "40", "", "", ""}, records[1])
	assert.Equal(t, []string{
		"1700000000123", "transactions", "",
		"abcd", "0200000000000000", "0000000000000000",
	}, records[2])
}

func TestCSVRecorder_autoName(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	r, err := NewCSVRecorder("", gtest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Regexp(t, `^brcwatch_[0-9a-v]{20}\.csv$`, r.Path())
	_, err = os.Stat(r.Path())
	require.NoError(t, err)
}

func TestSQLiteRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	r, err := NewSQLiteRecorder(path, gtest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	at := time.UnixMilli(1700000000000)
	require.NoError(t, r.ConnectionCount(at, 12))
	require.NoError(t, r.ConnectionCount(at.Add(time.Second), 13))
	ev := transport.TransactionEvent{
		Hash:      []byte{0xde, 0xad},
		Successes: []byte{0x05},
		Failures:  []byte{},
	}
	require.NoError(t, r.Transaction(at, ev))

	var sum, rows int64
	require.NoError(t, r.DB().QueryRow(
		`SELECT COUNT(*), SUM(count) FROM connection_counts`,
	).Scan(&rows, &sum))
	assert.Equal(t, int64(2), rows)
	assert.Equal(t, int64(25), sum)

	var (
		tsMs      int64
		hash, suc []byte
	)
	require.NoError(t, r.DB().QueryRow(
		`SELECT ts_ms, hash, successes FROM transactions`,
	).Scan(&tsMs, &hash, &suc))
	assert.Equal(t, int64(1700000000000), tsMs)
	assert.Equal(t, ev.Hash, hash)
	assert.Equal(t, ev.Successes, suc)
}

func TestSQLiteRecorder_fullRangeCounts(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "events.db"), gtest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	want := []uint64{0, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64}
	for _, n := range want {
		require.NoError(t, r.ConnectionCount(time.UnixMilli(0), n))
	}

	rows, err := r.DB().Query(`SELECT count FROM connection_counts ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var got []uint64
	for rows.Next() {
		var v int64
		require.NoError(t, rows.Scan(&v))
		got = append(got, uint64(v))
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, want, got)
}

func TestOpenRecorder(t *testing.T) {
	dir := t.TempDir()
	log := gtest.NewLogger(t)

	s, err := OpenRecorder(filepath.Join(dir, "a.sqlite"), log)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRecorder{}, s)
	require.NoError(t, s.Close())

	s, err = OpenRecorder(filepath.Join(dir, "a.csv"), log)
	require.NoError(t, err)
	assert.IsType(t, &CSVRecorder{}, s)
	require.NoError(t, s.Close())
}
