package sink

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/transport"
	"github.com/rs/xid"
)

const (
	rowChanSize   = 8192
	bufioSize     = 1 << 20
	flushEveryN   = 200
	flushEveryDur = 500 * time.Millisecond
)

var csvHeader = []string{"ts_ms", "feed", "count", "hash", "successes", "failures"}

// CSVRecorder appends every value to a CSV file. Rows go through a channel
// to a single writer goroutine, which flushes every flushEveryN rows or
// flushEveryDur, whichever comes first.
type CSVRecorder struct {
	log  *slog.Logger
	path string

	rows chan []string
	done chan struct{}

	written uint64
	err     error
}

// NewCSVRecorder creates (or truncates) path. An empty path picks
// brcwatch_<id>.csv in the working directory.
func NewCSVRecorder(path string, log *slog.Logger) (*CSVRecorder, error) {
	if log == nil {
		log = slog.Default()
	}
	if path == "" {
		path = "brcwatch_" + xid.New().String() + ".csv"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output csv: %w", err)
	}

	r := &CSVRecorder{
		log:  log,
		path: path,
		rows: make(chan []string, rowChanSize),
		done: make(chan struct{}),
	}
	go r.writerLoop(f)
	log.Info("Recording to CSV", "path", path)
	return r, nil
}

func (r *CSVRecorder) Path() string { return r.path }

// Rows is the number of rows written so far, excluding the header.
func (r *CSVRecorder) Rows() uint64 { return atomic.LoadUint64(&r.written) }

// ConnectionCount blocks when the writer falls behind; rows are never
// dropped.
func (r *CSVRecorder) ConnectionCount(at time.Time, n uint64) error {
	return r.enqueue([]string{
		strconv.FormatInt(at.UnixMilli(), 10),
		"connections",
		strconv.FormatUint(n, 10),
		"", "", "",
	})
}

func (r *CSVRecorder) Transaction(at time.Time, ev transport.TransactionEvent) error {
	h := ev.Hex()
	return r.enqueue([]string{
		strconv.FormatInt(at.UnixMilli(), 10),
		"transactions",
		"",
		h[0], h[1], h[2],
	})
}

func (r *CSVRecorder) enqueue(row []string) error {
	select {
	case <-r.done:
		if r.err != nil {
			return r.err
		}
		return errors.New("csv recorder closed")
	case r.rows <- row:
		return nil
	}
}

// Close drains queued rows, flushes and closes the file. The recorder must
// not be written to afterwards.
func (r *CSVRecorder) Close() error {
	close(r.rows)
	<-r.done
	r.log.Info("Recorded", "path", r.path, "rows", r.Rows())
	return r.err
}

func (r *CSVRecorder) writerLoop(f *os.File) {
	defer close(r.done)

	bw := bufio.NewWriterSize(f, bufioSize)
	w := csv.NewWriter(bw)

	fail := func(err error) {
		if r.err == nil {
			r.err = err
		}
	}
	flush := func() {
		w.Flush()
		if err := w.Error(); err != nil {
			fail(fmt.Errorf("flush csv: %w", err))
			return
		}
		if err := bw.Flush(); err != nil {
			fail(fmt.Errorf("flush bufio: %w", err))
		}
	}
	defer func() {
		flush()
		if err := f.Close(); err != nil {
			fail(fmt.Errorf("close csv: %w", err))
		}
	}()

	if err := w.Write(csvHeader); err != nil {
		fail(fmt.Errorf("write header: %w", err))
		return
	}
	flush()

	ticker := time.NewTicker(flushEveryDur)
	defer ticker.Stop()

	sinceFlush := 0
	for {
		select {
		case <-ticker.C:
			if sinceFlush > 0 {
				flush()
				sinceFlush = 0
			}
		case row, ok := <-r.rows:
			if !ok {
				return
			}
			if err := w.Write(row); err != nil {
				fail(fmt.Errorf("write row: %w", err))
				return
			}
			atomic.AddUint64(&r.written, 1)
			sinceFlush++
			if sinceFlush >= flushEveryN {
				flush()
				sinceFlush = 0
			}
		}
		if r.err != nil {
			return
		}
	}
}
