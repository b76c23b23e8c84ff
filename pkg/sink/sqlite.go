package sink

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/transport"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
-- count holds the uint64 bit pattern as a signed 64-bit integer: values of
-- 2^63 and above read back negative. Scan into int64 and convert to uint64
-- to recover them.
CREATE TABLE IF NOT EXISTS connection_counts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts_ms INTEGER NOT NULL,
    count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts_ms INTEGER NOT NULL,
    hash BLOB,
    successes BLOB,
    failures BLOB
);
`

// SQLiteRecorder stores values in a SQLite database. Transaction fields are
// kept as the raw frames. Connection counts are stored two's-complement in a
// signed INTEGER column, so uint64(scanned int64) is the dispatched value.
type SQLiteRecorder struct {
	log  *slog.Logger
	path string
	db   *sql.DB

	insertCount *sql.Stmt
	insertTx    *sql.Stmt
}

func NewSQLiteRecorder(path string, log *slog.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	r := &SQLiteRecorder{log: log, path: path, db: db}
	if r.insertCount, err = db.Prepare(
		`INSERT INTO connection_counts (ts_ms, count) VALUES (?, ?)`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite prepare: %w", err)
	}
	if r.insertTx, err = db.Prepare(
		`INSERT INTO transactions (ts_ms, hash, successes, failures) VALUES (?, ?, ?, ?)`,
	); err != nil {
		r.insertCount.Close()
		db.Close()
		return nil, fmt.Errorf("sqlite prepare: %w", err)
	}

	log.Info("Recording to SQLite", "path", path)
	return r, nil
}

func (r *SQLiteRecorder) Path() string { return r.path }

// DB exposes the underlying handle for queries.
func (r *SQLiteRecorder) DB() *sql.DB { return r.db }

func (r *SQLiteRecorder) ConnectionCount(at time.Time, n uint64) error {
	// SQLite integers are signed 64-bit; see the schema comment.
	if _, err := r.insertCount.Exec(at.UnixMilli(), int64(n)); err != nil {
		return fmt.Errorf("sqlite insert connection count: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Transaction(at time.Time, ev transport.TransactionEvent) error {
	if _, err := r.insertTx.Exec(at.UnixMilli(), ev.Hash, ev.Successes, ev.Failures); err != nil {
		return fmt.Errorf("sqlite insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	return errors.Join(
		r.insertCount.Close(),
		r.insertTx.Close(),
		r.db.Close(),
	)
}
