package sink

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// OpenRecorder picks a recorder by file extension: .db, .sqlite and
// .sqlite3 open a SQLiteRecorder, anything else a CSVRecorder. An empty
// path records to an auto-named CSV file.
func OpenRecorder(path string, log *slog.Logger) (Sink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		r, err := NewSQLiteRecorder(path, log)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		r, err := NewCSVRecorder(path, log)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}
