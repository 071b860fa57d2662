package sqlite

import "time"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:dataset.db"
	//   "dataset.db"
	DSN string

	// BusyTimeout bounds how long a writer waits for another process that
	// holds the database lock. Zero means 5s.
	BusyTimeout time.Duration
}
