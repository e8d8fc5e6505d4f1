// Package storage persists rate records in SQLite and implements the
// resolver's store capability on top of them.
package storage

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"landed-cost/internal/errors"
)

// Open opens a SQLite database, sets recommended pragmas, and validates
// connectivity.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Storage("open sqlite database", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, errors.Storage("set sqlite pragmas", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Storage("ping sqlite database", err)
	}

	return db, nil
}
