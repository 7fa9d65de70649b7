// Package db opens the analysis database and manages its schema through
// file-based migrations.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql handle so schema management lives next to it.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the sqlite database at path. Callers run
// MigrateUp before using it.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", path, err)
	}
	return &DB{db}, nil
}
