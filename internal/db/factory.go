package db

import (
	"fmt"
	"strings"
)

// StoreConfig selects the history backend.
type StoreConfig struct {
	Backend string // "sqlite" or "postgres"
	DSN     string // file path for SQLite, connection string for Postgres
}

// NewStore builds a history store from configuration.
func NewStore(config StoreConfig) (Store, error) {
	switch strings.ToLower(config.Backend) {
	case "postgres", "postgresql":
		if config.DSN == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(config.DSN)
	case "sqlite", "sqlite3", "":
		if config.DSN == "" {
			config.DSN = "history.db"
		}
		return NewSQLiteStore(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", config.Backend)
	}
}
