package memory

import (
	"fmt"
	"log/slog"
	"strings"
)

// Opts holds configuration options for store constructors.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports which SQL driver a DSN belongs to: "postgres" for
// URL-style or key=value connection strings, "sqlite3" for file paths.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

// NewStore builds a store from options. An empty DSN yields the in-memory
// store; otherwise the DSN type selects the SQLite or Postgres backend.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("NewStore: no DSN set, using in-memory store")
		return NewInMemoryStore(), nil
	}
	switch driver := DetectDSNType(cfg.DSN); driver {
	case "postgres":
		slog.Debug("NewStore: using Postgres store")
		return NewPostgresStore(opts...)
	case "sqlite3":
		slog.Debug("NewStore: using SQLite store")
		return NewSQLiteStore(opts...)
	default:
		return nil, fmt.Errorf("unsupported DSN type: %s", driver)
	}
}
