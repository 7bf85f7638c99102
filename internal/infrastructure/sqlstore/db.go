package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"

	sqliteDefaults = "_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
)

// Store owns the connection pool and implements application.UnitOfWork.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects, applies pool settings for the driver, and pings.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == DriverSQLite && !strings.Contains(dsn, "?") {
		dsn += "?" + sqliteDefaults
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}

	switch driver {
	case DriverSQLite:
		// one writer; IMMEDIATE transactions serialize the read-check-write sequences
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", driver, err)
	}
	return &Store{db: db, driver: driver}, nil
}

// New wraps an existing handle, e.g. one backed by sqlmock.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, driver: db.DriverName()}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	return nil
}
