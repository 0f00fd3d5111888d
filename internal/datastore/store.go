package datastore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/datastore/migrations"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database, mostly for tests.
const MemoryPath = ":memory:"

// sqliteConstraintUnique is SQLITE_CONSTRAINT_UNIQUE.
const sqliteConstraintUnique = 2067

// Store persists links, items and audits in SQLite.
type Store struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// Open connects to the database at path, creating its directory when
// needed, and applies pending migrations.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "Datastore").Logger()

	dsn := MemoryPath + "?_time_format=sqlite"
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, common.WrapErrorf(err, "failed to create database directory %s", dir)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate&_time_format=sqlite", path)
	}

	dbx, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to open database %s", path)
	}
	// One connection keeps in-memory databases shared and avoids SQLITE_BUSY
	// between the monitor and command handlers.
	dbx.SetMaxOpenConns(1)

	if err := migrations.Run(dbx); err != nil {
		_ = dbx.Close()
		return nil, common.WrapError(err, "failed to migrate database")
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return &Store{db: dbx, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqliteConstraintUnique
}
