package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/homeserver/internal/dbx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

// Dialect hides how an engine keeps the schema version and how many
// connections it tolerates.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(source string) string

	// Capacity returns the live connection cap for a configured maximum.
	Capacity(configured int) int

	// PrepareMetadata makes sure the version slot can be read.
	PrepareMetadata(ctx context.Context, q dbx.DBTX) error

	// ReadVersion returns the stamped version, or ok=false when none is.
	ReadVersion(ctx context.Context, q dbx.DBTX) (version int, ok bool, err error)

	WriteVersion(ctx context.Context, q dbx.DBTX, version int) error
}

// DialectFor maps a configured engine name to its Dialect.
func DialectFor(engine string) (Dialect, error) {
	switch strings.ToLower(engine) {
	case "", EngineSQLite, "sqlite3":
		return SQLite{}, nil
	case EnginePostgres, "postgresql", "pgx":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// SQLite keeps the version in PRAGMA user_version, where 0 means unstamped.
// The engine allows one writer, so the handle is capped at one connection.
type SQLite struct{}

func (SQLite) Name() string       { return EngineSQLite }
func (SQLite) DriverName() string { return "sqlite3" }

// DSN appends the connection pragmas to a file path unless the caller already
// passed a URI with its own query.
func (SQLite) DSN(source string) string {
	if strings.Contains(source, "?") {
		return source
	}
	v := url.Values{}
	v.Set("_busy_timeout", "5000")
	v.Set("_foreign_keys", "on")
	if source != ":memory:" {
		v.Set("_journal_mode", "WAL")
	}
	return "file:" + source + "?" + v.Encode()
}

func (SQLite) Capacity(int) int { return 1 }

func (SQLite) PrepareMetadata(context.Context, dbx.DBTX) error { return nil }

func (SQLite) ReadVersion(ctx context.Context, q dbx.DBTX) (int, bool, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, false, err
	}
	return v, v != 0, nil
}

func (SQLite) WriteVersion(ctx context.Context, q dbx.DBTX, version int) error {
	// PRAGMA does not take bind parameters.
	_, err := q.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}

// DefaultPostgresConns is used when no connection maximum is configured.
const DefaultPostgresConns = 10

// Postgres keeps the version in a single-row schema_version table.
type Postgres struct{}

const (
	pgCreateVersionTable = `CREATE TABLE IF NOT EXISTS schema_version (
    lock CHAR(1) NOT NULL DEFAULT 'X' UNIQUE,
    version INTEGER NOT NULL,
    CHECK (lock = 'X')
)`
	pgSelectVersion = `SELECT version FROM schema_version`
	pgUpsertVersion = `INSERT INTO schema_version (lock, version) VALUES ('X', $1)
ON CONFLICT (lock) DO UPDATE SET version = EXCLUDED.version`
)

func (Postgres) Name() string             { return EnginePostgres }
func (Postgres) DriverName() string       { return "pgx" }
func (Postgres) DSN(source string) string { return source }

func (Postgres) Capacity(configured int) int {
	if configured <= 0 {
		return DefaultPostgresConns
	}
	return configured
}

func (Postgres) PrepareMetadata(ctx context.Context, q dbx.DBTX) error {
	_, err := q.ExecContext(ctx, pgCreateVersionTable)
	return err
}

func (Postgres) ReadVersion(ctx context.Context, q dbx.DBTX) (int, bool, error) {
	var v int
	err := q.QueryRowContext(ctx, pgSelectVersion).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (Postgres) WriteVersion(ctx context.Context, q dbx.DBTX, version int) error {
	_, err := q.ExecContext(ctx, pgUpsertVersion, version)
	return err
}
