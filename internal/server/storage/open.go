// Package storage opens the homeserver's persistent store, gates it on the
// schema version and hands out a bounded-concurrency Handle.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/homeserver/internal/logging"
)

// Config selects the engine and the data source.
type Config struct {
	Engine   string // sqlite (default) or postgres
	Source   string // file path for sqlite, DSN for postgres
	MaxConns int    // ignored by sqlite
}

// Open opens the store described by cfg and runs Bootstrap on a single pinned
// connection before anything else can touch the database. The Handle is
// returned only when the store is Ready.
func Open(ctx context.Context, cfg Config, l logging.Logger) (*Handle, error) {
	if l == nil {
		l = logging.Discard()
	}
	l = l.With("module", "storage")

	d, err := DialectFor(cfg.Engine)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName(), d.DSN(cfg.Source))
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	l.Info(ctx, "Preparing database", "engine", d.Name(), "source", redact(d, cfg.Source))

	if err := bootstrapExclusive(ctx, db, d, l); err != nil {
		_ = db.Close()
		return nil, err
	}

	l.Info(ctx, "Database prepared", "engine", d.Name())

	return NewHandle(db, d, d.Capacity(cfg.MaxConns), l), nil
}

func bootstrapExclusive(ctx context.Context, db *sql.DB, d Dialect, l logging.Logger) error {
	// One connection until the gate has passed.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("db connect error: %w", err)
	}
	defer conn.Close()

	rep, err := Bootstrap(ctx, conn, WithDialect(d), WithLogger(l))
	if err != nil {
		l.Error(ctx, "Database bootstrap aborted", "state", rep.Observed.String(), "error", err)
		return err
	}
	if len(rep.Applied) > 0 {
		l.Info(ctx, "Schema created", "version", SchemaVersion, "scripts", len(rep.Applied))
	}
	return nil
}

// redact hides credentials in a postgres DSN for logging.
func redact(d Dialect, source string) string {
	if d.Name() != EnginePostgres {
		return source
	}
	return "(dsn)"
}
