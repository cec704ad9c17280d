package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/homeserver/internal/dbx"
	"github.com/dmitrijs2005/homeserver/internal/logging"
)

// State is a step of the schema gate.
type State int

const (
	Uninitialized State = iota
	Fresh
	Stale
	Current
	Ready
	Aborted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Current:
		return "current"
	case Ready:
		return "ready"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Conn is the connection the bootstrap runs on. *sql.Conn satisfies it, which
// keeps every statement of the bootstrap on one pinned connection.
type Conn interface {
	dbx.DBTX
	dbx.Beginner
}

// Report describes what a bootstrap run observed and did.
type Report struct {
	// Observed is Fresh, Stale or Current once the version was read.
	Observed State
	// Final is Ready or Aborted.
	Final State
	// Stored is the version found before anything was written, 0 if none.
	Stored int
	// Applied lists the scripts run, in order.
	Applied []string
}

type bootstrapOptions struct {
	dialect  Dialect
	scripts  []InitScript
	expected int
	logger   logging.Logger
}

// Option customises Bootstrap.
type Option func(*bootstrapOptions)

func WithDialect(d Dialect) Option {
	return func(o *bootstrapOptions) { o.dialect = d }
}

// WithScripts replaces InitScripts, mostly for tests.
func WithScripts(s []InitScript) Option {
	return func(o *bootstrapOptions) { o.scripts = s }
}

func WithExpectedVersion(v int) Option {
	return func(o *bootstrapOptions) { o.expected = v }
}

func WithLogger(l logging.Logger) Option {
	return func(o *bootstrapOptions) { o.logger = l }
}

// Bootstrap brings the store behind conn to the expected schema version.
//
// An unstamped store gets every script applied in order, each in its own
// transaction, and is stamped after the last one commits. A store stamped
// with the expected version is left alone. Any other stamped version aborts
// with a *SchemaError before anything is written, and a failing script aborts
// with an *InitScriptError without stamping.
func Bootstrap(ctx context.Context, conn Conn, opts ...Option) (Report, error) {
	o := bootstrapOptions{
		dialect:  SQLite{},
		expected: SchemaVersion,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scripts == nil {
		o.scripts = InitScripts()
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}

	rep := Report{Observed: Uninitialized, Final: Aborted}

	if err := o.dialect.PrepareMetadata(ctx, conn); err != nil {
		return rep, fmt.Errorf("prepare schema metadata: %w", err)
	}

	stored, stamped, err := o.dialect.ReadVersion(ctx, conn)
	if err != nil {
		return rep, fmt.Errorf("read schema version: %w", err)
	}
	rep.Stored = stored

	switch {
	case !stamped:
		rep.Observed = Fresh
	case stored == o.expected:
		rep.Observed = Current
	default:
		rep.Observed = Stale
	}

	o.logger.Debug(ctx, "Schema version read", "state", rep.Observed.String(), "stored", stored, "expected", o.expected)

	switch rep.Observed {
	case Current:
		rep.Final = Ready
		return rep, nil

	case Stale:
		return rep, &SchemaError{Stored: stored, Expected: o.expected}
	}

	for _, s := range o.scripts {
		o.logger.Debug(ctx, "Applying schema script", "script", s.Name)
		err := dbx.WithTx(ctx, conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
			_, err := tx.ExecContext(ctx, s.SQL)
			return err
		})
		if err != nil {
			return rep, &InitScriptError{Script: s.Name, Err: err}
		}
		rep.Applied = append(rep.Applied, s.Name)
	}

	if err := o.dialect.WriteVersion(ctx, conn, o.expected); err != nil {
		return rep, fmt.Errorf("stamp schema version %d: %w", o.expected, err)
	}

	rep.Final = Ready
	return rep, nil
}

var _ Conn = (*sql.Conn)(nil)
