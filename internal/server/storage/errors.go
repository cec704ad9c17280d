package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaIncompatible means the store carries a schema version other
	// than SchemaVersion. No migration is attempted.
	ErrSchemaIncompatible = errors.New("schema version incompatible")

	// ErrInitScript means applying a schema script failed and the bootstrap
	// was aborted.
	ErrInitScript = errors.New("schema script failed")

	ErrUnknownEngine = errors.New("unknown database engine")
	ErrClosed        = errors.New("store handle closed")
)

// SchemaError reports the versions found and expected when a store cannot be
// used.
type SchemaError struct {
	Stored   int
	Expected int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("cannot use this database as the schema version (%d) does not match (%d)", e.Stored, e.Expected)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaIncompatible
}

// InitScriptError names the schema script that failed.
type InitScriptError struct {
	Script string
	Err    error
}

func (e *InitScriptError) Error() string {
	return fmt.Sprintf("schema script %q: %v", e.Script, e.Err)
}

func (e *InitScriptError) Unwrap() []error {
	return []error{ErrInitScript, e.Err}
}
