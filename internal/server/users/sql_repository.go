package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/dmitrijs2005/homeserver/internal/dbx"
	"github.com/dmitrijs2005/homeserver/internal/server/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// SQLRepository stores users in the users table through the store handle.
type SQLRepository struct {
	h *storage.Handle
}

func NewSQLRepository(h *storage.Handle) *SQLRepository {
	return &SQLRepository{h: h}
}

func (r *SQLRepository) Create(ctx context.Context, user *User) (*User, error) {
	query :=
		`INSERT INTO users (name, password_hash, creation_ts)
		 VALUES ($1, $2, $3)`

	err := r.h.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, query, user.ID, user.PasswordHash, user.CreatedAt.UnixMilli())
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", user.ID, common.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query :=
		`SELECT name, password_hash, creation_ts FROM users
		 WHERE name = $1`

	user := &User{}
	var (
		hash sql.NullString
		ts   int64
	)
	err := r.h.Do(ctx, func(ctx context.Context, q dbx.DBTX) error {
		return q.QueryRowContext(ctx, query, id).Scan(&user.ID, &hash, &ts)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	user.PasswordHash = hash.String
	user.CreatedAt = time.UnixMilli(ts).UTC()
	return user, nil
}

// pgUniqueViolation is SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
