package storage

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/homeserver/internal/dbx"
	"github.com/dmitrijs2005/homeserver/internal/logging"
	"golang.org/x/sync/semaphore"
)

// Handle is the bounded-concurrency entry point to the store. At most
// Capacity operations hold a connection at once; the rest wait and are
// admitted in arrival order.
type Handle struct {
	db       *sql.DB
	dialect  Dialect
	sem      *semaphore.Weighted
	capacity int
	logger   logging.Logger

	active    atomic.Int64
	maxActive atomic.Int64
	waiting   atomic.Int64

	closeOnce sync.Once
	closed    atomic.Bool
}

// Stats is a snapshot of handle usage.
type Stats struct {
	Active    int
	MaxActive int
	Waiting   int
	Capacity  int
}

// NewHandle wraps db and caps it at capacity live connections.
func NewHandle(db *sql.DB, d Dialect, capacity int, l logging.Logger) *Handle {
	if capacity < 1 {
		capacity = 1
	}
	if l == nil {
		l = logging.Discard()
	}
	db.SetMaxOpenConns(capacity)
	db.SetMaxIdleConns(capacity)

	return &Handle{
		db:       db,
		dialect:  d,
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
		logger:   l.With("module", "storage"),
	}
}

// Dialect reports the engine behind the handle.
func (h *Handle) Dialect() Dialect {
	return h.dialect
}

// Do runs fn on a dedicated connection once one is available.
func (h *Handle) Do(ctx context.Context, fn func(ctx context.Context, q dbx.DBTX) error) error {
	return h.withConn(ctx, func(conn *sql.Conn) error {
		return fn(ctx, conn)
	})
}

// WithTx is Do inside a transaction.
func (h *Handle) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return h.withConn(ctx, func(conn *sql.Conn) error {
		return dbx.WithTx(ctx, conn, nil, fn)
	})
}

func (h *Handle) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	release, err := h.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	conn, err := h.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(conn)
}

func (h *Handle) acquire(ctx context.Context) (func(), error) {
	if h.closed.Load() {
		return nil, ErrClosed
	}

	h.waiting.Add(1)
	err := h.sem.Acquire(ctx, 1)
	h.waiting.Add(-1)
	if err != nil {
		return nil, err
	}

	n := h.active.Add(1)
	for {
		m := h.maxActive.Load()
		if n <= m || h.maxActive.CompareAndSwap(m, n) {
			break
		}
	}

	return func() {
		h.active.Add(-1)
		h.sem.Release(1)
	}, nil
}

func (h *Handle) Stats() Stats {
	return Stats{
		Active:    int(h.active.Load()),
		MaxActive: int(h.maxActive.Load()),
		Waiting:   int(h.waiting.Load()),
		Capacity:  h.capacity,
	}
}

// Ping checks the store is reachable through the handle.
func (h *Handle) Ping(ctx context.Context) error {
	return h.Do(ctx, func(ctx context.Context, q dbx.DBTX) error {
		var one int
		return q.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	})
}

// Close waits for in-flight operations and closes the database. Later calls
// to Do fail with ErrClosed.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		// Draining the whole capacity waits out every holder.
		if aerr := h.sem.Acquire(context.Background(), int64(h.capacity)); aerr == nil {
			defer h.sem.Release(int64(h.capacity))
		}
		err = h.db.Close()
		h.logger.Info(context.Background(), "Store closed")
	})
	return err
}
