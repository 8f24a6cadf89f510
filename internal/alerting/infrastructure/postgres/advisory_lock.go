package postgres

import (
	"context"
	"database/sql"
	"log"
	"sync"
)

// AdvisoryLock guards evaluation runs with a Postgres advisory lock.
// Advisory locks are session scoped, so the lock pins one pooled
// connection for its whole hold: acquire and release must hit the same
// session. Backends without advisory lock support (lightweight test
// databases) degrade to always-acquire; that relaxation keeps the engine
// testable but is not a correctness guarantee outside Postgres.
type AdvisoryLock struct {
	db     *sql.DB
	key    int64
	logger *log.Logger

	mu   sync.Mutex
	conn *sql.Conn
}

// NewAdvisoryLock constructs a lock for the given key.
func NewAdvisoryLock(db *sql.DB, key int64, logger *log.Logger) *AdvisoryLock {
	return &AdvisoryLock{db: db, key: key, logger: logger}
}

// TryAcquire attempts the lock without blocking. Returns false when any
// other session, or this instance, already holds the key.
func (l *AdvisoryLock) TryAcquire(ctx context.Context) bool {
	if l == nil || l.db == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return false
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		l.logf("advisory lock unavailable, proceeding unlocked: %v", err)
		return true
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&acquired); err != nil {
		_ = conn.Close()
		l.logf("advisory lock unsupported by backend, proceeding unlocked: %v", err)
		return true
	}
	if !acquired {
		_ = conn.Close()
		return false
	}
	l.conn = conn
	return true
}

// Release frees the lock. Failures are logged and swallowed so a release
// problem never masks the evaluation outcome.
func (l *AdvisoryLock) Release(ctx context.Context) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return
	}
	if _, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.key); err != nil {
		l.logf("advisory unlock failed: %v", err)
	}
	if err := l.conn.Close(); err != nil {
		l.logf("advisory lock connection close failed: %v", err)
	}
	l.conn = nil
}

func (l *AdvisoryLock) logf(format string, args ...any) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}
