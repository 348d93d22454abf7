package postgres_test

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

// poolStub implements postgres.PgxPool and records every Exec.
type poolStub struct {
	mu      sync.Mutex
	execErr error
	calls   []execCall
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, p.execErr
}
