// Package postgres persists usage events to the api_logs table.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PgxPool is the subset of pgxpool used by the repo.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UsageRepo records successful routed calls.
type UsageRepo struct{ Pool PgxPool }

// NewUsageRepo constructs a UsageRepo with the given pool.
func NewUsageRepo(p PgxPool) *UsageRepo { return &UsageRepo{Pool: p} }

// RecordUsage inserts one api_logs row. Events without a caller id are
// skipped since there is nobody to attribute them to.
func (r *UsageRepo) RecordUsage(ctx context.Context, ev domain.UsageEvent) error {
	if ev.CallerID == "" {
		return nil
	}
	ctx, span := otel.Tracer("repo.usage").Start(ctx, "api_logs.Insert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "api_logs"),
		attribute.String("ai.provider", string(ev.Provider)),
	)

	q := `INSERT INTO api_logs (id, event_id, user_id, provider, model, attempts, prompt_tokens, streamed, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.Pool.Exec(ctx, q,
		uuid.New().String(), ev.ID, ev.CallerID, string(ev.Provider), ev.Model,
		ev.Attempts, ev.PromptTokens, ev.Streamed, ev.OccurredAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("op=usage.record: %w", err)
	}
	return nil
}

// Migrate applies the embedded DDL in file name order. Statements are
// idempotent so it is safe on every start.
func Migrate(ctx context.Context, pool PgxPool) error {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("op=postgres.migrate: %w", err)
	}
	sort.Strings(names)
	for _, n := range names {
		b, err := migrationFS.ReadFile(n)
		if err != nil {
			return fmt.Errorf("op=postgres.migrate: %w", err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("op=postgres.migrate %s: %w", n, err)
		}
	}
	return nil
}
