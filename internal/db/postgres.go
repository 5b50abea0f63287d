package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Init opens a pgx pool and verifies connectivity.
func Init(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the coordinator tables when missing and seeds one
// agent_registry row per known agent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, agentNames []string) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS task_queue (
            task_id UUID PRIMARY KEY,
            task_type TEXT NOT NULL,
            priority INT NOT NULL DEFAULT 5,
            status TEXT NOT NULL DEFAULT 'pending',
            created_by TEXT NOT NULL DEFAULT '',
            assigned_to_agent TEXT,
            file_paths TEXT[] NOT NULL DEFAULT '{}',
            depends_on_task_ids UUID[] NOT NULL DEFAULT '{}',
            description TEXT NOT NULL,
            context JSONB NOT NULL DEFAULT '{}',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            assigned_at TIMESTAMPTZ,
            started_at TIMESTAMPTZ,
            completed_at TIMESTAMPTZ,
            result JSONB,
            error_log TEXT,
            retry_count INT NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_task_queue_claimable
            ON task_queue (priority DESC, created_at ASC)
            WHERE status = 'assigned';`,
		`CREATE TABLE IF NOT EXISTS agent_registry (
            agent_name TEXT PRIMARY KEY,
            status TEXT NOT NULL DEFAULT 'idle',
            current_task_id UUID,
            last_active_at TIMESTAMPTZ
        );`,
		`CREATE TABLE IF NOT EXISTS agent_task_history (
            id BIGSERIAL PRIMARY KEY,
            agent_name TEXT NOT NULL,
            task_id UUID NOT NULL,
            task_type TEXT NOT NULL,
            success BOOLEAN NOT NULL,
            duration_ms BIGINT NOT NULL,
            error_message TEXT,
            cost_tokens INT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	}
	for _, q := range ddl {
		if _, err := pool.Exec(ctx, q); err != nil {
			return err
		}
	}

	for _, name := range agentNames {
		_, err := pool.Exec(ctx, `
            INSERT INTO agent_registry (agent_name, status)
            VALUES ($1, 'idle')
            ON CONFLICT (agent_name) DO NOTHING
        `, name)
		if err != nil {
			return err
		}
	}
	return nil
}
