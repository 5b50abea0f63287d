package repo

import (
	"context"
	"fmt"

	"SwarmCoordinator/internal/domain"
)

// AppendHistory inserts one execution attempt into agent_task_history.
// The table is append-only and never read by the dispatch loop.
func (s *Store) AppendHistory(ctx context.Context, e domain.HistoryEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var errMsg *string
	if e.ErrorMessage != "" {
		errMsg = &e.ErrorMessage
	}
	var tokens *int
	if e.CostTokens > 0 {
		tokens = &e.CostTokens
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO agent_task_history
            (agent_name, task_id, task_type, success, duration_ms, error_message, cost_tokens)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, e.AgentName, e.TaskID, e.TaskType, e.Success, e.DurationMs, errMsg, tokens)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return tx.Commit(ctx)
}
