package repo

import (
	"context"
	"fmt"

	"SwarmCoordinator/internal/domain"

	"github.com/google/uuid"
)

// SetAgentState flips an agent_registry row between busy and idle and
// refreshes last_active_at. Rows are seeded at schema bootstrap, so an
// unknown agent name updates nothing; that is not an error here because
// routing already rejects unknown agents before execution starts.
func (s *Store) SetAgentState(ctx context.Context, agentName string, status domain.AgentStatus, taskID *uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        UPDATE agent_registry
        SET status = $2, current_task_id = $3, last_active_at = NOW()
        WHERE agent_name = $1
    `, agentName, status, taskID)
	if err != nil {
		return fmt.Errorf("update agent status: %w", err)
	}
	return tx.Commit(ctx)
}

// ListAgents returns every registration row, ordered by name.
func (s *Store) ListAgents(ctx context.Context) ([]domain.AgentRegistration, error) {
	rows, err := s.db.Query(ctx, `
        SELECT agent_name, status, current_task_id, last_active_at
        FROM agent_registry
        ORDER BY agent_name
    `)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []domain.AgentRegistration
	for rows.Next() {
		var a domain.AgentRegistration
		if err := rows.Scan(&a.AgentName, &a.Status, &a.CurrentTaskID, &a.LastActiveAt); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}
