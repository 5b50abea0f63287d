package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SwarmCoordinator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInvalidTransition is returned when a status update matches no row,
// meaning the task was not in the state the transition requires. Terminal
// states are never overwritten.
var ErrInvalidTransition = errors.New("task not in expected status for transition")

// Store is the only component that touches Postgres for task and agent
// state. Every mutating call runs in its own short-lived transaction and
// commits immediately; on error the transaction rolls back and the error
// propagates to the caller.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const taskColumns = `task_id, task_type, priority, status, created_by,
        assigned_to_agent, file_paths, depends_on_task_ids, description,
        context, created_at, assigned_at, started_at, completed_at,
        result, error_log, retry_count`

// FetchClaimable returns up to limit tasks in 'assigned' status with a
// non-null agent, ordered by priority descending then creation time
// ascending. The ordering is a contract: higher priority always wins,
// ties go to the oldest task.
func (s *Store) FetchClaimable(ctx context.Context, limit int) ([]domain.Task, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+taskColumns+`
        FROM task_queue
        WHERE status = 'assigned' AND assigned_to_agent IS NOT NULL
        ORDER BY priority DESC, created_at ASC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch claimable tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// FetchStaleInProgress returns tasks stuck in 'in_progress' whose
// started_at is older than before. Used by the reaper only.
func (s *Store) FetchStaleInProgress(ctx context.Context, before time.Time) ([]domain.Task, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+taskColumns+`
        FROM task_queue
        WHERE status = 'in_progress' AND started_at < $1
        ORDER BY started_at ASC
    `, before)
	if err != nil {
		return nil, fmt.Errorf("fetch stale tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTaskByID returns one task or pgx.ErrNoRows.
func (s *Store) GetTaskByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+taskColumns+`
        FROM task_queue
        WHERE task_id = $1
    `, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a new task. Status and assigned agent come from the
// caller; producers insert 'pending' or directly 'assigned'.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var assignedTo *string
	if t.AssignedTo != "" {
		assignedTo = &t.AssignedTo
	}
	ctxDoc := t.Context
	if len(ctxDoc) == 0 {
		ctxDoc = json.RawMessage(`{}`)
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO task_queue
            (task_id, task_type, priority, status, created_by, assigned_to_agent,
             file_paths, depends_on_task_ids, description, context, created_at, assigned_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(),
                CASE WHEN $6::TEXT IS NULL THEN NULL ELSE NOW() END)
    `, t.ID, t.Type, t.Priority, t.Status, t.CreatedBy, assignedTo,
		notNullStrings(t.FilePaths), notNullUUIDs(t.DependsOn), t.Description, ctxDoc)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return tx.Commit(ctx)
}

// MarkInProgress transitions assigned -> in_progress and sets started_at.
// A task in any other status is rejected with ErrInvalidTransition.
func (s *Store) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, `
        UPDATE task_queue
        SET status = 'in_progress', started_at = NOW()
        WHERE task_id = $1 AND status = 'assigned'
    `, id)
}

// MarkCompleted transitions in_progress -> completed with the result
// document and completion timestamp.
func (s *Store) MarkCompleted(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	if len(result) == 0 {
		result = json.RawMessage(`{}`)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE task_queue
        SET status = 'completed', completed_at = NOW(), result = $2
        WHERE task_id = $1 AND status = 'in_progress'
    `, id, result)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return tx.Commit(ctx)
}

// MarkFailed transitions in_progress -> failed, records the error text and
// increments retry_count.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE task_queue
        SET status = 'failed', completed_at = NOW(), error_log = $2,
            retry_count = retry_count + 1
        WHERE task_id = $1 AND status = 'in_progress'
    `, id, errMsg)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return tx.Commit(ctx)
}

// ResetTask re-queues a failed task back to 'assigned'. This is an
// explicit operator action; the loop never re-queues on its own.
func (s *Store) ResetTask(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, `
        UPDATE task_queue
        SET status = 'assigned', started_at = NULL, completed_at = NULL,
            result = NULL, error_log = NULL
        WHERE task_id = $1 AND status = 'failed' AND assigned_to_agent IS NOT NULL
    `, id)
}

// InsertDelegated inserts the follow-on task spawned by a coordinator
// delegate decision: same type, priority and description as the parent, in
// 'assigned' status on the target agent, with a context pointing back at
// the parent. Returns the new task id.
func (s *Store) InsertDelegated(ctx context.Context, parent *domain.Task, target, guidance string) (uuid.UUID, error) {
	ctxDoc, err := json.Marshal(domain.DelegationContext{
		DelegatedFrom: parent.ID,
		Guidance:      guidance,
	})
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	_, err = tx.Exec(ctx, `
        INSERT INTO task_queue
            (task_id, task_type, priority, status, created_by, assigned_to_agent,
             file_paths, description, context, created_at, assigned_at)
        VALUES ($1, $2, $3, 'assigned', $4, $5, $6, $7, $8, NOW(), NOW())
    `, id, parent.Type, parent.Priority, domain.AgentSolace, target,
		notNullStrings(parent.FilePaths), parent.Description, ctxDoc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert delegated task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Store) transition(ctx context.Context, query string, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return tx.Commit(ctx)
}

// pgx encodes a nil slice as SQL NULL, which the NOT NULL array columns
// reject; inserts always send an empty array instead.
func notNullStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func notNullUUIDs(s []uuid.UUID) []uuid.UUID {
	if s == nil {
		return []uuid.UUID{}
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var assignedTo, errorLog *string
	err := row.Scan(
		&t.ID, &t.Type, &t.Priority, &t.Status, &t.CreatedBy,
		&assignedTo, &t.FilePaths, &t.DependsOn, &t.Description,
		&t.Context, &t.CreatedAt, &t.AssignedAt, &t.StartedAt, &t.CompletedAt,
		&t.Result, &errorLog, &t.RetryCount,
	)
	if err != nil {
		return domain.Task{}, err
	}
	if assignedTo != nil {
		t.AssignedTo = *assignedTo
	}
	if errorLog != nil {
		t.ErrorLog = *errorLog
	}
	return t, nil
}
