package repo

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"SwarmCoordinator/internal/db"
	"SwarmCoordinator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a real Postgres. Set TEST_DATABASE_URL to run them, e.g.
// TEST_DATABASE_URL="host=localhost user=postgres password=... dbname=swarm_test sslmode=disable"
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres integration tests")
	}
	ctx := context.Background()
	pool, err := db.Init(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.EnsureSchema(ctx, pool, []string{
		domain.AgentSolace, domain.AgentForge, domain.AgentArchitect, domain.AgentSentinel,
	}))
	_, err = pool.Exec(ctx, `TRUNCATE task_queue, agent_task_history`)
	require.NoError(t, err)
	return pool
}

func newAssignedTask(agent string, priority int) *domain.Task {
	return &domain.Task{
		ID:          uuid.New(),
		Type:        "testing",
		Priority:    priority,
		Status:      domain.StatusAssigned,
		CreatedBy:   "test",
		AssignedTo:  agent,
		Description: "integration test task",
	}
}

func TestFetchClaimableOrdering(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	low := newAssignedTask(domain.AgentForge, 3)
	high := newAssignedTask(domain.AgentForge, 9)
	mid1 := newAssignedTask(domain.AgentForge, 5)
	mid2 := newAssignedTask(domain.AgentForge, 5)

	// insert the high-priority task last so creation order cannot explain
	// the result
	for _, task := range []*domain.Task{low, mid1, mid2, high} {
		require.NoError(t, store.CreateTask(ctx, task))
		time.Sleep(5 * time.Millisecond)
	}

	got, err := store.FetchClaimable(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, high.ID, got[0].ID)
	// equal priority: earlier created first
	assert.Equal(t, mid1.ID, got[1].ID)
	assert.Equal(t, mid2.ID, got[2].ID)
	assert.Equal(t, low.ID, got[3].ID)
	for _, task := range got {
		assert.Equal(t, domain.StatusAssigned, task.Status)
	}
}

func TestCreateTaskWithoutOptionalFields(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	// the minimal producer request: no file paths, no dependencies, no
	// context document
	task := newAssignedTask(domain.AgentSentinel, 5)
	require.Nil(t, task.FilePaths)
	require.Nil(t, task.DependsOn)
	require.NoError(t, store.CreateTask(ctx, task))

	got, err := store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FilePaths)
	assert.Empty(t, got.DependsOn)
	assert.JSONEq(t, `{}`, string(got.Context))
}

func TestFetchClaimableSkipsUnassigned(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	pending := newAssignedTask("", 8)
	pending.Status = domain.StatusPending
	pending.AssignedTo = ""
	require.NoError(t, store.CreateTask(ctx, pending))

	claimable := newAssignedTask(domain.AgentSentinel, 1)
	require.NoError(t, store.CreateTask(ctx, claimable))

	got, err := store.FetchClaimable(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, claimable.ID, got[0].ID)
}

func TestStatusTransitions(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	task := newAssignedTask(domain.AgentForge, 5)
	require.NoError(t, store.CreateTask(ctx, task))

	// assigned -> completed without in_progress must be rejected
	err := store.MarkCompleted(ctx, task.ID, json.RawMessage(`{"ok":true}`))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, store.MarkInProgress(ctx, task.ID))
	got, err := store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	require.NotNil(t, got.StartedAt)

	require.NoError(t, store.MarkCompleted(ctx, task.ID, json.RawMessage(`{"ok":true}`)))
	got, err = store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.StartedAt)
	assert.Empty(t, got.ErrorLog)

	// terminal state is final: no further transition from the loop
	assert.ErrorIs(t, store.MarkInProgress(ctx, task.ID), ErrInvalidTransition)
	assert.ErrorIs(t, store.MarkFailed(ctx, task.ID, "late failure"), ErrInvalidTransition)
}

func TestMarkFailedIncrementsRetryCount(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	task := newAssignedTask(domain.AgentSolace, 10)
	require.NoError(t, store.CreateTask(ctx, task))
	require.NoError(t, store.MarkInProgress(ctx, task.ID))
	require.NoError(t, store.MarkFailed(ctx, task.ID, "connection refused"))

	got, err := store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Contains(t, got.ErrorLog, "connection refused")
	require.NotNil(t, got.CompletedAt)

	// operator reset re-queues and keeps the retry count
	require.NoError(t, store.ResetTask(ctx, task.ID))
	got, err = store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Empty(t, got.ErrorLog)
	assert.Nil(t, got.CompletedAt)
}

func TestInsertDelegated(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	parent := newAssignedTask(domain.AgentSolace, 7)
	require.NoError(t, store.CreateTask(ctx, parent))

	id, err := store.InsertDelegated(ctx, parent, domain.AgentForge, "build it in the purple theme")
	require.NoError(t, err)

	child, err := store.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, child.Status)
	assert.Equal(t, domain.AgentForge, child.AssignedTo)
	assert.Equal(t, parent.Type, child.Type)
	assert.Equal(t, parent.Priority, child.Priority)
	assert.Equal(t, parent.Description, child.Description)
	assert.Equal(t, domain.AgentSolace, child.CreatedBy)

	var dctx domain.DelegationContext
	require.NoError(t, json.Unmarshal(child.Context, &dctx))
	assert.Equal(t, parent.ID, dctx.DelegatedFrom)
	assert.Equal(t, "build it in the purple theme", dctx.Guidance)
}

func TestAgentStateRoundTrip(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	taskID := uuid.New()
	require.NoError(t, store.SetAgentState(ctx, domain.AgentForge, domain.AgentBusy, &taskID))

	agents, err := store.ListAgents(ctx)
	require.NoError(t, err)
	var forge *domain.AgentRegistration
	for i := range agents {
		if agents[i].AgentName == domain.AgentForge {
			forge = &agents[i]
		}
	}
	require.NotNil(t, forge)
	assert.Equal(t, domain.AgentBusy, forge.Status)
	require.NotNil(t, forge.CurrentTaskID)
	assert.Equal(t, taskID, *forge.CurrentTaskID)

	require.NoError(t, store.SetAgentState(ctx, domain.AgentForge, domain.AgentIdle, nil))
	agents, err = store.ListAgents(ctx)
	require.NoError(t, err)
	for _, a := range agents {
		if a.AgentName == domain.AgentForge {
			assert.Equal(t, domain.AgentIdle, a.Status)
			assert.Nil(t, a.CurrentTaskID)
		}
	}
}

func TestAppendHistory(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	entry := domain.HistoryEntry{
		AgentName:  domain.AgentSolace,
		TaskID:     uuid.New(),
		TaskType:   "testing",
		Success:    true,
		DurationMs: 1234,
		CostTokens: 512,
	}
	require.NoError(t, store.AppendHistory(ctx, entry))

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM agent_task_history WHERE task_id = $1`,
		entry.TaskID).Scan(&count))
	assert.Equal(t, 1, count)
}
