package dispatch

import (
	"context"
	"fmt"
	"time"

	"SwarmCoordinator/internal/domain"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// StaleTaskStore is the slice of the store adapter the reaper needs.
type StaleTaskStore interface {
	FetchStaleInProgress(ctx context.Context, before time.Time) ([]domain.Task, error)
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	SetAgentState(ctx context.Context, agentName string, status domain.AgentStatus, taskID *uuid.UUID) error
}

// Reaper fails in_progress tasks whose execution evidently died with the
// process (crash, kill -9) before the loop could record an outcome. It
// never re-queues: failed tasks wait for an explicit operator reset, same
// as any other failure.
//
// The ttl must stay well above the agents' HTTP timeout: a task older
// than the ttl cannot still be executing, so the reaper's registry update
// never races the loop's busy/idle update for the same agent.
type Reaper struct {
	store StaleTaskStore
	ttl   time.Duration
	log   zerolog.Logger
}

func NewReaper(store StaleTaskStore, ttl time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{store: store, ttl: ttl, log: log}
}

// ReapOnce fails every in_progress task older than the TTL and returns
// how many were reaped.
func (r *Reaper) ReapOnce(ctx context.Context) int {
	before := time.Now().Add(-r.ttl)
	tasks, err := r.store.FetchStaleInProgress(ctx, before)
	if err != nil {
		r.log.Error().Err(err).Msg("reaper: listing stale tasks failed")
		return 0
	}

	reaped := 0
	for i := range tasks {
		task := &tasks[i]
		msg := fmt.Sprintf("stale in_progress task reaped: no outcome recorded within %s", r.ttl)
		if err := r.store.MarkFailed(ctx, task.ID, msg); err != nil {
			r.log.Error().Err(err).Stringer("task_id", task.ID).Msg("reaper: marking task failed failed")
			continue
		}
		if err := r.store.SetAgentState(ctx, task.AssignedTo, domain.AgentIdle, nil); err != nil {
			r.log.Error().Err(err).Str("agent", task.AssignedTo).Msg("reaper: releasing agent failed")
		}
		r.log.Warn().
			Stringer("task_id", task.ID).
			Str("agent", task.AssignedTo).
			Time("started_at", derefTime(task.StartedAt)).
			Msg("stale task reaped")
		reaped++
	}
	return reaped
}

// Register schedules ReapOnce on the given cron runner.
func (r *Reaper) Register(c *cron.Cron, every time.Duration) error {
	_, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		r.ReapOnce(context.Background())
	})
	return err
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
