// Package dispatch implements the coordinator's polling loop: claim a
// batch of assigned tasks, route each one to its agent, persist the
// outcome, and spawn delegated follow-on tasks when the coordinator agent
// asks for them.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"SwarmCoordinator/internal/agents"
	"SwarmCoordinator/internal/domain"
	"SwarmCoordinator/internal/metrics"
	"SwarmCoordinator/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TaskStore is the slice of the store adapter the loop needs. Implemented
// by repo.Store.
type TaskStore interface {
	FetchClaimable(ctx context.Context, limit int) ([]domain.Task, error)
	MarkInProgress(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	InsertDelegated(ctx context.Context, parent *domain.Task, target, guidance string) (uuid.UUID, error)
	SetAgentState(ctx context.Context, agentName string, status domain.AgentStatus, taskID *uuid.UUID) error
	AppendHistory(ctx context.Context, e domain.HistoryEntry) error
}

const defaultBatchSize = 10

type Dispatcher struct {
	store     TaskStore
	registry  *agents.Registry
	interval  time.Duration
	batchSize int
	recorder  *stats.Recorder
	log       zerolog.Logger
}

func New(store TaskStore, registry *agents.Registry, interval time.Duration, recorder *stats.Recorder, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		registry:  registry,
		interval:  interval,
		batchSize: defaultBatchSize,
		recorder:  recorder,
		log:       log,
	}
}

// Run polls until ctx is canceled. The wait between cycles is cancellable,
// so shutdown latency is bounded by one in-flight task, not by the sleep.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info().
		Dur("interval", d.interval).
		Strs("agents", d.registry.Names()).
		Msg("dispatch loop started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.RunCycle(ctx)
		select {
		case <-ctx.Done():
			d.log.Info().Msg("dispatch loop stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunCycle executes one poll iteration: fetch a batch of claimable tasks
// and process them strictly in fetch order. Task-level failures never
// abort the batch; store-level fetch failures skip the cycle.
func (d *Dispatcher) RunCycle(ctx context.Context) stats.CycleStats {
	cycle := stats.CycleStats{At: time.Now().UTC()}

	tasks, err := d.store.FetchClaimable(ctx, d.batchSize)
	if err != nil {
		d.log.Error().Err(err).Msg("fetching claimable tasks failed")
		return cycle
	}
	cycle.Fetched = len(tasks)
	if len(tasks) == 0 {
		d.log.Debug().Msg("no claimable tasks")
	} else {
		d.log.Info().Int("count", len(tasks)).Msg("claimable tasks found")
	}

	for i := range tasks {
		if ctx.Err() != nil {
			break
		}
		result, delegated := d.executeTask(ctx, &tasks[i])
		switch result {
		case taskCompleted:
			cycle.Completed++
		case taskFailed:
			cycle.Failed++
		case taskSkipped:
			cycle.Skipped++
		}
		if delegated {
			cycle.Delegated++
		}
	}

	metrics.Cycles.Inc()
	if err := d.recorder.RecordCycle(ctx, cycle); err != nil {
		d.log.Warn().Err(err).Msg("recording cycle stats failed")
	}
	return cycle
}

// taskResult is the per-task outcome of one execution attempt. A skipped
// task was never claimed: it stays assigned and is retried next cycle.
type taskResult int

const (
	taskCompleted taskResult = iota
	taskFailed
	taskSkipped
)

// executeTask drives one task through the state machine:
// assigned -> in_progress -> completed|failed, with the agent registration
// held busy for exactly the duration of the execution.
func (d *Dispatcher) executeTask(ctx context.Context, task *domain.Task) (result taskResult, delegated bool) {
	logger := d.log.With().
		Stringer("task_id", task.ID).
		Str("task_type", task.Type).
		Str("agent", task.AssignedTo).
		Logger()
	logger.Info().Int("priority", task.Priority).Msg("executing task")

	if err := d.store.MarkInProgress(ctx, task.ID); err != nil {
		// Without the in_progress claim the task must not run; leave it
		// for a later cycle.
		logger.Error().Err(err).Msg("marking task in_progress failed")
		return taskSkipped, false
	}
	d.setAgentState(ctx, logger, task.AssignedTo, domain.AgentBusy, &task.ID)

	start := time.Now()
	output, execErr := d.route(ctx, task)
	duration := time.Since(start)

	if execErr != nil {
		logger.Error().Err(execErr).Dur("duration", duration).Msg("task failed")
		if err := d.store.MarkFailed(ctx, task.ID, execErr.Error()); err != nil {
			logger.Error().Err(err).Msg("marking task failed failed")
		}
		d.finish(ctx, logger, task, false, duration, execErr.Error(), 0)
		return taskFailed, false
	}

	// A coordinator delegate decision spawns a follow-on task; the
	// original task still completes with the coordinator's own output.
	if output.Coordination.Delegates() {
		target := output.Coordination.DelegateTo
		logger.Info().
			Str("delegate_to", target).
			Str("reasoning", output.Coordination.Reasoning).
			Msg("coordinator delegating")
		childID, err := d.store.InsertDelegated(ctx, task, target, output.Coordination.Guidance)
		if err != nil {
			logger.Error().Err(err).Msg("inserting delegated task failed")
		} else {
			delegated = true
			metrics.TasksDelegated.Inc()
			logger.Info().Stringer("child_task_id", childID).Msg("delegated task created")
		}
	}

	if err := d.store.MarkCompleted(ctx, task.ID, output.Document()); err != nil {
		// The task stays in_progress; the reaper will eventually fail it.
		logger.Error().Err(err).Msg("marking task completed failed")
		d.finish(ctx, logger, task, false, duration, err.Error(), output.TokensUsed)
		return taskFailed, delegated
	}

	d.finish(ctx, logger, task, true, duration, "", output.TokensUsed)
	logger.Info().Dur("duration", duration).Msg("task completed")
	return taskCompleted, delegated
}

// route resolves the task's agent and invokes it once. An unknown agent is
// a routing failure, reported through the same failed-task path as an
// execution failure but with its own error type.
func (d *Dispatcher) route(ctx context.Context, task *domain.Task) (*domain.AgentOutput, error) {
	agent, err := d.registry.Lookup(task.AssignedTo)
	if err != nil {
		return nil, err
	}
	return agent.Execute(ctx, task)
}

// finish releases the agent registration and records the attempt in
// history and metrics, on both the success and the failure path.
func (d *Dispatcher) finish(ctx context.Context, logger zerolog.Logger, task *domain.Task, success bool, duration time.Duration, errMsg string, tokens int) {
	d.setAgentState(ctx, logger, task.AssignedTo, domain.AgentIdle, nil)

	if err := d.store.AppendHistory(ctx, domain.HistoryEntry{
		AgentName:    task.AssignedTo,
		TaskID:       task.ID,
		TaskType:     task.Type,
		Success:      success,
		DurationMs:   duration.Milliseconds(),
		ErrorMessage: errMsg,
		CostTokens:   tokens,
	}); err != nil {
		logger.Error().Err(err).Msg("appending task history failed")
	}

	outcome := "completed"
	if !success {
		outcome = "failed"
	}
	metrics.TasksProcessed.WithLabelValues(task.AssignedTo, outcome).Inc()
	metrics.TaskDuration.WithLabelValues(task.AssignedTo).Observe(duration.Seconds())
	if tokens > 0 {
		metrics.TokensUsed.WithLabelValues(task.AssignedTo).Add(float64(tokens))
	}
}

func (d *Dispatcher) setAgentState(ctx context.Context, logger zerolog.Logger, agent string, status domain.AgentStatus, taskID *uuid.UUID) {
	if err := d.store.SetAgentState(ctx, agent, status, taskID); err != nil {
		logger.Error().Err(err).Str("state", string(status)).Msg("updating agent state failed")
	}
}
