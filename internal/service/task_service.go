package service

import (
	"context"
	"encoding/json"
	"fmt"

	"SwarmCoordinator/internal/domain"
	"SwarmCoordinator/internal/repo"

	"github.com/google/uuid"
)

// TaskService is the producer side of the queue: it creates tasks for the
// dispatch loop to claim and answers read queries for the HTTP API. All
// store access still goes through the repo adapter.
type TaskService struct {
	store *repo.Store
}

func NewTaskService(store *repo.Store) *TaskService {
	return &TaskService{store: store}
}

type CreateTaskParams struct {
	Type        string
	Priority    int
	AssignedTo  string
	Description string
	FilePaths   []string
	Context     map[string]any
	CreatedBy   string
}

// CreateTask inserts a task. With an assigned agent it enters the queue
// directly claimable; without one it stays pending until an external
// planner assigns it.
func (s *TaskService) CreateTask(ctx context.Context, p CreateTaskParams) (uuid.UUID, domain.TaskStatus, error) {
	status := domain.StatusPending
	if p.AssignedTo != "" {
		status = domain.StatusAssigned
	}

	var ctxDoc json.RawMessage
	if p.Context != nil {
		b, err := json.Marshal(p.Context)
		if err != nil {
			return uuid.Nil, "", fmt.Errorf("encode task context: %w", err)
		}
		ctxDoc = b
	}

	t := &domain.Task{
		ID:          uuid.New(),
		Type:        p.Type,
		Priority:    p.Priority,
		Status:      status,
		CreatedBy:   p.CreatedBy,
		AssignedTo:  p.AssignedTo,
		FilePaths:   p.FilePaths,
		Description: p.Description,
		Context:     ctxDoc,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return uuid.Nil, "", err
	}
	return t.ID, status, nil
}

func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.store.GetTaskByID(ctx, id)
}

// ResetTask is the operator action that re-queues a failed task.
func (s *TaskService) ResetTask(ctx context.Context, id uuid.UUID) error {
	return s.store.ResetTask(ctx, id)
}

func (s *TaskService) ListAgents(ctx context.Context) ([]domain.AgentRegistration, error) {
	return s.store.ListAgents(ctx)
}
