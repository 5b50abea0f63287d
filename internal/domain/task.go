package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Task struct {
	ID          uuid.UUID       `json:"task_id"`
	Type        string          `json:"task_type"`
	Priority    int             `json:"priority"`
	Status      TaskStatus      `json:"status"`
	CreatedBy   string          `json:"created_by"`
	AssignedTo  string          `json:"assigned_to_agent"`
	FilePaths   []string        `json:"file_paths,omitempty"`
	DependsOn   []uuid.UUID     `json:"depends_on_task_ids,omitempty"`
	Description string          `json:"description"`
	Context     json.RawMessage `json:"context,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	AssignedAt  *time.Time      `json:"assigned_at,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorLog    string          `json:"error_log,omitempty"`
	RetryCount  int             `json:"retry_count"`
}

// DelegationContext is stored as the context of a task spawned by a
// coordinator delegate decision.
type DelegationContext struct {
	DelegatedFrom uuid.UUID `json:"delegated_from"`
	Guidance      string    `json:"guidance,omitempty"`
}
