package domain

import (
	"time"

	"github.com/google/uuid"
)

// Well-known agent names of the swarm.
const (
	AgentSolace    = "SOLACE"    // OpenAI, strategy and coordination
	AgentForge     = "FORGE"     // Anthropic, UI building and coding
	AgentArchitect = "ARCHITECT" // Ollama, planning and architecture
	AgentSentinel  = "SENTINEL"  // Ollama, testing and validation
)

type AgentStatus string

const (
	AgentIdle AgentStatus = "idle"
	AgentBusy AgentStatus = "busy"
)

// AgentRegistration is one row of agent_registry: the mutable busy/idle
// state of a named agent, updated around every task execution.
type AgentRegistration struct {
	AgentName     string      `json:"agent_name"`
	Status        AgentStatus `json:"status"`
	CurrentTaskID *uuid.UUID  `json:"current_task_id,omitempty"`
	LastActiveAt  *time.Time  `json:"last_active_at,omitempty"`
}

// HistoryEntry is one append-only row of agent_task_history, written once
// per execution attempt. Never read by the loop itself.
type HistoryEntry struct {
	AgentName    string    `json:"agent_name"`
	TaskID       uuid.UUID `json:"task_id"`
	TaskType     string    `json:"task_type"`
	Success      bool      `json:"success"`
	DurationMs   int64     `json:"duration_ms"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CostTokens   int       `json:"cost_tokens,omitempty"`
}
