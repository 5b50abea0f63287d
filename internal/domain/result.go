package domain

import (
	"encoding/json"
	"strings"
)

type Decision string

const (
	DecisionHandle   Decision = "handle"
	DecisionDelegate Decision = "delegate"
)

// Coordination is the structured response of the coordinator agent.
type Coordination struct {
	Decision   Decision `json:"decision"`
	DelegateTo string   `json:"delegate_to,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Guidance   string   `json:"guidance,omitempty"`
	Complexity string   `json:"estimated_complexity,omitempty"`
}

// Delegates reports whether the coordinator asked for a follow-on task
// on another agent.
func (c *Coordination) Delegates() bool {
	return c != nil && c.Decision == DecisionDelegate && c.DelegateTo != "" &&
		!strings.EqualFold(c.DelegateTo, "null")
}

// AgentOutput is the normalized result of one agent execution. Exactly one
// of the payload fields is populated, discriminated by Kind; Raw is the
// fallback variant when a provider response does not validate, so no
// information is ever dropped.
type AgentOutput struct {
	Agent          string        `json:"agent"`
	Kind           string        `json:"kind"`
	Coordination   *Coordination `json:"coordination,omitempty"`
	Implementation string        `json:"implementation,omitempty"`
	Report         string        `json:"report,omitempty"`
	Raw            string        `json:"raw,omitempty"`
	TokensUsed     int           `json:"tokens_used,omitempty"`
}

const (
	OutputCoordination   = "coordination"
	OutputImplementation = "implementation"
	OutputReport         = "report"
	OutputRaw            = "raw"
)

// Document serializes the output for the task_queue result column.
func (o *AgentOutput) Document() json.RawMessage {
	b, err := json.Marshal(o)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// ParseCoordination extracts the coordinator's decision from a model
// response. Models occasionally wrap the JSON in a markdown fence or
// surround it with prose, so the candidate is the first-{ to last-} span.
// Returns false when nothing in the text validates as a decision; the
// caller falls back to the raw variant so the text is not lost.
func ParseCoordination(text string) (*Coordination, bool) {
	candidate := strings.TrimSpace(text)
	if i := strings.Index(candidate, "{"); i >= 0 {
		if j := strings.LastIndex(candidate, "}"); j > i {
			candidate = candidate[i : j+1]
		}
	}

	var c Coordination
	if err := json.Unmarshal([]byte(candidate), &c); err != nil {
		return nil, false
	}
	if c.Decision != DecisionHandle && c.Decision != DecisionDelegate {
		return nil, false
	}
	return &c, true
}
