package agents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"SwarmCoordinator/internal/domain"
)

// Solace is the coordinator agent, backed by the OpenAI chat completions
// API. It is the only agent whose output may carry a delegate decision.
type Solace struct {
	APIKey  string
	BaseURL string
	Model   string

	client *http.Client
}

func NewSolace(apiKey, baseURL, model string) *Solace {
	return &Solace{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  newHTTPClient(),
	}
}

func (s *Solace) Name() string { return domain.AgentSolace }

func (s *Solace) Execute(ctx context.Context, task *domain.Task) (*domain.AgentOutput, error) {
	body := map[string]any{
		"model": s.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are SOLACE, strategic AI coordinator."},
			{"role": "user", "content": s.prompt(task)},
		},
		"temperature": 0.7,
		"max_tokens":  1000,
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := postJSON(ctx, s.client, s.BaseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + s.APIKey,
	}, body, &resp); err != nil {
		return nil, fmt.Errorf("solace: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("solace: response contained no choices")
	}

	text := resp.Choices[0].Message.Content
	coordination, ok := domain.ParseCoordination(text)
	if !ok {
		// nothing in the text validates as a decision; keep the full
		// response as the raw variant instead of dropping it
		return &domain.AgentOutput{
			Agent:      domain.AgentSolace,
			Kind:       domain.OutputRaw,
			Raw:        text,
			TokensUsed: resp.Usage.TotalTokens,
		}, nil
	}

	return &domain.AgentOutput{
		Agent:        domain.AgentSolace,
		Kind:         domain.OutputCoordination,
		Coordination: coordination,
		TokensUsed:   resp.Usage.TotalTokens,
	}, nil
}

func (s *Solace) prompt(task *domain.Task) string {
	return fmt.Sprintf(`You are SOLACE, the strategic coordinator of the agent swarm.

Task Type: %s
Description: %s
Priority: %d/10
Files: %v

Your role is to:
1. Analyze the task
2. Decide if you should handle it OR delegate to:
   - FORGE (UI building, React, HTML, CSS)
   - ARCHITECT (Planning, architecture, design)
   - SENTINEL (Testing, debugging, validation)
3. If delegating, explain why
4. Provide strategic guidance

Respond in JSON format:
{
    "decision": "handle|delegate",
    "delegate_to": "FORGE|ARCHITECT|SENTINEL|null",
    "reasoning": "explanation",
    "guidance": "strategic advice",
    "estimated_complexity": "low|medium|high"
}`, task.Type, task.Description, task.Priority, task.FilePaths)
}
