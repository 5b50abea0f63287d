package agents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"SwarmCoordinator/internal/domain"
)

// Forge is the implementation agent, backed by the Anthropic messages API.
type Forge struct {
	APIKey  string
	BaseURL string
	Model   string

	client *http.Client
}

func NewForge(apiKey, baseURL, model string) *Forge {
	return &Forge{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  newHTTPClient(),
	}
}

func (f *Forge) Name() string { return domain.AgentForge }

func (f *Forge) Execute(ctx context.Context, task *domain.Task) (*domain.AgentOutput, error) {
	body := map[string]any{
		"model":      f.Model,
		"max_tokens": 4000,
		"messages": []map[string]any{{
			"role":    "user",
			"content": []map[string]string{{"type": "text", "text": f.prompt(task)}},
		}},
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := postJSON(ctx, f.client, f.BaseURL+"/v1/messages", map[string]string{
		"x-api-key":         f.APIKey,
		"anthropic-version": "2023-06-01",
	}, body, &resp); err != nil {
		return nil, fmt.Errorf("forge: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, errors.New("forge: response contained no content")
	}

	return &domain.AgentOutput{
		Agent:          domain.AgentForge,
		Kind:           domain.OutputImplementation,
		Implementation: resp.Content[0].Text,
		TokensUsed:     resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

func (f *Forge) prompt(task *domain.Task) string {
	return fmt.Sprintf(`You are FORGE, the UI builder of the agent swarm.

Task: %s
Type: %s
Files: %v

Build the requested UI component or code. Follow these guidelines:
- Use modern, clean design
- Ensure responsiveness
- Include error handling
- Add helpful comments

Provide your implementation and explain what you built.`,
		task.Description, task.Type, task.FilePaths)
}
