package agents

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"SwarmCoordinator/internal/domain"
)

// OllamaAgent is a report-producing agent backed by a locally hosted model
// server speaking the Ollama generate API. Both ARCHITECT and SENTINEL are
// instances of it with different roles and prompts.
type OllamaAgent struct {
	AgentName string
	BaseURL   string
	Model     string
	Prompt    func(*domain.Task) string

	client *http.Client
}

func NewArchitect(baseURL, model string) *OllamaAgent {
	return &OllamaAgent{
		AgentName: domain.AgentArchitect,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		Prompt:    architectPrompt,
		client:    newHTTPClient(),
	}
}

func NewSentinel(baseURL, model string) *OllamaAgent {
	return &OllamaAgent{
		AgentName: domain.AgentSentinel,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		Prompt:    sentinelPrompt,
		client:    newHTTPClient(),
	}
}

func (o *OllamaAgent) Name() string { return o.AgentName }

func (o *OllamaAgent) Execute(ctx context.Context, task *domain.Task) (*domain.AgentOutput, error) {
	body := map[string]any{
		"model":  o.Model,
		"prompt": o.Prompt(task),
		"stream": false,
	}

	var resp struct {
		Response  string `json:"response"`
		EvalCount int    `json:"eval_count"`
	}
	if err := postJSON(ctx, o.client, o.BaseURL+"/api/generate", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", strings.ToLower(o.AgentName), err)
	}

	return &domain.AgentOutput{
		Agent:      o.AgentName,
		Kind:       domain.OutputReport,
		Report:     resp.Response,
		TokensUsed: resp.EvalCount,
	}, nil
}

// Ping checks that the model server answers /api/tags. Used at startup to
// decide whether ARCHITECT and SENTINEL are available.
func PingOllama(ctx context.Context, baseURL string) error {
	url := strings.TrimRight(baseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := (&http.Client{Timeout: pingTimeout}).Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", res.StatusCode)
	}
	return nil
}

func architectPrompt(task *domain.Task) string {
	return fmt.Sprintf(`You are ARCHITECT, the planning and design expert of the agent swarm.

Task: %s
Type: %s

Create a detailed architectural plan. Include:
- System design overview
- Component breakdown
- Data flow
- Design patterns to use
- Potential challenges
- Testing strategy

Be thorough and strategic.`, task.Description, task.Type)
}

func sentinelPrompt(task *domain.Task) string {
	return fmt.Sprintf(`You are SENTINEL, the testing and debugging expert of the agent swarm.

Task: %s
Type: %s
Files: %v

Your mission:
- Identify potential bugs
- Write test cases
- Validate logic
- Check edge cases
- Suggest improvements

Provide a comprehensive quality assessment.`, task.Description, task.Type, task.FilePaths)
}
