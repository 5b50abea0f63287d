// Package agents holds the worker set of the swarm: one named executor per
// external LLM capability, plus the registry that routes a task's assigned
// agent name to its implementation.
//
// Agents are thin pass-throughs: they build a prompt from the task, call
// the provider once (no internal retries) and normalize the response into a
// typed output. They never touch the store; persisting the outcome is the
// dispatcher's job.
package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"SwarmCoordinator/internal/domain"
)

type Agent interface {
	Name() string
	Execute(ctx context.Context, task *domain.Task) (*domain.AgentOutput, error)
}

const (
	defaultTimeout = 120 * time.Second
	pingTimeout    = 2 * time.Second
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// postJSON sends one JSON request and decodes a JSON response. Non-2xx
// responses become errors carrying the status code and the provider's body
// so the original failure message survives into error_log.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var eresp map[string]any
		_ = json.NewDecoder(res.Body).Decode(&eresp)
		return fmt.Errorf("%s returned status %d: %v", url, res.StatusCode, eresp)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
