package agents

import (
	"context"
	"fmt"

	"SwarmCoordinator/internal/config"
	"SwarmCoordinator/internal/domain"

	"github.com/rs/zerolog"
)

// ErrUnknownAgent is the routing failure: the task names an agent that is
// not registered, either because the name is wrong or because the agent's
// credentials were missing at startup. Distinct from execution failures.
type ErrUnknownAgent struct {
	Agent string
}

func (e *ErrUnknownAgent) Error() string {
	return fmt.Sprintf("unknown agent: %s", e.Agent)
}

// Registry is the static mapping from agent name to implementation, built
// once at startup.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry constructs every agent whose external capability is
// configured and reachable. SOLACE is always present; Validate has already
// failed startup if its key is missing. FORGE is skipped without a Claude
// key, and the Ollama pair is skipped when the local model server does not
// answer, so routing to a disabled agent fails per task instead of
// aborting the process.
func NewRegistry(ctx context.Context, cfg *config.Config, log zerolog.Logger) *Registry {
	r := &Registry{agents: map[string]Agent{}}

	r.register(NewSolace(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	log.Info().Str("agent", domain.AgentSolace).Msg("OpenAI client initialized")

	if cfg.ClaudeAPIKey != "" {
		r.register(NewForge(cfg.ClaudeAPIKey, cfg.ClaudeBaseURL, cfg.ClaudeModel))
		log.Info().Str("agent", domain.AgentForge).Msg("Claude client initialized")
	} else {
		log.Warn().Msg("CLAUDE_API_KEY not set, FORGE unavailable")
	}

	if err := PingOllama(ctx, cfg.OllamaBaseURL); err != nil {
		log.Warn().Err(err).Msg("Ollama not available, ARCHITECT/SENTINEL unavailable")
	} else {
		r.register(NewArchitect(cfg.OllamaBaseURL, cfg.OllamaModel))
		r.register(NewSentinel(cfg.OllamaBaseURL, cfg.OllamaModel))
		log.Info().Msg("Ollama available (ARCHITECT, SENTINEL)")
	}
	return r
}

// NewRegistryFromAgents builds a registry from explicit agents.
func NewRegistryFromAgents(list ...Agent) *Registry {
	r := &Registry{agents: map[string]Agent{}}
	for _, a := range list {
		r.register(a)
	}
	return r
}

func (r *Registry) register(a Agent) {
	r.agents[a.Name()] = a
}

// Lookup resolves an agent name; failure is a routing error.
func (r *Registry) Lookup(name string) (Agent, error) {
	a, ok := r.agents[name]
	if !ok {
		return nil, &ErrUnknownAgent{Agent: name}
	}
	return a, nil
}

// Names returns the registered agent names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	return names
}
