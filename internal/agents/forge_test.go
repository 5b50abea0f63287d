package agents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SwarmCoordinator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForgeExecute(t *testing.T) {
	var gotKey, gotVersion, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotPath = r.URL.Path

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "Here is the component."}},
			"usage":   map[string]any{"input_tokens": 100, "output_tokens": 250},
		})
	}))
	defer srv.Close()

	forge := NewForge("ck-test", srv.URL, "claude-3-7-sonnet-20250219")
	out, err := forge.Execute(context.Background(), testTask(domain.AgentForge))
	require.NoError(t, err)

	assert.Equal(t, "ck-test", gotKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "/v1/messages", gotPath)

	assert.Equal(t, domain.AgentForge, out.Agent)
	assert.Equal(t, domain.OutputImplementation, out.Kind)
	assert.Equal(t, "Here is the component.", out.Implementation)
	assert.Equal(t, 350, out.TokensUsed)
}

func TestForgeExecuteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "overloaded"}})
	}))
	defer srv.Close()

	forge := NewForge("ck-test", srv.URL, "claude-3-7-sonnet-20250219")
	_, err := forge.Execute(context.Background(), testTask(domain.AgentForge))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "overloaded")
}

func TestForgeExecuteEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer srv.Close()

	forge := NewForge("ck-test", srv.URL, "claude-3-7-sonnet-20250219")
	_, err := forge.Execute(context.Background(), testTask(domain.AgentForge))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}
