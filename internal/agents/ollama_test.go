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

func TestArchitectExecute(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"response":   "1. Overview ...",
			"eval_count": 845,
			"done":       true,
		})
	}))
	defer srv.Close()

	architect := NewArchitect(srv.URL, "deepseek-r1:14b")
	out, err := architect.Execute(context.Background(), testTask(domain.AgentArchitect))
	require.NoError(t, err)

	assert.Equal(t, "deepseek-r1:14b", gotBody["model"])
	assert.Equal(t, false, gotBody["stream"])
	assert.Contains(t, gotBody["prompt"], "ARCHITECT")

	assert.Equal(t, domain.AgentArchitect, out.Agent)
	assert.Equal(t, domain.OutputReport, out.Kind)
	assert.Equal(t, "1. Overview ...", out.Report)
	assert.Equal(t, 845, out.TokensUsed)
}

func TestSentinelPromptAndName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["prompt"], "SENTINEL")

		json.NewEncoder(w).Encode(map[string]any{"response": "no bugs found"})
	}))
	defer srv.Close()

	sentinel := NewSentinel(srv.URL, "deepseek-r1:14b")
	assert.Equal(t, domain.AgentSentinel, sentinel.Name())

	out, err := sentinel.Execute(context.Background(), testTask(domain.AgentSentinel))
	require.NoError(t, err)
	assert.Equal(t, "no bugs found", out.Report)
}

func TestOllamaExecuteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": "model not found"})
	}))
	defer srv.Close()

	sentinel := NewSentinel(srv.URL, "missing-model")
	_, err := sentinel.Execute(context.Background(), testTask(domain.AgentSentinel))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestPingOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
	}))
	defer srv.Close()

	require.NoError(t, PingOllama(context.Background(), srv.URL))

	srv.Close()
	require.Error(t, PingOllama(context.Background(), srv.URL))
}
