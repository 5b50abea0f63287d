package dispatch

import (
	"context"
	"testing"
	"time"

	"SwarmCoordinator/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReapOnce(t *testing.T) {
	store := newFakeStore()

	stale := store.add(assignedTask(domain.AgentForge, 5, time.Now().Add(-time.Hour)))
	stale.Status = domain.StatusInProgress
	startedLongAgo := time.Now().Add(-time.Hour)
	stale.StartedAt = &startedLongAgo

	fresh := store.add(assignedTask(domain.AgentSentinel, 5, time.Now()))
	fresh.Status = domain.StatusInProgress
	justStarted := time.Now().Add(-time.Minute)
	fresh.StartedAt = &justStarted

	queued := store.add(assignedTask(domain.AgentArchitect, 5, time.Now()))

	reaper := NewReaper(store, 30*time.Minute, zerolog.Nop())
	reaped := reaper.ReapOnce(context.Background())
	assert.Equal(t, 1, reaped)

	got := store.task(stale.ID)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Contains(t, got.ErrorLog, "stale in_progress task reaped")
	assert.Equal(t, domain.AgentIdle, store.agentState(domain.AgentForge).Status)

	assert.Equal(t, domain.StatusInProgress, store.task(fresh.ID).Status)
	assert.Equal(t, domain.StatusAssigned, store.task(queued.ID).Status)
}

func TestReaperRegister(t *testing.T) {
	store := newFakeStore()
	reaper := NewReaper(store, time.Hour, zerolog.Nop())

	c := cron.New()
	require.NoError(t, reaper.Register(c, time.Minute))
	assert.Len(t, c.Entries(), 1)
}
