package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCycle(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	rec := NewRecorder(rdb)
	ctx := context.Background()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	require.NoError(t, rec.RecordCycle(ctx, CycleStats{
		Fetched: 4, Completed: 2, Failed: 1, Skipped: 1, Delegated: 1, At: at,
	}))

	cycles, err := s.Get("metrics:coordinator:cycles")
	require.NoError(t, err)
	assert.Equal(t, "1", cycles)
	assert.Equal(t, "4", s.HGet("metrics:coordinator:last", "fetched"))
	assert.Equal(t, "1", s.HGet("metrics:coordinator:last", "skipped"))
	assert.Equal(t, "1", s.HGet("metrics:coordinator:last", "failed"))

	require.NoError(t, rec.RecordCycle(ctx, CycleStats{
		Fetched: 0, At: at.Add(10 * time.Second),
	}))
	cycles, err = s.Get("metrics:coordinator:cycles")
	require.NoError(t, err)
	assert.Equal(t, "2", cycles)
	assert.Equal(t, "0", s.HGet("metrics:coordinator:last", "fetched"))
	assert.Equal(t, at.Add(10*time.Second).Format(time.RFC3339),
		s.HGet("metrics:coordinator:last", "time"))
}

func TestRecordCycleNilRecorder(t *testing.T) {
	var rec *Recorder
	assert.NoError(t, rec.RecordCycle(context.Background(), CycleStats{Fetched: 1}))

	rec = NewRecorder(nil)
	assert.NoError(t, rec.RecordCycle(context.Background(), CycleStats{Fetched: 1}))
}

func TestConnectBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-redis-url")
	require.Error(t, err)
}
