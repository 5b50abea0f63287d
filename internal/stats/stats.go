// Package stats mirrors per-cycle dispatch counters into Redis so
// operators can watch the loop without querying Postgres. The mirror is
// optional: a nil Recorder is a no-op.
package stats

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cyclesKey    = "metrics:coordinator:cycles"
	lastCycleKey = "metrics:coordinator:last"
)

// Connect opens and pings a Redis client from a redis:// URL.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// CycleStats counts one poll iteration. Skipped tasks were fetched but
// never claimed; they stay assigned and are retried next cycle, so they
// are not failures.
type CycleStats struct {
	Fetched   int
	Completed int
	Failed    int
	Skipped   int
	Delegated int
	At        time.Time
}

type Recorder struct {
	rdb *redis.Client
}

func NewRecorder(rdb *redis.Client) *Recorder {
	return &Recorder{rdb: rdb}
}

// RecordCycle bumps the cycle counter and overwrites the last-cycle hash.
// Errors are returned for logging but never interrupt the dispatch loop.
func (r *Recorder) RecordCycle(ctx context.Context, s CycleStats) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	if err := r.rdb.Incr(ctx, cyclesKey).Err(); err != nil {
		return err
	}
	return r.rdb.HSet(ctx, lastCycleKey, map[string]any{
		"time":      s.At.Format(time.RFC3339),
		"fetched":   s.Fetched,
		"completed": s.Completed,
		"failed":    s.Failed,
		"skipped":   s.Skipped,
		"delegated": s.Delegated,
	}).Err()
}
