package streaming

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisMirror appends published events to a per-run Redis Stream so that
// replicas other than the one executing the workflow can serve subscribers.
// Mirroring is best-effort: a Redis outage never blocks a research run.
type RedisMirror struct {
	rdb    *redis.Client
	maxLen int64
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisMirror creates a mirror over an existing Redis client.
func NewRedisMirror(rdb *redis.Client, maxLen int64, ttl time.Duration, logger *zap.Logger) *RedisMirror {
	if maxLen <= 0 {
		maxLen = 512
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisMirror{rdb: rdb, maxLen: maxLen, ttl: ttl, logger: logger}
}

func streamKey(runID string) string { return fmt.Sprintf("seeker:run:%s:events", runID) }

// Append writes the event to the run's stream with approximate trimming.
func (m *RedisMirror) Append(ctx context.Context, evt Event) {
	key := streamKey(evt.RunID)
	err := m.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		MaxLen: m.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"state":     evt.State,
			"iteration": evt.Iteration,
			"message":   evt.Message,
			"report":    evt.Report,
			"seq":       evt.Seq,
			"ts":        evt.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		m.logger.Warn("Failed to mirror event to Redis stream",
			zap.String("run_id", evt.RunID),
			zap.Error(err),
		)
		return
	}
	_ = m.rdb.Expire(ctx, key, m.ttl).Err()
}

// Tail returns up to count most recent mirrored events for a run.
func (m *RedisMirror) Tail(ctx context.Context, runID string, count int64) ([]Event, error) {
	msgs, err := m.rdb.XRevRangeN(ctx, streamKey(runID), "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("read event stream: %w", err)
	}
	out := make([]Event, 0, len(msgs))
	// XRevRange returns newest first; restore chronological order.
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, eventFromValues(runID, msgs[i].Values))
	}
	return out, nil
}

func eventFromValues(runID string, vals map[string]interface{}) Event {
	evt := Event{RunID: runID}
	if s, ok := vals["state"].(string); ok {
		evt.State = s
	}
	if s, ok := vals["message"].(string); ok {
		evt.Message = s
	}
	if s, ok := vals["report"].(string); ok {
		evt.Report = s
	}
	if s, ok := vals["iteration"].(string); ok {
		fmt.Sscanf(s, "%d", &evt.Iteration)
	}
	if s, ok := vals["seq"].(string); ok {
		fmt.Sscanf(s, "%d", &evt.Seq)
	}
	if s, ok := vals["ts"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			evt.Timestamp = t
		}
	}
	return evt
}
