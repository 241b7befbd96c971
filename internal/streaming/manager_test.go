package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	m := NewManager(16)
	ch := m.Subscribe("run-1", 8)
	defer m.Unsubscribe("run-1", ch)

	m.Publish("run-1", Event{RunID: "run-1", State: "planning", Message: "decomposing query"})

	select {
	case evt := <-ch:
		assert.Equal(t, "planning", evt.State)
		assert.Equal(t, uint64(1), evt.Seq)
	case <-time.After(time.Second):
		t.Fatal("expected event delivery")
	}
}

func TestPublishIsolatesRuns(t *testing.T) {
	m := NewManager(16)
	ch := m.Subscribe("run-a", 8)
	defer m.Unsubscribe("run-a", ch)

	m.Publish("run-b", Event{RunID: "run-b", State: "searching"})

	select {
	case <-ch:
		t.Fatal("subscriber of run-a must not see run-b events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReplaySince(t *testing.T) {
	m := NewManager(16)
	for _, state := range []string{"planning", "searching", "evaluating"} {
		m.Publish("run-1", Event{RunID: "run-1", State: state})
	}

	events := m.ReplaySince("run-1", 0)
	require.Len(t, events, 3, "since 0 replays the full history")
	assert.Equal(t, "planning", events[0].State)
	assert.Equal(t, "evaluating", events[2].State)

	events = m.ReplaySince("run-1", 1)
	require.Len(t, events, 2)
	assert.Equal(t, "searching", events[0].State)
}

func TestRingOverwritesOldest(t *testing.T) {
	m := NewManager(2)
	for i := 0; i < 5; i++ {
		m.Publish("run-1", Event{RunID: "run-1", State: "searching"})
	}
	events := m.ReplaySince("run-1", 0)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(4), events[0].Seq)
	assert.Equal(t, uint64(5), events[1].Seq)
}

// Replay while a run is still publishing must be race-free: a reconnecting
// client replays its backlog at the same time the workflow keeps emitting.
// Run with -race.
func TestReplayDuringPublishIsSafe(t *testing.T) {
	m := NewManager(32)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			m.Publish("run-1", Event{RunID: "run-1", State: "searching"})
		}
	}()

	for {
		select {
		case <-done:
			events := m.ReplaySince("run-1", 0)
			require.NotEmpty(t, events)
			assert.Equal(t, uint64(500), events[len(events)-1].Seq)
			return
		default:
			m.ReplaySince("run-1", 0)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	m := NewManager(16)
	ch := m.Subscribe("run-1", 1)
	defer m.Unsubscribe("run-1", ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			m.Publish("run-1", Event{RunID: "run-1", State: "searching"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish must never block on a slow subscriber")
	}
}

func TestRedisMirrorRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	mirror := NewRedisMirror(rdb, 64, time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	mirror.Append(ctx, Event{
		RunID:     "run-7",
		State:     "evaluating",
		Iteration: 1,
		Message:   "judging sufficiency",
		Seq:       3,
		Timestamp: time.Now().UTC(),
	})
	mirror.Append(ctx, Event{
		RunID:     "run-7",
		State:     "done",
		Iteration: 1,
		Report:    "# Findings",
		Seq:       4,
		Timestamp: time.Now().UTC(),
	})

	events, err := mirror.Tail(ctx, "run-7", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evaluating", events[0].State)
	assert.Equal(t, 1, events[0].Iteration)
	assert.Equal(t, uint64(3), events[0].Seq)
	assert.Equal(t, "done", events[1].State)
	assert.Equal(t, "# Findings", events[1].Report)
}
